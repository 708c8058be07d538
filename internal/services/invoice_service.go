package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agencyledger/internal/batch"
	"agencyledger/internal/clock"
	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/logger"
	"agencyledger/internal/models"
	"agencyledger/internal/pagination"
	"agencyledger/internal/period"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// invoiceService owns the invoice state machine.
type invoiceService struct {
	db       *gorm.DB
	clock    clock.Clock
	activity ActivityServicer
}

// NewInvoiceService creates a new InvoiceServicer.
func NewInvoiceService(db *gorm.DB, clk clock.Clock, activity ActivityServicer) InvoiceServicer {
	return &invoiceService{db: db, clock: clk, activity: activityOrNop(activity)}
}

// InvoicePaymentKey is the idempotency key of the income recorded when an
// invoice is paid.
func InvoicePaymentKey(invoiceID string) string {
	return "invoice-payment:" + invoiceID
}

func (s *invoiceService) findInvoice(ctx context.Context, db *gorm.DB, orgID, invoiceID string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("id = ? AND org_id = ?", invoiceID, orgID).
		First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvoiceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return &inv, nil
}

// maxNumberAttempts bounds how many consecutive numbers insertNumbered tries
// when concurrent writers keep taking the one it picked.
const maxNumberAttempts = 5

// errNumberExhausted means every attempted invoice number was already taken.
var errNumberExhausted = errors.New("no free invoice number")

func invoiceNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("INV-%s-%04d", at.UTC().Format("200601"), seq)
}

// insertNumbered creates inv under the organization's next free invoice
// number. Deleted invoices keep their numbers. Each insert runs in a
// savepoint so a clash on the number leaves tx usable and the following
// number is tried. Any other unique violation is returned as
// gorm.ErrDuplicatedKey for the caller to classify.
func insertNumbered(tx *gorm.DB, inv *models.Invoice, at time.Time) error {
	var count int64
	if err := tx.Unscoped().Model(&models.Invoice{}).Where("org_id = ?", inv.OrgID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err)
	}

	for seq := count + 1; seq <= count+maxNumberAttempts; seq++ {
		inv.Number = invoiceNumber(at, seq)
		err := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(inv).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}

		var taken int64
		if err := tx.Unscoped().Model(&models.Invoice{}).
			Where("org_id = ? AND number = ?", inv.OrgID, inv.Number).
			Count(&taken).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		if taken == 0 {
			return err
		}
	}
	return apperrors.Wrap(apperrors.ErrStore, errNumberExhausted)
}

func transition(inv *models.Invoice, event models.InvoiceEvent) (models.InvoiceStatus, error) {
	next, ok := inv.Status.Next(event)
	if !ok {
		return "", apperrors.WithMessage(apperrors.ErrInvalidStatusTransition,
			fmt.Sprintf("cannot %s an invoice in status %s", strings.ReplaceAll(string(event), "_", " "), inv.Status))
	}
	return next, nil
}

// CreateInvoice creates a DRAFT invoice whose total is the sum of its items.
func (s *invoiceService) CreateInvoice(ctx context.Context, orgID string, in CreateInvoiceInput) (*models.Invoice, error) {
	if len(in.Items) == 0 {
		return nil, apperrors.ErrInvoiceItemsRequired
	}
	now := s.clock.Now()
	if in.IssueDate.IsZero() {
		in.IssueDate = now
	}
	if in.DueDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "due date is required")
	}
	if in.DueDate.Before(in.IssueDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "due date cannot be before issue date")
	}

	items := make([]models.InvoiceItem, len(in.Items))
	for i, it := range in.Items {
		if strings.TrimSpace(it.Description) == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item description is required")
		}
		if it.Quantity <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item quantity must be greater than zero")
		}
		if it.UnitPrice < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item unit price cannot be negative")
		}
		items[i] = models.InvoiceItem{
			Description:   it.Description,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			InstallmentID: it.InstallmentID,
		}
	}

	var inv *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.Where("id = ? AND org_id = ?", in.ClientID, orgID).First(&client).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrClientNotFound
			}
			return apperrors.Wrap(apperrors.ErrStore, err)
		}

		inv = &models.Invoice{
			OrgID:     orgID,
			ClientID:  client.ID,
			Status:    models.InvoiceStatusDraft,
			IssueDate: in.IssueDate,
			DueDate:   in.DueDate,
			Items:     items,
		}
		inv.RecalculateTotals()
		if err := insertNumbered(tx, inv, in.IssueDate); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Wrap(apperrors.ErrStore, err)
			}
			return err
		}
		return linkInstallments(tx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, orgID, "create", "invoice", inv.ID, map[string]any{"number": inv.Number, "total": inv.Total})
	return inv, nil
}

// linkInstallments marks the installments billed by inv's items.
func linkInstallments(tx *gorm.DB, inv *models.Invoice) error {
	ids := make([]string, 0, len(inv.Items))
	for _, it := range inv.Items {
		if it.InstallmentID != nil {
			ids = append(ids, *it.InstallmentID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Model(&models.Installment{}).
		Where("id IN ? AND org_id = ? AND client_id = ?", ids, inv.OrgID, inv.ClientID).
		Update("invoice_id", inv.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err)
	}
	return nil
}

// GetInvoice returns an invoice with its items and payments.
func (s *invoiceService) GetInvoice(ctx context.Context, orgID, invoiceID string) (*models.Invoice, error) {
	return s.findInvoice(ctx, s.db, orgID, invoiceID)
}

// ListInvoices returns a page of invoices, newest due date first.
func (s *invoiceService) ListInvoices(ctx context.Context, orgID string, page pagination.PageRequest, filter InvoiceFilter) (*pagination.PageResponse[models.Invoice], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Invoice{}).Scopes(models.ForOrg(orgID))
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		base = base.Where("client_id = ?", *filter.ClientID)
	}

	result, err := pagination.Fetch[models.Invoice](base, page, "due_date DESC", func(db *gorm.DB) *gorm.DB {
		return db.Preload("Items")
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return result, nil
}

// IssueInvoice moves a DRAFT invoice to OPEN.
func (s *invoiceService) IssueInvoice(ctx context.Context, orgID, invoiceID string) (*models.Invoice, error) {
	inv, err := s.findInvoice(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	next, err := transition(inv, models.InvoiceEventIssue)
	if err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ? AND status = ?", inv.ID, inv.Status).
		Update("status", next)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrInvalidStatusTransition
	}
	inv.Status = next

	s.activity.Log(ctx, orgID, "issue", "invoice", inv.ID, nil)
	return inv, nil
}

// ApprovePayment settles an OPEN or OVERDUE invoice. In one store
// transaction it marks the invoice PAID, records a PAID payment, confirms the
// billed installments and books the income.
func (s *invoiceService) ApprovePayment(ctx context.Context, orgID, invoiceID string, paidAt *time.Time) (*models.Invoice, error) {
	now := s.clock.Now()
	at := now
	if paidAt != nil {
		if paidAt.After(now) {
			return nil, apperrors.ErrInvalidPaymentDate
		}
		at = paidAt.UTC()
	}

	var inv *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = s.findInvoice(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}
		next, err := transition(inv, models.InvoiceEventApprovePayment)
		if err != nil {
			return err
		}

		res := tx.Model(&models.Invoice{}).
			Where("id = ? AND status = ?", inv.ID, inv.Status).
			Updates(map[string]any{"status": next, "paid_at": at})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrStore, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrInvalidStatusTransition
		}
		inv.Status = next
		inv.PaidAt = &at

		payment := models.Payment{
			InvoiceID: inv.ID,
			Amount:    inv.Total,
			Status:    models.PaymentStatusPaid,
			PaidAt:    &at,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		inv.Payments = append(inv.Payments, payment)

		if err := tx.Model(&models.Installment{}).
			Where("invoice_id = ?", inv.ID).
			Updates(map[string]any{"status": models.InstallmentStatusConfirmed, "paid_at": at}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}

		key := InvoicePaymentKey(inv.ID)
		clientID := inv.ClientID
		income := models.Transaction{
			OrgID:              inv.OrgID,
			ClientID:           &clientID,
			Type:               models.TransactionTypeIncome,
			Subtype:            models.TransactionSubtypeInvoicePayment,
			Status:             models.TransactionStatusConfirmed,
			Amount:             inv.Total,
			Date:               at,
			Description:        "Payment for invoice " + inv.Number,
			MaterializationKey: &key,
			Metadata:           datatypes.NewJSONType(models.TransactionMetadata{InvoiceID: inv.ID}),
		}
		if err := tx.Create(&income).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, orgID, "approve_payment", "invoice", inv.ID, map[string]any{"paid_at": at, "amount": inv.Total})
	return inv, nil
}

// CancelInvoice cancels an OPEN or OVERDUE invoice that has no PAID payment.
func (s *invoiceService) CancelInvoice(ctx context.Context, orgID, invoiceID, reason string) (*models.Invoice, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.ErrCancelReasonRequired
	}
	now := s.clock.Now()

	var inv *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = s.findInvoice(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}
		next, err := transition(inv, models.InvoiceEventCancel)
		if err != nil {
			return err
		}
		for _, p := range inv.Payments {
			if p.Status == models.PaymentStatusPaid {
				return apperrors.ErrInvoiceHasPayments
			}
		}

		res := tx.Model(&models.Invoice{}).
			Where("id = ? AND status = ?", inv.ID, inv.Status).
			Updates(map[string]any{"status": next, "cancelled_at": now, "cancel_reason": reason})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrStore, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrInvalidStatusTransition
		}
		inv.Status = next
		inv.CancelledAt = &now
		inv.CancelReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, orgID, "cancel", "invoice", inv.ID, map[string]any{"reason": reason})
	return inv, nil
}

// DeleteInvoice soft-deletes an invoice without recorded payments. Its
// installments become unbilled and its period is released for regeneration.
func (s *invoiceService) DeleteInvoice(ctx context.Context, orgID, invoiceID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.findInvoice(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}
		if len(inv.Payments) > 0 {
			return apperrors.ErrInvoiceHasPayments
		}

		if err := tx.Model(&models.Installment{}).Where("invoice_id = ?", inv.ID).Update("invoice_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		if err := tx.Model(&models.Invoice{}).Where("id = ?", inv.ID).Update("period", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		if err := tx.Delete(inv).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.activity.Log(ctx, orgID, "delete", "invoice", invoiceID, nil)
	return nil
}

// GenerateMonthlyInvoices creates one OPEN invoice per active client with
// installments due in the period. Every client is committed independently;
// clients already invoiced or with nothing due are reported as blocked.
func (s *invoiceService) GenerateMonthlyInvoices(ctx context.Context, orgID, periodKey string) (*GenerationReport, error) {
	w, err := period.ParseMonthKey(periodKey)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	var clients []models.Client
	if err := s.db.WithContext(ctx).
		Where("org_id = ? AND is_active = ?", orgID, true).
		Order("name ASC").
		Find(&clients).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	outcomes := make([]batch.Outcome[GeneratedInvoice], 0, len(clients))
	for i := range clients {
		client := &clients[i]
		generated, err := s.generateForClient(ctx, client, periodKey, w)
		switch {
		case err == nil:
			outcomes = append(outcomes, batch.Success(*generated))
		case apperrors.Kind(err) == apperrors.KindConflict:
			outcomes = append(outcomes, batch.PassErr[GeneratedInvoice](client.ID, client.Name, err))
		default:
			logger.Get().Errorw("monthly invoice generation failed",
				"org_id", orgID,
				"client_id", client.ID,
				"period", periodKey,
				"error", err,
			)
			outcomes = append(outcomes, batch.Fail[GeneratedInvoice](client.ID, client.Name, err))
		}
	}

	res := batch.Reduce(outcomes)
	return &GenerationReport{
		Period:       periodKey,
		SuccessCount: len(res.Succeeded),
		BlockedCount: len(res.Passed),
		ErrorCount:   len(res.Failed),
		Success:      res.Succeeded,
		Blocked:      res.Passed,
		Errors:       res.Failed,
	}, nil
}

func (s *invoiceService) generateForClient(ctx context.Context, client *models.Client, periodKey string, w period.Window) (*GeneratedInvoice, error) {
	now := s.clock.Now()
	var inv *models.Invoice

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Invoice{}).
			Where("org_id = ? AND client_id = ? AND period = ?", client.OrgID, client.ID, periodKey).
			Count(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		if existing > 0 {
			return apperrors.WithMessage(apperrors.ErrInvoiceAlreadyForPeriod,
				fmt.Sprintf("client %s already has an invoice for %s", client.Name, periodKey))
		}

		var due []models.Installment
		if err := tx.Model(&models.Installment{}).
			Joins("JOIN contracts ON contracts.id = installments.contract_id AND contracts.deleted_at IS NULL").
			Where("installments.client_id = ? AND installments.invoice_id IS NULL", client.ID).
			Where("installments.status IN ?", []models.InstallmentStatus{models.InstallmentStatusPending, models.InstallmentStatusLate}).
			Where("installments.due_date BETWEEN ? AND ?", w.From, w.To).
			Where("contracts.is_active = ?", true).
			Order("installments.due_date ASC, installments.number ASC").
			Find(&due).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		if len(due) == 0 {
			return apperrors.WithMessage(apperrors.ErrNothingToBillForPeriod,
				fmt.Sprintf("client %s has no active contract due in %s", client.Name, periodKey))
		}

		key := periodKey
		inv = &models.Invoice{
			OrgID:     client.OrgID,
			ClientID:  client.ID,
			Status:    models.InvoiceStatusOpen,
			Period:    &key,
			IssueDate: now,
		}
		for _, inst := range due {
			if inst.Amount < 0 {
				return apperrors.WithMessage(apperrors.ErrInvalidInput,
					fmt.Sprintf("installment %d of contract %s has a negative amount", inst.Number, inst.ContractID))
			}
			instID := inst.ID
			inv.Items = append(inv.Items, models.InvoiceItem{
				Description:   fmt.Sprintf("Installment %d", inst.Number),
				Quantity:      1,
				UnitPrice:     inst.Amount,
				InstallmentID: &instID,
			})
			if inst.DueDate.After(inv.DueDate) {
				inv.DueDate = inst.DueDate
			}
		}
		inv.RecalculateTotals()

		if err := insertNumbered(tx, inv, now); err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			// A concurrent run may have billed the client after the pre-check.
			var billed int64
			if cerr := tx.Model(&models.Invoice{}).
				Where("org_id = ? AND client_id = ? AND period = ?", client.OrgID, client.ID, periodKey).
				Count(&billed).Error; cerr != nil {
				return apperrors.Wrap(apperrors.ErrStore, cerr)
			}
			if billed > 0 {
				return apperrors.Wrap(apperrors.ErrInvoiceAlreadyForPeriod, err)
			}
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		return linkInstallments(tx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, client.OrgID, "generate", "invoice", inv.ID, map[string]any{"period": periodKey, "total": inv.Total})
	return &GeneratedInvoice{
		InvoiceID:  inv.ID,
		Number:     inv.Number,
		ClientID:   client.ID,
		ClientName: client.Name,
		Total:      inv.Total,
	}, nil
}

// ReclassifyOverdue marks OPEN invoices and PENDING installments whose due
// date has passed as OVERDUE and LATE.
func (s *invoiceService) ReclassifyOverdue(ctx context.Context, orgID string) (*ReclassifyResult, error) {
	now := s.clock.Now()
	result := &ReclassifyResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invoice{}).
			Where("org_id = ? AND status = ? AND due_date < ?", orgID, models.InvoiceStatusOpen, now).
			Update("status", models.InvoiceStatusOverdue)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrStore, res.Error)
		}
		result.InvoicesMarkedOverdue = res.RowsAffected

		res = tx.Model(&models.Installment{}).
			Where("org_id = ? AND status = ? AND due_date < ?", orgID, models.InstallmentStatusPending, now).
			Update("status", models.InstallmentStatusLate)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrStore, res.Error)
		}
		result.InstallmentsMarkedLate = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.InvoicesMarkedOverdue > 0 || result.InstallmentsMarkedLate > 0 {
		logger.Get().Infow("reclassified overdue records",
			"org_id", orgID,
			"invoices", result.InvoicesMarkedOverdue,
			"installments", result.InstallmentsMarkedLate,
		)
		s.activity.Log(ctx, orgID, "reclassify_overdue", "organization", orgID, map[string]any{
			"invoices":     result.InvoicesMarkedOverdue,
			"installments": result.InstallmentsMarkedLate,
		})
	}
	return result, nil
}
