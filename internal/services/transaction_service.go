package services

import (
	"context"
	"errors"

	"agencyledger/internal/clock"
	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/models"
	"agencyledger/internal/pagination"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// transactionService handles manual ledger entries.
type transactionService struct {
	db       *gorm.DB
	clock    clock.Clock
	activity ActivityServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, clk clock.Clock, activity ActivityServicer) TransactionServicer {
	return &transactionService{
		db:       db,
		clock:    clk,
		activity: activityOrNop(activity),
	}
}

// CreateTransaction records a MANUAL ledger entry.
func (s *transactionService) CreateTransaction(ctx context.Context, orgID string, in CreateTransactionInput) (*models.Transaction, error) {
	// Validate input
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	switch in.Type {
	case models.TransactionTypeIncome, models.TransactionTypeExpense:
	default:
		return nil, apperrors.ErrInvalidTransactionType
	}
	switch in.Status {
	case "":
		in.Status = models.TransactionStatusConfirmed
	case models.TransactionStatusPending, models.TransactionStatusConfirmed:
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be PENDING or CONFIRMED")
	}

	// Default date to now if not provided
	if in.Date.IsZero() {
		in.Date = s.clock.Now()
	}

	db := s.db.WithContext(ctx)
	if in.ClientID != nil {
		var count int64
		if err := db.Model(&models.Client{}).Where("id = ? AND org_id = ?", *in.ClientID, orgID).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStore, err)
		}
		if count == 0 {
			return nil, apperrors.ErrClientNotFound
		}
	}

	transaction := &models.Transaction{
		OrgID:       orgID,
		ClientID:    in.ClientID,
		Type:        in.Type,
		Subtype:     models.TransactionSubtypeManual,
		Status:      in.Status,
		Amount:      in.Amount,
		Date:        in.Date.UTC(),
		Category:    in.Category,
		Description: in.Description,
		Metadata:    datatypes.NewJSONType(models.TransactionMetadata{}),
	}
	if err := db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	s.activity.Log(ctx, orgID, "create", "transaction", transaction.ID, map[string]any{
		"type":   transaction.Type,
		"amount": transaction.Amount,
	})
	return transaction, nil
}

// ListTransactions retrieves a paginated, filtered list of the organization's transactions.
func (s *transactionService) ListTransactions(ctx context.Context, orgID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Scopes(models.ForOrg(orgID))
	base = applyTransactionFilters(base, filter)

	result, err := pagination.Fetch[models.Transaction](base, page, "date DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Subtype != nil {
		q = q.Where("subtype = ?", *f.Subtype)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID within the organization
func (s *transactionService) GetTransactionByID(ctx context.Context, orgID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).Where("id = ? AND org_id = ?", transactionID, orgID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return &transaction, nil
}

// DeleteTransaction soft-deletes a transaction. Its materialization key is
// released so the obligation can be materialized again for that period.
func (s *transactionService) DeleteTransaction(ctx context.Context, orgID, transactionID string) error {
	transaction, err := s.GetTransactionByID(ctx, orgID, transactionID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if transaction.MaterializationKey != nil {
			if err := tx.Model(&models.Transaction{}).
				Where("id = ?", transaction.ID).
				Update("materialization_key", nil).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrStore, err)
			}
		}
		if err := tx.Delete(&models.Transaction{}, "id = ?", transaction.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.activity.Log(ctx, orgID, "delete", "transaction", transaction.ID, map[string]any{
		"type":    transaction.Type,
		"subtype": transaction.Subtype,
		"amount":  transaction.Amount,
	})
	return nil
}
