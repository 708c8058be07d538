package services

import (
	"context"
	"time"

	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/models"
	"agencyledger/internal/period"

	"gorm.io/gorm"
)

// FinancialSummary holds CONFIRMED totals for a window.
type FinancialSummary struct {
	TotalIncome  int64 `json:"totalIncome"`
	TotalExpense int64 `json:"totalExpense"`
	Net          int64 `json:"net"`
}

// StatusTotals is the count and summed total of invoices in one status.
type StatusTotals struct {
	Count int64 `json:"count"`
	Total int64 `json:"total"`
}

// InvoiceSummary groups invoices due in a window by status.
type InvoiceSummary struct {
	Open            StatusTotals `json:"open"`
	Paid            StatusTotals `json:"paid"`
	Overdue         StatusTotals `json:"overdue"`
	Cancelled       StatusTotals `json:"cancelled"`
	TotalReceivable int64        `json:"totalReceivable"`
}

// Projections are the forward-looking figures of a reporting period.
type Projections struct {
	MonthlyFixedTotal           int64 `json:"monthlyFixedTotal"`
	MaterializedFixedThisPeriod int64 `json:"materializedFixedThisPeriod"`
	PendingFixed                int64 `json:"pendingFixed"`
	OpenInvoicesThisPeriod      int64 `json:"openInvoicesThisPeriod"`
	NonFixedExpenseThisPeriod   int64 `json:"nonFixedExpenseThisPeriod"`
	ProjectedNetProfit          int64 `json:"projectedNetProfit"`
	CashOnHand                  int64 `json:"cashOnHand"`
	CashOnHandMonthly           int64 `json:"cashOnHandMonthly"`
}

// ComputeProjections derives pendingFixed and projectedNetProfit. Fixed
// costs already materialized are never counted twice, and pendingFixed is
// never negative.
func ComputeProjections(monthlyFixedTotal, materializedFixed, openInvoices, nonFixedExpense int64) Projections {
	pending := monthlyFixedTotal - materializedFixed
	if pending < 0 {
		pending = 0
	}
	return Projections{
		MonthlyFixedTotal:           monthlyFixedTotal,
		MaterializedFixedThisPeriod: materializedFixed,
		PendingFixed:                pending,
		OpenInvoicesThisPeriod:      openInvoices,
		NonFixedExpenseThisPeriod:   nonFixedExpense,
		ProjectedNetProfit:          openInvoices - (nonFixedExpense + pending),
	}
}

// periodFigures is everything computed for one reporting window.
type periodFigures struct {
	Financial   FinancialSummary
	Invoices    InvoiceSummary
	Projections Projections
	CashIncome  int64
	CashExpense int64
}

// aggregator runs the read-only ledger queries shared by the dashboard and
// the audit pass. Every query starts from Model so soft-deleted rows are
// filtered out.
type aggregator struct {
	db *gorm.DB
}

type typeTotal struct {
	Type  models.TransactionType
	Total int64
}

func inWindow(column string, w period.Window) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where(column+" BETWEEN ? AND ?", w.From, w.To)
	}
}

func upTo(column string, t time.Time) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where(column+" <= ?", t)
	}
}

// confirmedTotals sums CONFIRMED income and expense matching scope.
func (a aggregator) confirmedTotals(ctx context.Context, orgID string, scope func(*gorm.DB) *gorm.DB) (income, expense int64, err error) {
	var rows []typeTotal
	if err := a.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("org_id = ? AND status = ?", orgID, models.TransactionStatusConfirmed).
		Scopes(scope).
		Group("type").
		Scan(&rows).Error; err != nil {
		return 0, 0, apperrors.Wrap(apperrors.ErrStore, err)
	}
	for _, r := range rows {
		switch r.Type {
		case models.TransactionTypeIncome:
			income = r.Total
		case models.TransactionTypeExpense:
			expense = r.Total
		}
	}
	return income, expense, nil
}

func (a aggregator) sum(q *gorm.DB, column string) (int64, error) {
	var total int64
	if err := q.Select("COALESCE(SUM(" + column + "), 0)").Scan(&total).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return total, nil
}

// monthlyFixedTotal is the configured cost of active MONTHLY recurring
// expenses, independent of any window.
func (a aggregator) monthlyFixedTotal(ctx context.Context, orgID string) (int64, error) {
	return a.sum(a.db.WithContext(ctx).Model(&models.RecurringExpense{}).
		Where("org_id = ? AND is_active = ? AND cycle = ?", orgID, true, models.BillingCycleMonthly), "amount")
}

func (a aggregator) materializedFixed(ctx context.Context, orgID string, w period.Window) (int64, error) {
	return a.sum(a.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("org_id = ? AND status = ? AND subtype = ?", orgID, models.TransactionStatusConfirmed, models.TransactionSubtypeFixedExpense).
		Scopes(inWindow("date", w)), "amount")
}

func (a aggregator) nonFixedExpense(ctx context.Context, orgID string, w period.Window) (int64, error) {
	return a.sum(a.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("org_id = ? AND status = ? AND type = ? AND subtype <> ?",
			orgID, models.TransactionStatusConfirmed, models.TransactionTypeExpense, models.TransactionSubtypeFixedExpense).
		Scopes(inWindow("date", w)), "amount")
}

type statusTotal struct {
	Status models.InvoiceStatus
	Count  int64
	Total  int64
}

// invoiceSummary groups invoices with a due date inside w by status.
func (a aggregator) invoiceSummary(ctx context.Context, orgID string, w period.Window) (InvoiceSummary, error) {
	var rows []statusTotal
	if err := a.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Where("org_id = ?", orgID).
		Scopes(inWindow("due_date", w)).
		Group("status").
		Scan(&rows).Error; err != nil {
		return InvoiceSummary{}, apperrors.Wrap(apperrors.ErrStore, err)
	}

	var summary InvoiceSummary
	for _, r := range rows {
		totals := StatusTotals{Count: r.Count, Total: r.Total}
		switch r.Status {
		case models.InvoiceStatusOpen:
			summary.Open = totals
		case models.InvoiceStatusPaid:
			summary.Paid = totals
		case models.InvoiceStatusOverdue:
			summary.Overdue = totals
		case models.InvoiceStatusCancelled:
			summary.Cancelled = totals
		}
	}
	summary.TotalReceivable = summary.Open.Total + summary.Overdue.Total
	return summary, nil
}

// figures computes the window-scoped summaries and projections. Cash on hand
// is cumulative up to now and ignores the window.
func (a aggregator) figures(ctx context.Context, orgID string, w period.Window, now time.Time) (*periodFigures, error) {
	income, expense, err := a.confirmedTotals(ctx, orgID, inWindow("date", w))
	if err != nil {
		return nil, err
	}
	cashIncome, cashExpense, err := a.confirmedTotals(ctx, orgID, upTo("date", now))
	if err != nil {
		return nil, err
	}
	invoices, err := a.invoiceSummary(ctx, orgID, w)
	if err != nil {
		return nil, err
	}
	fixedTotal, err := a.monthlyFixedTotal(ctx, orgID)
	if err != nil {
		return nil, err
	}
	fixedMaterialized, err := a.materializedFixed(ctx, orgID, w)
	if err != nil {
		return nil, err
	}
	nonFixed, err := a.nonFixedExpense(ctx, orgID, w)
	if err != nil {
		return nil, err
	}

	proj := ComputeProjections(fixedTotal, fixedMaterialized, invoices.Open.Total+invoices.Overdue.Total, nonFixed)
	proj.CashOnHand = cashIncome - cashExpense
	proj.CashOnHandMonthly = income - expense

	return &periodFigures{
		Financial: FinancialSummary{
			TotalIncome:  income,
			TotalExpense: expense,
			Net:          income - expense,
		},
		Invoices:    invoices,
		Projections: proj,
		CashIncome:  cashIncome,
		CashExpense: cashExpense,
	}, nil
}
