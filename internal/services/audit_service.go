package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"agencyledger/internal/clock"
	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/models"
	"agencyledger/internal/period"

	"gorm.io/gorm"
)

// overMaterializationTolerance is how far, in cents, materialized fixed costs
// may exceed the configured monthly total before it is flagged.
const overMaterializationTolerance = 1

// AuditMonth is the recomputed figures and anomalies of one month.
type AuditMonth struct {
	Month                     int      `json:"month"`
	CashIncome                int64    `json:"cashIncome"`
	CashExpense               int64    `json:"cashExpense"`
	CashOnHand                int64    `json:"cashOnHand"`
	PeriodIncome              int64    `json:"periodIncome"`
	PeriodExpense             int64    `json:"periodExpense"`
	PeriodNet                 int64    `json:"periodNet"`
	FixedMonthlyTotal         int64    `json:"fixedMonthlyTotal"`
	FixedMaterialized         int64    `json:"fixedMaterialized"`
	PendingFixed              int64    `json:"pendingFixed"`
	OpenInvoicesTotal         int64    `json:"openInvoicesTotal"`
	NonFixedExpenseThisPeriod int64    `json:"nonFixedExpenseThisPeriod"`
	ProjectedNetProfit        int64    `json:"projectedNetProfit"`
	Anomalies                 []string `json:"anomalies"`
}

// AuditReport is the result of an audit pass over a year.
type AuditReport struct {
	Year    int          `json:"year"`
	Months  []int        `json:"months"`
	Results []AuditMonth `json:"results"`
}

// auditService re-runs the aggregation month by month and flags anomalies.
// It never writes.
type auditService struct {
	agg   aggregator
	db    *gorm.DB
	clock clock.Clock
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB, clk clock.Clock) AuditServicer {
	return &auditService{agg: aggregator{db: db}, db: db, clock: clk}
}

// NormalizeMonths validates, sorts and de-duplicates months. An empty list
// means the whole year.
func NormalizeMonths(months []int) ([]int, error) {
	if len(months) == 0 {
		return []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, nil
	}
	seen := map[int]bool{}
	out := make([]int, 0, len(months))
	for _, m := range months {
		if m < 1 || m > 12 {
			return nil, apperrors.ErrInvalidAuditMonths
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Ints(out)
	return out, nil
}

// AuditFinancial recomputes every requested month of year independently.
func (s *auditService) AuditFinancial(ctx context.Context, orgID string, year int, months []int) (*AuditReport, error) {
	if year < 1 || year > 9999 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year is out of range")
	}
	months, err := NormalizeMonths(months)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	report := &AuditReport{Year: year, Months: months, Results: make([]AuditMonth, 0, len(months))}
	for _, m := range months {
		result, err := s.auditMonth(ctx, orgID, period.Month(year, time.Month(m)), m, now)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, *result)
	}
	return report, nil
}

func (s *auditService) auditMonth(ctx context.Context, orgID string, w period.Window, month int, now time.Time) (*AuditMonth, error) {
	f, err := s.agg.figures(ctx, orgID, w, now)
	if err != nil {
		return nil, err
	}

	result := &AuditMonth{
		Month:                     month,
		CashIncome:                f.CashIncome,
		CashExpense:               f.CashExpense,
		CashOnHand:                f.Projections.CashOnHand,
		PeriodIncome:              f.Financial.TotalIncome,
		PeriodExpense:             f.Financial.TotalExpense,
		PeriodNet:                 f.Financial.Net,
		FixedMonthlyTotal:         f.Projections.MonthlyFixedTotal,
		FixedMaterialized:         f.Projections.MaterializedFixedThisPeriod,
		PendingFixed:              f.Projections.PendingFixed,
		OpenInvoicesTotal:         f.Projections.OpenInvoicesThisPeriod,
		NonFixedExpenseThisPeriod: f.Projections.NonFixedExpenseThisPeriod,
		ProjectedNetProfit:        f.Projections.ProjectedNetProfit,
		Anomalies:                 []string{},
	}

	db := s.db.WithContext(ctx)

	var future int64
	if err := db.Model(&models.Transaction{}).
		Where("org_id = ? AND date > ?", orgID, w.To).
		Count(&future).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	if future > 0 {
		result.Anomalies = append(result.Anomalies, fmt.Sprintf("future-dated transactions: %d", future))
	}

	if result.FixedMaterialized-result.FixedMonthlyTotal > overMaterializationTolerance {
		result.Anomalies = append(result.Anomalies, "materialized fixed costs exceed configured monthly fixed total")
	}

	var negative int64
	if err := db.Model(&models.Transaction{}).
		Where("org_id = ? AND amount < 0", orgID).
		Scopes(inWindow("date", w)).
		Count(&negative).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	if negative > 0 {
		result.Anomalies = append(result.Anomalies, fmt.Sprintf("negative transactions: %d", negative))
	}

	return result, nil
}
