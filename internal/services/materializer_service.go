package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agencyledger/internal/batch"
	"agencyledger/internal/clock"
	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/logger"
	"agencyledger/internal/models"
	"agencyledger/internal/period"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// materializerService converts recurring obligations into CONFIRMED ledger
// transactions at most once per billing period.
type materializerService struct {
	db       *gorm.DB
	clock    clock.Clock
	activity ActivityServicer
}

// NewMaterializerService creates a new MaterializerServicer.
func NewMaterializerService(db *gorm.DB, clk clock.Clock, activity ActivityServicer) MaterializerServicer {
	return &materializerService{db: db, clock: clk, activity: activityOrNop(activity)}
}

// RecurringExpenseKey is the idempotency key of a fixed expense for a period.
func RecurringExpenseKey(expenseID, periodKey string) string {
	return fmt.Sprintf("recurring-expense:%s:%s", expenseID, periodKey)
}

// CostSubscriptionKey is the idempotency key of a client cost for a period.
func CostSubscriptionKey(subscriptionID, periodKey string) string {
	return fmt.Sprintf("cost-subscription:%s:%s", subscriptionID, periodKey)
}

// ExpenseDueDate returns the window the expense is materialized for, its
// period key and the date of the transaction. MONTHLY expenses fall due on
// dayOfMonth (default 1) clamped to the month; ANNUAL ones on December 31.
func ExpenseDueDate(exp *models.RecurringExpense, now time.Time) (period.Window, string, time.Time) {
	now = now.UTC()
	if exp.Cycle == models.BillingCycleAnnual {
		return period.YearOf(now), period.YearKey(now), time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	day := 1
	if exp.DayOfMonth != nil {
		day = *exp.DayOfMonth
	}
	return period.MonthOf(now), period.MonthKey(now), period.DateClamped(now.Year(), now.Month(), day)
}

// materialize inserts tx unless an entry already exists for its key. It
// reports false when the period was already materialized, including when a
// concurrent caller won the insert.
func (s *materializerService) materialize(ctx context.Context, obligationID string, subtype models.TransactionSubtype, w period.Window, tx *models.Transaction) (bool, error) {
	db := s.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.Transaction{}).
		Where("org_id = ? AND obligation_id = ? AND subtype = ? AND status = ?", tx.OrgID, obligationID, subtype, models.TransactionStatusConfirmed).
		Where("date BETWEEN ? AND ?", w.From, w.To).
		Count(&existing).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrStore, err)
	}
	if existing > 0 {
		return false, nil
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(tx)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.ErrStore, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MaterializeRecurringExpense records this period's FIXED_EXPENSE transaction
// for an active recurring expense. A second call in the same period is
// skipped, never an error.
func (s *materializerService) MaterializeRecurringExpense(ctx context.Context, orgID, expenseID string) (*MaterializeResult, error) {
	var exp models.RecurringExpense
	if err := s.db.WithContext(ctx).
		Where("id = ? AND org_id = ? AND is_active = ?", expenseID, orgID, true).
		First(&exp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return s.materializeExpense(ctx, &exp)
}

func (s *materializerService) materializeExpense(ctx context.Context, exp *models.RecurringExpense) (*MaterializeResult, error) {
	w, key, due := ExpenseDueDate(exp, s.clock.Now())
	matKey := RecurringExpenseKey(exp.ID, key)
	tx := &models.Transaction{
		OrgID:              exp.OrgID,
		Type:               models.TransactionTypeExpense,
		Subtype:            models.TransactionSubtypeFixedExpense,
		Status:             models.TransactionStatusConfirmed,
		Amount:             exp.Amount,
		Date:               due,
		Category:           exp.Category,
		Description:        exp.Name,
		ObligationID:       &exp.ID,
		MaterializationKey: &matKey,
		Metadata: datatypes.NewJSONType(models.TransactionMetadata{
			RecurringExpenseID: exp.ID,
			Period:             key,
		}),
	}

	created, err := s.materialize(ctx, exp.ID, models.TransactionSubtypeFixedExpense, w, tx)
	if err != nil {
		return nil, err
	}

	result := &MaterializeResult{ObligationID: exp.ID, Period: key, Amount: exp.Amount, Date: due}
	if !created {
		result.Status = MaterializationSkipped
		result.Reason = fmt.Sprintf("already materialized for %s", key)
		return result, nil
	}
	result.Status = MaterializationCreated
	result.TransactionID = tx.ID
	s.activity.Log(ctx, exp.OrgID, "materialize", "recurring_expense", exp.ID, map[string]any{
		"period":         key,
		"transaction_id": tx.ID,
		"amount":         exp.Amount,
	})
	return result, nil
}

// MaterializeAllRecurringExpenses materializes every active recurring expense
// of the organization. Each expense is committed on its own; failures are
// reported, not raised.
func (s *materializerService) MaterializeAllRecurringExpenses(ctx context.Context, orgID string) (*MaterializeBatchReport, error) {
	var expenses []models.RecurringExpense
	if err := s.db.WithContext(ctx).
		Where("org_id = ? AND is_active = ?", orgID, true).
		Order("created_at ASC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	outcomes := make([]batch.Outcome[MaterializeResult], 0, len(expenses))
	for i := range expenses {
		exp := &expenses[i]
		result, err := s.materializeExpense(ctx, exp)
		outcomes = append(outcomes, materializeOutcome(exp.ID, exp.Name, result, err))
	}
	return materializeReport(orgID, "recurring_expense", outcomes), nil
}

// MaterializeCostSubscription records this month's CLIENT_COST transaction
// for an active cost subscription.
func (s *materializerService) MaterializeCostSubscription(ctx context.Context, orgID, subscriptionID string) (*MaterializeResult, error) {
	now := s.clock.Now()
	var sub models.CostSubscription
	if err := s.db.WithContext(ctx).
		Preload("CostItem").
		Where("id = ? AND org_id = ?", subscriptionID, orgID).
		First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCostSubscriptionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	if !sub.ActiveAt(now) {
		return nil, apperrors.ErrCostSubscriptionNotFound
	}
	return s.materializeSubscription(ctx, &sub, now)
}

func (s *materializerService) materializeSubscription(ctx context.Context, sub *models.CostSubscription, now time.Time) (*MaterializeResult, error) {
	now = now.UTC()
	w := period.MonthOf(now)
	key := period.MonthKey(now)
	due := period.DateClamped(now.Year(), now.Month(), sub.StartDate.UTC().Day())
	result := &MaterializeResult{ObligationID: sub.ID, Period: key, Amount: sub.Amount, Date: due}

	if sub.StartDate.After(w.To) {
		result.Status = MaterializationSkipped
		result.Reason = fmt.Sprintf("subscription starts after %s", key)
		return result, nil
	}

	var category, description string
	if sub.CostItem != nil {
		category = sub.CostItem.Category
		description = sub.CostItem.Name
	}
	clientID := sub.ClientID
	matKey := CostSubscriptionKey(sub.ID, key)
	tx := &models.Transaction{
		OrgID:              sub.OrgID,
		ClientID:           &clientID,
		Type:               models.TransactionTypeExpense,
		Subtype:            models.TransactionSubtypeClientCost,
		Status:             models.TransactionStatusConfirmed,
		Amount:             sub.Amount,
		Date:               due,
		Category:           category,
		Description:        description,
		ObligationID:       &sub.ID,
		MaterializationKey: &matKey,
		Metadata: datatypes.NewJSONType(models.TransactionMetadata{
			CostSubscriptionID: sub.ID,
			Period:             key,
		}),
	}

	created, err := s.materialize(ctx, sub.ID, models.TransactionSubtypeClientCost, w, tx)
	if err != nil {
		return nil, err
	}
	if !created {
		result.Status = MaterializationSkipped
		result.Reason = fmt.Sprintf("already materialized for %s", key)
		return result, nil
	}
	result.Status = MaterializationCreated
	result.TransactionID = tx.ID
	s.activity.Log(ctx, sub.OrgID, "materialize", "cost_subscription", sub.ID, map[string]any{
		"period":         key,
		"transaction_id": tx.ID,
		"amount":         sub.Amount,
	})
	return result, nil
}

// MaterializeAllCostSubscriptions materializes every active cost subscription
// of the organization for the current month.
func (s *materializerService) MaterializeAllCostSubscriptions(ctx context.Context, orgID string) (*MaterializeBatchReport, error) {
	now := s.clock.Now()
	var subs []models.CostSubscription
	if err := s.db.WithContext(ctx).
		Preload("CostItem").
		Where("org_id = ?", orgID).
		Where("end_date IS NULL OR end_date >= ?", now).
		Order("created_at ASC").
		Find(&subs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	outcomes := make([]batch.Outcome[MaterializeResult], 0, len(subs))
	for i := range subs {
		sub := &subs[i]
		label := sub.ClientID
		if sub.CostItem != nil {
			label = sub.CostItem.Name
		}
		result, err := s.materializeSubscription(ctx, sub, now)
		outcomes = append(outcomes, materializeOutcome(sub.ID, label, result, err))
	}
	return materializeReport(orgID, "cost_subscription", outcomes), nil
}

func materializeOutcome(id, label string, result *MaterializeResult, err error) batch.Outcome[MaterializeResult] {
	switch {
	case err != nil:
		return batch.Fail[MaterializeResult](id, label, err)
	case result.Status == MaterializationSkipped:
		return batch.Pass[MaterializeResult](id, label, result.Reason)
	default:
		return batch.Success(*result)
	}
}

func materializeReport(orgID, kind string, outcomes []batch.Outcome[MaterializeResult]) *MaterializeBatchReport {
	res := batch.Reduce(outcomes)
	for _, e := range res.Failed {
		logger.Get().Errorw("materialization failed",
			"org_id", orgID,
			"obligation_type", kind,
			"obligation_id", e.ID,
			"code", e.Code,
			"reason", e.Reason,
		)
	}
	return &MaterializeBatchReport{
		Success: res.Succeeded,
		Skipped: res.Passed,
		Errors:  res.Failed,
	}
}
