package services

import (
	"context"
	"sort"

	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/models"
	"agencyledger/internal/money"
	"agencyledger/internal/period"

	"gorm.io/gorm"
)

// costTracker nets client revenue against cost subscriptions.
type costTracker struct {
	db *gorm.DB
}

// NewCostTracker creates the store-backed CostTracker.
func NewCostTracker(db *gorm.DB) CostTracker {
	return &costTracker{db: db}
}

// BillableMonths counts the calendar months touched by w during which the
// subscription is running. Each such month carries one charge.
func BillableMonths(sub *models.CostSubscription, w period.Window) int64 {
	var months int64
	for m := period.MonthOf(w.From); !m.From.After(w.To); m = period.MonthOf(m.To.Add(1)) {
		if sub.StartDate.After(m.To) {
			continue
		}
		if sub.EndDate != nil && sub.EndDate.Before(m.From) {
			continue
		}
		months++
	}
	return months
}

// ClientMargins reports revenue, cost and margin for every active client and
// for any other client with revenue or cost in the window, best margin first.
func (c *costTracker) ClientMargins(ctx context.Context, orgID string, w period.Window) ([]ClientMargin, error) {
	db := c.db.WithContext(ctx)

	var clients []models.Client
	if err := db.Model(&models.Client{}).Scopes(models.ForOrg(orgID)).Order("name ASC").Find(&clients).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	var revenueRows []clientSum
	if err := db.Model(&models.Transaction{}).
		Select("client_id, COALESCE(SUM(amount), 0) AS total").
		Where("org_id = ? AND type = ? AND status = ? AND client_id IS NOT NULL",
			orgID, models.TransactionTypeIncome, models.TransactionStatusConfirmed).
		Scopes(inWindow("date", w)).
		Group("client_id").
		Scan(&revenueRows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	revenue := make(map[string]int64, len(revenueRows))
	for _, r := range revenueRows {
		revenue[r.ClientID] = r.Total
	}

	var subs []models.CostSubscription
	if err := db.Model(&models.CostSubscription{}).
		Where("org_id = ? AND start_date <= ?", orgID, w.To).
		Where("end_date IS NULL OR end_date >= ?", w.From).
		Find(&subs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	cost := make(map[string]int64)
	for i := range subs {
		cost[subs[i].ClientID] += subs[i].Amount * BillableMonths(&subs[i], w)
	}

	margins := make([]ClientMargin, 0, len(clients))
	for _, cl := range clients {
		rev, costs := revenue[cl.ID], cost[cl.ID]
		if !cl.IsActive && rev == 0 && costs == 0 {
			continue
		}
		margin := rev - costs
		margins = append(margins, ClientMargin{
			ClientID:   cl.ID,
			ClientName: cl.Name,
			Revenue:    rev,
			Cost:       costs,
			Margin:     margin,
			MarginPct:  money.Percent(margin, rev),
		})
	}
	sort.SliceStable(margins, func(i, j int) bool { return margins[i].Margin > margins[j].Margin })
	return margins, nil
}
