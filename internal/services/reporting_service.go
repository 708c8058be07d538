package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"agencyledger/internal/clock"
	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/logger"
	"agencyledger/internal/models"
	"agencyledger/internal/period"

	"gorm.io/gorm"
)

// DefaultTopClients is used when no ranking size is configured.
const DefaultTopClients = 5

// OverdueInvoice is an OVERDUE invoice annotated with how late it is.
type OverdueInvoice struct {
	InvoiceID  string    `json:"invoiceId"`
	Number     string    `json:"number"`
	ClientID   string    `json:"clientId"`
	ClientName string    `json:"clientName"`
	Total      int64     `json:"total"`
	DueDate    time.Time `json:"dueDate"`
	DaysLate   int       `json:"daysLate"`
}

// ClientRevenue ranks a client by CONFIRMED income.
type ClientRevenue struct {
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName"`
	Revenue    int64  `json:"revenue"`
}

// ClientOverdue ranks a client by overdue exposure.
type ClientOverdue struct {
	ClientID    string  `json:"clientId"`
	ClientName  string  `json:"clientName"`
	Total       int64   `json:"total"`
	Count       int     `json:"count"`
	AvgDaysLate float64 `json:"avgDaysLate"`
}

// TopClients holds both client rankings.
type TopClients struct {
	ByRevenue []ClientRevenue `json:"byRevenue"`
	ByOverdue []ClientOverdue `json:"byOverdue"`
}

// Dashboard is the full reporting snapshot of an organization.
type Dashboard struct {
	Window      period.Window    `json:"window"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Financial   FinancialSummary `json:"financial"`
	Invoices    InvoiceSummary   `json:"invoices"`
	Overdue     []OverdueInvoice `json:"overdue"`
	TopClients  TopClients       `json:"topClients"`
	Projections Projections      `json:"projections"`
}

// reportingService computes dashboards from ledger and invoice state.
type reportingService struct {
	agg   aggregator
	db    *gorm.DB
	clock clock.Clock
	costs CostTracker
	cache Cache
	topK  int
}

// NewReportingService creates a new ReportingServicer. costs defaults to the
// store-backed tracker and cache may be nil.
func NewReportingService(db *gorm.DB, clk clock.Clock, costs CostTracker, cache Cache, topK int) ReportingServicer {
	if costs == nil {
		costs = NewCostTracker(db)
	}
	if topK <= 0 {
		topK = DefaultTopClients
	}
	return &reportingService{
		agg:   aggregator{db: db},
		db:    db,
		clock: clk,
		costs: costs,
		cache: cache,
		topK:  topK,
	}
}

// ResolveWindow turns optional bounds into a window. Without bounds the
// window is the current calendar month; a single bound is completed to the
// end or start of its own month.
func ResolveWindow(from, to *time.Time, now time.Time) (period.Window, error) {
	var w period.Window
	switch {
	case from == nil && to == nil:
		w = period.MonthOf(now)
	case to == nil:
		w = period.Window{From: from.UTC(), To: period.MonthOf(*from).To}
	case from == nil:
		w = period.Window{From: period.MonthOf(*to).From, To: to.UTC()}
	default:
		w = period.Window{From: from.UTC(), To: to.UTC()}
	}
	if w.From.After(w.To) {
		return period.Window{}, apperrors.ErrInvalidReportWindow
	}
	return w, nil
}

// DashboardKeyPrefix is the cache key prefix shared by every cached
// dashboard window of the organization.
func DashboardKeyPrefix(orgID string) string {
	return "dashboard:" + orgID + ":"
}

// GetDashboard computes the organization's dashboard for the window.
func (s *reportingService) GetDashboard(ctx context.Context, orgID string, from, to *time.Time) (*Dashboard, error) {
	now := s.clock.Now()
	w, err := ResolveWindow(from, to, now)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%d:%d", DashboardKeyPrefix(orgID), w.From.Unix(), w.To.Unix())
	if s.cache != nil {
		var cached Dashboard
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.Get().Warnw("dashboard cache read failed", "error", err, "org_id", orgID)
		} else if hit {
			return &cached, nil
		}
	}

	figures, err := s.agg.figures(ctx, orgID, w, now)
	if err != nil {
		return nil, err
	}
	overdue, err := s.overdueInvoices(ctx, orgID, now)
	if err != nil {
		return nil, err
	}
	byRevenue, err := s.topByRevenue(ctx, orgID, w)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{
		Window:      w,
		GeneratedAt: now,
		Financial:   figures.Financial,
		Invoices:    figures.Invoices,
		Overdue:     overdue,
		TopClients: TopClients{
			ByRevenue: byRevenue,
			ByOverdue: RankOverdue(overdue, s.topK),
		},
		Projections: figures.Projections,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, dash); err != nil {
			logger.Get().Warnw("dashboard cache write failed", "error", err, "org_id", orgID)
		}
	}
	return dash, nil
}

// overdueInvoices lists OVERDUE invoices by due date, oldest first.
func (s *reportingService) overdueInvoices(ctx context.Context, orgID string, now time.Time) ([]OverdueInvoice, error) {
	var invoices []models.Invoice
	if err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Preload("Client").
		Where("org_id = ? AND status = ?", orgID, models.InvoiceStatusOverdue).
		Order("due_date ASC").
		Find(&invoices).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	out := make([]OverdueInvoice, 0, len(invoices))
	for _, inv := range invoices {
		o := OverdueInvoice{
			InvoiceID: inv.ID,
			Number:    inv.Number,
			ClientID:  inv.ClientID,
			Total:     inv.Total,
			DueDate:   inv.DueDate,
			DaysLate:  period.DaysBetween(inv.DueDate, now),
		}
		if inv.Client != nil {
			o.ClientName = inv.Client.Name
		}
		out = append(out, o)
	}
	return out, nil
}

// RankOverdue groups overdue invoices by client, ranks clients by overdue
// total and keeps the first k.
func RankOverdue(overdue []OverdueInvoice, k int) []ClientOverdue {
	byClient := map[string]*ClientOverdue{}
	daysLate := map[string]int{}
	order := []string{}
	for _, inv := range overdue {
		c, ok := byClient[inv.ClientID]
		if !ok {
			c = &ClientOverdue{ClientID: inv.ClientID, ClientName: inv.ClientName}
			byClient[inv.ClientID] = c
			order = append(order, inv.ClientID)
		}
		c.Total += inv.Total
		c.Count++
		daysLate[inv.ClientID] += inv.DaysLate
	}

	ranked := make([]ClientOverdue, 0, len(order))
	for _, id := range order {
		c := byClient[id]
		c.AvgDaysLate = math.Round(float64(daysLate[id])/float64(c.Count)*100) / 100
		ranked = append(ranked, *c)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Total > ranked[j].Total })
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

type clientSum struct {
	ClientID string
	Total    int64
}

// topByRevenue ranks clients by CONFIRMED income inside the window.
func (s *reportingService) topByRevenue(ctx context.Context, orgID string, w period.Window) ([]ClientRevenue, error) {
	var rows []clientSum
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("client_id, COALESCE(SUM(amount), 0) AS total").
		Where("org_id = ? AND type = ? AND status = ? AND client_id IS NOT NULL",
			orgID, models.TransactionTypeIncome, models.TransactionStatusConfirmed).
		Scopes(inWindow("date", w)).
		Group("client_id").
		Order("total DESC, client_id ASC").
		Limit(s.topK).
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ClientID
	}
	names, err := clientNames(ctx, s.db, orgID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ClientRevenue, len(rows))
	for i, r := range rows {
		out[i] = ClientRevenue{ClientID: r.ClientID, ClientName: names[r.ClientID], Revenue: r.Total}
	}
	return out, nil
}

func clientNames(ctx context.Context, db *gorm.DB, orgID string, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var clients []models.Client
	if err := db.WithContext(ctx).Model(&models.Client{}).
		Where("org_id = ? AND id IN ?", orgID, ids).
		Find(&clients).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	return names, nil
}

// GetClientMargins returns the cost tracker's per-client margins for the window.
func (s *reportingService) GetClientMargins(ctx context.Context, orgID string, from, to *time.Time) ([]ClientMargin, error) {
	w, err := ResolveWindow(from, to, s.clock.Now())
	if err != nil {
		return nil, err
	}
	margins, err := s.costs.ClientMargins(ctx, orgID, w)
	if err != nil {
		return nil, err
	}
	if margins == nil {
		margins = []ClientMargin{}
	}
	return margins, nil
}
