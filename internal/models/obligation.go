package models

import "time"

// BillingCycle is how often a recurring expense falls due.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "MONTHLY"
	BillingCycleAnnual  BillingCycle = "ANNUAL"
)

// RecurringExpense is a fixed organizational cost, such as rent or software
// seats, materialized into one FIXED_EXPENSE transaction per cycle.
type RecurringExpense struct {
	Base
	OrgID      string       `gorm:"type:uuid;not null;index" json:"org_id"`
	Name       string       `gorm:"not null" json:"name"`
	Category   string       `json:"category,omitempty"`
	Amount     int64        `gorm:"type:bigint;not null" json:"amount"`
	Cycle      BillingCycle `gorm:"type:varchar(16);not null" json:"cycle"`
	IsActive   bool         `gorm:"not null;default:true" json:"is_active"`
	DayOfMonth *int         `json:"day_of_month,omitempty"`
}

// CostItem is a catalogue entry for costs attributable to clients.
type CostItem struct {
	Base
	OrgID    string `gorm:"type:uuid;not null;index" json:"org_id"`
	Name     string `gorm:"not null" json:"name"`
	Category string `json:"category,omitempty"`
}

// CostSubscription attributes a monthly cost item to a client.
type CostSubscription struct {
	Base
	OrgID      string     `gorm:"type:uuid;not null;index" json:"org_id"`
	ClientID   string     `gorm:"type:uuid;not null;index" json:"client_id"`
	CostItemID string     `gorm:"type:uuid;not null;index" json:"cost_item_id"`
	Amount     int64      `gorm:"type:bigint;not null" json:"amount"`
	StartDate  time.Time  `gorm:"not null" json:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty"`

	CostItem *CostItem `gorm:"foreignKey:CostItemID" json:"cost_item,omitempty"`
}

// ActiveAt reports whether the subscription is running at t: it has no end
// date or ends at or after t.
func (s *CostSubscription) ActiveAt(t time.Time) bool {
	return s.EndDate == nil || !s.EndDate.Before(t)
}
