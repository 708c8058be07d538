package models

import (
	"time"

	"gorm.io/datatypes"
)

// TransactionType represents the direction of a ledger entry.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// TransactionSubtype distinguishes the origin of a ledger entry.
type TransactionSubtype string

const (
	TransactionSubtypeNone           TransactionSubtype = ""
	TransactionSubtypeFixedExpense   TransactionSubtype = "FIXED_EXPENSE"
	TransactionSubtypeClientCost     TransactionSubtype = "CLIENT_COST"
	TransactionSubtypeInvoicePayment TransactionSubtype = "INVOICE_PAYMENT"
	TransactionSubtypeManual         TransactionSubtype = "MANUAL"
)

// TransactionStatus represents whether a ledger entry has settled.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusConfirmed TransactionStatus = "CONFIRMED"
)

// TransactionMetadata links an entry back to the obligation or invoice that produced it.
type TransactionMetadata struct {
	RecurringExpenseID string `json:"recurringExpenseId,omitempty"`
	CostSubscriptionID string `json:"costSubscriptionId,omitempty"`
	InvoiceID          string `json:"invoiceId,omitempty"`
	Period             string `json:"period,omitempty"`
}

// Transaction is a dated ledger entry. Amounts are in cents and are never
// negative for valid entries.
type Transaction struct {
	Base
	OrgID       string             `gorm:"type:uuid;not null;index" json:"org_id"`
	ClientID    *string            `gorm:"type:uuid;index" json:"client_id,omitempty"`
	Type        TransactionType    `gorm:"type:varchar(16);not null" json:"type"`
	Subtype     TransactionSubtype `gorm:"type:varchar(32);not null;default:''" json:"subtype,omitempty"`
	Status      TransactionStatus  `gorm:"type:varchar(16);not null" json:"status"`
	Amount      int64              `gorm:"type:bigint;not null" json:"amount"`
	Date        time.Time          `gorm:"not null;index" json:"date"`
	Category    string             `json:"category,omitempty"`
	Description string             `json:"description,omitempty"`

	// ObligationID is the recurring expense or cost subscription materialized
	// into this entry.
	ObligationID *string `gorm:"type:uuid;index" json:"obligation_id,omitempty"`
	// MaterializationKey is unique per obligation and period; the unique
	// index is what makes materialization idempotent under concurrency.
	MaterializationKey *string                                 `gorm:"uniqueIndex" json:"-"`
	Metadata           datatypes.JSONType[TransactionMetadata] `json:"metadata"`
}
