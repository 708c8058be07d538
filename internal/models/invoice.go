package models

import "time"

// InvoiceStatus is a state of the invoice lifecycle.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusOpen      InvoiceStatus = "OPEN"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// InvoiceEvent is an action that moves an invoice between states.
type InvoiceEvent string

const (
	InvoiceEventIssue          InvoiceEvent = "issue"
	InvoiceEventApprovePayment InvoiceEvent = "approve_payment"
	InvoiceEventMarkOverdue    InvoiceEvent = "mark_overdue"
	InvoiceEventCancel         InvoiceEvent = "cancel"
)

// invoiceTransitions is the complete lifecycle graph. PAID and CANCELLED
// have no outgoing edges.
var invoiceTransitions = map[InvoiceStatus]map[InvoiceEvent]InvoiceStatus{
	InvoiceStatusDraft: {
		InvoiceEventIssue: InvoiceStatusOpen,
	},
	InvoiceStatusOpen: {
		InvoiceEventApprovePayment: InvoiceStatusPaid,
		InvoiceEventMarkOverdue:    InvoiceStatusOverdue,
		InvoiceEventCancel:         InvoiceStatusCancelled,
	},
	InvoiceStatusOverdue: {
		InvoiceEventApprovePayment: InvoiceStatusPaid,
		InvoiceEventCancel:         InvoiceStatusCancelled,
	},
	InvoiceStatusPaid:      {},
	InvoiceStatusCancelled: {},
}

// Next returns the state reached from s by event, and false if the
// transition is not allowed.
func (s InvoiceStatus) Next(event InvoiceEvent) (InvoiceStatus, bool) {
	next, ok := invoiceTransitions[s][event]
	return next, ok
}

// IsTerminal reports whether no further transitions are possible.
func (s InvoiceStatus) IsTerminal() bool {
	edges, known := invoiceTransitions[s]
	return known && len(edges) == 0
}

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	_, ok := invoiceTransitions[s]
	return ok
}

// Invoice bills a client. Total always equals the sum of its item totals.
type Invoice struct {
	Base
	OrgID        string        `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_org_number;uniqueIndex:idx_invoices_client_period" json:"org_id"`
	ClientID     string        `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoices_client_period" json:"client_id"`
	Number       string        `gorm:"not null;uniqueIndex:idx_invoices_org_number" json:"number"`
	Status       InvoiceStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Period       *string       `gorm:"type:varchar(7);uniqueIndex:idx_invoices_client_period" json:"period,omitempty"`
	IssueDate    time.Time     `gorm:"not null" json:"issue_date"`
	DueDate      time.Time     `gorm:"not null;index" json:"due_date"`
	Total        int64         `gorm:"type:bigint;not null" json:"total"`
	PaidAt       *time.Time    `json:"paid_at,omitempty"`
	CancelledAt  *time.Time    `json:"cancelled_at,omitempty"`
	CancelReason string        `json:"cancel_reason,omitempty"`

	Client   *Client       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
	Payments []Payment     `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// InvoiceItem is one billed line.
type InvoiceItem struct {
	Base
	InvoiceID     string  `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Description   string  `gorm:"not null" json:"description"`
	Quantity      int64   `gorm:"not null" json:"quantity"`
	UnitPrice     int64   `gorm:"type:bigint;not null" json:"unit_price"`
	Total         int64   `gorm:"type:bigint;not null" json:"total"`
	InstallmentID *string `gorm:"type:uuid;index" json:"installment_id,omitempty"`
}

// RecalculateTotals sets every item total to quantity * unit price and the
// invoice total to the sum of the items.
func (inv *Invoice) RecalculateTotals() {
	var total int64
	for i := range inv.Items {
		inv.Items[i].Total = inv.Items[i].Quantity * inv.Items[i].UnitPrice
		total += inv.Items[i].Total
	}
	inv.Total = total
}

// PaymentStatus is the state of a payment reported by the payment collaborator.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// Payment records money received against an invoice.
type Payment struct {
	Base
	InvoiceID string        `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount    int64         `gorm:"type:bigint;not null" json:"amount"`
	Status    PaymentStatus `gorm:"type:varchar(16);not null" json:"status"`
	PaidAt    *time.Time    `json:"paid_at,omitempty"`
	Reference string        `json:"reference,omitempty"`
}
