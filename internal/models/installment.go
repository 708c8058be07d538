package models

import "time"

// InstallmentStatus is the payment state of one installment.
type InstallmentStatus string

const (
	InstallmentStatusPending   InstallmentStatus = "PENDING"
	InstallmentStatusConfirmed InstallmentStatus = "CONFIRMED"
	InstallmentStatusLate      InstallmentStatus = "LATE"
)

// Installment is one dated slice of a contract's value. The installments of a
// contract always sum to the contract value.
type Installment struct {
	Base
	OrgID      string            `gorm:"type:uuid;not null;index" json:"org_id"`
	ClientID   string            `gorm:"type:uuid;not null;index" json:"client_id"`
	ContractID string            `gorm:"type:uuid;not null;uniqueIndex:idx_installments_contract_number" json:"contract_id"`
	Number     int               `gorm:"not null;uniqueIndex:idx_installments_contract_number" json:"number"`
	Amount     int64             `gorm:"type:bigint;not null" json:"amount"`
	DueDate    time.Time         `gorm:"not null;index" json:"due_date"`
	Status     InstallmentStatus `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	PaidAt     *time.Time        `json:"paid_at,omitempty"`
	Notes      string            `json:"notes,omitempty"`
	InvoiceID  *string           `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
}
