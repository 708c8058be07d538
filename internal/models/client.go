package models

import "time"

// Client is a customer organization billed by the agency.
type Client struct {
	Base
	OrgID    string `gorm:"type:uuid;not null;index" json:"org_id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `json:"email,omitempty"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

// Contract is the agreement whose value is split into installments.
type Contract struct {
	Base
	OrgID            string    `gorm:"type:uuid;not null;index" json:"org_id"`
	ClientID         string    `gorm:"type:uuid;not null;index" json:"client_id"`
	Value            int64     `gorm:"type:bigint;not null" json:"value"`
	InstallmentCount int       `gorm:"not null" json:"installment_count"`
	StartDate        time.Time `gorm:"not null" json:"start_date"`
	IsActive         bool      `gorm:"not null;default:true" json:"is_active"`

	Client       *Client       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Installments []Installment `gorm:"foreignKey:ContractID" json:"installments,omitempty"`
}
