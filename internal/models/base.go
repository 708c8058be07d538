// Package models holds the GORM records of the ledger. Every tenant-owned
// record carries an OrgID and every query against it is scoped with ForOrg.
package models

import (
	"time"

	"agencyledger/internal/uuid"

	"gorm.io/gorm"
)

// Base holds the identity and bookkeeping columns shared by all tables.
// Rows are soft deleted; GORM hides them from every query built on a model.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate assigns a time-ordered UUIDv7 unless the caller set one.
func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// ForOrg restricts a query to one organization's rows.
func ForOrg(orgID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("org_id = ?", orgID)
	}
}
