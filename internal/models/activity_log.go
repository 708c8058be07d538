package models

import "gorm.io/datatypes"

// ActivityLog records state-changing operations on financial records.
type ActivityLog struct {
	Base
	OrgID        string            `gorm:"type:uuid;not null;index" json:"org_id"`
	Actor        string            `gorm:"not null" json:"actor"`
	Action       string            `gorm:"not null" json:"action"`
	ResourceType string            `gorm:"not null" json:"resource_type"`
	ResourceID   string            `gorm:"index" json:"resource_id"`
	Changes      datatypes.JSONMap `json:"changes,omitempty"`
}
