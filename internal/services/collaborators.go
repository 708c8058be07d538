package services

//go:generate mockgen -source=collaborators.go -destination=collaborators_mock.go -package=services

import (
	"context"

	"agencyledger/internal/period"
)

// ClientMargin nets a client's revenue against the costs attributed to it.
type ClientMargin struct {
	ClientID   string  `json:"clientId"`
	ClientName string  `json:"clientName"`
	Revenue    int64   `json:"revenue"`
	Cost       int64   `json:"cost"`
	Margin     int64   `json:"margin"`
	MarginPct  float64 `json:"marginPct"`
}

// CostTracker computes per-client margins from client-attributed cost
// subscriptions. The reporting engine exposes its output unchanged.
type CostTracker interface {
	ClientMargins(ctx context.Context, orgID string, w period.Window) ([]ClientMargin, error)
}

// Cache stores JSON-serializable report snapshots.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// DeletePrefix drops every entry whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
