package services

import (
	"context"

	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/logger"
	"agencyledger/internal/models"
	"agencyledger/internal/pagination"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type actorKey struct{}

// WithActor returns a context that attributes activity to actor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored in ctx, or "system" for scheduled jobs.
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "system"
}

// activityService handles activity log recording.
type activityService struct {
	db *gorm.DB
}

// NewActivityService creates a new ActivityServicer.
func NewActivityService(db *gorm.DB) ActivityServicer {
	return &activityService{db: db}
}

// Log records an activity event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *activityService) Log(ctx context.Context, orgID, action, resourceType, resourceID string, changes map[string]any) {
	entry := &models.ActivityLog{
		OrgID:        orgID,
		Actor:        ActorFrom(ctx),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
	if changes != nil {
		entry.Changes = datatypes.JSONMap(changes)
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create activity log entry",
			"error", err,
			"org_id", orgID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

// List returns the organization's activity, newest first.
func (s *activityService) List(ctx context.Context, orgID string, page pagination.PageRequest) (*pagination.PageResponse[models.ActivityLog], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.ActivityLog{}).Scopes(models.ForOrg(orgID))

	result, err := pagination.Fetch[models.ActivityLog](base, page, "created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return result, nil
}

// nopActivity discards activity; used when a service is built without a log.
type nopActivity struct{}

func (nopActivity) Log(context.Context, string, string, string, string, map[string]any) {}

func (nopActivity) List(_ context.Context, _ string, page pagination.PageRequest) (*pagination.PageResponse[models.ActivityLog], error) {
	page.Defaults()
	result := pagination.NewPageResponse[models.ActivityLog](nil, page.Page, page.PageSize, 0)
	return &result, nil
}

// dashboardInvalidator drops the org's cached dashboards whenever a write is
// recorded. Every ledger mutation goes through Log.
type dashboardInvalidator struct {
	ActivityServicer
	cache Cache
}

// WithDashboardInvalidation wraps activity so that recording an event also
// invalidates the organization's cached dashboards. A nil cache returns
// activity unchanged.
func WithDashboardInvalidation(activity ActivityServicer, cache Cache) ActivityServicer {
	if cache == nil {
		return activity
	}
	return &dashboardInvalidator{ActivityServicer: activityOrNop(activity), cache: cache}
}

func (d *dashboardInvalidator) Log(ctx context.Context, orgID, action, resourceType, resourceID string, changes map[string]any) {
	d.ActivityServicer.Log(ctx, orgID, action, resourceType, resourceID, changes)
	if err := d.cache.DeletePrefix(ctx, DashboardKeyPrefix(orgID)); err != nil {
		logger.Get().Warnw("dashboard cache invalidation failed",
			"error", err,
			"org_id", orgID,
			"action", action,
		)
	}
}

func activityOrNop(a ActivityServicer) ActivityServicer {
	if a == nil {
		return nopActivity{}
	}
	return a
}
