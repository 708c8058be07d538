package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/logger"
	"agencyledger/internal/middleware"
	"agencyledger/internal/services"
	"agencyledger/internal/uuid"
)

// getOrgID extracts the authenticated organization from the Gin context.
// Returns ErrUnauthorized if not present.
func getOrgID(c *gin.Context) (string, error) {
	orgID := c.GetString(middleware.OrgIDKey)
	if orgID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return orgID, nil
}

// requestContext returns the request context carrying the caller as the
// activity actor.
func requestContext(c *gin.Context) context.Context {
	return services.WithActor(c.Request.Context(), c.GetString(middleware.ActorKey))
}

// parsePathID validates a UUID path parameter.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseFlexibleTime accepts RFC3339 timestamps or plain YYYY-MM-DD dates.
func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use RFC3339 or YYYY-MM-DD", s)
}

// parseOptionalTime parses the named query parameter if present.
func parseOptionalTime(c *gin.Context, param string) (*time.Time, error) {
	v := c.Query(param)
	if v == "" {
		return nil, nil
	}
	t, err := parseFlexibleTime(v)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+param+" format, use RFC3339 or YYYY-MM-DD")
	}
	return &t, nil
}

// endOfDay widens a date-only bound to cover the whole day.
func endOfDay(t *time.Time, raw string) *time.Time {
	if t == nil || strings.Contains(raw, "T") {
		return t
	}
	end := t.Add(24*time.Hour - time.Nanosecond)
	return &end
}

// parseMonths parses a comma-separated month list such as "1,2,12".
func parseMonths(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	var months []int
	for _, part := range strings.Split(raw, ",") {
		m, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidAuditMonths, "months must be a comma-separated list of integers")
		}
		months = append(months, m)
	}
	return months, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		appErr = apperrors.ErrInternalServer
	} else if appErr.Internal != nil {
		logger.Get().Errorw("app error",
			"code", appErr.Code,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
		)
	}

	c.JSON(appErr.StatusCode, ErrorResponse{Error: ErrorDetail{Code: appErr.Code, Message: appErr.Message}})
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}
