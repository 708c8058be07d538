// Package jobs triggers the agencyledger batch endpoints on behalf of an
// external scheduler.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"agencyledger/internal/services"
)

// Client calls the /api/v1/jobs endpoints with the jobs API key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new jobs API client.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type jobRequest struct {
	OrgID  string `json:"org_id"`
	Period string `json:"period,omitempty"`
}

// StatusError is returned when the API answers with a non-200 status.
type StatusError struct {
	Job        string
	StatusCode int
	Code       string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: unexpected status %d (%s)", e.Job, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Job, e.StatusCode)
}

func (c *Client) post(ctx context.Context, job string, body jobRequest, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", job, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/jobs/"+job, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", job, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &StatusError{Job: job, StatusCode: resp.StatusCode, Code: errBody.Error.Code}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", job, err)
	}
	return nil
}

// MaterializeRecurringExpenses books the current period of every active
// recurring expense of the organization.
func (c *Client) MaterializeRecurringExpenses(ctx context.Context, orgID string) (*services.MaterializeBatchReport, error) {
	var report services.MaterializeBatchReport
	if err := c.post(ctx, "materialize-recurring-expenses", jobRequest{OrgID: orgID}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// MaterializeCostSubscriptions books the current month of every active cost
// subscription of the organization.
func (c *Client) MaterializeCostSubscriptions(ctx context.Context, orgID string) (*services.MaterializeBatchReport, error) {
	var report services.MaterializeBatchReport
	if err := c.post(ctx, "materialize-cost-subscriptions", jobRequest{OrgID: orgID}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GenerateMonthlyInvoices bills the period. An empty period lets the API
// pick the current month.
func (c *Client) GenerateMonthlyInvoices(ctx context.Context, orgID, period string) (*services.GenerationReport, error) {
	var report services.GenerationReport
	if err := c.post(ctx, "generate-monthly-invoices", jobRequest{OrgID: orgID, Period: period}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ReclassifyOverdue runs the overdue sweep.
func (c *Client) ReclassifyOverdue(ctx context.Context, orgID string) (*services.ReclassifyResult, error) {
	var result services.ReclassifyResult
	if err := c.post(ctx, "reclassify-overdue", jobRequest{OrgID: orgID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
