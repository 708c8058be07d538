package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"agencyledger/internal/batch"
	"agencyledger/internal/clock"
	"agencyledger/internal/services"
)

func setupJobsRouter(handler *JobsHandler) *gin.Engine {
	r := gin.New()
	jobs := r.Group("/jobs")
	jobs.POST("/materialize-recurring-expenses", handler.MaterializeRecurringExpenses)
	jobs.POST("/materialize-cost-subscriptions", handler.MaterializeCostSubscriptions)
	jobs.POST("/generate-monthly-invoices", handler.GenerateMonthlyInvoices)
	jobs.POST("/reclassify-overdue", handler.ReclassifyOverdue)
	return r
}

func TestJobsHandler_GenerateMonthlyInvoices(t *testing.T) {
	clk := clock.At(2024, time.March, 15)

	t.Run("defaults period to the current month", func(t *testing.T) {
		svc := &mockInvoiceService{
			generateFn: func(_ context.Context, orgID, periodKey string) (*services.GenerationReport, error) {
				if orgID != testOrgID {
					t.Errorf("unexpected org %s", orgID)
				}
				if periodKey != "2024-03" {
					t.Errorf("expected 2024-03, got %s", periodKey)
				}
				return &services.GenerationReport{Period: periodKey, SuccessCount: 2}, nil
			},
		}
		r := setupJobsRouter(NewJobsHandler(&mockMaterializer{}, svc, clk))

		rec := doRequest(r, "POST", "/jobs/generate-monthly-invoices", `{"org_id":"`+testOrgID+`"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["successCount"].(float64) != 2 {
			t.Error("expected successCount 2")
		}
	})

	t.Run("uses explicit period", func(t *testing.T) {
		svc := &mockInvoiceService{
			generateFn: func(_ context.Context, _, periodKey string) (*services.GenerationReport, error) {
				if periodKey != "2023-12" {
					t.Errorf("expected 2023-12, got %s", periodKey)
				}
				return &services.GenerationReport{Period: periodKey}, nil
			},
		}
		r := setupJobsRouter(NewJobsHandler(&mockMaterializer{}, svc, clk))

		rec := doRequest(r, "POST", "/jobs/generate-monthly-invoices", `{"org_id":"`+testOrgID+`","period":"2023-12"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("rejects malformed period", func(t *testing.T) {
		r := setupJobsRouter(NewJobsHandler(&mockMaterializer{}, &mockInvoiceService{}, clk))

		rec := doRequest(r, "POST", "/jobs/generate-monthly-invoices", `{"org_id":"`+testOrgID+`","period":"2023-13"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestJobsHandler_Validation(t *testing.T) {
	r := setupJobsRouter(NewJobsHandler(&mockMaterializer{}, &mockInvoiceService{}, clock.At(2024, time.March, 15)))

	for _, path := range []string{
		"/jobs/materialize-recurring-expenses",
		"/jobs/materialize-cost-subscriptions",
		"/jobs/generate-monthly-invoices",
		"/jobs/reclassify-overdue",
	} {
		t.Run(path, func(t *testing.T) {
			rec := doRequest(r, "POST", path, `{"org_id":"not-a-uuid"}`)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")

			rec = doRequest(r, "POST", path, `{}`)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 without org_id, got %d", rec.Code)
			}
		})
	}
}

func TestJobsHandler_Materialize(t *testing.T) {
	materializer := &mockMaterializer{
		allExpensesFn: func(_ context.Context, orgID string) (*services.MaterializeBatchReport, error) {
			return &services.MaterializeBatchReport{
				Success: []services.MaterializeResult{{Status: services.MaterializationCreated, Period: "2024-03"}},
				Skipped: []batch.Entry{},
				Errors:  []batch.Entry{},
			}, nil
		},
		allSubscriptionFn: func(_ context.Context, orgID string) (*services.MaterializeBatchReport, error) {
			return &services.MaterializeBatchReport{Success: []services.MaterializeResult{}}, nil
		},
	}
	invoices := &mockInvoiceService{
		reclassifyFn: func(context.Context, string) (*services.ReclassifyResult, error) {
			return &services.ReclassifyResult{InvoicesMarkedOverdue: 3, InstallmentsMarkedLate: 5}, nil
		},
	}
	r := setupJobsRouter(NewJobsHandler(materializer, invoices, clock.At(2024, time.March, 15)))
	body := `{"org_id":"` + testOrgID + `"}`

	rec := doRequest(r, "POST", "/jobs/materialize-recurring-expenses", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := len(parseJSON(t, rec)["success"].([]interface{})); got != 1 {
		t.Errorf("expected 1 success, got %d", got)
	}

	rec = doRequest(r, "POST", "/jobs/materialize-cost-subscriptions", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(r, "POST", "/jobs/reclassify-overdue", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	if result["invoicesMarkedOverdue"].(float64) != 3 || result["installmentsMarkedLate"].(float64) != 5 {
		t.Errorf("unexpected reclassify result %v", result)
	}
}
