package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/models"
	"agencyledger/internal/services"
	"agencyledger/internal/uuid"
)

func setupInstallmentRouter(handler *InstallmentHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectOrg(testOrgID))
	auth.POST("/contracts/:id/installments", handler.ScheduleInstallments)
	auth.GET("/contracts/:id/installments", handler.ListInstallments)
	auth.DELETE("/contracts/:id/installments", handler.DeleteInstallmentSchedule)
	return r
}

func TestInstallmentHandler_Schedule(t *testing.T) {
	contractID := uuid.New()

	t.Run("parses decimal value and start date", func(t *testing.T) {
		svc := &mockInstallmentService{
			scheduleFn: func(_ context.Context, _, id string, in services.ScheduleInput) ([]models.Installment, error) {
				if id != contractID {
					t.Errorf("expected contract %s, got %s", contractID, id)
				}
				if in.ContractValue != 100000 || in.Count != 3 {
					t.Errorf("unexpected input %+v", in)
				}
				if !in.StartDate.Equal(time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)) {
					t.Errorf("unexpected start %v", in.StartDate)
				}
				return []models.Installment{{Number: 1, Amount: 33333}, {Number: 2, Amount: 33333}, {Number: 3, Amount: 33334}}, nil
			},
		}
		r := setupInstallmentRouter(NewInstallmentHandler(svc))

		rec := doRequest(r, "POST", "/contracts/"+contractID+"/installments",
			`{"contract_value":"1000.00","installment_count":3,"start_date":"2024-01-31"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := len(parseJSON(t, rec)["installments"].([]interface{})); got != 3 {
			t.Errorf("expected 3 installments, got %d", got)
		}
	})

	t.Run("returns 400 on invalid count from service", func(t *testing.T) {
		svc := &mockInstallmentService{
			scheduleFn: func(context.Context, string, string, services.ScheduleInput) ([]models.Installment, error) {
				return nil, apperrors.ErrInvalidInstallmentCount
			},
		}
		r := setupInstallmentRouter(NewInstallmentHandler(svc))

		rec := doRequest(r, "POST", "/contracts/"+contractID+"/installments",
			`{"contract_value":"1000.00","installment_count":-1,"start_date":"2024-01-31"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INSTALLMENT_COUNT")
	})

	t.Run("rejects oversized count before the service", func(t *testing.T) {
		svc := &mockInstallmentService{
			scheduleFn: func(context.Context, string, string, services.ScheduleInput) ([]models.Installment, error) {
				t.Error("service should not be called")
				return nil, nil
			},
		}
		r := setupInstallmentRouter(NewInstallmentHandler(svc))

		rec := doRequest(r, "POST", "/contracts/"+contractID+"/installments",
			`{"contract_value":"1000.00","installment_count":100000,"start_date":"2024-01-31"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on missing start date", func(t *testing.T) {
		r := setupInstallmentRouter(NewInstallmentHandler(&mockInstallmentService{}))

		rec := doRequest(r, "POST", "/contracts/"+contractID+"/installments",
			`{"contract_value":"1000.00","installment_count":3}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestInstallmentHandler_Delete(t *testing.T) {
	contractID := uuid.New()

	t.Run("returns deleted count", func(t *testing.T) {
		svc := &mockInstallmentService{
			deleteFn: func(context.Context, string, string) (int64, error) { return 4, nil },
		}
		r := setupInstallmentRouter(NewInstallmentHandler(svc))

		rec := doRequest(r, "DELETE", "/contracts/"+contractID+"/installments", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["deleted"].(float64) != 4 {
			t.Error("expected deleted 4")
		}
	})

	t.Run("returns 409 with confirmed installments", func(t *testing.T) {
		svc := &mockInstallmentService{
			deleteFn: func(context.Context, string, string) (int64, error) { return 0, apperrors.ErrScheduleHasPayments },
		}
		r := setupInstallmentRouter(NewInstallmentHandler(svc))

		rec := doRequest(r, "DELETE", "/contracts/"+contractID+"/installments", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SCHEDULE_HAS_PAYMENTS")
	})
}
