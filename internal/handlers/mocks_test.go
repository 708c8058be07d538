package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"agencyledger/internal/logger"
	"agencyledger/internal/middleware"
	"agencyledger/internal/models"
	"agencyledger/internal/pagination"
	"agencyledger/internal/services"
	"agencyledger/internal/validator"
)

// --- mock services ---

type mockInstallmentService struct {
	scheduleFn func(ctx context.Context, orgID, contractID string, in services.ScheduleInput) ([]models.Installment, error)
	listFn     func(ctx context.Context, orgID, contractID string) ([]models.Installment, error)
	deleteFn   func(ctx context.Context, orgID, contractID string) (int64, error)
}

func (m *mockInstallmentService) ScheduleInstallments(ctx context.Context, orgID, contractID string, in services.ScheduleInput) ([]models.Installment, error) {
	if m.scheduleFn != nil {
		return m.scheduleFn(ctx, orgID, contractID, in)
	}
	return []models.Installment{}, nil
}

func (m *mockInstallmentService) ListInstallments(ctx context.Context, orgID, contractID string) ([]models.Installment, error) {
	if m.listFn != nil {
		return m.listFn(ctx, orgID, contractID)
	}
	return []models.Installment{}, nil
}

func (m *mockInstallmentService) DeleteInstallmentSchedule(ctx context.Context, orgID, contractID string) (int64, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, orgID, contractID)
	}
	return 0, nil
}

var _ services.InstallmentServicer = (*mockInstallmentService)(nil)

type mockInvoiceService struct {
	createFn     func(ctx context.Context, orgID string, in services.CreateInvoiceInput) (*models.Invoice, error)
	getFn        func(ctx context.Context, orgID, invoiceID string) (*models.Invoice, error)
	listFn       func(ctx context.Context, orgID string, page pagination.PageRequest, filter services.InvoiceFilter) (*pagination.PageResponse[models.Invoice], error)
	issueFn      func(ctx context.Context, orgID, invoiceID string) (*models.Invoice, error)
	approveFn    func(ctx context.Context, orgID, invoiceID string, paidAt *time.Time) (*models.Invoice, error)
	cancelFn     func(ctx context.Context, orgID, invoiceID, reason string) (*models.Invoice, error)
	deleteFn     func(ctx context.Context, orgID, invoiceID string) error
	generateFn   func(ctx context.Context, orgID, periodKey string) (*services.GenerationReport, error)
	reclassifyFn func(ctx context.Context, orgID string) (*services.ReclassifyResult, error)
}

func (m *mockInvoiceService) CreateInvoice(ctx context.Context, orgID string, in services.CreateInvoiceInput) (*models.Invoice, error) {
	if m.createFn != nil {
		return m.createFn(ctx, orgID, in)
	}
	return &models.Invoice{}, nil
}

func (m *mockInvoiceService) GetInvoice(ctx context.Context, orgID, invoiceID string) (*models.Invoice, error) {
	if m.getFn != nil {
		return m.getFn(ctx, orgID, invoiceID)
	}
	return &models.Invoice{}, nil
}

func (m *mockInvoiceService) ListInvoices(ctx context.Context, orgID string, page pagination.PageRequest, filter services.InvoiceFilter) (*pagination.PageResponse[models.Invoice], error) {
	if m.listFn != nil {
		return m.listFn(ctx, orgID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Invoice{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockInvoiceService) IssueInvoice(ctx context.Context, orgID, invoiceID string) (*models.Invoice, error) {
	if m.issueFn != nil {
		return m.issueFn(ctx, orgID, invoiceID)
	}
	return &models.Invoice{}, nil
}

func (m *mockInvoiceService) ApprovePayment(ctx context.Context, orgID, invoiceID string, paidAt *time.Time) (*models.Invoice, error) {
	if m.approveFn != nil {
		return m.approveFn(ctx, orgID, invoiceID, paidAt)
	}
	return &models.Invoice{}, nil
}

func (m *mockInvoiceService) CancelInvoice(ctx context.Context, orgID, invoiceID, reason string) (*models.Invoice, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, orgID, invoiceID, reason)
	}
	return &models.Invoice{}, nil
}

func (m *mockInvoiceService) DeleteInvoice(ctx context.Context, orgID, invoiceID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, orgID, invoiceID)
	}
	return nil
}

func (m *mockInvoiceService) GenerateMonthlyInvoices(ctx context.Context, orgID, periodKey string) (*services.GenerationReport, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, orgID, periodKey)
	}
	return &services.GenerationReport{Period: periodKey}, nil
}

func (m *mockInvoiceService) ReclassifyOverdue(ctx context.Context, orgID string) (*services.ReclassifyResult, error) {
	if m.reclassifyFn != nil {
		return m.reclassifyFn(ctx, orgID)
	}
	return &services.ReclassifyResult{}, nil
}

var _ services.InvoiceServicer = (*mockInvoiceService)(nil)

type mockMaterializer struct {
	expenseFn         func(ctx context.Context, orgID, expenseID string) (*services.MaterializeResult, error)
	allExpensesFn     func(ctx context.Context, orgID string) (*services.MaterializeBatchReport, error)
	subscriptionFn    func(ctx context.Context, orgID, subscriptionID string) (*services.MaterializeResult, error)
	allSubscriptionFn func(ctx context.Context, orgID string) (*services.MaterializeBatchReport, error)
}

func (m *mockMaterializer) MaterializeRecurringExpense(ctx context.Context, orgID, expenseID string) (*services.MaterializeResult, error) {
	if m.expenseFn != nil {
		return m.expenseFn(ctx, orgID, expenseID)
	}
	return &services.MaterializeResult{Status: services.MaterializationCreated}, nil
}

func (m *mockMaterializer) MaterializeAllRecurringExpenses(ctx context.Context, orgID string) (*services.MaterializeBatchReport, error) {
	if m.allExpensesFn != nil {
		return m.allExpensesFn(ctx, orgID)
	}
	return &services.MaterializeBatchReport{}, nil
}

func (m *mockMaterializer) MaterializeCostSubscription(ctx context.Context, orgID, subscriptionID string) (*services.MaterializeResult, error) {
	if m.subscriptionFn != nil {
		return m.subscriptionFn(ctx, orgID, subscriptionID)
	}
	return &services.MaterializeResult{Status: services.MaterializationCreated}, nil
}

func (m *mockMaterializer) MaterializeAllCostSubscriptions(ctx context.Context, orgID string) (*services.MaterializeBatchReport, error) {
	if m.allSubscriptionFn != nil {
		return m.allSubscriptionFn(ctx, orgID)
	}
	return &services.MaterializeBatchReport{}, nil
}

var _ services.MaterializerServicer = (*mockMaterializer)(nil)

type mockTransactionService struct {
	createFn func(ctx context.Context, orgID string, in services.CreateTransactionInput) (*models.Transaction, error)
	getFn    func(ctx context.Context, orgID, transactionID string) (*models.Transaction, error)
	listFn   func(ctx context.Context, orgID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	deleteFn func(ctx context.Context, orgID, transactionID string) error
}

func (m *mockTransactionService) CreateTransaction(ctx context.Context, orgID string, in services.CreateTransactionInput) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(ctx, orgID, in)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetTransactionByID(ctx context.Context, orgID, transactionID string) (*models.Transaction, error) {
	if m.getFn != nil {
		return m.getFn(ctx, orgID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) ListTransactions(ctx context.Context, orgID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.listFn != nil {
		return m.listFn(ctx, orgID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) DeleteTransaction(ctx context.Context, orgID, transactionID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, orgID, transactionID)
	}
	return nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

type mockReportingService struct {
	dashboardFn func(ctx context.Context, orgID string, from, to *time.Time) (*services.Dashboard, error)
	marginsFn   func(ctx context.Context, orgID string, from, to *time.Time) ([]services.ClientMargin, error)
}

func (m *mockReportingService) GetDashboard(ctx context.Context, orgID string, from, to *time.Time) (*services.Dashboard, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx, orgID, from, to)
	}
	return &services.Dashboard{}, nil
}

func (m *mockReportingService) GetClientMargins(ctx context.Context, orgID string, from, to *time.Time) ([]services.ClientMargin, error) {
	if m.marginsFn != nil {
		return m.marginsFn(ctx, orgID, from, to)
	}
	return []services.ClientMargin{}, nil
}

var _ services.ReportingServicer = (*mockReportingService)(nil)

type mockAuditService struct {
	auditFn func(ctx context.Context, orgID string, year int, months []int) (*services.AuditReport, error)
}

func (m *mockAuditService) AuditFinancial(ctx context.Context, orgID string, year int, months []int) (*services.AuditReport, error) {
	if m.auditFn != nil {
		return m.auditFn(ctx, orgID, year, months)
	}
	return &services.AuditReport{Year: year, Months: months, Results: []services.AuditMonth{}}, nil
}

var _ services.AuditServicer = (*mockAuditService)(nil)

type mockActivityService struct {
	listFn func(ctx context.Context, orgID string, page pagination.PageRequest) (*pagination.PageResponse[models.ActivityLog], error)
}

func (m *mockActivityService) Log(_ context.Context, _, _, _, _ string, _ map[string]any) {}

func (m *mockActivityService) List(ctx context.Context, orgID string, page pagination.PageRequest) (*pagination.PageResponse[models.ActivityLog], error) {
	if m.listFn != nil {
		return m.listFn(ctx, orgID, page)
	}
	resp := pagination.NewPageResponse([]models.ActivityLog{}, 1, 20, 0)
	return &resp, nil
}

var _ services.ActivityServicer = (*mockActivityService)(nil)

// --- test helpers ---

const testOrgID = "0190a6d2-7c4b-7b1e-9f00-000000000001"

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func injectOrg(orgID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.OrgIDKey, orgID)
		c.Set(middleware.ActorKey, "user-1")
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
