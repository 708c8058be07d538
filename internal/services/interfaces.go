package services

import (
	"context"
	"time"

	"agencyledger/internal/batch"
	"agencyledger/internal/models"
	"agencyledger/internal/pagination"
)

// ScheduleInput describes how a contract value is split into installments.
type ScheduleInput struct {
	ContractValue int64
	Count         int
	StartDate     time.Time
}

// InstallmentServicer defines the contract for installment scheduling.
type InstallmentServicer interface {
	ScheduleInstallments(ctx context.Context, orgID, contractID string, in ScheduleInput) ([]models.Installment, error)
	ListInstallments(ctx context.Context, orgID, contractID string) ([]models.Installment, error)
	DeleteInstallmentSchedule(ctx context.Context, orgID, contractID string) (int64, error)
}

// MaterializationStatus is the outcome of a single materialization.
type MaterializationStatus string

const (
	MaterializationCreated MaterializationStatus = "created"
	MaterializationSkipped MaterializationStatus = "skipped"
)

// MaterializeResult reports what happened to one obligation.
type MaterializeResult struct {
	Status        MaterializationStatus `json:"status"`
	ObligationID  string                `json:"obligationId"`
	Period        string                `json:"period"`
	Reason        string                `json:"reason,omitempty"`
	TransactionID string                `json:"transactionId,omitempty"`
	Amount        int64                 `json:"amount"`
	Date          time.Time             `json:"date"`
}

// MaterializeBatchReport is the partial-failure report of a materialize-all run.
type MaterializeBatchReport struct {
	Success []MaterializeResult `json:"success"`
	Skipped []batch.Entry       `json:"skipped"`
	Errors  []batch.Entry       `json:"errors"`
}

// MaterializerServicer turns recurring obligations into ledger transactions.
type MaterializerServicer interface {
	MaterializeRecurringExpense(ctx context.Context, orgID, expenseID string) (*MaterializeResult, error)
	MaterializeAllRecurringExpenses(ctx context.Context, orgID string) (*MaterializeBatchReport, error)
	MaterializeCostSubscription(ctx context.Context, orgID, subscriptionID string) (*MaterializeResult, error)
	MaterializeAllCostSubscriptions(ctx context.Context, orgID string) (*MaterializeBatchReport, error)
}

// InvoiceItemInput is one line of a manually created invoice.
type InvoiceItemInput struct {
	Description   string
	Quantity      int64
	UnitPrice     int64
	InstallmentID *string
}

// CreateInvoiceInput holds the fields of a new DRAFT invoice.
type CreateInvoiceInput struct {
	ClientID  string
	IssueDate time.Time
	DueDate   time.Time
	Items     []InvoiceItemInput
}

// InvoiceFilter holds optional filter parameters for listing invoices.
type InvoiceFilter struct {
	Status   *models.InvoiceStatus
	ClientID *string
}

// GeneratedInvoice summarizes an invoice created by monthly generation.
type GeneratedInvoice struct {
	InvoiceID  string `json:"invoiceId"`
	Number     string `json:"number"`
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName"`
	Total      int64  `json:"total"`
}

// GenerationReport is the partial-failure report of monthly invoice generation.
type GenerationReport struct {
	Period       string             `json:"period"`
	SuccessCount int                `json:"successCount"`
	BlockedCount int                `json:"blockedCount"`
	ErrorCount   int                `json:"errorCount"`
	Success      []GeneratedInvoice `json:"success"`
	Blocked      []batch.Entry      `json:"blocked"`
	Errors       []batch.Entry      `json:"errors"`
}

// ReclassifyResult counts the rows moved by an overdue sweep.
type ReclassifyResult struct {
	InvoicesMarkedOverdue  int64 `json:"invoicesMarkedOverdue"`
	InstallmentsMarkedLate int64 `json:"installmentsMarkedLate"`
}

// InvoiceServicer owns the invoice lifecycle.
type InvoiceServicer interface {
	CreateInvoice(ctx context.Context, orgID string, in CreateInvoiceInput) (*models.Invoice, error)
	GetInvoice(ctx context.Context, orgID, invoiceID string) (*models.Invoice, error)
	ListInvoices(ctx context.Context, orgID string, page pagination.PageRequest, filter InvoiceFilter) (*pagination.PageResponse[models.Invoice], error)
	IssueInvoice(ctx context.Context, orgID, invoiceID string) (*models.Invoice, error)
	ApprovePayment(ctx context.Context, orgID, invoiceID string, paidAt *time.Time) (*models.Invoice, error)
	CancelInvoice(ctx context.Context, orgID, invoiceID, reason string) (*models.Invoice, error)
	DeleteInvoice(ctx context.Context, orgID, invoiceID string) error
	GenerateMonthlyInvoices(ctx context.Context, orgID, periodKey string) (*GenerationReport, error)
	ReclassifyOverdue(ctx context.Context, orgID string) (*ReclassifyResult, error)
}

// CreateTransactionInput holds the fields of a manual ledger entry.
type CreateTransactionInput struct {
	ClientID    *string
	Type        models.TransactionType
	Status      models.TransactionStatus
	Amount      int64
	Date        time.Time
	Category    string
	Description string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Type      *models.TransactionType
	Subtype   *models.TransactionSubtype
	Status    *models.TransactionStatus
	ClientID  *string
	MinAmount *int64
	MaxAmount *int64
}

// TransactionServicer defines the contract for ledger entries.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, orgID string, in CreateTransactionInput) (*models.Transaction, error)
	GetTransactionByID(ctx context.Context, orgID, transactionID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, orgID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	DeleteTransaction(ctx context.Context, orgID, transactionID string) error
}

// ReportingServicer computes dashboards and margins.
type ReportingServicer interface {
	GetDashboard(ctx context.Context, orgID string, from, to *time.Time) (*Dashboard, error)
	GetClientMargins(ctx context.Context, orgID string, from, to *time.Time) ([]ClientMargin, error)
}

// AuditServicer runs the read-only monthly reconciliation pass.
type AuditServicer interface {
	AuditFinancial(ctx context.Context, orgID string, year int, months []int) (*AuditReport, error)
}

// ActivityServicer records who changed which financial record.
type ActivityServicer interface {
	Log(ctx context.Context, orgID, action, resourceType, resourceID string, changes map[string]any)
	List(ctx context.Context, orgID string, page pagination.PageRequest) (*pagination.PageResponse[models.ActivityLog], error)
}
