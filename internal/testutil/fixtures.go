package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"agencyledger/internal/models"
	"agencyledger/internal/uuid"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewOrgID returns a fresh organization identifier.
func NewOrgID() string {
	return uuid.New()
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestClient creates an active client in the organization.
func CreateTestClient(t *testing.T, db *gorm.DB, orgID string) *models.Client {
	t.Helper()

	client := &models.Client{
		OrgID:    orgID,
		Name:     fmt.Sprintf("Test Client %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("failed to create test client: %v", err)
	}
	return client
}

// CreateTestContract creates an active contract with the given value (in cents).
func CreateTestContract(t *testing.T, db *gorm.DB, client *models.Client, value int64, count int, start time.Time) *models.Contract {
	t.Helper()

	contract := &models.Contract{
		OrgID:            client.OrgID,
		ClientID:         client.ID,
		Value:            value,
		InstallmentCount: count,
		StartDate:        start,
		IsActive:         true,
	}
	if err := db.Create(contract).Error; err != nil {
		t.Fatalf("failed to create test contract: %v", err)
	}
	return contract
}

// CreateTestInstallment creates a single installment row on the contract.
func CreateTestInstallment(t *testing.T, db *gorm.DB, contract *models.Contract, number int, amount int64, due time.Time, status models.InstallmentStatus) *models.Installment {
	t.Helper()

	inst := &models.Installment{
		OrgID:      contract.OrgID,
		ClientID:   contract.ClientID,
		ContractID: contract.ID,
		Number:     number,
		Amount:     amount,
		DueDate:    due,
		Status:     status,
	}
	if err := db.Create(inst).Error; err != nil {
		t.Fatalf("failed to create test installment: %v", err)
	}
	return inst
}

// CreateTestInvoice creates an invoice with a single item totalling amount.
func CreateTestInvoice(t *testing.T, db *gorm.DB, client *models.Client, status models.InvoiceStatus, amount int64, due time.Time) *models.Invoice {
	t.Helper()

	inv := &models.Invoice{
		OrgID:     client.OrgID,
		ClientID:  client.ID,
		Number:    fmt.Sprintf("INV-T%05d", nextID()),
		Status:    status,
		IssueDate: due.AddDate(0, 0, -14),
		DueDate:   due,
		Items: []models.InvoiceItem{
			{Description: "Services", Quantity: 1, UnitPrice: amount},
		},
	}
	inv.RecalculateTotals()
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("failed to create test invoice: %v", err)
	}
	return inv
}

// CreateTestTransaction creates a transaction in the organization.
func CreateTestTransaction(t *testing.T, db *gorm.DB, orgID string, txType models.TransactionType, subtype models.TransactionSubtype, status models.TransactionStatus, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		OrgID:    orgID,
		Type:     txType,
		Subtype:  subtype,
		Status:   status,
		Amount:   amount,
		Date:     date,
		Metadata: datatypes.NewJSONType(models.TransactionMetadata{}),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestClientIncome creates a CONFIRMED income attributed to the client.
func CreateTestClientIncome(t *testing.T, db *gorm.DB, client *models.Client, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	tx := CreateTestTransaction(t, db, client.OrgID, models.TransactionTypeIncome, models.TransactionSubtypeNone, models.TransactionStatusConfirmed, amount, date)
	if err := db.Model(tx).Update("client_id", client.ID).Error; err != nil {
		t.Fatalf("failed to attribute test income: %v", err)
	}
	tx.ClientID = &client.ID
	return tx
}

// CreateTestRecurringExpense creates an active recurring expense.
func CreateTestRecurringExpense(t *testing.T, db *gorm.DB, orgID string, amount int64, cycle models.BillingCycle, dayOfMonth *int) *models.RecurringExpense {
	t.Helper()

	exp := &models.RecurringExpense{
		OrgID:      orgID,
		Name:       fmt.Sprintf("Test Expense %d", nextID()),
		Category:   "operations",
		Amount:     amount,
		Cycle:      cycle,
		IsActive:   true,
		DayOfMonth: dayOfMonth,
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("failed to create test recurring expense: %v", err)
	}
	return exp
}

// Deactivate flips is_active to false. A zero bool is skipped by GORM on
// create because of the column default, so tests deactivate after creation.
func Deactivate(t *testing.T, db *gorm.DB, model interface{}) {
	t.Helper()

	if err := db.Model(model).Update("is_active", false).Error; err != nil {
		t.Fatalf("failed to deactivate %T: %v", model, err)
	}
}

// CreateTestCostItem creates a cost catalogue entry.
func CreateTestCostItem(t *testing.T, db *gorm.DB, orgID string) *models.CostItem {
	t.Helper()

	item := &models.CostItem{
		OrgID:    orgID,
		Name:     fmt.Sprintf("Test Cost Item %d", nextID()),
		Category: "tooling",
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test cost item: %v", err)
	}
	return item
}

// CreateTestCostSubscription attributes a monthly cost to the client.
func CreateTestCostSubscription(t *testing.T, db *gorm.DB, client *models.Client, amount int64, start time.Time, end *time.Time) *models.CostSubscription {
	t.Helper()

	item := CreateTestCostItem(t, db, client.OrgID)
	sub := &models.CostSubscription{
		OrgID:      client.OrgID,
		ClientID:   client.ID,
		CostItemID: item.ID,
		Amount:     amount,
		StartDate:  start,
		EndDate:    end,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create test cost subscription: %v", err)
	}
	return sub
}
