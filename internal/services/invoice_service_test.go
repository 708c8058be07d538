package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"agencyledger/internal/clock"
	"agencyledger/internal/models"
	"agencyledger/internal/pagination"
	"agencyledger/internal/testutil"
)

func newInvoiceFixture(t *testing.T) (*gorm.DB, InvoiceServicer, *models.Client) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := NewInvoiceService(db, clock.At(2024, time.March, 15), NewActivityService(db))
	client := testutil.CreateTestClient(t, db, testutil.NewOrgID())
	return db, svc, client
}

func timePtr(t time.Time) *time.Time { return &t }

func TestCreateInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("total_is_sum_of_items", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)

		inv, err := svc.CreateInvoice(ctx, client.OrgID, CreateInvoiceInput{
			ClientID: client.ID,
			DueDate:  testutil.Date(2024, time.April, 1),
			Items: []InvoiceItemInput{
				{Description: "Design", Quantity: 2, UnitPrice: 15000},
				{Description: "Hosting", Quantity: 1, UnitPrice: 4999},
			},
		})
		testutil.AssertNoError(t, err)

		assert.Equal(t, models.InvoiceStatusDraft, inv.Status)
		assert.Equal(t, "INV-202403-0001", inv.Number)
		assert.Equal(t, int64(34999), inv.Total)

		got, err := svc.GetInvoice(ctx, client.OrgID, inv.ID)
		testutil.AssertNoError(t, err)
		var sum int64
		for _, it := range got.Items {
			sum += it.Total
		}
		assert.Equal(t, got.Total, sum)
		assert.Len(t, got.Items, 2)
	})

	t.Run("taken_number_moves_to_next", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)

		taken := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusDraft, 1000, testutil.Date(2024, time.April, 1))
		require.NoError(t, db.Model(taken).Update("number", "INV-202403-0002").Error)

		inv, err := svc.CreateInvoice(ctx, client.OrgID, CreateInvoiceInput{
			ClientID: client.ID,
			DueDate:  testutil.Date(2024, time.April, 1),
			Items:    []InvoiceItemInput{{Description: "Retainer", Quantity: 1, UnitPrice: 20000}},
		})
		testutil.AssertNoError(t, err)
		assert.Equal(t, "INV-202403-0003", inv.Number)

		got, err := svc.GetInvoice(ctx, client.OrgID, inv.ID)
		testutil.AssertNoError(t, err)
		assert.Len(t, got.Items, 1)
	})

	t.Run("no_free_number", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)

		// Five invoices hold numbers 0006-0010, every number tried next.
		for seq := 6; seq <= 10; seq++ {
			inv := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusDraft, 1000, testutil.Date(2024, time.April, 1))
			require.NoError(t, db.Model(inv).Update("number", fmt.Sprintf("INV-202403-%04d", seq)).Error)
		}

		_, err := svc.CreateInvoice(ctx, client.OrgID, CreateInvoiceInput{
			ClientID: client.ID,
			DueDate:  testutil.Date(2024, time.April, 1),
			Items:    []InvoiceItemInput{{Description: "Retainer", Quantity: 1, UnitPrice: 20000}},
		})
		testutil.AssertAppError(t, err, "STORE_ERROR")

		var count int64
		require.NoError(t, db.Model(&models.Invoice{}).Where("client_id = ?", client.ID).Count(&count).Error)
		assert.Equal(t, int64(5), count)
	})

	t.Run("validation", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)
		due := testutil.Date(2024, time.April, 1)

		_, err := svc.CreateInvoice(ctx, client.OrgID, CreateInvoiceInput{ClientID: client.ID, DueDate: due})
		testutil.AssertAppError(t, err, "INVOICE_ITEMS_REQUIRED")

		_, err = svc.CreateInvoice(ctx, client.OrgID, CreateInvoiceInput{
			ClientID: client.ID,
			DueDate:  due,
			Items:    []InvoiceItemInput{{Description: "x", Quantity: 0, UnitPrice: 100}},
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateInvoice(ctx, client.OrgID, CreateInvoiceInput{
			ClientID: client.ID,
			DueDate:  testutil.Date(2024, time.January, 1),
			Items:    []InvoiceItemInput{{Description: "x", Quantity: 1, UnitPrice: 100}},
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateInvoice(ctx, testutil.NewOrgID(), CreateInvoiceInput{
			ClientID: client.ID,
			DueDate:  due,
			Items:    []InvoiceItemInput{{Description: "x", Quantity: 1, UnitPrice: 100}},
		})
		testutil.AssertAppError(t, err, "CLIENT_NOT_FOUND")
	})
}

func TestIssueInvoice(t *testing.T) {
	ctx := context.Background()
	db, svc, client := newInvoiceFixture(t)
	defer testutil.TeardownTestDB(t, db)
	draft := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusDraft, 1000, testutil.Date(2024, time.April, 1))

	issued, err := svc.IssueInvoice(ctx, client.OrgID, draft.ID)
	testutil.AssertNoError(t, err)
	assert.Equal(t, models.InvoiceStatusOpen, issued.Status)

	_, err = svc.IssueInvoice(ctx, client.OrgID, draft.ID)
	testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")

	_, err = svc.IssueInvoice(ctx, client.OrgID, "00000000-0000-0000-0000-000000000000")
	testutil.AssertAppError(t, err, "INVOICE_NOT_FOUND")
}

func TestApprovePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("open_invoice_becomes_paid", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)
		contract := testutil.CreateTestContract(t, db, client, 2000, 1, testutil.Date(2024, time.March, 1))
		inst := testutil.CreateTestInstallment(t, db, contract, 1, 2000, testutil.Date(2024, time.March, 1), models.InstallmentStatusPending)
		inv := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOpen, 2000, testutil.Date(2024, time.March, 20))
		require.NoError(t, db.Model(inst).Update("invoice_id", inv.ID).Error)

		paidAt := testutil.Date(2024, time.March, 10)
		got, err := svc.ApprovePayment(ctx, client.OrgID, inv.ID, &paidAt)
		testutil.AssertNoError(t, err)

		assert.Equal(t, models.InvoiceStatusPaid, got.Status)
		require.NotNil(t, got.PaidAt)
		assert.True(t, paidAt.Equal(*got.PaidAt))

		var payments []models.Payment
		require.NoError(t, db.Where("invoice_id = ?", inv.ID).Find(&payments).Error)
		require.Len(t, payments, 1)
		assert.Equal(t, models.PaymentStatusPaid, payments[0].Status)
		assert.Equal(t, int64(2000), payments[0].Amount)

		var reloaded models.Installment
		require.NoError(t, db.First(&reloaded, "id = ?", inst.ID).Error)
		assert.Equal(t, models.InstallmentStatusConfirmed, reloaded.Status)

		var income models.Transaction
		require.NoError(t, db.Where("subtype = ?", models.TransactionSubtypeInvoicePayment).First(&income).Error)
		assert.Equal(t, models.TransactionTypeIncome, income.Type)
		assert.Equal(t, models.TransactionStatusConfirmed, income.Status)
		assert.Equal(t, int64(2000), income.Amount)
		require.NotNil(t, income.ClientID)
		assert.Equal(t, client.ID, *income.ClientID)
	})

	t.Run("overdue_invoice_defaults_to_now", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)
		inv := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOverdue, 500, testutil.Date(2024, time.February, 1))

		got, err := svc.ApprovePayment(ctx, client.OrgID, inv.ID, nil)
		testutil.AssertNoError(t, err)
		assert.Equal(t, models.InvoiceStatusPaid, got.Status)
		assert.True(t, time.Time(clock.At(2024, time.March, 15)).Equal(*got.PaidAt))
	})

	t.Run("terminal_and_draft_invoices_conflict", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)

		for _, status := range []models.InvoiceStatus{models.InvoiceStatusPaid, models.InvoiceStatusCancelled, models.InvoiceStatusDraft} {
			inv := testutil.CreateTestInvoice(t, db, client, status, 500, testutil.Date(2024, time.March, 1))
			_, err := svc.ApprovePayment(ctx, client.OrgID, inv.ID, nil)
			testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")
		}

		var payments int64
		require.NoError(t, db.Model(&models.Payment{}).Count(&payments).Error)
		assert.Zero(t, payments)
	})

	t.Run("future_payment_date", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)
		inv := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOpen, 500, testutil.Date(2024, time.March, 30))

		_, err := svc.ApprovePayment(ctx, client.OrgID, inv.ID, timePtr(testutil.Date(2024, time.March, 16)))
		testutil.AssertAppError(t, err, "INVALID_PAYMENT_DATE")
	})

	t.Run("approve_twice_conflicts", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)
		inv := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOpen, 500, testutil.Date(2024, time.March, 30))

		_, err := svc.ApprovePayment(ctx, client.OrgID, inv.ID, nil)
		testutil.AssertNoError(t, err)
		_, err = svc.ApprovePayment(ctx, client.OrgID, inv.ID, nil)
		testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")

		var incomes int64
		require.NoError(t, db.Model(&models.Transaction{}).Where("subtype = ?", models.TransactionSubtypeInvoicePayment).Count(&incomes).Error)
		assert.Equal(t, int64(1), incomes)
	})
}

func TestCancelInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("open_invoice_is_cancelled", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)
		inv := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOpen, 500, testutil.Date(2024, time.March, 30))

		got, err := svc.CancelInvoice(ctx, client.OrgID, inv.ID, "  duplicate  ")
		testutil.AssertNoError(t, err)
		assert.Equal(t, models.InvoiceStatusCancelled, got.Status)
		assert.Equal(t, "duplicate", got.CancelReason)
		require.NotNil(t, got.CancelledAt)

		_, err = svc.ApprovePayment(ctx, client.OrgID, inv.ID, nil)
		testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")
	})

	t.Run("reason_required", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)
		inv := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOpen, 500, testutil.Date(2024, time.March, 30))

		_, err := svc.CancelInvoice(ctx, client.OrgID, inv.ID, "   ")
		testutil.AssertAppError(t, err, "CANCEL_REASON_REQUIRED")
	})

	t.Run("paid_invoice_conflicts", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)
		inv := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOpen, 500, testutil.Date(2024, time.March, 30))
		_, err := svc.ApprovePayment(ctx, client.OrgID, inv.ID, nil)
		testutil.AssertNoError(t, err)

		_, err = svc.CancelInvoice(ctx, client.OrgID, inv.ID, "changed my mind")
		testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")
	})

	t.Run("recorded_paid_payment_conflicts", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)
		inv := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOverdue, 500, testutil.Date(2024, time.March, 1))
		paidAt := testutil.Date(2024, time.March, 2)
		require.NoError(t, db.Create(&models.Payment{InvoiceID: inv.ID, Amount: 200, Status: models.PaymentStatusPaid, PaidAt: &paidAt}).Error)

		_, err := svc.CancelInvoice(ctx, client.OrgID, inv.ID, "client disputes")
		testutil.AssertAppError(t, err, "INVOICE_HAS_PAYMENTS")
	})

	t.Run("draft_cannot_be_cancelled", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)
		inv := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusDraft, 500, testutil.Date(2024, time.March, 30))

		_, err := svc.CancelInvoice(ctx, client.OrgID, inv.ID, "not needed")
		testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")
	})
}

func TestDeleteInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("without_payments", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)
		inv := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOpen, 500, testutil.Date(2024, time.March, 30))

		testutil.AssertNoError(t, svc.DeleteInvoice(ctx, client.OrgID, inv.ID))

		_, err := svc.GetInvoice(ctx, client.OrgID, inv.ID)
		testutil.AssertAppError(t, err, "INVOICE_NOT_FOUND")
	})

	t.Run("with_payment_conflicts", func(t *testing.T) {
		db, svc, client := newInvoiceFixture(t)
		defer testutil.TeardownTestDB(t, db)
		inv := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOpen, 500, testutil.Date(2024, time.March, 30))
		require.NoError(t, db.Create(&models.Payment{InvoiceID: inv.ID, Amount: 100, Status: models.PaymentStatusPending}).Error)

		err := svc.DeleteInvoice(ctx, client.OrgID, inv.ID)
		testutil.AssertAppError(t, err, "INVOICE_HAS_PAYMENTS")
	})
}

func TestListInvoices(t *testing.T) {
	ctx := context.Background()
	db, svc, client := newInvoiceFixture(t)
	defer testutil.TeardownTestDB(t, db)
	testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOpen, 100, testutil.Date(2024, time.March, 1))
	testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOpen, 200, testutil.Date(2024, time.March, 2))
	testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusPaid, 300, testutil.Date(2024, time.March, 3))

	open := models.InvoiceStatusOpen
	page, err := svc.ListInvoices(ctx, client.OrgID, pagination.PageRequest{Page: 1, PageSize: 1}, InvoiceFilter{Status: &open})
	testutil.AssertNoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, int64(200), page.Data[0].Total)

	all, err := svc.ListInvoices(ctx, client.OrgID, pagination.PageRequest{}, InvoiceFilter{})
	testutil.AssertNoError(t, err)
	assert.Equal(t, int64(3), all.TotalItems)
}

func TestGenerateMonthlyInvoices(t *testing.T) {
	ctx := context.Background()

	t.Run("partial_failure_keeps_unaffected_clients", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvoiceService(db, clock.At(2024, time.March, 15), nil)
		orgID := testutil.NewOrgID()

		var healthy []*models.Client
		for i := 0; i < 4; i++ {
			client := testutil.CreateTestClient(t, db, orgID)
			contract := testutil.CreateTestContract(t, db, client, 30000, 3, testutil.Date(2024, time.January, 10))
			testutil.CreateTestInstallment(t, db, contract, 1, 10000, testutil.Date(2024, time.January, 10), models.InstallmentStatusConfirmed)
			testutil.CreateTestInstallment(t, db, contract, 2, 10000, testutil.Date(2024, time.February, 10), models.InstallmentStatusLate)
			testutil.CreateTestInstallment(t, db, contract, 3, 10000+int64(i), testutil.Date(2024, time.March, 10), models.InstallmentStatusPending)
			healthy = append(healthy, client)
		}
		broken := testutil.CreateTestClient(t, db, orgID)
		brokenContract := testutil.CreateTestContract(t, db, broken, 1000, 1, testutil.Date(2024, time.March, 5))
		testutil.CreateTestInstallment(t, db, brokenContract, 1, -1000, testutil.Date(2024, time.March, 5), models.InstallmentStatusPending)

		report, err := svc.GenerateMonthlyInvoices(ctx, orgID, "2024-03")
		testutil.AssertNoError(t, err)

		assert.Equal(t, 5, report.SuccessCount+report.BlockedCount+report.ErrorCount)
		assert.Equal(t, 4, report.SuccessCount)
		assert.Equal(t, 0, report.BlockedCount)
		require.Equal(t, 1, report.ErrorCount)
		assert.Equal(t, broken.ID, report.Errors[0].ID)
		assert.Equal(t, "INVALID_INPUT", report.Errors[0].Code)

		for i, client := range healthy {
			var invoices []models.Invoice
			require.NoError(t, db.Preload("Items").Where("client_id = ?", client.ID).Find(&invoices).Error)
			require.Len(t, invoices, 1)
			inv := invoices[0]
			assert.Equal(t, models.InvoiceStatusOpen, inv.Status)
			require.NotNil(t, inv.Period)
			assert.Equal(t, "2024-03", *inv.Period)
			require.Len(t, inv.Items, 1)
			assert.Equal(t, 10000+int64(i), inv.Total)

			var sum int64
			for _, it := range inv.Items {
				sum += it.Total
			}
			assert.Equal(t, inv.Total, sum)
		}

		var brokenInvoices int64
		require.NoError(t, db.Model(&models.Invoice{}).Where("client_id = ?", broken.ID).Count(&brokenInvoices).Error)
		assert.Zero(t, brokenInvoices)
	})

	t.Run("existing_invoice_and_nothing_due_are_blocked", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvoiceService(db, clock.At(2024, time.March, 15), nil)
		orgID := testutil.NewOrgID()

		billed := testutil.CreateTestClient(t, db, orgID)
		contract := testutil.CreateTestContract(t, db, billed, 5000, 1, testutil.Date(2024, time.March, 20))
		testutil.CreateTestInstallment(t, db, contract, 1, 5000, testutil.Date(2024, time.March, 20), models.InstallmentStatusPending)
		idle := testutil.CreateTestClient(t, db, orgID)
		inactive := testutil.CreateTestClient(t, db, orgID)
		testutil.Deactivate(t, db, inactive)

		first, err := svc.GenerateMonthlyInvoices(ctx, orgID, "2024-03")
		testutil.AssertNoError(t, err)
		assert.Equal(t, 1, first.SuccessCount)
		require.Equal(t, 1, first.BlockedCount)
		assert.Equal(t, idle.ID, first.Blocked[0].ID)
		assert.Equal(t, "NOTHING_TO_BILL", first.Blocked[0].Code)
		assert.Contains(t, first.Blocked[0].Reason, idle.Name)

		second, err := svc.GenerateMonthlyInvoices(ctx, orgID, "2024-03")
		testutil.AssertNoError(t, err)
		assert.Equal(t, 0, second.SuccessCount)
		assert.Equal(t, 2, second.BlockedCount)
		assert.Equal(t, 0, second.ErrorCount)
		codes := []string{second.Blocked[0].Code, second.Blocked[1].Code}
		assert.ElementsMatch(t, []string{"INVOICE_EXISTS_FOR_PERIOD", "NOTHING_TO_BILL"}, codes)

		var count int64
		require.NoError(t, db.Model(&models.Invoice{}).Where("client_id = ?", billed.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("deleted_invoice_releases_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvoiceService(db, clock.At(2024, time.March, 15), nil)
		orgID := testutil.NewOrgID()
		client := testutil.CreateTestClient(t, db, orgID)
		contract := testutil.CreateTestContract(t, db, client, 5000, 1, testutil.Date(2024, time.March, 20))
		testutil.CreateTestInstallment(t, db, contract, 1, 5000, testutil.Date(2024, time.March, 20), models.InstallmentStatusPending)

		first, err := svc.GenerateMonthlyInvoices(ctx, orgID, "2024-03")
		testutil.AssertNoError(t, err)
		require.Len(t, first.Success, 1)
		testutil.AssertNoError(t, svc.DeleteInvoice(ctx, orgID, first.Success[0].InvoiceID))

		again, err := svc.GenerateMonthlyInvoices(ctx, orgID, "2024-03")
		testutil.AssertNoError(t, err)
		assert.Equal(t, 1, again.SuccessCount)
		assert.NotEqual(t, first.Success[0].Number, again.Success[0].Number)
	})

	t.Run("taken_number_is_skipped_not_blocked", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvoiceService(db, clock.At(2024, time.March, 15), nil)
		orgID := testutil.NewOrgID()

		client := testutil.CreateTestClient(t, db, orgID)
		contract := testutil.CreateTestContract(t, db, client, 5000, 1, testutil.Date(2024, time.March, 20))
		testutil.CreateTestInstallment(t, db, contract, 1, 5000, testutil.Date(2024, time.March, 20), models.InstallmentStatusPending)

		// Another writer already holds the number this run would pick first.
		other := testutil.CreateTestClient(t, db, orgID)
		testutil.Deactivate(t, db, other)
		taken := testutil.CreateTestInvoice(t, db, other, models.InvoiceStatusOpen, 1000, testutil.Date(2024, time.March, 1))
		require.NoError(t, db.Model(taken).Update("number", "INV-202403-0002").Error)

		report, err := svc.GenerateMonthlyInvoices(ctx, orgID, "2024-03")
		testutil.AssertNoError(t, err)
		assert.Equal(t, 0, report.BlockedCount)
		assert.Equal(t, 0, report.ErrorCount)
		require.Equal(t, 1, report.SuccessCount)
		assert.Equal(t, client.ID, report.Success[0].ClientID)
		assert.Equal(t, "INV-202403-0003", report.Success[0].Number)

		var count int64
		require.NoError(t, db.Model(&models.Invoice{}).
			Where("client_id = ? AND period = ?", client.ID, "2024-03").
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("invalid_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvoiceService(db, clock.At(2024, time.March, 15), nil)

		_, err := svc.GenerateMonthlyInvoices(ctx, testutil.NewOrgID(), "2024-13")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestReclassifyOverdue(t *testing.T) {
	ctx := context.Background()
	db, svc, client := newInvoiceFixture(t)
	defer testutil.TeardownTestDB(t, db)

	late := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOpen, 100, testutil.Date(2024, time.March, 1))
	current := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusOpen, 100, testutil.Date(2024, time.March, 31))
	draft := testutil.CreateTestInvoice(t, db, client, models.InvoiceStatusDraft, 100, testutil.Date(2024, time.February, 1))
	contract := testutil.CreateTestContract(t, db, client, 200, 2, testutil.Date(2024, time.March, 1))
	pastInst := testutil.CreateTestInstallment(t, db, contract, 1, 100, testutil.Date(2024, time.March, 1), models.InstallmentStatusPending)
	testutil.CreateTestInstallment(t, db, contract, 2, 100, testutil.Date(2024, time.April, 1), models.InstallmentStatusPending)

	result, err := svc.ReclassifyOverdue(ctx, client.OrgID)
	testutil.AssertNoError(t, err)
	assert.Equal(t, int64(1), result.InvoicesMarkedOverdue)
	assert.Equal(t, int64(1), result.InstallmentsMarkedLate)

	statusOf := func(id string) models.InvoiceStatus {
		var inv models.Invoice
		require.NoError(t, db.First(&inv, "id = ?", id).Error)
		return inv.Status
	}
	assert.Equal(t, models.InvoiceStatusOverdue, statusOf(late.ID))
	assert.Equal(t, models.InvoiceStatusOpen, statusOf(current.ID))
	assert.Equal(t, models.InvoiceStatusDraft, statusOf(draft.ID))

	var inst models.Installment
	require.NoError(t, db.First(&inst, "id = ?", pastInst.ID).Error)
	assert.Equal(t, models.InstallmentStatusLate, inst.Status)

	again, err := svc.ReclassifyOverdue(ctx, client.OrgID)
	testutil.AssertNoError(t, err)
	assert.Zero(t, again.InvoicesMarkedOverdue)
}
