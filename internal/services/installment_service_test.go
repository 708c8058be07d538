package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agencyledger/internal/models"
	"agencyledger/internal/testutil"
)

func sumAmounts(installments []models.Installment) int64 {
	var total int64
	for _, inst := range installments {
		total += inst.Amount
	}
	return total
}

func TestPlanInstallments(t *testing.T) {
	t.Run("exact_sum_conservation", func(t *testing.T) {
		start := testutil.Date(2024, time.January, 15)
		for _, value := range []int64{1, 100, 99999, 100000, 123457, 1000001} {
			for _, n := range []int{1, 3, 7, 12} {
				plan, err := PlanInstallments(value, n, start)
				require.NoError(t, err)
				require.Len(t, plan, n)
				assert.Equal(t, value, sumAmounts(plan), "value=%d n=%d", value, n)
			}
		}
	})

	t.Run("last_absorbs_remainder", func(t *testing.T) {
		plan, err := PlanInstallments(100000, 3, testutil.Date(2024, time.January, 15))
		require.NoError(t, err)

		assert.Equal(t, int64(33333), plan[0].Amount)
		assert.Equal(t, int64(33333), plan[1].Amount)
		assert.Equal(t, int64(33334), plan[2].Amount)
		for i, inst := range plan {
			assert.Equal(t, i+1, inst.Number)
			assert.Equal(t, models.InstallmentStatusPending, inst.Status)
		}
	})

	t.Run("due_dates_clamp_to_month_end", func(t *testing.T) {
		plan, err := PlanInstallments(40000, 4, testutil.Date(2024, time.January, 31))
		require.NoError(t, err)

		want := []time.Time{
			testutil.Date(2024, time.January, 31),
			testutil.Date(2024, time.February, 29),
			testutil.Date(2024, time.March, 31),
			testutil.Date(2024, time.April, 30),
		}
		for i, inst := range plan {
			assert.True(t, want[i].Equal(inst.DueDate), "installment %d: want %s got %s", i+1, want[i], inst.DueDate)
		}
	})

	t.Run("invalid_count", func(t *testing.T) {
		_, err := PlanInstallments(100000, 0, time.Now())
		testutil.AssertAppError(t, err, "INVALID_INSTALLMENT_COUNT")

		_, err = PlanInstallments(100000, -2, time.Now())
		testutil.AssertAppError(t, err, "INVALID_INSTALLMENT_COUNT")

		_, err = PlanInstallments(100000, MaxInstallments+1, time.Now())
		testutil.AssertAppError(t, err, "INVALID_INSTALLMENT_COUNT")

		plan, err := PlanInstallments(100000, MaxInstallments, time.Now())
		require.NoError(t, err)
		assert.Len(t, plan, MaxInstallments)
	})

	t.Run("invalid_value", func(t *testing.T) {
		_, err := PlanInstallments(0, 3, time.Now())
		testutil.AssertAppError(t, err, "INVALID_CONTRACT_VALUE")

		_, err = PlanInstallments(-100, 3, time.Now())
		testutil.AssertAppError(t, err, "INVALID_CONTRACT_VALUE")
	})
}

func TestScheduleInstallments(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (InstallmentServicer, *models.Contract, func()) {
		db := testutil.SetupTestDB(t)
		orgID := testutil.NewOrgID()
		client := testutil.CreateTestClient(t, db, orgID)
		contract := testutil.CreateTestContract(t, db, client, 0, 0, testutil.Date(2024, time.January, 31))
		return NewInstallmentService(db, NewActivityService(db)), contract, func() { testutil.TeardownTestDB(t, db) }
	}

	t.Run("creates_pending_schedule", func(t *testing.T) {
		svc, contract, done := setup(t)
		defer done()

		got, err := svc.ScheduleInstallments(ctx, contract.OrgID, contract.ID, ScheduleInput{
			ContractValue: 100000,
			Count:         3,
			StartDate:     testutil.Date(2024, time.January, 31),
		})
		testutil.AssertNoError(t, err)
		require.Len(t, got, 3)

		listed, err := svc.ListInstallments(ctx, contract.OrgID, contract.ID)
		testutil.AssertNoError(t, err)
		require.Len(t, listed, 3)
		assert.Equal(t, int64(100000), sumAmounts(listed))
		assert.Equal(t, []int{1, 2, 3}, []int{listed[0].Number, listed[1].Number, listed[2].Number})
		assert.True(t, testutil.Date(2024, time.February, 29).Equal(listed[1].DueDate))
		for _, inst := range listed {
			assert.Equal(t, models.InstallmentStatusPending, inst.Status)
			assert.Equal(t, contract.ClientID, inst.ClientID)
		}
	})

	t.Run("rejects_second_schedule", func(t *testing.T) {
		svc, contract, done := setup(t)
		defer done()

		in := ScheduleInput{ContractValue: 5000, Count: 2, StartDate: testutil.Date(2024, time.March, 1)}
		_, err := svc.ScheduleInstallments(ctx, contract.OrgID, contract.ID, in)
		testutil.AssertNoError(t, err)

		_, err = svc.ScheduleInstallments(ctx, contract.OrgID, contract.ID, in)
		testutil.AssertAppError(t, err, "SCHEDULE_EXISTS")
	})

	t.Run("validation_errors_do_not_touch_store", func(t *testing.T) {
		svc, contract, done := setup(t)
		defer done()

		_, err := svc.ScheduleInstallments(ctx, contract.OrgID, contract.ID, ScheduleInput{ContractValue: 5000, Count: 0})
		testutil.AssertAppError(t, err, "INVALID_INSTALLMENT_COUNT")

		listed, err := svc.ListInstallments(ctx, contract.OrgID, contract.ID)
		testutil.AssertNoError(t, err)
		assert.Empty(t, listed)
	})

	t.Run("other_org_cannot_schedule", func(t *testing.T) {
		svc, contract, done := setup(t)
		defer done()

		_, err := svc.ScheduleInstallments(ctx, testutil.NewOrgID(), contract.ID, ScheduleInput{ContractValue: 5000, Count: 1})
		testutil.AssertAppError(t, err, "CONTRACT_NOT_FOUND")
	})
}

func TestDeleteInstallmentSchedule(t *testing.T) {
	ctx := context.Background()

	t.Run("hard_deletes_and_allows_regeneration", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInstallmentService(db, nil)
		client := testutil.CreateTestClient(t, db, testutil.NewOrgID())
		contract := testutil.CreateTestContract(t, db, client, 90000, 3, testutil.Date(2024, time.May, 1))

		in := ScheduleInput{ContractValue: 90000, Count: 3, StartDate: testutil.Date(2024, time.May, 1)}
		_, err := svc.ScheduleInstallments(ctx, client.OrgID, contract.ID, in)
		testutil.AssertNoError(t, err)

		deleted, err := svc.DeleteInstallmentSchedule(ctx, client.OrgID, contract.ID)
		testutil.AssertNoError(t, err)
		assert.Equal(t, int64(3), deleted)

		var remaining int64
		require.NoError(t, db.Unscoped().Model(&models.Installment{}).Where("contract_id = ?", contract.ID).Count(&remaining).Error)
		assert.Zero(t, remaining)

		in.Count = 4
		regenerated, err := svc.ScheduleInstallments(ctx, client.OrgID, contract.ID, in)
		testutil.AssertNoError(t, err)
		assert.Len(t, regenerated, 4)
		assert.Equal(t, int64(90000), sumAmounts(regenerated))
	})

	t.Run("confirmed_installment_blocks_delete", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInstallmentService(db, nil)
		client := testutil.CreateTestClient(t, db, testutil.NewOrgID())
		contract := testutil.CreateTestContract(t, db, client, 20000, 2, testutil.Date(2024, time.May, 1))
		testutil.CreateTestInstallment(t, db, contract, 1, 10000, testutil.Date(2024, time.May, 1), models.InstallmentStatusConfirmed)
		testutil.CreateTestInstallment(t, db, contract, 2, 10000, testutil.Date(2024, time.June, 1), models.InstallmentStatusPending)

		_, err := svc.DeleteInstallmentSchedule(ctx, client.OrgID, contract.ID)
		testutil.AssertAppError(t, err, "SCHEDULE_HAS_PAYMENTS")

		listed, err := svc.ListInstallments(ctx, client.OrgID, contract.ID)
		testutil.AssertNoError(t, err)
		assert.Len(t, listed, 2)
	})
}
