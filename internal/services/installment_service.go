package services

import (
	"context"
	"errors"
	"time"

	apperrors "agencyledger/internal/errors"
	"agencyledger/internal/models"
	"agencyledger/internal/money"
	"agencyledger/internal/period"

	"gorm.io/gorm"
)

// installmentService splits contract values into dated installments.
type installmentService struct {
	db       *gorm.DB
	activity ActivityServicer
}

// NewInstallmentService creates a new InstallmentServicer.
func NewInstallmentService(db *gorm.DB, activity ActivityServicer) InstallmentServicer {
	return &installmentService{db: db, activity: activityOrNop(activity)}
}

// MaxInstallments caps a schedule at ten years of monthly installments.
const MaxInstallments = 120

// PlanInstallments computes the installment amounts and due dates for a
// contract without touching the store. Amounts sum to contractValue exactly;
// installment i falls due i-1 months after startDate.
func PlanInstallments(contractValue int64, count int, startDate time.Time) ([]models.Installment, error) {
	if count < 1 || count > MaxInstallments {
		return nil, apperrors.ErrInvalidInstallmentCount
	}
	amounts, err := money.Split(contractValue, count)
	if err != nil {
		if errors.Is(err, money.ErrInvalidParts) {
			return nil, apperrors.ErrInvalidInstallmentCount
		}
		return nil, apperrors.ErrInvalidContractValue
	}

	installments := make([]models.Installment, count)
	for i, amount := range amounts {
		installments[i] = models.Installment{
			Number:  i + 1,
			Amount:  amount,
			DueDate: period.AddMonths(startDate, i),
			Status:  models.InstallmentStatusPending,
		}
	}
	return installments, nil
}

func (s *installmentService) getContract(ctx context.Context, db *gorm.DB, orgID, contractID string) (*models.Contract, error) {
	var contract models.Contract
	if err := db.WithContext(ctx).Where("id = ? AND org_id = ?", contractID, orgID).First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrContractNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return &contract, nil
}

// ScheduleInstallments bulk-creates the PENDING installments of a contract
// and records the scheduled value and count on the contract.
func (s *installmentService) ScheduleInstallments(ctx context.Context, orgID, contractID string, in ScheduleInput) ([]models.Installment, error) {
	installments, err := PlanInstallments(in.ContractValue, in.Count, in.StartDate)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.getContract(ctx, tx, orgID, contractID)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Installment{}).Where("contract_id = ?", contract.ID).Count(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		if existing > 0 {
			return apperrors.ErrScheduleExists
		}

		for i := range installments {
			installments[i].OrgID = contract.OrgID
			installments[i].ClientID = contract.ClientID
			installments[i].ContractID = contract.ID
		}
		if err := tx.Create(&installments).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}

		if err := tx.Model(contract).Updates(map[string]any{
			"value":             in.ContractValue,
			"installment_count": in.Count,
			"start_date":        in.StartDate,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, orgID, "schedule", "contract", contractID, map[string]any{
		"value": in.ContractValue,
		"count": in.Count,
	})
	return installments, nil
}

// ListInstallments returns a contract's installments ordered by number.
func (s *installmentService) ListInstallments(ctx context.Context, orgID, contractID string) ([]models.Installment, error) {
	if _, err := s.getContract(ctx, s.db, orgID, contractID); err != nil {
		return nil, err
	}

	var installments []models.Installment
	if err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("number ASC").
		Find(&installments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return installments, nil
}

// DeleteInstallmentSchedule permanently removes every installment of the
// contract so the schedule can be regenerated. Schedules with confirmed
// payments cannot be removed.
func (s *installmentService) DeleteInstallmentSchedule(ctx context.Context, orgID, contractID string) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err := s.getContract(ctx, tx, orgID, contractID)
		if err != nil {
			return err
		}

		var confirmed int64
		if err := tx.Model(&models.Installment{}).
			Where("contract_id = ? AND status = ?", contract.ID, models.InstallmentStatusConfirmed).
			Count(&confirmed).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrStore, err)
		}
		if confirmed > 0 {
			return apperrors.ErrScheduleHasPayments
		}

		res := tx.Unscoped().Where("contract_id = ?", contract.ID).Delete(&models.Installment{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrStore, res.Error)
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.activity.Log(ctx, orgID, "delete_schedule", "contract", contractID, map[string]any{"deleted": deleted})
	return deleted, nil
}
