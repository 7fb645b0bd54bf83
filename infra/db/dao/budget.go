package dao

import (
	"fmt"

	"github.com/radhian/payout-disbursement/infra/db/model"
)

func (d *dao) CreateBudget(budget *model.Budget) error {
	if err := d.db.Create(budget).Error; err != nil {
		return fmt.Errorf("failed to save budget: %w", err)
	}
	return nil
}

func (d *dao) GetBudgetByOperatorID(operatorID int64) (model.Budget, error) {
	var budget model.Budget
	if err := d.db.Where("operator_id = ?", operatorID).First(&budget).Error; err != nil {
		return budget, notFound(err, "budget of operator", operatorID)
	}
	return budget, nil
}

// UpdateBudget runs mutate against the row locked with SELECT ... FOR UPDATE and saves the result in
// the same database transaction. A mutate error rolls everything back and is returned as is.
func (d *dao) UpdateBudget(operatorID int64, mutate func(budget *model.Budget) error) (model.Budget, error) {
	var budget model.Budget

	tx := d.db.Begin()
	if tx.Error != nil {
		return budget, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := tx.Set("gorm:query_option", "FOR UPDATE").
		Where("operator_id = ?", operatorID).
		First(&budget).Error; err != nil {
		tx.Rollback()
		return budget, notFound(err, "budget of operator", operatorID)
	}

	if err := mutate(&budget); err != nil {
		tx.Rollback()
		return budget, err
	}

	if err := tx.Save(&budget).Error; err != nil {
		tx.Rollback()
		return budget, fmt.Errorf("failed to update budget: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return budget, fmt.Errorf("failed to commit budget: %w", err)
	}
	return budget, nil
}

func (d *dao) CreateFeeRule(rule *model.FeeRule) error {
	if err := d.db.Create(rule).Error; err != nil {
		return fmt.Errorf("failed to save fee rule: %w", err)
	}
	return nil
}

// GetFeeRule returns the most recently configured rule of the issuer.
func (d *dao) GetFeeRule(operatorID int64, issuer string) (model.FeeRule, error) {
	var rule model.FeeRule
	if err := d.db.
		Where("operator_id = ? AND issuer = ?", operatorID, issuer).
		Order("id DESC").
		First(&rule).Error; err != nil {
		return rule, notFound(err, "fee rule for issuer", issuer)
	}
	return rule, nil
}
