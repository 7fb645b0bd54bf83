package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/shopspring/decimal"
)

func (u *ledgerUsecase) GetBudget(ctx context.Context, operatorID int64) (model.Budget, error) {
	return u.dao.GetBudgetByOperatorID(operatorID)
}

func (u *ledgerUsecase) OpenBudget(ctx context.Context, req entity.OpenBudgetRequest) (*model.Budget, error) {
	if req.OperatorID <= 0 {
		return nil, entity.NewValidationError("operator_id", "operator_id is required")
	}
	if req.InitialBalance.IsNegative() {
		return nil, entity.NewValidationError("initial_balance", "initial balance must not be negative")
	}
	if !req.MaxAmount.IsPositive() {
		return nil, entity.NewValidationError("max_amount", "max amount must be positive")
	}

	vatRate := u.defaultVATRate
	if req.VATRate != nil {
		if req.VATRate.IsNegative() || req.VATRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, entity.NewValidationError("vat_rate", "vat rate must be within [0, 1)")
		}
		vatRate = *req.VATRate
	}

	now := time.Now().Unix()
	budget := &model.Budget{
		OperatorID:      req.OperatorID,
		CurrentBalance:  req.InitialBalance,
		DisbursedAmount: decimal.Zero,
		MaxAmount:       req.MaxAmount,
		VATRate:         vatRate,
		CreateTime:      now,
		UpdateTime:      now,
		UpdateBy:        req.Operator,
	}
	if err := u.dao.CreateBudget(budget); err != nil {
		return nil, err
	}

	log.Infof("[Ledger] operator_id:%d budget opened balance:%s max:%s by:%s",
		req.OperatorID, req.InitialBalance.String(), req.MaxAmount.String(), req.Operator)
	return budget, nil
}

// TopUp adds amount to the operator's balance; the spend cap is left untouched.
func (u *ledgerUsecase) TopUp(ctx context.Context, operatorID int64, amount decimal.Decimal, operator string) (model.Budget, error) {
	if !amount.IsPositive() {
		return model.Budget{}, entity.NewValidationError("amount", "top up amount must be positive")
	}
	if strings.TrimSpace(operator) == "" {
		return model.Budget{}, entity.NewValidationError("operator", "operator must be specified")
	}

	var updated model.Budget
	err := u.locker.WithLock(ctx, ledgerKey(operatorID), func(ctx context.Context) error {
		var err error
		updated, err = u.dao.UpdateBudget(operatorID, func(budget *model.Budget) error {
			budget.CurrentBalance = budget.CurrentBalance.Add(amount.Round(2))
			budget.UpdateTime = time.Now().Unix()
			budget.UpdateBy = operator
			return nil
		})
		return err
	})
	if err != nil {
		return model.Budget{}, err
	}

	u.metrics.RecordLedgerEffect(consts.LedgerEffectTopUp)
	log.Infof("[Ledger] operator_id:%d topped up %s by %s, balance:%s",
		operatorID, amount.StringFixed(2), operator, updated.CurrentBalance.String())
	return updated, nil
}

func (u *ledgerUsecase) SetFeeRule(ctx context.Context, operatorID int64, req entity.FeeRuleRequest) (*model.FeeRule, error) {
	switch req.FeeType {
	case consts.FeeTypeFixed, consts.FeeTypePercentage, consts.FeeTypeMixed:
	default:
		return nil, entity.NewValidationError("fee_type", "fee type must be one of f, p, m")
	}
	if strings.TrimSpace(req.Issuer) == "" {
		return nil, entity.NewValidationError("issuer", "issuer is required")
	}
	for field, v := range map[string]decimal.Decimal{
		"fixed_value":      req.FixedValue,
		"percentage_value": req.PercentageValue,
		"min_value":        req.MinValue,
		"max_value":        req.MaxValue,
	} {
		if v.IsNegative() {
			return nil, entity.NewValidationError(field, "must not be negative")
		}
	}
	if req.MaxValue.IsPositive() && req.MinValue.GreaterThan(req.MaxValue) {
		return nil, entity.NewValidationError("min_value", "min value exceeds max value")
	}

	if _, err := u.dao.GetBudgetByOperatorID(operatorID); err != nil {
		return nil, err
	}

	rule := &model.FeeRule{
		OperatorID:      operatorID,
		Issuer:          req.Issuer,
		FeeType:         req.FeeType,
		FixedValue:      req.FixedValue,
		PercentageValue: req.PercentageValue,
		MinValue:        req.MinValue,
		MaxValue:        req.MaxValue,
	}
	if err := u.dao.CreateFeeRule(rule); err != nil {
		return nil, err
	}
	return rule, nil
}
