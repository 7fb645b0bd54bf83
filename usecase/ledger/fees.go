package ledger

import (
	"context"
	"errors"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/shopspring/decimal"
)

const feePrecision = 4

var hundred = decimal.NewFromInt(100)

// QuoteFees prices one transfer under rule. A zero min or max bound leaves that side unclamped.
func QuoteFees(amount decimal.Decimal, rule model.FeeRule, vatRate decimal.Decimal) (fees, vat decimal.Decimal) {
	switch rule.FeeType {
	case consts.FeeTypeFixed:
		fees = rule.FixedValue
	case consts.FeeTypePercentage:
		fees = amount.Mul(rule.PercentageValue).Div(hundred)
	case consts.FeeTypeMixed:
		fees = amount.Mul(rule.PercentageValue).Div(hundred).Add(rule.FixedValue)
	default:
		fees = decimal.Zero
	}

	if rule.MinValue.IsPositive() && fees.LessThan(rule.MinValue) {
		fees = rule.MinValue
	}
	if rule.MaxValue.IsPositive() && fees.GreaterThan(rule.MaxValue) {
		fees = rule.MaxValue
	}

	fees = fees.Round(feePrecision)
	vat = fees.Mul(vatRate).Round(feePrecision)
	return fees, vat
}

// Fits reports whether q can be taken from budget on top of what is already reserved.
// reservedAmount counts toward the spend cap, reservedCost (amount + fees + vat) toward the balance.
func Fits(budget model.Budget, reservedAmount, reservedCost decimal.Decimal, q entity.FeeQuote) bool {
	if budget.DisbursedAmount.Add(reservedAmount).Add(q.Amount).GreaterThan(budget.MaxAmount) {
		return false
	}
	return !budget.CurrentBalance.Sub(reservedCost).Sub(q.Total).IsNegative()
}

func (u *ledgerUsecase) Quote(ctx context.Context, operatorID int64, amount decimal.Decimal, issuer string) (entity.FeeQuote, error) {
	budget, err := u.dao.GetBudgetByOperatorID(operatorID)
	if err != nil {
		return entity.FeeQuote{}, err
	}
	return u.quote(budget, amount, issuer)
}

func (u *ledgerUsecase) quote(budget model.Budget, amount decimal.Decimal, issuer string) (entity.FeeQuote, error) {
	if !amount.IsPositive() {
		return entity.FeeQuote{}, entity.NewValidationError("amount", "amount must be positive")
	}

	rule, err := u.dao.GetFeeRule(budget.OperatorID, issuer)
	if errors.Is(err, entity.ErrNotFound) {
		log.Warnf("[Ledger] operator_id:%d has no fee rule for issuer:%s, quoting without fees", budget.OperatorID, issuer)
		rule = model.FeeRule{}
	} else if err != nil {
		return entity.FeeQuote{}, err
	}

	fees, vat := QuoteFees(amount, rule, budget.VATRate)
	return entity.FeeQuote{
		Amount: amount,
		Issuer: issuer,
		Fees:   fees,
		VAT:    vat,
		Total:  amount.Add(fees).Add(vat),
	}, nil
}

func (u *ledgerUsecase) WithinThreshold(ctx context.Context, operatorID int64, amount decimal.Decimal, issuer string) (bool, error) {
	budget, err := u.dao.GetBudgetByOperatorID(operatorID)
	if err != nil {
		return false, err
	}
	q, err := u.quote(budget, amount, issuer)
	if err != nil {
		return false, err
	}
	return Fits(budget, decimal.Zero, decimal.Zero, q), nil
}
