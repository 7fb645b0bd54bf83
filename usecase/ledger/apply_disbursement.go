package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/shopspring/decimal"
)

func ledgerKey(operatorID int64) string {
	return fmt.Sprintf("ledger:%d", operatorID)
}

// ApplyDisbursement is the operator's single check-and-debit unit: the threshold is evaluated against
// the locked budget row and the debit is written in the same database transaction.
func (u *ledgerUsecase) ApplyDisbursement(ctx context.Context, operatorID int64, amount decimal.Decimal, issuer string) (entity.LedgerEntry, error) {
	var entry entity.LedgerEntry

	err := u.locker.WithLock(ctx, ledgerKey(operatorID), func(ctx context.Context) error {
		_, err := u.dao.UpdateBudget(operatorID, func(budget *model.Budget) error {
			q, err := u.quote(*budget, amount, issuer)
			if err != nil {
				return err
			}
			if !Fits(*budget, decimal.Zero, decimal.Zero, q) {
				return &entity.InsufficientBudgetError{
					OperatorID: operatorID,
					Amount:     amount,
					Fees:       q.Fees,
					VAT:        q.VAT,
					Balance:    budget.CurrentBalance,
				}
			}

			entry = entity.LedgerEntry{
				Amount:        amount,
				Fees:          q.Fees,
				VAT:           q.VAT,
				BalanceBefore: budget.CurrentBalance,
				BalanceAfter:  budget.CurrentBalance.Sub(q.Total),
			}
			budget.DisbursedAmount = budget.DisbursedAmount.Add(amount)
			budget.CurrentBalance = entry.BalanceAfter
			budget.UpdateTime = time.Now().Unix()
			budget.UpdateBy = consts.SystemUser
			return nil
		})
		return err
	})
	if err != nil {
		if entity.IsInsufficientBudget(err) {
			u.metrics.RecordLedgerEffect(consts.LedgerEffectRefused)
			log.Warnf("[Ledger] operator_id:%d refused: %v", operatorID, err)
		}
		return entity.LedgerEntry{}, err
	}

	u.metrics.RecordLedgerEffect(consts.LedgerEffectDebit)
	log.Infof("[Ledger] operator_id:%d debited amount:%s fees:%s vat:%s balance:%s -> %s",
		operatorID, amount.StringFixed(2), entry.Fees.String(), entry.VAT.String(),
		entry.BalanceBefore.String(), entry.BalanceAfter.String())
	return entry, nil
}

// ReverseForCancelledOrReturned gives back exactly what entry took. The caller guarantees it runs at
// most once per transaction.
func (u *ledgerUsecase) ReverseForCancelledOrReturned(ctx context.Context, operatorID int64, entry entity.LedgerEntry) error {
	credit := entry.Amount.Add(entry.Fees).Add(entry.VAT)

	err := u.locker.WithLock(ctx, ledgerKey(operatorID), func(ctx context.Context) error {
		_, err := u.dao.UpdateBudget(operatorID, func(budget *model.Budget) error {
			budget.DisbursedAmount = budget.DisbursedAmount.Sub(entry.Amount)
			budget.CurrentBalance = budget.CurrentBalance.Add(credit)
			budget.UpdateTime = time.Now().Unix()
			budget.UpdateBy = consts.SystemUser
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to reverse ledger entry: %w", err)
	}

	u.metrics.RecordLedgerEffect(consts.LedgerEffectReverse)
	log.Infof("[Ledger] operator_id:%d credited back %s", operatorID, credit.String())
	return nil
}
