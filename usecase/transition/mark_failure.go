package transition

import (
	"context"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/shopspring/decimal"
)

// MarkExternalFailure fails a transaction whose dispatch call got no usable answer. It stays
// unresolved so the reconciliation worker asks the provider what really happened.
func (u *transitionUsecase) MarkExternalFailure(ctx context.Context, trxID int64, cause error) (*model.Transaction, error) {
	reason := fmt.Sprintf("external provider error: %v", cause)
	return u.failPending(ctx, trxID, reason, true, nil)
}

// MarkDispatchFailed fails a transaction that could not be handed to its rail at all.
func (u *transitionUsecase) MarkDispatchFailed(ctx context.Context, trxID int64, reason string) (*model.Transaction, error) {
	return u.failPending(ctx, trxID, reason, false, nil)
}

// MarkLedgerRefused fails a transaction that never left because the budget could not cover it.
func (u *transitionUsecase) MarkLedgerRefused(ctx context.Context, trxID int64, quote entity.FeeQuote, balance decimal.Decimal) (*model.Transaction, error) {
	refusal := &entity.InsufficientBudgetError{
		Amount:  quote.Amount,
		Fees:    quote.Fees,
		VAT:     quote.VAT,
		Balance: balance,
	}
	return u.failPending(ctx, trxID, "", false, func(trx *model.Transaction) {
		refusal.OperatorID = trx.OperatorID
		trx.Reason = refusal.Error()
		trx.Fees = quote.Fees
		trx.VAT = quote.VAT
		trx.BalanceBefore = balance
		trx.BalanceAfter = balance
	})
}

func (u *transitionUsecase) failPending(ctx context.Context, trxID int64, reason string, unresolved bool, decorate func(trx *model.Transaction)) (*model.Transaction, error) {
	var result *model.Transaction

	err := u.locker.WithLock(ctx, trxKey(trxID), func(ctx context.Context) error {
		trx, err := u.dao.GetTransactionByID(trxID)
		if err != nil {
			return err
		}
		if trx.Status != consts.StatusPending || trx.StatusCode != "" {
			log.Warnf("[Transition] trx_id:%d already answered with %s, failure not recorded", trx.ID, consts.StatusName(trx.Status))
			result = &trx
			return entity.ErrStaleCodeIgnored
		}

		from := trx.Status
		now := u.now().Unix()
		trx.Status = consts.StatusFailed
		trx.Reason = reason
		trx.Unresolved = unresolved
		trx.UpdateTime = now
		trx.UpdateBy = consts.SourceDispatch
		if decorate != nil {
			decorate(&trx)
		}

		statusLog := &model.TransactionStatusLog{
			TransactionID: trx.ID,
			FromStatus:    from,
			ToStatus:      trx.Status,
			Message:       trx.Reason,
			Source:        consts.SourceDispatch,
			CreateTime:    now,
		}
		if err := u.dao.UpdateTransaction(trx, statusLog); err != nil {
			return fmt.Errorf("failed to mark transaction %d failed: %w", trx.ID, err)
		}

		log.Warnf("[Transition] trx_id:%d failed on dispatch: %s", trx.ID, trx.Reason)
		u.emit(ctx, trx, from, entity.ProviderResponse{TransactionID: trx.ID, Message: trx.Reason}, consts.SourceDispatch, "", false)
		result = &trx
		return nil
	})
	return result, err
}
