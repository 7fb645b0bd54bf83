package transition

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/radhian/payout-disbursement/infra/provider"
)

func trxKey(trxID int64) string {
	return fmt.Sprintf("trx:%d", trxID)
}

// Apply feeds one provider answer through the transition rule. Dropped codes return the unchanged
// transaction together with entity.ErrStaleCodeIgnored.
func (u *transitionUsecase) Apply(ctx context.Context, trxID int64, resp entity.ProviderResponse, source string) (*model.Transaction, error) {
	var result *model.Transaction

	err := u.locker.WithLock(ctx, trxKey(trxID), func(ctx context.Context) error {
		trx, err := u.dao.GetTransactionByID(trxID)
		if err != nil {
			return err
		}
		table, err := u.registry.Routing().Table(trx.Family)
		if err != nil {
			return err
		}

		result, err = u.apply(ctx, trx, table, resp, source)
		return err
	})
	return result, err
}

func (u *transitionUsecase) apply(ctx context.Context, trx model.Transaction, table *provider.CodeTable, resp entity.ProviderResponse, source string) (*model.Transaction, error) {
	d := decide(trx, table, resp.Code, source)
	if d.ignore != "" {
		log.Infof("[Transition] trx_id:%d family:%s source:%s code:%s ignored: %s (status %s)",
			trx.ID, trx.Family, source, resp.Code, d.ignore, consts.StatusName(trx.Status))
		u.emit(ctx, trx, trx.Status, resp, source, "", true)
		return &trx, entity.ErrStaleCodeIgnored
	}

	from := trx.Status
	next := trx
	next.Status = d.to
	next.StatusCode = resp.Code
	next.Reason = reasonFor(d.to, resp.Message)
	next.Unresolved = false
	if next.ExternalReference == "" {
		next.ExternalReference = resp.ExternalReference
	}
	now := u.now().Unix()
	next.UpdateTime = now
	next.UpdateBy = source
	if source == consts.SourceReconciliation {
		next.LastInquiryTime = now
	}

	effect := ledgerEffect(trx, table, d.to)
	entry, effect, err := u.applyLedger(ctx, &next, effect)
	if err != nil {
		return nil, err
	}

	statusLog := &model.TransactionStatusLog{
		TransactionID: trx.ID,
		FromStatus:    from,
		ToStatus:      d.to,
		Code:          resp.Code,
		Message:       resp.Message,
		Source:        source,
		CreateTime:    now,
	}
	if err := u.dao.UpdateTransaction(next, statusLog); err != nil {
		u.compensate(ctx, trx, entry, effect)
		return nil, fmt.Errorf("failed to save transition of transaction %d: %w", trx.ID, err)
	}

	log.Infof("[Transition] trx_id:%d family:%s source:%s code:%s %s -> %s ledger:%s",
		trx.ID, trx.Family, source, resp.Code, consts.StatusName(from), consts.StatusName(d.to), effect)
	u.emit(ctx, next, from, resp, source, effect, false)
	return &next, nil
}

// applyLedger performs the ledger side of a transition and records it on next. A debit refused for
// lack of budget does not block the status change: the provider has already moved the money, so the
// refusal is kept on the transaction reason for the operator to settle.
func (u *transitionUsecase) applyLedger(ctx context.Context, next *model.Transaction, effect string) (*entity.LedgerEntry, string, error) {
	switch effect {
	case consts.LedgerEffectHold, consts.LedgerEffectDebit:
		entry, err := u.ledger.ApplyDisbursement(ctx, next.OperatorID, next.Amount, next.Issuer)
		if entity.IsInsufficientBudget(err) {
			log.Errorf("[Transition] trx_id:%d settled by provider but ledger refused: %v", next.ID, err)
			next.Reason = fmt.Sprintf("%s; ledger debit refused: %v", next.Reason, err)
			return nil, consts.LedgerEffectRefused, nil
		}
		if err != nil {
			return nil, "", fmt.Errorf("ledger debit for transaction %d: %w", next.ID, err)
		}
		next.LedgerHeld = true
		next.Fees = entry.Fees
		next.VAT = entry.VAT
		next.BalanceBefore = entry.BalanceBefore
		next.BalanceAfter = entry.BalanceAfter
		return &entry, effect, nil

	case consts.LedgerEffectReverse:
		entry := entryOf(*next)
		if err := u.ledger.ReverseForCancelledOrReturned(ctx, next.OperatorID, entry); err != nil {
			return nil, "", fmt.Errorf("ledger reversal for transaction %d: %w", next.ID, err)
		}
		next.LedgerReversed = true
		return &entry, effect, nil
	}
	return nil, effect, nil
}

// compensate undoes a ledger effect whose transaction update could not be saved, so a retry of the
// same code starts from a consistent budget.
func (u *transitionUsecase) compensate(ctx context.Context, trx model.Transaction, entry *entity.LedgerEntry, effect string) {
	if entry == nil {
		return
	}

	var err error
	switch effect {
	case consts.LedgerEffectHold, consts.LedgerEffectDebit:
		err = u.ledger.ReverseForCancelledOrReturned(ctx, trx.OperatorID, *entry)
	case consts.LedgerEffectReverse:
		_, err = u.ledger.ApplyDisbursement(ctx, trx.OperatorID, entry.Amount, trx.Issuer)
	}
	if err != nil {
		log.Errorf("[Transition] trx_id:%d ledger %s could not be compensated: %v", trx.ID, effect, err)
	}
}

func (u *transitionUsecase) emit(ctx context.Context, trx model.Transaction, from int, resp entity.ProviderResponse, source, effect string, ignored bool) {
	u.metrics.RecordTransition(trx.Family, consts.StatusName(from), consts.StatusName(trx.Status), ignored)

	event := entity.TransitionEvent{
		EventID:       uuid.NewString(),
		TransactionID: trx.ID,
		BatchID:       trx.BatchID,
		OperatorID:    trx.OperatorID,
		Family:        trx.Family,
		Source:        source,
		FromStatus:    consts.StatusName(from),
		ToStatus:      consts.StatusName(trx.Status),
		Code:          resp.Code,
		Message:       resp.Message,
		LedgerEffect:  effect,
		Ignored:       ignored,
		Timestamp:     u.now().Unix(),
	}
	if err := u.publisher.PublishTransition(ctx, event); err != nil {
		log.Errorf("[Transition] trx_id:%d publish failed: %v", trx.ID, err)
	}
}

func entryOf(trx model.Transaction) entity.LedgerEntry {
	return entity.LedgerEntry{
		Amount:        trx.Amount,
		Fees:          trx.Fees,
		VAT:           trx.VAT,
		BalanceBefore: trx.BalanceBefore,
		BalanceAfter:  trx.BalanceAfter,
	}
}

func reasonFor(status int, message string) string {
	if status == consts.StatusSuccessful && message == "" {
		return "SUCCESS"
	}
	return message
}
