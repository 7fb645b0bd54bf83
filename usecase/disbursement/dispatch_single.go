package disbursement

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/radhian/payout-disbursement/usecase/ledger"
)

// DispatchSingle sends one ad hoc transfer outside any batch. A transfer the budget cannot cover is
// recorded as failed and returned together with the InsufficientBudgetError.
func (u *disbursementUsecase) DispatchSingle(ctx context.Context, req entity.InstantDisbursementRequest) (*model.Transaction, error) {
	if req.OperatorID <= 0 {
		return nil, entity.NewValidationError("operator_id", "operator is required")
	}
	recipient := strings.TrimSpace(req.Recipient)
	if recipient == "" {
		return nil, entity.NewValidationError("recipient", "recipient is required")
	}
	if !req.Amount.IsPositive() || !req.Amount.Equal(req.Amount.Round(2)) {
		return nil, entity.NewValidationError("amount", "amount must be positive with at most 2 decimals")
	}
	issuer := strings.ToLower(strings.TrimSpace(req.Issuer))
	family, err := u.registry.Routing().FamilyOf(issuer)
	if err != nil {
		return nil, entity.NewValidationError("issuer", fmt.Sprintf("unsupported issuer %q", req.Issuer))
	}
	if msg := u.railAmountError(family, req.Amount); msg != "" {
		return nil, entity.NewValidationError("amount", msg)
	}

	extra := ""
	if len(req.ExtraFields) > 0 {
		raw, err := json.Marshal(req.ExtraFields)
		if err != nil {
			return nil, fmt.Errorf("failed to encode extra fields: %w", err)
		}
		extra = string(raw)
	}

	var (
		trx      model.Transaction
		refused  *model.Transaction
		shortage *entity.InsufficientBudgetError
	)
	err = u.locker.WithLock(ctx, dispatchKey(req.OperatorID), func(ctx context.Context) error {
		budget, err := u.ledger.GetBudget(ctx, req.OperatorID)
		if err != nil {
			return err
		}
		quote, err := u.ledger.Quote(ctx, req.OperatorID, req.Amount, issuer)
		if err != nil {
			return err
		}
		reservedAmount, reservedCost, err := u.outstanding(ctx, req.OperatorID, nil)
		if err != nil {
			return err
		}

		now := u.now().Unix()
		trx = model.Transaction{
			UID:          uuid.NewString(),
			OperatorID:   req.OperatorID,
			Recipient:    recipient,
			Amount:       req.Amount,
			Issuer:       issuer,
			Family:       family,
			Status:       consts.StatusPending,
			ExtraFields:  extra,
			IsSingleStep: true,
			CreateTime:   now,
			CreateBy:     consts.SourceDispatch,
			UpdateTime:   now,
			UpdateBy:     consts.SourceDispatch,
		}
		if err := u.dao.CreateTransaction(&trx); err != nil {
			return err
		}
		if ledger.Fits(budget, reservedAmount, reservedCost, quote) {
			return nil
		}

		available := budget.CurrentBalance.Sub(reservedCost)
		if refused, err = u.transition.MarkLedgerRefused(ctx, trx.ID, quote, available); err != nil {
			return err
		}
		u.metrics.RecordDispatch(issuer, consts.LedgerEffectRefused)
		shortage = &entity.InsufficientBudgetError{
			OperatorID: req.OperatorID,
			Amount:     quote.Amount,
			Fees:       quote.Fees,
			VAT:        quote.VAT,
			Balance:    available,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if shortage != nil {
		return refused, shortage
	}

	outcome := u.dispatchGroup(ctx, req.OperatorID, issuer, []model.Transaction{trx})
	log.Infof("[Instant] trx_id:%d operator_id:%d issuer:%s successful:%d in_flight:%d failed:%d",
		trx.ID, req.OperatorID, issuer, outcome.Successful, outcome.InFlight, outcome.Failed)

	final, err := u.dao.GetTransactionByID(trx.ID)
	if err != nil {
		return nil, err
	}
	return &final, nil
}
