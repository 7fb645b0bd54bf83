package transition

import (
	"context"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
)

// HandleCallback normalizes a provider callback and applies it like any other provider answer.
func (u *transitionUsecase) HandleCallback(ctx context.Context, family string, body []byte) (*model.Transaction, error) {
	channel, _, err := u.registry.Channel(family)
	if err != nil {
		return nil, err
	}

	payload, err := channel.ParseCallback(body)
	if err != nil {
		return nil, err
	}

	trx, err := u.dao.GetTransactionByReference(payload.TransactionReference)
	if err != nil {
		return nil, err
	}
	if trx.Family != family {
		return nil, entity.NewValidationError("transaction_reference",
			fmt.Sprintf("transaction %s does not belong to the %s rail", payload.TransactionReference, family))
	}

	if trx.BatchID != 0 {
		if err := u.dao.MarkBatchHasCallback(trx.BatchID, u.now().Unix()); err != nil {
			log.Warnf("[Callback] batch_id:%d could not flag callback: %v", trx.BatchID, err)
		}
	}

	log.Infof("[Callback] family:%s reference:%s trx_id:%d code:%s", family, payload.TransactionReference, trx.ID, payload.StatusCode)
	return u.Apply(ctx, trx.ID, entity.ProviderResponse{
		TransactionID: trx.ID,
		Code:          payload.StatusCode,
		Message:       payload.StatusMessage,
	}, consts.SourceCallback)
}
