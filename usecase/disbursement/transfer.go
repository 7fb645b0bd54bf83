package disbursement

import (
	"encoding/json"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/shopspring/decimal"
)

// railAmountError reports an amount the family's rail cannot carry, or "" when it can.
func (u *disbursementUsecase) railAmountError(family string, amount decimal.Decimal) string {
	table, err := u.registry.Routing().Table(family)
	if err != nil || !table.WholeUnits {
		return ""
	}
	if !amount.Equal(amount.Truncate(0)) {
		return fmt.Sprintf("%s transfers carry whole units only", family)
	}
	return ""
}

func transferOf(trx model.Transaction) entity.Transfer {
	return entity.Transfer{
		TransactionID: trx.ID,
		UID:           trx.UID,
		OperatorID:    trx.OperatorID,
		Recipient:     trx.Recipient,
		Amount:        trx.Amount,
		Issuer:        trx.Issuer,
		ExtraFields:   extraFields(trx),
		CreateTime:    trx.CreateTime,
	}
}

func extraFields(trx model.Transaction) map[string]string {
	if trx.ExtraFields == "" {
		return nil
	}
	fields := make(map[string]string)
	if err := json.Unmarshal([]byte(trx.ExtraFields), &fields); err != nil {
		log.Warnf("[Dispatch] trx_id:%d unreadable extra fields: %v", trx.ID, err)
		return nil
	}
	return fields
}

// countStatus files one transaction's status under the outcome's buckets.
func countStatus(o *entity.GroupOutcome, status int) {
	switch status {
	case consts.StatusSuccessful:
		o.Successful++
	case consts.StatusPending, consts.StatusBeingProcessed:
		o.InFlight++
	default:
		o.Failed++
	}
}
