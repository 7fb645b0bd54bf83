package disbursement

import (
	"context"

	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/shopspring/decimal"
)

type BatchResult struct {
	Batch            model.Batch         `json:"batch"`
	ApprovalState    string              `json:"approval_state"`
	Transactions     []model.Transaction `json:"transactions"`
	StatusCounts     map[string]int      `json:"status_counts"`
	SuccessfulAmount decimal.Decimal     `json:"successful_amount"`
	// DisbursementRatio is the percentage of the batch's records that settled successfully.
	DisbursementRatio decimal.Decimal `json:"disbursement_ratio"`
}

func (u *disbursementUsecase) GetBatchResult(ctx context.Context, batchID int64) (BatchResult, error) {
	var result BatchResult

	batch, err := u.dao.GetBatchByID(batchID)
	if err != nil {
		return result, err
	}
	state, err := u.review.GetApprovalState(ctx, batchID)
	if err != nil {
		return result, err
	}
	trxList, err := u.dao.GetTransactionsByBatchID(batchID)
	if err != nil {
		return result, err
	}

	result.Batch = batch
	result.ApprovalState = state.String()
	result.Transactions = trxList
	result.StatusCounts = make(map[string]int)
	result.SuccessfulAmount = decimal.Zero
	result.DisbursementRatio = decimal.Zero

	successful := 0
	for _, trx := range trxList {
		result.StatusCounts[consts.StatusName(trx.Status)]++
		if trx.Status == consts.StatusSuccessful {
			successful++
			result.SuccessfulAmount = result.SuccessfulAmount.Add(trx.Amount)
		}
	}

	if batch.TotalCount > 0 {
		result.DisbursementRatio = decimal.NewFromInt(int64(successful)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(batch.TotalCount)).
			Round(2)
	}
	return result, nil
}
