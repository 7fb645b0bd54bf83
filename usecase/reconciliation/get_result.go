package reconciliation

import (
	"context"
	"fmt"

	"github.com/radhian/payout-disbursement/infra/db/model"
)

type TransactionHistory struct {
	Transaction model.Transaction            `json:"transaction"`
	StatusLogs  []model.TransactionStatusLog `json:"status_logs"`
}

func (u *reconciliationUsecase) GetTransactionHistory(ctx context.Context, trxID int64) (TransactionHistory, error) {
	var history TransactionHistory

	trx, err := u.dao.GetTransactionByID(trxID)
	if err != nil {
		return history, err
	}
	logs, err := u.dao.GetTransactionStatusLogs(trxID)
	if err != nil {
		return history, fmt.Errorf("failed to load status logs: %w", err)
	}

	history.Transaction = trx
	history.StatusLogs = logs
	return history, nil
}
