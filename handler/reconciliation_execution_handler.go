package handler

import (
	"context"

	"github.com/radhian/payout-disbursement/entity"
)

// ReconciliationExecution runs one reconciliation pass for the cron workers.
func (h *PayoutHandler) ReconciliationExecution(ctx context.Context) (entity.JobResult, error) {
	return h.Reconciliation.ProcessReconciliationJob(ctx)
}
