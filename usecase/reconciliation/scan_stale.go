package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/infra/db/model"
)

// ScanStale lists the transactions whose provider answer is overdue, each family judged by its own
// staleness threshold. A transaction counts as touched by an update or by an inquiry attempt, so
// ones the provider cannot answer rotate to the back instead of filling every scan. Batches that
// already got a callback are left to the callback path.
func (u *reconciliationUsecase) ScanStale(ctx context.Context, now time.Time) ([]model.Transaction, error) {
	var candidates []model.Transaction

	for _, family := range u.registry.Routing().Families() {
		table, err := u.registry.Routing().Table(family)
		if err != nil {
			return nil, err
		}

		staleBefore := now.Add(-table.StaleAfter).Unix()
		trxList, err := u.dao.GetStaleTransactions(family, staleBefore, u.batchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stale %s transactions: %w", family, err)
		}
		if len(trxList) > 0 {
			log.Infof("[ScanStale] family:%s stale_after:%s found:%d", family, table.StaleAfter, len(trxList))
		}
		candidates = append(candidates, trxList...)
	}
	return candidates, nil
}
