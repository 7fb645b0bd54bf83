package reconciliation

import (
	"context"
	"time"

	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/dao"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/radhian/payout-disbursement/infra/locker"
	"github.com/radhian/payout-disbursement/infra/metrics"
	"github.com/radhian/payout-disbursement/infra/provider"
	"github.com/radhian/payout-disbursement/usecase/transition"
)

type ReconciliationUsecase interface {
	ScanStale(ctx context.Context, now time.Time) ([]model.Transaction, error)
	ProcessReconciliationJob(ctx context.Context) (entity.JobResult, error)
	TryAcquireLock(ctx context.Context, trxID int64) (unlock func(), ok bool, err error)
	GetTransactionHistory(ctx context.Context, trxID int64) (TransactionHistory, error)
}

type reconciliationUsecase struct {
	dao        dao.DaoMethod
	registry   *provider.Registry
	transition transition.TransitionUsecase
	locker     locker.Locker
	metrics    metrics.Collector
	batchSize  int
	now        func() time.Time
}

func NewReconciliationUsecase(
	d dao.DaoMethod,
	registry *provider.Registry,
	t transition.TransitionUsecase,
	l locker.Locker,
	collector metrics.Collector,
	batchSize int,
) ReconciliationUsecase {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	if batchSize <= 0 {
		batchSize = consts.DefaultBatchSize
	}
	return &reconciliationUsecase{
		dao:        d,
		registry:   registry,
		transition: t,
		locker:     l,
		metrics:    collector,
		batchSize:  batchSize,
		now:        time.Now,
	}
}
