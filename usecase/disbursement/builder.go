package disbursement

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
	"github.com/radhian/payout-disbursement/usecase/ledger"
	"github.com/radhian/payout-disbursement/usecase/review"
	"github.com/radhian/payout-disbursement/usecase/transition"
)

type DisbursementUsecase interface {
	IngestBatch(ctx context.Context, req entity.IngestBatchRequest) (*model.Batch, error)
	DispatchBatch(ctx context.Context, batchID, disburserID int64) (entity.DispatchSummary, error)
	DispatchSingle(ctx context.Context, req entity.InstantDisbursementRequest) (*model.Transaction, error)
	GetBatchResult(ctx context.Context, batchID int64) (BatchResult, error)
}

type disbursementUsecase struct {
	dao         dao.DaoMethod
	registry    *provider.Registry
	ledger      ledger.LedgerUsecase
	review      review.ReviewUsecase
	transition  transition.TransitionUsecase
	locker      locker.Locker
	agents      AgentSelector
	metrics     metrics.Collector
	concurrency int
	now         func() time.Time
}

func NewDisbursementUsecase(
	d dao.DaoMethod,
	registry *provider.Registry,
	l ledger.LedgerUsecase,
	r review.ReviewUsecase,
	t transition.TransitionUsecase,
	lk locker.Locker,
	agents AgentSelector,
	collector metrics.Collector,
	concurrency int,
) DisbursementUsecase {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	if agents == nil {
		agents = &randomSelector{}
	}
	if concurrency <= 0 {
		concurrency = consts.DefaultDispatchConcurrency
	}
	return &disbursementUsecase{
		dao:         d,
		registry:    registry,
		ledger:      l,
		review:      r,
		transition:  t,
		locker:      lk,
		agents:      agents,
		metrics:     collector,
		concurrency: concurrency,
		now:         time.Now,
	}
}
