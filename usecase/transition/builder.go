package transition

import (
	"context"
	"time"

	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/dao"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/radhian/payout-disbursement/infra/locker"
	"github.com/radhian/payout-disbursement/infra/metrics"
	"github.com/radhian/payout-disbursement/infra/provider"
	"github.com/radhian/payout-disbursement/infra/publisher"
	"github.com/radhian/payout-disbursement/usecase/ledger"
	"github.com/shopspring/decimal"
)

// TransitionUsecase is the only writer of transaction status. Dispatch, callbacks and the
// reconciliation worker all go through Apply.
type TransitionUsecase interface {
	Apply(ctx context.Context, trxID int64, resp entity.ProviderResponse, source string) (*model.Transaction, error)
	MarkExternalFailure(ctx context.Context, trxID int64, cause error) (*model.Transaction, error)
	MarkDispatchFailed(ctx context.Context, trxID int64, reason string) (*model.Transaction, error)
	MarkLedgerRefused(ctx context.Context, trxID int64, quote entity.FeeQuote, balance decimal.Decimal) (*model.Transaction, error)
	HandleCallback(ctx context.Context, family string, body []byte) (*model.Transaction, error)
}

type transitionUsecase struct {
	dao       dao.DaoMethod
	registry  *provider.Registry
	ledger    ledger.LedgerUsecase
	locker    locker.Locker
	publisher publisher.Publisher
	metrics   metrics.Collector
	now       func() time.Time
}

func NewTransitionUsecase(
	d dao.DaoMethod,
	registry *provider.Registry,
	l ledger.LedgerUsecase,
	lk locker.Locker,
	pub publisher.Publisher,
	collector metrics.Collector,
) TransitionUsecase {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	if pub == nil {
		pub = publisher.LogPublisher{}
	}
	return &transitionUsecase{
		dao:       d,
		registry:  registry,
		ledger:    l,
		locker:    lk,
		publisher: pub,
		metrics:   collector,
		now:       time.Now,
	}
}
