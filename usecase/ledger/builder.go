package ledger

import (
	"context"

	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/dao"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/radhian/payout-disbursement/infra/locker"
	"github.com/radhian/payout-disbursement/infra/metrics"
	"github.com/shopspring/decimal"
)

type LedgerUsecase interface {
	Quote(ctx context.Context, operatorID int64, amount decimal.Decimal, issuer string) (entity.FeeQuote, error)
	WithinThreshold(ctx context.Context, operatorID int64, amount decimal.Decimal, issuer string) (bool, error)
	ApplyDisbursement(ctx context.Context, operatorID int64, amount decimal.Decimal, issuer string) (entity.LedgerEntry, error)
	ReverseForCancelledOrReturned(ctx context.Context, operatorID int64, entry entity.LedgerEntry) error

	GetBudget(ctx context.Context, operatorID int64) (model.Budget, error)
	OpenBudget(ctx context.Context, req entity.OpenBudgetRequest) (*model.Budget, error)
	TopUp(ctx context.Context, operatorID int64, amount decimal.Decimal, operator string) (model.Budget, error)
	SetFeeRule(ctx context.Context, operatorID int64, req entity.FeeRuleRequest) (*model.FeeRule, error)
}

type ledgerUsecase struct {
	dao            dao.DaoMethod
	locker         locker.Locker
	metrics        metrics.Collector
	defaultVATRate decimal.Decimal
}

func NewLedgerUsecase(d dao.DaoMethod, l locker.Locker, collector metrics.Collector, defaultVATRate decimal.Decimal) LedgerUsecase {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	return &ledgerUsecase{
		dao:            d,
		locker:         l,
		metrics:        collector,
		defaultVATRate: defaultVATRate,
	}
}
