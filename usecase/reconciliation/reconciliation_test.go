package reconciliation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/radhian/payout-disbursement/config"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/dao/mock"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/radhian/payout-disbursement/infra/locker"
	"github.com/radhian/payout-disbursement/infra/provider"
	"github.com/radhian/payout-disbursement/infra/publisher"
	"github.com/radhian/payout-disbursement/usecase/ledger"
	"github.com/radhian/payout-disbursement/usecase/transition"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const operatorID = 7

type answer struct {
	code  string
	err   error
	panic bool
}

// inquiryChannel answers inquiries from a table keyed by transaction UID.
type inquiryChannel struct {
	family  string
	answers map[string]answer

	mu    sync.Mutex
	calls []entity.InquiryRequest
}

func (c *inquiryChannel) Family() string { return c.family }

func (c *inquiryChannel) Send(context.Context, *entity.Envelope) ([]entity.ProviderResponse, error) {
	return nil, errors.New("not used")
}

func (c *inquiryChannel) Inquire(_ context.Context, req *entity.InquiryRequest) (entity.ProviderResponse, error) {
	c.mu.Lock()
	c.calls = append(c.calls, *req)
	c.mu.Unlock()

	a, ok := c.answers[req.UID]
	if !ok {
		return entity.ProviderResponse{}, entity.ErrInquiryUnsupported
	}
	if a.panic {
		panic("provider client bug")
	}
	if a.err != nil {
		return entity.ProviderResponse{}, a.err
	}
	return entity.ProviderResponse{Code: a.code, Message: "inquiry"}, nil
}

func (c *inquiryChannel) ParseCallback([]byte) (entity.CallbackPayload, error) {
	return entity.CallbackPayload{}, errors.New("not used")
}

type fixture struct {
	dao     *mock.Dao
	locker  *locker.MemoryLocker
	wallet  *inquiryChannel
	ach     *inquiryChannel
	usecase ReconciliationUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithBatchSize(t, 100)
}

func newFixtureWithBatchSize(t *testing.T, batchSize int) *fixture {
	t.Helper()

	tables, err := config.LoadProviderTables("")
	require.NoError(t, err)
	routing, err := provider.NewRouting(tables)
	require.NoError(t, err)

	f := &fixture{
		dao:    mock.New(),
		locker: locker.New(),
		wallet: &inquiryChannel{family: consts.FamilyWallet, answers: map[string]answer{}},
		ach:    &inquiryChannel{family: consts.FamilyACH, answers: map[string]answer{}},
	}
	registry := provider.NewRegistry(routing, f.wallet, f.ach)

	require.NoError(t, f.dao.CreateBudget(&model.Budget{
		OperatorID:      operatorID,
		CurrentBalance:  decimal.NewFromInt(1000),
		DisbursedAmount: decimal.Zero,
		MaxAmount:       decimal.NewFromInt(100000),
		VATRate:         decimal.Zero,
	}))

	l := ledger.NewLedgerUsecase(f.dao, f.locker, nil, decimal.Zero)
	trans := transition.NewTransitionUsecase(f.dao, registry, l, f.locker, &publisher.MemoryPublisher{}, nil)
	f.usecase = NewReconciliationUsecase(f.dao, registry, trans, f.locker, nil, batchSize)
	return f
}

type seedTrx struct {
	uid        string
	family     string
	issuer     string
	status     int
	unresolved bool
	age        time.Duration
	batchID    int64
}

func (f *fixture) add(t *testing.T, s seedTrx) model.Transaction {
	t.Helper()
	trx := model.Transaction{
		UID:        s.uid,
		BatchID:    s.batchID,
		OperatorID: operatorID,
		Recipient:  "01011111111",
		Amount:     decimal.NewFromInt(100),
		Issuer:     s.issuer,
		Family:     s.family,
		Status:     s.status,
		Unresolved: s.unresolved,
		UpdateTime: time.Now().Add(-s.age).Unix(),
	}
	require.NoError(t, f.dao.CreateTransaction(&trx))
	return trx
}

func uids(trxList []model.Transaction) []string {
	out := make([]string, 0, len(trxList))
	for _, trx := range trxList {
		out = append(out, trx.UID)
	}
	return out
}

func TestScanStale(t *testing.T) {
	f := newFixture(t)

	callbackBatch := model.Batch{OwnerID: operatorID, HasCallback: true}
	require.NoError(t, f.dao.CreateBatch(&callbackBatch, nil))
	quietBatch := model.Batch{OwnerID: operatorID}
	require.NoError(t, f.dao.CreateBatch(&quietBatch, nil))

	f.add(t, seedTrx{uid: "wallet-stale", family: "wallet", issuer: "vodafone", status: consts.StatusPending, age: 20 * time.Minute})
	f.add(t, seedTrx{uid: "wallet-fresh", family: "wallet", issuer: "vodafone", status: consts.StatusPending, age: time.Minute})
	f.add(t, seedTrx{uid: "wallet-settled", family: "wallet", issuer: "vodafone", status: consts.StatusSuccessful, age: time.Hour})
	f.add(t, seedTrx{uid: "wallet-unresolved", family: "wallet", issuer: "vodafone", status: consts.StatusFailed, unresolved: true, age: time.Hour})
	f.add(t, seedTrx{uid: "wallet-failed", family: "wallet", issuer: "vodafone", status: consts.StatusFailed, age: time.Hour})
	f.add(t, seedTrx{uid: "wallet-called-back", family: "wallet", issuer: "vodafone", status: consts.StatusPending, age: time.Hour, batchID: callbackBatch.ID})
	f.add(t, seedTrx{uid: "wallet-in-batch", family: "wallet", issuer: "vodafone", status: consts.StatusPending, age: time.Hour, batchID: quietBatch.ID})
	f.add(t, seedTrx{uid: "ach-not-yet", family: "ach", issuer: "bank_card", status: consts.StatusBeingProcessed, age: 20 * time.Minute})
	f.add(t, seedTrx{uid: "ach-stale", family: "ach", issuer: "bank_card", status: consts.StatusBeingProcessed, age: time.Hour})

	got, err := f.usecase.ScanStale(context.Background(), time.Now())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"wallet-stale", "wallet-unresolved", "wallet-in-batch", "ach-stale"}, uids(got))
}

func TestProcessReconciliationJob(t *testing.T) {
	f := newFixture(t)

	settled := f.add(t, seedTrx{uid: "w-settled", family: "wallet", issuer: "vodafone", status: consts.StatusPending, age: time.Hour})
	recovered := f.add(t, seedTrx{uid: "w-recovered", family: "wallet", issuer: "vodafone", status: consts.StatusFailed, unresolved: true, age: time.Hour})
	unknown := f.add(t, seedTrx{uid: "a-unknown", family: "ach", issuer: "bank_card", status: consts.StatusBeingProcessed, age: time.Hour})
	down := f.add(t, seedTrx{uid: "a-down", family: "ach", issuer: "bank_card", status: consts.StatusPending, age: time.Hour})
	claimed := f.add(t, seedTrx{uid: "w-claimed", family: "wallet", issuer: "vodafone", status: consts.StatusPending, age: time.Hour})

	f.wallet.answers["w-settled"] = answer{code: "200"}
	f.wallet.answers["w-recovered"] = answer{code: "200"}
	f.wallet.answers["w-claimed"] = answer{code: "200"}
	f.ach.answers["a-unknown"] = answer{code: "9999"}
	f.ach.answers["a-down"] = answer{err: &entity.ExternalProviderError{Family: "ach", Op: "inquire", Err: errors.New("503")}}

	unlock, ok, err := f.usecase.TryAcquireLock(context.Background(), claimed.ID)
	require.NoError(t, err)
	require.True(t, ok)
	defer unlock()

	result, err := f.usecase.ProcessReconciliationJob(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.JobResult{Scanned: 5, Skipped: 1, Inquired: 3, Changed: 2, Unchanged: 1, Errored: 1}, result)

	got, err := f.dao.GetTransactionByID(settled.ID)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusSuccessful, got.Status)
	assert.Equal(t, consts.SourceReconciliation, got.UpdateBy)
	assert.NotZero(t, got.LastInquiryTime)

	got, err = f.dao.GetTransactionByID(recovered.ID)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusSuccessful, got.Status)
	assert.False(t, got.Unresolved)

	got, err = f.dao.GetTransactionByID(unknown.ID)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusBeingProcessed, got.Status)

	got, err = f.dao.GetTransactionByID(down.ID)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusPending, got.Status)
	assert.NotZero(t, got.LastInquiryTime)

	budget, err := f.dao.GetBudgetByOperatorID(operatorID)
	require.NoError(t, err)
	assert.Equal(t, "800", budget.CurrentBalance.String())

	// attempted transactions wait a full staleness window; the one claimed elsewhere comes back now
	unlock()
	result, err = f.usecase.ProcessReconciliationJob(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.JobResult{Scanned: 1, Inquired: 1, Changed: 1}, result)
	assert.Equal(t, "700", mustBalance(t, f))
}

func mustBalance(t *testing.T, f *fixture) string {
	t.Helper()
	budget, err := f.dao.GetBudgetByOperatorID(operatorID)
	require.NoError(t, err)
	return budget.CurrentBalance.String()
}

func TestProcessReconciliationJob_UnanswerableRotateOut(t *testing.T) {
	f := newFixtureWithBatchSize(t, 2)
	f.add(t, seedTrx{uid: "w-lost-1", family: "wallet", issuer: "vodafone", status: consts.StatusFailed, unresolved: true, age: 3 * time.Hour})
	f.add(t, seedTrx{uid: "w-lost-2", family: "wallet", issuer: "vodafone", status: consts.StatusFailed, unresolved: true, age: 3 * time.Hour})
	answerable := f.add(t, seedTrx{uid: "w-answerable", family: "wallet", issuer: "vodafone", status: consts.StatusPending, age: time.Hour})
	f.wallet.answers["w-answerable"] = answer{code: "200"}

	result, err := f.usecase.ProcessReconciliationJob(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.JobResult{Scanned: 2, Skipped: 2}, result)

	result, err = f.usecase.ProcessReconciliationJob(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.JobResult{Scanned: 1, Inquired: 1, Changed: 1}, result)

	got, err := f.dao.GetTransactionByID(answerable.ID)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusSuccessful, got.Status)

	stale, err := f.usecase.ScanStale(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"w-lost-1", "w-lost-2"}, uids(stale))
}

func TestProcessReconciliationJob_InquiryUnsupported(t *testing.T) {
	f := newFixture(t)
	f.add(t, seedTrx{uid: "no-inquiry", family: "wallet", issuer: "vodafone", status: consts.StatusPending, age: time.Hour})

	result, err := f.usecase.ProcessReconciliationJob(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.JobResult{Scanned: 1, Skipped: 1}, result)
}

func TestProcessReconciliationJob_RecoversPanic(t *testing.T) {
	f := newFixture(t)
	f.add(t, seedTrx{uid: "boom", family: "wallet", issuer: "vodafone", status: consts.StatusPending, age: time.Hour})
	f.wallet.answers["boom"] = answer{panic: true}

	_, err := f.usecase.ProcessReconciliationJob(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestProcessReconciliationJob_StopsOnCancelledContext(t *testing.T) {
	f := newFixture(t)
	f.add(t, seedTrx{uid: "w-1", family: "wallet", issuer: "vodafone", status: consts.StatusPending, age: time.Hour})
	f.wallet.answers["w-1"] = answer{code: "200"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.usecase.ProcessReconciliationJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Zero(t, result.Inquired)
	assert.Empty(t, f.wallet.calls)
}

func TestGetTransactionHistory(t *testing.T) {
	f := newFixture(t)
	trx := f.add(t, seedTrx{uid: "w-history", family: "wallet", issuer: "vodafone", status: consts.StatusPending, age: time.Hour})
	f.wallet.answers["w-history"] = answer{code: "200"}

	_, err := f.usecase.ProcessReconciliationJob(context.Background())
	require.NoError(t, err)

	history, err := f.usecase.GetTransactionHistory(context.Background(), trx.ID)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusSuccessful, history.Transaction.Status)
	require.Len(t, history.StatusLogs, 1)
	assert.Equal(t, consts.StatusPending, history.StatusLogs[0].FromStatus)
	assert.Equal(t, consts.SourceReconciliation, history.StatusLogs[0].Source)

	_, err = f.usecase.GetTransactionHistory(context.Background(), 404)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestProcessReconciliationJob_PanicReleasesClaim(t *testing.T) {
	f := newFixture(t)
	trx := f.add(t, seedTrx{uid: "boom-once", family: "wallet", issuer: "vodafone", status: consts.StatusPending, age: time.Hour})
	f.wallet.answers["boom-once"] = answer{panic: true}

	_, err := f.usecase.ProcessReconciliationJob(context.Background())
	require.Error(t, err)

	unlock, ok, err := f.usecase.TryAcquireLock(context.Background(), trx.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	unlock()
}
