package disbursement

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/radhian/payout-disbursement/config"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/dao/mock"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/radhian/payout-disbursement/infra/locker"
	"github.com/radhian/payout-disbursement/infra/provider"
	"github.com/radhian/payout-disbursement/infra/publisher"
	"github.com/radhian/payout-disbursement/usecase/ledger"
	"github.com/radhian/payout-disbursement/usecase/review"
	"github.com/radhian/payout-disbursement/usecase/transition"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const operatorID = 7

// fakeChannel answers every transfer with the same code, or fails the whole call with err.
type fakeChannel struct {
	family string
	code   string
	err    error

	mu        sync.Mutex
	envelopes []entity.Envelope

	// entered and release hold Send until the test lets it return
	entered chan struct{}
	release chan struct{}
}

func (c *fakeChannel) Family() string { return c.family }

func (c *fakeChannel) Send(_ context.Context, envelope *entity.Envelope) ([]entity.ProviderResponse, error) {
	c.mu.Lock()
	c.envelopes = append(c.envelopes, *envelope)
	c.mu.Unlock()

	if c.entered != nil {
		c.entered <- struct{}{}
		<-c.release
	}
	if c.err != nil {
		return nil, c.err
	}
	out := make([]entity.ProviderResponse, 0, len(envelope.Transfers))
	for _, t := range envelope.Transfers {
		out = append(out, entity.ProviderResponse{TransactionID: t.TransactionID, Code: c.code, ExternalReference: "ext-" + t.UID})
	}
	return out, nil
}

func (c *fakeChannel) Inquire(context.Context, *entity.InquiryRequest) (entity.ProviderResponse, error) {
	return entity.ProviderResponse{}, entity.ErrInquiryUnsupported
}

func (c *fakeChannel) ParseCallback([]byte) (entity.CallbackPayload, error) {
	return entity.CallbackPayload{}, entity.NewValidationError("body", "unsupported")
}

func (c *fakeChannel) sent() []entity.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.Envelope(nil), c.envelopes...)
}

type fixture struct {
	dao       *mock.Dao
	locker    *locker.MemoryLocker
	wallet    *fakeChannel
	ach       *fakeChannel
	aman      *fakeChannel
	review    review.ReviewUsecase
	usecase   DisbursementUsecase
	policyID  int64
	reviewer  model.Reviewer
	stranger  model.Reviewer
	superUser model.Agent
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newFixture(t *testing.T, balance string) *fixture {
	t.Helper()

	tables, err := config.LoadProviderTables("")
	require.NoError(t, err)
	routing, err := provider.NewRouting(tables)
	require.NoError(t, err)

	f := &fixture{
		dao:    mock.New(),
		locker: locker.New(),
		wallet: &fakeChannel{family: consts.FamilyWallet, code: "200"},
		ach:    &fakeChannel{family: consts.FamilyACH, code: "8111"},
		aman: &fakeChannel{family: consts.FamilyAman, err: &entity.ExternalProviderError{
			Family: consts.FamilyAman, Op: "send", Err: errors.New("context deadline exceeded"),
		}},
	}
	registry := provider.NewRegistry(routing, f.wallet, f.ach, f.aman)

	require.NoError(t, f.dao.CreateBudget(&model.Budget{
		OperatorID:      operatorID,
		CurrentBalance:  d(balance),
		DisbursedAmount: decimal.Zero,
		MaxAmount:       d("100000"),
		VATRate:         decimal.Zero,
	}))

	policy := &model.ReviewPolicy{OperatorID: operatorID, Name: "payroll", RequiredReviews: 1}
	require.NoError(t, f.dao.CreateReviewPolicy(policy))
	f.policyID = policy.ID

	f.reviewer = model.Reviewer{OperatorID: operatorID, Name: "checker", Level: 1, MaxAmountCanBeDisbursed: d("10000")}
	require.NoError(t, f.dao.CreateReviewer(&f.reviewer))
	f.stranger = model.Reviewer{OperatorID: 99, Name: "outsider", Level: 1, MaxAmountCanBeDisbursed: d("10000")}
	require.NoError(t, f.dao.CreateReviewer(&f.stranger))

	f.superUser = model.Agent{OperatorID: operatorID, Issuer: "vodafone", MSISDN: "01000000000", IsSuper: true}
	require.NoError(t, f.dao.CreateAgent(&f.superUser))
	for _, msisdn := range []string{"01000000001", "01000000002"} {
		require.NoError(t, f.dao.CreateAgent(&model.Agent{OperatorID: operatorID, Issuer: "vodafone", MSISDN: msisdn, PIN: "123456"}))
	}

	l := ledger.NewLedgerUsecase(f.dao, f.locker, nil, decimal.Zero)
	f.review = review.NewReviewUsecase(f.dao, f.locker, &publisher.MemoryPublisher{})
	trans := transition.NewTransitionUsecase(f.dao, registry, l, f.locker, &publisher.MemoryPublisher{}, nil)
	f.usecase = NewDisbursementUsecase(f.dao, registry, l, f.review, trans, f.locker, &roundRobinSelector{next: map[string]int{}}, nil, 4)
	return f
}

func (f *fixture) ingest(t *testing.T, records ...entity.IngestRecord) *model.Batch {
	t.Helper()
	batch, err := f.usecase.IngestBatch(context.Background(), entity.IngestBatchRequest{
		OwnerID:    operatorID,
		CategoryID: f.policyID,
		Records:    records,
		Operator:   "maker",
	})
	require.NoError(t, err)
	return batch
}

func (f *fixture) authorize(t *testing.T, batchID int64) {
	t.Helper()
	_, state, err := f.review.SubmitReview(context.Background(), batchID, entity.SubmitReviewRequest{ReviewerID: f.reviewer.ID, IsOk: true})
	require.NoError(t, err)
	require.Equal(t, entity.Authorized, state.Kind)
}

func (f *fixture) balance(t *testing.T) string {
	t.Helper()
	budget, err := f.dao.GetBudgetByOperatorID(operatorID)
	require.NoError(t, err)
	return budget.CurrentBalance.StringFixed(2)
}

func record(recipient, amount, issuer string) entity.IngestRecord {
	return entity.IngestRecord{Recipient: recipient, Amount: d(amount), Issuer: issuer}
}

func TestIngestBatch(t *testing.T) {
	f := newFixture(t, "1000")

	batch := f.ingest(t,
		record("01011111111", "100", "vodafone"),
		entity.IngestRecord{Recipient: "EG380019000500000000263180002", Amount: d("200.5"), Issuer: "Bank_Card", ExtraFields: map[string]string{"bank_code": "NBE"}},
	)
	assert.Equal(t, "300.50", batch.TotalAmount.StringFixed(2))
	assert.Equal(t, int64(2), batch.TotalCount)
	assert.True(t, batch.IsProcessed)
	assert.Equal(t, consts.FamilyMixed, batch.IssuerFamily)

	records, err := f.dao.GetDisbursementRecordsByBatchID(batch.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "bank_card", records[1].Issuer)
	assert.JSONEq(t, `{"bank_code":"NBE"}`, records[1].ExtraFields)
	assert.Empty(t, records[0].ExtraFields)
}

func TestIngestBatch_Validation(t *testing.T) {
	f := newFixture(t, "1000")

	tests := []struct {
		name  string
		req   entity.IngestBatchRequest
		field string
	}{
		{
			name:  "no owner",
			req:   entity.IngestBatchRequest{CategoryID: f.policyID, Records: []entity.IngestRecord{record("0101", "1", "vodafone")}},
			field: "owner_id",
		},
		{
			name:  "no records",
			req:   entity.IngestBatchRequest{OwnerID: operatorID, CategoryID: f.policyID},
			field: "records",
		},
		{
			name:  "unknown category",
			req:   entity.IngestBatchRequest{OwnerID: operatorID, CategoryID: 404, Records: []entity.IngestRecord{record("0101", "1", "vodafone")}},
			field: "category_id",
		},
		{
			name:  "category of another operator",
			req:   entity.IngestBatchRequest{OwnerID: 99, CategoryID: f.policyID, Records: []entity.IngestRecord{record("0101", "1", "vodafone")}},
			field: "category_id",
		},
		{
			name:  "blank recipient",
			req:   entity.IngestBatchRequest{OwnerID: operatorID, CategoryID: f.policyID, Records: []entity.IngestRecord{record("  ", "1", "vodafone")}},
			field: "records[0]",
		},
		{
			name:  "negative amount",
			req:   entity.IngestBatchRequest{OwnerID: operatorID, CategoryID: f.policyID, Records: []entity.IngestRecord{record("0101", "-5", "vodafone")}},
			field: "records[0]",
		},
		{
			name:  "sub-cent amount",
			req:   entity.IngestBatchRequest{OwnerID: operatorID, CategoryID: f.policyID, Records: []entity.IngestRecord{record("0101", "1.005", "vodafone")}},
			field: "records[0]",
		},
		{
			name:  "unknown issuer",
			req:   entity.IngestBatchRequest{OwnerID: operatorID, CategoryID: f.policyID, Records: []entity.IngestRecord{record("0101", "1", "we")}},
			field: "records[0]",
		},
		{
			name: "issuer outside the requested family",
			req: entity.IngestBatchRequest{OwnerID: operatorID, CategoryID: f.policyID, IssuerFamily: consts.FamilyWallet,
				Records: []entity.IngestRecord{record("0101", "1", "vodafone"), record("0102", "1", "aman")}},
			field: "records[1]",
		},
		{
			name:  "fraction on a whole-unit rail",
			req:   entity.IngestBatchRequest{OwnerID: operatorID, CategoryID: f.policyID, Records: []entity.IngestRecord{record("PK36SCBL0000001123456702", "100.50", "ibft")}},
			field: "records[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.usecase.IngestBatch(context.Background(), tt.req)
			var verr *entity.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestDispatchBatch_MixedIssuers(t *testing.T) {
	f := newFixture(t, "1000")
	batch := f.ingest(t,
		record("01011111111", "100", "vodafone"),
		record("01022222222", "150", "vodafone"),
		record("EG3800190005", "50", "bank_card"),
		record("01033333333", "20", "aman"),
	)
	f.authorize(t, batch.ID)

	summary, err := f.usecase.DispatchBatch(context.Background(), batch.ID, f.reviewer.ID)
	require.NoError(t, err)
	assert.True(t, summary.Disbursed)
	assert.Empty(t, summary.FailureReason)

	assert.Equal(t, entity.GroupOutcome{Issuer: "vodafone", Total: 2, Successful: 2}, summary.Groups["vodafone"])
	assert.Equal(t, entity.GroupOutcome{Issuer: "bank_card", Total: 1, InFlight: 1}, summary.Groups["bank_card"])
	assert.Equal(t, entity.GroupOutcome{Issuer: "aman", Total: 1, Failed: 1}, summary.Groups["aman"])

	// one wallet envelope for the whole issuer group, signed by a regular agent
	walletCalls := f.wallet.sent()
	require.Len(t, walletCalls, 1)
	assert.Len(t, walletCalls[0].Transfers, 2)
	require.NotNil(t, walletCalls[0].Agent)
	assert.NotEqual(t, f.superUser.ID, walletCalls[0].Agent.ID)

	// wallet settled, ach held on acceptance
	assert.Equal(t, "700.00", f.balance(t))

	trxList, err := f.dao.GetTransactionsByBatchID(batch.ID)
	require.NoError(t, err)
	require.Len(t, trxList, 4)
	byIssuer := map[string]model.Transaction{}
	for _, trx := range trxList {
		assert.NotEmpty(t, trx.UID)
		byIssuer[trx.Issuer] = trx
	}
	assert.Equal(t, consts.StatusBeingProcessed, byIssuer["bank_card"].Status)
	assert.True(t, byIssuer["bank_card"].LedgerHeld)
	assert.Equal(t, consts.StatusFailed, byIssuer["aman"].Status)
	assert.True(t, byIssuer["aman"].Unresolved)
	assert.Contains(t, byIssuer["aman"].Reason, "external provider error")

	stored, err := f.dao.GetBatchByID(batch.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDisbursed)
	assert.Equal(t, f.reviewer.ID, stored.DisbursedBy)

	_, err = f.usecase.DispatchBatch(context.Background(), batch.ID, f.reviewer.ID)
	assert.ErrorIs(t, err, entity.ErrBatchAlreadyDisbursed)

	result, err := f.usecase.GetBatchResult(context.Background(), batch.ID)
	require.NoError(t, err)
	assert.Equal(t, "authorized(1)", result.ApprovalState)
	assert.Equal(t, 2, result.StatusCounts["successful"])
	assert.Equal(t, 1, result.StatusCounts["being_processed"])
	assert.Equal(t, 1, result.StatusCounts["failed"])
	assert.Equal(t, "250", result.SuccessfulAmount.String())
	assert.Equal(t, "50", result.DisbursementRatio.String())
}

func TestDispatchBatch_RequiresAuthorization(t *testing.T) {
	f := newFixture(t, "1000")
	batch := f.ingest(t, record("01011111111", "100", "vodafone"))

	_, err := f.usecase.DispatchBatch(context.Background(), batch.ID, f.reviewer.ID)
	assert.ErrorIs(t, err, entity.ErrBatchNotAuthorized)

	f.authorize(t, batch.ID)
	_, err = f.usecase.DispatchBatch(context.Background(), batch.ID, f.stranger.ID)
	assert.ErrorIs(t, err, entity.ErrBatchNotAuthorized)

	trxList, err := f.dao.GetTransactionsByBatchID(batch.ID)
	require.NoError(t, err)
	assert.Empty(t, trxList)
	assert.Empty(t, f.wallet.sent())
}

func TestDispatchBatch_InProgress(t *testing.T) {
	f := newFixture(t, "1000")
	batch := f.ingest(t, record("01011111111", "100", "vodafone"))
	f.authorize(t, batch.ID)

	unlock, ok, err := f.locker.TryLock(context.Background(), batchKey(batch.ID))
	require.NoError(t, err)
	require.True(t, ok)
	defer unlock()

	_, err = f.usecase.DispatchBatch(context.Background(), batch.ID, f.reviewer.ID)
	assert.ErrorIs(t, err, entity.ErrDispatchInProgress)
}

func TestDispatchBatch_CumulativeBudgetPrecheck(t *testing.T) {
	f := newFixture(t, "250")
	batch := f.ingest(t,
		record("01011111111", "100", "vodafone"),
		record("01022222222", "100", "vodafone"),
		record("01033333333", "100", "vodafone"),
	)
	f.authorize(t, batch.ID)

	summary, err := f.usecase.DispatchBatch(context.Background(), batch.ID, f.reviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.GroupOutcome{Issuer: "vodafone", Total: 3, Successful: 2, Failed: 1}, summary.Groups["vodafone"])
	assert.Equal(t, "50.00", f.balance(t))

	walletCalls := f.wallet.sent()
	require.Len(t, walletCalls, 1)
	assert.Len(t, walletCalls[0].Transfers, 2)

	trxList, err := f.dao.GetTransactionsByBatchID(batch.ID)
	require.NoError(t, err)
	require.Len(t, trxList, 3)
	assert.Equal(t, consts.StatusFailed, trxList[2].Status)
	assert.Contains(t, trxList[2].Reason, "insufficient budget")
	assert.Equal(t, "50", trxList[2].BalanceBefore.String())
}

func TestDispatchBatch_CountsUnsettledTransfers(t *testing.T) {
	f := newFixture(t, "250")
	require.NoError(t, f.dao.CreateTransaction(&model.Transaction{
		UID:        "earlier",
		OperatorID: operatorID,
		Recipient:  "01099999999",
		Amount:     d("200"),
		Issuer:     "vodafone",
		Family:     consts.FamilyWallet,
		Status:     consts.StatusBeingProcessed,
	}))

	batch := f.ingest(t, record("01011111111", "100", "vodafone"))
	f.authorize(t, batch.ID)

	summary, err := f.usecase.DispatchBatch(context.Background(), batch.ID, f.reviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.GroupOutcome{Issuer: "vodafone", Total: 1, Failed: 1}, summary.Groups["vodafone"])
	assert.Empty(t, f.wallet.sent())
	assert.Equal(t, "250.00", f.balance(t))

	trxList, err := f.dao.GetTransactionsByBatchID(batch.ID)
	require.NoError(t, err)
	require.Len(t, trxList, 1)
	assert.Contains(t, trxList[0].Reason, "insufficient budget")
	assert.Equal(t, "50", trxList[0].BalanceBefore.String())
}

func TestDispatch_OverlappingDispatchesShareBudget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "100")
	f.wallet.entered = make(chan struct{})
	f.wallet.release = make(chan struct{})

	batch := f.ingest(t, record("01011111111", "80", "vodafone"))
	f.authorize(t, batch.ID)

	done := make(chan entity.DispatchSummary, 1)
	go func() {
		summary, err := f.usecase.DispatchBatch(ctx, batch.ID, f.reviewer.ID)
		assert.NoError(t, err)
		done <- summary
	}()
	<-f.wallet.entered

	// the batch transfer is with the provider and not debited yet
	trx, err := f.usecase.DispatchSingle(ctx, entity.InstantDisbursementRequest{
		OperatorID: operatorID, Recipient: "EG3800190005", Amount: d("50"), Issuer: "bank_wallet",
	})
	var shortage *entity.InsufficientBudgetError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, "20", shortage.Balance.String())
	require.NotNil(t, trx)
	assert.Equal(t, consts.StatusFailed, trx.Status)
	assert.Empty(t, f.ach.sent())

	close(f.wallet.release)
	summary := <-done
	assert.Equal(t, entity.GroupOutcome{Issuer: "vodafone", Total: 1, Successful: 1}, summary.Groups["vodafone"])
	assert.Equal(t, "20.00", f.balance(t))

	trxList, err := f.dao.GetTransactionsByBatchID(batch.ID)
	require.NoError(t, err)
	require.Len(t, trxList, 1)
	assert.Equal(t, consts.StatusSuccessful, trxList[0].Status)
	assert.NotContains(t, trxList[0].Reason, "ledger debit refused")

	// what is left after settlement can be sent
	trx, err = f.usecase.DispatchSingle(ctx, entity.InstantDisbursementRequest{
		OperatorID: operatorID, Recipient: "EG3800190005", Amount: d("20"), Issuer: "bank_wallet",
	})
	require.NoError(t, err)
	assert.Equal(t, consts.StatusBeingProcessed, trx.Status)
	assert.Equal(t, "0.00", f.balance(t))
}

func TestDispatchBatch_NoAgentsFailsWholeGroup(t *testing.T) {
	f := newFixture(t, "1000")
	batch := f.ingest(t,
		record("01011111111", "100", "etisalat"),
		record("01022222222", "100", "etisalat"),
	)
	f.authorize(t, batch.ID)

	summary, err := f.usecase.DispatchBatch(context.Background(), batch.ID, f.reviewer.ID)
	require.NoError(t, err)

	outcome := summary.Groups["etisalat"]
	assert.Equal(t, 2, outcome.Failed)
	assert.Contains(t, outcome.Err, entity.ErrNoAgentAvailable.Error())
	assert.Contains(t, summary.FailureReason, "all 2 transfers failed")
	assert.Empty(t, f.wallet.sent())
	assert.Equal(t, "1000.00", f.balance(t))
}

func TestDispatchSingle(t *testing.T) {
	ctx := context.Background()

	t.Run("sent", func(t *testing.T) {
		f := newFixture(t, "1000")
		trx, err := f.usecase.DispatchSingle(ctx, entity.InstantDisbursementRequest{
			OperatorID:  operatorID,
			Recipient:   "EG3800190005",
			Amount:      d("75"),
			Issuer:      "bank_wallet",
			ExtraFields: map[string]string{"full_name": "Mona Ali"},
		})
		require.NoError(t, err)
		assert.True(t, trx.IsSingleStep)
		assert.Zero(t, trx.BatchID)
		assert.Equal(t, consts.StatusBeingProcessed, trx.Status)
		assert.Equal(t, "925.00", f.balance(t))

		calls := f.ach.sent()
		require.Len(t, calls, 1)
		assert.Equal(t, "Mona Ali", calls[0].Transfers[0].ExtraFields["full_name"])
	})

	t.Run("refused by budget", func(t *testing.T) {
		f := newFixture(t, "10")
		trx, err := f.usecase.DispatchSingle(ctx, entity.InstantDisbursementRequest{
			OperatorID: operatorID, Recipient: "01011111111", Amount: d("75"), Issuer: "vodafone",
		})
		assert.True(t, entity.IsInsufficientBudget(err))
		require.NotNil(t, trx)
		assert.Equal(t, consts.StatusFailed, trx.Status)
		assert.Empty(t, f.wallet.sent())
	})

	t.Run("invalid", func(t *testing.T) {
		f := newFixture(t, "1000")
		for _, req := range []entity.InstantDisbursementRequest{
			{Recipient: "0101", Amount: d("1"), Issuer: "vodafone"},
			{OperatorID: operatorID, Amount: d("1"), Issuer: "vodafone"},
			{OperatorID: operatorID, Recipient: "0101", Amount: d("0"), Issuer: "vodafone"},
			{OperatorID: operatorID, Recipient: "0101", Amount: d("1"), Issuer: "unknown"},
			{OperatorID: operatorID, Recipient: "PK36SCBL0000001123456702", Amount: d("100.50"), Issuer: "ibft"},
		} {
			_, err := f.usecase.DispatchSingle(ctx, req)
			assert.True(t, entity.IsValidation(err), "request %+v", req)
		}
		assert.Equal(t, "1000.00", f.balance(t))
	})
}

func TestIngestBatch_WholeUnitRail(t *testing.T) {
	f := newFixture(t, "1000")

	batch := f.ingest(t, record("PK36SCBL0000001123456702", "100.00", "ibft"))
	assert.Equal(t, consts.FamilyOneLink, batch.IssuerFamily)
	assert.Equal(t, "100.00", batch.TotalAmount.StringFixed(2))
}

func TestAgentSelectors(t *testing.T) {
	agents := []model.Agent{
		{ID: 1, IsSuper: true},
		{ID: 2, LastUsedTime: 300},
		{ID: 3, LastUsedTime: 100},
		{ID: 4, LastUsedTime: 200},
	}

	t.Run("round robin", func(t *testing.T) {
		s, err := NewAgentSelector(consts.AgentSelectorRoundRobin)
		require.NoError(t, err)
		var picked []int64
		for i := 0; i < 4; i++ {
			a, err := s.Select("7:vodafone", agents)
			require.NoError(t, err)
			picked = append(picked, a.ID)
		}
		assert.Equal(t, []int64{2, 3, 4, 2}, picked)

		other, err := s.Select("7:orange", agents)
		require.NoError(t, err)
		assert.Equal(t, int64(2), other.ID)
	})

	t.Run("least recently used", func(t *testing.T) {
		s, err := NewAgentSelector(consts.AgentSelectorLRU)
		require.NoError(t, err)
		a, err := s.Select("7:vodafone", agents)
		require.NoError(t, err)
		assert.Equal(t, int64(3), a.ID)
	})

	t.Run("random never picks a super agent", func(t *testing.T) {
		s, err := NewAgentSelector("")
		require.NoError(t, err)
		seen := map[int64]bool{}
		for i := 0; i < 50; i++ {
			a, err := s.Select("7:vodafone", agents)
			require.NoError(t, err)
			seen[a.ID] = true
		}
		ids := make([]int, 0, len(seen))
		for id := range seen {
			ids = append(ids, int(id))
		}
		sort.Ints(ids)
		assert.NotContains(t, ids, 1)
	})

	t.Run("empty pool", func(t *testing.T) {
		for _, policy := range []string{consts.AgentSelectorRandom, consts.AgentSelectorRoundRobin, consts.AgentSelectorLRU} {
			s, err := NewAgentSelector(policy)
			require.NoError(t, err)
			_, err = s.Select("7:vodafone", agents[:1])
			assert.ErrorIs(t, err, entity.ErrNoAgentAvailable, policy)
		}
	})

	t.Run("unknown policy", func(t *testing.T) {
		_, err := NewAgentSelector("fastest")
		assert.Error(t, err)
	})
}
