package transition

import (
	"context"
	"errors"
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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const operatorID = 7

type fixture struct {
	dao       *mock.Dao
	publisher *publisher.MemoryPublisher
	usecase   TransitionUsecase
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
	registry := provider.NewRegistry(routing,
		provider.NewWalletChannel(config.WalletConfig{}, nil),
		provider.NewACHChannel(config.ACHConfig{}, nil, nil),
	)

	m := mock.New()
	require.NoError(t, m.CreateBudget(&model.Budget{
		OperatorID:      operatorID,
		CurrentBalance:  d(balance),
		DisbursedAmount: decimal.Zero,
		MaxAmount:       d("100000"),
		VATRate:         d("0.14"),
	}))
	require.NoError(t, m.CreateFeeRule(&model.FeeRule{
		OperatorID: operatorID,
		Issuer:     "bank_card",
		FeeType:    consts.FeeTypeFixed,
		FixedValue: d("2"),
	}))

	lk := locker.New()
	pub := &publisher.MemoryPublisher{}
	l := ledger.NewLedgerUsecase(m, lk, nil, d("0.14"))

	return &fixture{
		dao:       m,
		publisher: pub,
		usecase:   NewTransitionUsecase(m, registry, l, lk, pub, nil),
	}
}

func (f *fixture) transaction(t *testing.T, issuer, family string, batchID int64) model.Transaction {
	t.Helper()
	trx := model.Transaction{
		UID:        "5f0c4a9e-3b1d-4c6e-9a77-0d1e2f3a4b5c",
		BatchID:    batchID,
		OperatorID: operatorID,
		Recipient:  "01012345678",
		Amount:     d("100"),
		Issuer:     issuer,
		Family:     family,
		Status:     consts.StatusPending,
		CreateBy:   "tester",
		UpdateBy:   "tester",
	}
	require.NoError(t, f.dao.CreateTransaction(&trx))
	return trx
}

func (f *fixture) balance(t *testing.T) string {
	t.Helper()
	budget, err := f.dao.GetBudgetByOperatorID(operatorID)
	require.NoError(t, err)
	return budget.CurrentBalance.StringFixed(2)
}

func (f *fixture) apply(t *testing.T, trxID int64, code, source string) (*model.Transaction, error) {
	t.Helper()
	return f.usecase.Apply(context.Background(), trxID, entity.ProviderResponse{TransactionID: trxID, Code: code}, source)
}

func TestApply_WalletSuccessDebitsOnce(t *testing.T) {
	f := newFixture(t, "1000")
	trx := f.transaction(t, "vodafone", consts.FamilyWallet, 0)

	got, err := f.apply(t, trx.ID, "200", consts.SourceDispatch)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusSuccessful, got.Status)
	assert.Equal(t, "SUCCESS", got.Reason)
	assert.True(t, got.LedgerHeld)
	assert.Equal(t, "900.00", f.balance(t))

	// same code delivered again by the callback a few minutes later
	got, err = f.apply(t, trx.ID, "200", consts.SourceCallback)
	assert.ErrorIs(t, err, entity.ErrStaleCodeIgnored)
	assert.Equal(t, consts.StatusSuccessful, got.Status)
	assert.Equal(t, "900.00", f.balance(t))

	logs, err := f.dao.GetTransactionStatusLogs(trx.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	events := f.publisher.TransitionsFor(trx.ID)
	require.Len(t, events, 2)
	assert.Equal(t, consts.LedgerEffectDebit, events[0].LedgerEffect)
	assert.False(t, events[0].Ignored)
	assert.True(t, events[1].Ignored)
	assert.NotEqual(t, events[0].EventID, events[1].EventID)
}

func TestApply_RejectedThenSuccessfulNeverDebits(t *testing.T) {
	f := newFixture(t, "1000")
	trx := f.transaction(t, "bank_card", consts.FamilyACH, 0)

	got, err := f.apply(t, trx.ID, "000001", consts.SourceCallback)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusRejected, got.Status)

	got, err = f.apply(t, trx.ID, "8222", consts.SourceCallback)
	assert.ErrorIs(t, err, entity.ErrStaleCodeIgnored)
	assert.Equal(t, consts.StatusRejected, got.Status)
	assert.False(t, got.LedgerHeld)
	assert.Equal(t, "1000.00", f.balance(t))
}

func TestApply_ACHHoldThenReturnReversesOnce(t *testing.T) {
	f := newFixture(t, "1000")
	trx := f.transaction(t, "bank_card", consts.FamilyACH, 0)

	got, err := f.apply(t, trx.ID, "8111", consts.SourceDispatch)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusBeingProcessed, got.Status)
	assert.True(t, got.LedgerHeld)
	assert.Equal(t, "2", got.Fees.String())
	assert.Equal(t, "0.28", got.VAT.String())
	assert.Equal(t, "897.72", f.balance(t))

	got, err = f.apply(t, trx.ID, "000100", consts.SourceReconciliation)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusReturned, got.Status)
	assert.True(t, got.LedgerReversed)
	assert.NotZero(t, got.LastInquiryTime)
	assert.Equal(t, "1000.00", f.balance(t))

	_, err = f.apply(t, trx.ID, "000101", consts.SourceCallback)
	assert.ErrorIs(t, err, entity.ErrStaleCodeIgnored)
	_, err = f.apply(t, trx.ID, "8222", consts.SourceCallback)
	assert.ErrorIs(t, err, entity.ErrStaleCodeIgnored)
	assert.Equal(t, "1000.00", f.balance(t))
}

func TestApply_ACHHeldThenSuccessfulDoesNotDebitAgain(t *testing.T) {
	f := newFixture(t, "1000")
	trx := f.transaction(t, "bank_card", consts.FamilyACH, 0)

	_, err := f.apply(t, trx.ID, "8111", consts.SourceDispatch)
	require.NoError(t, err)
	got, err := f.apply(t, trx.ID, "8222", consts.SourceReconciliation)
	require.NoError(t, err)

	assert.Equal(t, consts.StatusSuccessful, got.Status)
	assert.Equal(t, "897.72", f.balance(t))
}

func TestApply_IgnoredCodes(t *testing.T) {
	tests := []struct {
		name   string
		setup  []string
		code   string
		source string
		want   int
	}{
		{
			name:   "unknown code on inquiry",
			setup:  []string{"8111"},
			code:   "9999",
			source: consts.SourceReconciliation,
			want:   consts.StatusBeingProcessed,
		},
		{
			name:   "unknown code on callback",
			code:   "9999",
			source: consts.SourceCallback,
			want:   consts.StatusPending,
		},
		{
			name:   "regression to pending",
			setup:  []string{"8111"},
			code:   "8000",
			source: consts.SourceReconciliation,
			want:   consts.StatusBeingProcessed,
		},
		{
			name:   "terminal absorbs other terminal",
			setup:  []string{"8001"},
			code:   "000001",
			source: consts.SourceCallback,
			want:   consts.StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "1000")
			trx := f.transaction(t, "bank_card", consts.FamilyACH, 0)
			for _, code := range tt.setup {
				_, err := f.apply(t, trx.ID, code, consts.SourceDispatch)
				require.NoError(t, err)
			}
			before := f.balance(t)
			logsBefore, _ := f.dao.GetTransactionStatusLogs(trx.ID)

			got, err := f.apply(t, trx.ID, tt.code, tt.source)
			assert.ErrorIs(t, err, entity.ErrStaleCodeIgnored)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, before, f.balance(t))

			logsAfter, _ := f.dao.GetTransactionStatusLogs(trx.ID)
			assert.Len(t, logsAfter, len(logsBefore))
		})
	}
}

func TestApply_UnknownCodeOnDispatchFails(t *testing.T) {
	f := newFixture(t, "1000")
	trx := f.transaction(t, "vodafone", consts.FamilyWallet, 0)

	got, err := f.usecase.Apply(context.Background(), trx.ID, entity.ProviderResponse{
		TransactionID: trx.ID,
		Code:          "4242",
		Message:       "agent not registered",
	}, consts.SourceDispatch)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusFailed, got.Status)
	assert.Equal(t, "agent not registered", got.Reason)
	assert.Equal(t, "1000.00", f.balance(t))
}

func TestMarkExternalFailure_CorrectedByInquiry(t *testing.T) {
	f := newFixture(t, "1000")
	trx := f.transaction(t, "vodafone", consts.FamilyWallet, 0)
	ctx := context.Background()

	got, err := f.usecase.MarkExternalFailure(ctx, trx.ID, errors.New("timeout"))
	require.NoError(t, err)
	assert.Equal(t, consts.StatusFailed, got.Status)
	assert.True(t, got.Unresolved)
	assert.Equal(t, "external provider error: timeout", got.Reason)

	got, err = f.apply(t, trx.ID, "200", consts.SourceReconciliation)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusSuccessful, got.Status)
	assert.False(t, got.Unresolved)
	assert.Equal(t, "900.00", f.balance(t))

	_, err = f.usecase.MarkExternalFailure(ctx, trx.ID, errors.New("late timeout"))
	assert.ErrorIs(t, err, entity.ErrStaleCodeIgnored)
}

func TestMarkLedgerRefused(t *testing.T) {
	f := newFixture(t, "50")
	trx := f.transaction(t, "bank_card", consts.FamilyACH, 0)

	quote := entity.FeeQuote{Amount: d("100"), Issuer: "bank_card", Fees: d("2"), VAT: d("0.28"), Total: d("102.28")}
	got, err := f.usecase.MarkLedgerRefused(context.Background(), trx.ID, quote, d("50"))
	require.NoError(t, err)

	assert.Equal(t, consts.StatusFailed, got.Status)
	assert.False(t, got.Unresolved)
	assert.Contains(t, got.Reason, "insufficient budget for operator 7")
	assert.Equal(t, "2", got.Fees.String())
	assert.Equal(t, "50", got.BalanceBefore.String())
	assert.Equal(t, "50.00", f.balance(t))
}

func TestApply_SettledButLedgerRefused(t *testing.T) {
	f := newFixture(t, "50")
	trx := f.transaction(t, "vodafone", consts.FamilyWallet, 0)

	got, err := f.apply(t, trx.ID, "200", consts.SourceCallback)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusSuccessful, got.Status)
	assert.False(t, got.LedgerHeld)
	assert.Contains(t, got.Reason, "ledger debit refused")
	assert.Equal(t, "50.00", f.balance(t))

	events := f.publisher.TransitionsFor(trx.ID)
	require.Len(t, events, 1)
	assert.Equal(t, consts.LedgerEffectRefused, events[0].LedgerEffect)
}

func TestApply_CompensatesWhenSaveFails(t *testing.T) {
	f := newFixture(t, "1000")
	trx := f.transaction(t, "vodafone", consts.FamilyWallet, 0)
	f.dao.UpdateTransactionErr = errors.New("connection reset")

	_, err := f.apply(t, trx.ID, "200", consts.SourceCallback)
	require.Error(t, err)
	assert.Equal(t, "1000.00", f.balance(t))

	stored, err := f.dao.GetTransactionByID(trx.ID)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusPending, stored.Status)

	// the retried delivery succeeds once the database is back
	f.dao.UpdateTransactionErr = nil
	got, err := f.apply(t, trx.ID, "200", consts.SourceCallback)
	require.NoError(t, err)
	assert.Equal(t, consts.StatusSuccessful, got.Status)
	assert.Equal(t, "900.00", f.balance(t))
}

func TestHandleCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("wallet native body", func(t *testing.T) {
		f := newFixture(t, "1000")
		batch := model.Batch{OwnerID: operatorID, IssuerFamily: consts.FamilyWallet}
		require.NoError(t, f.dao.CreateBatch(&batch, nil))
		trx := f.transaction(t, "vodafone", consts.FamilyWallet, batch.ID)

		body := []byte(`{"TXNID":"` + trx.UID + `","TXNSTATUS":"0","MESSAGE":"done"}`)
		got, err := f.usecase.HandleCallback(ctx, consts.FamilyWallet, body)
		require.NoError(t, err)
		assert.Equal(t, consts.StatusSuccessful, got.Status)
		assert.Equal(t, consts.SourceCallback, got.UpdateBy)

		stored, err := f.dao.GetBatchByID(batch.ID)
		require.NoError(t, err)
		assert.True(t, stored.HasCallback)

		_, err = f.usecase.HandleCallback(ctx, consts.FamilyWallet, body)
		assert.ErrorIs(t, err, entity.ErrStaleCodeIgnored)
		assert.Equal(t, "900.00", f.balance(t))
	})

	t.Run("wrong rail", func(t *testing.T) {
		f := newFixture(t, "1000")
		trx := f.transaction(t, "vodafone", consts.FamilyWallet, 0)

		body := []byte(`{"transaction_reference":"` + trx.UID + `","status_code":"8222"}`)
		_, err := f.usecase.HandleCallback(ctx, consts.FamilyACH, body)
		assert.True(t, entity.IsValidation(err))
	})

	t.Run("unknown reference", func(t *testing.T) {
		f := newFixture(t, "1000")
		body := []byte(`{"transaction_reference":"missing","status_code":"200"}`)
		_, err := f.usecase.HandleCallback(ctx, consts.FamilyWallet, body)
		assert.ErrorIs(t, err, entity.ErrNotFound)
	})

	t.Run("unregistered family", func(t *testing.T) {
		f := newFixture(t, "1000")
		_, err := f.usecase.HandleCallback(ctx, consts.FamilyAman, []byte(`{}`))
		assert.ErrorIs(t, err, entity.ErrUnknownFamily)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newFixture(t, "1000")
		_, err := f.usecase.HandleCallback(ctx, consts.FamilyWallet, []byte(`not json`))
		assert.True(t, entity.IsValidation(err))
	})
}

func TestDecide(t *testing.T) {
	tables, err := config.LoadProviderTables("")
	require.NoError(t, err)
	routing, err := provider.NewRouting(tables)
	require.NoError(t, err)
	ach, err := routing.Table(consts.FamilyACH)
	require.NoError(t, err)

	held := model.Transaction{Status: consts.StatusBeingProcessed, StatusCode: "8111", LedgerHeld: true}
	assert.Equal(t, consts.LedgerEffectReverse, ledgerEffect(held, ach, consts.StatusRejected))
	assert.Equal(t, "", ledgerEffect(held, ach, consts.StatusSuccessful))

	reversed := held
	reversed.LedgerReversed = true
	assert.Equal(t, "", ledgerEffect(reversed, ach, consts.StatusReturned))

	pending := model.Transaction{Status: consts.StatusPending}
	assert.Equal(t, consts.LedgerEffectHold, ledgerEffect(pending, ach, consts.StatusBeingProcessed))
	assert.Equal(t, consts.LedgerEffectDebit, ledgerEffect(pending, ach, consts.StatusSuccessful))
	assert.Equal(t, "", ledgerEffect(pending, ach, consts.StatusFailed))

	assert.Equal(t, ignoreRepeatedCode, decide(held, ach, "8111", consts.SourceCallback).ignore)
	assert.Equal(t, consts.StatusSuccessful, decide(held, ach, "8222", consts.SourceCallback).to)
}

func TestMarkDispatchFailed(t *testing.T) {
	f := newFixture(t, "1000")
	trx := f.transaction(t, "vodafone", consts.FamilyWallet, 0)

	got, err := f.usecase.MarkDispatchFailed(context.Background(), trx.ID, "no eligible wallet agent")
	require.NoError(t, err)
	assert.Equal(t, consts.StatusFailed, got.Status)
	assert.False(t, got.Unresolved)

	// a plain dispatch failure is final, inquiry results do not revive it
	_, err = f.apply(t, trx.ID, "200", consts.SourceReconciliation)
	assert.ErrorIs(t, err, entity.ErrStaleCodeIgnored)
	assert.Equal(t, "1000.00", f.balance(t))
}
