package disbursement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/radhian/payout-disbursement/infra/provider"
	"github.com/radhian/payout-disbursement/usecase/ledger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func batchKey(batchID int64) string {
	return fmt.Sprintf("batch:%d", batchID)
}

func dispatchKey(operatorID int64) string {
	return fmt.Sprintf("dispatch:%d", operatorID)
}

// DispatchBatch sends every transfer of an authorized batch. Issuer groups run in parallel and never
// affect each other; the batch is marked disbursed once all groups have reported.
func (u *disbursementUsecase) DispatchBatch(ctx context.Context, batchID, disburserID int64) (entity.DispatchSummary, error) {
	summary := entity.DispatchSummary{BatchID: batchID, Groups: make(map[string]entity.GroupOutcome)}

	unlock, ok, err := u.locker.TryLock(ctx, batchKey(batchID))
	if err != nil {
		return summary, err
	}
	if !ok {
		return summary, fmt.Errorf("batch %d: %w", batchID, entity.ErrDispatchInProgress)
	}
	defer unlock()

	batch, err := u.dao.GetBatchByID(batchID)
	if err != nil {
		return summary, err
	}
	if batch.IsDisbursed {
		return summary, fmt.Errorf("batch %d: %w", batchID, entity.ErrBatchAlreadyDisbursed)
	}

	eligibility, err := u.review.CanDisburse(ctx, disburserID, batchID)
	if err != nil {
		return summary, err
	}
	if !eligibility.Allowed {
		return summary, fmt.Errorf("%s: %w", eligibility.Reason, entity.ErrBatchNotAuthorized)
	}

	trxList, err := u.createTransactions(batch)
	if err != nil {
		return summary, err
	}
	log.Infof("[Dispatch] batch_id:%d disburser_id:%d transactions:%d", batchID, disburserID, len(trxList))

	ready, refused := u.precheck(ctx, batch.OwnerID, trxList)

	groups := make(map[string][]model.Transaction)
	for _, trx := range ready {
		groups[trx.Issuer] = append(groups[trx.Issuer], trx)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for issuer, group := range groups {
		issuer, group := issuer, group
		g.Go(func() error {
			outcome := u.dispatchGroup(ctx, batch.OwnerID, issuer, group)
			mu.Lock()
			summary.Groups[issuer] = outcome
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for issuer, n := range refused {
		outcome := summary.Groups[issuer]
		outcome.Issuer = issuer
		outcome.Total += n
		outcome.Failed += n
		summary.Groups[issuer] = outcome
	}

	final, err := u.dao.GetTransactionsByBatchID(batchID)
	if err != nil {
		return summary, err
	}

	now := u.now().Unix()
	batch.IsDisbursed = true
	batch.DisbursedBy = disburserID
	batch.FailureReason = failureReason(final, summary.Groups)
	batch.UpdateTime = now
	batch.UpdateBy = fmt.Sprintf("%d", disburserID)
	if err := u.dao.UpdateBatch(batch); err != nil {
		return summary, fmt.Errorf("failed to mark batch %d disbursed: %w", batchID, err)
	}

	summary.Disbursed = true
	summary.FailureReason = batch.FailureReason
	log.Infof("[Dispatch] batch_id:%d done groups:%d failure_reason:%q", batchID, len(summary.Groups), batch.FailureReason)
	return summary, nil
}

// createTransactions opens one pending transaction per record that has none yet. Transactions left
// from an interrupted dispatch are not sent again; the reconciliation worker resolves them.
func (u *disbursementUsecase) createTransactions(batch model.Batch) ([]model.Transaction, error) {
	records, err := u.dao.GetDisbursementRecordsByBatchID(batch.ID)
	if err != nil {
		return nil, err
	}
	existing, err := u.dao.GetTransactionsByBatchID(batch.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(existing))
	for _, trx := range existing {
		seen[trx.RecordID] = true
	}

	now := u.now().Unix()
	created := make([]model.Transaction, 0, len(records))
	for _, r := range records {
		if seen[r.ID] {
			continue
		}
		family, err := u.registry.Routing().FamilyOf(r.Issuer)
		if err != nil {
			return nil, err
		}

		trx := model.Transaction{
			UID:         uuid.NewString(),
			BatchID:     batch.ID,
			RecordID:    r.ID,
			OperatorID:  batch.OwnerID,
			Recipient:   r.Recipient,
			Amount:      r.Amount,
			Issuer:      r.Issuer,
			Family:      family,
			Status:      consts.StatusPending,
			ExtraFields: r.ExtraFields,
			CreateTime:  now,
			CreateBy:    consts.SourceDispatch,
			UpdateTime:  now,
			UpdateBy:    consts.SourceDispatch,
		}
		if err := u.dao.CreateTransaction(&trx); err != nil {
			return nil, err
		}
		created = append(created, trx)
	}
	return created, nil
}

// precheck reserves budget for each transaction in order and fails the ones that no longer fit.
// The operator's other unsettled transfers count as reserved, and the check runs under the operator's
// dispatch lock so concurrent dispatches see each other's pending rows.
func (u *disbursementUsecase) precheck(ctx context.Context, operatorID int64, trxList []model.Transaction) ([]model.Transaction, map[string]int) {
	var (
		ready   []model.Transaction
		refused map[string]int
	)
	err := u.locker.WithLock(ctx, dispatchKey(operatorID), func(ctx context.Context) error {
		var err error
		ready, refused, err = u.reserve(ctx, operatorID, trxList)
		return err
	})
	if err == nil {
		return ready, refused
	}

	log.Errorf("[Dispatch] operator_id:%d budget unavailable: %v", operatorID, err)
	refused = make(map[string]int)
	for _, trx := range trxList {
		u.fail(ctx, trx, fmt.Sprintf("budget unavailable: %v", err))
		refused[trx.Issuer]++
	}
	return nil, refused
}

func (u *disbursementUsecase) reserve(ctx context.Context, operatorID int64, trxList []model.Transaction) ([]model.Transaction, map[string]int, error) {
	budget, err := u.ledger.GetBudget(ctx, operatorID)
	if err != nil {
		return nil, nil, err
	}
	own := make(map[int64]bool, len(trxList))
	for _, trx := range trxList {
		own[trx.ID] = true
	}
	reservedAmount, reservedCost, err := u.outstanding(ctx, operatorID, own)
	if err != nil {
		return nil, nil, err
	}

	refused := make(map[string]int)
	ready := make([]model.Transaction, 0, len(trxList))
	for _, trx := range trxList {
		quote, err := u.ledger.Quote(ctx, operatorID, trx.Amount, trx.Issuer)
		if err != nil {
			u.fail(ctx, trx, err.Error())
			refused[trx.Issuer]++
			continue
		}
		if !ledger.Fits(budget, reservedAmount, reservedCost, quote) {
			if _, err := u.transition.MarkLedgerRefused(ctx, trx.ID, quote, budget.CurrentBalance.Sub(reservedCost)); err != nil {
				log.Errorf("[Dispatch] trx_id:%d could not record refusal: %v", trx.ID, err)
			}
			u.metrics.RecordDispatch(trx.Issuer, consts.LedgerEffectRefused)
			refused[trx.Issuer]++
			continue
		}
		reservedAmount = reservedAmount.Add(quote.Amount)
		reservedCost = reservedCost.Add(quote.Total)
		ready = append(ready, trx)
	}
	return ready, refused, nil
}

// outstanding sums amount and total cost of the operator's transfers that are in flight but not yet
// debited, leaving out the ones in skip.
func (u *disbursementUsecase) outstanding(ctx context.Context, operatorID int64, skip map[int64]bool) (decimal.Decimal, decimal.Decimal, error) {
	trxList, err := u.dao.GetUnsettledTransactions(operatorID)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to load unsettled transfers: %w", err)
	}
	amount, cost := decimal.Zero, decimal.Zero
	for _, trx := range trxList {
		if skip[trx.ID] {
			continue
		}
		quote, err := u.ledger.Quote(ctx, operatorID, trx.Amount, trx.Issuer)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		amount = amount.Add(quote.Amount)
		cost = cost.Add(quote.Total)
	}
	return amount, cost, nil
}

func (u *disbursementUsecase) dispatchGroup(ctx context.Context, operatorID int64, issuer string, trxList []model.Transaction) entity.GroupOutcome {
	outcome := entity.GroupOutcome{Issuer: issuer, Total: len(trxList)}

	channel, _, err := u.registry.ForIssuer(issuer)
	if err != nil {
		outcome.Err = err.Error()
		for _, trx := range trxList {
			countStatus(&outcome, u.fail(ctx, trx, err.Error()))
		}
		return outcome
	}

	if channel.Family() == consts.FamilyWallet {
		return u.dispatchWalletGroup(ctx, channel, operatorID, issuer, trxList, outcome)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(u.concurrency)
	for _, trx := range trxList {
		trx := trx
		g.Go(func() error {
			envelope := &entity.Envelope{Family: channel.Family(), Issuer: issuer, Transfers: []entity.Transfer{transferOf(trx)}}
			results := u.send(ctx, channel.Send, envelope, []model.Transaction{trx})
			mu.Lock()
			countStatus(&outcome, results[0])
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	log.Infof("[Dispatch] issuer:%s total:%d successful:%d in_flight:%d failed:%d",
		issuer, outcome.Total, outcome.Successful, outcome.InFlight, outcome.Failed)
	return outcome
}

// dispatchWalletGroup sends the whole group in one envelope signed by a single agent.
func (u *disbursementUsecase) dispatchWalletGroup(ctx context.Context, channel provider.Channel, operatorID int64, issuer string, trxList []model.Transaction, outcome entity.GroupOutcome) entity.GroupOutcome {
	agents, err := u.dao.GetAgents(operatorID, issuer)
	var agent model.Agent
	if err == nil {
		agent, err = u.agents.Select(fmt.Sprintf("%d:%s", operatorID, issuer), agents)
	}
	if err != nil {
		outcome.Err = err.Error()
		for _, trx := range trxList {
			countStatus(&outcome, u.fail(ctx, trx, err.Error()))
		}
		return outcome
	}

	envelope := &entity.Envelope{
		Family: channel.Family(),
		Issuer: issuer,
		Agent:  &entity.Agent{ID: agent.ID, MSISDN: agent.MSISDN, PIN: agent.PIN},
	}
	for _, trx := range trxList {
		envelope.Transfers = append(envelope.Transfers, transferOf(trx))
	}

	for _, status := range u.send(ctx, channel.Send, envelope, trxList) {
		countStatus(&outcome, status)
	}
	if err := u.dao.UpdateAgentLastUsed(agent.ID, u.now().Unix()); err != nil {
		log.Warnf("[Dispatch] agent_id:%d could not record last use: %v", agent.ID, err)
	}

	log.Infof("[Dispatch] issuer:%s agent_id:%d total:%d successful:%d in_flight:%d failed:%d",
		issuer, agent.ID, outcome.Total, outcome.Successful, outcome.InFlight, outcome.Failed)
	return outcome
}

type sendFunc func(ctx context.Context, envelope *entity.Envelope) ([]entity.ProviderResponse, error)

// send calls the rail and feeds every answer through the transition engine. It returns the resulting
// status of each transaction, in trxList order.
func (u *disbursementUsecase) send(ctx context.Context, send sendFunc, envelope *entity.Envelope, trxList []model.Transaction) []int {
	statuses := make([]int, len(trxList))

	responses, err := send(ctx, envelope)
	if err != nil {
		log.Errorf("[Dispatch] issuer:%s transfers:%d send failed: %v", envelope.Issuer, len(trxList), err)
		for i, trx := range trxList {
			statuses[i] = u.externalFailure(ctx, trx, err)
		}
		return statuses
	}

	byID := make(map[int64]entity.ProviderResponse, len(responses))
	for _, resp := range responses {
		byID[resp.TransactionID] = resp
	}

	for i, trx := range trxList {
		resp, ok := byID[trx.ID]
		if !ok {
			statuses[i] = u.externalFailure(ctx, trx, errors.New("no answer for transfer in provider response"))
			continue
		}

		got, err := u.transition.Apply(ctx, trx.ID, resp, consts.SourceDispatch)
		switch {
		case err == nil, errors.Is(err, entity.ErrStaleCodeIgnored):
			statuses[i] = got.Status
		default:
			log.Errorf("[Dispatch] trx_id:%d could not apply code %s: %v", trx.ID, resp.Code, err)
			statuses[i] = consts.StatusPending
		}
		u.metrics.RecordDispatch(trx.Issuer, consts.StatusName(statuses[i]))
	}
	return statuses
}

func (u *disbursementUsecase) externalFailure(ctx context.Context, trx model.Transaction, cause error) int {
	u.metrics.RecordDispatch(trx.Issuer, "external_error")
	if _, err := u.transition.MarkExternalFailure(ctx, trx.ID, cause); err != nil && !errors.Is(err, entity.ErrStaleCodeIgnored) {
		log.Errorf("[Dispatch] trx_id:%d could not record external failure: %v", trx.ID, err)
		return consts.StatusPending
	}
	return consts.StatusFailed
}

func (u *disbursementUsecase) fail(ctx context.Context, trx model.Transaction, reason string) int {
	u.metrics.RecordDispatch(trx.Issuer, "not_sent")
	if _, err := u.transition.MarkDispatchFailed(ctx, trx.ID, reason); err != nil && !errors.Is(err, entity.ErrStaleCodeIgnored) {
		log.Errorf("[Dispatch] trx_id:%d could not record failure: %v", trx.ID, err)
		return consts.StatusPending
	}
	return consts.StatusFailed
}

// failureReason is set only when nothing of the batch went through.
func failureReason(trxList []model.Transaction, groups map[string]entity.GroupOutcome) string {
	if len(trxList) == 0 {
		return ""
	}
	for _, trx := range trxList {
		if trx.Status != consts.StatusFailed {
			return ""
		}
	}

	var reasons []string
	for issuer, g := range groups {
		if g.Err != "" {
			reasons = append(reasons, fmt.Sprintf("%s: %s", issuer, g.Err))
		}
	}
	sort.Strings(reasons)

	reason := fmt.Sprintf("all %d transfers failed", len(trxList))
	if len(reasons) > 0 {
		reason += " (" + strings.Join(reasons, "; ") + ")"
	}
	return reason
}
