// Package mock is an in-memory DaoMethod for usecase tests.
package mock

import (
	"fmt"
	"sort"
	"sync"

	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/dao"
	"github.com/radhian/payout-disbursement/infra/db/model"
)

type Dao struct {
	mu     sync.Mutex
	nextID int64

	batches      map[int64]model.Batch
	records      map[int64]model.DisbursementRecord
	reviews      map[int64]model.Review
	policies     map[int64]model.ReviewPolicy
	reviewers    map[int64]model.Reviewer
	transactions map[int64]model.Transaction
	statusLogs   []model.TransactionStatusLog
	budgets      map[int64]model.Budget
	feeRules     []model.FeeRule
	agents       map[int64]model.Agent

	// UpdateTransactionErr, when set, fails every UpdateTransaction call.
	UpdateTransactionErr error
}

var _ dao.DaoMethod = (*Dao)(nil)

func New() *Dao {
	return &Dao{
		batches:      make(map[int64]model.Batch),
		records:      make(map[int64]model.DisbursementRecord),
		reviews:      make(map[int64]model.Review),
		policies:     make(map[int64]model.ReviewPolicy),
		reviewers:    make(map[int64]model.Reviewer),
		transactions: make(map[int64]model.Transaction),
		budgets:      make(map[int64]model.Budget),
		agents:       make(map[int64]model.Agent),
	}
}

func (d *Dao) id() int64 {
	d.nextID++
	return d.nextID
}

func notFound(what string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", what, id, entity.ErrNotFound)
}

func (d *Dao) CreateBatch(batch *model.Batch, records []model.DisbursementRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if batch.ID == 0 {
		batch.ID = d.id()
	}
	d.batches[batch.ID] = *batch
	for i := range records {
		records[i].ID = d.id()
		records[i].BatchID = batch.ID
		d.records[records[i].ID] = records[i]
	}
	return nil
}

func (d *Dao) GetBatchByID(batchID int64) (model.Batch, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	batch, ok := d.batches[batchID]
	if !ok {
		return batch, notFound("batch", batchID)
	}
	return batch, nil
}

func (d *Dao) UpdateBatch(batch model.Batch) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.batches[batch.ID] = batch
	return nil
}

func (d *Dao) MarkBatchHasCallback(batchID int64, updateTime int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	batch, ok := d.batches[batchID]
	if !ok {
		return nil
	}
	batch.HasCallback = true
	batch.UpdateTime = updateTime
	d.batches[batchID] = batch
	return nil
}

func (d *Dao) GetDisbursementRecordsByBatchID(batchID int64) ([]model.DisbursementRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []model.DisbursementRecord
	for _, r := range d.records {
		if r.BatchID == batchID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Dao) CreateReview(review *model.Review) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, r := range d.reviews {
		if r.BatchID == review.BatchID && r.ReviewerID == review.ReviewerID {
			return fmt.Errorf("duplicate review of batch %d by reviewer %d", review.BatchID, review.ReviewerID)
		}
	}
	review.ID = d.id()
	d.reviews[review.ID] = *review
	return nil
}

func (d *Dao) GetReviewsByBatchID(batchID int64) ([]model.Review, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []model.Review
	for _, r := range d.reviews {
		if r.BatchID == batchID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Dao) CreateReviewPolicy(policy *model.ReviewPolicy) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if policy.ID == 0 {
		policy.ID = d.id()
	}
	d.policies[policy.ID] = *policy
	return nil
}

func (d *Dao) GetReviewPolicyByID(policyID int64) (model.ReviewPolicy, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	policy, ok := d.policies[policyID]
	if !ok {
		return policy, notFound("review policy", policyID)
	}
	return policy, nil
}

func (d *Dao) CreateReviewer(reviewer *model.Reviewer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if reviewer.ID == 0 {
		reviewer.ID = d.id()
	}
	d.reviewers[reviewer.ID] = *reviewer
	return nil
}

func (d *Dao) GetReviewerByID(reviewerID int64) (model.Reviewer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	reviewer, ok := d.reviewers[reviewerID]
	if !ok {
		return reviewer, notFound("reviewer", reviewerID)
	}
	return reviewer, nil
}

func (d *Dao) GetReviewersByOperatorID(operatorID int64) ([]model.Reviewer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []model.Reviewer
	for _, r := range d.reviewers {
		if r.OperatorID == operatorID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (d *Dao) CreateTransaction(trx *model.Transaction) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	trx.ID = d.id()
	d.transactions[trx.ID] = *trx
	return nil
}

func (d *Dao) GetTransactionByID(trxID int64) (model.Transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	trx, ok := d.transactions[trxID]
	if !ok {
		return trx, notFound("transaction", trxID)
	}
	return trx, nil
}

func (d *Dao) GetTransactionByReference(reference string) (model.Transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var found *model.Transaction
	for _, trx := range d.transactions {
		if trx.UID != reference && (trx.ExternalReference == "" || trx.ExternalReference != reference) {
			continue
		}
		if found == nil || trx.ID < found.ID {
			t := trx
			found = &t
		}
	}
	if found == nil {
		return model.Transaction{}, notFound("transaction reference", reference)
	}
	return *found, nil
}

func (d *Dao) GetTransactionsByBatchID(batchID int64) ([]model.Transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []model.Transaction
	for _, trx := range d.transactions {
		if trx.BatchID == batchID {
			out = append(out, trx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Dao) GetUnsettledTransactions(operatorID int64) ([]model.Transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []model.Transaction
	for _, trx := range d.transactions {
		if trx.OperatorID != operatorID || trx.LedgerHeld {
			continue
		}
		if trx.Status == consts.StatusPending || trx.Status == consts.StatusBeingProcessed {
			out = append(out, trx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func lastTouched(trx model.Transaction) int64 {
	if trx.LastInquiryTime > trx.UpdateTime {
		return trx.LastInquiryTime
	}
	return trx.UpdateTime
}

func (d *Dao) GetStaleTransactions(family string, staleBefore int64, limit int) ([]model.Transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []model.Transaction
	for _, trx := range d.transactions {
		if trx.Family != family || lastTouched(trx) > staleBefore {
			continue
		}
		inFlight := trx.Status == consts.StatusPending || trx.Status == consts.StatusBeingProcessed
		if !inFlight && !(trx.Status == consts.StatusFailed && trx.Unresolved) {
			continue
		}
		if trx.BatchID != 0 {
			if batch, ok := d.batches[trx.BatchID]; ok && batch.HasCallback {
				continue
			}
		}
		out = append(out, trx)
	}
	sort.Slice(out, func(i, j int) bool {
		if lastTouched(out[i]) != lastTouched(out[j]) {
			return lastTouched(out[i]) < lastTouched(out[j])
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (d *Dao) MarkInquiryAttempt(trxID int64, attemptTime int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	trx, ok := d.transactions[trxID]
	if !ok {
		return notFound("transaction", trxID)
	}
	trx.LastInquiryTime = attemptTime
	d.transactions[trxID] = trx
	return nil
}

func (d *Dao) UpdateTransaction(trx model.Transaction, entry *model.TransactionStatusLog) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.UpdateTransactionErr != nil {
		return d.UpdateTransactionErr
	}
	d.transactions[trx.ID] = trx
	if entry != nil {
		entry.ID = d.id()
		entry.TransactionID = trx.ID
		d.statusLogs = append(d.statusLogs, *entry)
	}
	return nil
}

func (d *Dao) GetTransactionStatusLogs(trxID int64) ([]model.TransactionStatusLog, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []model.TransactionStatusLog
	for _, l := range d.statusLogs {
		if l.TransactionID == trxID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (d *Dao) CreateBudget(budget *model.Budget) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	budget.ID = d.id()
	d.budgets[budget.OperatorID] = *budget
	return nil
}

func (d *Dao) GetBudgetByOperatorID(operatorID int64) (model.Budget, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	budget, ok := d.budgets[operatorID]
	if !ok {
		return budget, notFound("budget of operator", operatorID)
	}
	return budget, nil
}

func (d *Dao) UpdateBudget(operatorID int64, mutate func(budget *model.Budget) error) (model.Budget, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	budget, ok := d.budgets[operatorID]
	if !ok {
		return budget, notFound("budget of operator", operatorID)
	}
	if err := mutate(&budget); err != nil {
		return d.budgets[operatorID], err
	}
	d.budgets[operatorID] = budget
	return budget, nil
}

func (d *Dao) CreateFeeRule(rule *model.FeeRule) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rule.ID = d.id()
	d.feeRules = append(d.feeRules, *rule)
	return nil
}

func (d *Dao) GetFeeRule(operatorID int64, issuer string) (model.FeeRule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := len(d.feeRules) - 1; i >= 0; i-- {
		rule := d.feeRules[i]
		if rule.OperatorID == operatorID && rule.Issuer == issuer {
			return rule, nil
		}
	}
	return model.FeeRule{}, notFound("fee rule for issuer", issuer)
}

func (d *Dao) CreateAgent(agent *model.Agent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	agent.ID = d.id()
	d.agents[agent.ID] = *agent
	return nil
}

func (d *Dao) GetAgents(operatorID int64, issuer string) ([]model.Agent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []model.Agent
	for _, a := range d.agents {
		if a.OperatorID == operatorID && a.Issuer == issuer && !a.IsSuper {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Dao) UpdateAgentLastUsed(agentID int64, usedTime int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.agents[agentID]
	if !ok {
		return notFound("agent", agentID)
	}
	a.LastUsedTime = usedTime
	d.agents[agentID] = a
	return nil
}
