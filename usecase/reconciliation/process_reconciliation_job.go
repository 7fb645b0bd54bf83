package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
)

type inquiryOutcome int

const (
	outcomeChanged inquiryOutcome = iota
	outcomeUnchanged
	outcomeSkipped
	outcomeErrored
)

// ProcessReconciliationJob asks the providers about every stale transaction once and applies the
// answers. A failed inquiry leaves the transaction as it was; the next run asks again.
func (u *reconciliationUsecase) ProcessReconciliationJob(ctx context.Context) (result entity.JobResult, err error) {
	start := u.now()
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[ReconcileJob] Panic recovered: %v", r)
			err = fmt.Errorf("reconciliation job panicked: %v", r)
		}
	}()

	candidates, err := u.ScanStale(ctx, start)
	if err != nil {
		log.Errorf("[ReconcileJob] Could not scan stale transactions: %v", err)
		return result, err
	}
	result.Scanned = len(candidates)

	for _, trx := range candidates {
		if ctx.Err() != nil {
			log.Warnf("[ReconcileJob] Stopping early: %v", ctx.Err())
			break
		}

		switch u.claimAndReconcile(ctx, trx) {
		case outcomeChanged:
			result.Inquired++
			result.Changed++
		case outcomeUnchanged:
			result.Inquired++
			result.Unchanged++
		case outcomeSkipped:
			result.Skipped++
		case outcomeErrored:
			result.Errored++
		}
	}

	u.metrics.RecordReconcileRun(result.Inquired, result.Changed, result.Errored, u.now().Sub(start))
	log.Infof("[ReconcileJob] Done scanned=%d inquired=%d changed=%d unchanged=%d skipped=%d errored=%d",
		result.Scanned, result.Inquired, result.Changed, result.Unchanged, result.Skipped, result.Errored)
	return result, nil
}

func (u *reconciliationUsecase) claimAndReconcile(ctx context.Context, trx model.Transaction) inquiryOutcome {
	unlock, ok, err := u.TryAcquireLock(ctx, trx.ID)
	if err != nil {
		log.Errorf("[ReconcileJob] trx_id:%d lock failed: %v", trx.ID, err)
		return outcomeErrored
	}
	if !ok {
		return outcomeSkipped
	}
	defer unlock()

	if err := u.dao.MarkInquiryAttempt(trx.ID, u.now().Unix()); err != nil {
		log.Warnf("[ReconcileJob] trx_id:%d %v", trx.ID, err)
	}
	return u.reconcile(ctx, trx)
}

func (u *reconciliationUsecase) reconcile(ctx context.Context, trx model.Transaction) inquiryOutcome {
	channel, _, err := u.registry.Channel(trx.Family)
	if err != nil {
		log.Errorf("[Reconcile] trx_id:%d %v", trx.ID, err)
		return outcomeErrored
	}

	resp, err := channel.Inquire(ctx, &entity.InquiryRequest{
		TransactionID:     trx.ID,
		UID:               trx.UID,
		Issuer:            trx.Issuer,
		ExternalReference: trx.ExternalReference,
		Extra:             extraFields(trx),
	})
	if errors.Is(err, entity.ErrInquiryUnsupported) {
		log.Debugf("[Reconcile] trx_id:%d family:%s has no inquiry", trx.ID, trx.Family)
		return outcomeSkipped
	}
	if err != nil {
		log.Warnf("[Reconcile] trx_id:%d family:%s inquiry failed: %v", trx.ID, trx.Family, err)
		return outcomeErrored
	}
	resp.TransactionID = trx.ID

	updated, err := u.transition.Apply(ctx, trx.ID, resp, consts.SourceReconciliation)
	switch {
	case errors.Is(err, entity.ErrStaleCodeIgnored):
		return outcomeUnchanged
	case err != nil:
		log.Errorf("[Reconcile] trx_id:%d could not apply code %s: %v", trx.ID, resp.Code, err)
		return outcomeErrored
	}

	log.Infof("[Reconcile] trx_id:%d family:%s code:%s %s -> %s", trx.ID, trx.Family, resp.Code,
		consts.StatusName(trx.Status), consts.StatusName(updated.Status))
	return outcomeChanged
}

func extraFields(trx model.Transaction) map[string]string {
	if trx.ExtraFields == "" {
		return nil
	}
	fields := make(map[string]string)
	if err := json.Unmarshal([]byte(trx.ExtraFields), &fields); err != nil {
		return nil
	}
	return fields
}
