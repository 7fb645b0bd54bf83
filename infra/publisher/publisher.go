package publisher

import (
	"context"
	"sync"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/entity"
)

// Publisher emits domain events to downstream observers.
type Publisher interface {
	PublishTransition(ctx context.Context, event entity.TransitionEvent) error
	PublishReviewNotice(ctx context.Context, notice entity.ReviewNotice) error
}

// LogPublisher writes events to the structured log only.
type LogPublisher struct{}

func (LogPublisher) PublishTransition(_ context.Context, event entity.TransitionEvent) error {
	log.Infoj(log.JSON{
		"event":          "transition",
		"event_id":       event.EventID,
		"transaction_id": event.TransactionID,
		"batch_id":       event.BatchID,
		"family":         event.Family,
		"source":         event.Source,
		"from":           event.FromStatus,
		"to":             event.ToStatus,
		"code":           event.Code,
		"ledger_effect":  event.LedgerEffect,
		"ignored":        event.Ignored,
	})
	return nil
}

func (LogPublisher) PublishReviewNotice(_ context.Context, notice entity.ReviewNotice) error {
	log.Infoj(log.JSON{
		"event":        "review_notice",
		"batch_id":     notice.BatchID,
		"operator_id":  notice.OperatorID,
		"reviewer_ids": notice.ReviewerIDs,
		"state":        notice.State,
	})
	return nil
}

// MemoryPublisher keeps every event in order; tests assert on it.
type MemoryPublisher struct {
	mu          sync.Mutex
	Transitions []entity.TransitionEvent
	Notices     []entity.ReviewNotice
}

func (m *MemoryPublisher) PublishTransition(_ context.Context, event entity.TransitionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transitions = append(m.Transitions, event)
	return nil
}

func (m *MemoryPublisher) PublishReviewNotice(_ context.Context, notice entity.ReviewNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notices = append(m.Notices, notice)
	return nil
}

// TransitionsFor returns the events emitted for one transaction.
func (m *MemoryPublisher) TransitionsFor(trxID int64) []entity.TransitionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []entity.TransitionEvent
	for _, e := range m.Transitions {
		if e.TransactionID == trxID {
			out = append(out, e)
		}
	}
	return out
}
