package metrics

import (
	"time"
)

// Collector records disbursement metrics. Implementations export to a backend such as Prometheus.
type Collector interface {
	// Channel adapters
	RecordProviderCall(family, op string, success bool, duration time.Duration)
	RecordCircuitState(family string, state CircuitState)

	// Transition engine and ledger
	RecordTransition(family, from, to string, ignored bool)
	RecordLedgerEffect(effect string)

	// Router and reconciliation worker
	RecordDispatch(issuer, outcome string)
	RecordReconcileRun(inquired, changed, errored int, duration time.Duration)
}

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOpCollector is used when metrics are not wired.
type NoOpCollector struct{}

func (NoOpCollector) RecordProviderCall(family, op string, success bool, duration time.Duration) {}

func (NoOpCollector) RecordCircuitState(family string, state CircuitState) {}

func (NoOpCollector) RecordTransition(family, from, to string, ignored bool) {}

func (NoOpCollector) RecordLedgerEffect(effect string) {}

func (NoOpCollector) RecordDispatch(issuer, outcome string) {}

func (NoOpCollector) RecordReconcileRun(inquired, changed, errored int, duration time.Duration) {}
