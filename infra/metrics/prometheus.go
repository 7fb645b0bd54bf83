package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector for Prometheus.
type PrometheusCollector struct {
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	circuitState    *prometheus.GaugeVec

	transitions   *prometheus.CounterVec
	ledgerEffects *prometheus.CounterVec

	dispatches       *prometheus.CounterVec
	reconcileResults *prometheus.CounterVec
	reconcileLatency prometheus.Histogram
}

func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_calls_total",
				Help:      "Total number of provider calls per family, operation and outcome",
			},
			[]string{"family", "op", "success"},
		),
		providerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_call_duration_seconds",
				Help:      "Provider call latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"family", "op"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_circuit_state",
				Help:      "Circuit breaker state per family (0=closed, 1=open, 2=half-open)",
			},
			[]string{"family"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transaction_transitions_total",
				Help:      "Status transitions per family, including ignored codes",
			},
			[]string{"family", "from", "to", "ignored"},
		),
		ledgerEffects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_effects_total",
				Help:      "Ledger effects applied (debit, hold, reverse, insufficient)",
			},
			[]string{"effect"},
		),
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatched_transactions_total",
				Help:      "Transactions handed to a channel per issuer and outcome",
			},
			[]string{"issuer", "outcome"},
		),
		reconcileResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_transactions_total",
				Help:      "Transactions handled by the reconciliation worker per result",
			},
			[]string{"result"},
		),
		reconcileLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reconcile_run_duration_seconds",
				Help:      "Duration of one reconciliation run",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// Register adds every metric to reg.
func (pc *PrometheusCollector) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pc.providerCalls,
		pc.providerLatency,
		pc.circuitState,
		pc.transitions,
		pc.ledgerEffects,
		pc.dispatches,
		pc.reconcileResults,
		pc.reconcileLatency,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (pc *PrometheusCollector) RecordProviderCall(family, op string, success bool, duration time.Duration) {
	pc.providerCalls.WithLabelValues(family, op, strconv.FormatBool(success)).Inc()
	pc.providerLatency.WithLabelValues(family, op).Observe(duration.Seconds())
}

func (pc *PrometheusCollector) RecordCircuitState(family string, state CircuitState) {
	pc.circuitState.WithLabelValues(family).Set(float64(state))
}

func (pc *PrometheusCollector) RecordTransition(family, from, to string, ignored bool) {
	pc.transitions.WithLabelValues(family, from, to, strconv.FormatBool(ignored)).Inc()
}

func (pc *PrometheusCollector) RecordLedgerEffect(effect string) {
	pc.ledgerEffects.WithLabelValues(effect).Inc()
}

func (pc *PrometheusCollector) RecordDispatch(issuer, outcome string) {
	pc.dispatches.WithLabelValues(issuer, outcome).Inc()
}

func (pc *PrometheusCollector) RecordReconcileRun(inquired, changed, errored int, duration time.Duration) {
	pc.reconcileResults.WithLabelValues("inquired").Add(float64(inquired))
	pc.reconcileResults.WithLabelValues("changed").Add(float64(changed))
	pc.reconcileResults.WithLabelValues("errored").Add(float64(errored))
	pc.reconcileLatency.Observe(duration.Seconds())
}
