package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics tracks transaction throughput and escrow lifecycle activity.
type LedgerMetrics struct {
	transactions *prometheus.CounterVec
	instructions *prometheus.CounterVec
	latency      prometheus.Histogram
	escrows      *prometheus.CounterVec
	openEscrows  prometheus.Gauge
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the process-wide ledger metrics, registering them with the
// default Prometheus registry on first use.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "escrowswap",
				Subsystem: "ledger",
				Name:      "transactions_total",
				Help:      "Count of executed transactions by outcome.",
			}, []string{"outcome"}),
			instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "escrowswap",
				Subsystem: "ledger",
				Name:      "instructions_total",
				Help:      "Count of top-level instructions by program and result.",
			}, []string{"program", "result"}),
			latency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "escrowswap",
				Subsystem: "ledger",
				Name:      "transaction_duration_seconds",
				Help:      "Time spent executing a transaction, including commit.",
				Buckets:   prometheus.DefBuckets,
			}),
			escrows: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "escrowswap",
				Subsystem: "escrow",
				Name:      "transitions_total",
				Help:      "Count of committed escrow transitions by kind.",
			}, []string{"transition"}),
			openEscrows: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "escrowswap",
				Subsystem: "escrow",
				Name:      "open",
				Help:      "Escrows currently open, seeded from the index at startup.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.transactions,
			ledgerRegistry.instructions,
			ledgerRegistry.latency,
			ledgerRegistry.escrows,
			ledgerRegistry.openEscrows,
		)
	})
	return ledgerRegistry
}

func (m *LedgerMetrics) ObserveTransaction(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.transactions.WithLabelValues(outcome).Inc()
	m.latency.Observe(elapsed.Seconds())
}

func (m *LedgerMetrics) ObserveInstruction(program, result string) {
	if m == nil {
		return
	}
	m.instructions.WithLabelValues(program, result).Inc()
}

// SetOpenEscrows seeds the open escrow gauge, typically from the index when
// the process starts. Later transitions move it from there.
func (m *LedgerMetrics) SetOpenEscrows(n int64) {
	if m == nil {
		return
	}
	m.openEscrows.Set(float64(n))
}

// ObserveEscrowTransition records a committed make, take or refund.
func (m *LedgerMetrics) ObserveEscrowTransition(transition string) {
	if m == nil {
		return
	}
	m.escrows.WithLabelValues(transition).Inc()
	switch transition {
	case "made":
		m.openEscrows.Inc()
	case "taken", "refunded":
		m.openEscrows.Dec()
	}
}
