package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OperationPreview     = "preview"
	OperationGenerate    = "generate"
	OperationRecalculate = "recalculate"
)

// EngineMetrics captures allocation and rollup health signals.
type EngineMetrics struct {
	allocationRuns     *prometheus.CounterVec
	allocationPayments *prometheus.CounterVec
	allocationDuration *prometheus.HistogramVec
	rollupRuns         prometheus.Counter
	rollupBalances     prometheus.Counter
	vouchersIssued     prometheus.Counter
}

var (
	engineMetricsOnce sync.Once
	engineMetrics     *EngineMetrics
)

// Engine returns the singleton metrics registry.
func Engine() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		m := &EngineMetrics{
			allocationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "bondledger_allocation_runs_total",
				Help: "Allocation engine runs by operation and event type.",
			}, []string{"operation", "event_type", "status"}),
			allocationPayments: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "bondledger_allocation_payments_total",
				Help: "Member payment rows produced by allocation runs.",
			}, []string{"event_type"}),
			allocationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "bondledger_allocation_duration_seconds",
				Help:    "Allocation run duration.",
				Buckets: prometheus.DefBuckets,
			}, []string{"operation"}),
			rollupRuns: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "bondledger_rollup_runs_total",
				Help: "Monthly balance rollup runs.",
			}),
			rollupBalances: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "bondledger_rollup_balances_total",
				Help: "Member balance rows written by rollup runs.",
			}),
			vouchersIssued: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "bondledger_vouchers_issued_total",
				Help: "Payment vouchers issued.",
			}),
		}

		prometheus.MustRegister(
			m.allocationRuns,
			m.allocationPayments,
			m.allocationDuration,
			m.rollupRuns,
			m.rollupBalances,
			m.vouchersIssued,
		)
		engineMetrics = m
	})
	return engineMetrics
}

func (m *EngineMetrics) ObserveAllocation(operation, eventType string, payments int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.allocationRuns.WithLabelValues(operation, eventType, status).Inc()
	m.allocationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err == nil && payments > 0 {
		m.allocationPayments.WithLabelValues(eventType).Add(float64(payments))
	}
}

func (m *EngineMetrics) ObserveRollup(balances int) {
	if m == nil {
		return
	}
	m.rollupRuns.Inc()
	if balances > 0 {
		m.rollupBalances.Add(float64(balances))
	}
}

func (m *EngineMetrics) VoucherIssued() {
	if m == nil {
		return
	}
	m.vouchersIssued.Inc()
}
