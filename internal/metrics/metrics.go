package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "goods"

// Metrics holds the order-core collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ordersCreated prometheus.Counter
	payments      *prometheus.CounterVec
	ledgerEntries *prometheus.CounterVec
	ledgerPoints  *prometheus.CounterVec
	clicks        *prometheus.CounterVec
	jobRuns       *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders persisted by checkout.",
		}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_payments_total",
			Help:      "Payment completion attempts by result.",
		}, []string{"result"}),
		ledgerEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_ledger_entries_total",
			Help:      "Ledger entries appended by direction.",
		}, []string{"direction"}),
		ledgerPoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_ledger_points_total",
			Help:      "Absolute points moved by direction.",
		}, []string{"direction"}),
		clicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_clicks_total",
			Help:      "Product click events by dedup result.",
		}, []string{"result"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job runs by job and result.",
		}, []string{"job", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Background job duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}
	reg.MustRegister(
		m.ordersCreated,
		m.payments,
		m.ledgerEntries,
		m.ledgerPoints,
		m.clicks,
		m.jobRuns,
		m.jobDuration,
	)
	return m
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *Metrics) Payment(result string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(result).Inc()
}

func (m *Metrics) LedgerEntry(direction string, amount int64) {
	if m == nil {
		return
	}
	if amount < 0 {
		amount = -amount
	}
	m.ledgerEntries.WithLabelValues(direction).Inc()
	m.ledgerPoints.WithLabelValues(direction).Add(float64(amount))
}

func (m *Metrics) Click(recorded bool) {
	if m == nil {
		return
	}
	result := "suppressed"
	if recorded {
		result = "recorded"
	}
	m.clicks.WithLabelValues(result).Inc()
}

func (m *Metrics) Job(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(name, result).Inc()
	m.jobDuration.WithLabelValues(name).Observe(d.Seconds())
}
