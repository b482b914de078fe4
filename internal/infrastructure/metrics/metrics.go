package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voucherledger"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Voucher metrics
	VoucherOperations *prometheus.CounterVec

	// Merge metrics
	MergesCompleted prometheus.Counter
	MergesFailed    prometheus.Counter
	VouchersMoved   prometheus.Histogram

	// Report metrics
	ReportDuration *prometheus.HistogramVec

	// API metrics
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		VoucherOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "voucher_operations_total",
				Help:      "Total voucher operations by type",
			},
			[]string{"operation"},
		),

		MergesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_completed_total",
			Help:      "Total number of vehicle merges committed",
		}),
		MergesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_failed_total",
			Help:      "Total number of vehicle merges rolled back",
		}),
		VouchersMoved: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_vouchers_moved",
			Help:      "Vouchers re-pointed per merge",
			Buckets:   []float64{0, 1, 10, 100, 1000, 10000},
		}),

		ReportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_duration_seconds",
				Help:      "Duration of report generation",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"report"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// VoucherOperation counts a voucher create, update or delete.
func (m *Metrics) VoucherOperation(op string) {
	m.VoucherOperations.WithLabelValues(op).Inc()
}

// MergeCompleted records a committed merge.
func (m *Metrics) MergeCompleted(vouchersMoved int64) {
	m.MergesCompleted.Inc()
	m.VouchersMoved.Observe(float64(vouchersMoved))
}

// MergeFailed records a rolled back merge.
func (m *Metrics) MergeFailed() {
	m.MergesFailed.Inc()
}

// ObserveReport records how long a report took.
func (m *Metrics) ObserveReport(report string, d time.Duration) {
	m.ReportDuration.WithLabelValues(report).Observe(d.Seconds())
}
