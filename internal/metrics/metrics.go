package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Trading metrics
	cyclesTotal        *prometheus.CounterVec
	cycleDuration      prometheus.Histogram
	lastCycle          prometheus.Gauge
	decisionsTotal     *prometheus.CounterVec
	rejectionsTotal    *prometheus.CounterVec
	tradesOpened       *prometheus.CounterVec
	tradesClosed       *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optdesk_http_requests_total",
				Help: "HTTP requests served by the daemon, by matched route",
			},
			[]string{"method", "route", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optdesk_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds, by matched route",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"method", "route"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "optdesk_http_requests_in_flight",
				Help: "HTTP requests currently being served",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optdesk_cycles_total",
			Help: "Total number of lifecycle cycles by result code",
		},
		[]string{"result"},
	)
	r.cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "optdesk_cycle_duration_seconds",
			Help:    "Lifecycle cycle duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
	r.lastCycle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "optdesk_last_cycle_timestamp_seconds",
			Help: "Unix time of the last completed cycle",
		},
	)
	r.decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optdesk_decisions_total",
			Help: "Total number of plan evaluations by decision",
		},
		[]string{"decision"},
	)
	r.rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optdesk_rejections_total",
			Help: "Total number of plans downgraded to NO_TRADE by gate category",
		},
		[]string{"category"},
	)
	r.tradesOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optdesk_trades_opened_total",
			Help: "Total number of trades entered",
		},
		[]string{"decision", "dry_run"},
	)
	r.tradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optdesk_trades_closed_total",
			Help: "Total number of trades closed by outcome",
		},
		[]string{"outcome"},
	)
	r.notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optdesk_notifications_total",
			Help: "Total number of trade notifications sent",
		},
		[]string{"notifier", "status"},
	)

	reg.MustRegister(r.cyclesTotal)
	reg.MustRegister(r.cycleDuration)
	reg.MustRegister(r.lastCycle)
	reg.MustRegister(r.decisionsTotal)
	reg.MustRegister(r.rejectionsTotal)
	reg.MustRegister(r.tradesOpened)
	reg.MustRegister(r.tradesClosed)
	reg.MustRegister(r.notificationsTotal)

	return r
}

// RecordRequest records one served request. route is the matched mux
// pattern, not the raw path, so dates and IDs do not become labels.
func (r *Registry) RecordRequest(method, route string, status int, duration time.Duration) {
	r.httpRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordCycle records a completed lifecycle cycle.
func (r *Registry) RecordCycle(result string, duration time.Duration, at time.Time) {
	r.cyclesTotal.WithLabelValues(result).Inc()
	r.cycleDuration.Observe(duration.Seconds())
	r.lastCycle.Set(float64(at.Unix()))
}

// RecordDecision records a plan evaluation. category is empty for plans
// that were not rejected.
func (r *Registry) RecordDecision(decision, category string) {
	r.decisionsTotal.WithLabelValues(decision).Inc()
	if category != "" {
		r.rejectionsTotal.WithLabelValues(category).Inc()
	}
}

// RecordTradeOpened records an entry.
func (r *Registry) RecordTradeOpened(decision string, dryRun bool) {
	r.tradesOpened.WithLabelValues(decision, boolLabel(dryRun)).Inc()
}

// RecordTradeClosed records an exit.
func (r *Registry) RecordTradeClosed(outcome string) {
	r.tradesClosed.WithLabelValues(outcome).Inc()
}

// RecordNotification records a notification attempt.
func (r *Registry) RecordNotification(notifier, status string) {
	r.notificationsTotal.WithLabelValues(notifier, status).Inc()
}

// WriteTextfile writes the current metric values in the text exposition
// format, for node_exporter's textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", status/100)
}
