package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signalist",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "signalist",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "signalist",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Cycle metrics ──────────────────────────────────────────────────────

var (
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signalist",
		Subsystem: "cycle",
		Name:      "total",
		Help:      "Total monitoring cycles by outcome (completed, aborted, skipped).",
	}, []string{"status"})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "signalist",
		Subsystem: "cycle",
		Name:      "duration_seconds",
		Help:      "Duration of one full evaluate-and-notify cycle.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	CycleLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "signalist",
		Subsystem: "cycle",
		Name:      "last_success_timestamp",
		Help:      "Unix timestamp of the last completed cycle.",
	})

	ActiveAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "signalist",
		Subsystem: "cycle",
		Name:      "active_alerts",
		Help:      "Number of active alerts considered by the last cycle.",
	})

	AlertsEvaluatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signalist",
		Subsystem: "cycle",
		Name:      "alerts_evaluated_total",
		Help:      "Alert evaluations by result (triggered, no_trigger, skipped, not_evaluated, suppressed).",
	}, []string{"result"})
)

// ── Snapshot fetch metrics ─────────────────────────────────────────────

var (
	SnapshotFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signalist",
		Subsystem: "snapshot",
		Name:      "fetch_total",
		Help:      "Total snapshot fetch attempts per status.",
	}, []string{"status"})

	SnapshotFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "signalist",
		Subsystem: "snapshot",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of a single snapshot fetch.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})
)

// ── Notification metrics ───────────────────────────────────────────────

var (
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signalist",
		Subsystem: "notify",
		Name:      "total",
		Help:      "Consolidated notifications by outcome (sent, failed).",
	}, []string{"status"})
)
