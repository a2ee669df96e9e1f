package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "leobridge"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	actionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "actions_total",
			Help:      "Dispatched actions by outcome.",
		},
		[]string{"action", "outcome"},
	)
	actionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "action_duration_seconds",
			Help:      "Action handler duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"action"},
	)
	verifyRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verify",
			Name:      "runs_total",
			Help:      "Round-trip verifier sweeps by result.",
		},
		[]string{"ok"},
	)
	verifyPositions = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "verify",
			Name:      "positions",
			Help:      "Positions checked per verifier sweep.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
	verifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "verify",
			Name:      "duration_seconds",
			Help:      "Verifier sweep duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	sessionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Open client sessions.",
		},
		[]string{"transport"},
	)
	malformedFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "malformed_frames_total",
			Help:      "Inbound frames that could not be parsed.",
		},
		[]string{"transport"},
	)
	documentChanges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "external_changes_total",
			Help:      "Open documents modified on disk by another process.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			actionRequests, actionDuration,
			verifyRuns, verifyPositions, verifyDuration,
			sessionsActive, malformedFrames, documentChanges,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordAction(action, outcome string, duration time.Duration) {
	RegisterMetrics()
	actionRequests.WithLabelValues(action, outcome).Inc()
	actionDuration.WithLabelValues(action).Observe(duration.Seconds())
}

func RecordVerify(positions int, duration time.Duration, ok bool) {
	RegisterMetrics()
	verifyRuns.WithLabelValues(strconv.FormatBool(ok)).Inc()
	verifyPositions.Observe(float64(positions))
	if ok {
		verifyDuration.Observe(duration.Seconds())
	}
}

func SessionOpened(transport string) {
	RegisterMetrics()
	sessionsActive.WithLabelValues(transport).Inc()
}

func SessionClosed(transport string) {
	RegisterMetrics()
	sessionsActive.WithLabelValues(transport).Dec()
}

func RecordMalformedFrame(transport string) {
	RegisterMetrics()
	malformedFrames.WithLabelValues(transport).Inc()
}

func RecordDocumentChanged() {
	RegisterMetrics()
	documentChanges.Inc()
}
