package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	adminRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simbridge",
			Subsystem: "admin",
			Name:      "requests_total",
			Help:      "Admin HTTP requests by route and the bridge session state they observed.",
		},
		[]string{"method", "route", "session_state", "status"},
	)
	adminDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "simbridge",
			Subsystem: "admin",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	bridgeTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simbridge",
			Subsystem: "bridge",
			Name:      "ticks_total",
			Help:      "Host ticks seen by the bridge, split by whether a control message was due.",
		},
		[]string{"due"},
	)
	bridgeMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simbridge",
			Subsystem: "bridge",
			Name:      "messages_total",
			Help:      "Messages exchanged with the controller.",
		},
		[]string{"direction", "kind"},
	)
	bridgeFatal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simbridge",
			Subsystem: "bridge",
			Name:      "fatal_errors_total",
			Help:      "Session-ending failures by cause.",
		},
		[]string{"op", "cause"},
	)
	bridgeReceiveWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "simbridge",
			Subsystem: "bridge",
			Name:      "receive_wait_seconds",
			Help:      "Time the host blocked waiting for a controller request.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			adminRequests,
			adminDuration,
			bridgeTicks,
			bridgeMessages,
			bridgeFatal,
			bridgeReceiveWait,
		)
	})
}

func RecordAdminRequest(method, route, sessionState string, status int, duration time.Duration) {
	RegisterMetrics()
	if sessionState == "" {
		sessionState = "none"
	}
	adminRequests.WithLabelValues(method, route, sessionState, strconv.Itoa(status)).Inc()
	adminDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordTick(due bool) {
	RegisterMetrics()
	bridgeTicks.WithLabelValues(strconv.FormatBool(due)).Inc()
}

// RecordReceive counts one inbound message and how long the host waited for it.
func RecordReceive(kind string, wait time.Duration) {
	RegisterMetrics()
	bridgeMessages.WithLabelValues("in", kind).Inc()
	bridgeReceiveWait.Observe(wait.Seconds())
}

func RecordReply(kind string) {
	RegisterMetrics()
	bridgeMessages.WithLabelValues("out", kind).Inc()
}

func RecordFatal(op, cause string) {
	RegisterMetrics()
	bridgeFatal.WithLabelValues(op, cause).Inc()
}
