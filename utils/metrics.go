package utils

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lifecycleEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_lifecycle_events_total",
		Help: "Lifecycle events applied to the session mirror, by event kind",
	}, []string{"event"})
	reconnectAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_reconnect_attempts_total",
		Help: "Engine re-initialization attempts triggered by disconnects",
	})
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by path and status code",
	}, []string{"path", "status"})
)

func RecordLifecycleEvent(event string) {
	lifecycleEvents.WithLabelValues(event).Inc()
}

func IncrementReconnectAttempts() {
	reconnectAttempts.Inc()
}

func RecordHTTPRequest(path string, status int) {
	httpRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
}
