package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmate_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchmate_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	matchOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmate_match_outcomes_total",
			Help: "Match creation attempts by outcome.",
		},
		[]string{"outcome"},
	)
	searchResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmate_search_results_total",
			Help: "Candidate searches by resulting state.",
		},
		[]string{"state"},
	)
	messagesSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmate_messages_sent_total",
			Help: "Total number of chat messages stored.",
		},
	)
	queueReleasedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmate_queue_released_total",
			Help: "Queue entries moved back to waiting by the release job.",
		},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchmate_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmate_ws_events_total",
			Help: "Total number of websocket events pushed to clients.",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		matchOutcomesTotal,
		searchResultsTotal,
		messagesSentTotal,
		queueReleasedTotal,
		wsActiveConnections,
		wsEventsTotal,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveHTTP(method, route, status string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(seconds)
}

func IncMatchOutcome(outcome string) {
	matchOutcomesTotal.WithLabelValues(outcome).Inc()
}

func IncSearchResult(state string) {
	searchResultsTotal.WithLabelValues(state).Inc()
}

func IncMessagesSent() {
	messagesSentTotal.Inc()
}

func AddQueueReleased(n int) {
	queueReleasedTotal.Add(float64(n))
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}
