package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	webhooksClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhooks_classified_total",
			Help: "Total number of inbound webhooks by classification outcome",
		},
		[]string{"status", "reason"},
	)

	engineForwards = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_forwards_total",
			Help: "Total number of payloads forwarded to the automation engine",
		},
		[]string{"result"},
	)

	repliesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_replies_delivered_total",
			Help: "Total number of engine replies by delivery status",
		},
		[]string{"status"},
	)

	conversationsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_started_total",
			Help: "Total number of proactively started conversations",
		},
		[]string{"trigger"},
	)

	botControls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_control_commands_total",
			Help: "Total number of pause/resume control operations",
		},
		[]string{"action"},
	)

	handoffFlags = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "handoff_flags_total",
			Help: "Total number of engine replies flagged for human handoff",
		},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordClassification(status, reason string) {
	webhooksClassified.WithLabelValues(status, reason).Inc()
}

func RecordEngineForward(result string) {
	engineForwards.WithLabelValues(result).Inc()
}

func RecordReplyDelivery(status string) {
	repliesDelivered.WithLabelValues(status).Inc()
}

func RecordConversationStarted(trigger string) {
	conversationsStarted.WithLabelValues(trigger).Inc()
}

func RecordBotControl(action string) {
	botControls.WithLabelValues(action).Inc()
}

func RecordHandoffFlag() {
	handoffFlags.Inc()
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
