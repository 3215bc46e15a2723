package observability

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_http_requests_total",
			Help: "Total number of HTTP requests processed by the match service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	grpcServerHandledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_server_handled_total",
			Help: "Total number of gRPC requests handled by the server.",
		},
		[]string{"grpc_service", "grpc_method", "grpc_code"},
	)
	matchDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_decisions_total",
			Help: "Match decisions by submitted decision and resulting status or error kind.",
		},
		[]string{"decision", "outcome"},
	)
	matchDecisionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_decision_duration_seconds",
			Help:    "Time spent reconciling one decision, retries included.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"mode"},
	)
	matchConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "match_conflict_retries_total",
			Help: "Match transactions re-run after a serialization conflict.",
		},
	)
	notifyPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_notify_published_total",
			Help: "Fan-out events handed to the transport.",
		},
		[]string{"event", "transport"},
	)
	notifyPublishErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_notify_publish_errors_total",
			Help: "Fan-out events that could not be delivered.",
		},
		[]string{"event"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "match_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "match_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		grpcServerHandledTotal,
		matchDecisionsTotal,
		matchDecisionDuration,
		matchConflictsTotal,
		notifyPublishedTotal,
		notifyPublishErrorsTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func GRPCServerMetricsUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		statusInfo := status.Convert(err)
		service, method := splitFullMethod(info.FullMethod)
		grpcServerHandledTotal.WithLabelValues(service, method, statusInfo.Code().String()).Inc()
		return resp, err
	}
}

func splitFullMethod(fullMethod string) (string, string) {
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 3 {
		return "unknown", "unknown"
	}
	return parts[1], parts[2]
}

func IncMatchDecision(decision, outcome string) {
	matchDecisionsTotal.WithLabelValues(decision, outcome).Inc()
}

func ObserveMatchDecision(mode string, d time.Duration) {
	matchDecisionDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func IncMatchConflict() {
	matchConflictsTotal.Inc()
}

func IncNotifyPublished(event, transport string) {
	notifyPublishedTotal.WithLabelValues(event, transport).Inc()
}

func IncNotifyPublishError(event string) {
	notifyPublishErrorsTotal.WithLabelValues(event).Inc()
}

func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
