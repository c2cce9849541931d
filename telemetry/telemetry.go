package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/awantoch/flowbridge/config"
)

// Operation outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowbridge_http_requests_total",
			Help: "Total number of HTTP requests received.",
		},
		[]string{"handler", "method", "code"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowbridge_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method"},
	)
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowbridge_operations_total",
			Help: "Operations executed, by outcome.",
		},
		[]string{"operation", "outcome"},
	)
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowbridge_operation_duration_seconds",
			Help:    "Duration of operations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	telegramUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowbridge_telegram_updates_total",
			Help: "Telegram updates received, by source.",
		},
		[]string{"source"},
	)
	agentRoutesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowbridge_agent_routes_total",
			Help: "Messages routed to each sub-agent.",
		},
		[]string{"agent"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		operationsTotal,
		operationDuration,
		telegramUpdatesTotal,
		agentRoutesTotal,
	)
}

// Init installs the tracer provider selected by cfg.Tracing. The returned
// function flushes and stops it; it is a no-op when tracing is disabled.
func Init(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	tc := cfg.Tracing
	if tc.Exporter == "" || tc.Exporter == "none" {
		return noop, nil
	}

	serviceName := tc.ServiceName
	if serviceName == "" {
		serviceName = config.DefaultServiceName
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return noop, fmt.Errorf("telemetry resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch tc.Exporter {
	case "stdout":
		// stdout carries the MCP stdio protocol, so spans go to stderr.
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	case "otlp":
		var opts []otlptracehttp.Option
		if tc.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(tc.Endpoint))
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	default:
		return noop, fmt.Errorf("unsupported tracing exporter: %s", tc.Exporter)
	}
	if err != nil {
		return noop, fmt.Errorf("telemetry exporter %s: %w", tc.Exporter, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp.Shutdown, nil
}

// WrapHandler applies tracing, Prometheus metrics, and otelhttp middleware.
func WrapHandler(name string, next http.Handler) http.Handler {
	h := otelhttp.NewHandler(next, name)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rw, r)
		httpRequestsTotal.WithLabelValues(name, r.Method, strconv.Itoa(rw.status)).Inc()
		httpRequestDuration.WithLabelValues(name, r.Method).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// ObserveOperation records the outcome and duration of one operation.
func ObserveOperation(operation string, err error, elapsed time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveTelegramUpdate counts an update received via "poll" or "webhook".
func ObserveTelegramUpdate(source string) {
	telegramUpdatesTotal.WithLabelValues(source).Inc()
}

// ObserveAgentRoute counts a message routed to agent.
func ObserveAgentRoute(agent string) {
	agentRoutesTotal.WithLabelValues(agent).Inc()
}

// CacheStats is implemented by caches whose effectiveness is exported.
type CacheStats interface {
	HitRate() float64
	EntryCount() int64
}

// RegisterCache exports hit rate and entry count gauges for a named cache.
// Registering the same name twice is not an error.
func RegisterCache(name string, cache CacheStats) error {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "flowbridge_cache_hit_rate",
			Help:        "Cache hit ratio since start.",
			ConstLabels: prometheus.Labels{"cache": name},
		}, cache.HitRate),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "flowbridge_cache_entries",
			Help:        "Entries currently held by the cache.",
			ConstLabels: prometheus.Labels{"cache": name},
		}, func() float64 { return float64(cache.EntryCount()) }),
	}
	for _, g := range gauges {
		if err := prometheus.Register(g); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	return nil
}

// MetricsHandler returns the Prometheus metrics endpoint handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
