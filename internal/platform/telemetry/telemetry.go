// Package telemetry wires Prometheus metrics and OpenTelemetry tracing for the
// perioperative assessment server. It exposes HTTP server metrics, assessment
// metrics, a /metrics endpoint and request spans propagated via W3C trace
// context.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// TelemetryConfig holds all configuration for the telemetry provider.
type TelemetryConfig struct {
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`   // host:port of an OTLP/HTTP collector; empty keeps spans in-process
	MetricsEnabled *bool   `json:"metrics_enabled"` // nil = use default (true)
	TracingEnabled *bool   `json:"tracing_enabled"` // nil = use default (true)
	Environment    string  `json:"environment"`
	SampleRate     float64 `json:"sample_rate"` // 0.0 to 1.0
}

func (c *TelemetryConfig) metricsOn() bool {
	if c.MetricsEnabled == nil {
		return true
	}
	return *c.MetricsEnabled
}

func (c *TelemetryConfig) tracingOn() bool {
	if c.TracingEnabled == nil {
		return true
	}
	return *c.TracingEnabled
}

func (c *TelemetryConfig) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "periop-server"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "0.0.0"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.SampleRate <= 0 || c.SampleRate > 1 {
		c.SampleRate = 1.0
	}
}

// BoolPtr is a helper to create a *bool for TelemetryConfig fields.
func BoolPtr(b bool) *bool {
	return &b
}

// Option customises provider construction.
type Option func(*options)

type options struct {
	processors []sdktrace.SpanProcessor
}

// WithSpanProcessor registers an additional span processor, such as a
// tracetest.SpanRecorder.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *options) { o.processors = append(o.processors, p) }
}

var durationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// ---------------------------------------------------------------------------
// Provider
// ---------------------------------------------------------------------------

// TelemetryProvider owns the metric registry and the tracer provider.
type TelemetryProvider struct {
	cfg TelemetryConfig

	registry   *prometheus.Registry
	tracing    *sdktrace.TracerProvider
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	activeRequests prometheus.Gauge
	responseSize   prometheus.Histogram

	assessments        *prometheus.CounterVec
	riskCategories     *prometheus.CounterVec
	alerts             *prometheus.CounterVec
	assessmentDuration prometheus.Histogram
	phiAccess          *prometheus.CounterVec

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewTelemetryProvider builds the registry, collectors and tracer provider.
// An OTLP/HTTP exporter is attached when cfg.OTLPEndpoint is set.
func NewTelemetryProvider(ctx context.Context, cfg TelemetryConfig, opts ...Option) (*TelemetryProvider, error) {
	cfg.applyDefaults()
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	tp := &TelemetryProvider{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}
	tp.registerMetrics()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	)

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	}
	if cfg.OTLPEndpoint != "" && cfg.tracingOn() {
		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("creating otlp exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	}
	for _, p := range o.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
	}

	tp.tracing = sdktrace.NewTracerProvider(tpOpts...)
	tp.tracer = tp.tracing.Tracer(cfg.ServiceName)
	return tp, nil
}

func (tp *TelemetryProvider) registerMetrics() {
	tp.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	tp.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: durationBuckets,
	}, []string{"method", "route", "status"})

	tp.activeRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Number of HTTP requests currently being processed",
	})

	tp.responseSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "http_response_size_bytes",
		Help:    "Size of HTTP response bodies in bytes",
		Buckets: prometheus.ExponentialBuckets(100, 10, 6),
	})

	tp.assessments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "periop_assessments_total",
		Help: "Total number of assessment derivations",
	}, []string{"source"})

	tp.riskCategories = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "periop_risk_category_total",
		Help: "Risk categories produced, by score",
	}, []string{"score", "category"})

	tp.alerts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "periop_alerts_total",
		Help: "Critical alerts generated, by type",
	}, []string{"type"})

	tp.assessmentDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "periop_assessment_duration_seconds",
		Help:    "Assessment derivation duration in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})

	tp.phiAccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "periop_phi_access_total",
		Help: "Requests that touched patient data, by resource, action and status class",
	}, []string{"resource", "action", "status_class"})

	tp.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		tp.httpRequests,
		tp.httpDuration,
		tp.activeRequests,
		tp.responseSize,
		tp.assessments,
		tp.riskCategories,
		tp.alerts,
		tp.assessmentDuration,
		tp.phiAccess,
	)
}

// Registry exposes the provider's registry so callers can add collectors.
func (tp *TelemetryProvider) Registry() *prometheus.Registry {
	return tp.registry
}

// TracerProvider returns the underlying SDK tracer provider.
func (tp *TelemetryProvider) TracerProvider() *sdktrace.TracerProvider {
	return tp.tracing
}

// Propagator returns the W3C trace context and baggage propagator.
func (tp *TelemetryProvider) Propagator() propagation.TextMapPropagator {
	return tp.propagator
}

// Tracer returns the service tracer.
func (tp *TelemetryProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Shutdown flushes pending spans and stops the tracer provider.
func (tp *TelemetryProvider) Shutdown(ctx context.Context) error {
	tp.shutdownOnce.Do(func() {
		tp.shutdownErr = tp.tracing.Shutdown(ctx)
	})
	return tp.shutdownErr
}

// ---------------------------------------------------------------------------
// HTTP middleware
// ---------------------------------------------------------------------------

// TracingMiddleware starts a server span for every request, continuing any
// trace carried in the incoming headers.
func (tp *TelemetryProvider) TracingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !tp.cfg.tracingOn() {
				return next(c)
			}

			req := c.Request()
			ctx := tp.propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			route := routeOf(c)
			ctx, span := tp.tracer.Start(ctx, "HTTP "+req.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("http.route", route),
					attribute.String("url.path", req.URL.Path),
				),
			)
			defer span.End()

			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			status := statusOf(c, err)
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if v, ok := c.Get("request_id").(string); ok && v != "" {
				span.SetAttributes(attribute.String("request.id", v))
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
				if err != nil {
					span.RecordError(err)
				}
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return err
		}
	}
}

// MetricsMiddleware records request counts, durations and response sizes.
func (tp *TelemetryProvider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !tp.cfg.metricsOn() {
				return next(c)
			}

			tp.activeRequests.Inc()
			defer tp.activeRequests.Dec()

			start := time.Now()
			err := next(c)
			elapsed := time.Since(start).Seconds()

			method := c.Request().Method
			route := routeOf(c)
			status := strconv.Itoa(statusOf(c, err))

			tp.httpRequests.WithLabelValues(method, route, status).Inc()
			tp.httpDuration.WithLabelValues(method, route, status).Observe(elapsed)
			if size := c.Response().Size; size > 0 {
				tp.responseSize.Observe(float64(size))
			}
			return err
		}
	}
}

// PrometheusHandler serves the provider's registry in the Prometheus text
// exposition format.
func (tp *TelemetryProvider) PrometheusHandler() echo.HandlerFunc {
	h := promhttp.HandlerFor(tp.registry, promhttp.HandlerOpts{Registry: tp.registry})
	return echo.WrapHandler(h)
}

// routeOf returns the matched route pattern so ids never become label values.
func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

// statusOf resolves the status that will be written for err, since the
// error handler runs after middleware returns.
func statusOf(c echo.Context, err error) int {
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he.Code
		}
		if !c.Response().Committed {
			return http.StatusInternalServerError
		}
	}
	if s := c.Response().Status; s != 0 {
		return s
	}
	return http.StatusOK
}
