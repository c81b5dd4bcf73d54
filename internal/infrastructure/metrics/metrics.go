package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "grantwriter"

// Metrics держит собственный реестр, чтобы тесты не делили глобальное состояние.
type Metrics struct {
	registry *prometheus.Registry

	GenerationRequests *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	DegradedResponses  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		GenerationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Запросы к модели по операции и исходу.",
		}, []string{"operation", "outcome"}),
		GenerationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Длительность запросов к модели.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 90},
		}, []string{"operation"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP-запросы по маршруту и коду ответа.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DegradedResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_responses_total",
			Help:      "Ответы, собранные только из кэша черновиков.",
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.GenerationRequests,
		m.GenerationDuration,
		m.HTTPRequests,
		m.HTTPDuration,
		m.DegradedResponses,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдаёт метрики в формате Prometheus для /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration, degraded bool) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	if degraded {
		m.DegradedResponses.WithLabelValues(route).Inc()
	}
}

func (m *Metrics) observeGeneration(operation string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.GenerationRequests.WithLabelValues(operation, outcome).Inc()
	m.GenerationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

type instrumentedGenerator struct {
	next    repository.GenerationService
	metrics *Metrics
}

// InstrumentGenerator оборачивает GenerationService счётчиками и гистограммой длительности.
func InstrumentGenerator(next repository.GenerationService, m *Metrics) repository.GenerationService {
	return &instrumentedGenerator{next: next, metrics: m}
}

func (g *instrumentedGenerator) Complete(ctx context.Context, req repository.CompletionRequest) (string, error) {
	start := time.Now()
	text, err := g.next.Complete(ctx, req)
	operation := req.Operation
	if operation == "" {
		operation = "unknown"
	}
	g.metrics.observeGeneration(operation, time.Since(start), err)
	return text, err
}
