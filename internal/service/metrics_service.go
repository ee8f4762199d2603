package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface, the sync loops and the embedding provider.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	syncRows        *prometheus.CounterVec
	embeddingCalls  *prometheus.CounterVec
	watermark       prometheus.Gauge
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	syncRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_rows_total",
		Help: "Rows reconciled during sync runs, by entity and outcome",
	}, []string{"entity", "outcome"})

	embeddingCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "embedding_requests_total",
		Help: "Embedding generation attempts by outcome",
	}, []string{"outcome"})

	watermark := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sync_watermark_timestamp_seconds",
		Help: "Unix time of the freshest course last_synced value",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, syncRows, embeddingCalls, watermark, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		syncRows:        syncRows,
		embeddingCalls:  embeddingCalls,
		watermark:       watermark,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordSyncRow counts one reconciled row.
func (m *MetricsService) RecordSyncRow(entity, outcome string) {
	if m == nil {
		return
	}
	m.syncRows.WithLabelValues(entity, outcome).Inc()
}

// RecordEmbedding counts one embedding attempt.
func (m *MetricsService) RecordEmbedding(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.embeddingCalls.WithLabelValues(outcome).Inc()
}

// SetWatermark publishes the freshness watermark.
func (m *MetricsService) SetWatermark(t time.Time) {
	if m == nil || t.IsZero() {
		return
	}
	m.watermark.Set(float64(t.Unix()))
}
