package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	pollCycles        *prometheus.CounterVec
	ingestFailures    prometheus.Counter
	publishFailures   *prometheus.CounterVec
	storeSamples      prometheus.Gauge
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	cbState           *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		pollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plug_poll_cycles_total",
			Help: "Total poll cycles by outcome.",
		}, []string{"outcome"}),
		ingestFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plug_ingest_failures_total",
			Help: "Total ingestion cycles skipped due to device or payload errors.",
		}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plug_publish_failures_total",
			Help: "Total failed sample publications by sink.",
		}, []string{"sink"}),
		storeSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "plug_store_samples",
			Help: "Samples currently held in the in-memory store.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits observed.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses observed.",
		}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cb_state",
			Help: "Circuit breaker state gauge (0 closed, 1 open, 2 half-open).",
		}, []string{"target"}),
	}

	prometheus.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.pollCycles,
		m.ingestFailures,
		m.publishFailures,
		m.storeSamples,
		m.cacheHits,
		m.cacheMisses,
		m.cbState,
	)

	m.cbState.WithLabelValues("ecoflow").Set(0)

	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(duration)
		}
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) PollCycle(outcome string) {
	if m == nil {
		return
	}
	m.pollCycles.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IngestFailure() {
	if m == nil {
		return
	}
	m.ingestFailures.Inc()
}

func (m *Metrics) PublishFailure(sink string) {
	if m == nil {
		return
	}
	m.publishFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) SetStoreSize(n int) {
	if m == nil {
		return
	}
	m.storeSamples.Set(float64(n))
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) SetCircuitBreakerState(target string, state float64) {
	if m == nil {
		return
	}
	m.cbState.WithLabelValues(target).Set(state)
}
