package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/observability"
)

// NewRouter builds the HTTP surface. Every route except /metrics is
// wrapped with per-route request counters and latency histograms.
func NewRouter(h *Handlers, m *observability.Metrics) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/api/v1/aggregates/{granularity}",
		m.WrapHandler("aggregates", http.HandlerFunc(h.Aggregates))).Methods(http.MethodGet)
	r.Handle("/api/v1/samples/latest",
		m.WrapHandler("samples_latest", http.HandlerFunc(h.LatestSample))).Methods(http.MethodGet)
	r.Handle("/api/v1/samples",
		m.WrapHandler("samples", http.HandlerFunc(h.Samples))).Methods(http.MethodGet)
	r.Handle("/health",
		m.WrapHandler("health", http.HandlerFunc(h.Health))).Methods(http.MethodGet)
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	return r
}
