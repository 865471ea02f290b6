package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/cache"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/energy"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/telemetry"
)

type Handlers struct {
	Log   *slog.Logger
	Store *telemetry.Store
	Cache *cache.Cache[[]energy.PeriodReport]
	Start time.Time
}

// Aggregates serves GET /api/v1/aggregates/{granularity}. Invalid
// granularities are rejected before the engine is consulted; an empty
// store surfaces as a server error, matching the contract downstream
// consumers already rely on.
func (h *Handlers) Aggregates(w http.ResponseWriter, r *http.Request) {
	g, err := energy.ParseGranularity(mux.Vars(r)["granularity"])
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := aggregateKey(g, h.Store.Version())
	if h.Cache != nil {
		if reports, ok := h.Cache.Get(key); ok {
			h.writeJSON(w, http.StatusOK, reports)
			return
		}
	}

	reports, err := energy.Aggregate(h.Store.Snapshot(), g)
	if err != nil {
		if errors.Is(err, energy.ErrNoData) {
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "aggregation failed")
		return
	}

	if h.Cache != nil {
		h.Cache.Set(key, reports)
	}
	h.writeJSON(w, http.StatusOK, reports)
}

// aggregateKey ties a cached report to the store state it was computed
// from, so a hit can never serve data older than the latest append.
func aggregateKey(g energy.Granularity, version uint64) string {
	return fmt.Sprintf("%s@%d", g, version)
}

// LatestSample serves GET /api/v1/samples/latest.
func (h *Handlers) LatestSample(w http.ResponseWriter, _ *http.Request) {
	sample, ok := h.Store.Latest()
	if !ok {
		h.writeError(w, http.StatusNotFound, "no samples yet")
		return
	}
	h.writeJSON(w, http.StatusOK, sample)
}

// Samples serves GET /api/v1/samples?from=RFC3339&to=RFC3339. Both
// bounds are optional and default to the last hour.
func (h *Handlers) Samples(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var from, to time.Time
	var err error
	if fr := q.Get("from"); fr != "" {
		from, err = time.Parse(time.RFC3339, fr)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "bad 'from' (RFC3339)")
			return
		}
	} else {
		from = time.Now().UTC().Add(-time.Hour)
	}
	if tr := q.Get("to"); tr != "" {
		to, err = time.Parse(time.RFC3339, tr)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "bad 'to' (RFC3339)")
			return
		}
	} else {
		to = time.Now().UTC()
	}
	h.writeJSON(w, http.StatusOK, h.Store.Range(from, to))
}

// Health serves GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uptime":  time.Since(h.Start).Round(time.Second).String(),
		"samples": h.Store.Len(),
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error("write_response_failed", "error", err.Error())
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
