// Package ingest drives the fixed-interval polling loop that feeds the
// sample store.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/breaker"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/bus"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/ecoflow"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/observability"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/telemetry"
)

// Source produces one raw device reading per call. The ecoflow client
// satisfies it; tests inject stubs.
type Source interface {
	QuotaAll(ctx context.Context) (ecoflow.DeviceReading, error)
}

type Poller struct {
	src      Source
	store    *telemetry.Store
	pub      bus.Publisher
	cb       *breaker.Breaker
	interval time.Duration
	log      *slog.Logger
	metrics  *observability.Metrics
}

// New wires a poller. pub and cb may be nil (no fan-out, no breaker);
// metrics may be nil in tests.
func New(src Source, store *telemetry.Store, pub bus.Publisher, cb *breaker.Breaker, interval time.Duration, log *slog.Logger, metrics *observability.Metrics) *Poller {
	return &Poller{
		src:      src,
		store:    store,
		pub:      pub,
		cb:       cb,
		interval: interval,
		log:      log,
		metrics:  metrics,
	}
}

// Run polls on a fixed ticker until ctx is canceled. Cycle failures are
// logged and counted, never fatal; the cadence always continues.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info("poller_started", "interval", p.interval.String())
	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller_stopped")
			return ctx.Err()
		case <-ticker.C:
			_ = p.RunCycle(ctx)
		}
	}
}

// RunCycle executes one ingestion cycle: fetch, normalize, append,
// fan-out. On failure no sample is appended and the error is returned
// for tests; Run ignores it.
func (p *Poller) RunCycle(ctx context.Context) error {
	var reading ecoflow.DeviceReading
	fetch := func(ctx context.Context) error {
		r, err := p.src.QuotaAll(ctx)
		if err != nil {
			return err
		}
		reading = r
		return nil
	}

	var err error
	if p.cb != nil {
		err = p.cb.Execute(ctx, fetch)
		p.metrics.SetCircuitBreakerState("ecoflow", float64(p.cb.State()))
	} else {
		err = fetch(ctx)
	}
	if err != nil {
		p.log.Warn("cycle_failed", "error", err.Error())
		p.metrics.PollCycle("failure")
		p.metrics.IngestFailure()
		return err
	}

	sample := telemetry.Normalize(reading, p.interval)
	p.store.Append(sample)
	p.metrics.PollCycle("success")
	p.metrics.SetStoreSize(p.store.Len())
	p.log.Info("sample_ingested",
		"ts", sample.Timestamp,
		"watts", sample.Watts,
		"wattHours", sample.WattHours,
		"samples", p.store.Len(),
	)

	if p.pub != nil {
		_ = p.pub.Publish(ctx, bus.NewEvent(reading.SN, sample))
	}
	return nil
}
