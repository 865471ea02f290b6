// Package bus fans normalized samples out to optional downstream
// brokers. Publication is best-effort: a sink failure is logged and
// counted but never disturbs ingestion or the other sinks.
package bus

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/telemetry"
)

// Event is the envelope published for each ingested sample.
type Event struct {
	EventID    string           `json:"eventId"`
	DeviceSN   string           `json:"deviceSn"`
	ProducedAt time.Time        `json:"producedAt"`
	Sample     telemetry.Sample `json:"sample"`
}

func NewEvent(deviceSN string, s telemetry.Sample) Event {
	return Event{
		EventID:    uuid.NewString(),
		DeviceSN:   deviceSN,
		ProducedAt: time.Now().UTC(),
		Sample:     s,
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// FailureObserver counts per-sink publish failures, typically for metrics.
type FailureObserver interface {
	PublishFailure(sink string)
}

type sink struct {
	name string
	pub  Publisher
}

// Fanout publishes to every registered sink and absorbs their errors.
type Fanout struct {
	sinks []sink
	log   *slog.Logger
	obs   FailureObserver
}

func NewFanout(log *slog.Logger, obs FailureObserver) *Fanout {
	return &Fanout{log: log, obs: obs}
}

func (f *Fanout) Add(name string, p Publisher) {
	f.sinks = append(f.sinks, sink{name: name, pub: p})
}

func (f *Fanout) Sinks() int { return len(f.sinks) }

// Publish delivers ev to every sink. Failures are isolated per sink;
// the returned error is always nil so callers never treat publication
// as part of the ingestion contract.
func (f *Fanout) Publish(ctx context.Context, ev Event) error {
	for _, s := range f.sinks {
		if err := s.pub.Publish(ctx, ev); err != nil {
			f.log.Warn("publish_failed", "sink", s.name, "eventId", ev.EventID, "error", err.Error())
			if f.obs != nil {
				f.obs.PublishFailure(s.name)
			}
		}
	}
	return nil
}

func (f *Fanout) Close() error {
	for _, s := range f.sinks {
		if err := s.pub.Close(); err != nil {
			f.log.Warn("publisher_close_failed", "sink", s.name, "error", err.Error())
		}
	}
	return nil
}
