package bus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/telemetry"
)

type recordingPublisher struct {
	events []Event
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

type failureCounter struct {
	bySink map[string]int
}

func (c *failureCounter) PublishFailure(sink string) {
	if c.bySink == nil {
		c.bySink = map[string]int{}
	}
	c.bySink[sink]++
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent() Event {
	return NewEvent("SN123", telemetry.Sample{
		Timestamp: time.Date(2024, 5, 4, 12, 0, 3, 0, time.UTC),
		Watts:     100,
		WattHours: 100 * 10.0 / 3600,
	})
}

func TestNewEventEnvelope(t *testing.T) {
	ev := testEvent()
	if ev.EventID == "" {
		t.Fatalf("expected event id")
	}
	if ev.DeviceSN != "SN123" {
		t.Fatalf("device sn mismatch: %q", ev.DeviceSN)
	}
	if ev.ProducedAt.IsZero() {
		t.Fatalf("expected producedAt set")
	}
	if other := testEvent(); other.EventID == ev.EventID {
		t.Fatalf("expected unique event ids")
	}
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{}
	f := NewFanout(testLogger(), nil)
	f.Add("a", a)
	f.Add("b", b)

	if err := f.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("expected both sinks hit: a=%d b=%d", len(a.events), len(b.events))
	}
}

func TestFanoutIsolatesSinkFailures(t *testing.T) {
	bad := &recordingPublisher{err: errors.New("broker down")}
	good := &recordingPublisher{}
	obs := &failureCounter{}
	f := NewFanout(testLogger(), obs)
	f.Add("bad", bad)
	f.Add("good", good)

	if err := f.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("fanout must absorb sink errors, got %v", err)
	}
	if len(good.events) != 1 {
		t.Fatalf("healthy sink starved by failing sibling")
	}
	if obs.bySink["bad"] != 1 {
		t.Fatalf("expected failure counted for bad sink, got %v", obs.bySink)
	}
}

func TestFanoutCloseClosesAll(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{}
	f := NewFanout(testLogger(), nil)
	f.Add("a", a)
	f.Add("b", b)

	if err := f.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatalf("expected all sinks closed")
	}
}
