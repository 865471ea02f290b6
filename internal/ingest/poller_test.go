package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/breaker"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/bus"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/ecoflow"
	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/telemetry"
)

type stubSource struct {
	reading ecoflow.DeviceReading
	err     error
	calls   int
}

func (s *stubSource) QuotaAll(context.Context) (ecoflow.DeviceReading, error) {
	s.calls++
	if s.err != nil {
		return ecoflow.DeviceReading{}, s.err
	}
	return s.reading, nil
}

type stubPublisher struct {
	events []bus.Event
}

func (p *stubPublisher) Publish(_ context.Context, ev bus.Event) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *stubPublisher) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunCycleAppendsNormalizedSample(t *testing.T) {
	src := &stubSource{reading: ecoflow.DeviceReading{
		SN:         "SN123",
		SwitchOn:   true,
		Voltage:    229.4,
		Current:    0.44,
		RawWatts:   1000,
		UpdateTime: time.Date(2024, 5, 4, 12, 0, 3, 0, time.UTC),
	}}
	store := telemetry.NewStore()
	pub := &stubPublisher{}
	p := New(src, store, pub, nil, 10*time.Second, testLogger(), nil)

	if err := p.RunCycle(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 sample, got %d", store.Len())
	}
	got, _ := store.Latest()
	if got.Watts != 100 {
		t.Fatalf("expected descaled 100 W, got %v", got.Watts)
	}
	if math.Abs(got.WattHours-100*10.0/3600) > 1e-9 {
		t.Fatalf("wattHours mismatch: %v", got.WattHours)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.DeviceSN != "SN123" || ev.EventID == "" {
		t.Fatalf("bad event envelope: %+v", ev)
	}
	if ev.Sample.Watts != 100 {
		t.Fatalf("published sample mismatch: %+v", ev.Sample)
	}
}

func TestRunCycleFailureSkipsAppend(t *testing.T) {
	src := &stubSource{err: errors.New("device offline")}
	store := telemetry.NewStore()
	pub := &stubPublisher{}
	p := New(src, store, pub, nil, 10*time.Second, testLogger(), nil)

	if err := p.RunCycle(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if store.Len() != 0 {
		t.Fatalf("expected no sample on failure, got %d", store.Len())
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no event on failure, got %d", len(pub.events))
	}
}

func TestRunCycleFailureDoesNotStopCadence(t *testing.T) {
	src := &stubSource{err: errors.New("device offline")}
	store := telemetry.NewStore()
	p := New(src, store, nil, nil, 10*time.Second, testLogger(), nil)

	_ = p.RunCycle(context.Background())
	src.err = nil
	src.reading = ecoflow.DeviceReading{RawWatts: 500, UpdateTime: time.Now()}
	if err := p.RunCycle(context.Background()); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 sample after recovery, got %d", store.Len())
	}
}

func TestRunCycleThroughBreakerFastFails(t *testing.T) {
	src := &stubSource{err: errors.New("device offline")}
	store := telemetry.NewStore()
	cb := breaker.New("test", breaker.Config{MaxFailures: 1, ResetTimeout: time.Hour}, testLogger())
	p := New(src, store, nil, cb, 10*time.Second, testLogger(), nil)

	_ = p.RunCycle(context.Background())
	if err := p.RunCycle(context.Background()); !errors.Is(err, breaker.ErrOpen) {
		t.Fatalf("expected ErrOpen fast-fail, got %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected device called once, got %d", src.calls)
	}
}
