package breaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func failing(err error) func(ctx context.Context) error {
	return func(context.Context) error { return err }
}

func succeeding() func(ctx context.Context) error {
	return func(context.Context) error { return nil }
}

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := New("test", Config{MaxFailures: 3, ResetTimeout: time.Hour}, testLogger())
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		if err := b.Execute(context.Background(), failing(boom)); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}
	if b.State() != Open {
		t.Fatalf("expected Open after %d failures, got %s", 3, b.State())
	}

	if err := b.Execute(context.Background(), succeeding()); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected fast-fail ErrOpen, got %v", err)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New("test", Config{MaxFailures: 2, ResetTimeout: time.Hour}, testLogger())
	boom := errors.New("boom")

	_ = b.Execute(context.Background(), failing(boom))
	_ = b.Execute(context.Background(), succeeding())
	_ = b.Execute(context.Background(), failing(boom))

	if b.State() != Closed {
		t.Fatalf("expected Closed after interleaved success, got %s", b.State())
	}
}

func TestBreakerHalfOpenProbeCloses(t *testing.T) {
	b := New("test", Config{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond}, testLogger())
	_ = b.Execute(context.Background(), failing(errors.New("boom")))
	if b.State() != Open {
		t.Fatalf("expected Open, got %s", b.State())
	}

	time.Sleep(20 * time.Millisecond)
	if err := b.Execute(context.Background(), succeeding()); err != nil {
		t.Fatalf("expected probe success, got %v", err)
	}
	if b.State() != Closed {
		t.Fatalf("expected Closed after probe, got %s", b.State())
	}
}

func TestBreakerHalfOpenProbeReopens(t *testing.T) {
	b := New("test", Config{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond}, testLogger())
	boom := errors.New("boom")
	_ = b.Execute(context.Background(), failing(boom))

	time.Sleep(20 * time.Millisecond)
	if err := b.Execute(context.Background(), failing(boom)); !errors.Is(err, boom) {
		t.Fatalf("expected probe failure to surface, got %v", err)
	}
	if b.State() != Open {
		t.Fatalf("expected reopened breaker, got %s", b.State())
	}
	if err := b.Execute(context.Background(), succeeding()); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected fast-fail inside new reset window, got %v", err)
	}
}
