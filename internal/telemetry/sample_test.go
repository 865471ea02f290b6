package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/ecoflow"
)

func TestNormalizeDescalesDeciwatts(t *testing.T) {
	raw := ecoflow.DeviceReading{
		SN:         "HW52Z1000000000",
		SwitchOn:   true,
		Country:    "Kenya",
		Town:       "Nairobi",
		Voltage:    229.5,
		Current:    0.45,
		RawWatts:   1000,
		UpdateTime: time.Date(2024, 5, 4, 12, 0, 3, 0, time.UTC),
	}

	s := Normalize(raw, 10*time.Second)
	if s.Watts != 100 {
		t.Fatalf("expected 100 W after descaling, got %v", s.Watts)
	}
	want := 100 * 10.0 / 3600
	if math.Abs(s.WattHours-want) > 1e-9 {
		t.Fatalf("expected %.6f Wh, got %.6f", want, s.WattHours)
	}
	if !s.Timestamp.Equal(raw.UpdateTime) {
		t.Fatalf("timestamp mismatch: got %v", s.Timestamp)
	}
	if !s.SwitchOn || s.Country != "Kenya" || s.Town != "Nairobi" {
		t.Fatalf("status/location not carried over: %+v", s)
	}
	if s.Voltage != 229.5 || s.Current != 0.45 {
		t.Fatalf("electrical fields not carried over: %+v", s)
	}
}

func TestNormalizeUsesSamplingInterval(t *testing.T) {
	raw := ecoflow.DeviceReading{RawWatts: 600, UpdateTime: time.Now()}
	s := Normalize(raw, 30*time.Second)
	want := 60 * 30.0 / 3600
	if math.Abs(s.WattHours-want) > 1e-9 {
		t.Fatalf("expected %.6f Wh for 30s interval, got %.6f", want, s.WattHours)
	}
}

func TestNormalizeConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	raw := ecoflow.DeviceReading{RawWatts: 100, UpdateTime: time.Date(2024, 5, 4, 15, 0, 0, 0, loc)}
	s := Normalize(raw, 10*time.Second)
	if s.Timestamp.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", s.Timestamp.Location())
	}
	if !s.Timestamp.Equal(raw.UpdateTime) {
		t.Fatalf("instant changed during conversion: %v vs %v", s.Timestamp, raw.UpdateTime)
	}
}
