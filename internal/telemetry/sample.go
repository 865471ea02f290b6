// Package telemetry holds the normalized plug readings and the
// in-memory store they accumulate in.
package telemetry

import (
	"time"

	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/ecoflow"
)

// deciwattScale divides the plug's raw watt reading; the device reports
// power in tenths of a watt.
const deciwattScale = 10.0

// Sample is one normalized reading at a point in time. Samples are
// immutable once created; WattHours is derived at normalization and is
// never supplied independently.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	SwitchOn  bool      `json:"switchStatus"`
	Country   string    `json:"country"`
	Town      string    `json:"town"`
	Voltage   float64   `json:"voltage"`
	Current   float64   `json:"current"`
	Watts     float64   `json:"watts"`
	WattHours float64   `json:"wattHours"`
}

// Normalize converts a raw device reading into a Sample. The interval is
// the fixed sampling period of the poller; the energy contribution of
// the sample is watts held for that interval, expressed in watt-hours.
func Normalize(raw ecoflow.DeviceReading, interval time.Duration) Sample {
	watts := raw.RawWatts / deciwattScale
	return Sample{
		Timestamp: raw.UpdateTime.UTC(),
		SwitchOn:  raw.SwitchOn,
		Country:   raw.Country,
		Town:      raw.Town,
		Voltage:   raw.Voltage,
		Current:   raw.Current,
		Watts:     watts,
		WattHours: watts * interval.Seconds() / 3600,
	}
}
