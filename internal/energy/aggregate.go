package energy

import (
	"errors"
	"math"

	"github.com/wallykipps/ecoflow-smart-plug-backend/internal/telemetry"
)

// ErrNoData marks an aggregation requested before any sample exists.
// Distinct from an empty report: a non-empty store always yields at
// least one bucket.
var ErrNoData = errors.New("no samples ingested yet")

// PeriodReport is the per-bucket statistics row returned to callers.
// Index is the 1-based position in first-seen order, not a
// chronological rank.
type PeriodReport struct {
	Index          int     `json:"index"`
	Period         string  `json:"period"`
	TotalWattHours float64 `json:"totalWattHours"`
	AverageVolt    float64 `json:"averageVolt"`
	AverageCurrent float64 `json:"averageCurrent"`
	AverageWatts   float64 `json:"averageWatts"`
	MaxWatts       float64 `json:"maxWatts"`
	MinWatts       float64 `json:"minWatts"`
	TotalCount     int     `json:"totalCount"`
}

// periodAccumulator carries the running totals for one bucket while the
// sample sequence is walked.
type periodAccumulator struct {
	wattHours float64
	voltage   float64
	current   float64
	watts     float64
	maxWatts  float64
	minWatts  float64
	count     int
}

func newPeriodAccumulator() *periodAccumulator {
	return &periodAccumulator{
		maxWatts: math.Inf(-1),
		minWatts: math.Inf(1),
	}
}

func (a *periodAccumulator) add(s telemetry.Sample) {
	a.wattHours += s.WattHours
	a.voltage += s.Voltage
	a.current += s.Current
	a.watts += s.Watts
	if s.Watts > a.maxWatts {
		a.maxWatts = s.Watts
	}
	if s.Watts < a.minWatts {
		a.minWatts = s.Watts
	}
	a.count++
}

// Aggregate walks the samples in store order, groups them by bucket key
// at the given granularity, and finalizes one PeriodReport per distinct
// key. Report order is first-seen key order; buckets exist only because
// a sample mapped to them, so every report has count >= 1. The result
// is fully determined by the inputs.
func Aggregate(samples []telemetry.Sample, g Granularity) ([]PeriodReport, error) {
	if len(samples) == 0 {
		return nil, ErrNoData
	}

	accs := make(map[string]*periodAccumulator)
	order := make([]string, 0)
	for _, s := range samples {
		key := FormatPeriod(PeriodStart(s.Timestamp, g))
		acc, ok := accs[key]
		if !ok {
			acc = newPeriodAccumulator()
			accs[key] = acc
			order = append(order, key)
		}
		acc.add(s)
	}

	reports := make([]PeriodReport, 0, len(order))
	for i, key := range order {
		acc := accs[key]
		n := float64(acc.count)
		reports = append(reports, PeriodReport{
			Index:          i + 1,
			Period:         key,
			TotalWattHours: acc.wattHours,
			AverageVolt:    acc.voltage / n,
			AverageCurrent: acc.current / n,
			AverageWatts:   acc.watts / n,
			MaxWatts:       acc.maxWatts,
			MinWatts:       acc.minWatts,
			TotalCount:     acc.count,
		})
	}
	return reports, nil
}
