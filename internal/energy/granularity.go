// Package energy is the aggregation core: it buckets stored samples
// into calendar periods and computes per-period statistics.
package energy

import (
	"errors"
	"fmt"
	"strings"
)

// Granularity is one of the seven supported aggregation periods.
type Granularity string

const (
	TenSecond Granularity = "tenSecond"
	Minute    Granularity = "minute"
	Hour      Granularity = "hour"
	Day       Granularity = "day"
	Week      Granularity = "week"
	Month     Granularity = "month"
	Year      Granularity = "year"
)

// Granularities lists every supported value, coarsest last.
var Granularities = []Granularity{TenSecond, Minute, Hour, Day, Week, Month, Year}

var ErrInvalidGranularity = errors.New("invalid granularity")

// ParseGranularity validates a caller-supplied granularity string. It is
// case-insensitive and accepts "10s" and "10seconds" as aliases for
// tenSecond. Validation happens here, at the boundary; PeriodStart
// assumes it only ever sees parsed values.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tensecond", "10s", "10seconds":
		return TenSecond, nil
	case "minute":
		return Minute, nil
	case "hour":
		return Hour, nil
	case "day":
		return Day, nil
	case "week":
		return Week, nil
	case "month":
		return Month, nil
	case "year":
		return Year, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}
