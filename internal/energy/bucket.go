package energy

import (
	"fmt"
	"time"
)

// localOffset is subtracted from every UTC timestamp before truncation
// so buckets align to the deployment's local calendar. The deployed
// system subtracts exactly 8 hours; that literal behavior is kept.
const localOffset = 8 * time.Hour

// periodLayout serializes a bucket start as ISO-8601 UTC with
// millisecond precision. String equality on the formatted value is what
// defines bucket membership.
const periodLayout = "2006-01-02T15:04:05.000Z"

// PeriodStart maps a timestamp to the canonical start of its bucket at
// the given granularity. Pure and total for the seven Granularity
// values; anything else reaching here is a programming error upstream
// of ParseGranularity.
func PeriodStart(ts time.Time, g Granularity) time.Time {
	local := ts.UTC().Add(-localOffset)
	y, m, d := local.Date()
	switch g {
	case TenSecond:
		return time.Date(y, m, d, local.Hour(), local.Minute(), local.Second()-local.Second()%10, 0, time.UTC)
	case Minute:
		return time.Date(y, m, d, local.Hour(), local.Minute(), 0, 0, time.UTC)
	case Hour:
		return time.Date(y, m, d, local.Hour(), 0, 0, 0, time.UTC)
	case Day:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case Week:
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return day.AddDate(0, 0, -int(day.Weekday()))
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case Year:
		return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		panic(fmt.Sprintf("unparsed granularity %q", g))
	}
}

// FormatPeriod renders a bucket start in the canonical key form.
func FormatPeriod(t time.Time) string {
	return t.UTC().Format(periodLayout)
}
