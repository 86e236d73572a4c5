package tracker

import (
	"math"
	"os"
	"time"
)

// CivilHour returns the hour-of-day of t as it would read on a local clock
// in the given IANA timezone. An unknown or empty timezone falls back to
// UTC; the heuristics degrade rather than fail.
func CivilHour(t time.Time, timezone string) int {
	return t.In(location(timezone)).Hour()
}

func location(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LocalTimezone reports the IANA name of the process's local timezone,
// preferring $TZ when set. time.Local stringifies as "Local" when the zone
// was not loaded by name; that value is still accepted by location() via
// the UTC fallback.
func LocalTimezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}
	return time.Local.String()
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
