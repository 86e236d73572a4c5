package analytics

import (
	"sort"
	"time"

	"github.com/vreme-ai/vreme/internal/tracker"
)

// DefaultLookbackDays bounds pattern analysis when the caller does not say.
const DefaultLookbackDays = 7

// WorkPatterns summarizes session and gap history over a lookback window.
type WorkPatterns struct {
	LookbackDays     int    `json:"lookback_days"`
	InsufficientData bool   `json:"insufficient_data"`
	Message          string `json:"message,omitempty"`

	SessionsAnalyzed int     `json:"sessions_analyzed"`
	HourlyHistogram  [24]int `json:"hourly_histogram"`
	PeakHours        []int   `json:"peak_hours"`
	AvgSessionMins   float64 `json:"avg_session_mins"`
	MaxSessionMins   float64 `json:"max_session_mins"`

	SleepGapsAnalyzed int     `json:"sleep_gaps_analyzed"`
	AvgSleepHours     float64 `json:"avg_sleep_hours"`
	LunchHours        []int   `json:"lunch_hours"`
}

// WorkPatterns filters closed sessions and detected gaps to the lookback
// window and derives the hourly start histogram, peak hours, and length
// statistics. An empty window yields an explicit insufficient-data result.
func (a *Analyzer) WorkPatterns(lookbackDays int) *WorkPatterns {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	ctx := a.behavior.Load()
	cutoff := a.now().AddDate(0, 0, -lookbackDays)

	result := &WorkPatterns{LookbackDays: lookbackDays}

	var totalMins float64
	for _, s := range ctx.CompletedSessions {
		if s.BurstStart.Before(cutoff) {
			continue
		}
		result.SessionsAnalyzed++
		result.HourlyHistogram[tracker.CivilHour(s.BurstStart, s.Timezone)]++
		totalMins += s.BurstLengthMins
		if s.BurstLengthMins > result.MaxSessionMins {
			result.MaxSessionMins = s.BurstLengthMins
		}
	}

	if result.SessionsAnalyzed == 0 {
		result.InsufficientData = true
		result.Message = "not enough completed sessions in the lookback window"
		return result
	}

	result.AvgSessionMins = totalMins / float64(result.SessionsAnalyzed)
	result.PeakHours = peakHours(result.HourlyHistogram, 3)

	var sleepTotal time.Duration
	for _, g := range ctx.EstimatedSleepGaps {
		if g.GapStart.Before(cutoff) {
			continue
		}
		result.SleepGapsAnalyzed++
		sleepTotal += time.Duration(g.GapLengthMins) * time.Minute
	}
	if result.SleepGapsAnalyzed > 0 {
		result.AvgSleepHours = sleepTotal.Hours() / float64(result.SleepGapsAnalyzed)
	}

	lunchSeen := map[int]bool{}
	for _, g := range ctx.EstimatedLunchGaps {
		if g.GapStart.Before(cutoff) {
			continue
		}
		lunchSeen[g.DetectedAtHour] = true
	}
	for hour := range lunchSeen {
		result.LunchHours = append(result.LunchHours, hour)
	}
	sort.Ints(result.LunchHours)

	return result
}

// peakHours returns the top n non-empty histogram buckets, busiest first,
// earlier hour winning ties.
func peakHours(histogram [24]int, n int) []int {
	hours := make([]int, 0, 24)
	for hour, count := range histogram {
		if count > 0 {
			hours = append(hours, hour)
		}
	}
	sort.Slice(hours, func(i, j int) bool {
		if histogram[hours[i]] != histogram[hours[j]] {
			return histogram[hours[i]] > histogram[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > n {
		hours = hours[:n]
	}
	return hours
}
