package analytics

import (
	"time"

	"github.com/vreme-ai/vreme/internal/tracker"
)

// Availability statuses and away reasons.
const (
	StatusActive = "active"
	StatusAway   = "away"

	ReasonSleep         = "sleep"
	ReasonLunch         = "lunch"
	ReasonExtendedBreak = "extended_break"
	ReasonShortBreak    = "short_break"

	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// Estimated-return offsets measured from the start of the gap.
const (
	sleepReturnOffset    = 8 * time.Hour
	lunchReturnOffset    = time.Hour
	extendedReturnOffset = 2 * time.Hour
	shortReturnOffset    = 15 * time.Minute
)

// Availability is the heuristic "is the user around" estimate.
type Availability struct {
	Status          string     `json:"status"`
	Reason          string     `json:"reason,omitempty"`
	GapMinutes      float64    `json:"gap_minutes"`
	EstimatedReturn *time.Time `json:"estimated_return,omitempty"`
	Confidence      string     `json:"confidence"`
}

// PredictAvailability classifies the gap since the last global activity.
// Heuristic precedence when away: sleep, then lunch, then extended break,
// then a default short break. Confidence is high only when at least three
// historical sessions started within an hour of the current hour.
func (a *Analyzer) PredictAvailability() *Availability {
	now := a.now()
	last, lastTZ := a.global.LastActivity()
	ctx := a.behavior.Load()

	gap := now.Sub(last)
	gapMinutes := gap.Minutes()
	if last.IsZero() || gapMinutes < 0 {
		gapMinutes = 0
	}

	currentHour := tracker.CivilHour(now, lastTZ)
	historical, _ := a.historicalSessionsNearHour(ctx.CompletedSessions, currentHour)
	confidence := ConfidenceLow
	if historical >= minHistoricalSessions {
		confidence = ConfidenceHigh
	}

	result := &Availability{
		GapMinutes: gapMinutes,
		Confidence: confidence,
	}

	threshold := float64(ctx.ContextSwitchThresholdMinutes)
	if gapMinutes < threshold {
		result.Status = StatusActive
		return result
	}

	lastHour := tracker.CivilHour(last, lastTZ)
	var (
		reason string
		offset time.Duration
	)
	switch {
	case gapMinutes >= 150 && (lastHour >= 22 || lastHour < 6):
		reason, offset = ReasonSleep, sleepReturnOffset
	case gapMinutes >= 30 && lastHour >= 11 && lastHour < 14:
		reason, offset = ReasonLunch, lunchReturnOffset
	case gapMinutes >= 60:
		reason, offset = ReasonExtendedBreak, extendedReturnOffset
	default:
		reason, offset = ReasonShortBreak, shortReturnOffset
	}

	ret := last.Add(offset)
	result.Status = StatusAway
	result.Reason = reason
	result.EstimatedReturn = &ret
	return result
}
