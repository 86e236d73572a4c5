// Package analytics derives cognitive-state, work-pattern, and availability
// estimates from the persisted activity and behavior records. All queries
// are read-only and computed fresh on each call.
package analytics

import (
	"time"

	"github.com/vreme-ai/vreme/internal/models"
	"github.com/vreme-ai/vreme/internal/tracker"
)

// Session phases by elapsed duration.
const (
	PhaseWarmingUp       = "warming_up"       // < 15 min
	PhaseFocused         = "focused"          // < 45 min
	PhaseDeepWork        = "deep_work"        // < 90 min
	PhaseExtendedSession = "extended_session" // >= 90 min
)

// minHistoricalSessions is how many closed sessions must have started within
// one hour of "now" before we call this a typical work time.
const minHistoricalSessions = 3

// Analyzer composes the global tracker and behavior store as read-only
// consumers.
type Analyzer struct {
	global   *tracker.GlobalTracker
	behavior *tracker.BehaviorStore

	now func() time.Time
}

// NewAnalyzer creates an analyzer over the given stores.
func NewAnalyzer(global *tracker.GlobalTracker, behavior *tracker.BehaviorStore) *Analyzer {
	return &Analyzer{
		global:   global,
		behavior: behavior,
		now:      time.Now,
	}
}

// CognitiveState classifies the current session's elapsed duration and
// cross-references closed sessions from the same hour of day.
type CognitiveState struct {
	Active           bool    `json:"active"`
	Message          string  `json:"message,omitempty"`
	Phase            string  `json:"phase,omitempty"`
	SessionMinutes   float64 `json:"session_minutes,omitempty"`
	InteractionCount int     `json:"interaction_count,omitempty"`

	TypicalWorkTime            bool    `json:"typical_work_time"`
	HistoricalSessionsThisHour int     `json:"historical_sessions_this_hour"`
	AvgHistoricalSessionMins   float64 `json:"avg_historical_session_mins,omitempty"`
}

// CognitiveState reports the phase of the current session, or an explicit
// no-active-session result distinct from a session that started recently.
func (a *Analyzer) CognitiveState() *CognitiveState {
	ctx := a.behavior.Load()
	now := a.now()

	_, lastTZ := a.global.LastActivity()
	currentHour := tracker.CivilHour(now, lastTZ)
	count, avgMins := a.historicalSessionsNearHour(ctx.CompletedSessions, currentHour)

	state := &CognitiveState{
		TypicalWorkTime:            count >= minHistoricalSessions,
		HistoricalSessionsThisHour: count,
		AvgHistoricalSessionMins:   avgMins,
	}

	cur := ctx.CurrentSession
	if cur == nil {
		state.Message = "no active session"
		return state
	}

	elapsed := now.Sub(cur.BurstStart).Minutes()
	state.Active = true
	state.Phase = phaseFor(elapsed)
	state.SessionMinutes = elapsed
	state.InteractionCount = cur.InteractionCount
	return state
}

func phaseFor(elapsedMins float64) string {
	switch {
	case elapsedMins < 15:
		return PhaseWarmingUp
	case elapsedMins < 45:
		return PhaseFocused
	case elapsedMins < 90:
		return PhaseDeepWork
	default:
		return PhaseExtendedSession
	}
}

// historicalSessionsNearHour counts closed sessions whose civil start hour is
// within one hour of hour (wrapping at midnight) and averages their lengths.
func (a *Analyzer) historicalSessionsNearHour(sessions []models.Session, hour int) (int, float64) {
	count := 0
	total := 0.0
	for _, s := range sessions {
		startHour := tracker.CivilHour(s.BurstStart, s.Timezone)
		if hoursNear(startHour, hour) {
			count++
			total += s.BurstLengthMins
		}
	}
	if count == 0 {
		return 0, 0
	}
	return count, total / float64(count)
}

func hoursNear(a, b int) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1 || diff >= 23
}
