package tracker

import (
	"sync"
	"time"

	"github.com/vreme-ai/vreme/internal/models"
)

const (
	// DefaultBurstThreshold closes the in-memory burst. Tighter than the
	// durable session threshold: a single assistant run is a finer-grained
	// unit than a human's overall work session.
	DefaultBurstThreshold = 15 * time.Minute

	// Closed bursts older than this are evicted, lazily, when a new burst
	// closes.
	burstRetention = 24 * time.Hour
)

// BurstTracker is the process-local burst-boundary detector. It is never
// persisted: state is reset on process start and discarded on exit. Every
// recorded interaction is also forwarded to the global activity tracker.
type BurstTracker struct {
	global    *GlobalTracker
	threshold time.Duration

	mu              sync.Mutex
	now             func() time.Time
	bursts          []models.Burst
	currentStart    time.Time
	lastInteraction time.Time
	currentCount    int
}

// NewBurstTracker creates a tracker with the given gap threshold. A zero or
// negative threshold selects the default.
func NewBurstTracker(global *GlobalTracker, threshold time.Duration) *BurstTracker {
	if threshold <= 0 {
		threshold = DefaultBurstThreshold
	}
	return &BurstTracker{
		global:    global,
		threshold: threshold,
		now:       time.Now,
	}
}

// RecordInteraction rolls the burst window forward for one tracked call.
//
// A gap above the threshold retroactively closes the open burst at the
// previous interaction time (the burst's recorded end is always the last
// real interaction, not the moment the gap was noticed), prunes bursts
// outside the retention window, and opens a new burst at now.
func (t *BurstTracker) RecordInteraction(sessionID, project string) {
	t.mu.Lock()
	now := t.now()

	switch {
	case t.lastInteraction.IsZero():
		t.currentStart = now
		t.currentCount = 1
	case now.Sub(t.lastInteraction) > t.threshold:
		t.bursts = append(t.bursts, models.Burst{
			Start:            t.currentStart,
			End:              t.lastInteraction,
			InteractionCount: t.currentCount,
			GapToNextMinutes: now.Sub(t.lastInteraction).Minutes(),
		})
		t.prune(now)
		t.currentStart = now
		t.currentCount = 1
	default:
		t.currentCount++
	}

	t.lastInteraction = now
	count := t.currentCount
	t.mu.Unlock()

	// Always forward, regardless of branch.
	t.global.RecordActivity(sessionID, project, count)
}

// prune drops closed bursts whose end has aged out. Caller holds t.mu.
func (t *BurstTracker) prune(now time.Time) {
	kept := t.bursts[:0]
	for _, b := range t.bursts {
		if now.Sub(b.End) <= burstRetention {
			kept = append(kept, b)
		}
	}
	t.bursts = kept
}

// Snapshot builds the ephemeral temporal context for the current process:
// burst state combined with fresh reads of the global activity record.
func (t *BurstTracker) Snapshot(timezone string) *models.TemporalSnapshot {
	t.mu.Lock()
	now := t.now()
	bursts := make([]models.Burst, len(t.bursts))
	copy(bursts, t.bursts)
	current := models.CurrentBurst{
		Start:            t.currentStart,
		LastInteraction:  t.lastInteraction,
		InteractionCount: t.currentCount,
	}
	threshold := t.threshold
	t.mu.Unlock()

	if timezone == "" {
		timezone = LocalTimezone()
	}
	local := now.In(location(timezone))
	hour := local.Hour()

	lastGlobal, _ := t.global.LastActivity()

	return &models.TemporalSnapshot{
		CurrentDatetime:          now,
		Timezone:                 timezone,
		DayOfWeek:                local.Weekday().String(),
		TimeOfDay:                timeOfDay(hour),
		ActivityBursts:           bursts,
		CurrentBurst:             current,
		BurstGapThresholdMinutes: int(threshold.Minutes()),
		LastGlobalActivity:       lastGlobal,
		DaysSinceLastActivity:    round1(t.global.DaysSinceLastActivity()),
		ContextSwitchDetected:    t.global.DetectContextSwitch(),
		IsLateNight:              hour >= 23 || hour < 6,
		IsEarlyMorning:           hour < 6,
		TemporalGrounding: models.TemporalGrounding{
			CurrentDate:    local.Format("January 2, 2006"),
			CurrentTime:    local.Format("3:04 PM MST"),
			RelativeTime:   "now",
			TimezoneOffset: local.Format("-07:00"),
		},
	}
}

func timeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}
