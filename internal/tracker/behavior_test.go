package tracker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBehaviorStore_LoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	b := NewBehaviorStore(dir, testLogger())

	ctx := b.Load()
	require.NotNil(t, ctx)
	assert.Nil(t, ctx.CurrentSession)
	assert.Empty(t, ctx.CompletedSessions)
	assert.Equal(t, DefaultSessionThresholdMinutes, ctx.ContextSwitchThresholdMinutes)

	_, err := os.Stat(filepath.Join(dir, "behavior-context.json"))
	assert.NoError(t, err)
}

func TestBehaviorStore_FirstInteractionOpensSession(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	b.UpdateSession("sess-1", time.Time{}, "", "vreme", 1)

	ctx := b.Load()
	require.NotNil(t, ctx.CurrentSession)
	assert.Equal(t, "sess-1", ctx.CurrentSession.SessionID)
	assert.True(t, ctx.CurrentSession.BurstStart.Equal(now))
	assert.True(t, ctx.CurrentSession.BurstEnd.Equal(now))
	assert.Equal(t, 1, ctx.CurrentSession.InteractionCount)
	assert.Equal(t, "vreme", ctx.CurrentSession.Project)
	assert.Empty(t, ctx.CompletedSessions)
}

func TestBehaviorStore_GapUnderThresholdExtends(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	b.now = func() time.Time { return t0 }
	b.UpdateSession("sess-1", time.Time{}, "", "", 1)

	// 29 minutes later: inside the 30-minute threshold.
	t1 := t0.Add(29 * time.Minute)
	b.now = func() time.Time { return t1 }
	b.UpdateSession("sess-1", t0, "UTC", "", 1)

	ctx := b.Load()
	require.NotNil(t, ctx.CurrentSession)
	assert.True(t, ctx.CurrentSession.BurstStart.Equal(t0))
	assert.True(t, ctx.CurrentSession.BurstEnd.Equal(t1))
	assert.Equal(t, 2, ctx.CurrentSession.InteractionCount)
	assert.InDelta(t, 29, ctx.CurrentSession.BurstLengthMins, 0.001)
	assert.Empty(t, ctx.CompletedSessions)
}

func TestBehaviorStore_GapOverThresholdCloses(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	b.now = func() time.Time { return t0 }
	b.UpdateSession("sess-1", time.Time{}, "", "alpha", 1)

	t1 := t0.Add(10 * time.Minute)
	b.now = func() time.Time { return t1 }
	b.UpdateSession("sess-1", t0, "UTC", "", 1)

	// 31 minutes of silence closes the session.
	t2 := t1.Add(31 * time.Minute)
	b.now = func() time.Time { return t2 }
	b.UpdateSession("sess-2", t1, "UTC", "beta", 1)

	ctx := b.Load()
	require.Len(t, ctx.CompletedSessions, 1)
	done := ctx.CompletedSessions[0]
	assert.Equal(t, "sess-1", done.SessionID)
	assert.True(t, done.BurstStart.Equal(t0))
	assert.True(t, done.BurstEnd.Equal(t1))
	assert.InDelta(t, 10, done.BurstLengthMins, 0.001)
	assert.Equal(t, 2, done.InteractionCount)

	require.NotNil(t, ctx.CurrentSession)
	assert.Equal(t, "sess-2", ctx.CurrentSession.SessionID)
	assert.True(t, ctx.CurrentSession.BurstStart.Equal(t2))
	assert.Equal(t, "beta", ctx.CurrentSession.Project)
}

func TestBehaviorStore_ProjectSetOnlyWhenUnset(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	b.now = func() time.Time { return t0 }
	b.UpdateSession("sess-1", time.Time{}, "", "", 1)

	t1 := t0.Add(5 * time.Minute)
	b.now = func() time.Time { return t1 }
	b.UpdateSession("sess-1", t0, "UTC", "alpha", 1)

	t2 := t1.Add(5 * time.Minute)
	b.now = func() time.Time { return t2 }
	b.UpdateSession("sess-1", t1, "UTC", "beta", 1)

	ctx := b.Load()
	require.NotNil(t, ctx.CurrentSession)
	assert.Equal(t, "alpha", ctx.CurrentSession.Project)
}

func TestBehaviorStore_SleepGapDetected(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())

	// Last activity 11pm, next interaction 7.5 hours later.
	last := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)
	now := last.Add(450 * time.Minute)

	b.now = func() time.Time { return last }
	b.UpdateSession("sess-1", time.Time{}, "", "", 1)

	b.now = func() time.Time { return now }
	b.UpdateSession("sess-1", last, "UTC", "", 1)

	ctx := b.Load()
	require.Len(t, ctx.EstimatedSleepGaps, 1)
	gap := ctx.EstimatedSleepGaps[0]
	assert.True(t, gap.GapStart.Equal(last))
	assert.True(t, gap.GapEnd.Equal(now))
	assert.Equal(t, 450, gap.GapLengthMins)
	assert.Equal(t, 23, gap.DetectedAtHour)
	assert.Equal(t, "UTC", gap.Timezone)
	assert.Empty(t, ctx.EstimatedLunchGaps)
}

func TestBehaviorStore_SleepGapEarlyMorning(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())

	// 3am counts as the night window too.
	last := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	now := last.Add(150 * time.Minute)

	b.now = func() time.Time { return last }
	b.UpdateSession("sess-1", time.Time{}, "", "", 1)
	b.now = func() time.Time { return now }
	b.UpdateSession("sess-1", last, "UTC", "", 1)

	ctx := b.Load()
	assert.Len(t, ctx.EstimatedSleepGaps, 1)
}

func TestBehaviorStore_SleepGapTooShort(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())

	last := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)
	now := last.Add(149 * time.Minute)

	b.now = func() time.Time { return last }
	b.UpdateSession("sess-1", time.Time{}, "", "", 1)
	b.now = func() time.Time { return now }
	b.UpdateSession("sess-1", last, "UTC", "", 1)

	ctx := b.Load()
	assert.Empty(t, ctx.EstimatedSleepGaps)
}

func TestBehaviorStore_SleepGapWrongHour(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())

	// Long gap, but starting mid-morning: not sleep.
	last := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	now := last.Add(200 * time.Minute)

	b.now = func() time.Time { return last }
	b.UpdateSession("sess-1", time.Time{}, "", "", 1)
	b.now = func() time.Time { return now }
	b.UpdateSession("sess-1", last, "UTC", "", 1)

	ctx := b.Load()
	assert.Empty(t, ctx.EstimatedSleepGaps)
}

func TestBehaviorStore_LunchGapDetected(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())

	last := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
	now := last.Add(45 * time.Minute)

	b.now = func() time.Time { return last }
	b.UpdateSession("sess-1", time.Time{}, "", "", 1)
	b.now = func() time.Time { return now }
	b.UpdateSession("sess-1", last, "UTC", "", 1)

	ctx := b.Load()
	require.Len(t, ctx.EstimatedLunchGaps, 1)
	gap := ctx.EstimatedLunchGaps[0]
	assert.Equal(t, 45, gap.GapLengthMins)
	assert.Equal(t, 12, gap.DetectedAtHour)
	assert.Empty(t, ctx.EstimatedSleepGaps)
}

func TestBehaviorStore_LunchGapBoundary(t *testing.T) {
	// With the session threshold lowered to 20 minutes, both gaps close
	// the session; only the 30-minute gap reaches the lunch minimum.
	for _, tt := range []struct {
		gapMins int
		want    int
	}{
		{30, 1},
		{29, 0},
	} {
		b := NewBehaviorStore(t.TempDir(), testLogger())
		ctx := defaultBehaviorContext()
		ctx.ContextSwitchThresholdMinutes = 20
		b.Save(ctx)

		last := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
		now := last.Add(time.Duration(tt.gapMins) * time.Minute)

		b.now = func() time.Time { return last }
		b.UpdateSession("sess-1", time.Time{}, "", "", 1)
		b.now = func() time.Time { return now }
		b.UpdateSession("sess-1", last, "UTC", "", 1)

		assert.Len(t, b.Load().EstimatedLunchGaps, tt.want, "%d minute gap", tt.gapMins)
	}
}

func TestBehaviorStore_LunchGapWrongHour(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())

	last := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	now := last.Add(45 * time.Minute)

	b.now = func() time.Time { return last }
	b.UpdateSession("sess-1", time.Time{}, "", "", 1)
	b.now = func() time.Time { return now }
	b.UpdateSession("sess-1", last, "UTC", "", 1)

	ctx := b.Load()
	assert.Empty(t, ctx.EstimatedLunchGaps)
}

func TestBehaviorStore_LunchHourRespectsTimezone(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())

	// 20:30 UTC is 12:30 in Los Angeles (PDT).
	last := time.Date(2026, 3, 10, 20, 30, 0, 0, time.UTC)
	now := last.Add(45 * time.Minute)

	b.now = func() time.Time { return last }
	b.UpdateSession("sess-1", time.Time{}, "", "", 1)
	b.now = func() time.Time { return now }
	b.UpdateSession("sess-1", last, "America/Los_Angeles", "", 1)

	ctx := b.Load()
	require.Len(t, ctx.EstimatedLunchGaps, 1)
	assert.Equal(t, 12, ctx.EstimatedLunchGaps[0].DetectedAtHour)
}

func TestBehaviorStore_CompletedSessionCap(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	prev := time.Time{}
	for i := 0; i < 55; i++ {
		now := base.Add(time.Duration(i) * time.Hour)
		b.now = func() time.Time { return now }
		b.UpdateSession("sess", prev, "UTC", "", 1)
		prev = now
	}

	ctx := b.Load()
	assert.Len(t, ctx.CompletedSessions, 50)
}

func TestBehaviorStore_CorruptFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "behavior-context.json"), []byte("<<garbage>>"), 0644))

	b := NewBehaviorStore(dir, testLogger())
	ctx := b.Load()
	require.NotNil(t, ctx)
	assert.Nil(t, ctx.CurrentSession)
	assert.Equal(t, DefaultSessionThresholdMinutes, ctx.ContextSwitchThresholdMinutes)
}

func TestBehaviorStore_MigrationBackfillsThreshold(t *testing.T) {
	dir := t.TempDir()
	doc := map[string]any{
		"current_session": nil,
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "behavior-context.json"), data, 0644))

	b := NewBehaviorStore(dir, testLogger())
	ctx := b.Load()
	assert.Equal(t, DefaultSessionThresholdMinutes, ctx.ContextSwitchThresholdMinutes)
	assert.NotNil(t, ctx.CompletedSessions)
	assert.NotNil(t, ctx.EstimatedSleepGaps)
	assert.NotNil(t, ctx.EstimatedLunchGaps)
}

func TestBehaviorStore_Threshold(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())
	assert.Equal(t, 30*time.Minute, b.Threshold())
}

// A full work morning: a burst of interactions, a lunch break, an afternoon
// burst, then overnight silence.
func TestBehaviorStore_DayScenario(t *testing.T) {
	b := NewBehaviorStore(t.TempDir(), testLogger())

	step := func(now, last time.Time, sessionID string) {
		b.now = func() time.Time { return now }
		b.UpdateSession(sessionID, last, "UTC", "vreme", 1)
	}

	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	step(t0, time.Time{}, "morning")
	step(t0.Add(5*time.Minute), t0, "morning")
	step(t0.Add(12*time.Minute), t0.Add(5*time.Minute), "morning")

	// Lunch: 12:00 to 12:50.
	lunchStart := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	step(lunchStart, t0.Add(12*time.Minute), "morning")
	afternoon := lunchStart.Add(50 * time.Minute)
	step(afternoon, lunchStart, "afternoon")

	// Keep the afternoon session alive past 2pm so the evening silence
	// does not read as another lunch gap.
	prev := afternoon
	for _, m := range []int{25, 50, 75} {
		now := afternoon.Add(time.Duration(m) * time.Minute)
		step(now, prev, "afternoon")
		prev = now
	}

	// Overnight: last touch 11pm, back at 7am.
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	step(night, prev, "evening")
	nextDay := time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)
	step(nextDay, night, "nextday")

	ctx := b.Load()
	require.NotNil(t, ctx.CurrentSession)
	assert.Equal(t, "nextday", ctx.CurrentSession.SessionID)
	assert.Len(t, ctx.CompletedSessions, 4)
	require.Len(t, ctx.EstimatedLunchGaps, 1)
	assert.Equal(t, 50, ctx.EstimatedLunchGaps[0].GapLengthMins)
	require.Len(t, ctx.EstimatedSleepGaps, 1)
	assert.Equal(t, 23, ctx.EstimatedSleepGaps[0].DetectedAtHour)
	assert.Equal(t, 480, ctx.EstimatedSleepGaps[0].GapLengthMins)
}
