package tracker

import (
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vreme-ai/vreme/internal/models"
)

const (
	behaviorFile = "behavior-context.json"

	// DefaultSessionThresholdMinutes is the inactivity gap that closes the
	// current session and starts a new one.
	DefaultSessionThresholdMinutes = 30

	maxCompletedSessions = 50
	maxPatternGaps       = 30

	// Sleep detection: 2.5+ hour gap whose last activity fell in the night
	// window (10pm-6am local).
	sleepMinGapMins = 150
	sleepNightStart = 22
	sleepNightEnd   = 6

	// Lunch detection: 30+ minute gap beginning during lunch hours
	// (11am-2pm local).
	lunchMinGapMins = 30
	lunchHourStart  = 11
	lunchHourEnd    = 14
)

// BehaviorStore persists the durable session/burst model in
// behavior-context.json: one current session updated in place, plus bounded
// histories of completed sessions and detected sleep/lunch gaps.
//
// One session object per burst, no duplicate entries: a contiguous run of
// interactions is a single record until an inactivity gap closes it.
type BehaviorStore struct {
	dir    string
	logger *slog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewBehaviorStore creates a store rooted at dir.
func NewBehaviorStore(dir string, logger *slog.Logger) *BehaviorStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BehaviorStore{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

func (b *BehaviorStore) path() string {
	return filepath.Join(b.dir, behaviorFile)
}

func defaultBehaviorContext() *models.BehaviorContext {
	return &models.BehaviorContext{
		CurrentSession:                nil,
		CompletedSessions:             []models.Session{},
		EstimatedSleepGaps:            []models.SleepGap{},
		EstimatedLunchGaps:            []models.LunchGap{},
		ContextSwitchThresholdMinutes: DefaultSessionThresholdMinutes,
	}
}

// Load returns the persisted behavior context, synthesizing defaults when
// the file is missing or malformed and backfilling fields added after the
// document was first written.
func (b *BehaviorStore) Load() *models.BehaviorContext {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load()
}

func (b *BehaviorStore) load() *models.BehaviorContext {
	data, err := os.ReadFile(b.path())
	if err != nil {
		if !os.IsNotExist(err) {
			b.logger.Warn("reading behavior context", "path", b.path(), "error", err)
		}
		ctx := defaultBehaviorContext()
		b.save(ctx)
		return ctx
	}

	var ctx models.BehaviorContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		b.logger.Warn("parsing behavior context, using defaults", "path", b.path(), "error", err)
		return defaultBehaviorContext()
	}

	// Migration: backfill fields missing from older documents.
	if ctx.CompletedSessions == nil {
		ctx.CompletedSessions = []models.Session{}
	}
	if ctx.EstimatedSleepGaps == nil {
		ctx.EstimatedSleepGaps = []models.SleepGap{}
	}
	if ctx.EstimatedLunchGaps == nil {
		ctx.EstimatedLunchGaps = []models.LunchGap{}
	}
	if ctx.ContextSwitchThresholdMinutes <= 0 {
		ctx.ContextSwitchThresholdMinutes = DefaultSessionThresholdMinutes
	}
	return &ctx
}

// Save persists the behavior context, rewriting the document whole.
func (b *BehaviorStore) Save(ctx *models.BehaviorContext) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.save(ctx)
}

func (b *BehaviorStore) save(ctx *models.BehaviorContext) {
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		b.logger.Warn("creating data directory", "dir", b.dir, "error", err)
		return
	}
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		b.logger.Warn("encoding behavior context", "error", err)
		return
	}
	if err := os.WriteFile(b.path(), data, 0644); err != nil {
		b.logger.Warn("writing behavior context", "path", b.path(), "error", err)
	}
}

// UpdateSession rolls the durable session model forward for one interaction.
//
// When the gap since lastGlobalActivity exceeds the configured threshold (or
// no session is open) the current session is finalized into history, the
// sleep and lunch detectors are evaluated against the closing gap, and a new
// session begins at now. Otherwise the current session is extended in place.
// The lastGlobalActivity argument must be the value read before the global
// tracker stamped this interaction.
func (b *BehaviorStore) UpdateSession(sessionID string, lastGlobalActivity time.Time, lastTimezone, project string, interactionCount int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx := b.load()
	now := b.now()

	gapMinutes := 0.0
	if !lastGlobalActivity.IsZero() {
		gapMinutes = now.Sub(lastGlobalActivity).Minutes()
	}

	isContextSwitch := gapMinutes > float64(ctx.ContextSwitchThresholdMinutes)

	if isContextSwitch || ctx.CurrentSession == nil {
		if cur := ctx.CurrentSession; cur != nil {
			cur.BurstLengthMins = cur.BurstEnd.Sub(cur.BurstStart).Minutes()
			ctx.CompletedSessions = append(ctx.CompletedSessions, *cur)
			if len(ctx.CompletedSessions) > maxCompletedSessions {
				ctx.CompletedSessions = ctx.CompletedSessions[len(ctx.CompletedSessions)-maxCompletedSessions:]
			}

			// Pattern detectors run only against the gap that closed the
			// session; they are independent and both may fire.
			if !lastGlobalActivity.IsZero() {
				hour := CivilHour(lastGlobalActivity, lastTimezone)

				if gapMinutes >= sleepMinGapMins && (hour >= sleepNightStart || hour < sleepNightEnd) {
					ctx.EstimatedSleepGaps = append(ctx.EstimatedSleepGaps, models.SleepGap{
						GapStart:       lastGlobalActivity,
						GapEnd:         now,
						GapLengthMins:  int(math.Round(gapMinutes)),
						DetectedAtHour: hour,
						Timezone:       lastTimezone,
					})
					if len(ctx.EstimatedSleepGaps) > maxPatternGaps {
						ctx.EstimatedSleepGaps = ctx.EstimatedSleepGaps[len(ctx.EstimatedSleepGaps)-maxPatternGaps:]
					}
				}

				if gapMinutes >= lunchMinGapMins && hour >= lunchHourStart && hour < lunchHourEnd {
					ctx.EstimatedLunchGaps = append(ctx.EstimatedLunchGaps, models.LunchGap{
						GapStart:       lastGlobalActivity,
						GapEnd:         now,
						GapLengthMins:  int(math.Round(gapMinutes)),
						DetectedAtHour: hour,
						Timezone:       lastTimezone,
					})
					if len(ctx.EstimatedLunchGaps) > maxPatternGaps {
						ctx.EstimatedLunchGaps = ctx.EstimatedLunchGaps[len(ctx.EstimatedLunchGaps)-maxPatternGaps:]
					}
				}
			}
		}

		ctx.CurrentSession = &models.Session{
			SessionID:        sessionID,
			BurstStart:       now,
			BurstEnd:         now,
			BurstLengthMins:  0,
			InteractionCount: interactionCount,
			Timezone:         LocalTimezone(),
			Project:          project,
		}
	} else {
		cur := ctx.CurrentSession
		cur.BurstEnd = now
		cur.InteractionCount += interactionCount
		cur.BurstLengthMins = now.Sub(cur.BurstStart).Minutes()
		if project != "" && cur.Project == "" {
			cur.Project = project
		}
	}

	b.save(ctx)
}

// CurrentSession returns the open session, or nil when none is active.
func (b *BehaviorStore) CurrentSession() *models.Session {
	return b.Load().CurrentSession
}

// Threshold returns the configured session-close gap.
func (b *BehaviorStore) Threshold() time.Duration {
	return time.Duration(b.Load().ContextSwitchThresholdMinutes) * time.Minute
}
