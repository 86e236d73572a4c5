package tracker

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vreme-ai/vreme/internal/models"
)

const (
	globalFile = "temporal-context.json"

	maxActivityHistory = 100
	maxContextSwitches = 50

	// A gap above this between successive tracked activities counts as a
	// context switch.
	contextSwitchGap = time.Hour
)

// GlobalTracker persists the cross-session "last activity" record in
// temporal-context.json under the configured data directory.
//
// Storage here is advisory telemetry: every operation degrades to a safe
// default instead of returning an error, so a tool call never fails because
// of local bookkeeping problems.
type GlobalTracker struct {
	dir    string
	logger *slog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewGlobalTracker creates a tracker rooted at dir. The directory is created
// lazily on first write.
func NewGlobalTracker(dir string, logger *slog.Logger) *GlobalTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &GlobalTracker{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

func (g *GlobalTracker) path() string {
	return filepath.Join(g.dir, globalFile)
}

func (g *GlobalTracker) defaultRecord() *models.GlobalActivity {
	return &models.GlobalActivity{
		LastGlobalActivity: g.now(),
		LastTimezone:       LocalTimezone(),
		ActivityHistory:    []models.ActivityEvent{},
		ContextSwitches:    []models.ContextSwitch{},
	}
}

// Load returns the persisted record, synthesizing a fresh default when the
// file is missing or unreadable. A malformed document is logged and treated
// as absent, never propagated.
func (g *GlobalTracker) Load() *models.GlobalActivity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.load()
}

func (g *GlobalTracker) load() *models.GlobalActivity {
	data, err := os.ReadFile(g.path())
	if err != nil {
		if !os.IsNotExist(err) {
			g.logger.Warn("reading temporal context", "path", g.path(), "error", err)
		}
		rec := g.defaultRecord()
		g.save(rec)
		return rec
	}

	var rec models.GlobalActivity
	if err := json.Unmarshal(data, &rec); err != nil {
		g.logger.Warn("parsing temporal context, using defaults", "path", g.path(), "error", err)
		return g.defaultRecord()
	}
	if rec.ActivityHistory == nil {
		rec.ActivityHistory = []models.ActivityEvent{}
	}
	if rec.ContextSwitches == nil {
		rec.ContextSwitches = []models.ContextSwitch{}
	}
	return &rec
}

func (g *GlobalTracker) save(rec *models.GlobalActivity) {
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		g.logger.Warn("creating data directory", "dir", g.dir, "error", err)
		return
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		g.logger.Warn("encoding temporal context", "error", err)
		return
	}
	if err := os.WriteFile(g.path(), data, 0644); err != nil {
		g.logger.Warn("writing temporal context", "path", g.path(), "error", err)
	}
}

// RecordActivity stamps "last activity now", appends to the bounded activity
// history, and records a context switch when the gap since the previous
// activity exceeds one hour. Best-effort: I/O failures are logged and
// swallowed.
func (g *GlobalTracker) RecordActivity(sessionID, project string, interactionCount int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec := g.load()
	previous := rec.LastGlobalActivity
	now := g.now()

	if project == "" {
		project = "unknown"
	}

	rec.ActivityHistory = append(rec.ActivityHistory, models.ActivityEvent{
		Timestamp:        now,
		SessionID:        sessionID,
		Project:          project,
		InteractionCount: interactionCount,
	})
	if len(rec.ActivityHistory) > maxActivityHistory {
		rec.ActivityHistory = rec.ActivityHistory[len(rec.ActivityHistory)-maxActivityHistory:]
	}

	if !previous.IsZero() && now.Sub(previous) > contextSwitchGap {
		fromProject := "unknown"
		if n := len(rec.ActivityHistory); n >= 2 {
			fromProject = rec.ActivityHistory[n-2].Project
		}
		rec.ContextSwitches = append(rec.ContextSwitches, models.ContextSwitch{
			Timestamp:   now,
			GapHours:    round1(now.Sub(previous).Hours()),
			FromProject: fromProject,
			ToProject:   project,
		})
		if len(rec.ContextSwitches) > maxContextSwitches {
			rec.ContextSwitches = rec.ContextSwitches[len(rec.ContextSwitches)-maxContextSwitches:]
		}
	}

	rec.LastGlobalActivity = now
	rec.LastTimezone = LocalTimezone()
	g.save(rec)
}

// LastActivity returns the persisted last-activity timestamp and the IANA
// timezone that was active at that interaction.
func (g *GlobalTracker) LastActivity() (time.Time, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec := g.load()
	return rec.LastGlobalActivity, rec.LastTimezone
}

// DaysSinceLastActivity reports the elapsed time since the last tracked
// interaction, in days. Returns 0 when no meaningful record exists.
func (g *GlobalTracker) DaysSinceLastActivity() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec := g.load()
	if rec.LastGlobalActivity.IsZero() {
		return 0
	}
	days := g.now().Sub(rec.LastGlobalActivity).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}

// DetectContextSwitch reports whether the gap since the last tracked
// activity exceeds one hour, evaluated fresh at call time.
func (g *GlobalTracker) DetectContextSwitch() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec := g.load()
	if rec.LastGlobalActivity.IsZero() {
		return false
	}
	return g.now().Sub(rec.LastGlobalActivity) > contextSwitchGap
}
