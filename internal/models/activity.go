package models

import "time"

// ActivityEvent is one tracked interaction in the global activity history.
type ActivityEvent struct {
	Timestamp        time.Time `json:"timestamp"`
	SessionID        string    `json:"session_id"`
	Project          string    `json:"project"`
	InteractionCount int       `json:"interaction_count"`
}

// ContextSwitch records a gap of more than one hour between successive
// tracked activities, suggesting the user moved to an unrelated task.
type ContextSwitch struct {
	Timestamp   time.Time `json:"timestamp"`
	GapHours    float64   `json:"gap_hours"`
	FromProject string    `json:"from_project"`
	ToProject   string    `json:"to_project"`
}

// GlobalActivity is the temporal-context.json document: the last tracked
// interaction across all sessions plus bounded histories of activity events
// and detected context switches.
type GlobalActivity struct {
	LastGlobalActivity time.Time       `json:"last_global_activity"`
	LastTimezone       string          `json:"last_timezone"`
	ActivityHistory    []ActivityEvent `json:"activity_history"`
	ContextSwitches    []ContextSwitch `json:"context_switches"`
}
