package models

import "time"

// Session is one contiguous burst of interactions, tracked as a single
// record that is updated in place until an inactivity gap closes it.
type Session struct {
	SessionID        string    `json:"session_id"`
	BurstStart       time.Time `json:"burst_start"`
	BurstEnd         time.Time `json:"burst_end"` // last interaction, continuously updated
	BurstLengthMins  float64   `json:"burst_length_mins"`
	InteractionCount int       `json:"interaction_count"`
	Timezone         string    `json:"timezone,omitempty"` // user may travel/change timezone
	Project          string    `json:"project,omitempty"`
}

// SleepGap is a long overnight pause inferred from gap length plus the local
// hour of the last activity before the gap.
type SleepGap struct {
	GapStart       time.Time `json:"gap_start"`
	GapEnd         time.Time `json:"gap_end"`
	GapLengthMins  int       `json:"gap_length_mins"`
	DetectedAtHour int       `json:"detected_at_hour"` // local hour of last activity (e.g. 23 = 11pm)
	Timezone       string    `json:"timezone,omitempty"`
}

// LunchGap is a midday pause inferred from gap length plus the local hour at
// which the gap began.
type LunchGap struct {
	GapStart       time.Time `json:"gap_start"`
	GapEnd         time.Time `json:"gap_end"`
	GapLengthMins  int       `json:"gap_length_mins"`
	DetectedAtHour int       `json:"detected_at_hour"` // 11-14 = lunch hours
	Timezone       string    `json:"timezone,omitempty"`
}

// BehaviorContext is the behavior-context.json document: the mutable current
// session, bounded history of completed sessions, and the derived sleep/lunch
// pattern logs.
type BehaviorContext struct {
	CurrentSession                *Session   `json:"current_session"`
	CompletedSessions             []Session  `json:"completed_sessions"`
	EstimatedSleepGaps            []SleepGap `json:"estimated_sleep_gaps"`
	EstimatedLunchGaps            []LunchGap `json:"estimated_lunch_gaps"`
	ContextSwitchThresholdMinutes int        `json:"context_switch_threshold_minutes"`
}
