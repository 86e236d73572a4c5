package models

import "time"

// Burst is a closed run of interactions tracked in memory for the lifetime
// of the hosting process. Its end is the last real interaction before the
// gap, not the time the gap was noticed.
type Burst struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	InteractionCount int       `json:"interaction_count"`
	GapToNextMinutes float64   `json:"gap_to_next_minutes,omitempty"`
}

// CurrentBurst is the open burst still accumulating interactions.
type CurrentBurst struct {
	Start            time.Time `json:"start"`
	LastInteraction  time.Time `json:"last_interaction"`
	InteractionCount int       `json:"interaction_count"`
}

// TemporalGrounding carries human-readable "when is now" strings for the
// assistant to anchor relative-time language.
type TemporalGrounding struct {
	CurrentDate    string `json:"current_date"` // "December 7, 2024"
	CurrentTime    string `json:"current_time"` // "4:30 AM EST"
	RelativeTime   string `json:"relative_time"`
	TimezoneOffset string `json:"timezone_offset"` // "+05:00"
}

// TemporalSnapshot is the ephemeral per-process temporal context: burst
// state from the in-memory tracker combined with the persisted global
// activity record.
type TemporalSnapshot struct {
	CurrentDatetime time.Time `json:"current_datetime"`
	Timezone        string    `json:"timezone"`
	DayOfWeek       string    `json:"day_of_week"`
	TimeOfDay       string    `json:"time_of_day"` // morning, afternoon, evening, night

	ActivityBursts           []Burst      `json:"activity_bursts"`
	CurrentBurst             CurrentBurst `json:"current_burst"`
	BurstGapThresholdMinutes int          `json:"burst_gap_threshold_minutes"`

	LastGlobalActivity    time.Time `json:"last_global_activity"`
	DaysSinceLastActivity float64   `json:"days_since_last_activity"`
	ContextSwitchDetected bool      `json:"context_switch_detected"`

	IsLateNight    bool `json:"is_late_night"`    // after 11 PM
	IsEarlyMorning bool `json:"is_early_morning"` // before 6 AM

	TemporalGrounding TemporalGrounding `json:"temporal_grounding"`
}
