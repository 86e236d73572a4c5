// Package api is the thin client for the remote Vreme time service: it
// forwards structured queries as HTTP requests and reformats the JSON
// responses as markdown. Single attempt, no retries; errors are surfaced
// verbatim.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Vreme API endpoint.
const DefaultBaseURL = "https://api.vreme.ai"

// Client calls the Vreme time service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL (DefaultBaseURL when
// empty).
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// BaseURL returns the configured endpoint, for error messages.
func (c *Client) BaseURL() string { return c.baseURL }

// QueryRequest is a natural-language temporal query.
type QueryRequest struct {
	Query        string `json:"query"`
	UserTimezone string `json:"user_timezone,omitempty"`
}

// QueryResponse is the service's parsed answer plus temporal context.
type QueryResponse struct {
	Query           string          `json:"query"`
	Parsed          ParsedQuery     `json:"parsed"`
	Context         ResponseContext `json:"context"`
	Answer          string          `json:"answer"`
	Type            string          `json:"type"`
	ExecutionTimeMs float64         `json:"execution_time_ms"`
}

// ParsedQuery is the service's interpretation of the query.
type ParsedQuery struct {
	Intent         string  `json:"intent"`
	Location       string  `json:"location"`
	Timezone       string  `json:"timezone"`
	Culture        string  `json:"culture"`
	CalendarSystem string  `json:"calendar_system"`
	Confidence     float64 `json:"confidence"`
}

// ResponseContext carries the temporal context sections the formatter
// renders. Calendar math, astronomy, and holiday data are owned by the
// service; this struct only names the fields the markdown output needs.
type ResponseContext struct {
	CurrentTime         string             `json:"current_time"`
	Timezone            string             `json:"timezone"`
	HumanReadable       string             `json:"human_readable"`
	Astronomical        *Astronomical      `json:"astronomical"`
	CulturalCalendars   []CulturalCalendar `json:"cultural_calendars"`
	ActivityAppropriate *Appropriateness   `json:"activity_appropriateness"`
	UpcomingEvents      []UpcomingEvent    `json:"upcoming_events"`
	RelativeToUser      *RelativeTime      `json:"relative_to_user"`
	PrayerTimes         *PrayerTimes       `json:"prayer_times,omitempty"`
}

// Astronomical holds sun and moon data for the queried location.
type Astronomical struct {
	Sunrise          string  `json:"sunrise,omitempty"`
	Sunset           string  `json:"sunset,omitempty"`
	DayLengthHours   float64 `json:"day_length_hours,omitempty"`
	MoonPhase        string  `json:"moon_phase,omitempty"`
	MoonIllumination float64 `json:"moon_illumination,omitempty"`
}

// CulturalCalendar is one calendar system's view of the queried date.
type CulturalCalendar struct {
	CalendarType      string   `json:"calendar_type"`
	Date              string   `json:"date"`
	SpecialObservance string   `json:"special_observance,omitempty"`
	Notes             []string `json:"notes,omitempty"`
	IsFastingDay      bool     `json:"is_fasting_day,omitempty"`
	WorkPermitted     *bool    `json:"work_permitted,omitempty"`
	Zodiac            string   `json:"zodiac,omitempty"`
	Element           string   `json:"element,omitempty"`
}

// Appropriateness reports whether now suits calls, work, or meetings.
type Appropriateness struct {
	TimeOfDay              string              `json:"time_of_day"`
	AppropriateForCalls    bool                `json:"appropriate_for_calls"`
	AppropriateForWork     bool                `json:"appropriate_for_work"`
	AppropriateForMeetings bool                `json:"appropriate_for_meetings"`
	Considerations         []string            `json:"considerations,omitempty"`
	FastingObservances     []FastingObservance `json:"fasting_observances,omitempty"`
	WorkRestrictions       []WorkRestriction   `json:"work_restrictions,omitempty"`
}

// FastingObservance is an active religious fast at the queried location.
type FastingObservance struct {
	Religion   string   `json:"religion"`
	Observance string   `json:"observance"`
	Notes      []string `json:"notes,omitempty"`
}

// WorkRestriction is a cultural/religious restriction on working now.
type WorkRestriction struct {
	Culture    string `json:"culture"`
	Observance string `json:"observance"`
	Reason     string `json:"reason"`
}

// UpcomingEvent is a near-future calendar event.
type UpcomingEvent struct {
	Description string `json:"description"`
}

// RelativeTime describes the queried time relative to the user's timezone.
type RelativeTime struct {
	Description string `json:"description"`
}

// PrayerTimes holds Islamic prayer times for the queried location.
type PrayerTimes struct {
	Method         string            `json:"method"`
	Prayers        map[string]string `json:"prayers"`
	NextPrayer     *NextPrayer       `json:"next_prayer,omitempty"`
	QiblaDirection *QiblaDirection   `json:"qibla_direction,omitempty"`
}

// NextPrayer names the upcoming prayer and how long until it.
type NextPrayer struct {
	Prayer         string `json:"prayer"`
	TimeUntilHuman string `json:"time_until_human"`
}

// QiblaDirection describes the direction to Mecca.
type QiblaDirection struct {
	Description string `json:"description"`
}

// Query POSTs the request to the /query endpoint and decodes the response.
func (c *Client) Query(ctx context.Context, q QueryRequest) (*QueryResponse, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errText, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api request failed: %d %s", resp.StatusCode, string(errText))
	}

	var out QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
