package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatResponse_Minimal(t *testing.T) {
	r := &QueryResponse{
		Answer: "It is 3:00 PM in Tokyo",
		Parsed: ParsedQuery{Location: "Tokyo"},
		Context: ResponseContext{
			Timezone:      "Asia/Tokyo",
			HumanReadable: "Tuesday, March 10, 2026 at 3:00 PM JST",
		},
		ExecutionTimeMs: 12.5,
	}

	out := FormatResponse(r)
	assert.True(t, strings.HasPrefix(out, "## It is 3:00 PM in Tokyo\n"))
	assert.Contains(t, out, "**Location:** Tokyo\n")
	assert.Contains(t, out, "**Time:** Tuesday, March 10, 2026 at 3:00 PM JST\n")
	assert.Contains(t, out, "*Response generated in 12.50ms*")
	assert.NotContains(t, out, "### Prayer Times")
	assert.NotContains(t, out, "### Astronomical Information")
}

func TestFormatResponse_LocationFallsBackToTimezone(t *testing.T) {
	r := &QueryResponse{
		Answer:  "now",
		Context: ResponseContext{Timezone: "Europe/Paris"},
	}
	out := FormatResponse(r)
	assert.Contains(t, out, "**Location:** Europe/Paris\n")
}

func TestFormatResponse_PrayerTimes(t *testing.T) {
	r := &QueryResponse{
		Answer: "Prayer times for Istanbul",
		Context: ResponseContext{
			PrayerTimes: &PrayerTimes{
				Method: "Diyanet",
				Prayers: map[string]string{
					"fajr":    "2026-03-10T05:30:00+03:00",
					"dhuhr":   "2026-03-10T13:10:00+03:00",
					"maghrib": "2026-03-10T19:05:00+03:00",
				},
				NextPrayer:     &NextPrayer{Prayer: "Maghrib", TimeUntilHuman: "2 hours"},
				QiblaDirection: &QiblaDirection{Description: "151° southeast"},
			},
		},
	}

	out := FormatResponse(r)
	assert.Contains(t, out, "### Prayer Times")
	assert.Contains(t, out, "**Method:** Diyanet")
	assert.Contains(t, out, "| Fajr | 5:30:00 AM |")
	assert.Contains(t, out, "| Dhuhr | 1:10:00 PM |")
	assert.Contains(t, out, "| Maghrib | 7:05:00 PM |")
	assert.Contains(t, out, "**Next Prayer:** Maghrib in 2 hours")
	assert.Contains(t, out, "**Qibla Direction:** 151° southeast")

	// Prayers render in canonical order.
	assert.Less(t, strings.Index(out, "| Fajr |"), strings.Index(out, "| Dhuhr |"))
	assert.Less(t, strings.Index(out, "| Dhuhr |"), strings.Index(out, "| Maghrib |"))
}

func TestFormatResponse_Astronomical(t *testing.T) {
	r := &QueryResponse{
		Answer: "sun times",
		Context: ResponseContext{
			Astronomical: &Astronomical{
				Sunrise:          "2026-03-10T06:15:00Z",
				Sunset:           "2026-03-10T18:05:00Z",
				DayLengthHours:   11.83,
				MoonPhase:        "Waxing Crescent",
				MoonIllumination: 0.347,
			},
		},
	}

	out := FormatResponse(r)
	assert.Contains(t, out, "**Sunrise:** 6:15:00 AM")
	assert.Contains(t, out, "**Sunset:** 6:05:00 PM")
	assert.Contains(t, out, "**Day length:** 11h 50m")
	assert.Contains(t, out, "**Moon:** Waxing Crescent (35% illuminated)")
}

func TestFormatResponse_Calendars(t *testing.T) {
	noWork := false
	r := &QueryResponse{
		Answer: "today",
		Context: ResponseContext{
			CulturalCalendars: []CulturalCalendar{
				{
					CalendarType:      "hebrew",
					Date:              "21 Adar 5786",
					SpecialObservance: "Shabbat",
					WorkPermitted:     &noWork,
				},
				{
					CalendarType: "chinese",
					Date:         "Year of the Horse",
					Zodiac:       "Horse",
					Element:      "Fire",
				},
			},
		},
	}

	out := FormatResponse(r)
	assert.Contains(t, out, "**Hebrew Calendar:** 21 Adar 5786")
	assert.Contains(t, out, "**Observance:** Shabbat")
	assert.Contains(t, out, "**No work permitted**")
	assert.Contains(t, out, "**Chinese Calendar:** Year of the Horse")
	assert.Contains(t, out, "**Zodiac:** Fire Horse")
}

func TestFormatResponse_Appropriateness(t *testing.T) {
	r := &QueryResponse{
		Answer: "is it ok to call",
		Context: ResponseContext{
			ActivityAppropriate: &Appropriateness{
				TimeOfDay:              "late evening",
				AppropriateForCalls:    false,
				AppropriateForWork:     true,
				AppropriateForMeetings: false,
				Considerations:         []string{"late local time"},
				FastingObservances: []FastingObservance{
					{Religion: "Islam", Observance: "Ramadan", Notes: []string{"iftar at sunset"}},
				},
				WorkRestrictions: []WorkRestriction{
					{Culture: "Jewish", Observance: "Shabbat", Reason: "day of rest"},
				},
			},
		},
	}

	out := FormatResponse(r)
	assert.Contains(t, out, "**Appropriate for calls:** No")
	assert.Contains(t, out, "**Appropriate for work:** Yes")
	assert.Contains(t, out, "**Appropriate for meetings:** No")
	assert.Contains(t, out, "**Considerations:** late local time")
	assert.Contains(t, out, "- Islam: Ramadan")
	assert.Contains(t, out, "iftar at sunset")
	assert.Contains(t, out, "- Jewish: Shabbat")
}

func TestFormatResponse_EventsCappedAtThree(t *testing.T) {
	r := &QueryResponse{
		Answer: "upcoming",
		Context: ResponseContext{
			UpcomingEvents: []UpcomingEvent{
				{Description: "Event A"},
				{Description: "Event B"},
				{Description: "Event C"},
				{Description: "Event D"},
			},
			RelativeToUser: &RelativeTime{Description: "Tomorrow afternoon your time"},
		},
	}

	out := FormatResponse(r)
	assert.Contains(t, out, "Event A")
	assert.Contains(t, out, "Event C")
	assert.NotContains(t, out, "Event D")
	assert.Contains(t, out, "### Relative Time\n\nTomorrow afternoon your time")
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "5:30:00 AM", formatClock("2026-03-10T05:30:00+03:00"))
	assert.Equal(t, "not a timestamp", formatClock("not a timestamp"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Hebrew", titleCase("hebrew"))
	assert.Equal(t, "", titleCase(""))
	assert.Equal(t, "X", titleCase("x"))
}
