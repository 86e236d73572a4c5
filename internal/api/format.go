package api

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FormatResponse renders a query response as markdown for the tool-calling
// layer. Sections with no data are omitted.
func FormatResponse(r *QueryResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n\n", r.Answer)
	b.WriteString("### Context\n\n")
	location := r.Parsed.Location
	if location == "" {
		location = r.Context.Timezone
	}
	fmt.Fprintf(&b, "**Location:** %s\n", location)
	fmt.Fprintf(&b, "**Time:** %s\n\n", r.Context.HumanReadable)

	writePrayerTimes(&b, r.Context.PrayerTimes)
	writeAstronomical(&b, r.Context.Astronomical)
	writeCalendars(&b, r.Context.CulturalCalendars)
	writeAppropriateness(&b, r.Context.ActivityAppropriate)

	if len(r.Context.UpcomingEvents) > 0 {
		b.WriteString("### Upcoming Events\n\n")
		events := r.Context.UpcomingEvents
		if len(events) > 3 {
			events = events[:3]
		}
		for _, e := range events {
			fmt.Fprintf(&b, "%s\n", e.Description)
		}
		b.WriteString("\n")
	}

	if r.Context.RelativeToUser != nil {
		fmt.Fprintf(&b, "### Relative Time\n\n%s\n\n", r.Context.RelativeToUser.Description)
	}

	fmt.Fprintf(&b, "---\n*Response generated in %.2fms*\n", r.ExecutionTimeMs)
	return b.String()
}

func writePrayerTimes(b *strings.Builder, prayers *PrayerTimes) {
	if prayers == nil {
		return
	}
	fmt.Fprintf(b, "### Prayer Times\n\n**Method:** %s\n\n", prayers.Method)

	if len(prayers.Prayers) > 0 {
		b.WriteString("| Prayer | Time |\n|--------|------|\n")
		order := []string{"fajr", "sunrise", "dhuhr", "asr", "maghrib", "isha"}
		labels := map[string]string{
			"fajr": "Fajr", "sunrise": "Sunrise", "dhuhr": "Dhuhr",
			"asr": "Asr", "maghrib": "Maghrib", "isha": "Isha",
		}
		for _, name := range order {
			if t := prayers.Prayers[name]; t != "" {
				fmt.Fprintf(b, "| %s | %s |\n", labels[name], formatClock(t))
			}
		}
		b.WriteString("\n")
	}

	if prayers.NextPrayer != nil {
		fmt.Fprintf(b, "**Next Prayer:** %s in %s\n\n", prayers.NextPrayer.Prayer, prayers.NextPrayer.TimeUntilHuman)
	}
	if prayers.QiblaDirection != nil {
		fmt.Fprintf(b, "**Qibla Direction:** %s\n\n", prayers.QiblaDirection.Description)
	}
}

func writeAstronomical(b *strings.Builder, astro *Astronomical) {
	if astro == nil {
		return
	}
	b.WriteString("### Astronomical Information\n\n")
	if astro.Sunrise != "" {
		fmt.Fprintf(b, "**Sunrise:** %s\n", formatClock(astro.Sunrise))
	}
	if astro.Sunset != "" {
		fmt.Fprintf(b, "**Sunset:** %s\n", formatClock(astro.Sunset))
	}
	if astro.DayLengthHours > 0 {
		h := int(astro.DayLengthHours)
		m := int(math.Round((astro.DayLengthHours - float64(h)) * 60))
		fmt.Fprintf(b, "**Day length:** %dh %dm\n", h, m)
	}
	if astro.MoonPhase != "" {
		fmt.Fprintf(b, "**Moon:** %s (%d%% illuminated)\n", astro.MoonPhase, int(math.Round(astro.MoonIllumination*100)))
	}
	b.WriteString("\n")
}

func writeCalendars(b *strings.Builder, calendars []CulturalCalendar) {
	if len(calendars) == 0 {
		return
	}
	b.WriteString("### Cultural Calendars\n\n")
	for _, cal := range calendars {
		fmt.Fprintf(b, "**%s Calendar:** %s\n", titleCase(cal.CalendarType), cal.Date)
		if cal.SpecialObservance != "" {
			fmt.Fprintf(b, "**Observance:** %s\n", cal.SpecialObservance)
		}
		if len(cal.Notes) > 0 {
			fmt.Fprintf(b, "**Notes:** %s\n", strings.Join(cal.Notes, ", "))
		}
		if cal.IsFastingDay {
			b.WriteString("**Fasting Day**\n")
		}
		if cal.WorkPermitted != nil && !*cal.WorkPermitted {
			b.WriteString("**No work permitted**\n")
		}
		if cal.Zodiac != "" && cal.Element != "" {
			fmt.Fprintf(b, "**Zodiac:** %s %s\n", cal.Element, cal.Zodiac)
		}
		b.WriteString("\n")
	}
}

func writeAppropriateness(b *strings.Builder, act *Appropriateness) {
	if act == nil {
		return
	}
	b.WriteString("### Activity Appropriateness\n\n")
	fmt.Fprintf(b, "**Time of day:** %s\n", act.TimeOfDay)
	fmt.Fprintf(b, "**Appropriate for calls:** %s\n", yesNo(act.AppropriateForCalls))
	fmt.Fprintf(b, "**Appropriate for work:** %s\n", yesNo(act.AppropriateForWork))
	fmt.Fprintf(b, "**Appropriate for meetings:** %s\n", yesNo(act.AppropriateForMeetings))
	if len(act.Considerations) > 0 {
		fmt.Fprintf(b, "**Considerations:** %s\n", strings.Join(act.Considerations, ", "))
	}

	if len(act.FastingObservances) > 0 {
		b.WriteString("\n**Fasting Observances:**\n")
		for _, f := range act.FastingObservances {
			fmt.Fprintf(b, "- %s: %s\n", f.Religion, f.Observance)
			if len(f.Notes) > 0 {
				fmt.Fprintf(b, "  %s\n", strings.Join(f.Notes, ", "))
			}
		}
	}

	if len(act.WorkRestrictions) > 0 {
		b.WriteString("\n**Work Restrictions:**\n")
		for _, r := range act.WorkRestrictions {
			fmt.Fprintf(b, "- %s: %s\n  %s\n", r.Culture, r.Observance, r.Reason)
		}
	}
	b.WriteString("\n")
}

// formatClock renders an RFC3339 timestamp as a local clock reading,
// passing the value through unchanged when it does not parse.
func formatClock(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.Format("3:04:05 PM")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
