package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vreme-ai/vreme/internal/analytics"
	"github.com/vreme-ai/vreme/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tracked activity and behavior patterns",
	Long: `Show the current session, recent completed sessions, detected
sleep/lunch gaps, and recent context switches from local tracking.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusRun()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusRun() error {
	global, behavior := newTrackers()
	analyzer := analytics.NewAnalyzer(global, behavior)

	rec := global.Load()
	ctx := behavior.Load()

	state := analyzer.CognitiveState()
	if state.Active {
		ui.Info("Current session: %s (%.0f min, %d interactions)",
			output.PhaseColor(state.Phase), state.SessionMinutes, state.InteractionCount)
	} else {
		ui.Info("No active session")
	}

	avail := analyzer.PredictAvailability()
	if avail.Status == analytics.StatusActive {
		ui.Info("Availability: %s (confidence %s)", output.Green(avail.Status), output.ConfidenceColor(avail.Confidence))
	} else {
		ui.Info("Availability: %s (%s, gap %.0f min, confidence %s)",
			output.Yellow(avail.Status), avail.Reason, avail.GapMinutes, output.ConfidenceColor(avail.Confidence))
	}

	ui.Info("Last activity: %s (%s)", timeAgo(rec.LastGlobalActivity), rec.LastTimezone)
	fmt.Fprintln(ui.Out)

	if n := len(ctx.CompletedSessions); n > 0 {
		ui.Info("Recent sessions:")
		table := ui.Table([]string{"Started", "Length", "Interactions", "Project"})
		start := 0
		if n > 10 {
			start = n - 10
		}
		for _, s := range ctx.CompletedSessions[start:] {
			project := s.Project
			if project == "" {
				project = "-"
			}
			table.Append([]string{
				s.BurstStart.Format("Mon Jan 2 15:04"),
				fmt.Sprintf("%.0f min", s.BurstLengthMins),
				fmt.Sprintf("%d", s.InteractionCount),
				output.Cyan(project),
			})
		}
		table.Render()
		fmt.Fprintln(ui.Out)
	}

	if len(ctx.EstimatedSleepGaps) > 0 {
		ui.Info("Detected sleep gaps:")
		table := ui.Table([]string{"From", "To", "Length", "Hour"})
		for _, g := range ctx.EstimatedSleepGaps {
			table.Append([]string{
				g.GapStart.Format("Mon Jan 2 15:04"),
				g.GapEnd.Format("Mon Jan 2 15:04"),
				fmt.Sprintf("%.1f h", float64(g.GapLengthMins)/60),
				fmt.Sprintf("%02d:00", g.DetectedAtHour),
			})
		}
		table.Render()
		fmt.Fprintln(ui.Out)
	}

	if len(ctx.EstimatedLunchGaps) > 0 {
		ui.Info("Detected lunch gaps:")
		table := ui.Table([]string{"From", "Length", "Hour"})
		for _, g := range ctx.EstimatedLunchGaps {
			table.Append([]string{
				g.GapStart.Format("Mon Jan 2 15:04"),
				fmt.Sprintf("%d min", g.GapLengthMins),
				fmt.Sprintf("%02d:00", g.DetectedAtHour),
			})
		}
		table.Render()
		fmt.Fprintln(ui.Out)
	}

	if n := len(rec.ContextSwitches); n > 0 {
		ui.Info("Recent context switches:")
		table := ui.Table([]string{"When", "Gap", "From", "To"})
		start := 0
		if n > 10 {
			start = n - 10
		}
		for _, cs := range rec.ContextSwitches[start:] {
			table.Append([]string{
				cs.Timestamp.Format("Mon Jan 2 15:04"),
				fmt.Sprintf("%.1f h", cs.GapHours),
				cs.FromProject,
				cs.ToProject,
			})
		}
		table.Render()
	}

	return nil
}

// timeAgo formats a timestamp as a rough relative duration.
func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
