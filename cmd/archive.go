package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vreme-ai/vreme/internal/archive"
)

var historyLimit int

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Copy tracked history into the local archive database",
	Long: `Copy completed sessions, detected sleep/lunch gaps, and context
switches into the SQLite archive. The tracking documents keep only a rolling
window of history; archiving preserves entries before they age out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return archiveRun(cmd.Context())
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show archived session history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyRun(cmd.Context())
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum sessions to show")
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(historyCmd)
}

func openArchive(ctx context.Context) (*archive.Archive, error) {
	a, err := archive.Open(viper.GetString("archive_db_path"))
	if err != nil {
		return nil, err
	}
	if err := a.Migrate(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func archiveRun(ctx context.Context) error {
	global, behavior := newTrackers()

	a, err := openArchive(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var inserted int64
	n, err := a.StoreBehavior(ctx, behavior.Load())
	if err != nil {
		return err
	}
	inserted += n

	n, err = a.StoreActivity(ctx, global.Load())
	if err != nil {
		return err
	}
	inserted += n

	if inserted == 0 {
		ui.Info("Archive already up to date")
		return nil
	}
	ui.Success("Archived %d new records", inserted)
	return nil
}

func historyRun(ctx context.Context) error {
	a, err := openArchive(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	counts, err := a.Count(ctx)
	if err != nil {
		return err
	}
	ui.Info("Archive: %d sessions, %d sleep gaps, %d lunch gaps, %d context switches",
		counts.Sessions, counts.SleepGaps, counts.LunchGaps, counts.ContextSwitches)

	sessions, err := a.RecentSessions(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		ui.Info("No archived sessions yet. Run 'vreme archive' first.")
		return nil
	}

	table := ui.Table([]string{"Started", "Ended", "Length", "Interactions", "Project"})
	for _, s := range sessions {
		project := s.Project
		if project == "" {
			project = "-"
		}
		table.Append([]string{
			s.StartedAt.Local().Format("Mon Jan 2 15:04"),
			s.EndedAt.Local().Format("15:04"),
			fmt.Sprintf("%.0f min", s.DurationMins),
			fmt.Sprintf("%d", s.InteractionCount),
			project,
		})
	}
	return table.Render()
}
