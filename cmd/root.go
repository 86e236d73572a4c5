package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vreme-ai/vreme/internal/api"
	"github.com/vreme-ai/vreme/internal/output"
	"github.com/vreme-ai/vreme/internal/tracker"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui *output.UI

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vreme",
	Short: "Vreme time service - temporal awareness for AI assistants",
	Long: `vreme connects AI assistants to the Vreme time service and tracks
local activity patterns (sessions, sleep, lunch, context switches)
to give assistants a sense of the user's routine.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/vreme/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "vreme")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VREME")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".vreme")

	viper.SetDefault("data_dir", defaultDataDir)
	viper.SetDefault("archive_db_path", filepath.Join(defaultDataDir, "archive.db"))
	viper.SetDefault("api.base_url", api.DefaultBaseURL)
	viper.SetDefault("tracking.burst_threshold_minutes", 15)
	viper.SetDefault("tracking.project", "")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
}

// diagLogger builds the structured logger the trackers report degraded
// storage paths to. Tracking failures are never fatal, so everything lands
// on stderr where it cannot corrupt the stdio transport.
func diagLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func dataDir() string {
	return viper.GetString("data_dir")
}

// newTrackers builds the persisted trackers rooted at the configured data
// directory.
func newTrackers() (*tracker.GlobalTracker, *tracker.BehaviorStore) {
	logger := diagLogger()
	return tracker.NewGlobalTracker(dataDir(), logger), tracker.NewBehaviorStore(dataDir(), logger)
}

func burstThreshold() time.Duration {
	return time.Duration(viper.GetInt("tracking.burst_threshold_minutes")) * time.Minute
}
