package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "vreme"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage vreme configuration.

Running bare 'vreme config' is the same as 'vreme config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# vreme configuration
# See: vreme config show (for effective values)

# Tracking data directory (default: ~/.vreme)
# data_dir: {{ .DataDir }}

# SQLite archive database path (default: ~/.vreme/archive.db)
# archive_db_path: {{ .ArchiveDBPath }}

# Vreme API
api:
  # Base URL of the Vreme time service
  base_url: "{{ .APIBaseURL }}"

# Activity tracking
tracking:
  # In-memory burst gap threshold in minutes (default: 15)
  burst_threshold_minutes: {{ .BurstThresholdMinutes }}

  # Project label recorded with tracked activity (default: empty)
  project: "{{ .Project }}"
`

type configTemplateData struct {
	DataDir               string
	ArchiveDBPath         string
	APIBaseURL            string
	BurstThresholdMinutes int
	Project               string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", cfgPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("parse config template: %w", err)
	}

	data := configTemplateData{
		DataDir:               viper.GetString("data_dir"),
		ArchiveDBPath:         viper.GetString("archive_db_path"),
		APIBaseURL:            viper.GetString("api.base_url"),
		BurstThresholdMinutes: viper.GetInt("tracking.burst_threshold_minutes"),
		Project:               viper.GetString("tracking.project"),
	}

	f, err := os.Create(cfgPath)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	ui.Success("Created %s", cfgPath)
	return nil
}

func configShowRun() error {
	settings := viper.AllSettings()
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("render settings: %w", err)
	}

	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		ui.Info("Config file: %s", cfgFile)
	} else {
		ui.Info("No config file found (using defaults); run 'vreme config init' to create one")
	}
	fmt.Fprint(ui.Out, string(data))
	return nil
}
