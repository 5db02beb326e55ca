package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bryanchriswhite/godotshot/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage godotshot configuration",
	Long: `View and manage godotshot configuration settings.

Values come from built-in defaults, the config file, environment variables
(SCREENSHOT_QUALITY, SCREENSHOT_FORMAT, TEMP_DIR, USE_NIRCMD, GODOTSHOT_*) and
command-line flags, each overriding the one before.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Example: `  # Show configuration as YAML (default)
  godotshot config show

  # Show configuration as JSON
  godotshot config show --format json`,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configMgr.GetConfigPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	Long: `Write the effective configuration (defaults plus any environment and flag
overrides) to the config file so it can be edited.`,
	RunE: runConfigInit,
}

var (
	configFormat string
	configForce  bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)

	configShowCmd.Flags().StringVarP(&configFormat, "format", "f", "yaml", "output format (yaml or json)")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	return encodeConfig(cmd.OutOrStdout(), configMgr.Get(), configFormat)
}

func encodeConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(cfg)
	default:
		return fmt.Errorf("unsupported format: %s (use 'yaml' or 'json')", format)
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configMgr.GetConfigPath()
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := configMgr.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Configuration written to %s\n", path)
	return nil
}
