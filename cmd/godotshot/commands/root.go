package commands

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/godotshot/internal/app"
	"github.com/bryanchriswhite/godotshot/internal/config"
	"github.com/bryanchriswhite/godotshot/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is set at build time with -ldflags "-X .../commands.Version=...".
var Version = "dev"

var (
	cfgFile    string
	prettyLogs bool
	configMgr  *config.Manager

	rootCmd = &cobra.Command{
		Use:   "godotshot",
		Short: "godotshot - Screenshot tools for Godot running on the Windows host",
		Long: `godotshot is an MCP server that lets automation clients capture screenshots
of the Godot editor, a running Godot game, any window by title, or the whole
screen. It runs inside WSL and drives the Windows desktop through
powershell.exe.

Features:
  • MCP tools over stdio, HTTP and WebSocket
  • Godot debug and editor window detection
  • Window capture by title with exact or substring matching
  • Optional NirCmd capture path
  • Native X11 backend for Linux desktops
  • REST API for windows and raw screenshots`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/godotshot/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", false, "human-readable console logs on stderr")
	rootCmd.PersistentFlags().String("backend", "", "capture backend (bridge or x11)")
	rootCmd.PersistentFlags().String("temp-dir", "", "directory shared with the host for scripts and images")
	rootCmd.PersistentFlags().String("image-format", "", "image format (png or jpg)")
	rootCmd.PersistentFlags().Int("quality", 0, "jpg quality for the x11 backend (1-100)")
	rootCmd.PersistentFlags().Bool("nircmd", false, "capture with NirCmd instead of PowerShell")
	rootCmd.PersistentFlags().Int("retries", 0, "extra attempts for failed host commands")

	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"log_level":      "log-level",
		"log_file":       "log-file",
		"backend":        "backend",
		"temp_dir":       "temp-dir",
		"format":         "image-format",
		"quality":        "quality",
		"use_nircmd":     "nircmd",
		"bridge_retries": "retries",
	})
}

// bindFlags binds config keys to flags on the global viper so a flag set on
// the command line overrides the file and environment.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	mgr, err := config.NewManager(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	configMgr = mgr

	cfg := mgr.Get()
	if err := logger.Init(cfg.LogLevel, prettyLogs, cfg.LogFile); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// newApp wires the capture pipeline from the loaded configuration.
func newApp() (*app.App, error) {
	a, err := app.New(configMgr.Get(), app.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return a, nil
}

// Execute runs the root command
func Execute() {
	defer logger.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Close()
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}
