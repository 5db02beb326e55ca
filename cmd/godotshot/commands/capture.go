package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bryanchriswhite/godotshot/internal/app"
	"github.com/bryanchriswhite/godotshot/internal/bridge"
	"github.com/bryanchriswhite/godotshot/internal/capture"
	"github.com/bryanchriswhite/godotshot/internal/logger"
	"github.com/bryanchriswhite/godotshot/internal/window"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Take a screenshot and save it to a file",
	Long: `Take a one-off screenshot without starting the MCP server.

The image is written to --output, or to a timestamped file in the current
directory when --output is omitted.`,
}

var captureScreenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Capture the primary display",
	Example: `  # Capture the whole screen as PNG
  godotshot capture screen -o desktop.png`,
	Args: cobra.NoArgs,
	RunE: runCaptureScreen,
}

var captureWindowCmd = &cobra.Command{
	Use:   "window TITLE",
	Short: "Capture the first window whose title contains TITLE",
	Example: `  # Capture Notepad
  godotshot capture window Notepad

  # Require an exact title match, save as JPG
  godotshot capture window "Untitled - Notepad" --exact --image-format jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runCaptureWindow,
}

var captureDebugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Capture the running Godot game window",
	Example: `  # Capture the game of a specific project
  godotshot capture debug --project MyGame`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCaptureGodot(cmd, window.DebugWindows,
			"No Godot debug windows found. Please ensure the game is running in debug mode.")
	},
}

var captureEditorCmd = &cobra.Command{
	Use:   "editor",
	Short: "Capture the Godot editor window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCaptureGodot(cmd, window.EditorWindows,
			"No Godot editor windows found. Please ensure Godot Engine is running.")
	},
}

var (
	captureOutput  string
	captureExact   bool
	captureProject string
)

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.AddCommand(captureScreenCmd)
	captureCmd.AddCommand(captureWindowCmd)
	captureCmd.AddCommand(captureDebugCmd)
	captureCmd.AddCommand(captureEditorCmd)

	captureCmd.PersistentFlags().StringVarP(&captureOutput, "output", "o", "", "output file (default is <kind>-<timestamp>.<ext>)")
	captureWindowCmd.Flags().BoolVar(&captureExact, "exact", false, "match the title exactly")
	captureDebugCmd.Flags().StringVar(&captureProject, "project", "", "prefer the window whose title contains this project name")
	captureEditorCmd.Flags().StringVar(&captureProject, "project", "", "prefer the window whose title contains this project name")
}

// withApp builds the app and fails fast when the host is unreachable.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.Available(ctx) {
		return bridge.ErrUnavailable
	}
	return fn(a)
}

func runCaptureScreen(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		res, err := a.Capture.CaptureScreen(cmd.Context(), capture.Options{})
		if err != nil {
			return err
		}
		return saveResult(res, "fullscreen")
	})
}

func runCaptureWindow(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		target, err := a.Registry.FindByTitle(cmd.Context(), args[0], captureExact)
		if err != nil {
			return err
		}
		res, err := a.Capture.CaptureWindow(cmd.Context(), target.Title, capture.Options{})
		if err != nil {
			return err
		}
		return saveResult(res, "window")
	})
}

func runCaptureGodot(cmd *cobra.Command, classify func([]window.Record) []window.Record, none string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		all, err := a.Registry.List(cmd.Context(), "")
		if err != nil {
			return err
		}
		candidates := classify(all)
		if len(candidates) == 0 {
			return fmt.Errorf("%s", none)
		}
		target, err := window.Pick(candidates, captureProject, captureProject)
		if err != nil {
			return err
		}
		res, err := a.Capture.CaptureWindow(cmd.Context(), target.Title, capture.Options{})
		if err != nil {
			return err
		}
		return saveResult(res, "godot")
	})
}

func saveResult(res *capture.Result, kind string) error {
	data, err := res.Decode()
	if err != nil {
		return err
	}

	path := captureOutput
	if path == "" {
		path = fmt.Sprintf("%s-%s.%s", kind, time.Now().Format("20060102-150405"), res.Format.Extension())
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	logger.WithComponent("capture").Debug().Str("path", path).Int("bytes", len(data)).Msg("Screenshot saved")
	fmt.Printf("Saved %dx%d %s screenshot to %s\n", res.Width, res.Height, res.Format, path)
	return nil
}
