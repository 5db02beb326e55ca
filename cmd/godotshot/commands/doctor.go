package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/bryanchriswhite/godotshot/internal/app"
	"github.com/bryanchriswhite/godotshot/internal/config"
	"github.com/bryanchriswhite/godotshot/internal/window"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that screenshots can be taken from this environment",
	Long: `Run environment checks: WSL detection, PowerShell and NirCmd access,
window enumeration and Godot window detection. Ends with a summary and a hint
for the most common problem (Windows interop disabled).`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	writeDoctorReport(cmd.Context(), cmd.OutOrStdout(), a)
	return nil
}

const samples = 5

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

func writeDoctorReport(ctx context.Context, w io.Writer, a *app.App) {
	cfg := a.Config

	fmt.Fprintln(w, "🧪 Godot Screenshot Server - Environment Check")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📋 Environment Checks:")
	fmt.Fprintf(w, "  WSL Detected: %s\n", mark(a.WSL))
	fmt.Fprintf(w, "  Backend: %s\n", cfg.Backend)
	available := a.Available(ctx)
	if cfg.Backend == config.BackendBridge {
		fmt.Fprintf(w, "  PowerShell Access: %s\n", mark(available))
		if a.Gateway.NirCmdAvailable(ctx) {
			fmt.Fprintln(w, "  NirCmd Access: ✅")
		} else {
			fmt.Fprintln(w, "  NirCmd Access: ❌ (Optional)")
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🪟 Window Enumeration:")
	all, listErr := a.Registry.List(ctx, "")
	if listErr != nil {
		fmt.Fprintf(w, "  Window enumeration: ❌ (%v)\n", listErr)
	} else {
		fmt.Fprintf(w, "  Found %d total windows ✅\n", len(all))
		if len(all) > 0 {
			fmt.Fprintln(w, "  Sample windows:")
			for i, win := range all {
				if i == samples {
					fmt.Fprintf(w, "    ... and %d more\n", len(all)-samples)
					break
				}
				fmt.Fprintf(w, "    - %s\n", win.Title)
			}
		}
	}
	fmt.Fprintln(w)

	// Reuses the cached listing above.
	debug, _ := a.Registry.DebugWindows(ctx)
	editor, _ := a.Registry.EditorWindows(ctx)
	fmt.Fprintln(w, "🎮 Godot Window Detection:")
	for _, group := range []struct {
		label   string
		windows int
		titles  []string
	}{
		{"Debug Windows", len(debug), titles(debug)},
		{"Editor Windows", len(editor), titles(editor)},
	} {
		status := "⚠️"
		if group.windows > 0 {
			status = "✅"
		}
		fmt.Fprintf(w, "  %s: %s (%d found)\n", group.label, status, group.windows)
		for _, t := range group.titles {
			fmt.Fprintf(w, "    - %s\n", t)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "⚙️ Configuration:")
	fmt.Fprintf(w, "  quality: %d\n", cfg.Quality)
	fmt.Fprintf(w, "  format: %s\n", cfg.Format)
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = "(auto) " + a.TempDir.Resolve(ctx)
	}
	fmt.Fprintf(w, "  temp_dir: %s\n", tempDir)
	fmt.Fprintf(w, "  use_nircmd: %t\n", cfg.UseNirCmd)
	fmt.Fprintf(w, "  bridge_retries: %d\n", cfg.BridgeRetries)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📋 Summary:")
	if !a.WSL {
		fmt.Fprintln(w, "⚠️  Warning: Not running in WSL. Some features may not work correctly.")
	}
	if !available {
		fmt.Fprintln(w, "❌ Critical: PowerShell not accessible. Enable Windows interop in WSL.")
		fmt.Fprintln(w, "   Try: echo 1 | sudo tee /proc/sys/fs/binfmt_misc/WSLInterop")
		return
	}
	if len(all) == 0 {
		fmt.Fprintln(w, "⚠️  Warning: No windows found. Check PowerShell access.")
	}
	if len(debug) == 0 && len(editor) == 0 {
		fmt.Fprintln(w, "⚠️  No Godot windows found. Start Godot Engine to test screenshot capture.")
	} else {
		fmt.Fprintln(w, "✅ Ready for screenshot capture!")
	}
}

func titles(windows []window.Record) []string {
	out := make([]string, len(windows))
	for i, w := range windows {
		out[i] = w.Title
	}
	return out
}
