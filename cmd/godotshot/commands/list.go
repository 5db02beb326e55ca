package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bryanchriswhite/godotshot/internal/bridge"
	"github.com/bryanchriswhite/godotshot/internal/tools"
	"github.com/bryanchriswhite/godotshot/internal/window"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List visible windows",
	Long: `List visible top-level windows on the host desktop.

Each window is shown with its handle and title. With --godot the listing is
grouped into Godot debug (running game) and editor windows, the same text the
list_godot_windows tool returns.`,
	Example: `  # List all windows in table format (default)
  godotshot list

  # List windows whose title contains "godot" as JSON
  godotshot list --pattern godot --format json

  # Show only Godot debug and editor windows
  godotshot list --godot`,
	RunE: runList,
}

var (
	listFormat  string
	listPattern string
	listGodot   bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
	listCmd.Flags().StringVarP(&listPattern, "pattern", "p", "", "case-insensitive title filter")
	listCmd.Flags().BoolVarP(&listGodot, "godot", "g", false, "show only Godot windows")
}

func runList(cmd *cobra.Command, args []string) error {
	if listFormat != "table" && listFormat != "json" {
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if !a.Available(ctx) {
		return bridge.ErrUnavailable
	}

	if listGodot {
		debug, err := a.Registry.DebugWindows(ctx)
		if err != nil {
			return fmt.Errorf("failed to list windows: %w", err)
		}
		editor, err := a.Registry.EditorWindows(ctx)
		if err != nil {
			return fmt.Errorf("failed to list windows: %w", err)
		}
		if listFormat == "json" {
			return printJSON(map[string][]window.Record{"debug": orEmpty(debug), "editor": orEmpty(editor)})
		}
		fmt.Println(tools.FormatGodotWindows(debug, editor))
		return nil
	}

	windows, err := a.Registry.List(ctx, listPattern)
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}
	if listFormat == "json" {
		return printJSON(orEmpty(windows))
	}
	return printWindowsTable(windows)
}

func printWindowsTable(windows []window.Record) error {
	if len(windows) == 0 {
		fmt.Println("No windows found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "HANDLE\tTITLE")
	fmt.Fprintln(w, "------\t-----")
	for _, win := range windows {
		fmt.Fprintf(w, "%s\t%s\n", win.Handle, win.Title)
	}
	return nil
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func orEmpty(windows []window.Record) []window.Record {
	if windows == nil {
		return []window.Record{}
	}
	return windows
}
