// Package tools exposes window capture as MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bryanchriswhite/godotshot/internal/app"
	"github.com/bryanchriswhite/godotshot/internal/bridge"
	"github.com/bryanchriswhite/godotshot/internal/capture"
	"github.com/bryanchriswhite/godotshot/internal/logger"
	"github.com/bryanchriswhite/godotshot/internal/mcp"
	"github.com/bryanchriswhite/godotshot/internal/window"
)

// Tool names.
const (
	CaptureGodotDebug    = "capture_godot_debug"
	CaptureGodotEditor   = "capture_godot_editor"
	CaptureWindowByTitle = "capture_window_by_title"
	CaptureFullscreen    = "capture_fullscreen"
	ListGodotWindows     = "list_godot_windows"
)

// Argument limits.
const (
	maxProjectName = 200
	maxTitle       = 500
)

// Checker reports whether captures can run at all.
type Checker interface {
	Available(ctx context.Context) bool
}

// Windows lists host windows.
type Windows interface {
	List(ctx context.Context, pattern string) ([]window.Record, error)
}

// Capturer takes screenshots.
type Capturer interface {
	CaptureWindow(ctx context.Context, title string, opts capture.Options) (*capture.Result, error)
	CaptureScreen(ctx context.Context, opts capture.Options) (*capture.Result, error)
}

// Handler implements mcp.ToolProvider.
type Handler struct {
	checker  Checker
	windows  Windows
	capturer Capturer
}

// NewHandler creates a tool handler over explicit collaborators.
func NewHandler(checker Checker, windows Windows, capturer Capturer) *Handler {
	return &Handler{
		checker:  checker,
		windows:  windows,
		capturer: capturer,
	}
}

// FromApp creates a tool handler over a wired App.
func FromApp(a *app.App) *Handler {
	return NewHandler(a, a.Registry, a.Capture)
}

// Tools implements mcp.ToolProvider
func (h *Handler) Tools() []mcp.Tool {
	empty := map[string]any{"type": "object", "properties": map[string]any{}}

	return []mcp.Tool{
		{
			Name:        CaptureGodotDebug,
			Description: "Capture a screenshot of the Godot Debug Game Window",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"projectName": projectNameSchema("Project name to filter specific debug window"),
				},
			},
		},
		{
			Name:        CaptureGodotEditor,
			Description: "Capture a screenshot of the Godot Scene Editor",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"projectName": projectNameSchema("Project name to filter specific editor window"),
				},
			},
		},
		{
			Name:        CaptureWindowByTitle,
			Description: "Capture a screenshot of any window by its title",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{
						"type":        "string",
						"minLength":   1,
						"maxLength":   maxTitle,
						"description": "Exact window title to capture",
					},
					"exact": map[string]any{
						"type":        "boolean",
						"description": "Whether to match title exactly",
						"default":     false,
					},
				},
				"required": []string{"title"},
			},
		},
		{
			Name:        CaptureFullscreen,
			Description: "Capture a screenshot of the entire screen",
			InputSchema: empty,
		},
		{
			Name:        ListGodotWindows,
			Description: "List all available Godot windows (both editor and debug)",
			InputSchema: empty,
		},
	}
}

func projectNameSchema(desc string) map[string]any {
	return map[string]any{
		"type":        "string",
		"minLength":   1,
		"maxLength":   maxProjectName,
		"description": desc,
	}
}

// Call implements mcp.ToolProvider. Availability is checked before the tool
// name, so an unreachable host fails every call the same way.
func (h *Handler) Call(ctx context.Context, name string, args json.RawMessage) (*mcp.ToolResult, error) {
	log := logger.WithComponent("tools")

	if !h.checker.Available(ctx) {
		return nil, mcp.InternalError(bridge.ErrUnavailable.Error())
	}

	log.Debug().Str("tool", name).Msg("Calling tool")

	var result *mcp.ToolResult
	var err error
	switch name {
	case CaptureGodotDebug:
		result, err = h.captureGodot(ctx, args, window.DebugWindows,
			"No Godot debug windows found. Please ensure the game is running in debug mode.")
	case CaptureGodotEditor:
		result, err = h.captureGodot(ctx, args, window.EditorWindows,
			"No Godot editor windows found. Please ensure Godot Engine is running.")
	case CaptureWindowByTitle:
		result, err = h.captureByTitle(ctx, args)
	case CaptureFullscreen:
		result, err = h.captureFullscreen(ctx)
	case ListGodotWindows:
		result, err = h.listGodotWindows(ctx)
	default:
		return nil, mcp.MethodNotFound("Unknown tool: " + name)
	}
	if err != nil {
		return nil, toolError(err)
	}
	return result, nil
}

func (h *Handler) captureGodot(ctx context.Context, args json.RawMessage, classify func([]window.Record) []window.Record, none string) (*mcp.ToolResult, error) {
	a := mcp.ParseArgs(args)
	projectName, _ := a.String("projectName", false, 1, maxProjectName)
	if err := a.Err(); err != nil {
		return nil, err
	}

	all, err := h.windows.List(ctx, "")
	if err != nil {
		return nil, err
	}
	candidates := classify(all)
	if len(candidates) == 0 {
		return nil, mcp.InvalidRequest(none)
	}
	target, err := window.Pick(candidates, projectName, projectName)
	if err != nil {
		return nil, err
	}

	res, err := h.capturer.CaptureWindow(ctx, target.Title, capture.Options{})
	if err != nil {
		return nil, err
	}
	return mcp.ImageResult(res.Base64, res.MimeType()), nil
}

func (h *Handler) captureByTitle(ctx context.Context, args json.RawMessage) (*mcp.ToolResult, error) {
	a := mcp.ParseArgs(args)
	title, _ := a.String("title", true, 1, maxTitle)
	exact := a.Bool("exact", false)
	if err := a.Err(); err != nil {
		return nil, err
	}

	all, err := h.windows.List(ctx, "")
	if err != nil {
		return nil, err
	}
	target, err := window.FindByTitle(all, title, exact)
	if err != nil {
		match := " containing"
		if exact {
			match = " exactly matching"
		}
		return nil, mcp.InvalidRequest(fmt.Sprintf("No window found with title%s: \"%s\"", match, title))
	}

	res, err := h.capturer.CaptureWindow(ctx, target.Title, capture.Options{})
	if err != nil {
		return nil, err
	}
	return mcp.ImageResult(res.Base64, res.MimeType()), nil
}

func (h *Handler) captureFullscreen(ctx context.Context) (*mcp.ToolResult, error) {
	res, err := h.capturer.CaptureScreen(ctx, capture.Options{})
	if err != nil {
		return nil, err
	}
	return mcp.ImageResult(res.Base64, res.MimeType()), nil
}

func (h *Handler) listGodotWindows(ctx context.Context) (*mcp.ToolResult, error) {
	all, err := h.windows.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return mcp.TextResult(FormatGodotWindows(window.DebugWindows(all), window.EditorWindows(all))), nil
}

// FormatGodotWindows renders the grouped listing shown to clients.
func FormatGodotWindows(debug, editor []window.Record) string {
	lines := []string{"=== Godot Debug Windows ==="}
	for _, w := range debug {
		lines = append(lines, "- "+w.Title)
	}
	lines = append(lines, "", "=== Godot Editor Windows ===")
	for _, w := range editor {
		lines = append(lines, "- "+w.Title)
	}
	if len(debug) == 0 && len(editor) == 0 {
		lines = append(lines, "", "No Godot windows found.")
	}
	return strings.Join(lines, "\n")
}

// toolError maps domain errors onto JSON-RPC errors. Errors left unmapped
// become internal errors at the dispatch boundary.
func toolError(err error) error {
	var rpcErr *mcp.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	if errors.Is(err, window.ErrNotFound) {
		return mcp.InvalidRequest(err.Error())
	}
	if errors.Is(err, bridge.ErrUnavailable) {
		return mcp.InternalError(bridge.ErrUnavailable.Error())
	}
	return err
}
