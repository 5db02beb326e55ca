package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bryanchriswhite/godotshot/internal/capture"
	"github.com/bryanchriswhite/godotshot/internal/mcp"
	"github.com/bryanchriswhite/godotshot/internal/window"
)

type fakeChecker struct {
	ok    bool
	calls int
}

func (c *fakeChecker) Available(context.Context) bool {
	c.calls++
	return c.ok
}

type fakeWindows struct {
	windows []window.Record
	err     error
}

func (w *fakeWindows) List(context.Context, string) ([]window.Record, error) {
	return w.windows, w.err
}

type fakeCapturer struct {
	titles []string
	screen int
	err    error
}

func (c *fakeCapturer) CaptureWindow(_ context.Context, title string, _ capture.Options) (*capture.Result, error) {
	c.titles = append(c.titles, title)
	if c.err != nil {
		return nil, c.err
	}
	return &capture.Result{Base64: "aW1n", Format: capture.PNG}, nil
}

func (c *fakeCapturer) CaptureScreen(context.Context, capture.Options) (*capture.Result, error) {
	c.screen++
	if c.err != nil {
		return nil, c.err
	}
	return &capture.Result{Base64: "c2NyZWVu", Format: capture.JPG}, nil
}

var godotWindows = []window.Record{
	{Handle: "1", Title: "Alpha (DEBUG)"},
	{Handle: "2", Title: "Beta (DEBUG)"},
	{Handle: "3", Title: "Alpha - Godot Engine"},
	{Handle: "4", Title: "Untitled - Notepad"},
}

func newHandler(windows []window.Record) (*Handler, *fakeChecker, *fakeCapturer) {
	checker := &fakeChecker{ok: true}
	capturer := &fakeCapturer{}
	return NewHandler(checker, &fakeWindows{windows: windows}, capturer), checker, capturer
}

func rpcCode(t *testing.T, err error) (int, string) {
	t.Helper()
	var rpcErr *mcp.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *mcp.Error, got %v", err)
	}
	return rpcErr.Code, rpcErr.Message
}

func TestToolsList(t *testing.T) {
	h, _, _ := newHandler(nil)
	names := map[string]bool{}
	for _, tool := range h.Tools() {
		names[tool.Name] = true
	}
	for _, want := range []string{CaptureGodotDebug, CaptureGodotEditor, CaptureWindowByTitle, CaptureFullscreen, ListGodotWindows} {
		if !names[want] {
			t.Fatalf("missing tool %s", want)
		}
	}
}

func TestCaptureGodotDebug(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{"first by default", `{}`, "Alpha (DEBUG)"},
		{"project filter", `{"projectName":"Beta"}`, "Beta (DEBUG)"},
		{"unmatched filter falls back", `{"projectName":"Gamma"}`, "Alpha (DEBUG)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, _, capturer := newHandler(godotWindows)
			res, err := h.Call(context.Background(), CaptureGodotDebug, json.RawMessage(tc.args))
			if err != nil {
				t.Fatal(err)
			}
			if capturer.titles[0] != tc.want {
				t.Fatalf("captured %q, want %q", capturer.titles[0], tc.want)
			}
			block := res.Content[0]
			if block.Type != "image" || block.MimeType != "image/png" || block.Data != "aW1n" {
				t.Fatalf("unexpected content %+v", block)
			}
		})
	}
}

func TestCaptureGodotEditor(t *testing.T) {
	h, _, capturer := newHandler(godotWindows)
	if _, err := h.Call(context.Background(), CaptureGodotEditor, nil); err != nil {
		t.Fatal(err)
	}
	if capturer.titles[0] != "Alpha - Godot Engine" {
		t.Fatalf("captured %q", capturer.titles[0])
	}
}

func TestNoGodotWindows(t *testing.T) {
	h, _, _ := newHandler([]window.Record{{Handle: "1", Title: "Notepad"}})

	_, err := h.Call(context.Background(), CaptureGodotDebug, nil)
	code, msg := rpcCode(t, err)
	if code != mcp.CodeInvalidRequest || !strings.Contains(msg, "No Godot debug windows found") {
		t.Fatalf("got %d %q", code, msg)
	}

	_, err = h.Call(context.Background(), CaptureGodotEditor, nil)
	code, msg = rpcCode(t, err)
	if code != mcp.CodeInvalidRequest || !strings.Contains(msg, "No Godot editor windows found") {
		t.Fatalf("got %d %q", code, msg)
	}
}

func TestCaptureWindowByTitle(t *testing.T) {
	h, _, capturer := newHandler(godotWindows)
	ctx := context.Background()

	if _, err := h.Call(ctx, CaptureWindowByTitle, json.RawMessage(`{"title":"Notepad"}`)); err != nil {
		t.Fatal(err)
	}
	if capturer.titles[0] != "Untitled - Notepad" {
		t.Fatalf("captured %q", capturer.titles[0])
	}

	_, err := h.Call(ctx, CaptureWindowByTitle, json.RawMessage(`{"title":"Notepad","exact":true}`))
	code, msg := rpcCode(t, err)
	if code != mcp.CodeInvalidRequest || msg != `No window found with title exactly matching: "Notepad"` {
		t.Fatalf("got %d %q", code, msg)
	}
}

func TestInvalidParameters(t *testing.T) {
	h, _, capturer := newHandler(godotWindows)
	tests := []struct {
		tool string
		args string
		want string
	}{
		{CaptureWindowByTitle, `{}`, "title: Required"},
		{CaptureWindowByTitle, `{"title":""}`, "title: String must contain at least 1 character(s)"},
		{CaptureWindowByTitle, fmt.Sprintf(`{"title":%q}`, strings.Repeat("x", 501)), "title: String must contain at most 500 character(s)"},
		{CaptureWindowByTitle, `{"title":"x","exact":"yes"}`, "exact: Expected boolean"},
		{CaptureGodotDebug, fmt.Sprintf(`{"projectName":%q}`, strings.Repeat("p", 201)), "projectName: String must contain at most 200 character(s)"},
		{CaptureGodotEditor, `{"projectName":""}`, "projectName: String must contain at least 1 character(s)"},
	}
	for _, tc := range tests {
		_, err := h.Call(context.Background(), tc.tool, json.RawMessage(tc.args))
		code, msg := rpcCode(t, err)
		if code != mcp.CodeInvalidParams || !strings.HasPrefix(msg, "Invalid parameters: ") || !strings.Contains(msg, tc.want) {
			t.Errorf("%s %s: got %d %q", tc.tool, tc.args, code, msg)
		}
	}
	if len(capturer.titles) != 0 {
		t.Fatal("invalid calls must not capture")
	}
}

func TestUnavailableCheckedFirst(t *testing.T) {
	h, checker, capturer := newHandler(godotWindows)
	checker.ok = false

	for _, name := range []string{CaptureFullscreen, "no_such_tool"} {
		_, err := h.Call(context.Background(), name, nil)
		code, msg := rpcCode(t, err)
		if code != mcp.CodeInternalError || !strings.Contains(msg, "PowerShell is not accessible from WSL") {
			t.Fatalf("%s: got %d %q", name, code, msg)
		}
	}
	if capturer.screen != 0 {
		t.Fatal("capture ran without the bridge")
	}
}

func TestUnknownTool(t *testing.T) {
	h, _, _ := newHandler(nil)
	_, err := h.Call(context.Background(), "capture_everything", nil)
	code, msg := rpcCode(t, err)
	if code != mcp.CodeMethodNotFound || msg != "Unknown tool: capture_everything" {
		t.Fatalf("got %d %q", code, msg)
	}
}

func TestCaptureErrors(t *testing.T) {
	h, _, capturer := newHandler(godotWindows)

	capturer.err = &capture.Error{Title: "Alpha (DEBUG)", Err: &window.NotFoundError{Query: "Alpha (DEBUG)"}}
	_, err := h.Call(context.Background(), CaptureGodotDebug, nil)
	if code, _ := rpcCode(t, err); code != mcp.CodeInvalidRequest {
		t.Fatalf("vanished window should be invalid request, got %d", code)
	}

	capturer.err = &capture.Error{Err: errors.New("PowerShell error: boom")}
	_, err = h.Call(context.Background(), CaptureFullscreen, nil)
	if !errors.Is(err, capture.ErrCaptureFailed) {
		t.Fatalf("capture failure should reach the dispatch boundary unchanged, got %v", err)
	}
}

func TestFullscreen(t *testing.T) {
	h, _, _ := newHandler(nil)
	res, err := h.Call(context.Background(), CaptureFullscreen, json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if res.Content[0].MimeType != "image/jpeg" {
		t.Fatalf("unexpected mime type %q", res.Content[0].MimeType)
	}
}

func TestListGodotWindows(t *testing.T) {
	h, _, _ := newHandler(godotWindows)
	res, err := h.Call(context.Background(), ListGodotWindows, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"=== Godot Debug Windows ===",
		"- Alpha (DEBUG)",
		"- Beta (DEBUG)",
		"",
		"=== Godot Editor Windows ===",
		"- Alpha - Godot Engine",
	}, "\n")
	if res.Content[0].Text != want {
		t.Fatalf("got:\n%s\nwant:\n%s", res.Content[0].Text, want)
	}

	empty := FormatGodotWindows(nil, nil)
	if !strings.HasSuffix(empty, "\n\nNo Godot windows found.") {
		t.Fatalf("unexpected empty listing %q", empty)
	}
}
