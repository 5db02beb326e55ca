package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bryanchriswhite/godotshot/internal/bridge"
	"github.com/bryanchriswhite/godotshot/internal/hostpath"
	"github.com/bryanchriswhite/godotshot/internal/window"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", PNG, false},
		{"PNG", PNG, false},
		{"jpg", JPG, false},
		{"jpeg", JPG, false},
		{"gif", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tc.in, got, err)
		}
	}
	if JPG.MimeType() != "image/jpeg" || PNG.MimeType() != "image/png" {
		t.Fatal("unexpected mime types")
	}
}

func TestThrottleSpacing(t *testing.T) {
	now := time.Unix(0, 0)
	th := NewThrottle(MinInterval, func() time.Time { return now }, nil)

	if w := th.Reserve(); w != 0 {
		t.Fatalf("first reservation should not wait, got %v", w)
	}
	now = now.Add(100 * time.Millisecond)
	if w := th.Reserve(); w != 400*time.Millisecond {
		t.Fatalf("expected 400ms wait, got %v", w)
	}
	now = now.Add(2 * time.Second)
	if w := th.Reserve(); w != 0 {
		t.Fatalf("idle throttle should not wait, got %v", w)
	}
}

func TestThrottleSimultaneousReservations(t *testing.T) {
	now := time.Unix(0, 0)
	th := NewThrottle(MinInterval, func() time.Time { return now }, nil)

	var mu sync.Mutex
	var waits []time.Duration
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := th.Reserve()
			mu.Lock()
			waits = append(waits, w)
			mu.Unlock()
		}()
	}
	wg.Wait()

	seen := map[time.Duration]bool{}
	for _, w := range waits {
		seen[w] = true
	}
	for _, want := range []time.Duration{0, MinInterval, 2 * MinInterval} {
		if !seen[want] {
			t.Fatalf("expected slots 0, 500ms, 1s; got %v", waits)
		}
	}
}

func TestThrottleWaitCancelled(t *testing.T) {
	th := NewThrottle(time.Hour, nil, nil)
	th.Reserve()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := th.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var savePath = regexp.MustCompile(`Save\('([^']*)'`)

// hostRunner plays the host side: it reads the staged script, writes the
// image where the script would save it, and prints the sentinel.
type hostRunner struct {
	t       *testing.T
	image   []byte
	stderr  string
	fail    bool
	scripts []string
}

func (r *hostRunner) Run(_ context.Context, _ string, args ...string) (string, string, error) {
	path := args[len(args)-1]
	r.scripts = append(r.scripts, path)
	body, err := os.ReadFile(path)
	if err != nil {
		return "", err.Error(), errors.New("exit status 1")
	}
	if r.fail {
		return "", r.stderr, errors.New("exit status 1")
	}
	if m := savePath.FindSubmatch(body); m != nil && r.image != nil {
		if err := os.WriteFile(string(m[1]), r.image, 0o600); err != nil {
			r.t.Fatal(err)
		}
	}
	return "SUCCESS\r\n", r.stderr, nil
}

// staticLister reports a fixed set of host windows.
type staticLister []window.Record

func (l staticLister) ListWindows(context.Context) ([]window.Record, error) { return l, nil }

func (l staticLister) Name() string { return "static" }

func newBridgeService(t *testing.T, runner bridge.Runner, windows ...window.Record) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	gw := bridge.NewGateway(bridge.Options{Runner: runner})
	backend := NewBridgeBackend(gw, bridge.NewTempDir(gw, dir, false), hostpath.Mapper{}, staticLister(windows))
	noWait := func(context.Context, time.Duration) error { return nil }
	return NewService(backend, NewThrottle(MinInterval, nil, noWait), Options{Format: PNG}), dir
}

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("temp files left behind: %v", names)
	}
}

func TestCaptureWindowEndToEnd(t *testing.T) {
	runner := &hostRunner{t: t, image: testPNG(t, 10, 10)}
	svc, dir := newBridgeService(t, runner)

	res, err := svc.CaptureWindow(context.Background(), "My Game (DEBUG)", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Format != PNG || res.MimeType() != "image/png" {
		t.Fatalf("unexpected format %q", res.Format)
	}
	if res.Width != 10 || res.Height != 10 {
		t.Fatalf("expected 10x10, got %dx%d", res.Width, res.Height)
	}
	data, err := res.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("result is not a PNG: %v", err)
	}
	if len(runner.scripts) != 1 || !strings.Contains(runner.scripts[0], "capture-") {
		t.Fatalf("unexpected scripts %v", runner.scripts)
	}
	assertEmpty(t, dir)
}

func TestCaptureScreenEndToEnd(t *testing.T) {
	runner := &hostRunner{t: t, image: testPNG(t, 4, 3)}
	svc, dir := newBridgeService(t, runner)

	res, err := svc.CaptureScreen(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Width != 4 || res.Height != 3 {
		t.Fatalf("expected 4x3, got %dx%d", res.Width, res.Height)
	}
	assertEmpty(t, dir)
}

func TestCaptureWindowNotFound(t *testing.T) {
	runner := &hostRunner{
		t:      t,
		fail:   true,
		stderr: "Window not found: NoSuchWindow\r\nAt line:9 char:5",
	}
	svc, dir := newBridgeService(t, runner)

	_, err := svc.CaptureWindow(context.Background(), "NoSuchWindow", Options{})
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("expected ErrCaptureFailed, got %v", err)
	}
	if !errors.Is(err, window.ErrNotFound) {
		t.Fatalf("expected window.ErrNotFound in chain, got %v", err)
	}
	if !strings.Contains(err.Error(), "NoSuchWindow") {
		t.Fatalf("error should name the title: %v", err)
	}
	assertEmpty(t, dir)
}

func TestCaptureStderrFailsVerification(t *testing.T) {
	runner := &hostRunner{t: t, image: testPNG(t, 2, 2), stderr: "Exception calling CopyFromScreen"}
	svc, dir := newBridgeService(t, runner)

	_, err := svc.CaptureWindow(context.Background(), "Game", Options{})
	if !errors.Is(err, ErrCaptureFailed) || errors.Is(err, window.ErrNotFound) {
		t.Fatalf("expected plain capture failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "CopyFromScreen") {
		t.Fatalf("error should carry stderr: %v", err)
	}
	assertEmpty(t, dir)
}

func TestCaptureMissingImage(t *testing.T) {
	runner := &hostRunner{t: t}
	svc, dir := newBridgeService(t, runner)

	if _, err := svc.CaptureScreen(context.Background(), Options{}); !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("expected capture failure, got %v", err)
	}
	assertEmpty(t, dir)
}

type recordingRunner struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))
	if len(args) > 0 && args[0] == "savescreenshotwin" {
		if err := os.WriteFile(args[1], []byte("fake"), 0o600); err != nil {
			return "", err.Error(), err
		}
	}
	return "", "", nil
}

func TestCaptureWindowAlternateTool(t *testing.T) {
	runner := &recordingRunner{}
	svc, dir := newBridgeService(t, runner,
		window.Record{Handle: "1", Title: "Notepad"},
		window.Record{Handle: "2", Title: "Game; rm"},
	)

	on := true
	res, err := svc.CaptureWindow(context.Background(), "Game; rm", Options{AlternateTool: &on})
	if err != nil {
		t.Fatal(err)
	}
	if res.Width != 0 || res.Height != 0 {
		t.Fatal("undecodable image should report zero dimensions")
	}
	if len(runner.calls) != 2 {
		t.Fatalf("expected activate + save, got %v", runner.calls)
	}
	if runner.calls[0][0] != "nircmd.exe" || runner.calls[0][4] != "Game rm" {
		t.Fatalf("unexpected activate call %v", runner.calls[0])
	}
	assertEmpty(t, dir)
}

func TestCaptureWindowAlternateToolResolvesSubstring(t *testing.T) {
	runner := &recordingRunner{}
	svc, dir := newBridgeService(t, runner, window.Record{Handle: "7", Title: "MyGame (DEBUG)"})

	on := true
	if _, err := svc.CaptureWindow(context.Background(), "MyGame", Options{AlternateTool: &on}); err != nil {
		t.Fatal(err)
	}
	if got := runner.calls[0][4]; got != "MyGame (DEBUG)" {
		t.Fatalf("NirCmd should activate the full title, got %q", got)
	}
	assertEmpty(t, dir)
}

func TestCaptureWindowAlternateToolMissingWindow(t *testing.T) {
	runner := &recordingRunner{}
	svc, dir := newBridgeService(t, runner, window.Record{Handle: "1", Title: "Notepad"})

	on := true
	_, err := svc.CaptureWindow(context.Background(), "NoSuchWindow", Options{AlternateTool: &on})
	if !errors.Is(err, ErrCaptureFailed) || !errors.Is(err, window.ErrNotFound) {
		t.Fatalf("expected not-found capture failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "NoSuchWindow") {
		t.Fatalf("error should name the title: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("NirCmd must not run for a missing window, got %v", runner.calls)
	}
	assertEmpty(t, dir)
}

func TestCaptureScreenKeepsSpecialPathCharacters(t *testing.T) {
	runner := &hostRunner{t: t, image: testPNG(t, 2, 2)}
	gw := bridge.NewGateway(bridge.Options{Runner: runner})
	dir := filepath.Join(t.TempDir(), "A&B $dev")
	if err := os.Mkdir(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	backend := NewBridgeBackend(gw, bridge.NewTempDir(gw, dir, false), hostpath.Mapper{}, staticLister(nil))
	svc := NewService(backend, NewThrottle(MinInterval, nil, func(context.Context, time.Duration) error { return nil }), Options{Format: PNG})

	res, err := svc.CaptureScreen(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Width != 2 {
		t.Fatalf("unexpected width %d", res.Width)
	}
	if !strings.HasPrefix(runner.scripts[0], dir) {
		t.Fatalf("script path lost characters: %s", runner.scripts[0])
	}
	assertEmpty(t, dir)
}

func TestConvertBGRA(t *testing.T) {
	img := convertBGRA([]byte{1, 2, 3, 0, 4, 5, 6, 0}, 2, 1)
	if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 3, G: 2, B: 1, A: 255}) {
		t.Fatalf("pixel 0 = %v", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{R: 6, G: 5, B: 4, A: 255}) {
		t.Fatalf("pixel 1 = %v", got)
	}
}
