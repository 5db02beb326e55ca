package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bryanchriswhite/godotshot/internal/bridge"
	"github.com/bryanchriswhite/godotshot/internal/hostpath"
	"github.com/bryanchriswhite/godotshot/internal/logger"
	"github.com/bryanchriswhite/godotshot/internal/script"
	"github.com/bryanchriswhite/godotshot/internal/window"
)

// BridgeBackend captures through the host bridge. The host writes the image
// into the shared temp directory and this side reads it back.
type BridgeBackend struct {
	gateway *bridge.Gateway
	tempDir *bridge.TempDir
	paths   hostpath.Mapper
	lister  window.Lister
	now     func() time.Time
}

// NewBridgeBackend creates a bridge capture backend. lister resolves titles
// for NirCmd, which silently captures the active window when nothing matches.
func NewBridgeBackend(gateway *bridge.Gateway, tempDir *bridge.TempDir, paths hostpath.Mapper, lister window.Lister) *BridgeBackend {
	return &BridgeBackend{
		gateway: gateway,
		tempDir: tempDir,
		paths:   paths,
		lister:  lister,
		now:     time.Now,
	}
}

// Name returns the backend name
func (b *BridgeBackend) Name() string {
	return "bridge"
}

// CaptureWindow implements Backend
func (b *BridgeBackend) CaptureWindow(ctx context.Context, title string, opts Options) ([]byte, error) {
	ms := b.now().UnixMilli()
	dir := b.tempDir.Resolve(ctx)
	imagePath := filepath.Join(dir, fmt.Sprintf("screenshot-%d.%s", ms, opts.Format.Extension()))
	defer removeQuietly(imagePath)

	outLit := script.HostPath(b.paths.Host(imagePath))

	if opts.alternate() {
		target, err := b.resolveTitle(ctx, title)
		if err != nil {
			return nil, err
		}
		for _, cmd := range script.NirCmdCaptureWindow(script.Sanitize(target), outLit) {
			if _, err := b.gateway.Run(ctx, cmd, bridge.CommandTimeout); err != nil {
				return nil, err
			}
		}
	} else {
		scriptPath := filepath.Join(dir, fmt.Sprintf("capture-%d.ps1", ms))
		defer removeQuietly(scriptPath)

		body := script.CaptureWindow(script.Sanitize(title), outLit, opts.Format.script())
		if err := b.runScript(ctx, scriptPath, body); err != nil {
			if notFound(err) {
				return nil, &window.NotFoundError{Query: title}
			}
			return nil, err
		}
	}

	return readImage(imagePath)
}

// CaptureScreen implements Backend
func (b *BridgeBackend) CaptureScreen(ctx context.Context, opts Options) ([]byte, error) {
	ms := b.now().UnixMilli()
	dir := b.tempDir.Resolve(ctx)
	imagePath := filepath.Join(dir, fmt.Sprintf("fullscreen-%d.%s", ms, opts.Format.Extension()))
	defer removeQuietly(imagePath)

	outLit := script.HostPath(b.paths.Host(imagePath))

	if opts.alternate() {
		if _, err := b.gateway.Run(ctx, script.NirCmdCaptureScreen(outLit), bridge.CommandTimeout); err != nil {
			return nil, err
		}
	} else {
		scriptPath := filepath.Join(dir, fmt.Sprintf("capture-%d.ps1", ms))
		defer removeQuietly(scriptPath)

		if err := b.runScript(ctx, scriptPath, script.CaptureScreen(outLit, opts.Format.script())); err != nil {
			return nil, err
		}
	}

	return readImage(imagePath)
}

// resolveTitle picks the exact title, or the first one containing title,
// the same order the capture script uses.
func (b *BridgeBackend) resolveTitle(ctx context.Context, title string) (string, error) {
	windows, err := b.lister.ListWindows(ctx)
	if err != nil {
		return "", err
	}
	rec, err := window.FindByTitle(windows, title, true)
	if err != nil {
		rec, err = window.FindByTitle(windows, title, false)
		if err != nil {
			return "", err
		}
	}
	return rec.Title, nil
}

func (b *BridgeBackend) runScript(ctx context.Context, scriptPath, body string) error {
	if err := script.WriteFile(scriptPath, body); err != nil {
		return fmt.Errorf("failed to write capture script: %w", err)
	}
	out, err := b.gateway.RunScript(ctx, b.paths.Host(scriptPath), bridge.CommandTimeout)
	if err != nil {
		return err
	}
	return script.Verify(out.Stdout, out.Stderr)
}

func notFound(err error) bool {
	var execErr *bridge.ExecutionError
	if errors.As(err, &execErr) {
		return script.IsWindowNotFound(execErr.Stderr)
	}
	return script.IsWindowNotFound(err.Error())
}

func readImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("screenshot file was not created: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("screenshot file is empty: %s", path)
	}
	return data, nil
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.WithComponent("capture").Debug().Err(err).Str("path", path).Msg("Failed to remove temp file")
	}
}
