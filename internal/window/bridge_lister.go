package window

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bryanchriswhite/godotshot/internal/bridge"
	"github.com/bryanchriswhite/godotshot/internal/hostpath"
	"github.com/bryanchriswhite/godotshot/internal/logger"
	"github.com/bryanchriswhite/godotshot/internal/script"
)

// BridgeLister lists host windows by running a script through the bridge.
type BridgeLister struct {
	gateway *bridge.Gateway
	tempDir *bridge.TempDir
	paths   hostpath.Mapper
	now     func() time.Time
}

// NewBridgeLister creates a lister that stages its script in tempDir.
func NewBridgeLister(gateway *bridge.Gateway, tempDir *bridge.TempDir, paths hostpath.Mapper) *BridgeLister {
	return &BridgeLister{
		gateway: gateway,
		tempDir: tempDir,
		paths:   paths,
		now:     time.Now,
	}
}

// Name returns the lister name
func (l *BridgeLister) Name() string {
	return "bridge"
}

// ListWindows runs the enumeration script and parses its output.
func (l *BridgeLister) ListWindows(ctx context.Context) ([]Record, error) {
	log := logger.WithComponent("window-lister")

	dir := l.tempDir.Resolve(ctx)
	scriptPath := filepath.Join(dir, fmt.Sprintf("list-windows-%d.ps1", l.now().UnixMilli()))

	if err := script.WriteFile(scriptPath, script.ListWindows()); err != nil {
		return nil, fmt.Errorf("failed to write list script: %w", err)
	}
	defer func() {
		if err := os.Remove(scriptPath); err != nil && !os.IsNotExist(err) {
			log.Debug().Err(err).Str("path", scriptPath).Msg("Failed to remove list script")
		}
	}()

	out, err := l.gateway.RunScript(ctx, l.paths.Host(scriptPath), bridge.CommandTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}
	if msg := strings.TrimSpace(out.Stderr); msg != "" {
		log.Warn().Str("stderr", msg).Msg("Window list script wrote to stderr")
	}

	records := ParseList(out.Stdout)
	log.Debug().Int("count", len(records)).Msg("Listed host windows")
	return records, nil
}
