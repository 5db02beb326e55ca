package bridge

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/bryanchriswhite/godotshot/internal/hostpath"
	"github.com/bryanchriswhite/godotshot/internal/logger"
	"github.com/bryanchriswhite/godotshot/internal/script"
)

// FallbackHostTemp is used when the host will not report its temp directory.
const FallbackHostTemp = "/mnt/c/Windows/Temp"

// TempDir resolves, once per process, a directory both sides of the bridge
// can read and write.
type TempDir struct {
	gateway  *Gateway
	override string
	wsl      bool

	mu       sync.Mutex
	dir      string
	resolved bool
}

// NewTempDir creates a resolver. A non-empty override is used as-is.
func NewTempDir(gateway *Gateway, override string, wsl bool) *TempDir {
	return &TempDir{
		gateway:  gateway,
		override: override,
		wsl:      wsl,
	}
}

// Resolve returns the shared temp directory as a caller-side path. The
// first call may ask the host; later calls reuse the answer.
func (t *TempDir) Resolve(ctx context.Context) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.resolved {
		return t.dir
	}
	t.dir = t.lookup(ctx)
	t.resolved = true

	logger.WithComponent("bridge").Debug().Str("dir", t.dir).Msg("Resolved shared temp directory")
	return t.dir
}

func (t *TempDir) lookup(ctx context.Context) string {
	if t.override != "" {
		return t.override
	}
	if !t.wsl {
		return os.TempDir()
	}

	out, err := t.gateway.Run(ctx, script.TempDirQuery(), ProbeTimeout)
	if err != nil {
		logger.WithComponent("bridge").Warn().Err(err).Str("fallback", FallbackHostTemp).Msg("Failed to query host temp directory")
		return FallbackHostTemp
	}

	winTemp := strings.TrimSpace(out.Stdout)
	if winTemp == "" || winTemp == ":TEMP" || !strings.Contains(winTemp, `\`) {
		logger.WithComponent("bridge").Warn().Str("reported", winTemp).Str("fallback", FallbackHostTemp).Msg("Host temp directory unusable")
		return FallbackHostTemp
	}
	return hostpath.ToCallerPath(winTemp)
}
