// Package bridge executes host-native commands through WSL interop.
package bridge

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/bryanchriswhite/godotshot/internal/logger"
	"github.com/bryanchriswhite/godotshot/internal/script"
)

// Timeouts for the bridge operations.
const (
	ProbeTimeout   = 2 * time.Second
	CommandTimeout = 5 * time.Second
)

// AvailabilityTTL is how long a capability verdict is reused.
const AvailabilityTTL = 30 * time.Second

// Runner starts a process and collects its output. The default runs real
// processes; tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Output is what a bridge command printed.
type Output struct {
	Stdout string
	Stderr string
}

// Options configure a Gateway.
type Options struct {
	Runner  Runner
	Retries int
	Clock   func() time.Time
}

// Gateway runs host commands with a timeout and caches bridge availability.
type Gateway struct {
	runner  Runner
	retries int
	clock   func() time.Time

	mu          sync.Mutex
	available   bool
	checkedAt   time.Time
	haveVerdict bool
}

// NewGateway creates a gateway. Retries is the number of extra attempts
// after a failed command; zero means attempt once.
func NewGateway(opts Options) *Gateway {
	runner := opts.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	return &Gateway{
		runner:  runner,
		retries: retries,
		clock:   clock,
	}
}

// Run executes cmd, failing with *ExecutionError on a non-zero exit or once
// timeout elapses.
func (g *Gateway) Run(ctx context.Context, cmd script.Command, timeout time.Duration) (Output, error) {
	log := logger.WithComponent("bridge")

	var out Output
	var err error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("command", cmd.Program).Msg("Retrying bridge command")
		}
		out, err = g.runOnce(ctx, cmd, timeout)
		if err == nil || ctx.Err() != nil {
			break
		}
	}
	return out, err
}

func (g *Gateway) runOnce(ctx context.Context, cmd script.Command, timeout time.Duration) (Output, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.WithComponent("bridge").Debug().
		Str("command", cmd.String()).
		Dur("timeout", timeout).
		Msg("Running bridge command")

	stdout, stderr, err := g.runner.Run(runCtx, cmd.Program, cmd.Args...)
	out := Output{Stdout: stdout, Stderr: stderr}
	if err == nil && runCtx.Err() == nil {
		return out, nil
	}

	execErr := &ExecutionError{
		Command: cmd.String(),
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		execErr.TimedOut = true
		if execErr.Err == nil {
			execErr.Err = runCtx.Err()
		}
	} else if execErr.Err == nil {
		execErr.Err = runCtx.Err()
	}
	return out, execErr
}

// RunScript runs a script file that already sits at hostPath on the host.
func (g *Gateway) RunScript(ctx context.Context, hostPath string, timeout time.Duration) (Output, error) {
	return g.Run(ctx, script.RunFile(script.HostPath(hostPath)), timeout)
}

// Available runs the probe command and compares its output to the expected
// literal. The verdict is reused for AvailabilityTTL; there is no other
// invalidation.
func (g *Gateway) Available(ctx context.Context) bool {
	now := g.clock()

	g.mu.Lock()
	if g.haveVerdict && now.Sub(g.checkedAt) < AvailabilityTTL {
		verdict := g.available
		g.mu.Unlock()
		return verdict
	}
	g.mu.Unlock()

	out, err := g.Run(ctx, script.Probe(), ProbeTimeout)
	verdict := err == nil && strings.TrimSpace(out.Stdout) == script.ProbeExpected
	if !verdict {
		logger.WithComponent("bridge").Warn().Err(err).Msg("Host bridge probe failed")
	}

	g.mu.Lock()
	g.available = verdict
	g.checkedAt = now
	g.haveVerdict = true
	g.mu.Unlock()
	return verdict
}

// NirCmdAvailable reports whether the alternate capture tool answers.
func (g *Gateway) NirCmdAvailable(ctx context.Context) bool {
	_, err := g.Run(ctx, script.NirCmdProbe(), ProbeTimeout)
	return err == nil
}
