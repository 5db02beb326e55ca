package bridge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable means the host bridge failed its capability check.
var ErrUnavailable = errors.New("PowerShell is not accessible from WSL. Please ensure Windows interop is enabled.")

// ExecutionError describes a bridge command that exited non-zero, could not
// start, or ran past its timeout.
type ExecutionError struct {
	Command  string
	Stdout   string
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	if e.TimedOut {
		fmt.Fprintf(&b, "bridge command timed out: %s", e.Command)
	} else {
		fmt.Fprintf(&b, "bridge command failed: %s", e.Command)
		if e.Err != nil {
			fmt.Fprintf(&b, ": %v", e.Err)
		}
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		fmt.Fprintf(&b, ": %s", msg)
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
