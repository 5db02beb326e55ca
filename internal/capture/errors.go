package capture

import (
	"errors"
	"fmt"
)

// ErrCaptureFailed matches every *Error.
var ErrCaptureFailed = errors.New("capture failed")

// Error wraps a capture failure with its target. An empty Title means the
// full screen.
type Error struct {
	Title string
	Err   error
}

func (e *Error) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("failed to capture screen: %v", e.Err)
	}
	return fmt.Sprintf("failed to capture window %q: %v", e.Title, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match against ErrCaptureFailed.
func (e *Error) Is(target error) bool {
	return target == ErrCaptureFailed
}
