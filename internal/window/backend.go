// Package window discovers top-level windows on the host desktop and
// classifies the ones that belong to Godot.
package window

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound means no listed window matched a search.
var ErrNotFound = errors.New("window not found")

// NotFoundError names the search term that matched nothing.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Window not found: %s", e.Query)
}

// Is reports a match against ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Record is one visible top-level window. Handle is an opaque identifier
// assigned by the lister (a process ID for the host bridge, a window ID for
// X11).
type Record struct {
	Handle string `json:"handle"`
	Title  string `json:"title"`
}

// Lister enumerates visible windows.
type Lister interface {
	ListWindows(ctx context.Context) ([]Record, error)
	Name() string
}

// ParseList turns lister output into records. Each non-empty line is split
// on its first '|'; lines missing either half are dropped.
func ParseList(output string) []Record {
	var records []Record
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		handle, title, ok := strings.Cut(line, "|")
		if !ok {
			continue
		}
		handle = strings.TrimSpace(handle)
		title = strings.TrimSpace(title)
		if handle == "" || title == "" {
			continue
		}
		records = append(records, Record{Handle: handle, Title: title})
	}
	return records
}
