package window

import (
	"context"
	"strings"
)

// Title markers Godot uses for its windows.
const (
	DebugMarker  = "(DEBUG)"
	EditorSuffix = "- Godot Engine"
)

// DebugWindows returns running-game windows, in lister order.
func DebugWindows(windows []Record) []Record {
	var out []Record
	for _, w := range windows {
		if strings.Contains(w.Title, DebugMarker) {
			out = append(out, w)
		}
	}
	return out
}

// EditorWindows returns editor windows, in lister order.
func EditorWindows(windows []Record) []Record {
	var out []Record
	for _, w := range windows {
		if strings.HasSuffix(w.Title, EditorSuffix) {
			out = append(out, w)
		}
	}
	return out
}

// FindByTitle returns the first window whose title equals title (exact) or
// contains it.
func FindByTitle(windows []Record, title string, exact bool) (Record, error) {
	for _, w := range windows {
		if exact && w.Title == title {
			return w, nil
		}
		if !exact && strings.Contains(w.Title, title) {
			return w, nil
		}
	}
	return Record{}, &NotFoundError{Query: title}
}

// Pick narrows candidates by discriminator. With an empty discriminator or a
// single candidate the first candidate wins; otherwise the first title
// containing the discriminator wins, falling back to the first candidate.
// query names the search in the not-found error.
func Pick(candidates []Record, discriminator, query string) (Record, error) {
	if len(candidates) == 0 {
		return Record{}, &NotFoundError{Query: query}
	}
	if discriminator == "" || len(candidates) == 1 {
		return candidates[0], nil
	}
	for _, w := range candidates {
		if strings.Contains(w.Title, discriminator) {
			return w, nil
		}
	}
	return candidates[0], nil
}

// DebugWindows lists Godot game windows.
func (r *Registry) DebugWindows(ctx context.Context) ([]Record, error) {
	all, err := r.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return DebugWindows(all), nil
}

// EditorWindows lists Godot editor windows.
func (r *Registry) EditorWindows(ctx context.Context) ([]Record, error) {
	all, err := r.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return EditorWindows(all), nil
}

// FindByTitle searches the current listing.
func (r *Registry) FindByTitle(ctx context.Context, title string, exact bool) (Record, error) {
	all, err := r.List(ctx, "")
	if err != nil {
		return Record{}, err
	}
	return FindByTitle(all, title, exact)
}
