package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Args checks tool arguments field by field and collects every problem, so
// the client sees all of them in one error.
type Args struct {
	raw    map[string]json.RawMessage
	issues []string
}

// ParseArgs reads a tool's arguments object. Missing or null arguments are
// treated as an empty object.
func ParseArgs(data json.RawMessage) *Args {
	a := &Args{raw: map[string]json.RawMessage{}}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return a
	}
	if err := json.Unmarshal(trimmed, &a.raw); err != nil {
		a.issues = append(a.issues, ": Expected object, received "+jsonKind(trimmed))
	}
	return a
}

func (a *Args) addf(field, format string, args ...any) {
	a.issues = append(a.issues, field+": "+fmt.Sprintf(format, args...))
}

func (a *Args) present(name string) (json.RawMessage, bool) {
	v, ok := a.raw[name]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

// String returns the named string argument and whether it was given. The
// length is counted in characters and must lie in [min, max].
func (a *Args) String(name string, required bool, min, max int) (string, bool) {
	v, ok := a.present(name)
	if !ok {
		if required {
			a.addf(name, "Required")
		}
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		a.addf(name, "Expected string, received %s", jsonKind(v))
		return "", false
	}
	n := utf8.RuneCountInString(s)
	if n < min {
		a.addf(name, "String must contain at least %d character(s)", min)
		return "", false
	}
	if n > max {
		a.addf(name, "String must contain at most %d character(s)", max)
		return "", false
	}
	return s, true
}

// Bool returns the named boolean argument, or def when absent.
func (a *Args) Bool(name string, def bool) bool {
	v, ok := a.present(name)
	if !ok {
		return def
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		a.addf(name, "Expected boolean, received %s", jsonKind(v))
		return def
	}
	return b
}

// Err returns an invalid-params error listing every issue, or nil.
func (a *Args) Err() error {
	if len(a.issues) == 0 {
		return nil
	}
	return InvalidParams("Invalid parameters: " + strings.Join(a.issues, ", "))
}

func jsonKind(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return "undefined"
	}
	switch v[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
