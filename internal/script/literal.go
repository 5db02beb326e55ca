package script

import (
	"strings"
	"unicode"
)

// denied characters can end a quoted string or chain a second command on
// the host shell.
const denied = ";|`$&"

// PowerShell treats the typographic single quotes as literal delimiters too.
var quoteRunes = map[rune]bool{
	'\'':     true,
	'\u2018': true,
	'\u2019': true,
	'\u201a': true,
	'\u201b': true,
}

// Literal is a value that went through Sanitize or HostPath. Templates only
// accept Literals, so nothing reaches a script body unsanitized.
type Literal struct {
	s string
}

// Sanitize strips denied and control characters from raw.
func Sanitize(raw string) Literal {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if strings.ContainsRune(denied, r) || unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return Literal{s: b.String()}
}

// HostPath wraps a path this process generated itself. Only control
// characters are dropped, since a profile directory may legitimately contain
// '&' or '$'. The result is safe as an argv element and inside PowerShell().
func HostPath(path string) Literal {
	return Literal{s: strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, path)}
}

// String returns the sanitized text without quoting, for argv use.
func (l Literal) String() string {
	return l.s
}

// Escaped returns the text with every single quote doubled, ready to sit
// between single quotes.
func (l Literal) Escaped() string {
	var b strings.Builder
	b.Grow(len(l.s) + 2)
	for _, r := range l.s {
		if quoteRunes[r] {
			b.WriteRune(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// PowerShell returns a single-quoted PowerShell string literal.
func (l Literal) PowerShell() string {
	return "'" + l.Escaped() + "'"
}
