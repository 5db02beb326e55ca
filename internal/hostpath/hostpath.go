// Package hostpath maps paths between the WSL filesystem namespace and the
// Windows host's native path syntax.
package hostpath

import (
	"os"
	"regexp"
	"strings"
)

var (
	callerDrive = regexp.MustCompile(`^/mnt/([a-zA-Z])(/|$)`)
	hostDrive   = regexp.MustCompile(`^([a-zA-Z]):(\\|/|$)`)
)

// ToHostPath rewrites /mnt/<d>/rest to <D>:\rest. A trailing separator
// survives, so /mnt/c/ becomes C:\ and /mnt/c becomes C:. Paths of any other
// shape are returned unchanged.
func ToHostPath(p string) string {
	m := callerDrive.FindStringSubmatch(p)
	if m == nil {
		return p
	}
	out := strings.ToUpper(m[1]) + ":"
	if m[2] != "" {
		out += `\` + strings.ReplaceAll(p[len(m[0]):], "/", `\`)
	}
	return out
}

// ToCallerPath rewrites <D>:\rest to /mnt/<d>/rest. Paths of any other shape
// are returned unchanged.
func ToCallerPath(p string) string {
	m := hostDrive.FindStringSubmatch(p)
	if m == nil {
		return p
	}
	out := "/mnt/" + strings.ToLower(m[1])
	if m[2] != "" {
		out += "/" + strings.ReplaceAll(p[len(m[0]):], `\`, "/")
	}
	return out
}

// Mapper translates caller paths for the host only when running under WSL.
type Mapper struct {
	WSL bool
}

// Host returns the path the host should use to reach p.
func (m Mapper) Host(p string) string {
	if !m.WSL {
		return p
	}
	return ToHostPath(p)
}

// Caller returns the local path for a host-reported path.
func (m Mapper) Caller(p string) string {
	if !m.WSL {
		return p
	}
	return ToCallerPath(p)
}

// procVersion is swapped in tests.
var procVersion = "/proc/version"

// IsWSL reports whether the process runs inside the Windows Subsystem for Linux.
func IsWSL() bool {
	data, err := os.ReadFile(procVersion)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), "microsoft")
}
