package script

import (
	"os"
	"strings"
)

const powershell = "powershell.exe"

// Command is a single host command line, executed without a shell.
type Command struct {
	Program string
	Args    []string
}

func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Program)
	for _, a := range c.Args {
		if strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

func inline(command string) Command {
	return Command{
		Program: powershell,
		Args:    []string{"-NoProfile", "-NonInteractive", "-Command", command},
	}
}

// ProbeExpected is what Probe prints when the bridge works.
const ProbeExpected = "OK"

// Probe is the trivial round trip used for the availability check.
func Probe() Command {
	return inline("Write-Output '" + ProbeExpected + "'")
}

// TempDirQuery prints the host user's temp directory.
func TempDirQuery() Command {
	return inline("Write-Output $env:TEMP")
}

// RunFile executes a script file already present on the host filesystem.
func RunFile(hostPath Literal) Command {
	return Command{
		Program: powershell,
		Args:    []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-File", hostPath.String()},
	}
}

const nircmd = "nircmd.exe"

// NirCmdProbe checks whether the alternate capture tool is on PATH.
func NirCmdProbe() Command {
	return Command{Program: nircmd, Args: []string{"help"}}
}

// NirCmdCaptureWindow activates the titled window and saves the active
// window. NirCmd picks the image format from the file extension.
func NirCmdCaptureWindow(title, out Literal) []Command {
	return []Command{
		{Program: nircmd, Args: []string{"win", "activate", "title", title.String()}},
		{Program: nircmd, Args: []string{"savescreenshotwin", out.String()}},
	}
}

// NirCmdCaptureScreen saves the whole screen.
func NirCmdCaptureScreen(out Literal) Command {
	return Command{Program: nircmd, Args: []string{"savescreenshot", out.String()}}
}

// utf8BOM makes Windows PowerShell 5.1 read the script as UTF-8 instead of
// the ANSI code page.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteFile writes a script body where the host can execute it.
func WriteFile(path, body string) error {
	data := make([]byte, 0, len(utf8BOM)+len(body))
	data = append(data, utf8BOM...)
	data = append(data, body...)
	return os.WriteFile(path, data, 0o600)
}
