package script

import (
	"fmt"
	"strings"
)

// SuccessSentinel is printed by capture scripts as their last act.
const SuccessSentinel = "SUCCESS"

const notFoundPrefix = "Window not found: "

// ImageFormat is the container format a capture script saves.
type ImageFormat string

const (
	PNG ImageFormat = "png"
	JPG ImageFormat = "jpg"
)

func (f ImageFormat) drawingFormat() string {
	if f == JPG {
		return "[System.Drawing.Imaging.ImageFormat]::Jpeg"
	}
	return "[System.Drawing.Imaging.ImageFormat]::Png"
}

// ListWindows enumerates processes that own a titled main window, one
// "<pid>|<title>" line each.
func ListWindows() string {
	return `[Console]::OutputEncoding = [System.Text.Encoding]::UTF8
Get-Process | Where-Object {$_.MainWindowTitle -ne ""} | ForEach-Object { Write-Output "$($_.Id)|$($_.MainWindowTitle)" }
`
}

const win32Types = `Add-Type @"
using System;
using System.Runtime.InteropServices;
public class Win32 {
    [DllImport("user32.dll")]
    public static extern bool GetWindowRect(IntPtr hwnd, out RECT lpRect);
    [DllImport("user32.dll")]
    public static extern bool SetForegroundWindow(IntPtr hwnd);
    [DllImport("user32.dll")]
    public static extern bool ShowWindow(IntPtr hwnd, int nCmdShow);
}
public struct RECT {
    public int Left; public int Top; public int Right; public int Bottom;
}
"@
`

// CaptureWindow locates a window by title (exact, then substring), raises
// it and copies its screen rectangle. Copying from the screen rather than
// PrintWindow keeps GPU-composited content, so the window has to be on top.
func CaptureWindow(title, out Literal, format ImageFormat) string {
	var b strings.Builder
	b.WriteString("$ErrorActionPreference = 'Stop'\n")
	b.WriteString("Add-Type -AssemblyName System.Drawing,System.Windows.Forms\n\n")
	fmt.Fprintf(&b, "$title = %s\n", title.PowerShell())
	b.WriteString(`$target = Get-Process | Where-Object {$_.MainWindowTitle -eq $title} | Select-Object -First 1
if (-not $target) {
    $target = Get-Process | Where-Object {$_.MainWindowTitle -and $_.MainWindowTitle.Contains($title)} | Select-Object -First 1
}
if (-not $target -or $target.MainWindowHandle -eq [IntPtr]::Zero) {
    throw ("` + notFoundPrefix + `" + $title)
}
$hwnd = $target.MainWindowHandle

`)
	b.WriteString(win32Types)
	b.WriteString(`
[void][Win32]::ShowWindow($hwnd, 9)
[void][Win32]::SetForegroundWindow($hwnd)
Start-Sleep -Milliseconds 200

$rect = New-Object RECT
[void][Win32]::GetWindowRect($hwnd, [ref]$rect)
$width = $rect.Right - $rect.Left
$height = $rect.Bottom - $rect.Top
if ($width -le 0 -or $height -le 0) {
    throw "Invalid window dimensions: $width x $height"
}

$bitmap = New-Object System.Drawing.Bitmap($width, $height)
$graphics = [System.Drawing.Graphics]::FromImage($bitmap)
$graphics.CopyFromScreen($rect.Left, $rect.Top, 0, 0, $bitmap.Size)
`)
	fmt.Fprintf(&b, "$bitmap.Save(%s, %s)\n", out.PowerShell(), format.drawingFormat())
	b.WriteString(`$graphics.Dispose()
$bitmap.Dispose()
Write-Output '` + SuccessSentinel + `'
`)
	return b.String()
}

// CaptureScreen copies the primary display bounds.
func CaptureScreen(out Literal, format ImageFormat) string {
	return fmt.Sprintf("$ErrorActionPreference = 'Stop'; "+
		"Add-Type -AssemblyName System.Drawing,System.Windows.Forms; "+
		"$screen = [System.Windows.Forms.Screen]::PrimaryScreen.Bounds; "+
		"$bitmap = New-Object System.Drawing.Bitmap $screen.Width,$screen.Height; "+
		"$graphics = [System.Drawing.Graphics]::FromImage($bitmap); "+
		"$graphics.CopyFromScreen($screen.Left,$screen.Top,0,0,$bitmap.Size); "+
		"$bitmap.Save(%s, %s); "+
		"$graphics.Dispose(); $bitmap.Dispose(); "+
		"Write-Output '%s'\n", out.PowerShell(), format.drawingFormat(), SuccessSentinel)
}

// Verify reports whether a capture script's output signals success: nothing
// on stderr and the sentinel on stdout.
func Verify(stdout, stderr string) error {
	if msg := strings.TrimSpace(stderr); msg != "" {
		return fmt.Errorf("PowerShell error: %s", msg)
	}
	if !strings.Contains(stdout, SuccessSentinel) {
		return fmt.Errorf("PowerShell error: script finished without %s", SuccessSentinel)
	}
	return nil
}

// IsWindowNotFound reports whether stderr carries the capture script's
// not-found failure.
func IsWindowNotFound(stderr string) bool {
	return strings.Contains(stderr, notFoundPrefix)
}
