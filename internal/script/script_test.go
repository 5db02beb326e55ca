package script

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeStripsDeniedCharacters(t *testing.T) {
	inputs := []string{
		"Game; Remove-Item C:\\ -Recurse",
		"a | b",
		"`whoami`",
		"$env:USERPROFILE",
		"one && two",
		"mixed;|`$&end",
		"line\r\nbreak",
	}
	for _, in := range inputs {
		lit := Sanitize(in)
		for _, out := range []string{lit.String(), lit.PowerShell()} {
			if strings.ContainsAny(out, ";|`$&\r\n") {
				t.Errorf("Sanitize(%q) left a denied character in %q", in, out)
			}
		}
	}
}

func TestPowerShellDoublesSingleQuotes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Player's Game", "'Player''s Game'"},
		{"''", "''''''"},
		{"plain", "'plain'"},
		{"curly ’quote", "'curly ’’quote'"},
		{"", "''"},
	}
	for _, tc := range tests {
		if got := Sanitize(tc.in).PowerShell(); got != tc.want {
			t.Errorf("Sanitize(%q).PowerShell() = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestCaptureWindowScriptStaysClosed(t *testing.T) {
	hostile := "x'; Start-Process calc; '"
	body := CaptureWindow(Sanitize(hostile), Sanitize(`C:\Temp\shot.png`), PNG)

	if !strings.Contains(body, "$title = 'x'' Start-Process calc '''\n") {
		t.Fatalf("title literal not escaped as expected:\n%s", body)
	}
	if strings.Contains(body, "; Start-Process") {
		t.Fatal("command separator survived sanitization")
	}
	if !strings.Contains(body, `$bitmap.Save('C:\Temp\shot.png', [System.Drawing.Imaging.ImageFormat]::Png)`) {
		t.Fatalf("missing save call:\n%s", body)
	}
	if !strings.HasSuffix(strings.TrimSpace(body), "Write-Output '"+SuccessSentinel+"'") {
		t.Fatal("script must end by printing the success sentinel")
	}
}

func TestCaptureWindowScriptSteps(t *testing.T) {
	body := CaptureWindow(Sanitize("Godot"), Sanitize(`C:\t.jpg`), JPG)
	steps := []string{
		"-eq $title",
		".Contains($title)",
		"throw (\"Window not found: \" + $title)",
		"[Win32]::SetForegroundWindow",
		"Start-Sleep -Milliseconds 200",
		"[Win32]::GetWindowRect",
		"$width -le 0 -or $height -le 0",
		"CopyFromScreen",
		"ImageFormat]::Jpeg",
	}
	last := -1
	for _, step := range steps {
		i := strings.Index(body, step)
		if i < 0 {
			t.Fatalf("script is missing %q", step)
		}
		if i < last {
			t.Fatalf("step %q is out of order", step)
		}
		last = i
	}
}

func TestCaptureScreenScript(t *testing.T) {
	body := CaptureScreen(Sanitize(`C:\Temp\full & shot.png`), PNG)
	if !strings.Contains(body, "PrimaryScreen.Bounds") {
		t.Fatal("screen capture must use the primary display bounds")
	}
	if !strings.Contains(body, `'C:\Temp\full  shot.png'`) {
		t.Fatalf("output path not sanitized: %s", body)
	}
	if !strings.Contains(body, "Write-Output '"+SuccessSentinel+"'") {
		t.Fatal("missing sentinel")
	}
}

func TestListWindowsEmitsPipeLines(t *testing.T) {
	body := ListWindows()
	if !strings.Contains(body, `MainWindowTitle -ne ""`) || !strings.Contains(body, `"$($_.Id)|$($_.MainWindowTitle)"`) {
		t.Fatalf("unexpected list script: %s", body)
	}
}

func TestVerify(t *testing.T) {
	if err := Verify("SUCCESS\r\n", ""); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := Verify("SUCCESS", "Exception calling Save"); err == nil {
		t.Fatal("stderr output must fail verification")
	}
	if err := Verify("", ""); err == nil {
		t.Fatal("missing sentinel must fail verification")
	}
	if err := Verify("SUCCESS", "  \r\n"); err != nil {
		t.Fatalf("whitespace-only stderr should pass, got %v", err)
	}
}

func TestIsWindowNotFound(t *testing.T) {
	if !IsWindowNotFound("Window not found: NoSuchWindow\nAt C:\\...\\capture.ps1:9") {
		t.Fatal("expected not-found detection")
	}
	if IsWindowNotFound("Invalid window dimensions: 0 x 0") {
		t.Fatal("dimension failure is not a not-found")
	}
}

func TestCommands(t *testing.T) {
	run := RunFile(Sanitize(`C:\Users\dev\Temp\capture-1.ps1`))
	if run.Program != "powershell.exe" {
		t.Fatalf("unexpected program %q", run.Program)
	}
	if got := run.Args[len(run.Args)-1]; got != `C:\Users\dev\Temp\capture-1.ps1` {
		t.Fatalf("unexpected file argument %q", got)
	}

	nir := NirCmdCaptureWindow(Sanitize("My Game | (DEBUG)"), Sanitize(`C:\t\s.png`))
	if len(nir) != 2 {
		t.Fatalf("expected activate + save, got %d commands", len(nir))
	}
	if got := nir[0].Args[3]; got != "My Game  (DEBUG)" {
		t.Fatalf("title argument not sanitized: %q", got)
	}

	if got := Probe().String(); got != "powershell.exe -NoProfile -NonInteractive -Command \"Write-Output 'OK'\"" {
		t.Fatalf("unexpected probe rendering: %s", got)
	}
}

func TestWriteFileAddsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.ps1")
	if err := WriteFile(path, "Write-Output 'é'"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatal("missing UTF-8 BOM")
	}
	if string(data[3:]) != "Write-Output 'é'" {
		t.Fatalf("unexpected body %q", data[3:])
	}
}

func TestHostPathKeepsProfileCharacters(t *testing.T) {
	lit := HostPath("C:\\Users\\A&B $x\\Temp\\it's.ps1\n")
	if got := lit.String(); got != `C:\Users\A&B $x\Temp\it's.ps1` {
		t.Fatalf("HostPath().String() = %q", got)
	}
	if got := lit.PowerShell(); got != `'C:\Users\A&B $x\Temp\it''s.ps1'` {
		t.Fatalf("HostPath().PowerShell() = %s", got)
	}
	if got := RunFile(lit).Args; got[len(got)-1] != lit.String() {
		t.Fatalf("RunFile should pass the path as one argument, got %v", got)
	}
}
