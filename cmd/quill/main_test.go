package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runQuill executes the root command with args and returns stdout, stderr
// and the error.
func runQuill(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--color", "off"}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

// workspace creates a temp dir holding a default quill.toml and files.
func workspace(t *testing.T, files map[string]string) (dir, cfg string) {
	t.Helper()
	dir = t.TempDir()
	cfg = filepath.Join(dir, "quill.toml")
	if err := os.WriteFile(cfg, []byte("[format]\nline_width = 80\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir, cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestFmtRewritesFiles(t *testing.T) {
	dir, _ := workspace(t, map[string]string{
		"a.json":      `{"a":1}`,
		"sub/b.jsonc": "[1, 2]\n",
		"notes.txt":   "{ }",
	})
	out, errOut, err := runQuill(t, "", "fmt", "--no-cache", "--ui", "off", dir)
	if err != nil {
		t.Fatalf("fmt failed: %v\n%s", err, errOut)
	}
	if !strings.Contains(out, "reformatted") || !strings.Contains(out, "a.json") {
		t.Fatalf("expected a.json to be reported, got %q", out)
	}
	if strings.Contains(out, "b.jsonc") {
		t.Fatalf("unchanged file reported: %q", out)
	}
	if got := readFile(t, filepath.Join(dir, "a.json")); got != "{ \"a\": 1 }\n" {
		t.Fatalf("a.json = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "notes.txt")); got != "{ }" {
		t.Fatalf("notes.txt must not be touched, got %q", got)
	}
	if !strings.Contains(errOut, "2 files, 1 changed, 0 failed") {
		t.Fatalf("missing summary line in %q", errOut)
	}
}

func TestFmtCheckWithDiff(t *testing.T) {
	dir, _ := workspace(t, map[string]string{"a.json": `{"a":1}`})
	out, _, err := runQuill(t, "", "fmt", "--no-cache", "--ui", "off", "--check", "--diff", dir)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected errReported, got %v", err)
	}
	for _, want := range []string{"a.json", `-{"a":1}`, `+{ "a": 1 }`, "@@"} {
		if !strings.Contains(out, want) {
			t.Fatalf("diff output does not contain %q:\n%s", want, out)
		}
	}
	if got := readFile(t, filepath.Join(dir, "a.json")); got != `{"a":1}` {
		t.Fatalf("--check modified the file: %q", got)
	}
}

func TestFmtCheckCleanTree(t *testing.T) {
	dir, _ := workspace(t, map[string]string{"a.json": "{ \"a\": 1 }\n"})
	out, _, err := runQuill(t, "", "--quiet", "fmt", "--no-cache", "--ui", "off", "--check", dir)
	if err != nil {
		t.Fatalf("clean tree should pass --check: %v", err)
	}
	if out != "" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFmtStdin(t *testing.T) {
	_, cfg := workspace(t, nil)
	out, errOut, err := runQuill(t, "// list\n[1,2,\n\n3]", "--config", cfg, "fmt", "--no-cache", "-")
	if err != nil {
		t.Fatalf("fmt - failed: %v\n%s", err, errOut)
	}
	if want := "// list\n[\n  1,\n  2,\n\n  3\n]\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestFmtStdinOverrides(t *testing.T) {
	_, cfg := workspace(t, nil)
	out, _, err := runQuill(t, `{"a":[1,2]}`, "--config", cfg, "fmt", "--no-cache",
		"--line-width", "8", "--indent-style", "tab", "--trailing-commas", "all", "-")
	if err != nil {
		t.Fatal(err)
	}
	if want := "{\n\t\"a\": [\n\t\t1,\n\t\t2,\n\t],\n}\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestFmtSyntaxError(t *testing.T) {
	dir, _ := workspace(t, map[string]string{"bad.json": "[1 2"})
	_, errOut, err := runQuill(t, "", "fmt", "--no-cache", "--ui", "off", dir)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected errReported, got %v", err)
	}
	if !strings.Contains(errOut, "error SYN") || !strings.Contains(errOut, "bad.json:1:") {
		t.Fatalf("diagnostics missing from stderr:\n%s", errOut)
	}
	if !strings.Contains(errOut, "1 failed") {
		t.Fatalf("summary should count the failure:\n%s", errOut)
	}
}

func TestFmtJSONOutput(t *testing.T) {
	dir, _ := workspace(t, map[string]string{"a.json": `[1,   2]`})
	out, _, err := runQuill(t, "", "fmt", "--no-cache", "--check", "--format", "json", "--markers", dir)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected errReported for a file needing changes, got %v", err)
	}
	var payload []jsonResult
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(payload) != 1 || !payload[0].Changed || !payload[0].CheckRun {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if len(payload[0].Markers) == 0 {
		t.Fatalf("markers requested but missing")
	}
	last := payload[0].Markers[len(payload[0].Markers)-1]
	if last.Source != 7 || last.Dest != 5 { // the closing bracket
		t.Fatalf("last marker = %+v", last)
	}
}

func TestFmtFlagValidation(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"fmt", "--diff", "x.json"}, "--diff requires --check"},
		{[]string{"fmt", "--check", "--stdout", "x.json"}, "--stdout cannot be used with --check"},
		{[]string{"fmt", "--format", "yaml", "x.json"}, "unsupported output format"},
		{[]string{"fmt", "--ui", "maybe", "x.json"}, "invalid --ui value"},
		{[]string{"fmt", "-", "x.json"}, "- must be the only path"},
		{[]string{"fmt", "--watch", "--check", "x.json"}, "--watch cannot be combined"},
		{[]string{"--color", "purple", "version"}, "invalid --color value"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, _, err := runQuill(t, "", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestIRCommand(t *testing.T) {
	dir, _ := workspace(t, map[string]string{"a.json": "[1]"})
	out, _, err := runQuill(t, "", "ir", filepath.Join(dir, "a.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "group(") || !strings.Contains(out, `"1"`) {
		t.Fatalf("unexpected IR:\n%s", out)
	}

	raw, _, err := runQuill(t, "", "ir", "--raw", filepath.Join(dir, "a.json"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(raw, "ERROR<") || strings.Contains(raw, "START_WITHOUT_END") {
		t.Fatalf("raw stream should be balanced:\n%s", raw)
	}
}

func TestIRSyntaxError(t *testing.T) {
	_, cfg := workspace(t, nil)
	_, errOut, err := runQuill(t, "{", "--config", cfg, "ir", "-")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected errReported, got %v", err)
	}
	if !strings.Contains(errOut, "<stdin>") {
		t.Fatalf("diagnostic should name stdin:\n%s", errOut)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runQuill(t, "", "version", "--format", "json", "--full")
	if err != nil {
		t.Fatal(err)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["tool"] != "quill" || payload["version"] == "" || payload["git_commit"] != "unknown" {
		t.Fatalf("unexpected payload %v", payload)
	}

	out, _, err = runQuill(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "quill ") || strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected pretty output %q", out)
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "ON": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %s, %v", in, got, err)
		}
	}
	if uiModeOff.useTUI() || !uiModeOn.useTUI() {
		t.Fatal("explicit modes must win over terminal detection")
	}
}

func TestFmtPrettyDiagnostics(t *testing.T) {
	dir, _ := workspace(t, map[string]string{"bad.json": "[1 2]"})
	_, errOut, err := runQuill(t, "", "--diagnostics", "pretty", "fmt", "--no-cache", "--ui", "off", dir)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected errReported, got %v", err)
	}
	if !strings.Contains(errOut, "error[SYN2009]") || !strings.Contains(errOut, "1 | [1 2]") {
		t.Fatalf("pretty diagnostics missing:\n%s", errOut)
	}
}

func TestFmtJSONDiagnostics(t *testing.T) {
	dir, _ := workspace(t, map[string]string{"bad.json": "[1 2]"})
	out, _, err := runQuill(t, "", "fmt", "--no-cache", "--format", "json", dir)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected errReported, got %v", err)
	}
	var payload []jsonResult
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload) != 1 || payload[0].Error == "" || len(payload[0].Diagnostics) == 0 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if d := payload[0].Diagnostics[0]; d.Code != "SYN2009" || d.Location.StartLine != 1 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}
