package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"--no-env"}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(a, []byte("hello "), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("world"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"cat", []string{"cat", a, b}, "hello world"},
		{"slice", []string{"slice", b, "1", "3"}, "orl"},
		{"repeat", []string{"repeat", "z", "5"}, "zzzzz"},
		{"cmp", []string{"cmp", a, b}, "-1\n"},
		{"pool allocator", []string{"--allocator", "pool", "cat", b}, "world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut, code := runCmd(t, tt.args...)
			if code != 0 {
				t.Fatalf("exit %d: %s", code, errOut)
			}
			if out != tt.want {
				t.Errorf("stdout = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestRun_Tree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	if err := os.WriteFile(path, bytes.Repeat([]byte("abcdefgh"), 1500), 0o644); err != nil {
		t.Fatal(err)
	}

	out, errOut, code := runCmd(t, "tree", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, want := range []string{"12000 bytes", "concat [0,12000)", "leaf [0,4096)"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree output missing %q:\n%s", want, out)
		}
	}

	out, _, _ = runCmd(t, "tree", "--max-depth", "0", path)
	if !strings.Contains(out, "concat [0,12000)") || !strings.Contains(out, "...") || strings.Contains(out, "leaf") {
		t.Errorf("folded tree output:\n%s", out)
	}
}

func TestRun_StatsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.txt")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, errOut, code := runCmd(t, "stats", "--json", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, `"lines":2`) || !strings.Contains(out, `"bytes":8`) {
		t.Errorf("stats output = %s", out)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"frobnicate"}, "unknown command"},
		{"missing args", []string{"slice", "x"}, "accepts 3 arg(s)"},
		{"bad length", []string{"slice", "x", "0", "ten"}, "invalid argument"},
		{"wide char", []string{"repeat", "ab", "3"}, "CHAR must be one byte"},
		{"missing file", []string{"cat", filepath.Join(t.TempDir(), "nope")}, "load"},
		{"bad allocator", []string{"--allocator", "arena", "repeat", "x", "1"}, "initialization failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := runCmd(t, tt.args...)
			if code != 1 {
				t.Errorf("exit %d, want 1", code)
			}
			if !strings.Contains(errOut, tt.want) {
				t.Errorf("stderr = %q, want it to mention %q", errOut, tt.want)
			}
		})
	}
}
