package loader

import (
	"errors"
	"strings"
	"testing"
)

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/strand.toml", `
[rope]
copyMax = 32
lazyThreshold = 256
allocator = "pool"

[logging]
level = "debug"
`)

	loader := NewTOMLLoaderWithFS(memfs, "/strand.toml")
	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	rope, ok := config["rope"].(map[string]any)
	if !ok {
		t.Fatal("expected rope to be a map")
	}
	if rope["copyMax"] != int64(32) {
		t.Errorf("copyMax = %v (%T), want 32", rope["copyMax"], rope["copyMax"])
	}
	if rope["lazyThreshold"] != int64(256) {
		t.Errorf("lazyThreshold = %v, want 256", rope["lazyThreshold"])
	}
	if rope["allocator"] != "pool" {
		t.Errorf("allocator = %v, want 'pool'", rope["allocator"])
	}

	if val, ok := getByPath(config, "logging.level"); !ok || val != "debug" {
		t.Errorf("logging.level = %v, want 'debug'", val)
	}
}

func TestTOMLLoader_LoadNonExistent(t *testing.T) {
	loader := NewTOMLLoaderWithFS(NewMemFS(), "/nonexistent.toml")

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("expected no error for non-existent file, got: %v", err)
	}
	if config != nil {
		t.Error("expected nil config for non-existent file")
	}
}

func TestTOMLLoader_LoadInvalid(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/invalid.toml", `
[rope
copyMax = 4
`)

	loader := NewTOMLLoaderWithFS(memfs, "/invalid.toml")
	_, err := loader.Load()
	if err == nil {
		t.Fatal("expected parse error")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if parseErr.Path != "/invalid.toml" {
		t.Errorf("Path = %q, want '/invalid.toml'", parseErr.Path)
	}
	if parseErr.Line == 0 {
		t.Error("expected a line number from the TOML decoder")
	}
}

func TestTOMLLoader_LoadFromReader(t *testing.T) {
	loader := &TOMLLoader{}

	config, err := loader.LoadFromReader(strings.NewReader(`
[script]
timeout = "2s"
`))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}

	if val, ok := getByPath(config, "script.timeout"); !ok || val != "2s" {
		t.Errorf("script.timeout = %v, want '2s'", val)
	}
}
