package loader

import (
	"errors"
	"strings"
	"testing"
)

func TestYAMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/strand.yaml", `
rope:
  copyMax: 16
  maxDepth: 30
  allocator: heap
logging:
  level: warn
`)

	loader := NewYAMLLoaderWithFS(memfs, "/strand.yaml")
	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"rope.copyMax", int64(16)},
		{"rope.maxDepth", int64(30)},
		{"rope.allocator", "heap"},
		{"logging.level", "warn"},
	}
	for _, tt := range tests {
		got, ok := getByPath(config, tt.path)
		if !ok || got != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.path, got, got, tt.want)
		}
	}
}

func TestYAMLLoader_LoadNonExistent(t *testing.T) {
	config, err := NewYAMLLoaderWithFS(NewMemFS(), "/missing.yml").Load()
	if err != nil {
		t.Fatalf("expected no error for non-existent file, got: %v", err)
	}
	if config != nil {
		t.Error("expected nil config for non-existent file")
	}
}

func TestYAMLLoader_LoadInvalid(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.yaml", "rope: [1, 2\n")

	_, err := NewYAMLLoaderWithFS(memfs, "/bad.yaml").Load()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if parseErr.Path != "/bad.yaml" {
		t.Errorf("Path = %q, want '/bad.yaml'", parseErr.Path)
	}
}

func TestYAMLLoader_NormalizesNestedInts(t *testing.T) {
	config, err := (&YAMLLoader{}).LoadFromReader(strings.NewReader(`
sizes:
  - 1
  - nested:
      n: 2
`))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}

	sizes, ok := config["sizes"].([]any)
	if !ok || len(sizes) != 2 {
		t.Fatalf("sizes = %#v", config["sizes"])
	}
	if sizes[0] != int64(1) {
		t.Errorf("sizes[0] = %v (%T), want int64 1", sizes[0], sizes[0])
	}
	inner, _ := sizes[1].(map[string]any)
	if got, _ := getByPath(inner, "nested.n"); got != int64(2) {
		t.Errorf("nested.n = %v (%T), want int64 2", got, got)
	}
}
