package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/dshills/strand/internal/engine/rope"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestNew_Defaults(t *testing.T) {
	c := New()

	cfg, err := c.RopeConfig()
	if err != nil {
		t.Fatalf("RopeConfig failed: %v", err)
	}
	if cfg != rope.DefaultConfig() {
		t.Errorf("RopeConfig() = %+v, want %+v", cfg, rope.DefaultConfig())
	}
	if got := c.Logging().Level; got != "info" {
		t.Errorf("logging level = %q, want info", got)
	}
	if got := c.Script().Timeout; got != 5*time.Second {
		t.Errorf("script timeout = %v, want 5s", got)
	}
	if got := c.Sources(); !reflect.DeepEqual(got, []string{LayerDefaults}) {
		t.Errorf("Sources() = %v", got)
	}
}

func TestConfig_LoadTOML(t *testing.T) {
	path := writeFile(t, "strand.toml", `
[rope]
copyMax = 0
lazyThreshold = 64
allocator = "pool"

[logging]
level = "debug"
`)

	c := New(WithFile(path), WithEnvironment(false))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	s, err := c.Rope()
	if err != nil {
		t.Fatalf("Rope failed: %v", err)
	}
	if s.CopyMax != 0 || s.LazyThreshold != 64 {
		t.Errorf("rope = %+v, want copyMax 0, lazyThreshold 64", s.Config)
	}
	if s.MaxDepth != rope.DefaultMaxDepth {
		t.Errorf("maxDepth = %d, default should survive the merge", s.MaxDepth)
	}
	if s.Allocator != AllocatorPool {
		t.Errorf("allocator = %q, want pool", s.Allocator)
	}
	if got := c.Logging().Level; got != "debug" {
		t.Errorf("logging level = %q, want debug", got)
	}
	if got := c.Sources(); !reflect.DeepEqual(got, []string{LayerDefaults, LayerFile}) {
		t.Errorf("Sources() = %v", got)
	}
}

func TestConfig_LoadYAML(t *testing.T) {
	path := writeFile(t, "strand.yml", `
rope:
  maxDepth: 30
  rebalanceDepth: 12
  rebalanceSlack: 3
script:
  timeout: 250ms
`)

	c := New(WithFile(path), WithEnvironment(false))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg, err := c.RopeConfig()
	if err != nil {
		t.Fatalf("RopeConfig failed: %v", err)
	}
	if cfg.MaxDepth != 30 || cfg.RebalanceDepth != 12 || cfg.RebalanceSlack != 3 {
		t.Errorf("RopeConfig() = %+v", cfg)
	}
	if got := c.Script().Timeout; got != 250*time.Millisecond {
		t.Errorf("script timeout = %v, want 250ms", got)
	}
}

func TestConfig_LoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		c := New(WithFile(filepath.Join(t.TempDir(), "none.toml")), WithEnvironment(false))
		if err := c.Load(context.Background()); !errors.Is(err, ErrFileNotFound) {
			t.Errorf("Load() error = %v, want ErrFileNotFound", err)
		}
	})

	t.Run("unknown extension", func(t *testing.T) {
		path := writeFile(t, "strand.ini", "x=1")
		c := New(WithFile(path), WithEnvironment(false))
		if err := c.Load(context.Background()); err == nil {
			t.Error("expected an error for .ini files")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := New().Load(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Load() error = %v, want context.Canceled", err)
		}
	})
}

func TestConfig_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "strand.toml", "[rope]\ncopyMax = 10\nscratchLen = 4096\n")
	t.Setenv("STRAND_ROPE_COPY_MAX", "5")
	t.Setenv("STRAND_ALLOCATOR", "POOL")

	c := New(WithFile(path))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	s, err := c.Rope()
	if err != nil {
		t.Fatalf("Rope failed: %v", err)
	}
	if s.CopyMax != 5 {
		t.Errorf("copyMax = %d, want 5 from the environment", s.CopyMax)
	}
	if s.ScratchLen != 4096 {
		t.Errorf("scratchLen = %d, want 4096 from the file", s.ScratchLen)
	}
	if s.Allocator != AllocatorPool {
		t.Errorf("allocator = %q, want pool", s.Allocator)
	}
}

func TestConfig_Set(t *testing.T) {
	t.Setenv("STRAND_LOG_LEVEL", "warn")

	c := New()
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := c.Logging().Level; got != "warn" {
		t.Fatalf("logging level = %q, want warn", got)
	}

	if err := c.Set("logging.level", "error"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := c.Logging().Level; got != "error" {
		t.Errorf("logging level = %q, override should win", got)
	}

	if err := c.Set("", 1); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Set(\"\") error = %v, want ErrInvalidPath", err)
	}
	if err := c.Set("logging.level.deeper", 1); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Set through a scalar error = %v, want ErrInvalidPath", err)
	}

	sources := c.Sources()
	if sources[len(sources)-1] != LayerOverrides {
		t.Errorf("Sources() = %v, overrides should come last", sources)
	}
}

func TestConfig_RopeInvalid(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value any
		want  error
	}{
		{"wrong type", "rope.copyMax", "big", ErrTypeMismatch},
		{"fractional", "rope.maxDepth", 1.5, ErrTypeMismatch},
		{"out of range", "rope.pathCacheLen", 65, rope.ErrInvalidConfig},
		{"rebalance above max", "rope.rebalanceDepth", 100, rope.ErrInvalidConfig},
		{"unknown allocator", "rope.allocator", "arena", ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			if err := c.Set(tt.path, tt.value); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if _, err := c.RopeConfig(); !errors.Is(err, tt.want) {
				t.Errorf("RopeConfig() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfig_ConfigErrors(t *testing.T) {
	c := New()
	_ = c.Set("script.timeout", "soon")
	_ = c.Set("logging.level", 3)

	if got := c.Script().Timeout; got != 5*time.Second {
		t.Errorf("timeout = %v, want the default", got)
	}
	if got := c.Logging().Level; got != "info" {
		t.Errorf("level = %q, want the default", got)
	}

	errs := c.ConfigErrors()
	if len(errs) != 2 {
		t.Fatalf("ConfigErrors() = %v, want 2 entries", errs)
	}
	var te *TypeError
	if !errors.As(errs["logging.level"], &te) || te.Expected != "string" {
		t.Errorf("logging.level error = %v", errs["logging.level"])
	}
}

func TestConfig_GetDuration(t *testing.T) {
	c := New()
	tests := []struct {
		value any
		want  time.Duration
	}{
		{"1m", time.Minute},
		{3 * time.Second, 3 * time.Second},
		{int64(2), 2 * time.Second},
		{7, 7 * time.Second},
	}
	for _, tt := range tests {
		_ = c.Set("script.timeout", tt.value)
		got, err := c.GetDuration("script.timeout")
		if err != nil || got != tt.want {
			t.Errorf("GetDuration(%v) = %v, %v; want %v", tt.value, got, err, tt.want)
		}
	}

	if _, err := c.GetDuration("script.missing"); !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("missing key error = %v", err)
	}
}

func TestConfig_Merged(t *testing.T) {
	c := New()
	m := c.Merged()
	m["rope"].(map[string]any)["copyMax"] = 999

	if v, _ := c.GetInt("rope.copyMax"); v != rope.DefaultCopyMax {
		t.Errorf("copyMax = %d, Merged should return a copy", v)
	}
}

func TestGetPath(t *testing.T) {
	m := map[string]any{
		"rope": map[string]any{
			"copyMax": 23,
		},
		"flat": "value",
	}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"rope.copyMax", 23, true},
		{"flat", "value", true},
		{"rope.missing", nil, false},
		{"flat.deeper", nil, false},
		{"", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := getPath(m, tt.path)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("getPath(%q) = %v, %v; want %v, %v", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"a.b.c", []string{"a", "b", "c"}},
		{"a..b", []string{"a", "b"}},
		{".a.", []string{"a"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := splitPath(tt.path)
		if len(got) != len(tt.want) {
			t.Errorf("splitPath(%q) = %v, want %v", tt.path, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		}
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{nil, "nil"},
		{"s", "string"},
		{int64(1), "int"},
		{1.5, "float64"},
		{true, "bool"},
		{time.Second, "duration"},
		{map[string]any{}, "map"},
		{[]int{}, "[]int"},
	}
	for _, tt := range tests {
		if got := typeName(tt.v); got != tt.want {
			t.Errorf("typeName(%#v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
