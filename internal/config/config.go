package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/dshills/strand/internal/config/loader"
	"github.com/dshills/strand/internal/engine/rope"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "STRAND_"

// Layer names, lowest priority first.
const (
	LayerDefaults    = "defaults"
	LayerFile        = "file"
	LayerEnvironment = "environment"
	LayerOverrides   = "overrides"
)

type layer struct {
	name string
	data map[string]any
}

// Config provides merged access to strand settings. Values come from
// built-in defaults, an optional TOML or YAML file, STRAND_* environment
// variables and explicit overrides, each layer overriding the ones before.
type Config struct {
	mu sync.RWMutex

	// layers are ordered by priority (ascending)
	layers []layer
	merged map[string]any

	path      string
	fs        loader.FileSystem
	envPrefix string
	environ   bool

	// configErrors stores errors encountered by the section accessors.
	configErrors map[string]error
}

// Option configures a Config instance.
type Option func(*Config)

// WithFile sets the configuration file. The format is chosen by extension.
func WithFile(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithFS sets the file system used to read the configuration file.
func WithFS(fsys loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fsys
	}
}

// WithEnvironment enables or disables reading environment variables.
func WithEnvironment(enable bool) Option {
	return func(c *Config) {
		c.environ = enable
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// New creates a Config holding only the defaults. Call Load to read the
// file and environment layers.
func New(opts ...Option) *Config {
	c := &Config{
		fs:        loader.DefaultFS(),
		envPrefix: EnvPrefix,
		environ:   true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.setLayer(LayerDefaults, defaultConfig())
	return c
}

// Load reads the configuration file and environment into their layers.
// A file named with WithFile must exist.
func (c *Config) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.path != "" {
		l, err := loader.ForPath(c.fs, c.path)
		if err != nil {
			return err
		}
		if _, err := c.fs.Stat(c.path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrFileNotFound, c.path)
			}
			return err
		}
		data, err := l.Load()
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.setLayer(LayerFile, data)
		c.mu.Unlock()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if c.environ {
		data, err := loader.NewEnvLoader(c.envPrefix).Load()
		if err != nil {
			return err
		}
		if len(data) > 0 {
			c.mu.Lock()
			c.setLayer(LayerEnvironment, data)
			c.mu.Unlock()
		}
	}

	return nil
}

// Set stores a value in the overrides layer, which wins over every other
// source. Command-line flags are applied this way.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	overrides := c.layerData(LayerOverrides)
	if overrides == nil {
		overrides = make(map[string]any)
	}
	if err := setPath(overrides, path, value); err != nil {
		return err
	}
	c.setLayer(LayerOverrides, overrides)
	return nil
}

// Sources returns the names of the loaded layers, lowest priority first.
func (c *Config) Sources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.layers))
	for i, l := range c.layers {
		names[i] = l.name
	}
	return names
}

// Get returns the value at the given path from the merged configuration.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getPath(c.merged, path)
}

// Merged returns a copy of the fully merged configuration.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.Clone(c.merged)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if val != float64(int(val)) {
			return 0, &TypeError{Path: path, Expected: "int", Actual: "float64"}
		}
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetDuration returns a duration at the given path. Strings are parsed
// with time.ParseDuration and integers are taken as seconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: fmt.Sprintf("string %q", val)}
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Second, nil
	case int64:
		return time.Duration(val) * time.Second, nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
}

// setLayer replaces or inserts a layer and refreshes the merged view.
// Must be called with the lock held (or before the Config is shared).
func (c *Config) setLayer(name string, data map[string]any) {
	replaced := false
	for i := range c.layers {
		if c.layers[i].name == name {
			c.layers[i].data = data
			replaced = true
			break
		}
	}
	if !replaced {
		c.layers = append(c.layers, layer{name: name, data: data})
		// keep priority order
		for i := len(c.layers) - 1; i > 0 && priority(c.layers[i].name) < priority(c.layers[i-1].name); i-- {
			c.layers[i], c.layers[i-1] = c.layers[i-1], c.layers[i]
		}
	}

	merged := make(map[string]any)
	for _, l := range c.layers {
		merged = loader.DeepMerge(merged, l.data)
	}
	c.merged = merged
}

func (c *Config) layerData(name string) map[string]any {
	for _, l := range c.layers {
		if l.name == name {
			return l.data
		}
	}
	return nil
}

func priority(name string) int {
	switch name {
	case LayerDefaults:
		return 0
	case LayerFile:
		return 1
	case LayerEnvironment:
		return 2
	default:
		return 3
	}
}

// defaultConfig returns the default configuration values.
func defaultConfig() map[string]any {
	d := rope.DefaultConfig()
	return map[string]any{
		"rope": map[string]any{
			"copyMax":        d.CopyMax,
			"lazyThreshold":  d.LazyThreshold,
			"rebalanceDepth": d.RebalanceDepth,
			"rebalanceSlack": d.RebalanceSlack,
			"maxDepth":       d.MaxDepth,
			"pathCacheLen":   d.PathCacheLen,
			"iteratorBufLen": d.IteratorBufLen,
			"scratchLen":     d.ScratchLen,
			"allocator":      "heap",
		},
		"logging": map[string]any{
			"level": "info",
		},
		"script": map[string]any{
			"timeout": "5s",
		},
	}
}

// getPath retrieves a value from a nested map using a dot-separated path.
func getPath(m map[string]any, path string) (any, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, false
	}

	current := any(m)
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = cm[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// setPath sets a value in a nested map using a dot-separated path.
func setPath(m map[string]any, path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ErrInvalidPath
	}

	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s is not a section", ErrInvalidPath, part)
		}
		current = nextMap
	}

	current[parts[len(parts)-1]] = value
	return nil
}

// splitPath splits a dot-separated path into parts, ignoring empty parts.
func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '.' })
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
