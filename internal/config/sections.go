package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/strand/internal/engine/rope"
)

// Section accessor methods return snapshot structs. Mutating the returned
// struct does not modify the underlying configuration.

// Allocator names accepted by rope.allocator.
const (
	AllocatorHeap = "heap"
	AllocatorPool = "pool"
)

// RopeSettings is the rope section: the algorithm tuning plus the name of
// the node allocator.
type RopeSettings struct {
	rope.Config

	// Allocator is "heap" or "pool".
	Allocator string
}

// LoggingConfig provides type-safe access to logging settings.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
}

// ScriptConfig provides type-safe access to Lua generator settings.
type ScriptConfig struct {
	// Timeout bounds the time spent in one generate call.
	Timeout time.Duration
}

// Rope returns the rope section. Unlike the other accessors it fails on
// malformed values, since a bad tuning value would silently change the
// shape of every tree.
func (c *Config) Rope() (RopeSettings, error) {
	s := RopeSettings{Config: rope.DefaultConfig(), Allocator: AllocatorHeap}

	ints := []struct {
		path string
		dst  *int
	}{
		{"rope.copyMax", &s.CopyMax},
		{"rope.lazyThreshold", &s.LazyThreshold},
		{"rope.rebalanceDepth", &s.RebalanceDepth},
		{"rope.rebalanceSlack", &s.RebalanceSlack},
		{"rope.maxDepth", &s.MaxDepth},
		{"rope.pathCacheLen", &s.PathCacheLen},
		{"rope.iteratorBufLen", &s.IteratorBufLen},
		{"rope.scratchLen", &s.ScratchLen},
	}
	for _, f := range ints {
		v, err := c.GetInt(f.path)
		switch {
		case errors.Is(err, ErrSettingNotFound):
		case err != nil:
			return RopeSettings{}, err
		default:
			*f.dst = v
		}
	}

	name, err := c.GetString("rope.allocator")
	switch {
	case errors.Is(err, ErrSettingNotFound):
	case err != nil:
		return RopeSettings{}, err
	default:
		s.Allocator = strings.ToLower(name)
	}
	if s.Allocator != AllocatorHeap && s.Allocator != AllocatorPool {
		return RopeSettings{}, fmt.Errorf("%w: rope.allocator %q", ErrInvalidValue, name)
	}

	if err := s.Config.Validate(); err != nil {
		return RopeSettings{}, err
	}
	return s, nil
}

// RopeConfig returns just the tuning values of the rope section.
func (c *Config) RopeConfig() (rope.Config, error) {
	s, err := c.Rope()
	if err != nil {
		return rope.Config{}, err
	}
	return s.Config, nil
}

// Logging returns type-safe access to logging settings.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level: c.getStringOr("logging.level", "info"),
	}
}

// Script returns type-safe access to Lua generator settings.
func (c *Config) Script() ScriptConfig {
	return ScriptConfig{
		Timeout: c.getDurationOr("script.timeout", 5*time.Second),
	}
}

// These methods only return the default for ErrSettingNotFound.
// Type errors are recorded and return the default to avoid breaking callers.

func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getDurationOr(path string, defaultValue time.Duration) time.Duration {
	v, err := c.GetDuration(path)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

// recordConfigError stores configuration errors for later retrieval.
// Only the first error for each path is recorded.
func (c *Config) recordConfigError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configErrors == nil {
		c.configErrors = make(map[string]error)
	}
	if _, exists := c.configErrors[path]; !exists {
		c.configErrors[path] = err
	}
}

// ConfigErrors returns any configuration errors encountered during access.
func (c *Config) ConfigErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.configErrors == nil {
		return nil
	}
	result := make(map[string]error, len(c.configErrors))
	for k, v := range c.configErrors {
		result[k] = v
	}
	return result
}
