// Package app wires strand's configuration, logging and node allocator
// together and implements the commands of the strand CLI on top of them.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dshills/strand/internal/config"
	"github.com/dshills/strand/internal/engine/alloc"
	"github.com/dshills/strand/internal/engine/rope"
)

// Application holds the components shared by every command.
type Application struct {
	config *config.Config
	logger *Logger

	// alloc counts every node block so Close can report leaks.
	alloc    *alloc.Counting
	ropeOpts []rope.Option
	rope     config.RopeSettings

	stdout io.Writer
	opts   Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to a TOML or YAML configuration file.
	ConfigPath string

	// LogLevel overrides logging.level when set.
	LogLevel string

	// Allocator overrides rope.allocator when set.
	Allocator string

	// IgnoreEnv skips STRAND_* environment variables.
	IgnoreEnv bool

	// Stdout receives command output. Defaults to os.Stdout.
	Stdout io.Writer

	// Stderr receives log output. Defaults to os.Stderr.
	Stderr io.Writer
}

// New creates an Application, loading configuration and building the
// allocator and rope options.
func New(ctx context.Context, opts Options) (*Application, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	app := &Application{
		stdout: opts.Stdout,
		opts:   opts,
	}
	if err := app.bootstrap(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes the components in dependency order.
func (app *Application) bootstrap(ctx context.Context) error {
	// 1. Config
	var cfgOpts []config.Option
	if app.opts.ConfigPath != "" {
		cfgOpts = append(cfgOpts, config.WithFile(app.opts.ConfigPath))
	}
	if app.opts.IgnoreEnv {
		cfgOpts = append(cfgOpts, config.WithEnvironment(false))
	}
	app.config = config.New(cfgOpts...)
	if err := app.config.Load(ctx); err != nil {
		return &ComponentError{Component: "config", Err: err}
	}
	if app.opts.LogLevel != "" {
		if !ValidLogLevel(app.opts.LogLevel) {
			return &ComponentError{Component: "logger", Err: fmt.Errorf("%w: log level %q", ErrInvalidArgument, app.opts.LogLevel)}
		}
		if err := app.config.Set("logging.level", app.opts.LogLevel); err != nil {
			return &ComponentError{Component: "config", Err: err}
		}
	}
	if app.opts.Allocator != "" {
		if err := app.config.Set("rope.allocator", app.opts.Allocator); err != nil {
			return &ComponentError{Component: "config", Err: err}
		}
	}

	// 2. Logger
	level := app.config.Logging().Level
	app.logger = NewLogger(LoggerConfig{
		Level:  ParseLogLevel(level),
		Output: app.opts.Stderr,
		Prefix: "strand",
	})
	if !ValidLogLevel(level) {
		app.logger.Warn("unknown log level %q, using info", level)
	}
	for path, err := range app.config.ConfigErrors() {
		app.logger.WithField("setting", path).Warn("ignored: %v", err)
	}

	// 3. Allocator
	settings, err := app.config.Rope()
	if err != nil {
		return &ComponentError{Component: "rope", Err: err}
	}
	app.rope = settings

	var base alloc.Allocator = alloc.Heap{}
	if settings.Allocator == config.AllocatorPool {
		base = alloc.NewPool()
	}
	app.alloc = alloc.NewCounting(base)

	// 4. Rope options
	app.ropeOpts = []rope.Option{
		rope.WithConfig(settings.Config),
		rope.WithAllocator(app.alloc),
		rope.WithLogger(app.logger.WithComponent("rope")),
	}

	app.logger.Debug("ready: allocator=%s sources=%v", settings.Allocator, app.config.Sources())
	return nil
}

// Config returns the loaded configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// RopeOptions returns the options every command builds ropes with.
func (app *Application) RopeOptions() []rope.Option {
	out := make([]rope.Option, len(app.ropeOpts))
	copy(out, app.ropeOpts)
	return out
}

// AllocStats returns the node allocator counters.
func (app *Application) AllocStats() alloc.Stats {
	return app.alloc.Stats()
}

// Close checks that every rope built by the application was released.
func (app *Application) Close() error {
	st := app.alloc.Stats()
	app.logger.Debug("allocator: %d allocs, %d frees, %d bytes", st.Allocs, st.Frees, st.BytesAlloc)
	if live := st.LiveBlocks(); live != 0 {
		return fmt.Errorf("%w: %d blocks, %d bytes", ErrLeak, live, st.LiveBytes())
	}
	return nil
}
