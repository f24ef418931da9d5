package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/strand/internal/engine/rope"
)

// Defaults for NewGenerator.
const (
	DefaultTimeout  = 5 * time.Second
	DefaultFunction = "generate"
)

// Generator calls a Lua function to produce the bytes of a Function node.
//
// gopher-lua's LState is not goroutine-safe, so every call holds mu. Ropes
// may be read from many goroutines at once; they simply take turns here.
type Generator struct {
	mu sync.Mutex

	L       *lua.LState
	fn      *lua.LFunction
	name    string
	timeout time.Duration
	closed  bool

	// err is the first failure seen by Generate.
	err error
}

// Option configures a Generator.
type Option func(*Generator)

// WithTimeout bounds each generate call. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.timeout = d
	}
}

// WithFunction sets the name of the global Lua function to call.
func WithFunction(name string) Option {
	return func(g *Generator) {
		g.name = name
	}
}

var _ rope.Generator = (*Generator)(nil)

// NewGenerator runs a Lua chunk and looks up its generate function.
func NewGenerator(source string, opts ...Option) (*Generator, error) {
	return newGenerator("<string>", source, opts)
}

// LoadFile reads and runs a Lua file.
func LoadFile(path string, opts ...Option) (*Generator, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	return newGenerator(path, string(src), opts)
}

func newGenerator(chunk, source string, opts []Option) (*Generator, error) {
	g := &Generator{
		name:    DefaultFunction,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	g.L = L

	fn, err := L.Load(strings.NewReader(source), chunk)
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("compiling %s: %w", chunk, err)
	}
	if err := g.call(func() error {
		L.Push(fn)
		return L.PCall(0, 0, nil)
	}); err != nil {
		L.Close()
		return nil, fmt.Errorf("running %s: %w", chunk, err)
	}

	gen, ok := L.GetGlobal(g.name).(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("%w: %s in %s", ErrNoFunction, g.name, chunk)
	}
	g.fn = gen
	return g, nil
}

// openSafeLibraries opens only the libraries that can't reach outside the
// interpreter.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Generate fills buf with the bytes starting at pos. A failed call leaves
// buf zeroed and is reported by Err.
func (g *Generator) Generate(pos int, buf []byte) {
	if err := g.generate(pos, buf); err != nil {
		clear(buf)
		g.mu.Lock()
		if g.err == nil {
			g.err = err
		}
		g.mu.Unlock()
	}
}

func (g *Generator) generate(pos int, buf []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrClosed
	}

	var out lua.LValue
	err := g.call(func() error {
		g.L.Push(g.fn)
		g.L.Push(lua.LNumber(pos))
		g.L.Push(lua.LNumber(len(buf)))
		if err := g.L.PCall(2, 1, nil); err != nil {
			return err
		}
		out = g.L.Get(-1)
		g.L.Pop(1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s(%d, %d): %w", g.name, pos, len(buf), err)
	}

	s, ok := out.(lua.LString)
	if !ok {
		return fmt.Errorf("%w: %s(%d, %d) returned %s", ErrBadResult, g.name, pos, len(buf), out.Type())
	}
	if len(s) != len(buf) {
		return fmt.Errorf("%w: %s(%d, %d) returned %d bytes", ErrBadResult, g.name, pos, len(buf), len(s))
	}
	copy(buf, s)
	return nil
}

// call runs fn under the timeout, converting a cancelled context and any
// panic into errors. Must be called with mu held or before g is shared.
func (g *Generator) call(fn func() error) (err error) {
	if g.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()
		g.L.SetContext(ctx)
		defer g.L.RemoveContext()
		defer func() {
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				err = ErrTimeout
			}
		}()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Rope returns a rope of n bytes backed by this generator.
func (g *Generator) Rope(n int, opts ...rope.Option) (rope.Rope, error) {
	return rope.FromFunc(g, n, opts...)
}

// Err returns the first error seen by Generate, if any.
func (g *Generator) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Close releases the interpreter. Ropes still referring to the generator
// read zeros afterwards and Err reports ErrClosed.
func (g *Generator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.L.Close()
	g.closed = true
	return nil
}
