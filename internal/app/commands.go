package app

import (
	"context"
	"fmt"
	"os"

	"github.com/dshills/strand/internal/engine/rope"
	"github.com/dshills/strand/internal/script"
)

// LoadFile reads a file into a rope built with the application's options.
// The path "-" reads standard input.
func (app *Application) LoadFile(path string) (rope.Rope, error) {
	f := os.Stdin
	if path != "-" {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return rope.Rope{}, NewOperationError("load", path, err)
		}
		defer f.Close()
	}

	r, err := rope.FromReader(f, app.ropeOpts...)
	if err != nil {
		return rope.Rope{}, NewOperationError("load", path, err)
	}
	app.logger.Debug("loaded %s: %d bytes, depth %d", path, r.Len(), r.Depth())
	return r, nil
}

// loadAll loads every path, releasing what was loaded if one fails.
func (app *Application) loadAll(ctx context.Context, paths []string) ([]rope.Rope, error) {
	ropes := make([]rope.Rope, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			releaseAll(ropes)
			return nil, err
		}
		r, err := app.LoadFile(path)
		if err != nil {
			releaseAll(ropes)
			return nil, err
		}
		ropes = append(ropes, r)
	}
	return ropes, nil
}

func releaseAll(ropes []rope.Rope) {
	for i := range ropes {
		ropes[i].Release()
	}
}

// Cat writes the concatenation of the files to stdout.
func (app *Application) Cat(ctx context.Context, paths []string) error {
	ropes, err := app.loadAll(ctx, paths)
	if err != nil {
		return err
	}
	defer releaseAll(ropes)

	all, err := rope.Join(ropes, "")
	if err != nil {
		return NewOperationError("cat", "", err)
	}
	defer all.Release()

	app.logger.Debug("cat: %d files, %d bytes, depth %d", len(paths), all.Len(), all.Depth())
	_, err = all.WriteTo(app.stdout)
	return err
}

// Slice writes n bytes of the file starting at pos.
func (app *Application) Slice(path string, pos, n int) error {
	r, err := app.LoadFile(path)
	if err != nil {
		return err
	}
	defer r.Release()

	sub, err := r.Substring(pos, n)
	if err != nil {
		return NewOperationError("slice", path, err)
	}
	defer sub.Release()

	_, err = sub.WriteTo(app.stdout)
	return err
}

// Repeat writes n copies of c.
func (app *Application) Repeat(c byte, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: count %d", ErrInvalidArgument, n)
	}
	r, err := rope.Repeat(c, n, app.ropeOpts...)
	if err != nil {
		return NewOperationError("repeat", "", err)
	}
	defer r.Release()

	app.logger.Debug("repeat: %d bytes, depth %d", r.Len(), r.Depth())
	_, err = r.WriteTo(app.stdout)
	return err
}

// Cmp compares two files byte-wise and prints -1, 0 or 1.
func (app *Application) Cmp(ctx context.Context, a, b string) (int, error) {
	ropes, err := app.loadAll(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	defer releaseAll(ropes)

	c := ropes[0].Compare(ropes[1])
	_, err = fmt.Fprintln(app.stdout, c)
	return c, err
}

// Gen writes n bytes produced by the generate function of a Lua script.
func (app *Application) Gen(path string, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: length %d", ErrInvalidArgument, n)
	}
	g, err := script.LoadFile(path, script.WithTimeout(app.config.Script().Timeout))
	if err != nil {
		return NewOperationError("gen", path, err)
	}
	defer g.Close()

	r, err := g.Rope(n, app.ropeOpts...)
	if err != nil {
		return NewOperationError("gen", path, err)
	}
	defer r.Release()

	if _, err := r.WriteTo(app.stdout); err != nil {
		return err
	}
	if err := g.Err(); err != nil {
		return NewOperationError("gen", path, err)
	}
	return nil
}
