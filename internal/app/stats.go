package app

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rivo/uniseg"
	"github.com/tidwall/sjson"

	"github.com/dshills/strand/internal/engine/rope"
)

// FileStats describes the text and the tree of one loaded file.
type FileStats struct {
	Path      string
	Lines     int
	Runes     int
	Graphemes int
	Tree      rope.Stats
}

// Measure computes the statistics of a rope.
func Measure(path string, r rope.Rope) FileStats {
	fs := FileStats{
		Path: path,
		Tree: r.Stats(),
	}

	r.Runs(func(run []byte) bool {
		fs.Lines += bytes.Count(run, []byte{'\n'})
		return true
	})
	if n := r.Len(); n > 0 {
		if last, _ := r.ByteAt(n - 1); last != '\n' {
			fs.Lines++
		}
	}

	it := r.RuneIterator()
	for it.Next() {
		fs.Runes++
	}

	fs.Graphemes = countGraphemes(r)
	return fs
}

// countGraphemes counts user-perceived characters. A cluster that reaches
// the end of a run is held back until the next run shows where it ends.
func countGraphemes(r rope.Rope) int {
	var (
		pending []byte
		state   = -1
		n       int
	)
	r.Runs(func(run []byte) bool {
		pending = append(pending, run...)
		for len(pending) > 0 {
			_, rest, _, next := uniseg.FirstGraphemeCluster(pending, state)
			if len(rest) == 0 {
				break
			}
			n++
			state = next
			pending = rest
		}
		return true
	})
	for len(pending) > 0 {
		_, pending, _, state = uniseg.FirstGraphemeCluster(pending, state)
		n++
	}
	return n
}

// Stats prints the statistics of each file, as text or as one JSON document.
func (app *Application) Stats(ctx context.Context, paths []string, asJSON bool) error {
	all := make([]FileStats, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := app.LoadFile(path)
		if err != nil {
			return err
		}
		all = append(all, Measure(path, r))
		r.Release()
	}

	if asJSON {
		doc, err := app.statsJSON(all)
		if err != nil {
			return WrapError(err, "encoding stats")
		}
		_, err = fmt.Fprintln(app.stdout, doc)
		return err
	}

	for _, fs := range all {
		t := fs.Tree
		fmt.Fprintf(app.stdout, "%s\n", fs.Path)
		fmt.Fprintf(app.stdout, "  bytes %d, lines %d, runes %d, graphemes %d\n", t.Len, fs.Lines, fs.Runes, fs.Graphemes)
		fmt.Fprintf(app.stdout, "  depth %d, balanced %t\n", t.Depth, t.Balanced)
		fmt.Fprintf(app.stdout, "  nodes: %d leaf, %d concat, %d substring, %d function, %d shared\n",
			t.Leaves, t.Concats, t.Substrings, t.Functions, t.Shared)
		fmt.Fprintf(app.stdout, "  leaf bytes %d\n", t.LeafBytes)
	}
	st := app.AllocStats()
	_, err := fmt.Fprintf(app.stdout, "allocator %s: %d allocs, %d frees, %d bytes allocated\n",
		app.rope.Allocator, st.Allocs, st.Frees, st.BytesAlloc)
	return err
}

func (app *Application) statsJSON(all []FileStats) (string, error) {
	doc := `{"files":[]}`
	for _, fs := range all {
		t := fs.Tree
		fields := []struct {
			path  string
			value any
		}{
			{"path", fs.Path},
			{"bytes", t.Len},
			{"lines", fs.Lines},
			{"runes", fs.Runes},
			{"graphemes", fs.Graphemes},
			{"depth", t.Depth},
			{"balanced", t.Balanced},
			{"nodes.leaf", t.Leaves},
			{"nodes.concat", t.Concats},
			{"nodes.substring", t.Substrings},
			{"nodes.function", t.Functions},
			{"nodes.shared", t.Shared},
			{"leafBytes", t.LeafBytes},
		}
		obj := "{}"
		for _, f := range fields {
			var err error
			if obj, err = sjson.Set(obj, f.path, f.value); err != nil {
				return "", err
			}
		}
		var err error
		if doc, err = sjson.SetRaw(doc, "files.-1", obj); err != nil {
			return "", err
		}
	}

	st := app.AllocStats()
	alloc := []struct {
		path  string
		value any
	}{
		{"allocator.name", app.rope.Allocator},
		{"allocator.allocs", st.Allocs},
		{"allocator.frees", st.Frees},
		{"allocator.bytes", st.BytesAlloc},
		{"allocator.liveBlocks", st.LiveBlocks()},
	}
	for _, f := range alloc {
		var err error
		if doc, err = sjson.Set(doc, f.path, f.value); err != nil {
			return "", err
		}
	}
	return doc, nil
}
