// Package script produces rope text from Lua.
//
// A Generator loads a Lua chunk that defines
//
//	function generate(pos, n)
//	    return <string of exactly n bytes starting at offset pos>
//	end
//
// and satisfies rope.Generator, so it can back a Function node:
//
//	g, err := script.LoadFile("digits.lua", script.WithTimeout(time.Second))
//	if err != nil {
//	    return err
//	}
//	defer g.Close()
//
//	r, err := g.Rope(1 << 20)
//	...
//	if err := g.Err(); err != nil {
//	    // a call failed; the bytes it should have produced are zero
//	}
//
// The chunk runs with only the base, table, string and math libraries and
// without the functions that load other chunks (dofile, loadfile, load,
// loadstring, require and module). generate must be pure: the
// rope may ask for any range any number of times.
package script
