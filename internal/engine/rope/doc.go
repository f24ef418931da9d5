// Package rope provides a persistent, immutable byte-sequence rope.
//
// A rope is a binary tree whose leaves hold fragments of the text. Interior
// Concat nodes join two subtrees; Substring nodes view part of another node
// without copying it; Function nodes produce their bytes on demand from a
// Generator. Nodes are reference counted through counted.Handle and never
// modified after construction, so subtrees are shared freely between ropes.
//
// Key features:
//   - Concatenation and slicing in time logarithmic in the rope length
//   - Small adjacent leaves are merged so byte-at-a-time growth stays shallow
//   - Long slices become lazy views instead of copies
//   - Trees are rebalanced with the Fibonacci rule once they grow too deep
//   - Cursors walk the text window by window with a cached ancestor path
//   - All node storage comes from a pluggable alloc.Allocator
//   - Safe for concurrent readers
//
// Each Rope owns one reference to its tree. Operations never consume their
// operands and return ropes that need their own Release:
//
//	a, _ := rope.FromString("hello")
//	defer a.Release()
//	b, _ := a.AppendString(" world")
//	defer b.Release()
//	s, _ := b.Substring(6, 5)     // "world"
//	defer s.Release()
//
// Ropes that are never released are still reclaimed by the garbage
// collector. Release matters for allocators that recycle storage and for
// leak accounting.
package rope
