package rope

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/strand/internal/engine/alloc"
)

// Rope is an immutable byte sequence stored as a tree of shared fragments.
// Operations return new Rope values; the receiver is never modified.
//
// A Rope owns one reference to its root. Copying the struct does not add a
// reference: use Clone for a second owner and Release when done. The zero
// value is an empty rope built with the default settings.
type Rope struct {
	root ref
	s    *settings
}

// New creates an empty rope that builds with the given options.
func New(opts ...Option) (Rope, error) {
	s, err := newSettings(opts)
	if err != nil {
		return Rope{}, err
	}
	return Rope{s: s}, nil
}

// FromString creates a rope holding a copy of str.
func FromString(str string, opts ...Option) (Rope, error) {
	s, err := newSettings(opts)
	if err != nil {
		return Rope{}, err
	}
	root, err := s.newLeafFill(len(str), func(buf []byte) {
		copy(buf, str)
	})
	if err != nil {
		return Rope{}, err
	}
	return Rope{root: root, s: s}, nil
}

// FromBytes creates a rope holding a copy of b.
func FromBytes(b []byte, opts ...Option) (Rope, error) {
	s, err := newSettings(opts)
	if err != nil {
		return Rope{}, err
	}
	root, err := s.newLeaf(b)
	if err != nil {
		return Rope{}, err
	}
	return Rope{root: root, s: s}, nil
}

// FromFunc creates a rope of n bytes produced on demand by gen.
func FromFunc(gen Generator, n int, opts ...Option) (Rope, error) {
	if n < 0 {
		return Rope{}, fmt.Errorf("%w: negative length %d", ErrOutOfRange, n)
	}
	s, err := newSettings(opts)
	if err != nil {
		return Rope{}, err
	}
	root, err := s.newFunction(gen, n)
	if err != nil {
		return Rope{}, err
	}
	return Rope{root: root, s: s}, nil
}

func (r Rope) settings() *settings {
	if r.s == nil {
		return defaultSettings
	}
	return r.s
}

func (r Rope) with(root ref) Rope {
	return Rope{root: root, s: r.s}
}

// Clone returns a second owner of the same tree.
func (r Rope) Clone() Rope {
	return r.with(r.root.Clone())
}

// Release drops the reference r holds. The rope must not be used afterwards.
func (r *Rope) Release() {
	r.root.Release()
}

// Allocator returns the allocator used for new nodes.
func (r Rope) Allocator() alloc.Allocator {
	return r.settings().alloc
}

// Config returns the tuning values in effect.
func (r Rope) Config() Config {
	return r.settings().cfg
}

// Len returns the length in bytes.
func (r Rope) Len() int {
	return sizeOf(r.root)
}

// IsEmpty reports whether the rope has no bytes.
func (r Rope) IsEmpty() bool {
	return r.root.IsNil()
}

// Depth returns the depth of the tree; 0 for empty ropes and single
// fragments.
func (r Rope) Depth() int {
	return depthOf(r.root)
}

// IsBalanced reports whether the tree is at least as large as the smallest
// balanced tree of its depth.
func (r Rope) IsBalanced() bool {
	if r.root.IsNil() {
		return true
	}
	n := r.root.Get()
	return n.depth < len(minLen) && n.size >= minLen[n.depth]
}

// Concat returns r followed by other. Neither operand is consumed.
func (r Rope) Concat(other Rope) (Rope, error) {
	root, err := r.settings().concat(r.root, other.root, concatEager)
	if err != nil {
		return Rope{}, err
	}
	return r.with(root), nil
}

// Append returns r followed by a copy of b.
func (r Rope) Append(b []byte) (Rope, error) {
	if len(b) == 0 {
		return r.Clone(), nil
	}
	s := r.settings()
	leaf, err := s.newLeaf(b)
	if err != nil {
		return Rope{}, err
	}
	defer leaf.Release()
	root, err := s.concat(r.root, leaf, concatEager)
	if err != nil {
		return Rope{}, err
	}
	return r.with(root), nil
}

// AppendString returns r followed by a copy of str.
func (r Rope) AppendString(str string) (Rope, error) {
	if len(str) == 0 {
		return r.Clone(), nil
	}
	s := r.settings()
	leaf, err := s.newLeafFill(len(str), func(buf []byte) {
		copy(buf, str)
	})
	if err != nil {
		return Rope{}, err
	}
	defer leaf.Release()
	root, err := s.concat(r.root, leaf, concatEager)
	if err != nil {
		return Rope{}, err
	}
	return r.with(root), nil
}

func (r Rope) checkRange(start, end int) error {
	if start < 0 || end < start || end > r.Len() {
		return fmt.Errorf("%w: [%d, %d) of rope of length %d", ErrOutOfRange, start, end, r.Len())
	}
	return nil
}

// Substring returns the n bytes starting at pos.
func (r Rope) Substring(pos, n int) (Rope, error) {
	if n < 0 {
		return Rope{}, fmt.Errorf("%w: negative length %d", ErrOutOfRange, n)
	}
	if err := r.checkRange(pos, pos+n); err != nil {
		return Rope{}, err
	}
	root, err := r.settings().substring(r.root, pos, pos+n)
	if err != nil {
		return Rope{}, err
	}
	return r.with(root), nil
}

// Slice returns the bytes in [start, end) as a string.
func (r Rope) Slice(start, end int) (string, error) {
	if err := r.checkRange(start, end); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.Grow(end - start)
	r.settings().apply(r.node(), start, end, func(run []byte) bool {
		sb.Write(run)
		return true
	})
	return sb.String(), nil
}

// ByteAt returns the byte at pos.
func (r Rope) ByteAt(pos int) (byte, error) {
	if pos < 0 || pos >= r.Len() {
		return 0, fmt.Errorf("%w: index %d of rope of length %d", ErrOutOfRange, pos, r.Len())
	}
	return r.settings().fetch(r.root.Get(), pos), nil
}

// Insert returns r with a copy of text inserted at pos.
func (r Rope) Insert(pos int, text string) (Rope, error) {
	if err := r.checkRange(pos, pos); err != nil {
		return Rope{}, err
	}
	leaf, err := r.settings().newLeafFill(len(text), func(buf []byte) {
		copy(buf, text)
	})
	if err != nil {
		return Rope{}, err
	}
	ins := r.with(leaf)
	defer ins.Release()
	return r.InsertRope(pos, ins)
}

// InsertRope returns r with other inserted at pos.
func (r Rope) InsertRope(pos int, other Rope) (Rope, error) {
	if err := r.checkRange(pos, pos); err != nil {
		return Rope{}, err
	}
	if other.IsEmpty() {
		return r.Clone(), nil
	}
	left, right, err := r.Split(pos)
	if err != nil {
		return Rope{}, err
	}
	defer left.Release()
	defer right.Release()

	mid, err := left.Concat(other)
	if err != nil {
		return Rope{}, err
	}
	defer mid.Release()
	return mid.Concat(right)
}

// Delete returns r without the bytes in [start, end).
func (r Rope) Delete(start, end int) (Rope, error) {
	if err := r.checkRange(start, end); err != nil {
		return Rope{}, err
	}
	if start == end {
		return r.Clone(), nil
	}
	s := r.settings()
	left, err := s.substring(r.root, 0, start)
	if err != nil {
		return Rope{}, err
	}
	defer left.Release()
	right, err := s.substring(r.root, end, r.Len())
	if err != nil {
		return Rope{}, err
	}
	defer right.Release()
	root, err := s.concat(left, right, concatEager)
	if err != nil {
		return Rope{}, err
	}
	return r.with(root), nil
}

// Replace returns r with the bytes in [start, end) replaced by text.
func (r Rope) Replace(start, end int, text string) (Rope, error) {
	cut, err := r.Delete(start, end)
	if err != nil {
		return Rope{}, err
	}
	defer cut.Release()
	return cut.Insert(start, text)
}

// Split returns the bytes before pos and the bytes from pos on.
func (r Rope) Split(pos int) (Rope, Rope, error) {
	if err := r.checkRange(pos, pos); err != nil {
		return Rope{}, Rope{}, err
	}
	s := r.settings()
	left, err := s.substring(r.root, 0, pos)
	if err != nil {
		return Rope{}, Rope{}, err
	}
	right, err := s.substring(r.root, pos, r.Len())
	if err != nil {
		left.Release()
		return Rope{}, Rope{}, err
	}
	return r.with(left), r.with(right), nil
}

// Rebalance returns a rope with the same bytes and a tree of near-minimal
// depth.
func (r Rope) Rebalance() (Rope, error) {
	root, err := r.settings().balance(r.root)
	if err != nil {
		return Rope{}, err
	}
	return r.with(root), nil
}

// Compare returns -1, 0 or +1 as r sorts before, equal to or after other,
// comparing bytes lexicographically.
func (r Rope) Compare(other Rope) int {
	switch {
	case r.IsEmpty() && other.IsEmpty():
		return 0
	case r.IsEmpty():
		return -1
	case other.IsEmpty():
		return 1
	}
	a, b := r.root.Get(), other.root.Get()
	if a == b {
		return 0
	}
	if da, ok := contiguous(a); ok {
		if db, ok := contiguous(b); ok {
			return bytes.Compare(da, db)
		}
	}

	ca := newCursor(r.settings(), a, 0)
	cb := newCursor(other.settings(), b, 0)
	for {
		wa, wb := ca.Window(), cb.Window()
		if len(wa) == 0 || len(wb) == 0 {
			break
		}
		k := min(len(wa), len(wb))
		if c := bytes.Compare(wa[:k], wb[:k]); c != 0 {
			return c
		}
		ca.advance(k)
		cb.advance(k)
	}
	return cmp.Compare(a.size, b.size)
}

// contiguous returns n's bytes when they are one run of a leaf.
func contiguous(n *node) ([]byte, bool) {
	switch n.kind {
	case kindLeaf:
		return n.data, true
	case kindSubstring:
		if b := n.base.Get(); b.kind == kindLeaf {
			return b.data[n.start : n.start+n.size], true
		}
	}
	return nil, false
}

// Equals reports whether both ropes hold the same bytes.
func (r Rope) Equals(other Rope) bool {
	return r.Len() == other.Len() && r.Compare(other) == 0
}

// IndexByte returns the position of the first c in r, or -1.
func (r Rope) IndexByte(c byte) int {
	idx, pos := -1, 0
	r.Runs(func(run []byte) bool {
		if i := bytes.IndexByte(run, c); i >= 0 {
			idx = pos + i
			return false
		}
		pos += len(run)
		return true
	})
	return idx
}

// Runs calls fn on each contiguous run of bytes in order and reports whether
// it ran to completion. fn must not modify or retain run.
func (r Rope) Runs(fn func(run []byte) bool) bool {
	return r.settings().apply(r.node(), 0, r.Len(), fn)
}

// RangeRuns is Runs restricted to [start, end).
func (r Rope) RangeRuns(start, end int, fn func(run []byte) bool) error {
	if err := r.checkRange(start, end); err != nil {
		return err
	}
	r.settings().apply(r.node(), start, end, fn)
	return nil
}

// String returns the full contents. Use sparingly for large ropes.
func (r Rope) String() string {
	var sb strings.Builder
	sb.Grow(r.Len())
	r.Runs(func(run []byte) bool {
		sb.Write(run)
		return true
	})
	return sb.String()
}

// Bytes returns a copy of the full contents.
func (r Rope) Bytes() []byte {
	b := make([]byte, r.Len())
	r.settings().flattenInto(r.node(), 0, len(b), b)
	return b
}

// WriteTo streams the contents to w. It implements io.WriterTo.
func (r Rope) WriteTo(w io.Writer) (int64, error) {
	var total int64
	var err error
	r.Runs(func(run []byte) bool {
		var n int
		n, err = w.Write(run)
		total += int64(n)
		if err == nil && n < len(run) {
			err = io.ErrShortWrite
		}
		return err == nil
	})
	return total, err
}

// Cursor returns a cursor positioned at pos.
func (r Rope) Cursor(pos int) (*Cursor, error) {
	if err := r.checkRange(pos, pos); err != nil {
		return nil, err
	}
	return newCursor(r.settings(), r.node(), pos), nil
}

func (r Rope) node() *node {
	if r.root.IsNil() {
		return nil
	}
	return r.root.Get()
}
