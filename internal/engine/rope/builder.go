package rope

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// builderChunkSize is the leaf size a Builder flushes at.
const builderChunkSize = 4096

// exponentiateThreshold is the leaf size Repeat shares across the tree.
const exponentiateThreshold = 32

// Builder provides efficient incremental construction of a rope.
// It buffers writes and appends them to the rope in leaf-sized pieces.
// The first error from the allocator sticks: later writes fail with it.
type Builder struct {
	s        *settings
	root     ref
	buffer   []byte
	totalLen int
	err      error
}

// NewBuilder creates a new rope builder.
func NewBuilder(opts ...Option) (*Builder, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	return &Builder{s: s, buffer: make([]byte, 0, builderChunkSize)}, nil
}

// WriteString appends a string to the builder.
func (b *Builder) WriteString(str string) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	b.grow()
	written := 0
	for len(str) > 0 {
		n := copy(b.buffer[len(b.buffer):cap(b.buffer)], str)
		b.buffer = b.buffer[:len(b.buffer)+n]
		str = str[n:]
		written += n
		b.totalLen += n
		if len(b.buffer) == cap(b.buffer) {
			if err := b.flush(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// Write implements io.Writer.
func (b *Builder) Write(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	b.grow()
	written := 0
	for len(p) > 0 {
		n := copy(b.buffer[len(b.buffer):cap(b.buffer)], p)
		b.buffer = b.buffer[:len(b.buffer)+n]
		p = p[n:]
		written += n
		b.totalLen += n
		if len(b.buffer) == cap(b.buffer) {
			if err := b.flush(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// WriteByte appends a single byte.
func (b *Builder) WriteByte(c byte) error {
	_, err := b.Write([]byte{c})
	return err
}

// WriteRune appends a single rune.
func (b *Builder) WriteRune(r rune) (int, error) {
	var tmp [utf8.UTFMax]byte
	return b.Write(utf8.AppendRune(tmp[:0], r))
}

// flush appends the buffer contents as one leaf.
func (b *Builder) flush() error {
	if b.err != nil || len(b.buffer) == 0 {
		return b.err
	}
	leaf, err := b.settings().newLeaf(b.buffer)
	b.buffer = b.buffer[:0]
	if err != nil {
		b.err = err
		return err
	}
	defer leaf.Release()
	root, err := b.settings().concat(b.root, leaf, concatEager)
	if err != nil {
		b.err = err
		return err
	}
	b.root.Release()
	b.root = root
	return nil
}

func (b *Builder) grow() {
	if cap(b.buffer) == 0 {
		b.buffer = make([]byte, 0, builderChunkSize)
	}
}

func (b *Builder) settings() *settings {
	if b.s == nil {
		b.s = defaultSettings
	}
	return b.s
}

// Len returns the total number of bytes written.
func (b *Builder) Len() int {
	return b.totalLen
}

// Reset clears the builder for reuse.
func (b *Builder) Reset() {
	b.root.Release()
	b.buffer = b.buffer[:0]
	b.totalLen = 0
	b.err = nil
}

// Build returns the rope of everything written so far.
// After calling Build, the builder is reset.
func (b *Builder) Build() (Rope, error) {
	if err := b.flush(); err != nil {
		b.Reset()
		return Rope{}, err
	}
	r := Rope{root: b.root.Move(), s: b.s}
	b.Reset()
	return r, nil
}

// String returns the accumulated text as a string.
// This is primarily for debugging; prefer Build() for creating ropes.
func (b *Builder) String() string {
	r := Rope{root: b.root, s: b.s}
	return r.String() + string(b.buffer)
}

// ReadFrom implements io.ReaderFrom for efficient reading.
func (b *Builder) ReadFrom(r io.Reader) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	b.grow()
	var total int64
	for {
		n, err := r.Read(b.buffer[len(b.buffer):cap(b.buffer)])
		if n > 0 {
			b.buffer = b.buffer[:len(b.buffer)+n]
			b.totalLen += n
			total += int64(n)
			if len(b.buffer) == cap(b.buffer) {
				if ferr := b.flush(); ferr != nil {
					return total, ferr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// FromReader creates a rope from an io.Reader.
func FromReader(rd io.Reader, opts ...Option) (Rope, error) {
	b, err := NewBuilder(opts...)
	if err != nil {
		return Rope{}, err
	}
	if _, err := b.ReadFrom(rd); err != nil {
		b.Reset()
		return Rope{}, err
	}
	return b.Build()
}

// FromLines creates a rope from a slice of lines.
// Each line will have a newline appended except the last.
func FromLines(lines []string, opts ...Option) (Rope, error) {
	b, err := NewBuilder(opts...)
	if err != nil {
		return Rope{}, err
	}
	for i, line := range lines {
		if _, err := b.WriteString(line); err != nil {
			b.Reset()
			return Rope{}, err
		}
		if i < len(lines)-1 {
			if err := b.WriteByte('\n'); err != nil {
				b.Reset()
				return Rope{}, err
			}
		}
	}
	return b.Build()
}

// Join concatenates ropes with a separator. The result uses the settings of
// the first rope.
func Join(ropes []Rope, sep string) (Rope, error) {
	if len(ropes) == 0 {
		return Rope{}, nil
	}
	result := ropes[0].Clone()
	if len(ropes) == 1 {
		return result, nil
	}

	sepRope := result.with(ref{})
	if sep != "" {
		leaf, err := result.settings().newLeafFill(len(sep), func(buf []byte) {
			copy(buf, sep)
		})
		if err != nil {
			result.Release()
			return Rope{}, err
		}
		sepRope = result.with(leaf)
	}
	defer sepRope.Release()

	for _, next := range ropes[1:] {
		withSep, err := result.Concat(sepRope)
		result.Release()
		if err != nil {
			return Rope{}, err
		}
		result, err = withSep.Concat(next)
		withSep.Release()
		if err != nil {
			return Rope{}, err
		}
	}
	return result, nil
}

// Repeat creates a rope of n copies of c. Long runs share one small leaf
// across a tree built by repeated doubling, so memory grows with log n.
func Repeat(c byte, n int, opts ...Option) (Rope, error) {
	if n < 0 {
		return Rope{}, fmt.Errorf("%w: negative count %d", ErrOutOfRange, n)
	}
	s, err := newSettings(opts)
	if err != nil {
		return Rope{}, err
	}
	fill := func(buf []byte) {
		for i := range buf {
			buf[i] = c
		}
	}

	exponent, rest := n/exponentiateThreshold, n%exponentiateThreshold
	remainder, err := s.newLeafFill(rest, fill)
	if err != nil {
		return Rope{}, err
	}
	defer remainder.Release()
	if exponent == 0 {
		return Rope{root: remainder.Move(), s: s}, nil
	}

	base, err := s.newLeafFill(exponentiateThreshold, fill)
	if err != nil {
		return Rope{}, err
	}
	defer base.Release()

	root, err := s.power(base, exponent)
	if err != nil {
		return Rope{}, err
	}
	if rest > 0 {
		full, err := s.concat(root, remainder, concatEager)
		root.Release()
		if err != nil {
			return Rope{}, err
		}
		root = full
	}
	return Rope{root: root, s: s}, nil
}

// power returns x (borrowed) concatenated with itself n times, n >= 1, using
// O(log n) concatenations.
func (s *settings) power(x ref, n int) (ref, error) {
	x = x.Clone()
	defer func() { x.Release() }()

	for n&1 == 0 {
		sq, err := s.concat(x, x, concatEager)
		x.Release()
		if err != nil {
			return ref{}, err
		}
		x = sq
		n >>= 1
	}

	result := x.Clone()
	for n >>= 1; n != 0; n >>= 1 {
		sq, err := s.concat(x, x, concatEager)
		x.Release()
		if err != nil {
			result.Release()
			return ref{}, err
		}
		x = sq
		if n&1 != 0 {
			next, err := s.concat(result, x, concatEager)
			result.Release()
			if err != nil {
				return ref{}, err
			}
			result = next
		}
	}
	return result, nil
}
