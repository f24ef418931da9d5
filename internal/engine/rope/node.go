package rope

import (
	"github.com/dshills/strand/internal/engine/counted"
)

// kind tags the node variants.
type kind uint8

const (
	kindLeaf kind = iota
	kindConcat
	kindSubstring
	kindFunction
)

func (k kind) String() string {
	switch k {
	case kindLeaf:
		return "leaf"
	case kindConcat:
		return "concat"
	case kindSubstring:
		return "substring"
	case kindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Generator produces the bytes of a Function node.
// Generate fills buf with the bytes starting at pos. It must be pure: the
// same pos and length always yield the same bytes.
type Generator interface {
	Generate(pos int, buf []byte)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(pos int, buf []byte)

// Generate calls f(pos, buf).
func (f GeneratorFunc) Generate(pos int, buf []byte) {
	f(pos, buf)
}

// ref is an owning reference to a node.
type ref = counted.Handle[*node]

// node is one vertex of the rope tree. Nodes are immutable once a handle to
// them has been returned.
type node struct {
	kind     kind
	size     int
	depth    int
	balanced bool

	// leaf
	data []byte

	// concat
	left, right ref

	// substring
	base  ref
	start int

	// function
	gen Generator
}

// Destroy releases the children owned by n.
func (n *node) Destroy() {
	switch n.kind {
	case kindConcat:
		n.left.Release()
		n.right.Release()
	case kindSubstring:
		n.base.Release()
	}
}

// sizeOf returns the size of r's node, 0 for nil.
func sizeOf(r ref) int {
	if r.IsNil() {
		return 0
	}
	return r.Get().size
}

// depthOf returns the depth of r's node, 0 for nil.
func depthOf(r ref) int {
	if r.IsNil() {
		return 0
	}
	return r.Get().depth
}

// newLeaf copies data into a new leaf whose buffer is the node's extra
// storage.
func (s *settings) newLeaf(data []byte) (ref, error) {
	return s.newLeafFill(len(data), func(buf []byte) {
		copy(buf, data)
	})
}

// newLeafFill allocates an n-byte leaf and lets fill write its contents.
func (s *settings) newLeafFill(n int, fill func(buf []byte)) (ref, error) {
	if n == 0 {
		return ref{}, nil
	}
	return counted.Allocate(s.alloc, n, func(extra []byte) (*node, error) {
		fill(extra)
		return &node{
			kind:     kindLeaf,
			size:     n,
			data:     extra,
			balanced: true,
		}, nil
	})
}

// newConcat joins l and r under a new node. It takes ownership of both; on
// failure they are released. The node is marked balanced when forced or when
// it is at least as large as the smallest Fibonacci-balanced tree of its
// depth.
func (s *settings) newConcat(l, r ref, force bool) (ref, error) {
	ln, rn := l.Get(), r.Get()
	size := ln.size + rn.size
	depth := 1 + max(ln.depth, rn.depth)
	h, err := counted.Allocate(s.alloc, 0, func([]byte) (*node, error) {
		return &node{
			kind:     kindConcat,
			size:     size,
			depth:    depth,
			balanced: force || depth < len(minLen) && size >= minLen[depth],
			left:     l,
			right:    r,
		}, nil
	})
	if err != nil {
		l.Release()
		r.Release()
		return ref{}, err
	}
	return h, nil
}

// newSubstring makes a view of n bytes of base starting at start. base is
// borrowed. Views of views collapse onto the underlying base.
func (s *settings) newSubstring(base ref, start, n int) (ref, error) {
	if n == 0 {
		return ref{}, nil
	}
	if b := base.Get(); b.kind == kindSubstring {
		return s.newSubstring(b.base, b.start+start, n)
	}
	owned := base.Clone()
	h, err := counted.Allocate(s.alloc, 0, func([]byte) (*node, error) {
		return &node{
			kind:     kindSubstring,
			size:     n,
			base:     owned,
			start:    start,
			balanced: true,
		}, nil
	})
	if err != nil {
		owned.Release()
		return ref{}, err
	}
	return h, nil
}

// newFunction makes a node whose n bytes come from gen.
func (s *settings) newFunction(gen Generator, n int) (ref, error) {
	if n == 0 {
		return ref{}, nil
	}
	return counted.Allocate(s.alloc, 0, func([]byte) (*node, error) {
		return &node{
			kind:     kindFunction,
			size:     n,
			gen:      gen,
			balanced: true,
		}, nil
	})
}
