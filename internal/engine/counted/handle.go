package counted

import (
	"fmt"
	"sync/atomic"

	"github.com/dshills/strand/internal/engine/alloc"
)

// Destroyer is implemented by values that own further resources, such as
// other handles. Destroy is called exactly once, when the last handle to the
// value is released and before its block goes back to the allocator.
type Destroyer interface {
	Destroy()
}

// block is the shared control block behind every handle to one object.
type block struct {
	refs  atomic.Int64
	obj   any
	raw   []byte
	extra []byte
	alloc alloc.Allocator
}

func (b *block) retain() {
	if b.refs.Add(1) <= 1 {
		panic("counted: retain of a destroyed object")
	}
}

func (b *block) release() {
	switch n := b.refs.Add(-1); {
	case n > 0:
		return
	case n < 0:
		panic("counted: object released more times than it was retained")
	}

	if d, ok := b.obj.(Destroyer); ok {
		d.Destroy()
	}
	if b.alloc != nil {
		b.alloc.Deallocate(b.raw)
	}
	b.obj, b.raw, b.extra = nil, nil, nil
}

// Handle shares ownership of one object of type T.
// The zero Handle is nil and owns nothing.
type Handle[T any] struct {
	b *block
	v T
}

// New wraps v in a heap-backed handle with use count 1.
func New[T any](v T) Handle[T] {
	b := &block{obj: v}
	b.refs.Store(1)
	return Handle[T]{b: b, v: v}
}

// NewWithExtra builds a heap-backed handle with size bytes of extra storage.
// build receives the extra storage and returns the value to own.
func NewWithExtra[T any](size int, build func(extra []byte) T) Handle[T] {
	var extra []byte
	if size > 0 {
		extra = make([]byte, size)
	}
	v := build(extra)
	b := &block{obj: v, extra: extra}
	b.refs.Store(1)
	return Handle[T]{b: b, v: v}
}

// Allocate obtains one block of size extra bytes from a, lets build construct
// the value over it, and returns a handle with use count 1. The block is
// returned to a when the object is destroyed.
//
// If the allocation fails the error wraps alloc.ErrOutOfMemory. If build
// fails or panics, the block is deallocated before the error or panic
// propagates.
func Allocate[T any](a alloc.Allocator, size int, build func(extra []byte) (T, error)) (Handle[T], error) {
	if a == nil {
		a = alloc.Default
	}
	raw, err := a.Allocate(size)
	if err != nil {
		return Handle[T]{}, fmt.Errorf("allocating %d-byte block: %w", size, err)
	}

	built := false
	defer func() {
		if !built {
			a.Deallocate(raw)
		}
	}()

	v, err := build(raw)
	if err != nil {
		return Handle[T]{}, err
	}
	built = true

	b := &block{obj: v, raw: raw, alloc: a}
	if size > 0 {
		b.extra = raw
	}
	b.refs.Store(1)
	return Handle[T]{b: b, v: v}, nil
}

// IsNil reports whether h owns nothing.
func (h Handle[T]) IsNil() bool {
	return h.b == nil
}

// Get returns the owned value, or the zero T for a nil handle.
func (h Handle[T]) Get() T {
	return h.v
}

// UseCount returns the number of handles sharing the object, 0 for nil.
func (h Handle[T]) UseCount() int64 {
	if h.b == nil {
		return 0
	}
	return h.b.refs.Load()
}

// Unique reports whether h is the only handle to its object.
func (h Handle[T]) Unique() bool {
	return h.UseCount() == 1
}

// Extra returns the extra storage allocated with the object, or nil.
func (h Handle[T]) Extra() []byte {
	if h.b == nil {
		return nil
	}
	return h.b.extra
}

// Same reports whether h and o share the same object.
func (h Handle[T]) Same(o Handle[T]) bool {
	return h.b == o.b
}

// Clone returns a new owner of h's object.
func (h Handle[T]) Clone() Handle[T] {
	if h.b != nil {
		h.b.retain()
	}
	return h
}

// Move transfers ownership out of h, leaving h nil.
func (h *Handle[T]) Move() Handle[T] {
	m := *h
	*h = Handle[T]{}
	return m
}

// Assign makes h share o's object, releasing whatever h owned before.
func (h *Handle[T]) Assign(o Handle[T]) {
	if h.b == o.b {
		return
	}
	if o.b != nil {
		o.b.retain()
	}
	old := h.b
	*h = o
	if old != nil {
		old.release()
	}
}

// Swap exchanges the objects owned by h and o.
func (h *Handle[T]) Swap(o *Handle[T]) {
	*h, *o = *o, *h
}

// Release gives up h's ownership and leaves h nil. The object is destroyed
// when the last owner releases it.
func (h *Handle[T]) Release() {
	b := h.b
	if b == nil {
		return
	}
	*h = Handle[T]{}
	b.release()
}

// AllocatorOf returns the allocator that produced h's block if its dynamic
// type is A.
func AllocatorOf[A alloc.Allocator, T any](h Handle[T]) (A, bool) {
	var zero A
	if h.b == nil || h.b.alloc == nil {
		return zero, false
	}
	a, ok := h.b.alloc.(A)
	return a, ok
}

// Cast returns a new owner of h's object viewed as a U. It returns a nil
// handle, leaving the count untouched, when the object is not a U.
func Cast[U, T any](h Handle[T]) Handle[U] {
	if h.b == nil {
		return Handle[U]{}
	}
	u, ok := h.b.obj.(U)
	if !ok {
		return Handle[U]{}
	}
	h.b.retain()
	return Handle[U]{b: h.b, v: u}
}

// MustCast is like Cast but panics when the object is not a U.
func MustCast[U, T any](h Handle[T]) Handle[U] {
	if h.b == nil {
		return Handle[U]{}
	}
	u, ok := h.b.obj.(U)
	if !ok {
		panic(fmt.Sprintf("counted: cannot cast %T to %T", h.b.obj, (*U)(nil)))
	}
	h.b.retain()
	return Handle[U]{b: h.b, v: u}
}
