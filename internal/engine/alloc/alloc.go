package alloc

import "errors"

// ErrOutOfMemory is returned when an allocator cannot satisfy a request.
var ErrOutOfMemory = errors.New("out of memory")

// Allocator hands out and takes back raw byte blocks.
//
// Allocate must return a slice of exactly size bytes (nil is allowed for a
// zero-size request). Deallocate receives the same slice that Allocate
// returned; callers never deallocate a block twice.
type Allocator interface {
	Allocate(size int) ([]byte, error)
	Deallocate(block []byte)
}

// Heap allocates blocks with make and leaves reclamation to the garbage
// collector.
type Heap struct{}

// Allocate returns a fresh zeroed block.
func (Heap) Allocate(size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrOutOfMemory
	}
	if size == 0 {
		return nil, nil
	}
	return make([]byte, size), nil
}

// Deallocate is a no-op.
func (Heap) Deallocate([]byte) {}

// Default is the allocator used when none is configured.
var Default Allocator = Heap{}
