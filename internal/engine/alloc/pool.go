package alloc

import (
	"math/bits"
	"sync"
)

// Size classes recycled by Pool.
const (
	minClassShift = 4  // 16 bytes
	maxClassShift = 16 // 64 KiB
	numClasses    = maxClassShift - minClassShift + 1
)

// Pool recycles blocks through one sync.Pool per power-of-two size class.
// It uses sync.Pool for thread-safe pooling with per-P caches.
//
// Requests larger than the biggest class are served from the heap and are
// simply dropped on Deallocate. Pool is safe for concurrent use.
type Pool struct {
	classes [numClasses]sync.Pool
}

// DefaultPool is a process-wide pool allocator.
var DefaultPool = NewPool()

// NewPool creates a pool allocator.
func NewPool() *Pool {
	p := &Pool{}
	for i := range p.classes {
		size := 1 << (i + minClassShift)
		p.classes[i].New = func() any {
			b := make([]byte, size)
			return &b
		}
	}
	return p
}

// classFor returns the size class index for size, or -1 if size is too large
// to be pooled.
func classFor(size int) int {
	if size <= 1<<minClassShift {
		return 0
	}
	shift := bits.Len(uint(size - 1))
	if shift > maxClassShift {
		return -1
	}
	return shift - minClassShift
}

// Allocate returns a zeroed block of exactly size bytes.
func (p *Pool) Allocate(size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrOutOfMemory
	}
	if size == 0 {
		return nil, nil
	}
	c := classFor(size)
	if c < 0 {
		return make([]byte, size), nil
	}
	bp := p.classes[c].Get().(*[]byte)
	b := (*bp)[:size]
	clear(b)
	return b, nil
}

// Deallocate returns a block to its size class.
// Blocks that did not come from a class (wrong capacity) are dropped.
func (p *Pool) Deallocate(block []byte) {
	if cap(block) == 0 {
		return
	}
	c := classFor(cap(block))
	if c < 0 || cap(block) != 1<<(c+minClassShift) {
		return
	}
	b := block[:cap(block)]
	p.classes[c].Put(&b)
}
