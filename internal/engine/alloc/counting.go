package alloc

import "sync/atomic"

// Stats is a snapshot of a Counting allocator.
type Stats struct {
	Allocs     int64 // successful Allocate calls
	Frees      int64 // Deallocate calls
	BytesAlloc int64 // bytes handed out
	BytesFreed int64 // bytes handed back
}

// LiveBlocks returns the number of blocks not yet deallocated.
func (s Stats) LiveBlocks() int64 {
	return s.Allocs - s.Frees
}

// LiveBytes returns the number of bytes not yet deallocated.
func (s Stats) LiveBytes() int64 {
	return s.BytesAlloc - s.BytesFreed
}

// Counting wraps an allocator and counts every block that passes through it.
// It is safe for concurrent use.
type Counting struct {
	next Allocator

	allocs     atomic.Int64
	frees      atomic.Int64
	bytesAlloc atomic.Int64
	bytesFreed atomic.Int64
}

// NewCounting wraps next. A nil next wraps Default.
func NewCounting(next Allocator) *Counting {
	if next == nil {
		next = Default
	}
	return &Counting{next: next}
}

// Allocate forwards to the wrapped allocator and records the block.
func (c *Counting) Allocate(size int) ([]byte, error) {
	b, err := c.next.Allocate(size)
	if err != nil {
		return nil, err
	}
	c.allocs.Add(1)
	c.bytesAlloc.Add(int64(size))
	return b, nil
}

// Deallocate records the block and forwards it to the wrapped allocator.
func (c *Counting) Deallocate(block []byte) {
	c.frees.Add(1)
	c.bytesFreed.Add(int64(len(block)))
	c.next.Deallocate(block)
}

// Stats returns a snapshot of the counters.
func (c *Counting) Stats() Stats {
	return Stats{
		Allocs:     c.allocs.Load(),
		Frees:      c.frees.Load(),
		BytesAlloc: c.bytesAlloc.Load(),
		BytesFreed: c.bytesFreed.Load(),
	}
}
