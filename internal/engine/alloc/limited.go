package alloc

import (
	"fmt"
	"sync"
)

// Limited wraps an allocator and refuses requests that would exceed its
// byte or block budget. A zero budget means unlimited.
type Limited struct {
	next      Allocator
	maxBytes  int64
	maxBlocks int64

	mu     sync.Mutex
	bytes  int64
	blocks int64
}

// NewLimited wraps next with the given budgets. A nil next wraps Default.
func NewLimited(next Allocator, maxBytes, maxBlocks int64) *Limited {
	if next == nil {
		next = Default
	}
	return &Limited{next: next, maxBytes: maxBytes, maxBlocks: maxBlocks}
}

// Allocate reserves budget and forwards to the wrapped allocator.
func (l *Limited) Allocate(size int) ([]byte, error) {
	l.mu.Lock()
	if l.maxBlocks > 0 && l.blocks+1 > l.maxBlocks {
		l.mu.Unlock()
		return nil, fmt.Errorf("block budget of %d exhausted: %w", l.maxBlocks, ErrOutOfMemory)
	}
	if l.maxBytes > 0 && l.bytes+int64(size) > l.maxBytes {
		l.mu.Unlock()
		return nil, fmt.Errorf("%d bytes requested, %d of %d in use: %w", size, l.bytes, l.maxBytes, ErrOutOfMemory)
	}
	l.blocks++
	l.bytes += int64(size)
	l.mu.Unlock()

	b, err := l.next.Allocate(size)
	if err != nil {
		l.mu.Lock()
		l.blocks--
		l.bytes -= int64(size)
		l.mu.Unlock()
		return nil, err
	}
	return b, nil
}

// Deallocate returns the block's budget and forwards it.
func (l *Limited) Deallocate(block []byte) {
	l.mu.Lock()
	l.blocks--
	l.bytes -= int64(len(block))
	l.mu.Unlock()
	l.next.Deallocate(block)
}

// InUse returns the bytes and blocks currently reserved.
func (l *Limited) InUse() (bytes, blocks int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bytes, l.blocks
}
