// Package alloc provides the byte-block allocators used by counted handles
// and rope nodes.
//
// Every counted object is backed by exactly one block obtained from an
// Allocator. The block may be empty (a header-only object) or carry extra
// trailing storage such as a leaf's character buffer. Blocks are handed back
// with Deallocate when the last handle to the object is released, so an
// allocator sees a symmetric Allocate/Deallocate stream it can account for or
// recycle.
//
// Available allocators:
//   - Heap: plain Go allocation, Deallocate is a no-op
//   - Pool: power-of-two size classes recycled through sync.Pool
//   - Counting: wraps another allocator and tracks live blocks and bytes
//   - Limited: wraps another allocator and enforces byte and block budgets
package alloc
