package rope

import "fmt"

// Cursor is a position in a rope that can be moved cheaply.
//
// It keeps a window of contiguous bytes around the current position, either
// aliasing a leaf or materialized from generated text, plus the last few
// ancestors on the path from the root to the window's node. Moving within the
// window costs nothing; moving just past either edge walks to the
// neighbouring node through the cached ancestors; anything else falls back to
// a full descent from the root.
//
// A Cursor reads the tree of the rope it was created from without owning it,
// so it must not be used after that rope has been released. Any number of
// cursors may share a rope.
type Cursor struct {
	s    *settings
	root *node
	size int
	pos  int

	// buf holds the bytes [bufPos, bufPos+len(buf)); nil when no window is
	// cached.
	buf    []byte
	bufPos int

	// path[0..leafIdx] are the cached ancestors, path[leafIdx] being the node
	// the window lies in, which starts at leafPos. Bit k of dirs is set when
	// path[leafIdx-k] is the right child of its parent.
	path    []*node
	leafIdx int
	leafPos int
	dirs    uint64

	tmp []byte
}

func newCursor(s *settings, root *node, pos int) *Cursor {
	c := &Cursor{
		s:    s,
		root: root,
		path: make([]*node, s.cfg.PathCacheLen),
		tmp:  make([]byte, s.cfg.IteratorBufLen),
	}
	if root != nil {
		c.size = root.size
	}
	c.pos = pos
	c.setCache()
	return c
}

// Pos returns the current position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns the length of the rope the cursor walks.
func (c *Cursor) Len() int {
	return c.size
}

// AtEnd reports whether the cursor is past the last byte.
func (c *Cursor) AtEnd() bool {
	return c.pos >= c.size
}

// AtStart reports whether the cursor is at position 0.
func (c *Cursor) AtStart() bool {
	return c.pos == 0
}

// Seek moves the cursor to pos, descending from the root.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > c.size {
		return fmt.Errorf("%w: seek to %d in rope of length %d", ErrOutOfRange, pos, c.size)
	}
	c.pos = pos
	c.setCache()
	return nil
}

// Byte returns the byte at the current position, or false at the end.
func (c *Cursor) Byte() (byte, bool) {
	if c.pos >= c.size {
		return 0, false
	}
	if c.buf == nil {
		c.setCache()
	}
	return c.buf[c.pos-c.bufPos], true
}

// Window returns the bytes from the current position to the end of the
// cached window. It is empty only at the end of the rope. The slice must not
// be modified and is invalidated by the next move.
func (c *Cursor) Window() []byte {
	if c.pos >= c.size {
		return nil
	}
	if c.buf == nil {
		c.setCache()
	}
	return c.buf[c.pos-c.bufPos:]
}

// Next returns the byte at the current position and advances past it.
func (c *Cursor) Next() (byte, bool) {
	b, ok := c.Byte()
	if ok {
		c.advance(1)
	}
	return b, ok
}

// Prev moves back one byte and returns the byte there.
func (c *Cursor) Prev() (byte, bool) {
	if c.pos == 0 {
		return 0, false
	}
	c.retreat(1)
	return c.Byte()
}

// Advance moves the cursor forward by n bytes. A negative n moves backward.
func (c *Cursor) Advance(n int) error {
	if n < 0 {
		return c.Retreat(-n)
	}
	if n > c.size-c.pos {
		return fmt.Errorf("%w: advance by %d from %d in rope of length %d", ErrOutOfRange, n, c.pos, c.size)
	}
	c.advance(n)
	return nil
}

// Retreat moves the cursor backward by n bytes. A negative n moves forward.
func (c *Cursor) Retreat(n int) error {
	if n < 0 {
		return c.Advance(-n)
	}
	if n > c.pos {
		return fmt.Errorf("%w: retreat by %d from %d", ErrOutOfRange, n, c.pos)
	}
	c.retreat(n)
	return nil
}

// Clone returns an independent cursor at the same position.
func (c *Cursor) Clone() *Cursor {
	cp := *c
	cp.path = make([]*node, len(c.path))
	copy(cp.path, c.path)
	cp.tmp = make([]byte, len(c.tmp))
	if c.buf != nil && len(c.buf) > 0 && len(c.tmp) > 0 && &c.buf[0] == &c.tmp[0] {
		cp.buf = cp.tmp[:len(c.buf)]
		copy(cp.buf, c.buf)
	}
	return &cp
}

func (c *Cursor) advance(n int) {
	if n == 0 {
		return
	}
	if c.buf != nil {
		left := c.bufPos + len(c.buf) - c.pos
		c.pos += n
		switch {
		case n < left:
		case n == left:
			c.advanceUsingCache()
		default:
			c.buf = nil
		}
		return
	}
	c.pos += n
}

func (c *Cursor) retreat(n int) {
	if n == 0 {
		return
	}
	c.pos -= n
	if c.buf == nil {
		return
	}
	switch {
	case c.pos >= c.bufPos:
	case c.pos == c.bufPos-1:
		c.retreatUsingCache()
	default:
		c.buf = nil
	}
}

// setCache descends from the root to the node holding pos, caching the last
// PathCacheLen ancestors and the window.
func (c *Cursor) setCache() {
	c.buf = nil
	if c.root == nil || c.pos >= c.size {
		return
	}

	var stack [maxSupportedDepth + 2]*node
	full := stack[:0]
	n := c.root
	start := 0
	var dirs uint64
	for {
		full = append(full, n)
		if n.kind != kindConcat {
			break
		}
		left := n.left.Get()
		dirs <<= 1
		if c.pos >= start+left.size {
			dirs |= 1
			start += left.size
			n = n.right.Get()
		} else {
			n = left
		}
	}

	keep := min(len(full), len(c.path))
	copy(c.path, full[len(full)-keep:])
	c.leafIdx = keep - 1
	c.leafPos = start
	c.dirs = dirs
	c.setBuf()
}

// setBuf fills the window for the node at path[leafIdx].
func (c *Cursor) setBuf() {
	n := c.path[c.leafIdx]
	switch {
	case n.kind == kindLeaf:
		c.buf, c.bufPos = n.data, c.leafPos

	case n.kind == kindSubstring && n.base.Get().kind == kindLeaf:
		c.buf, c.bufPos = n.base.Get().data[n.start:n.start+n.size], c.leafPos

	default:
		// Generated text: materialize a window around pos, clipped to the
		// node's extent.
		length := len(c.tmp)
		start := c.leafPos
		end := c.leafPos + n.size
		if start+length <= c.pos {
			start = c.pos - length/4
			if start+length > end {
				start = end - length
			}
		}
		if start+length > end {
			length = end - start
		}
		buf := c.tmp[:length]
		c.s.flattenInto(n, start-c.leafPos, start-c.leafPos+length, buf)
		c.buf, c.bufPos = buf, start
	}
}

// advanceUsingCache moves the window to the node following path[leafIdx]
// without going back to the root when the cached ancestors allow it.
func (c *Cursor) advanceUsingCache() {
	n := c.path[c.leafIdx]
	if c.pos-c.leafPos < n.size {
		// More of this node than the window covered.
		c.setBuf()
		return
	}
	if c.pos >= c.size {
		c.buf = nil
		return
	}

	i := c.leafIdx
	start := c.leafPos
	dirs := c.dirs
	for {
		i--
		if i < 0 {
			c.setCache()
			return
		}
		if dirs&1 == 0 {
			break
		}
		// Finished a right child: its parent is done too.
		start -= c.path[i].left.Get().size
		dirs >>= 1
	}

	// path[i] is a Concat whose left child is exhausted.
	parent := c.path[i]
	start += parent.left.Get().size
	n = parent.right.Get()
	i++
	c.path[i] = n
	dirs |= 1
	for n.kind == kindConcat {
		i++
		if i == len(c.path) {
			copy(c.path, c.path[1:])
			i--
		}
		n = n.left.Get()
		c.path[i] = n
		dirs <<= 1
	}

	c.leafIdx = i
	c.leafPos = start
	c.dirs = dirs
	c.setBuf()
}

// retreatUsingCache is the mirror of advanceUsingCache for a cursor that has
// just stepped one byte before its window.
func (c *Cursor) retreatUsingCache() {
	if c.pos >= c.leafPos {
		c.setBuf()
		return
	}

	i := c.leafIdx
	start := c.leafPos
	dirs := c.dirs
	for {
		i--
		if i < 0 {
			c.setCache()
			return
		}
		if dirs&1 == 1 {
			break
		}
		// A left child starts where its parent does.
		dirs >>= 1
	}

	// path[i] is a Concat whose right child is exhausted going backward.
	parent := c.path[i]
	n := parent.left.Get()
	start -= n.size
	i++
	c.path[i] = n
	dirs &^= 1
	for n.kind == kindConcat {
		i++
		if i == len(c.path) {
			copy(c.path, c.path[1:])
			i--
		}
		start += n.left.Get().size
		n = n.right.Get()
		c.path[i] = n
		dirs = dirs<<1 | 1
	}

	c.leafIdx = i
	c.leafPos = start
	c.dirs = dirs
	c.setBuf()
}
