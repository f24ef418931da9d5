package rope

import "unicode/utf8"

// ByteIterator iterates over the bytes of a rope.
type ByteIterator struct {
	cursor  *Cursor
	current byte
	offset  int
}

// ByteIterator returns an iterator over all bytes in the rope.
func (r Rope) ByteIterator() *ByteIterator {
	return &ByteIterator{
		cursor: newCursor(r.settings(), r.node(), 0),
		offset: -1,
	}
}

// Next advances to the next byte.
// Returns true if there is a byte, false if iteration is complete.
func (it *ByteIterator) Next() bool {
	pos := it.cursor.Pos()
	b, ok := it.cursor.Next()
	if !ok {
		return false
	}
	it.current, it.offset = b, pos
	return true
}

// Byte returns the current byte.
func (it *ByteIterator) Byte() byte {
	return it.current
}

// Offset returns the byte offset of the current byte.
func (it *ByteIterator) Offset() int {
	return it.offset
}

// RuneIterator iterates over the UTF-8 runes of a rope. Invalid sequences
// decode as utf8.RuneError of width 1.
type RuneIterator struct {
	cursor  *Cursor
	current rune
	size    int
	offset  int
	reverse bool
}

// RuneIterator returns an iterator over all runes in the rope.
func (r Rope) RuneIterator() *RuneIterator {
	return &RuneIterator{
		cursor: newCursor(r.settings(), r.node(), 0),
	}
}

// ReverseRuneIterator returns an iterator over the runes of the rope from
// last to first.
func (r Rope) ReverseRuneIterator() *RuneIterator {
	return &RuneIterator{
		cursor:  newCursor(r.settings(), r.node(), r.Len()),
		reverse: true,
	}
}

// Next advances to the next rune.
// Returns true if there is a rune, false if iteration is complete.
func (it *RuneIterator) Next() bool {
	if it.reverse {
		return it.prev()
	}
	c := it.cursor
	if c.AtEnd() {
		return false
	}
	it.offset = c.Pos()

	w := c.Window()
	if len(w) >= utf8.UTFMax || c.bufPos+len(c.buf) == c.size || utf8.FullRune(w) {
		it.current, it.size = utf8.DecodeRune(w)
	} else {
		// The rune straddles the window edge.
		var tmp [utf8.UTFMax]byte
		n := copy(tmp[:], w)
		for p := c.Pos() + n; n < utf8.UTFMax && p < c.size; p++ {
			tmp[n] = c.s.fetch(c.root, p)
			n++
		}
		it.current, it.size = utf8.DecodeRune(tmp[:n])
	}
	c.advance(it.size)
	return true
}

func (it *RuneIterator) prev() bool {
	c := it.cursor
	if c.AtStart() {
		return false
	}
	var tmp [utf8.UTFMax]byte
	n := 0
	for n < utf8.UTFMax && !c.AtStart() {
		b, _ := c.Prev()
		n++
		tmp[utf8.UTFMax-n] = b
		if utf8.RuneStart(b) {
			break
		}
	}
	r, size := utf8.DecodeRune(tmp[utf8.UTFMax-n:])
	if size < n {
		// Trailing bytes of an invalid sequence: step back over one byte
		// only.
		c.advance(n - 1)
		r, size = utf8.RuneError, 1
	}
	it.current, it.size, it.offset = r, size, c.Pos()
	return true
}

// Rune returns the current rune.
func (it *RuneIterator) Rune() rune {
	return it.current
}

// Size returns the byte size of the current rune.
func (it *RuneIterator) Size() int {
	return it.size
}

// Offset returns the byte offset of the current rune.
func (it *RuneIterator) Offset() int {
	return it.offset
}
