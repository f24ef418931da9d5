package rope

// apply calls fn on each contiguous run of bytes covering [begin, end) of n,
// in order. It stops and returns false as soon as fn does.
//
// Runs taken from leaves alias the leaf storage and runs of generated text
// alias a scratch buffer reused between calls: fn must neither modify nor
// retain them.
func (s *settings) apply(n *node, begin, end int, fn func(run []byte) bool) bool {
	if n == nil || begin >= end {
		return true
	}
	switch n.kind {
	case kindLeaf:
		return fn(n.data[begin:end])

	case kindConcat:
		left := n.left.Get()
		if begin < left.size {
			if !s.apply(left, begin, min(left.size, end), fn) {
				return false
			}
		}
		if end > left.size {
			if !s.apply(n.right.Get(), max(left.size, begin)-left.size, end-left.size, fn) {
				return false
			}
		}
		return true

	case kindSubstring:
		return s.apply(n.base.Get(), begin+n.start, end+n.start, fn)

	case kindFunction:
		scratch := make([]byte, min(end-begin, s.cfg.ScratchLen))
		for pos := begin; pos < end; {
			buf := scratch[:min(end-pos, len(scratch))]
			n.gen.Generate(pos, buf)
			if !fn(buf) {
				return false
			}
			pos += len(buf)
		}
		return true
	}
	return true
}

// flattenInto copies [begin, end) of n into dst, which must be end-begin
// bytes long.
func (s *settings) flattenInto(n *node, begin, end int, dst []byte) {
	s.apply(n, begin, end, func(run []byte) bool {
		dst = dst[copy(dst, run):]
		return true
	})
}

// fetch returns the byte at pos of n by applying over a one-byte range.
func (s *settings) fetch(n *node, pos int) byte {
	var b byte
	s.apply(n, pos, pos+1, func(run []byte) bool {
		b = run[0]
		return false
	})
	return b
}
