package rope

// substring returns an owned reference to [start, end) of base, which is
// borrowed. end is clamped to the node size. At most LazyThreshold bytes of
// the result are copied; the rest are Substring views sharing the original
// storage.
func (s *settings) substring(base ref, start, end int) (ref, error) {
	res, _, err := s.slice(base, start, end, s.cfg.LazyThreshold)
	return res, err
}

// slice is substring with a budget of bytes it may copy. It returns how many
// bytes it copied. A piece longer than the remaining budget becomes a view.
func (s *settings) slice(base ref, start, end, budget int) (ref, int, error) {
	if base.IsNil() {
		return ref{}, 0, nil
	}
	n := base.Get()
	end = min(end, n.size)
	if start >= end {
		return ref{}, 0, nil
	}
	if start == 0 && end == n.size {
		return base.Clone(), 0, nil
	}

	switch n.kind {
	case kindConcat:
		leftLen := n.left.Get().size
		if end <= leftLen {
			return s.slice(n.left, start, end, budget)
		}
		if start >= leftLen {
			return s.slice(n.right, start-leftLen, end-leftLen, budget)
		}
		l, lc, err := s.slice(n.left, start, leftLen, budget)
		if err != nil {
			return ref{}, 0, err
		}
		defer l.Release()
		r, rc, err := s.slice(n.right, 0, end-leftLen, budget-lc)
		if err != nil {
			return ref{}, 0, err
		}
		defer r.Release()
		res, err := s.concat(l, r, concatEager)
		return res, lc + rc, err
	}

	if end-start > budget {
		// Views of views collapse in newSubstring.
		res, err := s.newSubstring(base, start, end-start)
		return res, 0, err
	}
	var (
		res ref
		err error
	)
	if n.kind == kindLeaf {
		res, err = s.newLeaf(n.data[start:end])
	} else {
		res, err = s.newLeafFill(end-start, func(buf []byte) {
			s.flattenInto(n, start, end, buf)
		})
	}
	if err != nil {
		return ref{}, 0, err
	}
	return res, end - start, nil
}
