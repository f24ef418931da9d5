package rope

// concatMode selects what concat does with a new Concat node.
type concatMode uint8

const (
	// concatEager rebalances the result once it is too deep for its size.
	concatEager concatMode = iota
	// concatLazy never rebalances. The balancer joins its buckets with it.
	concatLazy
	// concatForest never rebalances and marks new Concat nodes balanced.
	// Trees merged inside a forest bucket are balanced by construction.
	concatForest
)

// concat returns an owned reference to l followed by r; both are borrowed.
//
// Small leaves are merged by copying so that ropes grown a few bytes at a
// time stay flat, including the common case where l is a Concat whose right
// child is a small leaf.
func (s *settings) concat(l, r ref, mode concatMode) (ref, error) {
	if l.IsNil() {
		return r.Clone(), nil
	}
	if r.IsNil() {
		return l.Clone(), nil
	}

	ln, rn := l.Get(), r.Get()
	if rn.kind == kindLeaf {
		switch {
		case ln.kind == kindLeaf:
			if ln.size+rn.size <= s.cfg.CopyMax {
				return s.leafConcat(ln, rn)
			}
		case ln.kind == kindConcat && ln.right.Get().kind == kindLeaf:
			lr := ln.right.Get()
			if lr.size+rn.size <= s.cfg.CopyMax {
				rest, err := s.leafConcat(lr, rn)
				if err != nil {
					return ref{}, err
				}
				defer rest.Release()
				return s.treeConcat(ln.left, rest, mode)
			}
		}
	}
	return s.treeConcat(l, r, mode)
}

// leafConcat copies two leaves into one new leaf.
func (s *settings) leafConcat(l, r *node) (ref, error) {
	return s.newLeafFill(l.size+r.size, func(buf []byte) {
		copy(buf[copy(buf, l.data):], r.data)
	})
}

// treeConcat joins l and r (borrowed) under a new Concat node and rebalances
// the result when it has grown too deep for its size.
func (s *settings) treeConcat(l, r ref, mode concatMode) (ref, error) {
	res, err := s.newConcat(l.Clone(), r.Clone(), mode == concatForest)
	if err != nil {
		return ref{}, err
	}
	if mode != concatEager || !s.needsRebalance(res.Get()) {
		return res, nil
	}

	before := res.Get().depth
	bal, err := s.balance(res)
	res.Release()
	if err != nil {
		return ref{}, err
	}
	s.debug("rebalanced rope of %d bytes: depth %d -> %d", sizeOf(bal), before, depthOf(bal))
	return bal, nil
}

// needsRebalance reports whether n is deep enough, and small enough for its
// depth, to be worth rebalancing now rather than later. Past RebalanceDepth a
// tree may run RebalanceSlack levels deeper than a Fibonacci tree of its
// size, so balancer output followed by a run of appends is left alone until
// the run is long enough to pay for the next rebalance.
func (s *settings) needsRebalance(n *node) bool {
	if n.depth <= s.cfg.RebalanceDepth {
		return false
	}
	if n.depth > s.cfg.MaxDepth {
		return true
	}
	i := n.depth - s.cfg.RebalanceSlack
	return i > 0 && n.size < minLen[i]
}
