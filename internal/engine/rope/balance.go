package rope

import "fmt"

// forest holds at most one subtree per depth bucket while a tree is being
// rebalanced. Bucket i holds a subtree whose size lies in
// [minLen[i], minLen[i+1]). The concatenation of the occupied buckets from
// the highest index down to 0 equals the text inserted so far.
type forest []ref

func (f forest) release() {
	for i := range f {
		f[i].Release()
	}
}

// balance rebuilds r (borrowed) into a tree of near-minimal depth.
func (s *settings) balance(r ref) (ref, error) {
	if r.IsNil() {
		return ref{}, nil
	}
	f := make(forest, s.cfg.MaxDepth+1)
	defer f.release()

	if err := s.addToForest(r, f); err != nil {
		return ref{}, err
	}

	var result ref
	for i := range f {
		if f[i].IsNil() {
			continue
		}
		next, err := s.concat(f[i], result, concatLazy)
		result.Release()
		if err != nil {
			return ref{}, err
		}
		f[i].Release()
		result = next
	}

	if d := depthOf(result); d > s.cfg.MaxDepth {
		result.Release()
		return ref{}, fmt.Errorf("%w: depth %d exceeds %d", ErrDepthOverflow, d, s.cfg.MaxDepth)
	}
	return result, nil
}

// addToForest inserts r (borrowed) into f. Subtrees already marked balanced
// are inserted whole; only unbalanced Concat nodes are taken apart.
func (s *settings) addToForest(r ref, f forest) error {
	n := r.Get()
	if n.balanced {
		return s.addLeafToForest(r, f)
	}
	if err := s.addToForest(n.left, f); err != nil {
		return err
	}
	return s.addToForest(n.right, f)
}

// addLeafToForest inserts the balanced subtree r (borrowed) into f.
func (s *settings) addLeafToForest(r ref, f forest) error {
	maxDepth := len(f) - 1
	size := r.Get().size

	// Everything in buckets too small for r is gathered, in order, into
	// tooTiny so that it ends up to the left of r.
	var tooTiny ref
	i := 0
	for ; i < maxDepth && size >= minLen[i+1]; i++ {
		if f[i].IsNil() {
			continue
		}
		next, err := s.concat(f[i], tooTiny, concatForest)
		tooTiny.Release()
		if err != nil {
			return err
		}
		f[i].Release()
		tooTiny = next
	}

	insertee, err := s.concat(tooTiny, r, concatForest)
	tooTiny.Release()
	if err != nil {
		return err
	}

	for ; ; i++ {
		if !f[i].IsNil() {
			next, err := s.concat(f[i], insertee, concatForest)
			insertee.Release()
			if err != nil {
				return err
			}
			f[i].Release()
			insertee = next
		}
		if i == maxDepth || insertee.Get().size < minLen[i+1] {
			f[i] = insertee
			return nil
		}
	}
}
