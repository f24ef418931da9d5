package rope

// Stats summarizes the structure of a rope's tree.
type Stats struct {
	Len      int
	Depth    int
	Balanced bool

	Leaves     int
	Concats    int
	Substrings int
	Functions  int

	// LeafBytes counts the bytes stored in leaves reachable from the root,
	// once per distinct leaf. It can exceed Len when substrings view part of
	// a larger leaf, and fall short of it when subtrees are shared.
	LeafBytes int

	// Shared counts distinct nodes reachable through more than one path or
	// owned by more than one handle.
	Shared int
}

// Stats walks the tree and returns its structure counters.
func (r Rope) Stats() Stats {
	st := Stats{
		Len:      r.Len(),
		Depth:    r.Depth(),
		Balanced: r.IsBalanced(),
	}
	seen := make(map[*node]bool)
	var visit func(h ref)
	visit = func(h ref) {
		if h.IsNil() {
			return
		}
		n := h.Get()
		if seen[n] {
			return
		}
		seen[n] = true
		if h.UseCount() > 1 {
			st.Shared++
		}
		switch n.kind {
		case kindLeaf:
			st.Leaves++
			st.LeafBytes += n.size
		case kindConcat:
			st.Concats++
			visit(n.left)
			visit(n.right)
		case kindSubstring:
			st.Substrings++
			visit(n.base)
		case kindFunction:
			st.Functions++
		}
	}
	visit(r.root)
	return st
}

// NodeInfo describes one node seen by Walk.
type NodeInfo struct {
	Kind     string
	Size     int
	Depth    int
	Balanced bool
	// Level is the distance from the root.
	Level int
	// Offset is the node's position within the rope, or within its base for
	// the base of a Substring.
	Offset int
	// Start is the offset into the base of a Substring node.
	Start int
	// Refs is the number of handles sharing the node.
	Refs int64
}

// Walk visits the nodes of the tree in pre-order: each Concat before its left
// then right child, each Substring before its base. fn returns whether to
// descend into the node's children.
func (r Rope) Walk(fn func(NodeInfo) bool) {
	var visit func(h ref, level, offset int)
	visit = func(h ref, level, offset int) {
		if h.IsNil() {
			return
		}
		n := h.Get()
		info := NodeInfo{
			Kind:     n.kind.String(),
			Size:     n.size,
			Depth:    n.depth,
			Balanced: n.balanced,
			Level:    level,
			Offset:   offset,
			Start:    n.start,
			Refs:     h.UseCount(),
		}
		if !fn(info) {
			return
		}
		switch n.kind {
		case kindConcat:
			visit(n.left, level+1, offset)
			visit(n.right, level+1, offset+n.left.Get().size)
		case kindSubstring:
			visit(n.base, level+1, 0)
		}
	}
	visit(r.root, 0, 0)
}
