package app

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/dshills/strand/internal/engine/rope"
)

// RenderTree draws the node structure of r. Nodes below maxDepth levels are
// folded into their parent; a negative maxDepth shows everything.
func RenderTree(title string, r rope.Rope, maxDepth int) string {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%s (%d bytes, depth %d)", title, r.Len(), r.Depth()))
	if r.IsEmpty() {
		return tree.String()
	}

	// branches[i] receives the nodes of level i.
	branches := []treeprint.Tree{tree}
	r.Walk(func(n rope.NodeInfo) bool {
		parent := branches[n.Level]
		label := nodeLabel(n)
		hasChildren := n.Kind == "concat" || n.Kind == "substring"

		if !hasChildren {
			parent.AddNode(label)
			return false
		}
		if maxDepth >= 0 && n.Level >= maxDepth {
			parent.AddNode(label + " ...")
			return false
		}
		branches = append(branches[:n.Level+1], parent.AddBranch(label))
		return true
	})
	return tree.String()
}

func nodeLabel(n rope.NodeInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%d,%d)", n.Kind, n.Offset, n.Offset+n.Size)
	switch n.Kind {
	case "concat":
		fmt.Fprintf(&b, " depth=%d", n.Depth)
		if !n.Balanced {
			b.WriteString(" unbalanced")
		}
	case "substring":
		fmt.Fprintf(&b, " start=%d", n.Start)
	}
	if n.Refs > 1 {
		fmt.Fprintf(&b, " refs=%d", n.Refs)
	}
	return b.String()
}

// Tree prints the node structure of a file.
func (app *Application) Tree(path string, maxDepth int) error {
	r, err := app.LoadFile(path)
	if err != nil {
		return err
	}
	defer r.Release()

	_, err = fmt.Fprint(app.stdout, RenderTree(path, r, maxDepth))
	return err
}
