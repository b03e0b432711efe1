// Package treeview renders a document forest with box-drawing characters.
package treeview

import (
	"fmt"
	"strings"

	"github.com/starford/mdtree/internal/models"
)

// Options controls what Render prints next to each node.
type Options struct {
	ShowIDs bool   // append "[id]"
	Current string // id marked with "*"
}

// line is one flattened row of the tree.
type line struct {
	node   *models.Node
	depth  int
	isLast bool
}

// Render draws the forest under a "/" root line:
//
//	/
//	├── Guides/
//	│   └── Setup (12 words)
//	└── Todo (3 words)
func Render(roots []*models.Node, opts Options) string {
	var b strings.Builder
	b.WriteString("/")

	var lines []line
	var collect func(nodes []*models.Node, depth int)
	collect = func(nodes []*models.Node, depth int) {
		for i, n := range nodes {
			lines = append(lines, line{node: n, depth: depth, isLast: i == len(nodes)-1})
			collect(n.Children, depth+1)
		}
	}
	collect(roots, 1)

	// continuations[d] is true while the open node at depth d has siblings below.
	continuations := make(map[int]bool)
	for _, l := range lines {
		b.WriteString("\n")
		b.WriteString(prefix(l.depth, l.isLast, continuations))
		b.WriteString(label(l.node, opts))
		continuations[l.depth] = !l.isLast
	}
	return b.String()
}

func prefix(depth int, isLast bool, continuations map[int]bool) string {
	var p strings.Builder
	for d := 1; d < depth; d++ {
		if continuations[d] {
			p.WriteString("│   ")
		} else {
			p.WriteString("    ")
		}
	}
	if isLast {
		p.WriteString("└── ")
	} else {
		p.WriteString("├── ")
	}
	return p.String()
}

func label(n *models.Node, opts Options) string {
	s := n.Title
	if n.IsFolder() {
		s += "/"
	} else {
		s += fmt.Sprintf(" (%d words)", len(strings.Fields(n.Content)))
	}
	if opts.ShowIDs {
		s += " [" + n.ID + "]"
	}
	if opts.Current != "" && n.ID == opts.Current {
		s += " *"
	}
	return s
}
