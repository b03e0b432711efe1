package models

// Node is one entry of the in-memory hierarchy.
type Node struct {
	ID        string  `json:"id"`
	ParentID  string  `json:"parent_id,omitempty"` // empty for root-level nodes
	Kind      Kind    `json:"type"`
	Title     string  `json:"title"`
	Content   string  `json:"content,omitempty"`
	Children  []*Node `json:"children,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// IsFolder reports whether n can hold children.
func (n *Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// Record converts n back to its flat shape. Children are not included.
func (n *Node) Record() Record {
	rec := Record{
		ID:        n.ID,
		Title:     n.Title,
		Kind:      n.Kind,
		CreatedAt: n.CreatedAt,
	}
	if n.ParentID != "" {
		rec.ParentID = StringPtr(n.ParentID)
	}
	if n.Kind == KindFile {
		rec.Content = StringPtr(n.Content)
	}
	return rec
}

// BuildTree turns a flat record list into an ordered forest.
//
// Every record is indexed by id first; each one is then attached to its
// parent's children when parent_id names a folder in the set, otherwise it
// is promoted to the root and its ParentID cleared. Order follows the input
// order.
func BuildTree(records []Record) []*Node {
	nodes := make(map[string]*Node, len(records))
	ordered := make([]*Node, 0, len(records))

	for _, rec := range records {
		n := &Node{
			ID:        rec.ID,
			Kind:      rec.Kind,
			Title:     rec.Title,
			CreatedAt: rec.CreatedAt,
		}
		if rec.ParentID != nil {
			n.ParentID = *rec.ParentID
		}
		if n.IsFolder() {
			n.Children = []*Node{}
		} else if rec.Content != nil {
			n.Content = *rec.Content
		}
		nodes[n.ID] = n
		ordered = append(ordered, n)
	}

	roots := make([]*Node, 0)
	for _, n := range ordered {
		if n.ParentID != "" {
			if parent, ok := nodes[n.ParentID]; ok && parent.IsFolder() && parent != n {
				parent.Children = append(parent.Children, n)
				continue
			}
			n.ParentID = ""
		}
		roots = append(roots, n)
	}

	// A parent chain that loops back on itself never reaches the root.
	// Break such loops by promoting the first unreachable member.
	reachable := make(map[string]bool, len(ordered))
	Walk(roots, func(n *Node) bool {
		reachable[n.ID] = true
		return true
	})
	for _, n := range ordered {
		if reachable[n.ID] {
			continue
		}
		parent := nodes[n.ParentID]
		parent.Children, _ = Remove(parent.Children, n.ID)
		n.ParentID = ""
		roots = append(roots, n)
		Walk([]*Node{n}, func(c *Node) bool {
			reachable[c.ID] = true
			return true
		})
	}
	return roots
}

// Flatten walks the forest in pre-order and returns its records.
func Flatten(nodes []*Node) []Record {
	var out []Record
	Walk(nodes, func(n *Node) bool {
		out = append(out, n.Record())
		return true
	})
	return out
}

// Walk visits nodes depth-first in pre-order until fn returns false.
func Walk(nodes []*Node, fn func(*Node) bool) bool {
	for _, n := range nodes {
		if !fn(n) {
			return false
		}
		if !Walk(n.Children, fn) {
			return false
		}
	}
	return true
}

// Find returns the first node with the given id, or nil.
func Find(nodes []*Node, id string) *Node {
	var found *Node
	Walk(nodes, func(n *Node) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Remove drops the node with the given id (and its subtree) from the forest.
func Remove(nodes []*Node, id string) ([]*Node, bool) {
	removed := false
	out := nodes[:0:0]
	for _, n := range nodes {
		if n.ID == id {
			removed = true
			continue
		}
		if len(n.Children) > 0 {
			var ok bool
			n.Children, ok = Remove(n.Children, id)
			removed = removed || ok
		}
		out = append(out, n)
	}
	return out, removed
}

// CloneNodes returns a deep copy of the forest.
func CloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Children = CloneNodes(n.Children)
	return &c
}
