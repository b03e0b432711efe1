package treestore

import (
	"slices"

	"github.com/starford/mdtree/internal/models"
)

// field names a node attribute that is mirrored on its own.
type field uint8

const (
	fieldTitle field = iota
	fieldContent
)

type fieldKey struct {
	id    string
	field field
}

// fieldState follows the queued writes to one field of one node. It exists
// only while at least one write is in flight.
type fieldState struct {
	acked   string // last value the authority holds
	first   uint64 // sequence of the write that opened this state
	latest  uint64 // sequence of the newest queued write
	pending int
}

// tomb is a subtree removed by a delete that the authority has not
// confirmed yet.
type tomb struct {
	node   *models.Node
	parent *models.Node // nil for a root
	index  int
}

// writeFieldLocked registers a queued write over current and returns its
// sequence number.
func (s *Store) writeFieldLocked(id string, f field, current string) uint64 {
	s.seq++
	k := fieldKey{id, f}
	st := s.fields[k]
	if st == nil {
		st = &fieldState{acked: current, first: s.seq}
		s.fields[k] = st
	}
	st.latest = s.seq
	st.pending++
	return s.seq
}

// ackFieldLocked records that write seq stored value.
func (s *Store) ackFieldLocked(id string, f field, seq uint64, value string) {
	k := fieldKey{id, f}
	st := s.fields[k]
	if st == nil || seq < st.first {
		return
	}
	st.acked = value
	s.settleFieldLocked(k, st)
}

// rejectFieldLocked records that write seq failed. It returns the value the
// authority still holds and whether the field should be reset to it, which
// is only the case when no newer write is queued behind seq.
func (s *Store) rejectFieldLocked(id string, f field, seq uint64) (string, bool) {
	k := fieldKey{id, f}
	st := s.fields[k]
	if st == nil || seq < st.first {
		return "", false
	}
	s.settleFieldLocked(k, st)
	return st.acked, st.latest == seq
}

func (s *Store) settleFieldLocked(k fieldKey, st *fieldState) {
	st.pending--
	if st.pending <= 0 {
		delete(s.fields, k)
	}
}

// findLocked looks up id in the live tree and then in pending tombs, so a
// failed mirror can still repair a node whose delete is in flight.
func (s *Store) findLocked(id string) *models.Node {
	if n := models.Find(s.roots, id); n != nil {
		return n
	}
	for _, t := range s.tombs {
		if n := models.Find([]*models.Node{t.node}, id); n != nil {
			return n
		}
	}
	return nil
}

// buryLocked unlinks a live node and keeps it as a tomb.
func (s *Store) buryLocked(node *models.Node) {
	var parent *models.Node
	siblings := s.roots
	if node.ParentID != "" {
		if p := models.Find(s.roots, node.ParentID); p != nil && slices.Contains(p.Children, node) {
			parent = p
			siblings = p.Children
		}
	}
	index := slices.Index(siblings, node)
	if parent == nil {
		s.roots = slices.Delete(s.roots, index, index+1)
	} else {
		parent.Children = slices.Delete(parent.Children, index, index+1)
	}
	s.tombs[node.ID] = &tomb{node: node, parent: parent, index: index}
}

// resurrectLocked puts a tomb back at its old position among the current
// siblings. It reports false when there is no tomb for id.
func (s *Store) resurrectLocked(id string) bool {
	t, ok := s.tombs[id]
	if !ok {
		return false
	}
	delete(s.tombs, id)
	if t.parent == nil {
		s.roots = slices.Insert(s.roots, min(t.index, len(s.roots)), t.node)
	} else {
		t.parent.Children = slices.Insert(t.parent.Children, min(t.index, len(t.parent.Children)), t.node)
	}
	return true
}

// detachLocked drops id from the live tree or from whichever tomb holds it.
func (s *Store) detachLocked(id string) {
	var removed bool
	if s.roots, removed = models.Remove(s.roots, id); removed {
		return
	}
	if _, ok := s.tombs[id]; ok {
		delete(s.tombs, id)
		return
	}
	for _, t := range s.tombs {
		if t.node.Children, removed = models.Remove(t.node.Children, id); removed {
			return
		}
	}
}
