package treestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/mdtree/internal/apperr"
	"github.com/starford/mdtree/internal/markdown"
	"github.com/starford/mdtree/internal/models"
)

// ErrClosed is returned by mutations issued after Close.
var ErrClosed = errors.New("treestore: closed")

// mutation is one optimistic change: apply runs now, mirror runs on the
// queue, then commit or revert runs depending on the outcome. apply, commit
// and revert hold the store lock; apply and revert may return a follow-up
// that runs after it is released.
type mutation struct {
	op     string
	id     string
	apply  func() (func(), error)
	mirror func(ctx context.Context) error
	commit func()
	revert func() func()
}

func (s *Store) run(m mutation) error {
	if s.mirrors.isClosed() {
		return ErrClosed
	}

	// Queue under the lock so mirrors reach the authority in apply order.
	// The job waits for ready so a fast revert cannot overtake the apply
	// follow-up.
	ready := make(chan struct{})
	s.mu.Lock()
	after, err := m.apply()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	queued := s.mirrors.push(func() {
		<-ready
		s.mirror(m)
	})
	s.mu.Unlock()

	if !queued {
		s.rollback(m)
		return ErrClosed
	}
	if after != nil {
		after()
	}
	close(ready)
	return nil
}

func (s *Store) mirror(m mutation) {
	ctx, cancel := context.WithTimeout(context.Background(), s.mirrorTimeout)
	defer cancel()

	err := m.mirror(ctx)
	if err == nil {
		if m.commit != nil {
			s.mu.Lock()
			m.commit()
			s.mu.Unlock()
		}
		return
	}
	s.logger.Error("mirror failed",
		slog.String("op", m.op),
		slog.String("id", m.id),
		slog.String("error", err.Error()),
	)
	s.mu.Lock()
	s.rejected[m.id]++
	s.mu.Unlock()
	s.rollback(m)
	s.notify(Notice{Kind: NoticeMirror, Op: m.op, ID: m.id, Err: err})
}

func (s *Store) rollback(m mutation) {
	s.mu.Lock()
	after := m.revert()
	s.mu.Unlock()
	if after != nil {
		after()
	}
}

// AddFolder appends a folder under parentID ("" for the root) and returns its id.
func (s *Store) AddFolder(parentID, title string) (string, error) {
	return s.add(parentID, title, models.KindFolder)
}

// AddFile appends a file under parentID ("" for the root), selects it, and
// returns its id. The file starts with a heading built from title.
func (s *Store) AddFile(parentID, title string) (string, error) {
	return s.add(parentID, title, models.KindFile)
}

func (s *Store) add(parentID, title string, kind models.Kind) (string, error) {
	id := s.newID(kind)
	var (
		rec           models.Record
		expandedAdded bool
		prevSelection string
	)

	err := s.run(mutation{
		op: "create",
		id: id,
		apply: func() (func(), error) {
			// Creation times are strictly increasing within a session so the
			// authority's created_at ordering matches issue order.
			createdAt := s.now().UnixMilli()
			if createdAt <= s.lastCreatedAt {
				createdAt = s.lastCreatedAt + 1
			}
			s.lastCreatedAt = createdAt

			node := &models.Node{
				ID:        id,
				ParentID:  parentID,
				Kind:      kind,
				Title:     title,
				CreatedAt: createdAt,
			}
			if kind == models.KindFolder {
				node.Children = []*models.Node{}
			} else {
				node.Content = markdown.Heading(title)
			}

			if parentID == "" {
				s.roots = append(s.roots, node)
			} else {
				parent := models.Find(s.roots, parentID)
				if parent == nil || !parent.IsFolder() {
					return nil, fmt.Errorf("treestore: create under %q: %w", parentID, apperr.ErrParentNotFolder)
				}
				parent.Children = append(parent.Children, node)
				if !slices.Contains(s.expanded, parentID) {
					s.expanded = append(s.expanded, parentID)
					expandedAdded = true
				}
			}
			rec = node.Record()

			if kind != models.KindFile {
				return nil, nil
			}
			prevSelection = s.currentFileID
			s.currentFileID = id
			content := node.Content
			return func() {
				s.persistSelection(id)
				s.emit(id, content)
			}, nil
		},
		mirror: func(ctx context.Context) error {
			return s.remote.Create(ctx, rec)
		},
		revert: func() func() {
			s.detachLocked(id)
			if expandedAdded {
				s.expanded = slices.DeleteFunc(s.expanded, func(k string) bool { return k == parentID })
			}
			if kind != models.KindFile || s.currentFileID != id {
				return nil
			}
			return s.reselectLocked(prevSelection)
		},
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// DeleteItem removes id and its subtree. If the current selection is id or
// lies beneath it, the selection is cleared first.
//
// A rejected delete puts the subtree back where it was and restores the
// expansion and selection it took away, leaving changes made in the
// meantime in place.
func (s *Store) DeleteItem(id string) error {
	var (
		prevSelection string
		pruned        []string
		cleared       bool
	)

	return s.run(mutation{
		op: "delete",
		id: id,
		apply: func() (func(), error) {
			node := models.Find(s.roots, id)
			if node == nil {
				return nil, fmt.Errorf("treestore: delete %q: %w", id, apperr.ErrNotFound)
			}
			prevSelection = s.currentFileID
			if s.currentFileID != "" && (s.currentFileID == id || s.isAncestorLocked(id, s.currentFileID)) {
				s.currentFileID = ""
				cleared = true
			}

			removed := make(map[string]bool)
			models.Walk([]*models.Node{node}, func(n *models.Node) bool {
				removed[n.ID] = true
				return true
			})
			s.buryLocked(node)
			s.expanded = slices.DeleteFunc(s.expanded, func(k string) bool {
				if removed[k] {
					pruned = append(pruned, k)
					return true
				}
				return false
			})

			if !cleared {
				return nil, nil
			}
			return func() { s.persistSelection("") }, nil
		},
		mirror: func(ctx context.Context) error {
			return s.remote.Delete(ctx, id)
		},
		commit: func() {
			delete(s.tombs, id)
		},
		revert: func() func() {
			if !s.resurrectLocked(id) {
				return nil
			}
			for _, k := range pruned {
				if !slices.Contains(s.expanded, k) {
					s.expanded = append(s.expanded, k)
				}
			}
			if !cleared || s.currentFileID != "" {
				return nil
			}
			return s.reselectLocked(prevSelection)
		},
	})
}

// RenameItem sets the title of id.
func (s *Store) RenameItem(id, title string) error {
	var seq uint64

	return s.run(mutation{
		op: "rename",
		id: id,
		apply: func() (func(), error) {
			node := models.Find(s.roots, id)
			if node == nil {
				return nil, fmt.Errorf("treestore: rename %q: %w", id, apperr.ErrNotFound)
			}
			seq = s.writeFieldLocked(id, fieldTitle, node.Title)
			node.Title = title
			return nil, nil
		},
		mirror: func(ctx context.Context) error {
			return s.remote.Update(ctx, id, models.FilePatch{Title: models.StringPtr(title)})
		},
		commit: func() {
			s.ackFieldLocked(id, fieldTitle, seq, title)
		},
		revert: func() func() {
			acked, reset := s.rejectFieldLocked(id, fieldTitle, seq)
			if node := s.findLocked(id); reset && node != nil && node.Title == title {
				node.Title = acked
			}
			return nil
		},
	})
}

// UpdateContent overwrites the content of file id.
func (s *Store) UpdateContent(id, content string) error {
	var seq uint64

	return s.run(mutation{
		op: "update content",
		id: id,
		apply: func() (func(), error) {
			node := models.Find(s.roots, id)
			if node == nil {
				return nil, fmt.Errorf("treestore: update content %q: %w", id, apperr.ErrNotFound)
			}
			if node.Kind != models.KindFile {
				return nil, fmt.Errorf("treestore: update content %q: %w", id, apperr.ErrNotFile)
			}
			seq = s.writeFieldLocked(id, fieldContent, node.Content)
			node.Content = content
			return nil, nil
		},
		mirror: func(ctx context.Context) error {
			return s.remote.Update(ctx, id, models.FilePatch{Content: models.StringPtr(content)})
		},
		commit: func() {
			s.ackFieldLocked(id, fieldContent, seq, content)
		},
		revert: func() func() {
			acked, reset := s.rejectFieldLocked(id, fieldContent, seq)
			node := s.findLocked(id)
			if !reset || node == nil || node.Content != content {
				return nil
			}
			node.Content = acked
			if s.currentFileID != id {
				return nil
			}
			return func() { s.emit(id, acked) }
		},
	})
}

// reselectLocked restores a previous selection and returns the follow-up
// that persists it and pushes its content. Callers hold s.mu.
func (s *Store) reselectLocked(id string) func() {
	node := models.Find(s.roots, id)
	if node == nil || node.Kind != models.KindFile {
		id = ""
		node = nil
	}
	s.currentFileID = id
	var content string
	if node != nil {
		content = node.Content
	}
	return func() {
		s.persistSelection(id)
		if id != "" {
			s.emit(id, content)
		}
	}
}
