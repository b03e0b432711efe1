// Package treestore keeps the client's in-memory document tree and mirrors
// every change to the document authority.
//
// Mutations are optimistic: they are applied to the local tree before the
// network call is made and reverted if the authority rejects them. A Store
// is built once per session and shared by every surface that needs the
// tree.
package treestore

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starford/mdtree/internal/models"
)

// SelectionKey is the preferences key holding the last opened file id.
const SelectionKey = "currentFileId"

// Remote is the document authority as seen by the store.
type Remote interface {
	List(ctx context.Context) ([]models.Record, error)
	Create(ctx context.Context, rec models.Record) error
	Update(ctx context.Context, id string, patch models.FilePatch) error
	Delete(ctx context.Context, id string) error
}

// Preferences is client-local durable key/value storage.
type Preferences interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// ContentSink receives the content of the document that became current.
type ContentSink func(id, content string)

// Store is the session's source of truth for the document tree.
type Store struct {
	remote   Remote
	prefs    Preferences
	notifier Notifier
	sink     ContentSink
	logger   *slog.Logger
	newID    func(models.Kind) string
	now      func() time.Time

	loadAttempts  int
	loadBackoff   time.Duration
	mirrorTimeout time.Duration

	mirrors *mirrorQueue

	mu            sync.RWMutex
	roots         []*models.Node
	currentFileID string
	expanded      []string
	loading       bool
	lastCreatedAt int64

	seq      uint64
	fields   map[fieldKey]*fieldState
	tombs    map[string]*tomb
	rejected map[string]int
}

// New creates a store backed by remote. The tree starts empty; call Load.
func New(remote Remote, opts ...Option) *Store {
	s := &Store{
		remote:        remote,
		prefs:         newMemoryPreferences(),
		notifier:      LogNotifier(slog.Default()),
		logger:        slog.Default(),
		newID:         NewIDGenerator(),
		now:           time.Now,
		loadAttempts:  3,
		loadBackoff:   time.Second,
		mirrorTimeout: 15 * time.Second,
		roots:         []*models.Node{},
		fields:        make(map[fieldKey]*fieldState),
		tombs:         make(map[string]*tomb),
		rejected:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mirrors = newMirrorQueue()
	return s
}

// Close waits for queued mirrors to finish and stops the mirror worker.
// Mutations after Close return ErrClosed.
func (s *Store) Close() {
	s.mirrors.close()
}

// Flush blocks until every mirror queued before the call has completed.
func (s *Store) Flush(ctx context.Context) error {
	return s.mirrors.flush(ctx)
}

// Tree returns a copy of the forest.
func (s *Store) Tree() []*models.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneNodes(s.roots)
}

// FindNode returns a copy of the node with the given id, or nil.
func (s *Store) FindNode(id string) *models.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Find(s.roots, id).Clone()
}

// IsAncestor reports whether ancestorID appears on the parent chain of nodeID.
func (s *Store) IsAncestor(ancestorID, nodeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAncestorLocked(ancestorID, nodeID)
}

func (s *Store) isAncestorLocked(ancestorID, nodeID string) bool {
	if nodeID == "" {
		return false
	}
	current := models.Find(s.roots, nodeID)
	for current != nil && current.ParentID != "" {
		if current.ParentID == ancestorID {
			return true
		}
		current = models.Find(s.roots, current.ParentID)
	}
	return false
}

// CurrentFileID returns the selected file id, or "".
func (s *Store) CurrentFileID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentFileID
}

// CurrentFile returns a copy of the selected file, or nil.
func (s *Store) CurrentFile() *models.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentFileID == "" {
		return nil
	}
	return models.Find(s.roots, s.currentFileID).Clone()
}

// SetCurrentFileID selects id ("" clears the selection) and persists the
// choice. Selecting a file pushes its content to the content sink.
func (s *Store) SetCurrentFileID(id string) {
	s.mu.Lock()
	s.currentFileID = id
	node := models.Find(s.roots, id).Clone()
	s.mu.Unlock()

	s.persistSelection(id)
	if node != nil && node.Kind == models.KindFile {
		s.emit(node.ID, node.Content)
	}
}

// ExpandedKeys returns the ids of expanded folders.
func (s *Store) ExpandedKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.expanded)
}

// SetExpandedKeys replaces the expansion set.
func (s *Store) SetExpandedKeys(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = slices.Clone(keys)
}

// Rejections returns how many mirrors for id the authority has refused in
// this session. Callers compare counts around Flush to learn the outcome of
// their own changes.
func (s *Store) Rejections(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rejected[id]
}

// Loading reports whether a Load is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) persistSelection(id string) {
	var err error
	if id == "" {
		err = s.prefs.Remove(SelectionKey)
	} else {
		err = s.prefs.Set(SelectionKey, id)
	}
	if err != nil {
		s.logger.Warn("persist selection failed", slog.String("id", id), slog.String("error", err.Error()))
	}
}

func (s *Store) emit(id, content string) {
	if s.sink != nil {
		s.sink(id, content)
	}
}

func (s *Store) notify(n Notice) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}
