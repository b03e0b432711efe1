// Package fileservice is the document authority's domain layer: it sits
// between the HTTP API and the record store and announces every change.
package fileservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/mdtree/internal/apperr"
	"github.com/starford/mdtree/internal/models"
	"github.com/starford/mdtree/internal/recordstore"
	"github.com/starford/mdtree/internal/sse"
)

// Publisher receives change notifications.
type Publisher interface {
	PublishFileEvent(kind sse.FileEventKind, ids ...string)
}

// Service coordinates the record store and change publication.
type Service struct {
	db     recordstore.RecordStore
	events Publisher
	logger *slog.Logger
}

// NewService creates a new file service. events may be nil.
func NewService(db recordstore.RecordStore, events Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, events: events, logger: logger}
}

// List returns every record ordered by creation time.
func (s *Service) List(ctx context.Context) ([]models.Record, error) {
	return s.db.ListAll(ctx)
}

// Create stores a new record. An unknown parent is accepted; clients
// promote such records to the root when they rebuild the tree.
func (s *Service) Create(ctx context.Context, rec models.Record) error {
	if rec.ParentID != nil && *rec.ParentID == "" {
		rec.ParentID = nil
	}
	if rec.Kind == models.KindFolder {
		rec.Content = nil
	}
	switch {
	case rec.ID == "":
		return fmt.Errorf("fileservice: create: empty id: %w", apperr.ErrInvalidRecord)
	case !rec.Kind.Valid():
		return fmt.Errorf("fileservice: create %s: type %q: %w", rec.ID, rec.Kind, apperr.ErrInvalidRecord)
	case rec.ParentID != nil && *rec.ParentID == rec.ID:
		return fmt.Errorf("fileservice: create %s: own parent: %w", rec.ID, apperr.ErrInvalidRecord)
	}
	if err := s.db.Create(ctx, rec); err != nil {
		return err
	}
	s.logger.Debug("file created", slog.String("id", rec.ID), slog.String("type", string(rec.Kind)))
	s.publish(sse.FileCreated, rec.ID)
	return nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id string, patch models.FilePatch) error {
	if patch.Empty() {
		return nil
	}
	if err := s.db.Update(ctx, id, patch); err != nil {
		return err
	}
	s.logger.Debug("file updated",
		slog.String("id", id),
		slog.Bool("title", patch.Title != nil),
		slog.Bool("content", patch.Content != nil))
	s.publish(sse.FileUpdated, id)
	return nil
}

// Delete removes id and its whole subtree.
func (s *Service) Delete(ctx context.Context, id string) ([]string, error) {
	deleted, err := s.db.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("file deleted", slog.String("id", id), slog.Int("count", len(deleted)))
	s.publish(sse.FileDeleted, deleted...)
	return deleted, nil
}

func (s *Service) publish(kind sse.FileEventKind, ids ...string) {
	if s.events != nil {
		s.events.PublishFileEvent(kind, ids...)
	}
}
