package treestore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/starford/mdtree/internal/models"
)

// Load replaces the tree with the authority's record set.
//
// The fetch is tried up to the configured number of attempts with a fixed
// pause between them. When every attempt fails a connectivity notice is
// raised, the tree is left as it was, and the last error is returned.
func (s *Store) Load(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	var (
		records []models.Record
		err     error
	)
	for attempt := 1; attempt <= s.loadAttempts; attempt++ {
		records, err = s.remote.List(ctx)
		if err == nil {
			break
		}
		s.logger.Warn("load attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", s.loadAttempts),
			slog.String("error", err.Error()),
		)
		if attempt == s.loadAttempts {
			break
		}
		if werr := waitWithContext(ctx, s.loadBackoff); werr != nil {
			err = werr
			break
		}
	}
	if err != nil {
		s.notify(Notice{Kind: NoticeConnectivity, Err: err})
		return fmt.Errorf("treestore: load: %w", err)
	}

	s.install(models.BuildTree(records))
	s.logger.Info("tree loaded", slog.Int("records", len(records)))
	return nil
}

// install swaps in a freshly built forest and reconciles session state.
func (s *Store) install(roots []*models.Node) {
	saved, hasSaved, err := s.prefs.Get(SelectionKey)
	if err != nil {
		s.logger.Warn("read selection failed", slog.String("error", err.Error()))
		hasSaved = false
	}

	s.mu.Lock()
	s.roots = roots
	// The fresh record set is the authority's state; in-flight bookkeeping
	// from before it no longer applies.
	s.fields = make(map[fieldKey]*fieldState)
	s.tombs = make(map[string]*tomb)
	s.expanded = slices.DeleteFunc(s.expanded, func(id string) bool {
		n := models.Find(roots, id)
		return n == nil || !n.IsFolder()
	})
	var restored *models.Node
	if hasSaved {
		if n := models.Find(roots, saved); n != nil && n.Kind == models.KindFile {
			restored = n.Clone()
		}
	}
	if restored != nil {
		s.currentFileID = restored.ID
	} else if s.currentFileID != "" {
		if n := models.Find(roots, s.currentFileID); n == nil || n.Kind != models.KindFile {
			s.currentFileID = ""
		}
	}
	s.mu.Unlock()

	if restored != nil {
		s.emit(restored.ID, restored.Content)
	}
}

func waitWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
