package treestore

import (
	"log/slog"
	"time"

	"github.com/starford/mdtree/internal/models"
)

// Option configures a Store.
type Option func(*Store)

// WithPreferences sets the durable storage used for the selection.
func WithPreferences(p Preferences) Option {
	return func(s *Store) {
		if p != nil {
			s.prefs = p
		}
	}
}

// WithNotifier sets where user-visible notices go.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// WithContentSink sets the receiver of the current document's content.
func WithContentSink(sink ContentSink) Option {
	return func(s *Store) {
		s.sink = sink
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLoadRetry sets how many times Load tries and the fixed pause between tries.
func WithLoadRetry(attempts int, backoff time.Duration) Option {
	return func(s *Store) {
		if attempts > 0 {
			s.loadAttempts = attempts
		}
		if backoff >= 0 {
			s.loadBackoff = backoff
		}
	}
}

// WithMirrorTimeout bounds each mirror call.
func WithMirrorTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.mirrorTimeout = d
		}
	}
}

// WithIDGenerator replaces the node id generator.
func WithIDGenerator(gen func(models.Kind) string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithClock replaces the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
