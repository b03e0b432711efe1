package treestore

import (
	"fmt"
	"log/slog"
)

// NoticeKind classifies a user-visible notice.
type NoticeKind string

const (
	// NoticeConnectivity is raised when Load gives up.
	NoticeConnectivity NoticeKind = "connectivity"
	// NoticeMirror is raised when the authority rejects a mutation.
	NoticeMirror NoticeKind = "mirror"
)

// Notice describes a failure the user should see.
type Notice struct {
	Kind NoticeKind
	Op   string // create, delete, rename, update content; empty for load
	ID   string
	Err  error
}

// Message renders n for display.
func (n Notice) Message() string {
	switch n.Kind {
	case NoticeConnectivity:
		return fmt.Sprintf("could not reach the document server: %v", n.Err)
	case NoticeMirror:
		return fmt.Sprintf("%s %s failed, local change reverted: %v", n.Op, n.ID, n.Err)
	default:
		return fmt.Sprintf("%s: %v", n.Kind, n.Err)
	}
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to logger at warn level.
func LogNotifier(logger *slog.Logger) Notifier {
	return NotifierFunc(func(n Notice) {
		logger.Warn(n.Message(),
			slog.String("kind", string(n.Kind)),
			slog.String("op", n.Op),
			slog.String("id", n.ID),
		)
	})
}
