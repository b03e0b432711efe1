package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/starford/mdtree/internal"
	"github.com/starford/mdtree/internal/treestore"
)

// session is one loaded tree store plus the notices it raised.
type session struct {
	store *treestore.Store
	cfg   *internal.Config

	mu      sync.Mutex
	rejects int
}

// openSession loads the tree. Logs go to stderr so stdout stays clean for
// command output and the MCP transport.
func openSession(ctx context.Context, cmd *cli.Command, opts ...treestore.Option) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)

	s := &session{cfg: cfg}
	notify := treestore.NotifierFunc(func(n treestore.Notice) {
		s.mu.Lock()
		if n.Kind == treestore.NoticeMirror {
			s.rejects++
		}
		s.mu.Unlock()
		fmt.Fprintf(os.Stderr, "mdtree: %s\n", n.Message())
	})

	store, err := internal.OpenStore(cfg.Client, logger, append([]treestore.Option{treestore.WithNotifier(notify)}, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := store.Load(ctx); err != nil {
		store.Close()
		return nil, err
	}
	s.store = store
	return s, nil
}

// finish waits for every queued change to reach the server and reports
// whether any was rejected.
func (s *session) finish(ctx context.Context) error {
	err := s.store.Flush(ctx)
	s.store.Close()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejects > 0 {
		return fmt.Errorf("%d change(s) rejected by the server", s.rejects)
	}
	return nil
}

// readContent returns the file at path, or stdin when path is "" or "-".
func readContent(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
