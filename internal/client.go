package internal

import (
	"fmt"
	"log/slog"

	"github.com/starford/mdtree/internal/localstore"
	"github.com/starford/mdtree/internal/remote"
	"github.com/starford/mdtree/internal/treestore"
)

// OpenStore builds the session's tree store from the client settings: an
// HTTP remote for the authority and a state directory for preferences.
// The store is returned unloaded.
func OpenStore(cfg ClientConfig, logger *slog.Logger, opts ...treestore.Option) (*treestore.Store, error) {
	prefs, err := localstore.Open(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("open client state: %w", err)
	}

	base := []treestore.Option{
		treestore.WithPreferences(prefs),
		treestore.WithLogger(logger.With(slog.String("component", "treestore"))),
		treestore.WithNotifier(treestore.LogNotifier(logger)),
		treestore.WithLoadRetry(cfg.LoadAttempts, cfg.LoadBackoff),
		treestore.WithMirrorTimeout(cfg.MirrorTimeout),
	}
	client := remote.NewClient(cfg.RemoteURL, nil)
	return treestore.New(client, append(base, opts...)...), nil
}
