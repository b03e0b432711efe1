// Package filesync mirrors a local Markdown file into a tree store document.
package filesync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/mdtree/internal/checksum"
)

// debounce collapses the bursts of events editors emit for one save.
const debounce = 100 * time.Millisecond

// ContentUpdater is the part of the tree store Watch needs.
type ContentUpdater interface {
	UpdateContent(id, content string) error
	Flush(ctx context.Context) error
	Rejections(id string) int
}

// PushCallback is called after each content push with the new checksum.
type PushCallback func(id, sum string)

// Watch follows path until ctx is cancelled and pushes every saved change
// to document id. A save whose checksum matches the last accepted (or
// initial) content is skipped; a save the authority rejected is pushed
// again the next time the file is written.
//
// The parent directory is watched rather than the file itself so editors
// that save by renaming a temp file over the original keep working.
func Watch(ctx context.Context, store ContentUpdater, id, path string, logger *slog.Logger, cb PushCallback) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("filesync: resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("filesync: watch %s: %w", filepath.Dir(abs), err)
	}

	last := ""
	if data, readErr := os.ReadFile(abs); readErr == nil {
		last = checksum.Sum(data)
	}

	logger.Info("filesync: started", slog.String("id", id), slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("filesync: stopped", slog.String("id", id))
			return nil

		case <-fire:
			data, readErr := os.ReadFile(abs)
			if errors.Is(readErr, fs.ErrNotExist) {
				continue
			}
			if readErr != nil {
				logger.Warn("filesync: read failed", slog.String("path", abs), slog.String("error", readErr.Error()))
				continue
			}
			sum := checksum.Sum(data)
			if sum == last {
				continue
			}
			rejected := store.Rejections(id)
			if upErr := store.UpdateContent(id, string(data)); upErr != nil {
				logger.Warn("filesync: update failed", slog.String("id", id), slog.String("error", upErr.Error()))
				continue
			}
			if flushErr := store.Flush(ctx); flushErr != nil {
				logger.Warn("filesync: flush failed", slog.String("id", id), slog.String("error", flushErr.Error()))
				continue
			}
			if store.Rejections(id) != rejected {
				logger.Warn("filesync: change rejected", slog.String("id", id), slog.String("checksum", sum))
				continue
			}
			last = sum
			logger.Debug("filesync: pushed", slog.String("id", id), slog.String("checksum", sum))
			if cb != nil {
				cb(id, sum)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("filesync: error", slog.String("error", watchErr.Error()))
		}
	}
}

// Export writes content to path, replacing it atomically.
func Export(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filesync: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".mdtree-tmp-*")
	if err != nil {
		return fmt.Errorf("filesync: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("filesync: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("filesync: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("filesync: rename: %w", err)
	}
	return nil
}
