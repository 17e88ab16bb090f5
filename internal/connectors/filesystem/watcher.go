package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// DefaultDebounce coalesces editor save bursts.
const DefaultDebounce = 500 * time.Millisecond

// ChangeType tells whether a source was written or removed.
type ChangeType int

// Change types.
const (
	ChangeUpserted ChangeType = iota
	ChangeRemoved
)

// String returns the change type name.
func (c ChangeType) String() string {
	if c == ChangeRemoved {
		return "removed"
	}
	return "upserted"
}

// Change is one file-level event after debouncing.
type Change struct {
	Type     ChangeType
	SourceID string
	Path     string

	// Source is set for upserts.
	Source domain.SourceText
}

// Watch reports changes under the root until ctx ends. Directories created
// after the call are watched too. The channel closes when ctx ends.
func (r *Reader) Watch(ctx context.Context, debounce time.Duration) (<-chan Change, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := r.addTree(w, r.root); err != nil {
		_ = w.Close()
		return nil, err
	}

	out := make(chan Change, 64)
	go r.loop(ctx, w, debounce, out)
	return out, nil
}

func (r *Reader) loop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, out chan<- Change) {
	defer close(out)
	defer w.Close() //nolint:errcheck

	pending := make(map[string]fsnotify.Op)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	flush := func() {
		for path, op := range pending {
			delete(pending, path)
			change := r.handleFsEvent(fsnotify.Event{Name: path, Op: op})
			if change == nil {
				continue
			}
			select {
			case out <- *change:
			case <-ctx.Done():
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !isHidden(ev.Name) {
					if err := r.addTree(w, ev.Name); err != nil {
						logger.Warn("watch: %v", err)
					}
					continue
				}
			}
			pending[ev.Name] |= ev.Op
			if debounce <= 0 {
				flush()
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			flush()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// handleFsEvent converts a (possibly merged) event into a change.
// Returns nil for events that do not affect an accepted file.
func (r *Reader) handleFsEvent(ev fsnotify.Event) *Change {
	if !r.Accepts(ev.Name) {
		return nil
	}
	id := r.SourceID(ev.Name)

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		if _, err := os.Stat(ev.Name); err != nil {
			return &Change{Type: ChangeRemoved, SourceID: id, Path: ev.Name}
		}
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
		return nil
	}

	text, err := r.Read(ev.Name)
	if err != nil {
		logger.Debug("watch: skip %s: %v", ev.Name, err)
		return nil
	}
	return &Change{Type: ChangeUpserted, SourceID: id, Path: ev.Name, Source: text}
}

func (r *Reader) addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != r.root && isHidden(path) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
