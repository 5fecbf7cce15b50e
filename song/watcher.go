package song

import (
	"context"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"go-segue/debug"
)

// Watcher notifies when song files change on disk (external edits, syncs),
// so the library screen can refresh its list. Events are coalesced: the
// channel has capacity 1 and bursts collapse into a single notification.
type Watcher struct {
	dir     string
	changes chan struct{}
}

// NewWatcher creates a watcher for the store's directory
func NewWatcher(st *Store) *Watcher {
	return &Watcher{
		dir:     st.Dir(),
		changes: make(chan struct{}, 1),
	}
}

// Changes returns the coalesced change notification channel
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Run watches until ctx is cancelled (blocking - run in goroutine).
// If the directory doesn't exist yet it retries until it does.
func (w *Watcher) Run(ctx context.Context) {
	for {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			debug.Log("watch", "fsnotify init: %v", err)
			return
		}

		if err := fw.Add(w.dir); err != nil {
			// Directory may not exist until the first save
			fw.Close()
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				continue
			}
		}

		debug.Log("watch", "watching %s", w.dir)
		if done := w.consume(ctx, fw); done {
			fw.Close()
			return
		}
		// Watch broke (dir removed, error stream closed) - rebuild it
		fw.Close()
	}
}

// consume drains one watcher until ctx cancellation (true) or failure (false)
func (w *Watcher) consume(ctx context.Context, fw *fsnotify.Watcher) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case event, ok := <-fw.Events:
			if !ok {
				return false
			}
			if !strings.HasSuffix(strings.ToLower(event.Name), ".json") {
				continue
			}
			debug.Log("watch", "%s %s", event.Op, event.Name)
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return false
			}
			debug.Log("watch", "error: %v", err)
		}
	}
}
