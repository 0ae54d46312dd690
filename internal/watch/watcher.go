// Package watch triggers a processing run whenever the input tree changes and
// then settles.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Triggers watches the input root recursively and sends a signal once the
// tree has been quiet for the debounce window after a change. Rapid bursts
// (a folder of files being copied in) coalesce into one trigger. The channel
// closes when ctx ends.
func Triggers(ctx context.Context, root string, debounce time.Duration, logger *slog.Logger) (<-chan struct{}, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addRecursive(w, root); err != nil {
		_ = w.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer func() {
			_ = w.Close()
		}()

		timer := time.NewTimer(debounce)
		if !timer.Stop() {
			<-timer.C
		}
		pending := false

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op.Has(fsnotify.Create) {
					// New subfolders need their own watch.
					_ = addRecursive(w, ev.Name)
				}
				if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Rename) {
					logger.Debug("watch.event", "op", ev.Op.String(), "path", ev.Name)
					if pending && !timer.Stop() {
						<-timer.C
					}
					timer.Reset(debounce)
					pending = true
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("watch.error", "error", err)
			case <-timer.C:
				pending = false
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// The path may have vanished between event and walk.
			return nil
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
