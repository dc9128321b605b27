// Package watch arms a filesystem watcher on a walk root and re-runs a
// callback, debounced, whenever something under it changes. It has no
// opinion on what the callback does; the CLI uses it to re-run a walk and
// print all of its matches again.
package watch

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/karrick/godirwalk"
	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("watch")

// OnChange arms a watcher on root and calls fn once whenever filesystem
// events settle for at least debounce. It blocks until ctx is cancelled
// (returning ctx's error) or the watcher's channels are closed (returning
// nil). Errors the watcher reports while running are logged and do not stop
// it; only a failure to set the watcher up is returned as an error.
//
// The caller decides what "rebuild" means, since this package knows nothing
// about globs or walking.
func OnChange(ctx context.Context, root string, debounce time.Duration, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, root); err != nil {
		return err
	}

	id := uuid.New()
	log.Notice("[%s] watching %s", id, root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			log.Info("[%s] event: %s", id, event)
			drain(watcher, debounce)
			fn()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("[%s] watcher error: %s", id, err)
		}
	}
}

// drain discards events until none has arrived for debounce (each event
// restarts the wait), so a burst of writes (e.g. a checkout or a build)
// triggers one re-walk, not dozens.
func drain(watcher *fsnotify.Watcher, debounce time.Duration) {
	for {
		select {
		case <-watcher.Events:
		case <-time.After(debounce):
			return
		}
	}
}

// addRecursive adds a watch on root and every directory beneath it;
// fsnotify only watches the directories it's explicitly told about.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return watcher.Add(path)
			}
			return nil
		},
		Unsorted: true,
	})
}
