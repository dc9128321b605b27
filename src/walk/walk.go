// Package walk performs a depth-first, pre-order traversal of a directory
// tree, pruned by a globset.DirMatcher so subtrees that can't contain a
// match are never opened.
package walk

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"gopkg.in/op/go-logging.v1"

	"github.com/thought-machine/globwalk/src/globset"
	"github.com/thought-machine/globwalk/src/metrics"
)

var log = logging.MustGetLogger("walk")

// Entry is one yielded directory or file, together with its path relative
// to the walk root, using `/` regardless of host OS.
type Entry struct {
	Dirent *godirwalk.Dirent
	Path   string
}

// WalkError wraps a filesystem error encountered partway through a walk.
// The walk continues past it unless it's the root itself.
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *WalkError) Unwrap() error {
	return e.Err
}

type options struct {
	followSymlinks bool
	unsorted       bool
}

// Option configures a Walk call.
type Option func(*options)

// FollowSymlinks makes the walker descend into symlinked directories.
// Off by default, matching the spec's "MUST default to not-follow to avoid
// cycles".
func FollowSymlinks() Option {
	return func(o *options) { o.followSymlinks = true }
}

// Unsorted lets the walker yield siblings in whatever order the filesystem
// reports them, skipping the (often significant) cost of sorting each
// directory's entries. Ordering between siblings is unspecified either way;
// this only affects performance.
func Unsorted() Option {
	return func(o *options) { o.unsorted = true }
}

// Walk traverses root depth-first, calling fn for every entry that matcher
// says should be yielded (see globset.DirMatcher for the exact pruning and
// yield rules). fn may return an error to abort the walk early; Walk then
// stops and returns that error unchanged. Cancelling ctx aborts the walk the
// same way, with ctx's error.
//
// Filesystem errors encountered mid-walk (permission denied, a vanished
// entry) are reported to fn as a *WalkError in place of a real Entry, and
// the walk continues; only a failure to open the root itself aborts
// immediately.
func Walk(ctx context.Context, root string, matcher *globset.DirMatcher, fn func(Entry, error) error, opts ...Option) error {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var visited, pruned, matched int
	defer func() { metrics.RecordWalk(visited, pruned, matched) }()

	// aborted is the error that stopped the walk early (ctx cancelled, or fn
	// returned an error). godirwalk also hands a Callback error to
	// ErrorCallback, which must not report it to fn as a filesystem error.
	var aborted error
	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted:            o.unsorted,
		FollowSymbolicLinks: o.followSymlinks,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				aborted = err
				return err
			}

			rel, err := relSlash(root, path)
			if err != nil {
				return err
			}

			if de.IsDir() {
				visited++
				// A directory that can't match, and under which nothing can
				// match, is skipped outright: no yield, no descent. (A
				// correctly built DirMatcher guarantees MatchDirectory is at
				// least as permissive as MatchPath for the same path, so
				// there's no case where the directory itself matches here.)
				if rel != "" && !matcher.MatchDirectory(rel) {
					pruned++
					return godirwalk.SkipThis
				}
			}

			if rel == "" || !matcher.MatchPath(rel) {
				return nil
			}
			matched++
			if err := fn(Entry{Dirent: de, Path: rel}, nil); err != nil {
				aborted = err
				return err
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			if aborted != nil {
				return godirwalk.Halt
			}
			rel, relErr := relSlash(root, path)
			if relErr != nil {
				rel = path
			}
			log.Warning("Error walking %s: %s", path, err)
			if cbErr := fn(Entry{}, &WalkError{Path: rel, Err: err}); cbErr != nil {
				aborted = cbErr
				return godirwalk.Halt
			}
			return godirwalk.SkipNode
		},
	})
	if aborted != nil {
		return aborted
	}
	if err != nil {
		return &WalkError{Path: root, Err: err}
	}
	return nil
}

func relSlash(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}
