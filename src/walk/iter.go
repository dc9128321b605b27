package walk

import (
	"context"

	"github.com/thought-machine/globwalk/src/globset"
)

// item is one element of the lazy sequence: either a successful Entry or a
// WalkError, never both.
type item struct {
	entry Entry
	err   error
}

// Iter is a lazy, pull-based view over a walk: entries are only produced as
// fast as the caller consumes them via Next. Construction starts the
// traversal in a background goroutine; abandoning the Iter without draining
// it (Stop, or simply letting it be garbage collected after cancelling its
// context) releases the walker's filesystem handles, since cancellation
// propagates down to the blocking godirwalk call between callbacks.
type Iter struct {
	cancel context.CancelFunc
	items  chan item
	done   chan struct{}
}

// NewIter starts walking root in the background and returns an Iter to pull
// results from. The walk is cancelled, and its goroutine released, when the
// returned Iter's Stop method is called or its parent context is done.
func NewIter(ctx context.Context, root string, matcher *globset.DirMatcher, opts ...Option) *Iter {
	ctx, cancel := context.WithCancel(ctx)
	it := &Iter{
		cancel: cancel,
		items:  make(chan item),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(it.done)
		err := Walk(ctx, root, matcher, func(e Entry, err error) error {
			select {
			case it.items <- item{entry: e, err: err}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}, opts...)
		// Apart from a cancelled walk (ctx is then done, so the select below
		// usually drops that error), Walk only returns an error itself for the
		// one case it can't deliver through fn: the root couldn't be opened
		// at all. Surface that as a final item rather than silently ending
		// the sequence, which would be indistinguishable from an empty tree.
		if err != nil {
			select {
			case it.items <- item{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return it
}

// Next blocks until the next entry is available, the walk finishes, or ctx
// passed at construction is cancelled. The second return value is false
// once the sequence is exhausted; callers should stop calling Next at that
// point.
func (it *Iter) Next() (Entry, error, bool) {
	select {
	case i := <-it.items:
		return i.entry, i.err, true
	case <-it.done:
		return Entry{}, nil, false
	}
}

// Stop cancels the underlying walk and waits for its goroutine to exit.
// It's safe to call more than once, and safe to skip if the Iter was
// already drained to completion via Next.
func (it *Iter) Stop() {
	it.cancel()
	<-it.done
}
