package reconcile

import (
	"context"
	"sync"
)

type commitQueueKey struct{}

// CommitQueue holds actions that may only happen once the transaction they
// belong to has committed, such as metrics and deliveries outside storage.
type CommitQueue struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

// WithCommitQueue returns a context carrying a fresh queue for AfterCommit.
func WithCommitQueue(ctx context.Context) (context.Context, *CommitQueue) {
	q := &CommitQueue{}
	return context.WithValue(ctx, commitQueueKey{}, q), q
}

// AfterCommit queues fn on the queue carried by ctx. Without a queue fn runs
// at once.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	q, ok := ctx.Value(commitQueueKey{}).(*CommitQueue)
	if !ok {
		fn(ctx)
		return
	}
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()
}

// Len returns the number of queued actions.
func (q *CommitQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fns)
}

// Flush runs the queued actions in order and empties the queue.
func (q *CommitQueue) Flush(ctx context.Context) {
	q.mu.Lock()
	fns := q.fns
	q.fns = nil
	q.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}

// Discard drops the queued actions.
func (q *CommitQueue) Discard() {
	q.mu.Lock()
	q.fns = nil
	q.mu.Unlock()
}
