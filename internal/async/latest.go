// Package async holds the small concurrency primitives the session layer is
// built on: a latest-wins guard for effects keyed by changing input and a
// clock-driven debouncer.
package async

import (
	"context"
	"sync"
)

// Latest hands out tickets for successive invocations of one effect. Starting
// a new invocation cancels the previous one's context and makes its ticket
// stale, so a slow result can never be committed over a newer one.
type Latest struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Ticket identifies one invocation.
type Ticket struct {
	owner *Latest
	gen   uint64
}

// Begin starts a new invocation derived from ctx. The previous invocation, if
// any, is canceled.
func (l *Latest) Begin(ctx context.Context) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	l.cancel = cancel
	return ctx, Ticket{owner: l, gen: l.gen}
}

// Cancel supersedes the current invocation without starting another.
func (l *Latest) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
}

// Current reports whether no invocation was begun or canceled after t.
func (t Ticket) Current() bool {
	if t.owner == nil {
		return false
	}
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return t.owner.gen == t.gen
}
