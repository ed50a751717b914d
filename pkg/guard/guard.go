// Package guard provides the platform-wide reentrancy guard held across every
// operation that mutates lending state or calls into the value ledger.
package guard

import (
	"context"
	"errors"
	"sync/atomic"
)

var ErrReentrantCall = errors.New("reentrant call")

type holdKey struct{}

type hold struct {
	g        *Guard
	released atomic.Bool
}

// Guard admits one operation at a time. Callers queue on Enter; a call made with
// a context that already holds the guard fails with ErrReentrantCall instead of
// deadlocking.
type Guard struct {
	sem chan struct{}
}

func New() *Guard { return &Guard{sem: make(chan struct{}, 1)} }

// Enter acquires the guard. The returned context marks the hold and must be
// passed to everything running under it; release must be called on every exit
// path and is safe to call more than once.
func (g *Guard) Enter(ctx context.Context) (context.Context, func(), error) {
	if h, ok := ctx.Value(holdKey{}).(*hold); ok && h.g == g && !h.released.Load() {
		return ctx, func() {}, ErrReentrantCall
	}
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx, func() {}, ctx.Err()
	}
	h := &hold{g: g}
	release := func() {
		if h.released.CompareAndSwap(false, true) {
			<-g.sem
		}
	}
	return context.WithValue(ctx, holdKey{}, h), release, nil
}

// Held reports whether some operation currently holds the guard.
func (g *Guard) Held() bool { return len(g.sem) == cap(g.sem) }
