// Package lock serializes workflow operations per customer.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrLost is the cancellation cause of a held context whose lock could no
// longer be confirmed. Work done under it must not be saved.
var ErrLost = errors.New("lock lost")

// Locker hands out exclusive per-key locks. Lock blocks until the key is free
// or ctx is done. The returned context stays valid while the lock is held and
// is cancelled with ErrLost if ownership lapses; unlock is safe to call twice.
type Locker interface {
	Lock(ctx context.Context, key string) (held context.Context, unlock func(), err error)
}

// Keyed is an in-process Locker. Entries are dropped once no goroutine holds
// or waits for them, so idle customers cost nothing.
type Keyed struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	held chan struct{}
	refs int
}

func NewKeyed() *Keyed {
	return &Keyed{slots: make(map[string]*slot)}
}

// Lock never loses ownership, so the held context is ctx itself.
func (k *Keyed) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{held: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.held <- struct{}{}:
	case <-ctx.Done():
		k.release(key, s)
		return nil, nil, ctx.Err()
	}

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			<-s.held
			k.release(key, s)
		})
	}, nil
}

func (k *Keyed) release(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// size reports tracked keys; used by tests.
func (k *Keyed) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
