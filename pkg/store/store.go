// Package store provides typed access to the two storage scopes used by the
// application. Every write replaces the whole value of a key and is announced
// to subscribers after it completes.
package store

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/interfaces"
)

type Scope string

const (
	// ScopeSession is cleared when the process ends
	ScopeSession Scope = "session"
	// ScopeDurable survives restarts
	ScopeDurable Scope = "durable"
)

// Change describes one completed write
type Change struct {
	Scope   Scope
	Key     string
	Removed bool
}

// Store routes reads and writes to the backend of each scope
type Store struct {
	backends map[Scope]interfaces.KV

	// per scope/key mutexes, *sync.Mutex
	locks sync.Map

	subMu   sync.RWMutex
	subs    map[int]func(context.Context, Change)
	nextSub int
}

// New creates a Store. The backends may be the same instance.
func New(session, durable interfaces.KV) *Store {
	return &Store{
		backends: map[Scope]interfaces.KV{
			ScopeSession: session,
			ScopeDurable: durable,
		},
		subs: make(map[int]func(context.Context, Change)),
	}
}

func (s *Store) backend(scope Scope) (interfaces.KV, error) {
	kv, ok := s.backends[scope]
	if !ok || kv == nil {
		return nil, goerr.New("unknown storage scope", goerr.V("scope", scope))
	}
	return kv, nil
}

func (s *Store) lock(scope Scope, key string) func() {
	v, _ := s.locks.LoadOrStore(string(scope)+"/"+key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Get returns the raw value of key. The boolean is false if the key is absent.
func (s *Store) Get(ctx context.Context, scope Scope, key string) (string, bool, error) {
	kv, err := s.backend(scope)
	if err != nil {
		return "", false, err
	}

	v, ok, err := kv.Get(ctx, key)
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to read storage", goerr.V("scope", scope), goerr.V("key", key))
	}
	return v, ok, nil
}

// Set overwrites key with value and notifies subscribers
func (s *Store) Set(ctx context.Context, scope Scope, key, value string) error {
	unlock := s.lock(scope, key)
	err := s.set(ctx, scope, key, value)
	unlock()
	if err != nil {
		return err
	}

	s.publish(ctx, Change{Scope: scope, Key: key})
	return nil
}

func (s *Store) set(ctx context.Context, scope Scope, key, value string) error {
	kv, err := s.backend(scope)
	if err != nil {
		return err
	}
	if err := kv.Set(ctx, key, value); err != nil {
		return goerr.Wrap(err, "failed to write storage", goerr.V("scope", scope), goerr.V("key", key))
	}
	return nil
}

// Remove deletes key and notifies subscribers
func (s *Store) Remove(ctx context.Context, scope Scope, key string) error {
	kv, err := s.backend(scope)
	if err != nil {
		return err
	}

	unlock := s.lock(scope, key)
	err = kv.Remove(ctx, key)
	unlock()
	if err != nil {
		return goerr.Wrap(err, "failed to remove storage key", goerr.V("scope", scope), goerr.V("key", key))
	}

	s.publish(ctx, Change{Scope: scope, Key: key, Removed: true})
	return nil
}

// Subscribe registers fn to be called after every write. Callbacks run on the
// writer's goroutine and must not block. The returned function unregisters fn.
func (s *Store) Subscribe(fn func(context.Context, Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) publish(ctx context.Context, c Change) {
	s.subMu.RLock()
	fns := make([]func(context.Context, Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(ctx, c)
	}
}
