// Package realtime pushes full collection snapshots to subscribers whenever
// the collection changes.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/logging"
	"github.com/dmitrijs2005/sheetsync/internal/mirror"
)

// Fetcher reads the current contents of a collection.
type Fetcher interface {
	Snapshot(ctx context.Context, collection string) (mirror.Snapshot, error)
}

// Source blocks until some collection changes and returns its name.
type Source interface {
	Next(ctx context.Context) (string, error)
}

// Hub fans change notifications out to per-collection subscriptions.
type Hub struct {
	fetch Fetcher
	log   logging.Logger
	seq   atomic.Uint64

	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	failed error
}

func NewHub(fetch Fetcher, log logging.Logger) *Hub {
	return &Hub{
		fetch: fetch,
		log:   log.With("module", "realtime"),
		subs:  make(map[string]map[*Subscription]struct{}),
	}
}

// Run consumes src until ctx is done. When src fails every subscriber gets
// the error and Run returns it.
func (h *Hub) Run(ctx context.Context, src Source) error {
	for {
		collection, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			err = fmt.Errorf("%w: change feed: %v", common.ErrNetwork, err)
			h.log.Error(ctx, "change feed stopped", "error", err)
			h.Fail(err)
			return err
		}
		h.refresh(ctx, collection)
	}
}

// Fail marks the hub as without a change feed. Every current subscription
// gets err, and later ones get err instead of a snapshot.
func (h *Hub) Fail(err error) {
	h.mu.Lock()
	h.failed = err
	h.mu.Unlock()
	h.failAll(err)
}

// Err returns the failure recorded by Fail, if any.
func (h *Hub) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failed
}

// Subscribe registers a subscriber and delivers the current snapshot before
// returning. On a failed hub the failure is delivered instead. The
// subscription ends on Close or when ctx is done.
func (h *Hub) Subscribe(ctx context.Context, collection string) (*Subscription, error) {
	sub := &Subscription{
		hub:        h,
		collection: collection,
		updates:    make(chan mirror.Snapshot, 1),
		errs:       make(chan error, 1),
		done:       make(chan struct{}),
	}

	h.mu.Lock()
	set, ok := h.subs[collection]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[collection] = set
	}
	set[sub] = struct{}{}
	failed := h.failed
	h.mu.Unlock()

	if failed != nil {
		sub.fail(failed)
	} else {
		seq := h.seq.Add(1)
		snap, err := h.fetch.Snapshot(ctx, collection)
		if err != nil {
			sub.Close()
			return nil, err
		}
		sub.push(seq, snap)
	}

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// Subscribers reports the live subscriptions of collection.
func (h *Hub) Subscribers(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[collection])
}

func (h *Hub) snapshotOf(collection string) []*Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Subscription, 0, len(h.subs[collection]))
	for s := range h.subs[collection] {
		out = append(out, s)
	}
	return out
}

func (h *Hub) refresh(ctx context.Context, collection string) {
	subs := h.snapshotOf(collection)
	if len(subs) == 0 {
		return
	}

	seq := h.seq.Add(1)
	snap, err := h.fetch.Snapshot(ctx, collection)
	if err != nil {
		h.log.Warn(ctx, "snapshot failed", "collection", collection, "error", err)
		for _, s := range subs {
			s.fail(err)
		}
		return
	}
	for _, s := range subs {
		s.push(seq, snap)
	}
}

func (h *Hub) failAll(err error) {
	h.mu.Lock()
	var all []*Subscription
	for _, set := range h.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	h.mu.Unlock()

	for _, s := range all {
		s.fail(err)
	}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[s.collection]
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.collection)
	}
}

// Subscription receives snapshots of one collection. It holds at most one
// undelivered snapshot; a newer one replaces it.
type Subscription struct {
	hub        *Hub
	collection string

	updates chan mirror.Snapshot
	errs    chan error
	done    chan struct{}

	mu      sync.Mutex
	lastSeq uint64
	once    sync.Once
}

func (s *Subscription) Collection() string { return s.collection }

// Updates delivers full snapshots, latest state first.
func (s *Subscription) Updates() <-chan mirror.Snapshot { return s.updates }

// Errors delivers subscription failures.
func (s *Subscription) Errors() <-chan error { return s.errs }

// Done is closed once the subscription is released.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		s.mu.Lock()
		close(s.done)
		s.mu.Unlock()
	})
}

func (s *Subscription) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Subscription) push(seq uint64, snap mirror.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed() || seq < s.lastSeq {
		return
	}
	s.lastSeq = seq

	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed() {
		return
	}
	select {
	case <-s.errs:
	default:
	}
	s.errs <- err
}

// ErrClosed is returned by Next on a closed subscription.
var ErrClosed = errors.New("subscription closed")

// Next blocks for the next snapshot or error.
func (s *Subscription) Next(ctx context.Context) (mirror.Snapshot, error) {
	select {
	case snap := <-s.updates:
		return snap, nil
	case err := <-s.errs:
		return nil, err
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
