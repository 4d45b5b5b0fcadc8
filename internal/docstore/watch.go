// AngelaMos | 2026
// watch.go

package docstore

import (
	"context"
	"log/slog"
	"sync"
)

type subscription struct {
	mu     sync.Mutex
	closed bool
	cancel context.CancelFunc
	once   sync.Once
	notify chan struct{}
}

func newSubscription(parent context.Context) (*subscription, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	return &subscription{
		cancel: cancel,
		notify: make(chan struct{}, 1),
	}, ctx
}

// deliver runs fn unless the subscription has been closed. Holding mu across
// fn is what lets unsubscribe wait out an in-flight callback.
func (s *subscription) deliver(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fn()
}

func (s *subscription) unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
	})
}

// poke coalesces change notifications: a pending one absorbs the next.
func (s *subscription) poke() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

type hubEntry struct {
	collection string
	id         string
	sub        *subscription
}

// hub fans write notifications out to in-process subscribers for drivers
// that have no native change stream.
type hub struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[uint64]hubEntry
}

func newHub() *hub {
	return &hub{entries: make(map[uint64]hubEntry)}
}

// watch starts a subscription goroutine. read is called once up front and
// again after every publish that touches the watched collection or
// document; the callback it returns is delivered to the subscriber. An
// empty id watches the whole collection.
func (h *hub) watch(
	ctx context.Context,
	collection, id string,
	read func(ctx context.Context) (func(), error),
) Unsubscribe {
	sub, subCtx := newSubscription(ctx)

	h.mu.Lock()
	h.nextID++
	key := h.nextID
	h.entries[key] = hubEntry{collection: collection, id: id, sub: sub}
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.entries, key)
			h.mu.Unlock()
		}()

		for {
			cb, err := read(subCtx)
			switch {
			case err == nil:
				sub.deliver(cb)
			case subCtx.Err() == nil:
				slog.Warn("document watch read failed",
					"collection", collection,
					"id", id,
					"error", err,
				)
			}

			select {
			case <-subCtx.Done():
				return
			case <-sub.notify:
			}
		}
	}()

	return sub.unsubscribe
}

func (h *hub) publish(collection, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, e := range h.entries {
		if e.collection != collection {
			continue
		}
		if e.id != "" && e.id != id {
			continue
		}
		e.sub.poke()
	}
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
