package capsql

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Event is one statement reported by a data source at the connection level.
type Event struct {
	SQL    string
	Args   []any
	Time   time.Time
	Source string
}

// Listener receives statement events. HandleStatement runs synchronously on
// the goroutine executing the statement and must not block.
type Listener interface {
	HandleStatement(ctx context.Context, ev Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, ev Event)

func (f ListenerFunc) HandleStatement(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// Source is a data source exposing a connection-level execution hook.
// Subscribe returns a function that removes the listener; calling it more
// than once is a no-op.
type Source interface {
	Subscribe(l Listener) (unsubscribe func(), err error)
}

// Hub fans events out to subscribed listeners. The zero value is ready to use
// and bindings embed it to implement Source.
type Hub struct {
	mu   sync.Mutex
	subs atomic.Pointer[[]*subscription]
}

type subscription struct {
	l Listener
}

// Subscribe implements Source.
func (h *Hub) Subscribe(l Listener) (func(), error) {
	s := &subscription{l: l}

	h.mu.Lock()
	var cur []*subscription
	if p := h.subs.Load(); p != nil {
		cur = *p
	}
	next := make([]*subscription, 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, s)
	h.subs.Store(&next)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(s) })
	}, nil
}

func (h *Hub) remove(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := h.subs.Load()
	if p == nil {
		return
	}
	next := make([]*subscription, 0, len(*p))
	for _, c := range *p {
		if c != s {
			next = append(next, c)
		}
	}
	h.subs.Store(&next)
}

// Listening reports whether anyone is subscribed.
func (h *Hub) Listening() bool {
	p := h.subs.Load()
	return p != nil && len(*p) > 0
}

// Publish delivers ev to every listener in subscription order.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	p := h.subs.Load()
	if p == nil || len(*p) == 0 {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	for _, s := range *p {
		s.l.HandleStatement(ctx, ev)
	}
}
