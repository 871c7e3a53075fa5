package device

import (
	"sync"
	"sync/atomic"
)

// defaultSignalBuffer is the per-subscriber channel capacity used when
// Subscribe is called with a non-positive buffer size. It comfortably covers
// the bounded 100-sample trailing window the controller keeps.
const defaultSignalBuffer = 256

// Signal is a fan-out hub for one device event stream.
//
// Each subscriber receives events on its own buffered channel in emit order.
// If a subscriber falls behind and its buffer fills, new events for that
// subscriber are dropped (the device keeps producing regardless; a stalled
// consumer must not block the transport callback).
//
// Thread Safety: all methods are safe for concurrent use.
type Signal[T any] struct {
	mu   sync.Mutex
	subs map[*Subscription[T]]struct{}
}

// NewSignal creates an empty signal hub.
func NewSignal[T any]() *Signal[T] {
	return &Signal[T]{subs: make(map[*Subscription[T]]struct{})}
}

// Subscribe registers a new subscriber and returns its subscription.
//
// buffer is the subscriber channel capacity; values <= 0 select the default.
// The caller must Close() the subscription on every exit path to release it.
func (s *Signal[T]) Subscribe(buffer int) *Subscription[T] {
	if buffer <= 0 {
		buffer = defaultSignalBuffer
	}
	ch := make(chan T, buffer)
	sub := &Subscription[T]{C: ch, ch: ch, signal: s}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	return sub
}

// Emit delivers v to every current subscriber without blocking.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subs {
		select {
		case sub.ch <- v:
		default:
			sub.dropped.Add(1)
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (s *Signal[T]) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Signal[T]) remove(sub *Subscription[T]) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

// Subscription is one subscriber's scoped view of a Signal.
type Subscription[T any] struct {
	// C delivers events in emit order.
	C <-chan T

	ch      chan T
	signal  *Signal[T]
	once    sync.Once
	dropped atomic.Uint64
}

// Close releases the subscription. No further events are delivered after
// Close returns; events already buffered in C remain readable. Close is
// idempotent.
func (sub *Subscription[T]) Close() {
	sub.once.Do(func() {
		sub.signal.remove(sub)
	})
}

// Dropped returns the number of events discarded because the subscriber's
// buffer was full.
func (sub *Subscription[T]) Dropped() uint64 {
	return sub.dropped.Load()
}
