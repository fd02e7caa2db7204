package broadcast

import (
	"context"
	"sync"
)

// MemoryBroadcaster is an in-memory Broadcaster implementation with
// non-blocking delivery and automatic subscriber cleanup.
type MemoryBroadcaster[T any] struct {
	mu         sync.RWMutex
	subs       map[*memorySubscriber[T]]struct{}
	bufferSize int
	closed     bool
}

// NewMemoryBroadcaster creates an in-memory broadcaster. Each subscriber gets
// its own buffered channel of the given size; messages are dropped for
// subscribers whose buffer is full rather than blocking the broadcast.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &MemoryBroadcaster[T]{
		subs:       make(map[*memorySubscriber[T]]struct{}),
		bufferSize: bufferSize,
	}
}

// Broadcast delivers the message to all active subscribers without blocking.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBroadcasterClosed
	}

	for sub := range b.subs {
		select {
		case sub.ch <- msg:
		default:
			// Subscriber buffer full; drop rather than block the broadcaster.
		}
	}
	return nil
}

// Subscribe registers a new subscriber. The subscription is removed when the
// context is cancelled or the subscriber is closed.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	sub := &memorySubscriber[T]{
		parent: b,
		ch:     make(chan Message[T], b.bufferSize),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		sub.closed = true
		return sub
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()

	return sub
}

// Close shuts down the broadcaster and closes all subscriber channels.
// Safe to call multiple times.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for sub := range b.subs {
		sub.mu.Lock()
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
		sub.mu.Unlock()
	}
	b.subs = nil
	return nil
}

func (b *MemoryBroadcaster[T]) unsubscribe(sub *memorySubscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	delete(b.subs, sub)
}

type memorySubscriber[T any] struct {
	parent *MemoryBroadcaster[T]
	ch     chan Message[T]
	mu     sync.Mutex
	closed bool
}

func (s *memorySubscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

// Close unregisters the subscriber and closes its channel. Safe to call
// multiple times and safe to call after the broadcaster has closed.
func (s *memorySubscriber[T]) Close() error {
	s.parent.unsubscribe(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.ch)
	return nil
}
