package broadcast

import "context"

// Message wraps broadcast payloads in a generic envelope, allowing type-safe
// broadcasting of any data type.
type Message[T any] struct {
	Data T
}

// Broadcaster sends messages to multiple subscribers.
type Broadcaster[T any] interface {
	// Broadcast delivers the message to all active subscribers.
	// Delivery is non-blocking; slow subscribers may miss messages.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Subscribe registers a new subscriber. The subscription is cleaned up
	// automatically when the provided context is cancelled.
	Subscribe(ctx context.Context) Subscriber[T]

	// Close shuts down the broadcaster and closes all subscriber channels.
	Close() error
}

// Subscriber receives broadcast messages.
type Subscriber[T any] interface {
	// Receive returns the channel messages are delivered on.
	// The channel is closed when the subscriber or broadcaster closes.
	Receive(ctx context.Context) <-chan Message[T]

	// Close unregisters the subscriber and closes its channel.
	Close() error
}
