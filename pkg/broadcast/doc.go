// Package broadcast provides a generic pub/sub messaging system with pluggable backends.
//
// This package supports in-memory broadcasting with automatic cleanup and non-blocking
// message delivery to prevent slow consumers from affecting the entire system.
//
// # Architecture
//
// The package defines two main interfaces:
//   - Broadcaster: sends messages to multiple subscribers
//   - Subscriber: receives broadcast messages
//
// The design allows for pluggable backends (Redis, NATS, etc.) while providing
// a consistent API. Currently includes an in-memory implementation.
//
// # Usage
//
// Basic broadcasting:
//
//	// Create a broadcaster with buffer size of 100 messages per subscriber
//	broadcaster := broadcast.NewMemoryBroadcaster[string](100)
//	defer broadcaster.Close()
//
//	// Subscribe to messages
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	subscriber := broadcaster.Subscribe(ctx)
//	defer subscriber.Close()
//
//	// Start receiving messages in a goroutine
//	go func() {
//		for msg := range subscriber.Receive(ctx) {
//			fmt.Printf("Received: %s\n", msg.Data)
//		}
//	}()
//
//	// Send messages
//	broadcaster.Broadcast(ctx, broadcast.Message[string]{Data: "Hello, World!"})
//
// # Memory Implementation
//
// MemoryBroadcaster provides an in-memory implementation with these characteristics:
//   - Non-blocking message delivery
//   - Automatic subscriber cleanup on context cancellation
//   - Graceful handling of slow consumers
//   - Thread-safe operations
//
// If a subscriber's buffer is full, messages are dropped for that subscriber
// rather than blocking the broadcast operation. This prevents slow consumers
// from affecting other subscribers or blocking the broadcaster.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use across multiple goroutines.
// The MemoryBroadcaster uses read-write mutexes to optimize for read-heavy broadcast
// operations while handling less frequent subscription changes.
package broadcast
