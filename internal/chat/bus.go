// Package chat implements conversation persistence and in-process
// new-message notification for listing chats.
package chat

import (
	"sync"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/domain"
)

// Handler receives a new-message notification for the given listing.
type Handler func(bookID string, msg domain.Message)

// Bus is an in-process publish/subscribe channel for new chat messages.
// Delivery is synchronous and limited to the current process: it does not
// cross processes or survive restarts. Construct one per application (or per
// test) and inject it; there is no package-level instance.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes exactly this
// registration. Subscribing the same handler twice yields two independent
// registrations, each with its own unsubscribe.
func (b *Bus) Subscribe(fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish invokes every currently registered handler in registration order,
// synchronously on the caller's goroutine. Handlers that need deferred
// delivery must hand off to their own channel or goroutine.
func (b *Bus) Publish(bookID string, msg domain.Message) {
	b.mu.Lock()
	snapshot := make([]subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, s := range snapshot {
		s.fn(bookID, msg)
	}
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
