// Package eventbus provides a typed, in-process publish/subscribe bus. Components
// that need to tell each other "something changed" share a *Bus by reference
// instead of broadcasting on ambient global state.
package eventbus

import (
	"sync"

	"github.com/google/uuid"
)

// Handler receives published values.
type Handler[T any] func(T)

// Bus is a typed publish/subscribe bus. It is safe for concurrent use.
// Handlers run synchronously on the publishing goroutine, in subscription order.
type Bus[T any] struct {
	mu       sync.RWMutex
	order    []string
	handlers map[string]Handler[T]
}

// New creates an empty bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{
		mu:       sync.RWMutex{},
		order:    make([]string, 0),
		handlers: make(map[string]Handler[T]),
	}
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (b *Bus[T]) Subscribe(fn Handler[T]) (unsubscribe func()) {
	id := uuid.NewString()

	b.mu.Lock()
	b.handlers[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			delete(b.handlers, id)

			for i, existing := range b.order {
				if existing == id {
					b.order = append(b.order[:i], b.order[i+1:]...)

					break
				}
			}
		})
	}
}

// Publish delivers v to every current subscriber.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	handlers := make([]Handler[T], 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(v)
	}
}

// Len returns the number of subscribers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.handlers)
}
