// Package events provides a typed fan-out topic with explicit subscription lifetimes.
package events

import (
	"context"
	"sync"
)

// DefaultBuffer is the subscriber channel capacity used when none is given.
const DefaultBuffer = 32

// Topic fans out values of type T to every current subscriber.
//
// Publish never blocks: a subscriber whose buffer is full misses the value.
// The zero value is ready to use.
type Topic[T any] struct {
	mu     sync.RWMutex
	subs   map[chan T]struct{}
	closed bool
}

func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{}
}

// Subscribe returns a receive channel and the func that ends the subscription.
// Calling the func more than once is safe; it closes the channel.
func (t *Topic[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan T, buffer)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if t.subs == nil {
		t.subs = make(map[chan T]struct{})
	}
	t.subs[ch] = struct{}{}
	t.mu.Unlock()

	return ch, func() { t.unsubscribe(ch) }
}

// SubscribeContext is Subscribe with the subscription ended when ctx is done.
func (t *Topic[T]) SubscribeContext(ctx context.Context, buffer int) <-chan T {
	ch, cancel := t.Subscribe(buffer)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch
}

func (t *Topic[T]) unsubscribe(ch chan T) {
	t.mu.Lock()
	_, exists := t.subs[ch]
	if exists {
		delete(t.subs, ch)
	}
	t.mu.Unlock()
	if exists {
		close(ch)
	}
}

// Publish delivers v to every subscriber with room in its buffer and reports how
// many received it.
func (t *Topic[T]) Publish(v T) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for ch := range t.subs {
		select {
		case ch <- v:
			n++
		default:
		}
	}
	return n
}

// Len is the number of live subscriptions.
func (t *Topic[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// Close ends every subscription. Later subscribers get an already closed channel.
func (t *Topic[T]) Close() {
	t.mu.Lock()
	subs := t.subs
	t.subs = nil
	t.closed = true
	t.mu.Unlock()
	for ch := range subs {
		close(ch)
	}
}
