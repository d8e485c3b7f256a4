package events

import (
	"context"
	"sync"

	"github.com/comptes-dev/comptes/internal/model"
)

// Op describes what a committed change did.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Committed announces that the backend confirmed a change. It carries no
// account data: listeners resynchronize instead of merging.
type Committed struct {
	Op Op
	ID model.ID
}

// Handler reacts to a committed change.
type Handler func(ctx context.Context, evt Committed)

// Publisher is the side of the bus the controllers see.
type Publisher interface {
	Publish(ctx context.Context, evt Committed)
}

type subscription struct {
	id      int
	handler Handler
}

// Bus fans committed events out to subscribers, synchronously and in
// subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: h})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers evt to every current subscriber. Handlers may subscribe
// or unsubscribe while running; the change applies to the next Publish.
func (b *Bus) Publish(ctx context.Context, evt Committed) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(ctx, evt)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
