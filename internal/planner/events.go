package planner

import (
	"sync"
	"time"
)

type EventType string

const (
	// EventListInvalidated fires whenever the plan structure changed and the
	// cached shopping list no longer applies.
	EventListInvalidated EventType = "shopping_list_invalidated"
	// EventListRegenerated fires after a successful acceptance.
	EventListRegenerated EventType = "shopping_list_regenerated"
	EventPlanDeleted     EventType = "plan_deleted"
)

type Event struct {
	Type   EventType
	PlanID string
	At     time.Time
}

// Bus delivers engine events to subscribers synchronously, in subscription
// order.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs []subscription
}

type subscription struct {
	id int
	fn func(Event)
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs = append(b.subs, subscription{id: id, fn: fn})

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

// Publish calls every subscriber on the caller's goroutine.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.fn(e)
	}
}
