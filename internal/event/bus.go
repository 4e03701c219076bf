// Package event is the in-process change notification bus.
package event

import (
	"fmt"
	"sync"
	"time"

	"github.com/tony-c3a/tony-mission-control/internal/logger"
)

type Type string

const (
	TimeUpdate    Type = "time-update"
	IdeaAdded     Type = "idea-added"
	TodoChanged   Type = "todo-changed"
	MemoryUpdate  Type = "memory-update"
	StatusChange  Type = "status-change"
	WorkoutLogged Type = "workout-logged"
	Connected     Type = "connected"
)

// Event is the envelope every subscriber and stream client receives.
type Event struct {
	Type      Type      `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func New(t Type, data any) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now().UTC()}
}

// Handler receives events synchronously on the publisher's goroutine. A
// returned error or a panic is logged and otherwise ignored.
type Handler func(Event) error

type subscriber struct {
	id uint64
	h  Handler
}

// Bus fans events out to subscribers. The zero value is not usable; call NewBus.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber
}

func NewBus() *Bus { return &Bus{} }

// Subscribe registers h and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish builds an envelope stamped with the current time and delivers it.
func (b *Bus) Publish(t Type, data any) Event {
	ev := New(t, data)
	b.Dispatch(ev)
	return ev
}

// Dispatch delivers ev to every subscriber registered at the time of the call,
// in subscription order.
func (b *Bus) Dispatch(ev Event) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := deliver(s.h, ev); err != nil {
			logger.Warn("event.subscriber_failed", "type", ev.Type, "subscriber", s.id, "err", err)
		}
	}
}

func deliver(h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ev)
}

func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
