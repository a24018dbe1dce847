package filekit

import (
	"context"
	"fmt"
	"sync"
)

// EventName identifies a lifecycle notification.
type EventName string

// Lifecycle notifications.
const (
	BeforeSave   EventName = "beforeSave"
	AfterSave    EventName = "afterSave"
	BeforeDelete EventName = "beforeDelete"
	AfterDelete  EventName = "afterDelete"
)

// Event is delivered to observers. Save events carry File and the allocated
// Path; delete events carry Path only.
type Event struct {
	Name EventName
	File *File
	Path string
}

// Observer reacts to an Event. Returning an error aborts the operation that
// fired it.
type Observer func(ctx context.Context, ev Event) error

// Bus delivers events synchronously to registered observers.
type Bus struct {
	mu        sync.RWMutex
	observers map[EventName][]Observer
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{observers: make(map[EventName][]Observer)}
}

// On registers obs for name. Observers run in registration order.
func (b *Bus) On(name EventName, obs Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.observers == nil {
		b.observers = make(map[EventName][]Observer)
	}
	b.observers[name] = append(b.observers[name], obs)
}

// Fire runs every observer registered for ev.Name and stops at the first
// error, which is returned as a KindObserver *Error.
func (b *Bus) Fire(ctx context.Context, ev Event) error {
	b.mu.RLock()
	observers := b.observers[ev.Name]
	b.mu.RUnlock()

	for i, obs := range observers {
		if err := obs(ctx, ev); err != nil {
			return &Error{
				Kind: KindObserver,
				Op:   string(ev.Name),
				Path: ev.Path,
				Err:  fmt.Errorf("observer %d: %w", i, err),
			}
		}
	}
	return nil
}
