package di

import (
	"reflect"
	"sync"
	"sync/atomic"
)

type BaseEvent struct {
	stoppedPropagation atomic.Bool
}

// StopPropagation keeps the event from reaching listeners subscribed later.
func (e *BaseEvent) StopPropagation() { e.stoppedPropagation.Store(true) }

func (e *BaseEvent) CanPropagate() bool { return !e.stoppedPropagation.Load() }

// TypesRegistered is dispatched once per initialization or registration batch.
type TypesRegistered struct {
	BaseEvent
	Types []reflect.Type
}

// TypesInjected is dispatched once per WireAll with the dependencies wired
// into each component.
type TypesInjected struct {
	BaseEvent
	Injected map[reflect.Type][]reflect.Type
}

type propagator interface {
	CanPropagate() bool
}

type dispatcher[E propagator] struct {
	mu        sync.RWMutex
	listeners []func(E)
}

func (d *dispatcher[E]) Subscribe(listener func(E)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners = append(d.listeners, listener)
}

func (d *dispatcher[E]) Dispatch(event E) {
	d.mu.RLock()
	listeners := d.listeners
	d.mu.RUnlock()

	for _, listener := range listeners {
		if !event.CanPropagate() {
			return
		}

		listener(event)
	}
}
