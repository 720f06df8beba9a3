package store

import (
	"reflect"
	"sync"
)

type mutableStore struct {
	mu      sync.RWMutex
	entries map[reflect.Type]any
	order   []reflect.Type
}

// NewMutable builds a Mutable store holding entries.
func NewMutable(entries []Entry) (Store, error) {
	if err := checkBatch(entries, none); err != nil {
		return nil, err
	}

	s := &mutableStore{
		entries: make(map[reflect.Type]any, len(entries)),
		order:   make([]reflect.Type, 0, len(entries)),
	}

	s.add(entries)

	return s, nil
}

func (s *mutableStore) Get(t reflect.Type) (any, error) {
	if instance, ok := s.TryGet(t); ok {
		return instance, nil
	}

	return nil, notFound(t)
}

func (s *mutableStore) TryGet(t reflect.Type) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instance, ok := s.entries[t]
	return instance, ok
}

func (s *mutableStore) Inject(t reflect.Type, instance any) error {
	return s.InjectMany([]Entry{{Type: t, Instance: instance}})
}

func (s *mutableStore) InjectMany(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkBatch(entries, s.bound); err != nil {
		return err
	}

	s.add(entries)

	return nil
}

func (s *mutableStore) Enumerate() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.order))
	for _, t := range s.order {
		entries = append(entries, Entry{Type: t, Instance: s.entries[t]})
	}

	return entries
}

func (s *mutableStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

func (s *mutableStore) bound(t reflect.Type) bool {
	_, ok := s.entries[t]
	return ok
}

func (s *mutableStore) add(entries []Entry) {
	for _, e := range entries {
		s.entries[e.Type] = e.Instance
		s.order = append(s.order, e.Type)
	}
}
