package store

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/Sanchous98/go-ioc/index"
)

// snapshot is never modified after it is published.
type snapshot struct {
	byID    map[uintptr]any
	entries []Entry
}

type frozenStore struct {
	// mu serializes writers; readers only load current.
	mu      sync.Mutex
	current atomic.Pointer[snapshot]
}

// NewFrozen builds a Frozen store holding entries.
func NewFrozen(entries []Entry) (Store, error) {
	if err := checkBatch(entries, none); err != nil {
		return nil, err
	}

	s := new(frozenStore)
	s.current.Store(freeze(nil, entries))

	return s, nil
}

func (s *frozenStore) Get(t reflect.Type) (any, error) {
	if instance, ok := s.TryGet(t); ok {
		return instance, nil
	}

	return nil, notFound(t)
}

func (s *frozenStore) TryGet(t reflect.Type) (any, bool) {
	instance, ok := s.current.Load().byID[index.ID(t)]
	return instance, ok
}

func (s *frozenStore) Inject(t reflect.Type, instance any) error {
	return s.InjectMany([]Entry{{Type: t, Instance: instance}})
}

// InjectMany copies the current contents, adds entries and swaps the rebuilt
// snapshot in. Collisions are reported before anything is rebuilt.
func (s *frozenStore) InjectMany(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.current.Load()

	if err := checkBatch(entries, func(t reflect.Type) bool {
		_, ok := old.byID[index.ID(t)]
		return ok
	}); err != nil {
		return err
	}

	s.current.Store(freeze(old.entries, entries))

	return nil
}

func (s *frozenStore) Enumerate() []Entry {
	// The snapshot slice is immutable, but callers may modify what they get.
	entries := s.current.Load().entries
	out := make([]Entry, len(entries))
	copy(out, entries)

	return out
}

func (s *frozenStore) Len() int { return len(s.current.Load().entries) }

func freeze(prev, added []Entry) *snapshot {
	snap := &snapshot{
		byID:    make(map[uintptr]any, len(prev)+len(added)),
		entries: make([]Entry, 0, len(prev)+len(added)),
	}

	for _, batch := range [][]Entry{prev, added} {
		for _, e := range batch {
			snap.byID[index.ID(e.Type)] = e.Instance
			snap.entries = append(snap.entries, e)
		}
	}

	return snap
}
