package store

import (
	"math/bits"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/Sanchous98/go-ioc/index"
)

const minSlots = 8

// table is replaced, never resized in place. Slots are written atomically so
// readers of the published table never observe a torn write.
type table struct {
	slots []atomic.Pointer[Entry]
}

type indexedStore struct {
	alloc *index.Allocator

	// mu guards entries and order and serializes writers.
	mu      sync.RWMutex
	entries map[reflect.Type]any
	order   []reflect.Type

	table atomic.Pointer[table]
}

// NewIndexed builds an Indexed store holding entries. Slots are addressed by
// the indices alloc assigns; a nil alloc means the process-wide allocator.
func NewIndexed(entries []Entry, alloc *index.Allocator) (Store, error) {
	if alloc == nil {
		alloc = index.Global()
	}

	if err := checkBatch(entries, none); err != nil {
		return nil, err
	}

	s := &indexedStore{
		alloc:   alloc,
		entries: make(map[reflect.Type]any, len(entries)),
		order:   make([]reflect.Type, 0, len(entries)),
	}

	s.table.Store(new(table))
	s.publish(entries)

	return s, nil
}

func (s *indexedStore) Get(t reflect.Type) (any, error) {
	if instance, ok := s.TryGet(t); ok {
		return instance, nil
	}

	return nil, notFound(t)
}

// TryGet reads the slot of t directly. A slot past the end of the table reads
// as absent.
func (s *indexedStore) TryGet(t reflect.Type) (any, bool) {
	idx, ok := s.alloc.Lookup(t)
	if !ok {
		return nil, false
	}

	slots := s.table.Load().slots
	if idx >= len(slots) {
		return nil, false
	}

	if e := slots[idx].Load(); e != nil {
		return e.Instance, true
	}

	return nil, false
}

func (s *indexedStore) Inject(t reflect.Type, instance any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[t]; ok {
		return alreadyExists(t)
	}

	idx := s.alloc.Of(t)
	e := &Entry{Type: t, Instance: instance}

	if cur := s.table.Load(); idx < len(cur.slots) {
		cur.slots[idx].Store(e)
	} else {
		next := grow(cur, idx)
		next.slots[idx].Store(e)
		s.table.Store(next)
	}

	s.entries[t] = instance
	s.order = append(s.order, t)

	return nil
}

func (s *indexedStore) InjectMany(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkBatch(entries, func(t reflect.Type) bool {
		_, ok := s.entries[t]
		return ok
	}); err != nil {
		return err
	}

	s.publish(entries)

	return nil
}

func (s *indexedStore) Enumerate() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.order))
	for _, t := range s.order {
		entries = append(entries, Entry{Type: t, Instance: s.entries[t]})
	}

	return entries
}

func (s *indexedStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Cap returns the current slot table length.
func (s *indexedStore) Cap() int { return len(s.table.Load().slots) }

// publish writes entries into a fresh copy of the table and swaps it in, so a
// batch becomes visible at once. Must be called with s.mu held.
func (s *indexedStore) publish(entries []Entry) {
	if len(entries) == 0 {
		return
	}

	cur := s.table.Load()
	high := len(cur.slots) - 1
	indices := make([]int, len(entries))

	for i, e := range entries {
		indices[i] = s.alloc.Of(e.Type)
		high = max(high, indices[i])
	}

	next := grow(cur, high)

	for i, e := range entries {
		next.slots[indices[i]].Store(&Entry{Type: e.Type, Instance: e.Instance})
		s.entries[e.Type] = e.Instance
		s.order = append(s.order, e.Type)
	}

	s.table.Store(next)
}

// grow copies cur into a new table able to hold idx.
func grow(cur *table, idx int) *table {
	size := len(cur.slots)
	if idx >= size {
		size = slotsFor(idx)
	}

	next := &table{slots: make([]atomic.Pointer[Entry], size)}
	for i := range cur.slots {
		next.slots[i].Store(cur.slots[i].Load())
	}

	return next
}

// slotsFor returns the next power of two >= max(minSlots, idx+1).
func slotsFor(idx int) int {
	n := max(minSlots, idx+1)
	if n&(n-1) == 0 {
		return n
	}

	return 1 << bits.Len(uint(n))
}
