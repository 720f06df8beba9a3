// Package index assigns dense, process-wide integer slots to component types.
//
// An index is allocated the first time a type is seen and is never reused or
// reassigned. Every indexed store sharing an Allocator draws from the same
// counter, so unrelated registries consume disjoint ranges of one index space.
package index

import (
	"reflect"
	"sync"
	"unsafe"

	goreflect "github.com/goccy/go-reflect"
	"github.com/puzpuzpuz/xsync/v3"
)

// Allocator hands out monotonically increasing indices per type.
type Allocator struct {
	// memo is the lock-free fast path for types that already own an index.
	memo *xsync.MapOf[uintptr, int]

	mu   *xsync.RBMutex
	ids  map[uintptr]int
	next int
}

var (
	global     *Allocator
	globalOnce sync.Once
)

// Global returns the process-wide allocator. It is created lazily and never reset.
func Global() *Allocator {
	globalOnce.Do(func() { global = New() })
	return global
}

func New() *Allocator {
	return &Allocator{
		memo: xsync.NewMapOf[uintptr, int](),
		mu:   xsync.NewRBMutex(),
		ids:  make(map[uintptr]int),
	}
}

// Of returns the index of t, allocating the next free one on first sight.
func (a *Allocator) Of(t reflect.Type) int {
	id := ID(t)

	if idx, ok := a.memo.Load(id); ok {
		return idx
	}

	token := a.mu.RLock()
	idx, ok := a.ids[id]
	a.mu.RUnlock(token)

	if !ok {
		a.mu.Lock()
		// Another goroutine may have allocated while we waited for the write lock.
		if idx, ok = a.ids[id]; !ok {
			idx = a.next
			a.next++
			a.ids[id] = idx
		}
		a.mu.Unlock()
	}

	a.memo.Store(id, idx)

	return idx
}

// Lookup reports the index of t without allocating one.
func (a *Allocator) Lookup(t reflect.Type) (int, bool) {
	id := ID(t)

	if idx, ok := a.memo.Load(id); ok {
		return idx, true
	}

	token := a.mu.RLock()
	defer a.mu.RUnlock(token)

	idx, ok := a.ids[id]
	return idx, ok
}

// Len returns how many indices were allocated so far.
func (a *Allocator) Len() int {
	token := a.mu.RLock()
	defer a.mu.RUnlock(token)

	return a.next
}

// ID returns the address of the runtime type descriptor of t. Descriptors are
// unique per type, so the address is a cheap comparable key.
func ID(t reflect.Type) uintptr {
	if t == nil {
		return 0
	}

	return uintptr(unsafe.Pointer(goreflect.ToType(t)))
}
