// Package store holds registered component instances behind one contract with
// three interchangeable strategies:
//
//   - Mutable keeps a lock-guarded map and mutates it in place. Cheap writes.
//   - Frozen keeps an immutable snapshot rebuilt on every write. Lock-free
//     reads, O(n) writes.
//   - Indexed keeps a slot table addressed by the process-wide type index.
//     Array-indexed reads with no hashing.
//
// Every store holds at most one instance per identity. Adding an identity that
// is already bound fails with ErrAlreadyExists and changes nothing; batches are
// committed all-or-nothing.
package store

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Sanchous98/go-ioc/index"
)

var (
	ErrNotFound      = errors.New("dependency not found")
	ErrAlreadyExists = errors.New("dependency already exists")
	ErrUnknown       = errors.New("unknown store strategy")
)

// Entry binds an instance to its component identity.
type Entry struct {
	Type     reflect.Type
	Instance any
}

type Store interface {
	// Get returns the instance bound to t or ErrNotFound.
	Get(t reflect.Type) (any, error)
	// TryGet reports whether an instance is bound to t.
	TryGet(t reflect.Type) (any, bool)
	// Inject binds instance to t.
	Inject(t reflect.Type, instance any) error
	// InjectMany binds every entry or none of them.
	InjectMany(entries []Entry) error
	// Enumerate returns a snapshot of the bound entries.
	Enumerate() []Entry
	// Len returns the number of bound entries.
	Len() int
}

// Strategy selects a Store implementation.
type Strategy uint8

const (
	Mutable Strategy = iota
	Frozen
	Indexed
)

func (s Strategy) String() string {
	switch s {
	case Mutable:
		return "mutable"
	case Frozen:
		return "frozen"
	case Indexed:
		return "indexed"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// ParseStrategy maps a strategy name back to its Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mutable", "map", "default":
		return Mutable, nil
	case "frozen":
		return Frozen, nil
	case "indexed", "referenced":
		return Indexed, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
}

// Initialize builds a store of this strategy from entries. Indexed stores use
// the process-wide allocator.
func (s Strategy) Initialize(entries []Entry) (Store, error) {
	return s.InitializeWith(entries, index.Global())
}

// InitializeWith is Initialize with an explicit allocator for Indexed stores.
func (s Strategy) InitializeWith(entries []Entry, alloc *index.Allocator) (Store, error) {
	switch s {
	case Mutable:
		return NewMutable(entries)
	case Frozen:
		return NewFrozen(entries)
	case Indexed:
		return NewIndexed(entries, alloc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknown, s)
	}
}

func notFound(t reflect.Type) error { return fmt.Errorf("%w: %s", ErrNotFound, name(t)) }

func alreadyExists(t reflect.Type) error { return fmt.Errorf("%w: %s", ErrAlreadyExists, name(t)) }

func name(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.String()
}

// checkBatch rejects batches that bind an identity twice or collide with bound(t).
func checkBatch(entries []Entry, bound func(reflect.Type) bool) error {
	seen := make(map[reflect.Type]struct{}, len(entries))

	for _, e := range entries {
		if _, dup := seen[e.Type]; dup || bound(e.Type) {
			return alreadyExists(e.Type)
		}

		seen[e.Type] = struct{}{}
	}

	return nil
}

func none(reflect.Type) bool { return false }
