// Package scan discovers candidate components in loaded modules.
//
// A component type carries a tag when the tag (a marker type) is embedded
// anywhere in its embedding chain, or when a module declares the tag for the
// type or for one of its embedded ancestors. A component descends from a base
// type when it embeds the base at any depth or, for interface bases, when it
// implements the interface. The base type itself is never its own descendant.
package scan

import (
	"reflect"
	"sync"
)

// Scanner caches every component of the loaded modules and filters the cache
// on discovery queries.
type Scanner struct {
	mu           sync.RWMutex
	modules      []Module
	cache        []reflect.Type
	declared     map[reflect.Type][]reflect.Type
	constructors map[reflect.Type]reflect.Value
}

var (
	defaultScanner *Scanner
	defaultOnce    sync.Once
)

// Default returns the process-wide scanner the host loads its modules into.
func Default() *Scanner {
	defaultOnce.Do(func() { defaultScanner = New() })
	return defaultScanner
}

func New() *Scanner {
	return &Scanner{
		declared:     make(map[reflect.Type][]reflect.Type),
		constructors: make(map[reflect.Type]reflect.Value),
	}
}

// LoadModules enumerates the components of modules and appends them to the
// cache. Modules are not de-duplicated: loading one twice caches its
// components twice.
func (s *Scanner) LoadModules(modules ...Module) {
	if len(modules) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, module := range modules {
		if module == nil {
			continue
		}

		s.modules = append(s.modules, module)

		for _, c := range module.Components() {
			s.cache = append(s.cache, c.Type)

			if len(c.Tags) > 0 {
				s.declared[c.Type] = append(s.declared[c.Type], c.Tags...)
			}

			if _, ok := s.constructors[c.Type]; !ok && c.Constructor.IsValid() {
				s.constructors[c.Type] = c.Constructor
			}
		}
	}
}

// Modules returns the modules loaded so far, in load order.
func (s *Scanner) Modules() []Module {
	s.mu.RLock()
	defer s.mu.RUnlock()

	modules := make([]Module, len(s.modules))
	copy(modules, s.modules)

	return modules
}

// Len returns the number of cached component types, duplicates included.
func (s *Scanner) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.cache)
}

func (s *Scanner) FindAll() []reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]reflect.Type, len(s.cache))
	copy(all, s.cache)

	return all
}

// FindByTag returns the cached types carrying tag.
func (s *Scanner) FindByTag(tag reflect.Type) []reflect.Type {
	if tag == nil {
		return nil
	}

	tag = indirect(tag)

	return s.filter(func(t reflect.Type) bool { return s.hasTag(t, tag) })
}

// FindByBase returns the cached strict descendants of base.
func (s *Scanner) FindByBase(base reflect.Type) []reflect.Type {
	if base == nil {
		return nil
	}

	base = indirect(base)

	return s.filter(func(t reflect.Type) bool { return descends(t, base) })
}

// Constructor returns the constructor a module declared for t.
func (s *Scanner) Constructor(t reflect.Type) (reflect.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fn, ok := s.constructors[t]
	return fn, ok
}

func (s *Scanner) filter(match func(reflect.Type) bool) []reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make([]reflect.Type, 0)
	for _, t := range s.cache {
		if match(t) {
			found = append(found, t)
		}
	}

	return found
}

// hasTag must be called with s.mu held.
func (s *Scanner) hasTag(t, tag reflect.Type) bool {
	found := false

	walk(t, func(u reflect.Type) bool {
		if u != t && u == tag {
			found = true
			return false
		}

		for _, declared := range s.declared[u] {
			if declared == tag {
				found = true
				return false
			}
		}

		return true
	})

	return found
}

func descends(t, base reflect.Type) bool {
	if t == base {
		return false
	}

	if base.Kind() == reflect.Interface {
		if t.Kind() == reflect.Interface {
			return t.Implements(base)
		}

		return reflect.PointerTo(t).Implements(base)
	}

	found := false

	walk(t, func(u reflect.Type) bool {
		if u != t && u == base {
			found = true
			return false
		}

		return true
	})

	return found
}

// walk visits t and every type embedded in it, at any depth, until visit returns false.
func walk(t reflect.Type, visit func(reflect.Type) bool) {
	seen := make(map[reflect.Type]struct{})

	var stack visitStack[reflect.Type]
	stack.Push(t)

	for {
		u, ok := stack.Pop()
		if !ok {
			return
		}

		if _, ok := seen[u]; ok {
			continue
		}

		seen[u] = struct{}{}

		if !visit(u) {
			return
		}

		if u.Kind() != reflect.Struct {
			continue
		}

		for i := range u.NumField() {
			if f := u.Field(i); f.Anonymous {
				stack.Push(indirect(f.Type))
			}
		}
	}
}
