package di

import (
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"
)

const (
	// Use injectTag to inject dependency into a component
	injectTag = "inject"
)

// slot is a field wiring writes to, found once per struct type.
type slot struct {
	name  string
	index []int
	// dep is the identity the field is resolved by.
	dep reflect.Type
	env string
}

// field returns the settable field of target, unexported ones included.
func (s slot) field(target reflect.Value) reflect.Value {
	field := target.FieldByIndex(s.index)

	return reflect.NewAt(field.Type(), field.Addr().UnsafePointer()).Elem()
}

type plan struct {
	inject []slot
	env    []slot
}

var plans = xsync.NewMapOf[reflect.Type, *plan]()

// planOf returns the wiring plan of struct type t. Fields promoted from
// embedded structs are included; embedded pointers are not followed.
func planOf(t reflect.Type) *plan {
	p, _ := plans.LoadOrCompute(t, func() *plan { return buildPlan(t) })

	return p
}

func buildPlan(t reflect.Type) *plan {
	type frame struct {
		t      reflect.Type
		prefix []int
	}

	p := new(plan)
	stack := []frame{{t: t}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i := 0; i < f.t.NumField(); i++ {
			sf := f.t.Field(i)
			idx := append(append(make([]int, 0, len(f.prefix)+1), f.prefix...), i)

			if _, ok := sf.Tag.Lookup(injectTag); ok {
				p.inject = append(p.inject, slot{name: sf.Name, index: idx, dep: typeIndirect(sf.Type)})
				continue
			}

			if key, ok := sf.Tag.Lookup(envTag); ok && key != "" {
				p.env = append(p.env, slot{name: sf.Name, index: idx, env: key})
				continue
			}

			if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
				stack = append(stack, frame{t: sf.Type, prefix: idx})
			}
		}
	}

	return p
}

// assign sets field to instance, dereferencing it for value fields. It reports
// whether the instance fits the field.
func assign(field reflect.Value, instance any) bool {
	v := reflect.ValueOf(instance)
	if !v.IsValid() {
		return false
	}

	ft := field.Type()

	switch {
	case v.Type().AssignableTo(ft):
		field.Set(v)
	case v.Kind() == reflect.Ptr && !v.IsNil() && v.Elem().Type().AssignableTo(ft):
		field.Set(v.Elem())
	default:
		return false
	}

	return true
}

// structOf returns the struct a component instance points to.
func structOf(instance any) (reflect.Value, bool) {
	v := reflect.ValueOf(instance)

	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	return v.Elem(), true
}

// WireAll assigns every registered component into the inject-tagged fields of
// the other components. Fields whose dependency is not registered are left
// untouched. The result maps each component to the dependencies wired into it.
func (m *Manager) WireAll() (map[reflect.Type][]reflect.Type, error) {
	st, err := m.active()
	if err != nil {
		return nil, err
	}

	entries := st.Enumerate()
	injected := make(map[reflect.Type][]reflect.Type, len(entries))
	var wired int

	for _, e := range entries {
		deps := make([]reflect.Type, 0)

		target, ok := structOf(e.Instance)
		if !ok {
			injected[e.Type] = deps
			continue
		}

		p := planOf(target.Type())

		for _, s := range p.inject {
			dep, found := st.TryGet(s.dep)
			if !found {
				m.logger.Debug().Stringer("component", e.Type).Str("field", s.name).Stringer("dependency", s.dep).Msg("dependency not registered, field skipped")
				continue
			}

			if !assign(s.field(target), dep) {
				m.logger.Debug().Stringer("component", e.Type).Str("field", s.name).Msg("dependency does not fit field, field skipped")
				continue
			}

			deps = append(deps, s.dep)
			wired++
		}

		if err = m.fillEnv(target, p.env); err != nil {
			m.logger.Debug().Err(err).Stringer("component", e.Type).Msg("environment value skipped")
		}

		injected[e.Type] = deps
	}

	m.metrics.wiredFields(wired)
	m.injected.Dispatch(&TypesInjected{Injected: injected})

	return injected, nil
}

// WireInstance wires an instance living outside the store. Every inject-tagged
// field must resolve or nothing is assigned.
func (m *Manager) WireInstance(instance any) error {
	st, err := m.active()
	if err != nil {
		return err
	}

	target, ok := structOf(instance)
	if !ok {
		return fmt.Errorf("%w: %T is not a pointer to a struct", ErrInvalidKind, instance)
	}

	p := planOf(target.Type())
	deps := make([]any, len(p.inject))

	for i, s := range p.inject {
		dep, found := st.TryGet(s.dep)
		if !found {
			return fmt.Errorf("%w: %s.%s needs %s", ErrUnregisteredDependency, typeName(target.Type()), s.name, typeName(s.dep))
		}

		deps[i] = dep
	}

	for i, s := range p.inject {
		if !assign(s.field(target), deps[i]) {
			return fmt.Errorf("%w: %s does not fit %s.%s", ErrInvalidKind, typeName(s.dep), typeName(target.Type()), s.name)
		}
	}

	m.metrics.wiredFields(len(p.inject))

	return m.fillEnv(target, p.env)
}

// InjectInto assigns source into every inject-tagged field of target declared
// with the identity of source.
func (m *Manager) InjectInto(source, target any) error {
	return m.injectInto(identityOf(source), source, target)
}

// Inject resolves the component T and assigns it into the matching
// inject-tagged fields of target.
func Inject[T any](m *Manager, target any) error {
	t := TypeOf[T]()

	source, err := m.Resolve(t)
	if err != nil {
		return err
	}

	return m.injectInto(t, source, target)
}

func (m *Manager) injectInto(dep reflect.Type, source, target any) error {
	if !m.initialized.Load() {
		return ErrNotInitialized
	}

	if isNil(source) {
		return fmt.Errorf("%w: nil source", ErrInvalidKind)
	}

	v, ok := structOf(target)
	if !ok {
		return fmt.Errorf("%w: %T is not a pointer to a struct", ErrInvalidKind, target)
	}

	var matched int

	for _, s := range planOf(v.Type()).inject {
		if s.dep != dep {
			continue
		}

		if assign(s.field(v), source) {
			matched++
		}
	}

	if matched == 0 {
		return fmt.Errorf("%w: %s has no %s", ErrNoMatchingField, typeName(v.Type()), typeName(dep))
	}

	m.metrics.wiredFields(matched)

	return nil
}
