package scan

import (
	"fmt"
	"reflect"
)

// Module is a unit of code the scanner can enumerate.
type Module interface {
	Name() string
	Components() []Component
}

// Component describes one candidate type of a module.
type Component struct {
	// Type is the component identity, without pointer indirection.
	Type reflect.Type
	// Tags are marker types declared for the component in addition to the ones it embeds.
	Tags []reflect.Type
	// Constructor optionally builds the component. Nil means the zero value is used.
	Constructor reflect.Value
}

// Manifest is an explicit list of components making up a module.
type Manifest struct {
	name       string
	components []Component
}

func NewManifest(name string) *Manifest { return &Manifest{name: name} }

func (m *Manifest) Name() string { return m.name }

func (m *Manifest) Components() []Component {
	components := make([]Component, len(m.components))
	copy(components, m.components)

	return components
}

// Add declares t as a component carrying the given tags.
func (m *Manifest) Add(t reflect.Type, tags ...reflect.Type) *Manifest {
	if t == nil {
		panic("scan: nil component type")
	}

	m.components = append(m.components, Component{Type: indirect(t), Tags: normalize(tags)})

	return m
}

// AddConstructor declares the type returned by fn as a component built by fn.
// fn must be a function returning the component, optionally followed by an
// error. Whether fn is callable without arguments is checked at construction time.
func (m *Manifest) AddConstructor(fn any, tags ...reflect.Type) *Manifest {
	v := reflect.ValueOf(fn)

	if v.Kind() != reflect.Func || v.IsNil() {
		panic(fmt.Sprintf("scan: constructor must be a function, got %T", fn))
	}

	if v.Type().NumOut() == 0 || v.Type().NumOut() > 2 {
		panic(fmt.Sprintf("scan: constructor %s must return the component and optionally an error", v.Type()))
	}

	m.components = append(m.components, Component{
		Type:        indirect(v.Type().Out(0)),
		Tags:        normalize(tags),
		Constructor: v,
	})

	return m
}

func normalize(tags []reflect.Type) []reflect.Type {
	out := make([]reflect.Type, 0, len(tags))

	for _, tag := range tags {
		if tag != nil {
			out = append(out, indirect(tag))
		}
	}

	return out
}

func indirect(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}

	return t
}
