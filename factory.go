package di

import (
	"fmt"
	"reflect"

	"github.com/Sanchous98/go-ioc/scan"
	"github.com/Sanchous98/go-ioc/store"
)

var errorType = reflect.TypeFor[error]()

// Factory builds component instances through their zero-argument construction path.
type Factory struct {
	scanner   *scan.Scanner
	registrar Registrar
}

func NewFactory(scanner *scan.Scanner, registrar Registrar) *Factory {
	return &Factory{scanner: scanner, registrar: registrar}
}

// Create builds an instance of t. A constructor declared by a module wins over
// allocating the zero value. With autoRegister the instance is bound into the
// registrar under t.
func (f *Factory) Create(t reflect.Type, autoRegister bool) (any, error) {
	t = typeIndirect(t)

	instance, err := f.build(t)
	if err != nil {
		return nil, err
	}

	if autoRegister {
		if err = f.registrar.Register(t, instance); err != nil {
			return nil, err
		}
	}

	return instance, nil
}

// CreateMany builds an instance of every type. Nothing is returned nor
// registered when a single construction fails.
func (f *Factory) CreateMany(types []reflect.Type, autoRegister bool) (map[reflect.Type]any, error) {
	instances := make(map[reflect.Type]any, len(types))
	entries := make([]store.Entry, 0, len(types))

	for _, t := range types {
		t = typeIndirect(t)

		if _, ok := instances[t]; ok {
			continue
		}

		instance, err := f.build(t)
		if err != nil {
			return nil, err
		}

		instances[t] = instance
		entries = append(entries, store.Entry{Type: t, Instance: instance})
	}

	if autoRegister {
		if err := f.registrar.RegisterMany(entries); err != nil {
			return nil, err
		}
	}

	return instances, nil
}

func (f *Factory) build(t reflect.Type) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrConstruction)
	}

	var instance any

	if fn, ok := f.constructor(t); ok {
		v, err := construct(t, fn)
		if err != nil {
			return nil, err
		}

		instance = v
	} else {
		if t.Kind() != reflect.Struct {
			return nil, fmt.Errorf("%w: %s is a %s", ErrConstruction, typeName(t), t.Kind())
		}

		instance = reflect.New(t).Interface()
	}

	if isNil(instance) {
		return nil, fmt.Errorf("%w: %s", ErrNullInstance, typeName(t))
	}

	if c, ok := instance.(Constructable); ok {
		c.Constructor()
	}

	return instance, nil
}

func (f *Factory) constructor(t reflect.Type) (reflect.Value, bool) {
	if f.scanner == nil {
		return reflect.Value{}, false
	}

	return f.scanner.Constructor(t)
}

func construct(t reflect.Type, fn reflect.Value) (any, error) {
	if fn.Type().NumIn() != 0 {
		return nil, fmt.Errorf("%w: constructor of %s takes %d argument(s)", ErrConstruction, typeName(t), fn.Type().NumIn())
	}

	out := fn.Call(nil)

	if len(out) == 2 && out[1].Type().Implements(errorType) && !out[1].IsNil() {
		return nil, fmt.Errorf("%w: %s: %w", ErrConstruction, typeName(t), out[1].Interface().(error))
	}

	v := out[0]

	switch {
	case v.Kind() == reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}

		return v.Elem().Interface(), nil
	case v.Kind() == reflect.Struct:
		p := reflect.New(v.Type())
		p.Elem().Set(v)

		return p.Interface(), nil
	default:
		return v.Interface(), nil
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
