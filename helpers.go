package di

import (
	"reflect"

	"github.com/Sanchous98/go-ioc/index"
)

func typeIndirect(p reflect.Type) reflect.Type {
	if p != nil && p.Kind() == reflect.Ptr {
		return p.Elem()
	}

	return p
}

// identityOf normalizes a type, a value or a nil typed pointer to the component identity.
func identityOf(v any) reflect.Type {
	switch v := v.(type) {
	case nil:
		return nil
	case reflect.Type:
		return typeIndirect(v)
	default:
		return typeIndirect(reflect.TypeOf(v))
	}
}

// TypeOf returns the component identity of T. Pointer types resolve to their element.
func TypeOf[T any]() reflect.Type { return typeIndirect(reflect.TypeFor[T]()) }

// IndexOf returns the process-wide type index of T.
func IndexOf[T any]() int { return index.Global().Of(TypeOf[T]()) }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.String()
}
