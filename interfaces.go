package di

import (
	"context"
	"reflect"

	"github.com/Sanchous98/go-ioc/store"
)

// Resolver looks up registered components
type Resolver interface {
	// Resolve returns the component bound to the identity of t
	Resolve(t reflect.Type) (any, error)
	// TryResolve reports whether a component is bound to the identity of t
	TryResolve(t reflect.Type) (any, bool)
}

// Registrar adds components to the active store
type Registrar interface {
	Register(t reflect.Type, instance any) error
	RegisterMany(entries []store.Entry) error
}

// Constructable is a component that has special method that initializes it
type Constructable interface {
	Constructor()
}

// Launchable is a component the Application runs in background once the graph is wired
type Launchable interface {
	Launch(context.Context)
}

// Stoppable is a component the Application shuts down on exit
type Stoppable interface {
	Shutdown(context.Context)
}

// Destructible is a component that releases its resources once the Application stopped
type Destructible interface {
	Destructor()
}
