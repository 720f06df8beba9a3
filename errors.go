package di

import (
	"errors"

	"github.com/Sanchous98/go-ioc/store"
)

var (
	ErrNotInitialized         = errors.New("manager is not initialized")
	ErrAlreadyInitialized     = errors.New("manager is already initialized")
	ErrInvalidConfiguration   = errors.New("invalid configuration")
	ErrConstruction           = errors.New("type has no parameterless construction path")
	ErrNullInstance           = errors.New("construction yielded no instance")
	ErrInvalidKind            = errors.New("instance is not a reference to the component")
	ErrNoMatchingField        = errors.New("no injectable field of the dependency type")
	ErrUnregisteredDependency = errors.New("unregistered dependency")
	ErrInvalidEnv             = errors.New("invalid environment value")

	ErrNotFound      = store.ErrNotFound
	ErrAlreadyExists = store.ErrAlreadyExists
)
