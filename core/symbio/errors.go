package symbio

import "errors"

var (
	// ErrValidation marks malformed construction input. It is returned
	// synchronously by constructors; nothing invalid is ever stored.
	ErrValidation = errors.New("validation failed")

	ErrAdapterNotRegistered     = errors.New("adapter not registered")
	ErrAdapterAlreadyRegistered = errors.New("adapter already registered")
	ErrRegistryFrozen           = errors.New("registry is frozen")
	ErrUnexpectedSource         = errors.New("unexpected source type")
)
