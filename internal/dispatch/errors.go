package dispatch

import "errors"

// Dispatch table errors.
var (
	// ErrUnknownIntent is returned when no handler is registered for an intent.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrIntentAlreadyRegistered is returned when registering a duplicate.
	ErrIntentAlreadyRegistered = errors.New("intent already registered")

	// ErrHandlerNil is returned when a handler is missing.
	ErrHandlerNil = errors.New("intent handler cannot be nil")

	// ErrMissingField is returned when a message lacks a field its intent needs.
	ErrMissingField = errors.New("missing required field")
)
