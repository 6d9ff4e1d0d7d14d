package domain

import "errors"

var (
	// ErrValidation signals missing or malformed caller input. Maps to 400.
	ErrValidation = errors.New("validation failed")
	// ErrToolInvocation signals that an external command could not be started
	// or reported a hard failure.
	ErrToolInvocation = errors.New("tool invocation failed")
	// ErrIO signals a scratch file that could not be written or read back.
	ErrIO = errors.New("io failure")

	// ErrTokenStoreNotReady signals that the API token store has not been loaded yet.
	ErrTokenStoreNotReady = errors.New("token store not ready")
	// ErrInvalidAPIKey signals that the provided API key is not known.
	ErrInvalidAPIKey = errors.New("invalid api key")
)
