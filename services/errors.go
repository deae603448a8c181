package services

import "errors"

// Failure taxonomy for board submissions. Handlers map these to HTTP
// statuses; the websocket path logs and drops them without replying.
var (
	// ErrValidation: the candidate document does not structurally
	// resemble a board. Rejected before any store access.
	ErrValidation = errors.New("malformed board document")

	// ErrUnauthorized: the submitting role is below editor. Rejected
	// before diff and persistence.
	ErrUnauthorized = errors.New("write permission denied")

	// ErrInvalidAuthContext: the caller supplied no usable identity.
	// This is a caller contract violation, not a permission decision.
	ErrInvalidAuthContext = errors.New("missing user context")

	// ErrStorage: the persistence layer failed. Nothing is broadcast
	// when this is returned.
	ErrStorage = errors.New("board storage failure")
)
