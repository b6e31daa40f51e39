package incremental

import "errors"

var (
	// ErrUnknownSession indicates an id that was never issued or was cleaned up
	ErrUnknownSession = errors.New("incremental: unknown session")
	// ErrInvalidState indicates an operation not allowed in the session's state
	ErrInvalidState = errors.New("incremental: invalid session state")
)
