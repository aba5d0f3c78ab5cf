package wizard

import "errors"

var (
	// ErrInvalidTransition is returned when a step gate fails or a step-scoped
	// mutation is attempted on the wrong step
	ErrInvalidTransition = errors.New("invalid wizard transition")

	// ErrSessionClosed is returned by every operation after Cancel or Complete
	ErrSessionClosed = errors.New("wizard session closed")

	// ErrUnknownField is returned for credential or mapping fields the
	// current provider type does not declare
	ErrUnknownField = errors.New("unknown field")

	// ErrConnectionTestFailed describes a failed or timed out credential test.
	// It is never returned from an operation; it is recorded as the session's last test error.
	ErrConnectionTestFailed = errors.New("connection test failed")
)
