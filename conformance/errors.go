package conformance

import "errors"

// Sentinel errors for the conformance transport and session layer
// (spec.md §4.11/§9).
var (
	// ErrFrameTooLarge guards against a malicious or corrupt length prefix
	// asking for an unreasonable allocation.
	ErrFrameTooLarge = errors.New("conformance: frame length exceeds maximum")
	// ErrUnexpectedTag is returned when a message arrives with a
	// discriminant the current session state does not expect.
	ErrUnexpectedTag = errors.New("conformance: unexpected message tag for session state")
	// ErrSessionEnded is returned by any method called after the session
	// has already terminated.
	ErrSessionEnded = errors.New("conformance: session already ended")
	// ErrPeerError is returned when the remote side sends an explicit
	// error frame; its payload is included in the error string.
	ErrPeerError = errors.New("conformance: peer sent an error frame")
)
