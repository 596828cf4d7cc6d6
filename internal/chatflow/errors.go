package chatflow

import "errors"

// Sentinel errors for conversation operations.
var (
	// ErrEmptyResponse is returned when a stream completes without
	// producing any content. The transport succeeded; the exchange did not.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrSessionNotFound is returned when a session id does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoCurrentSession is returned by operations that need a selected
	// session when none is selected.
	ErrNoCurrentSession = errors.New("no current session")
)
