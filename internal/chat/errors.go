package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an explicitly requested transcript does not exist.
	ErrNotFound = errors.New("history not found")
	// ErrMalformedHistory is returned when stored or received messages do not
	// have the expected shape.
	ErrMalformedHistory = errors.New("malformed history")
	// ErrUnexpectedRole is returned when the completion service replies with
	// something other than an assistant message.
	ErrUnexpectedRole = errors.New("unexpected reply role")
	// ErrTurnInProgress is returned when a question is asked while another
	// one has not finished.
	ErrTurnInProgress = errors.New("a turn is already in progress")
)

// RemoteCallError wraps any failure of the completion service.
type RemoteCallError struct {
	Err error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("completion request failed: %v", e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }
