package ports

import (
	"errors"
	"fmt"
)

// The server understood the request and declined it, e.g. a stale
// transition already performed by another session. Local state is left
// untouched pending the next refresh.
type RemoteRejectedError struct {
	Status  int
	Message string
}

func (e *RemoteRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote rejected (status %d)", e.Status)
	}
	return fmt.Sprintf("remote rejected (status %d): %s", e.Status, e.Message)
}

// Timeout or connectivity failure. Surfaced as a dismissible notice and
// retried only if the user re-triggers the action.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient network error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func IsRemoteRejected(err error) bool {
	var rr *RemoteRejectedError
	return errors.As(err, &rr)
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
