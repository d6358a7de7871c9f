// Package common defines the error taxonomy shared by every layer of the
// admin console client. Callers should use errors.Is / errors.As to match
// these values.
package common

import (
	"errors"
	"fmt"
)

// GenericFailureMessage is surfaced when a failure carries no message of its own.
const GenericFailureMessage = "Something went wrong. Please try again."

var (
	// Local precondition failures. None of these ever reach the network.
	ErrValidation       = errors.New("validation failed")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidMove      = errors.New("invalid move")

	// ErrStaleTarget marks a delete/move aimed at an id that is no longer
	// held locally. Callers treat it as an already-satisfied no-op.
	ErrStaleTarget = errors.New("stale target")

	// Remote failures.
	ErrRemoteRejection = errors.New("remote rejection")
	ErrNetworkFailure  = errors.New("network failure")

	// Session and drawer flow control.
	ErrSubmitInProgress   = errors.New("submit already in progress")
	ErrDrawerBusy         = errors.New("drawer already open")
	ErrDrawerClosed       = errors.New("drawer is closed")
	ErrDeleteNotConfirmed = errors.New("delete not confirmed")
	ErrBusy               = errors.New("operation in progress")

	ErrUnknownResource = errors.New("unknown resource")
	ErrNotFound        = errors.New("not found")
	ErrNotOffered      = errors.New("operation not offered by resource")
)

// RemoteError is returned when the API answered with a non-success status.
// Message is the human-readable message from the error body, if any.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote rejection: status %d", e.Status)
	}
	return fmt.Sprintf("remote rejection: status %d: %s", e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error { return ErrRemoteRejection }

// NetworkFailure wraps a transport error so that it matches ErrNetworkFailure.
func NetworkFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrNetworkFailure, err)
}

// UserMessage returns the text to show for err: the remote message verbatim
// when the API supplied one, otherwise a generic message.
func UserMessage(err error) string {
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return GenericFailureMessage
}

// IsRemoteFailure reports whether err came from the remote side (rejection
// or transport), i.e. a failure that requires rolling back optimistic state.
func IsRemoteFailure(err error) bool {
	return errors.Is(err, ErrRemoteRejection) || errors.Is(err, ErrNetworkFailure)
}
