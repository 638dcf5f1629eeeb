// Package protocol defines the error taxonomy shared by the token, request, vehicle, and climate
// layers.
package protocol

import (
	"errors"
)

// Error exposes methods useful for categorizing errors.
type Error interface {
	error

	// MayHaveSucceeded returns true if the Error was triggered by a command that might have been
	// executed. For example, if a client times out while waiting for a response, then the client
	// cannot tell if the command was received.
	MayHaveSucceeded() bool

	// Temporary returns true if the Error might be the result of a transient condition. For
	// example, a vehicle that is still waking from deep sleep does not answer telemetry requests.
	Temporary() bool
}

var (
	// ErrAuthFailure indicates the refresh-token exchange failed on every attempt. Vehicle
	// operations are unavailable until a later exchange succeeds.
	ErrAuthFailure = NewError("unable to obtain access token", false, true)
	// ErrRequestFailure indicates an API call failed on every attempt.
	ErrRequestFailure = NewError("request failed after retries", true, true)
	// ErrTelemetryUnavailable indicates vehicle data could not be fetched even after waking the
	// vehicle.
	ErrTelemetryUnavailable = NewError("vehicle data unavailable", false, true)
	// ErrCommandFailure indicates a vehicle command was not confirmed. Commands are not verified,
	// so callers log this error and continue.
	ErrCommandFailure = NewError("vehicle command failed", true, false)
	// ErrBadResponse indicates the server returned a body that could not be parsed.
	ErrBadResponse = errors.New("invalid response")
)

type CommandError struct {
	Err               error
	PossibleSuccess   bool
	PossibleTemporary bool
}

func NewError(message string, mayHaveSucceeded bool, temporary bool) error {
	return &CommandError{Err: errors.New(message), PossibleSuccess: mayHaveSucceeded, PossibleTemporary: temporary}
}

func (e *CommandError) Error() string {
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func (e *CommandError) MayHaveSucceeded() bool {
	return e.PossibleSuccess
}

func (e *CommandError) Temporary() bool {
	return e.PossibleTemporary
}

// MayHaveSucceeded returns true if err (or an error it wraps) indicates the command may have been
// executed but the client did not receive a confirmation.
func MayHaveSucceeded(err error) bool {
	var commErr Error
	if errors.As(err, &commErr) && commErr.MayHaveSucceeded() {
		return true
	}
	return false
}

// Temporary returns true if err (or an error it wraps) indicates a possibly transient condition.
func Temporary(err error) bool {
	var commErr Error
	if errors.As(err, &commErr) && commErr.Temporary() {
		return true
	}
	return false
}
