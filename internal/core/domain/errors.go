package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Rejection reasons. Controllers treat these as silent no-ops; they are
	// only surfaced to blocking callers that need to know why nothing happened.

	// ErrEmptyInput indicates a topic or question was empty or whitespace.
	ErrEmptyInput = errors.New("input is empty")

	// ErrBusy indicates an operation of the same kind is already in flight.
	ErrBusy = errors.New("operation already in progress")

	// ErrNotReady indicates no knowledge base has been built yet.
	ErrNotReady = errors.New("knowledge base not ready")

	// ErrBackendUnavailable indicates the backend could not be reached.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrInvalidSettings indicates the client settings failed validation.
	ErrInvalidSettings = errors.New("invalid settings")
)

// GenericAskFailure is the detail used when an ask failure has no body detail.
const GenericAskFailure = "Request failed"

// TransportError is a non-2xx response or network failure on a backend call.
type TransportError struct {
	// Op names the backend operation, e.g. "status" or "build".
	Op string

	// StatusCode is the HTTP status, or 0 for network failures.
	StatusCode int

	// Message is the user-facing description.
	Message string

	// Err is the underlying network error, if any.
	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AskError is a failed question. Detail comes from the response body when
// the backend provides one.
type AskError struct {
	StatusCode int
	Detail     string
}

func (e *AskError) Error() string {
	if e.Detail == "" {
		return GenericAskFailure
	}
	return e.Detail
}

// DomainFailure is a well-formed response reporting that the operation
// could not be completed, such as a build with success=false.
type DomainFailure struct {
	Reason string
}

func (e *DomainFailure) Error() string {
	return e.Reason
}

// IsTransport checks if the error is a transport-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsDomainFailure checks if the error is a domain-level failure.
func IsDomainFailure(err error) bool {
	var df *DomainFailure
	return errors.As(err, &df)
}

// IsAskError checks if the error is a failed question.
func IsAskError(err error) bool {
	var ae *AskError
	return errors.As(err, &ae)
}

// IsRejection checks if the error is a local validation rejection.
func IsRejection(err error) bool {
	return errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrBusy) || errors.Is(err, ErrNotReady)
}
