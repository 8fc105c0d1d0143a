package caldav

import (
	"errors"
	"fmt"
	"net/http"
)

// Outcome is the classification of a CalDAV response status code.
type Outcome int

const (
	OutcomeUnexpected Outcome = iota
	OutcomeMultiStatus
	OutcomeCreated
	OutcomeUpdated
	OutcomeAuthFailure
	OutcomeAccessDenied
	OutcomeNotFound
)

var outcomeNames = map[Outcome]string{
	OutcomeUnexpected:   "unexpected",
	OutcomeMultiStatus:  "success-multistatus",
	OutcomeCreated:      "success-created",
	OutcomeUpdated:      "success-updated",
	OutcomeAuthFailure:  "auth-failure",
	OutcomeAccessDenied: "access-denied",
	OutcomeNotFound:     "not-found",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// IsWriteSuccess reports whether a PUT stored the event (201 or 204).
func (o Outcome) IsWriteSuccess() bool {
	return o == OutcomeCreated || o == OutcomeUpdated
}

// IsSuccess reports whether the outcome is any of the success classes.
func (o Outcome) IsSuccess() bool {
	return o == OutcomeMultiStatus || o.IsWriteSuccess()
}

// Classify maps an HTTP status code to an Outcome. Codes without a dedicated
// class are OutcomeUnexpected.
func Classify(code int) Outcome {
	switch code {
	case http.StatusMultiStatus:
		return OutcomeMultiStatus
	case http.StatusCreated:
		return OutcomeCreated
	case http.StatusNoContent:
		return OutcomeUpdated
	case http.StatusUnauthorized:
		return OutcomeAuthFailure
	case http.StatusForbidden:
		return OutcomeAccessDenied
	case http.StatusNotFound:
		return OutcomeNotFound
	default:
		return OutcomeUnexpected
	}
}

var (
	// ErrNetwork wraps transport failures (DNS, TLS, connection refused).
	ErrNetwork          = errors.New("network unreachable")
	ErrAuthFailure      = errors.New("authentication failed")
	ErrAccessDenied     = errors.New("access denied")
	ErrNotFound         = errors.New("not found")
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// StatusError is returned when a request completed with a non-success outcome.
type StatusError struct {
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d (%s)", e.Response.StatusCode, e.Response.Outcome)
}

// Is lets errors.Is match a StatusError against the outcome sentinels.
func (e *StatusError) Is(target error) bool {
	switch e.Response.Outcome {
	case OutcomeAuthFailure:
		return target == ErrAuthFailure
	case OutcomeAccessDenied:
		return target == ErrAccessDenied
	case OutcomeNotFound:
		return target == ErrNotFound
	default:
		// Success classes only end up here when the request expected a
		// different one, e.g. 201 from a PROPFIND.
		return target == ErrUnexpectedStatus
	}
}
