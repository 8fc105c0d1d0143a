package caldav

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		code int
		want Outcome
	}{
		{207, OutcomeMultiStatus},
		{201, OutcomeCreated},
		{204, OutcomeUpdated},
		{401, OutcomeAuthFailure},
		{403, OutcomeAccessDenied},
		{404, OutcomeNotFound},
		{200, OutcomeUnexpected},
		{301, OutcomeUnexpected},
		{412, OutcomeUnexpected},
		{500, OutcomeUnexpected},
		{0, OutcomeUnexpected},
	}

	for _, tt := range tests {
		if got := Classify(tt.code); got != tt.want {
			t.Errorf("Classify(%d) = %s, expected %s", tt.code, got, tt.want)
		}
	}
}

func TestOutcome_WriteSuccess(t *testing.T) {
	for _, code := range []int{201, 204} {
		if !Classify(code).IsWriteSuccess() {
			t.Errorf("Expected %d to be a write success", code)
		}
	}
	for _, code := range []int{207, 401, 403, 404, 500} {
		if Classify(code).IsWriteSuccess() {
			t.Errorf("Expected %d not to be a write success", code)
		}
	}
	if !OutcomeMultiStatus.IsSuccess() {
		t.Error("Expected multistatus to be a success")
	}
}

func TestStatusError_Is(t *testing.T) {
	tests := []struct {
		code   int
		target error
	}{
		{401, ErrAuthFailure},
		{403, ErrAccessDenied},
		{404, ErrNotFound},
		{500, ErrUnexpectedStatus},
		{201, ErrUnexpectedStatus},
	}

	for _, tt := range tests {
		err := error(&StatusError{Response: &Response{StatusCode: tt.code, Outcome: Classify(tt.code)}})
		if !errors.Is(err, tt.target) {
			t.Errorf("Expected HTTP %d to match %v", tt.code, tt.target)
		}
	}

	err := error(&StatusError{Response: &Response{StatusCode: 403, Outcome: OutcomeAccessDenied}})
	if errors.Is(err, ErrNotFound) {
		t.Error("Expected 403 not to match ErrNotFound")
	}
}
