package testutil

import (
	"errors"
	"net/http/httptest"
	"testing"

	apperrors "agencyledger/internal/errors"
)

// AssertAppError fails the test unless err carries the given AppError code.
// Wrapped AppErrors count; the first AppError in the chain is compared.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error %s, got nil", code)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError %s, got %T: %v", code, err, err)
	}
	if appErr.Code != code {
		t.Errorf("error code = %s, want %s (%s)", appErr.Code, code, appErr.Message)
	}
}

// AssertErrorKind checks the coarse error category without pinning a code.
func AssertErrorKind(t *testing.T, err error, kind apperrors.ErrorKind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperrors.Kind(err); got != kind {
		t.Errorf("error kind = %s, want %s (code %s)", got, kind, apperrors.Code(err))
	}
}

// AssertStatus checks a recorded HTTP status and prints the body on mismatch.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()

	if w.Code != status {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, status, w.Body.String())
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error (%s): %v", apperrors.Code(err), err)
	}
}
