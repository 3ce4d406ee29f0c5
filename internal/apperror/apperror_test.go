package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
		kind   Kind
	}{
		{"bad request", BadRequest("bad"), http.StatusBadRequest, KindBadRequest},
		{"unauthorized", Unauthorized("who"), http.StatusUnauthorized, KindUnauthorized},
		{"forbidden", Forbidden("no"), http.StatusForbidden, KindForbidden},
		{"not found", NotFound("gone"), http.StatusNotFound, KindNotFound},
		{"conflict", Conflict("dup"), http.StatusConflict, KindConflict},
		{"internal", Internal("boom"), http.StatusInternalServerError, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Status() != tt.status {
				t.Errorf("Status() = %d, want %d", tt.err.Status(), tt.status)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
		})
	}
}

func TestEmptyMessageDefaultsToKindName(t *testing.T) {
	err := NotFound("")
	if err.Error() != "NotFoundError" {
		t.Errorf("Error() = %q, want NotFoundError", err.Error())
	}
}

func TestCauseIsUnwrapped(t *testing.T) {
	cause := errors.New("db down")
	err := Internal("failed", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestStatusOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("get role: %w", NotFound("missing"))
	if got := StatusOf(wrapped); got != http.StatusNotFound {
		t.Errorf("StatusOf(wrapped) = %d, want 404", got)
	}
	if !Is(wrapped, KindNotFound) {
		t.Error("expected Is(wrapped, KindNotFound)")
	}
	if got := StatusOf(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("StatusOf(plain) = %d, want 500", got)
	}
}
