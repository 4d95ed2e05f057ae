package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing credential", MissingCredential("no key"), http.StatusBadRequest},
		{"invalid input", InvalidInput("bad"), http.StatusBadRequest},
		{"invalid credential", InvalidCredential("bad key", nil), http.StatusUnauthorized},
		{"not found", NotFound("gone"), http.StatusNotFound},
		{"upstream", Upstream("boom", errors.New("x")), http.StatusInternalServerError},
		{"plain error", errors.New("plain"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("gone")), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStorageWarningUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := StorageWarning("session", cause)
	if !IsWarning(err) {
		t.Fatalf("expected storage warning, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be unwrappable")
	}
	if err.Error() != "failed to persist session: disk full" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestIsNil(t *testing.T) {
	if Is(nil, KindNotFound) {
		t.Error("nil error must not match any kind")
	}
	if KindOf(errors.New("x")) != "" {
		t.Error("plain error has no kind")
	}
}

func TestMessageOf(t *testing.T) {
	err := Upstream("quota exceeded", errors.New("429"))
	if got := MessageOf(err); got != "quota exceeded" {
		t.Errorf("MessageOf = %q", got)
	}
	if got := MessageOf(errors.New("plain")); got != "plain" {
		t.Errorf("MessageOf(plain) = %q", got)
	}
}
