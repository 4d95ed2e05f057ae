// Package errs holds the error taxonomy shared by the session store, the
// completion gateway and the HTTP layer.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindMissingCredential Kind = "missing_credential"
	KindInvalidCredential Kind = "invalid_credential"
	KindInvalidInput      Kind = "invalid_input"
	KindUpstream          Kind = "upstream_error"
	KindStorageWarning    Kind = "storage_warning"
	KindNotFound          Kind = "not_found"
	KindCorruptRecord     Kind = "corrupt_record"
)

type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause == nil || e.Cause.Error() == e.Message {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func New(kind Kind, message string, cause error) error {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

func MissingCredential(message string) error {
	return New(KindMissingCredential, message, nil)
}

func InvalidCredential(message string, cause error) error {
	return New(KindInvalidCredential, message, cause)
}

func InvalidInput(message string) error {
	return New(KindInvalidInput, message, nil)
}

func Upstream(message string, cause error) error {
	return New(KindUpstream, message, cause)
}

func NotFound(message string) error {
	return New(KindNotFound, message, nil)
}

func CorruptRecord(message string, cause error) error {
	return New(KindCorruptRecord, message, cause)
}

// StorageWarning wraps a persistence failure. The operation that returned it
// still completed in memory.
func StorageWarning(op string, cause error) error {
	return New(KindStorageWarning, "failed to persist "+op, cause)
}

// KindOf returns the kind of the outermost AppError in err's chain, or "".
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// MessageOf returns the user-facing message of an AppError, or err.Error().
func MessageOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsWarning reports whether err only signals a non-fatal persistence problem.
func IsWarning(err error) bool {
	return Is(err, KindStorageWarning)
}

// HTTPStatus maps an error to the status the HTTP layer answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindMissingCredential, KindInvalidInput:
		return http.StatusBadRequest
	case KindInvalidCredential:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindStorageWarning:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
