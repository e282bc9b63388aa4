package store

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to the errors produced by this package.
const (
	TextCodeValidation          = "VALIDATION_ERROR"
	TextCodeConstraintViolation = "CONSTRAINT_VIOLATION"
	TextCodeUnavailable         = "STORE_UNAVAILABLE"
	TextCodeNotFound            = "NOT_FOUND"
)

// ErrNotFound is never returned by repositories, which report absence with a nil
// entity. Request handlers use it to render the absent case.
var ErrNotFound = goerrors.New("entity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotFound)

// NewValidationError reports a missing or malformed field. It is raised before
// any backend call.
func NewValidationError(source error) error {
	return goerrors.Wrap(source, goerrors.CategoryValidation, fmt.Sprintf("validation failed: %v", source)).
		WithTextCode(TextCodeValidation)
}

// NewConstraintViolation reports a uniqueness or reference violation. The message
// is the backend's own message.
func NewConstraintViolation(source error) error {
	return goerrors.Wrap(source, goerrors.CategoryConflict, source.Error()).
		WithTextCode(TextCodeConstraintViolation)
}

// NewUnavailable reports a connection or timeout failure talking to the backend.
func NewUnavailable(backend string, source error) error {
	return goerrors.Wrap(source, goerrors.CategoryExternal, fmt.Sprintf("%s store unavailable: %v", backend, source)).
		WithTextCode(TextCodeUnavailable)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	return hasTextCode(err, TextCodeValidation)
}

// IsConstraintViolation reports whether err is a ConstraintViolation.
func IsConstraintViolation(err error) bool {
	return hasTextCode(err, TextCodeConstraintViolation)
}

// IsUnavailable reports whether err is a StoreUnavailable error.
func IsUnavailable(err error) bool {
	return hasTextCode(err, TextCodeUnavailable)
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return hasTextCode(err, TextCodeNotFound)
}

// IsClassified reports whether err already belongs to the taxonomy, so drivers
// do not wrap it twice.
func IsClassified(err error) bool {
	return IsValidation(err) || IsConstraintViolation(err) || IsUnavailable(err)
}

func hasTextCode(err error, code string) bool {
	var ge *goerrors.Error
	if !errors.As(err, &ge) {
		return false
	}
	return ge.TextCode == code
}
