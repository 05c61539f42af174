package command

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-registration/pkg/types"
)

const (
	textCodeValidationFailed = "REGISTRATION_VALIDATION_FAILED"
	textCodeCreationFailed   = "REGISTRATION_CREATION_FAILED"
	textCodeSignupDisabled   = "REGISTRATION_SIGNUP_DISABLED"
)

var (
	// ErrListenerRequired indicates the registration input lacks a listener.
	ErrListenerRequired = types.ErrMissingListener
	// ErrSignupDisabled indicates self-registration is disabled via feature gate.
	ErrSignupDisabled = errors.New("go-registration: signup disabled")
	// ErrPasswordLength indicates a generator was configured with a non-positive length.
	ErrPasswordLength = errors.New("go-registration: password length must be positive")
)

// creationError wraps a failure of the create step with go-errors metadata.
// Errors that are already rich keep their category.
func creationError(err error, metadata map[string]any) error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.WithMetadata(metadata)
	}

	category := goerrors.CategoryInternal
	code := goerrors.CodeInternal
	textCode := textCodeCreationFailed
	if errors.Is(err, ErrSignupDisabled) {
		category = goerrors.CategoryAuthz
		code = goerrors.CodeForbidden
		textCode = textCodeSignupDisabled
	}

	return goerrors.Wrap(err, category, err.Error()).
		WithCode(code).
		WithTextCode(textCode).
		WithMetadata(metadata)
}

// ValidationError converts rejected fields into a go-errors validation error.
// It returns nil when nothing failed.
func ValidationError(fields types.FieldErrors) error {
	if !fields.HasErrors() {
		return nil
	}
	return goerrors.New("registration input is invalid", goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(textCodeValidationFailed).
		WithMetadata(map[string]any{"fields": map[string][]string(fields)})
}
