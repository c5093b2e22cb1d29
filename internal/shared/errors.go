package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation indicates a submitted form failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden indicates a missing permission grant.
	ErrForbidden = errors.New("access denied")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage returns a message suitable for rendering to the user.
// Known domain errors pass through; anything else is masked so internal
// diagnostics never reach the response body.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record could not be found"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to perform this action"
	default:
		return "Something went wrong, please try again"
	}
}
