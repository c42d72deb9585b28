package domain

import "errors"

// Validation errors: rejected before any mutation.
var (
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge       = errors.New("file exceeds maximum upload size")
	ErrMissingField       = errors.New("required field is missing")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
)

// Authentication and authorization errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already registered")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrAccountNotActive   = errors.New("account is not active")
	ErrMFARequired        = errors.New("MFA code required")
	ErrInvalidMFACode     = errors.New("invalid MFA code")
	ErrAccessDenied       = errors.New("access denied")
)

// Not-found errors.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrFileNotFound    = errors.New("file not found")
)

// Hard failures.
var (
	// ErrIntegrity is returned when authenticated decryption fails; plaintext
	// is never partially returned.
	ErrIntegrity = errors.New("decryption integrity check failed")

	// ErrStorage marks filesystem/object-store failures other than "file absent".
	ErrStorage = errors.New("storage failure")

	// ErrAnalysisFailed marks a failed or timed-out external analysis call.
	// It never aborts session creation.
	ErrAnalysisFailed = errors.New("external analysis failed")
)
