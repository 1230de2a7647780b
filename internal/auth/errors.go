package auth

import "errors"

// InvalidCredentialsMessage is shown on the login form for any rejected attempt.
const InvalidCredentialsMessage = "Incorrect email or password. Please try again."

var (
	// ErrInvalidCredentials is returned for a wrong email or password; it never says which.
	ErrInvalidCredentials = errors.New(InvalidCredentialsMessage)

	// ErrInvalidPasswordHash is returned when the configured reference digest is not a hex SHA-256.
	ErrInvalidPasswordHash = errors.New("auth: password hash must be 64 hex characters")

	// ErrMissingEmail is returned when no dashboard account is configured.
	ErrMissingEmail = errors.New("auth: dashboard email is required")
)
