package auth

import "errors"

var (
	// ErrEmailAlreadyExists indicates the email is already registered.
	ErrEmailAlreadyExists = errors.New("email already registered")
	// ErrUsernameAlreadyExists indicates the username is already registered.
	ErrUsernameAlreadyExists = errors.New("username already registered")
	// ErrUserAlreadyExists covers duplicates the store cannot attribute to a
	// specific field.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned when authentication or credential
	// validation fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound signals that the user could not be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidArgument marks registration payloads that fail validation.
	ErrInvalidArgument = errors.New("invalid argument")
)
