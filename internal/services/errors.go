package services

import "errors"

var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateUser indicates that the username is already taken.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrUserNotFound indicates that no record exists for the username.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials indicates a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
