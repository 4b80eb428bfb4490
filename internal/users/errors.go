package users

import "errors"

var (
	ErrNotFound           = errors.New("user not found")
	ErrPhoneTaken         = errors.New("user with this phone number already exists")
	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrInactive           = errors.New("account is deactivated")
	ErrNotVerified        = errors.New("account not verified")
)
