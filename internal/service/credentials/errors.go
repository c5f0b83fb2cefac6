package credentials

import "errors"

var (
	ErrInvalidEmail  = errors.New("invalid email")
	ErrWeakPassword  = errors.New("password must have at least 6 characters")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUserNotFound  = errors.New("user not found")
	ErrWrongPassword = errors.New("wrong password")
	ErrUnknownDigest = errors.New("unknown password digest format")
)
