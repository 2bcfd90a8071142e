package user

import "errors"

var (
	ErrNotFound     = errors.New("user not found")
	ErrLoginTaken   = errors.New("login already taken")
	ErrInvalidAuth  = errors.New("invalid credentials")
	ErrInvalidInput = errors.New("invalid input")
)
