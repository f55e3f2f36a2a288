package model

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidJobID = errors.New("invalid job id")
	ErrInvalidInput = errors.New("invalid input")
)
