package model

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateResponse is returned when a participant already has a
	// response recorded for the survey.
	ErrDuplicateResponse = errors.New("duplicate response")
	// ErrInvalidEmail is returned for input that is not an email address.
	ErrInvalidEmail = errors.New("invalid email")
)
