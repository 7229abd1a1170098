package services

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidRange     = errors.New("invalid analytics query")
	ErrCoachDisabled    = errors.New("AI coach is not configured")
	ErrArchiveDisabled  = errors.New("data archive is not configured")
	ErrMissingProfileID = errors.New("external user id is required")
)
