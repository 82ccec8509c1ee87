package repository

import "errors"

// Sentinel kinds for risk board errors.
var (
	ErrNotFound      = errors.New("user has no risk profile")
	ErrInvalidLimit  = errors.New("invalid watchlist limit")
	ErrInvalidUserID = errors.New("user id must not be empty")
)
