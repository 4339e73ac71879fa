package service

import "errors"

// Common service errors
var (
	ErrInvalidInput = errors.New("invalid input")
)

// Matchmaking specific errors
var (
	ErrMatchNotFound = errors.New("match not found")
)

// Stats specific errors
var (
	ErrStatsUnavailable = errors.New("stats ledger unavailable")
)
