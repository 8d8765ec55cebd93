package model

import "errors"

var (
	// ErrDataUnavailable means the provider returned no bars, or the request fell outside what the
	// provider serves (for example minute bars older than the recency ceiling).
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInsufficientHistory means fewer observations exist than the requested window.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrMalformedInput means a record is missing its identity fields.
	ErrMalformedInput = errors.New("malformed input")
)
