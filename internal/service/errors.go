// Package service implements the single-shot assistant features and the
// health record operations that sit beside the consultation pipeline.
package service

import "errors"

var (
	// ErrInvalidInput is returned for requests that fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned for sessions or records the caller cannot see.
	ErrNotFound = errors.New("not found")
)
