// Package common provides shared utilities and types used across the application.
package common

import "errors"

// Common application errors. These form the error taxonomy every layer
// classifies into: callers match with errors.Is and treat anything else
// as an opaque store failure.
var (
	// ErrNotFound covers both a missing record and a record owned by a
	// different user; the two are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a uniqueness invariant violation (duplicate
	// category name, duplicate email).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput signals a value failing a domain constraint that the
	// core re-validates before touching the store.
	ErrInvalidInput = errors.New("invalid input")
)
