package models

import "errors"

// Repository errors. Callers match them with errors.Is.
var (
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique column (wallet address, unique id,
	// tx hash, refund hash) already holds the value.
	ErrDuplicate = errors.New("duplicate")

	// ErrNotPending is returned by conditional writes that found the record
	// already out of PENDING.
	ErrNotPending = errors.New("transaction is not pending")
)
