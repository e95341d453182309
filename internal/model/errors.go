package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrPseudoTaken    = errors.New("pseudo already taken")
	ErrInvalidPseudo  = errors.New("pseudo must be between 2 and 20 characters")
	ErrPseudoRequired = errors.New("pseudo required")
	ErrPseudoSlash    = errors.New("pseudo must not contain '/'")

	// Game errors
	ErrNegativeStat   = errors.New("game statistics must not be negative")
	ErrStatOutOfRange = errors.New("game statistics must not exceed 2147483647")
)

// StoreError wraps a failure of the underlying persistence layer.
// Op names the storage operation that failed.
type StoreError struct {
	Op  string
	Err error
}

// NewStoreError wraps err, returning nil when err is nil
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
