package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidAlert     = errors.New("invalid alert")
	// ErrNoFares is returned by the price oracle when the search succeeded
	// but produced no offers.
	ErrNoFares = errors.New("no fares found")
)

// OracleError is an error reported by the price oracle itself, as opposed to
// a transport failure talking to it.
type OracleError struct {
	Detail string
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle error: %s", e.Detail)
}
