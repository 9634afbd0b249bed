package database

import "errors"

var (
	// ErrShortIDExists is returned by a conditional insert when the short id
	// is already taken, including by a logically expired but not yet swept row.
	ErrShortIDExists = errors.New("short id exists")
	// ErrMappingNotFound is returned when no mapping is stored under the
	// requested short id.
	ErrMappingNotFound = errors.New("url mapping not found")
)
