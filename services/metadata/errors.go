package metadata

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that the requested id or category does not exist upstream.
var ErrNotFound = errors.New("metadata: not found")

// NetworkError wraps a transport failure or an unexpected upstream status.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tmdb %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tmdb %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports an upstream payload that does not match the catalog schema.
type ParseError struct {
	Op    string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("tmdb %s: parse: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("tmdb %s: parse %s: %v", e.Op, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
