package domain

import (
	"errors"
	"fmt"
)

// ErrServer is returned when the feed envelope does not carry the success
// status. The catalog is left untouched when a refresh fails this way.
var ErrServer = errors.New("server error")

// ErrNotFound is returned by lookups for a location slug the catalog does not hold.
var ErrNotFound = errors.New("not found")

// DecodeError reports a field set that could not be decoded from a feed
// record. The field set is left at its zero value.
type DecodeError struct {
	Slug  string
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Slug == "" {
		return fmt.Sprintf("decode %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("decode %s of %q: %v", e.Field, e.Slug, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
