package plants

import "errors"

var (
	// ErrInvalidInput means a required identifier was missing; no request
	// is made to the backing store.
	ErrInvalidInput = errors.New("missing record id")

	// ErrNotFound means the lookup matched zero records.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidRecord means the record came back structurally malformed.
	ErrInvalidRecord = errors.New("record has no fields")
)
