package model

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error taxonomy shared by the repository, service and handler layers.
// Repository errors propagate unchanged to the request layer; cache errors
// never reach this taxonomy (absorbed by the cache coordinator).
var (
	// ErrNoteNotFound covers both "absent" and "not yours" so the API cannot
	// leak existence of other users' notes.
	ErrNoteNotFound = errors.New("note not found")

	ErrVersionNotFound = errors.New("note version not found")

	// ErrDuplicateVersion signals a (note_id, version_number) collision in the
	// version store. Under correct caller discipline it can never happen, so
	// it is a consistency violation, not user error.
	ErrDuplicateVersion = errors.New("duplicate version snapshot")

	// ErrStoreUnavailable marks infrastructure failures of the transactional
	// store. Retryable; any started transaction has been rolled back.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError is the caller's fault and is returned before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports an optimistic-lock failure. CurrentVersion is the
// authoritative stored version so the caller can retry without another read.
type ConflictError struct {
	CurrentVersion  int
	ProvidedVersion int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict: note is at version %d, caller supplied %d",
		e.CurrentVersion, e.ProvidedVersion)
}

// MarkUnavailable wraps an infrastructure error with context and tags it as
// ErrStoreUnavailable for errors.Is checks at the request layer.
func MarkUnavailable(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrStoreUnavailable)
}
