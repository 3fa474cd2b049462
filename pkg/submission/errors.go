package submission

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrSubmissionNotFound indicates an unknown submission id.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrStoryNotFound indicates an unknown story.
	ErrStoryNotFound = errors.New("story not found")

	// ErrSeriesNotFound indicates an unknown series.
	ErrSeriesNotFound = errors.New("series not found")

	// ErrIllegalTransition indicates a stage was invoked while the
	// submission is not in a status that stage accepts. These are
	// ordering bugs on the caller's side and are never silently absorbed.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrInvalidManifest indicates a structurally invalid file manifest.
	ErrInvalidManifest = errors.New("invalid file manifest")

	// ErrNoUploadGrants indicates an upload check on a submission with no
	// persisted grants.
	ErrNoUploadGrants = errors.New("no upload grants recorded")

	// ErrAlreadyLinked indicates a conversion attempt on a submission that
	// is already linked to a published story.
	ErrAlreadyLinked = errors.New("submission already linked to a story")

	// ErrGlobalIDExhausted indicates repeated global identifier collisions.
	ErrGlobalIDExhausted = errors.New("could not allocate a unique global identifier")
)

// SubmissionError wraps a failure of a pipeline operation on one submission.
type SubmissionError struct {
	ID  int64
	Op  string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission operation %s failed for submission %d: %v", e.Op, e.ID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failure of an object storage operation.
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
