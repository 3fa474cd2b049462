package submission

import "context"

// Service is the submission processing pipeline: synchronous creation and
// query operations for the API layer, and the asynchronous preprocess and
// postprocess stages run by the task queue.
type Service interface {
	// CreateSubmission validates the manifest, persists a new submission in
	// waiting_validation, and enqueues the preprocess stage.
	CreateSubmission(ctx context.Context, req CreateSubmissionRequest) (*Submission, error)

	GetSubmission(ctx context.Context, id int64) (*Submission, error)
	ListSubmissions(ctx context.Context, filters SubmissionFilters) ([]*Submission, error)

	// Preprocess validates the story document, allocates the global
	// identifier, issues upload grants, and uploads the raw document.
	Preprocess(ctx context.Context, id int64) error

	// RegisterUpload confirms that every granted file landed in storage and
	// enqueues the postprocess stage. The probe stops at the first missing
	// file.
	RegisterUpload(ctx context.Context, id int64) (*Submission, error)

	// Postprocess compiles and annotates the story document and publishes
	// the final artifact.
	Postprocess(ctx context.Context, id int64) error

	// ConvertToStory publishes a processed submission as a story. Refusals
	// (wrong status, already linked) are reported in the result, not as
	// errors.
	ConvertToStory(ctx context.Context, req ConvertToStoryRequest) (*ConvertResult, error)

	GetStory(ctx context.Context, globalID string) (*Story, error)
	ListStories(ctx context.Context, filters StoryFilters) ([]*Story, error)
}
