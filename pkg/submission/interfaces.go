package submission

import (
	"context"
	"io"
	"time"

	"github.com/chatficdb/chatficdb/pkg/chatfic"
)

// Repository is the durable record store for submissions, stories and
// series. Implementations must provide atomic read-modify-save semantics per
// record.
type Repository interface {
	CreateSubmission(ctx context.Context, sub *Submission) error
	GetSubmission(ctx context.Context, id int64) (*Submission, error)
	UpdateSubmission(ctx context.Context, sub *Submission) error
	ListSubmissions(ctx context.Context, filters SubmissionFilters) ([]*Submission, error)

	// GlobalIDInUse reports whether a global identifier is already taken by
	// any submission or story.
	GlobalIDInUse(ctx context.Context, globalID string) (bool, error)

	CreateStory(ctx context.Context, story *Story) error
	GetStoryByGlobalID(ctx context.Context, globalID string) (*Story, error)
	ListStories(ctx context.Context, filters StoryFilters) ([]*Story, error)

	GetSeries(ctx context.Context, id int64) (*Series, error)
}

// ObjectStore is the gateway to the external object storage service.
type ObjectStore interface {
	// GrantUpload issues a time-limited credential for writing one object,
	// accepting uploads between minSize and maxSize bytes.
	GrantUpload(ctx context.Context, key string, minSize, maxSize int64, expires time.Duration) (*UploadGrant, error)

	// Upload writes an object directly, server-side.
	Upload(ctx context.Context, key, contentType string, body io.Reader) error

	// Exists probes for an object without fetching it.
	Exists(ctx context.Context, key string) (bool, error)

	// Download fetches an object.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// TaskQueue runs pipeline stages asynchronously, one at a time, in enqueue
// order.
type TaskQueue interface {
	Enqueue(name string, run func(context.Context) error) error
}

// Annotator enriches a compiled document with sentiment tags.
type Annotator interface {
	Annotate(doc *chatfic.Compiled)
}
