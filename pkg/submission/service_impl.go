package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chatficdb/chatficdb/pkg/chatfic"
)

// service implements the Service interface.
type service struct {
	repository Repository
	store      ObjectStore
	queue      TaskQueue
	annotator  Annotator
	serverSlug string
}

// Option represents a functional option for configuring the service.
type Option func(*service)

// WithRepository sets the record store for the service.
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithObjectStore sets the object storage gateway.
func WithObjectStore(store ObjectStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithQueue sets the task queue stages are enqueued on.
func WithQueue(queue TaskQueue) Option {
	return func(s *service) {
		s.queue = queue
	}
}

// WithAnnotator sets the sentiment annotator applied during postprocess.
func WithAnnotator(a Annotator) Option {
	return func(s *service) {
		s.annotator = a
	}
}

// WithServerSlug sets the server slug stamped into compiled documents.
func WithServerSlug(slug string) Option {
	return func(s *service) {
		s.serverSlug = slug
	}
}

// New creates a new pipeline service with the given options.
func New(options ...Option) (Service, error) {
	s := &service{}
	for _, option := range options {
		option(s)
	}
	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if s.queue == nil {
		return nil, fmt.Errorf("task queue is required")
	}
	return s, nil
}

// CreateSubmission validates the manifest, persists the record and enqueues
// the preprocess stage. After creation the record is mutated only by the
// pipeline stages.
func (s *service) CreateSubmission(ctx context.Context, req CreateSubmissionRequest) (*Submission, error) {
	if err := validateManifest(req.Files); err != nil {
		return nil, err
	}
	if _, err := s.repository.GetSeries(ctx, req.SeriesID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub := &Submission{
		Title:       req.Title,
		Description: req.Description,
		Author:      req.Author,
		StoryText:   req.StoryText,
		SeriesID:    req.SeriesID,
		Files:       req.Files,
		Status:      StatusWaitingValidation,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if err := s.repository.CreateSubmission(ctx, sub); err != nil {
		return nil, &SubmissionError{Op: "create", Err: err}
	}

	id := sub.ID
	if err := s.queue.Enqueue(fmt.Sprintf("preprocess submission %d", id), func(ctx context.Context) error {
		return s.Preprocess(ctx, id)
	}); err != nil {
		return nil, &SubmissionError{ID: id, Op: "enqueue preprocess", Err: err}
	}

	return sub, nil
}

func validateManifest(files []FileEntry) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: files_list is empty", ErrInvalidManifest)
	}
	hasBasic := false
	for _, f := range files {
		if f.Name == "" {
			return fmt.Errorf("%w: every file entry needs a name", ErrInvalidManifest)
		}
		if f.Size <= 0 {
			return fmt.Errorf("%w: file %s needs a positive size", ErrInvalidManifest, f.Name)
		}
		if f.Name == BasicDocumentName {
			hasBasic = true
		}
	}
	if !hasBasic {
		return fmt.Errorf("%w: %s file is required", ErrInvalidManifest, BasicDocumentName)
	}
	return nil
}

func (s *service) GetSubmission(ctx context.Context, id int64) (*Submission, error) {
	return s.repository.GetSubmission(ctx, id)
}

func (s *service) ListSubmissions(ctx context.Context, filters SubmissionFilters) ([]*Submission, error) {
	return s.repository.ListSubmissions(ctx, filters)
}

// Preprocess is the first asynchronous stage: validate the story document,
// allocate the global identifier, compute the upload contract, issue grants,
// and upload the raw document server-side.
func (s *service) Preprocess(ctx context.Context, id int64) error {
	sub, err := s.repository.GetSubmission(ctx, id)
	if err != nil {
		return &SubmissionError{ID: id, Op: "preprocess", Err: err}
	}
	if _, err := canPreprocess(sub.Status); err != nil {
		return &SubmissionError{ID: id, Op: "preprocess", Err: err}
	}

	if !sub.HasFile(BasicDocumentName) {
		sub.AppendLog(BasicDocumentName + " missing from file manifest")
		return s.fail(ctx, sub, StatusValidationFailed)
	}

	// Asset names referenced by the manifest, media marker stripped.
	var media []string
	for _, f := range sub.Files {
		if strings.HasPrefix(f.Name, MediaPrefix) {
			media = append(media, strings.TrimPrefix(f.Name, MediaPrefix))
		}
	}

	result := chatfic.Validate(sub.StoryText, media)
	if !result.Valid {
		sub.AppendLog(strings.Join(result.ErrorMessages(), "\n"))
		return s.fail(ctx, sub, StatusValidationFailed)
	}

	globalID, err := s.newGlobalID(ctx)
	if err != nil {
		return &SubmissionError{ID: id, Op: "preprocess", Err: err}
	}

	// Declared-but-unreferenced assets are dropped from the upload contract
	// rather than rejected.
	unused := make(map[string]bool)
	for _, name := range result.UnusedMedia() {
		unused[name] = true
	}

	var contract []FileEntry
	for _, f := range sub.Files {
		switch {
		case strings.HasPrefix(f.Name, MediaPrefix):
			if !unused[strings.TrimPrefix(f.Name, MediaPrefix)] {
				contract = append(contract, f)
			}
		case f.Name == MarkdownDocumentName:
			contract = append(contract, f)
		}
	}

	if len(contract) == 0 {
		sub.AppendLog("no valid files found")
		return s.fail(ctx, sub, StatusValidationFailed)
	}

	grants := make([]UploadGrant, 0, len(contract))
	for _, f := range contract {
		minSize := f.Size - SizeTolerance
		if minSize < 0 {
			minSize = 0
		}
		grant, err := s.store.GrantUpload(ctx, ObjectKey(globalID, f.Name), minSize, f.Size, GrantTTL)
		if err != nil {
			sub.AppendLog(fmt.Sprintf("could not issue upload grant for %s: %v", f.Name, err))
			return s.fail(ctx, sub, StatusValidationFailed)
		}
		grant.Name = f.Name
		grants = append(grants, *grant)
	}

	// The server owns the raw document and writes it itself.
	key := ObjectKey(globalID, BasicDocumentName)
	if err := s.store.Upload(ctx, key, "application/json", strings.NewReader(sub.StoryText)); err != nil {
		sub.AppendLog(fmt.Sprintf("could not store %s: %v", BasicDocumentName, err))
		return s.fail(ctx, sub, StatusValidationFailed)
	}

	sub.StoryGlobalID = globalID
	sub.Grants = grants
	sub.Status = StatusWaitingUserUpload
	sub.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateSubmission(ctx, sub); err != nil {
		return &SubmissionError{ID: id, Op: "preprocess", Err: err}
	}
	return nil
}

// RegisterUpload confirms client uploads and hands the submission to the
// postprocess stage. The existence probe stops at the first missing file.
func (s *service) RegisterUpload(ctx context.Context, id int64) (*Submission, error) {
	sub, err := s.repository.GetSubmission(ctx, id)
	if err != nil {
		return nil, &SubmissionError{ID: id, Op: "register_upload", Err: err}
	}
	if _, err := canCheckUpload(sub.Status); err != nil {
		return nil, &SubmissionError{ID: id, Op: "register_upload", Err: err}
	}
	if len(sub.Grants) == 0 {
		return nil, &SubmissionError{ID: id, Op: "register_upload", Err: ErrNoUploadGrants}
	}

	for _, grant := range sub.Grants {
		key := ObjectKey(sub.StoryGlobalID, grant.Name)
		exists, err := s.store.Exists(ctx, key)
		if err != nil {
			sub.AppendLog(fmt.Sprintf("could not check file %s: %v", grant.Name, err))
			return sub, s.fail(ctx, sub, StatusUserUploadFailed)
		}
		if !exists {
			sub.AppendLog(fmt.Sprintf("File %s not found in storage.", grant.Name))
			return sub, s.fail(ctx, sub, StatusUserUploadFailed)
		}
	}

	sub.AppendLog("All files uploaded successfully.")
	sub.Status = StatusWaitingPostProcessing
	sub.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateSubmission(ctx, sub); err != nil {
		return nil, &SubmissionError{ID: id, Op: "register_upload", Err: err}
	}

	if err := s.queue.Enqueue(fmt.Sprintf("postprocess submission %d", id), func(ctx context.Context) error {
		return s.Postprocess(ctx, id)
	}); err != nil {
		return nil, &SubmissionError{ID: id, Op: "enqueue postprocess", Err: err}
	}
	return sub, nil
}

// Postprocess is the second asynchronous stage: compile, annotate and
// publish the final document. Either the full document lands or the
// submission is marked failed with a dump of what would have been written.
func (s *service) Postprocess(ctx context.Context, id int64) error {
	sub, err := s.repository.GetSubmission(ctx, id)
	if err != nil {
		return &SubmissionError{ID: id, Op: "postprocess", Err: err}
	}
	if _, err := canPostprocess(sub.Status); err != nil {
		return &SubmissionError{ID: id, Op: "postprocess", Err: err}
	}

	compiled, err := chatfic.Compile(sub.StoryText, sub.StoryGlobalID, s.serverSlug)
	if err != nil {
		sub.AppendLog(fmt.Sprintf("could not compile story: %v", err))
		return s.fail(ctx, sub, StatusPostProcessingFailed)
	}

	if s.annotator != nil {
		s.annotator.Annotate(compiled)
	}

	payload, err := json.MarshalIndent(compiled, "", "    ")
	if err != nil {
		sub.AppendLog(fmt.Sprintf("could not serialize compiled story: %v", err))
		return s.fail(ctx, sub, StatusPostProcessingFailed)
	}

	key := ObjectKey(sub.StoryGlobalID, CompiledDocumentName)
	if err := s.store.Upload(ctx, key, "application/json", bytes.NewReader(payload)); err != nil {
		sub.AppendLog(fmt.Sprintf("could not publish compiled story: %v", err))
		sub.AppendLog(string(payload))
		return s.fail(ctx, sub, StatusPostProcessingFailed)
	}

	sub.AppendLog("Compiled story published.")
	sub.Status = StatusProcessed
	sub.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateSubmission(ctx, sub); err != nil {
		return &SubmissionError{ID: id, Op: "postprocess", Err: err}
	}
	return nil
}

// ConvertToStory publishes a processed submission as a catalog story and
// permanently links the two.
func (s *service) ConvertToStory(ctx context.Context, req ConvertToStoryRequest) (*ConvertResult, error) {
	sub, err := s.repository.GetSubmission(ctx, req.SubmissionID)
	if err != nil {
		return nil, &SubmissionError{ID: req.SubmissionID, Op: "convert", Err: err}
	}

	if sub.StoryID != nil {
		return &ConvertResult{Converted: false, Reason: "already linked"}, nil
	}
	if sub.Status != StatusProcessed {
		return &ConvertResult{
			Converted: false,
			Reason:    fmt.Sprintf("submission status is %s, not %s", sub.Status, StatusProcessed),
		}, nil
	}

	releaseDate := time.Now().UTC()
	if req.ReleaseDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.ReleaseDate)
		if err != nil {
			return &ConvertResult{Converted: false, Reason: fmt.Sprintf("invalid release date: %v", err)}, nil
		}
		releaseDate = parsed.UTC()
	}

	story := &Story{
		Title:          sub.Title,
		Description:    sub.Description,
		Author:         sub.Author,
		GlobalID:       sub.StoryGlobalID,
		SeriesID:       sub.SeriesID,
		ReleaseDate:    releaseDate,
		ExcludeFromRSS: req.ExcludeFromRSS,
	}
	if err := s.repository.CreateStory(ctx, story); err != nil {
		return nil, &SubmissionError{ID: sub.ID, Op: "convert", Err: err}
	}

	storyID := story.ID
	sub.StoryID = &storyID
	sub.AppendLog(fmt.Sprintf("Converted to story %d.", storyID))
	sub.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateSubmission(ctx, sub); err != nil {
		return nil, &SubmissionError{ID: sub.ID, Op: "convert", Err: err}
	}

	return &ConvertResult{Converted: true, Story: story}, nil
}

func (s *service) GetStory(ctx context.Context, globalID string) (*Story, error) {
	return s.repository.GetStoryByGlobalID(ctx, globalID)
}

func (s *service) ListStories(ctx context.Context, filters StoryFilters) ([]*Story, error) {
	return s.repository.ListStories(ctx, filters)
}

// fail records a terminal-failure status. The save error, if any, takes
// precedence so the caller learns the record could not be updated.
func (s *service) fail(ctx context.Context, sub *Submission, status Status) error {
	sub.Status = status
	sub.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateSubmission(ctx, sub); err != nil {
		return &SubmissionError{ID: sub.ID, Op: "save", Err: err}
	}
	return nil
}
