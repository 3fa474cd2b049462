// Package api exposes the submission pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/chatficdb/chatficdb/pkg/submission"
)

// Handler handles HTTP requests for the submission pipeline.
type Handler struct {
	service submission.Service
}

// NewHandler creates a new pipeline handler.
func NewHandler(service submission.Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the routes for the submission pipeline and catalog reads.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/story_submissions", h.CreateSubmission)
	r.Get("/story_submissions", h.ListSubmissions)
	r.Get("/story_submissions/{id}", h.GetSubmission)
	r.Post("/story_submissions/{id}/register_upload", h.RegisterUpload)
	r.Post("/story_submissions/{id}/convert", h.ConvertToStory)

	r.Get("/stories", h.ListStories)
	r.Get("/story", h.GetStory)

	return r
}

// SubmissionResponse is the response body for a submission. Logs are
// rendered in the legacy free-text format.
type SubmissionResponse struct {
	ID            int64                    `json:"id"`
	Title         string                   `json:"title"`
	Description   string                   `json:"description"`
	Author        string                   `json:"author"`
	StoryGlobalID string                   `json:"storyGlobalId,omitempty"`
	SeriesID      int64                    `json:"series_id"`
	StoryID       *int64                   `json:"story_id,omitempty"`
	Files         []submission.FileEntry   `json:"files_list"`
	Grants        []submission.UploadGrant `json:"upload_grants,omitempty"`
	Logs          string                   `json:"logs,omitempty"`
	Status        int                      `json:"status"`
	StatusLabel   string                   `json:"status_label"`
	SubmittedAt   time.Time                `json:"submission_date"`
}

func newSubmissionResponse(sub *submission.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:            sub.ID,
		Title:         sub.Title,
		Description:   sub.Description,
		Author:        sub.Author,
		StoryGlobalID: sub.StoryGlobalID,
		SeriesID:      sub.SeriesID,
		StoryID:       sub.StoryID,
		Files:         sub.Files,
		Grants:        sub.Grants,
		Logs:          submission.ExportLogs(sub.Logs),
		Status:        int(sub.Status),
		StatusLabel:   sub.Status.String(),
		SubmittedAt:   sub.SubmittedAt,
	}
}

// ErrorResponse is the response body for request failures.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, submission.ErrSubmissionNotFound),
		errors.Is(err, submission.ErrStoryNotFound),
		errors.Is(err, submission.ErrSeriesNotFound):
		status = http.StatusNotFound
	case errors.Is(err, submission.ErrInvalidManifest),
		errors.Is(err, submission.ErrNoUploadGrants):
		status = http.StatusBadRequest
	case errors.Is(err, submission.ErrIllegalTransition),
		errors.Is(err, submission.ErrAlreadyLinked):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Detail: err.Error()})
}

// CreateSubmission accepts a new story package and enqueues preprocessing.
func (h *Handler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req submission.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}

	sub, err := h.service.CreateSubmission(r.Context(), req)
	if err != nil {
		renderError(w, r, err)
		return
	}

	slog.Info("submission created", "submission_id", sub.ID, "series_id", sub.SeriesID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newSubmissionResponse(sub))
}

// GetSubmission retrieves a submission by id.
func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Detail: "invalid submission id"})
		return
	}

	sub, err := h.service.GetSubmission(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, newSubmissionResponse(sub))
}

// ListSubmissions lists submissions, optionally filtered by status and story
// link.
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	var filters submission.SubmissionFilters

	if v := r.URL.Query().Get("status"); v != "" {
		code, err := strconv.Atoi(v)
		if err != nil || !submission.Status(code).IsValid() {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Detail: "invalid status filter"})
			return
		}
		status := submission.Status(code)
		filters.Status = &status
	}
	if v := r.URL.Query().Get("linked"); v != "" {
		linked, err := strconv.ParseBool(v)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Detail: "invalid linked filter"})
			return
		}
		filters.Linked = &linked
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filters.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filters.Offset, _ = strconv.Atoi(v)
	}

	subs, err := h.service.ListSubmissions(r.Context(), filters)
	if err != nil {
		renderError(w, r, err)
		return
	}

	resp := make([]SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		resp = append(resp, newSubmissionResponse(sub))
	}
	render.JSON(w, r, resp)
}

// RegisterUpload confirms client uploads and advances the pipeline.
func (h *Handler) RegisterUpload(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Detail: "invalid submission id"})
		return
	}

	sub, err := h.service.RegisterUpload(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	slog.Info("upload registered", "submission_id", id, "status", sub.Status.String())
	render.JSON(w, r, newSubmissionResponse(sub))
}

// ConvertToStory publishes a processed submission as a story.
func (h *Handler) ConvertToStory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Detail: "invalid submission id"})
		return
	}

	var req submission.ConvertToStoryRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Detail: "invalid request body: " + err.Error()})
			return
		}
	}
	req.SubmissionID = id

	result, err := h.service.ConvertToStory(r.Context(), req)
	if err != nil {
		renderError(w, r, err)
		return
	}

	if result.Converted {
		slog.Info("submission converted", "submission_id", id, "story_id", result.Story.ID)
	}
	render.JSON(w, r, result)
}

// StoryResponse is the response body for a catalog story.
type StoryResponse struct {
	IsFound        bool      `json:"isFound"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Author         string    `json:"author"`
	StoryGlobalID  string    `json:"storyGlobalId,omitempty"`
	ReleaseDate    time.Time `json:"release_date,omitzero"`
	ExcludeFromRSS bool      `json:"exclude_from_rss,omitempty"`
}

// GetStory retrieves a published story by global identifier.
func (h *Handler) GetStory(w http.ResponseWriter, r *http.Request) {
	globalID := r.URL.Query().Get("storyGlobalId")
	if globalID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Detail: "storyGlobalId is required"})
		return
	}

	story, err := h.service.GetStory(r.Context(), globalID)
	if err != nil {
		if errors.Is(err, submission.ErrStoryNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, StoryResponse{IsFound: false})
			return
		}
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, StoryResponse{
		IsFound:        true,
		Title:          story.Title,
		Description:    story.Description,
		Author:         story.Author,
		StoryGlobalID:  story.GlobalID,
		ReleaseDate:    story.ReleaseDate,
		ExcludeFromRSS: story.ExcludeFromRSS,
	})
}

// ListStories lists published stories.
func (h *Handler) ListStories(w http.ResponseWriter, r *http.Request) {
	var filters submission.StoryFilters
	if v := r.URL.Query().Get("series_id"); v != "" {
		seriesID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Detail: "invalid series_id filter"})
			return
		}
		filters.SeriesID = &seriesID
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filters.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filters.Offset, _ = strconv.Atoi(v)
	}

	stories, err := h.service.ListStories(r.Context(), filters)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"isFound": true, "stories": stories})
}
