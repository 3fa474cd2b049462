package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatficdb/chatficdb/pkg/submission"
	"github.com/chatficdb/chatficdb/pkg/submission/api"
	repomemory "github.com/chatficdb/chatficdb/pkg/submission/repo/memory"
	storememory "github.com/chatficdb/chatficdb/pkg/submission/storage/memory"
)

const storyText = `{
	"title": "Midnight Shift",
	"description": "A short chat story.",
	"author": "casey",
	"modified": "2024-05-01",
	"characters": {"mel": {"name": "Mel"}},
	"pages": [
		{"id": "start", "messages": [{"message": "hey", "from": "mel", "side": 0}]}
	]
}`

// syncQueue runs stages inline so handler tests observe their effects
// immediately.
type syncQueue struct{}

func (syncQueue) Enqueue(name string, run func(context.Context) error) error {
	return run(context.Background())
}

type env struct {
	server *httptest.Server
	store  *storememory.Store
	repo   *repomemory.Repository
}

func newEnv(t *testing.T) *env {
	t.Helper()

	repo := repomemory.New()
	repo.AddSeries(&submission.Series{Name: "standalone", GlobalID: "s0"})
	store := storememory.New()

	svc, err := submission.New(
		submission.WithRepository(repo),
		submission.WithObjectStore(store),
		submission.WithQueue(syncQueue{}),
		submission.WithServerSlug("testserver"),
	)
	require.NoError(t, err)

	server := httptest.NewServer(api.NewHandler(svc).Routes())
	t.Cleanup(server.Close)
	return &env{server: server, store: store, repo: repo}
}

func createBody() map[string]any {
	return map[string]any{
		"title":       "Midnight Shift",
		"description": "A short chat story.",
		"author":      "casey",
		"story_text":  storyText,
		"series_id":   1,
		"files_list": []map[string]any{
			{"name": "storybasic.json", "size": len(storyText)},
			{"name": "storybasic.md", "size": 256},
		},
	}
}

func (e *env) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(e.server.URL+path, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

func (e *env) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// createSubmission posts a fresh submission; the inline queue means it comes
// back already preprocessed.
func (e *env) createSubmission(t *testing.T) api.SubmissionResponse {
	t.Helper()
	resp := e.post(t, "/story_submissions", createBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.SubmissionResponse](t, resp)

	get := e.get(t, fmt.Sprintf("/story_submissions/%d", created.ID))
	require.Equal(t, http.StatusOK, get.StatusCode)
	return decode[api.SubmissionResponse](t, get)
}

func TestCreateSubmissionEndpoint(t *testing.T) {
	e := newEnv(t)

	sub := e.createSubmission(t)

	assert.Equal(t, int(submission.StatusWaitingUserUpload), sub.Status)
	assert.Equal(t, "waiting_user_upload", sub.StatusLabel)
	assert.NotEmpty(t, sub.StoryGlobalID)
	require.Len(t, sub.Grants, 1)
	assert.Equal(t, "storybasic.md", sub.Grants[0].Name)
}

func TestCreateSubmissionInvalidBody(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Post(e.server.URL+"/story_submissions", "application/json",
		bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateSubmissionInvalidManifest(t *testing.T) {
	e := newEnv(t)

	body := createBody()
	body["files_list"] = []map[string]any{}
	resp := e.post(t, "/story_submissions", body)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[api.ErrorResponse](t, resp)
	assert.Contains(t, errResp.Detail, "files_list is empty")
}

func TestCreateSubmissionUnknownSeries(t *testing.T) {
	e := newEnv(t)

	body := createBody()
	body["series_id"] = 42
	resp := e.post(t, "/story_submissions", body)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetSubmissionNotFound(t *testing.T) {
	e := newEnv(t)

	resp := e.get(t, "/story_submissions/404")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	bad := e.get(t, "/story_submissions/abc")
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestListSubmissionsEndpoint(t *testing.T) {
	e := newEnv(t)
	e.createSubmission(t)
	e.createSubmission(t)

	resp := e.get(t, "/story_submissions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	subs := decode[[]api.SubmissionResponse](t, resp)
	assert.Len(t, subs, 2)

	resp = e.get(t, "/story_submissions?status=30&limit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	subs = decode[[]api.SubmissionResponse](t, resp)
	assert.Len(t, subs, 1)

	bad := e.get(t, "/story_submissions?status=99")
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestRegisterUploadEndpoint(t *testing.T) {
	e := newEnv(t)
	sub := e.createSubmission(t)

	// Simulate the writer completing the granted upload.
	e.store.Put(submission.ObjectKey(sub.StoryGlobalID, "storybasic.md"), []byte("# md"))

	resp := e.post(t, fmt.Sprintf("/story_submissions/%d/register_upload", sub.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[api.SubmissionResponse](t, resp)

	// The inline queue ran postprocessing before the response was written.
	got := e.get(t, fmt.Sprintf("/story_submissions/%d", sub.ID))
	final := decode[api.SubmissionResponse](t, got)
	assert.Equal(t, int(submission.StatusProcessed), final.Status)
	assert.Contains(t, final.Logs, "- All files uploaded successfully.\n")
	assert.Contains(t, final.Logs, "- Compiled story published.\n")
	assert.GreaterOrEqual(t, final.Status, updated.Status)
}

func TestRegisterUploadMissingFileEndpoint(t *testing.T) {
	e := newEnv(t)
	sub := e.createSubmission(t)

	resp := e.post(t, fmt.Sprintf("/story_submissions/%d/register_upload", sub.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[api.SubmissionResponse](t, resp)

	assert.Equal(t, int(submission.StatusUserUploadFailed), updated.Status)
	assert.Contains(t, updated.Logs, "- File storybasic.md not found in storage.\n")

	// Confirming again is an ordering error, not a silent no-op.
	again := e.post(t, fmt.Sprintf("/story_submissions/%d/register_upload", sub.ID), nil)
	defer again.Body.Close()
	assert.Equal(t, http.StatusConflict, again.StatusCode)
}

func TestConvertEndpoint(t *testing.T) {
	e := newEnv(t)
	sub := e.createSubmission(t)
	e.store.Put(submission.ObjectKey(sub.StoryGlobalID, "storybasic.md"), []byte("# md"))
	resp := e.post(t, fmt.Sprintf("/story_submissions/%d/register_upload", sub.ID), nil)
	resp.Body.Close()

	conv := e.post(t, fmt.Sprintf("/story_submissions/%d/convert", sub.ID), map[string]any{
		"release_date": "2026-02-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, conv.StatusCode)
	result := decode[submission.ConvertResult](t, conv)
	require.True(t, result.Converted)
	require.NotNil(t, result.Story)

	// The published story is now readable.
	storyResp := e.get(t, "/story?storyGlobalId="+result.Story.GlobalID)
	require.Equal(t, http.StatusOK, storyResp.StatusCode)
	story := decode[api.StoryResponse](t, storyResp)
	assert.True(t, story.IsFound)
	assert.Equal(t, "Midnight Shift", story.Title)

	// Converting twice is refused, not an error.
	againResp := e.post(t, fmt.Sprintf("/story_submissions/%d/convert", sub.ID), nil)
	require.Equal(t, http.StatusOK, againResp.StatusCode)
	again := decode[submission.ConvertResult](t, againResp)
	assert.False(t, again.Converted)
	assert.Equal(t, "already linked", again.Reason)
}

func TestConvertNotProcessedEndpoint(t *testing.T) {
	e := newEnv(t)
	sub := e.createSubmission(t)

	resp := e.post(t, fmt.Sprintf("/story_submissions/%d/convert", sub.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[submission.ConvertResult](t, resp)
	assert.False(t, result.Converted)
	assert.Contains(t, result.Reason, "waiting_user_upload")
}

func TestGetStoryEndpoint(t *testing.T) {
	e := newEnv(t)

	missing := e.get(t, "/story?storyGlobalId=nope")
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
	story := decode[api.StoryResponse](t, missing)
	assert.False(t, story.IsFound)

	noParam := e.get(t, "/story")
	defer noParam.Body.Close()
	assert.Equal(t, http.StatusBadRequest, noParam.StatusCode)
}

func TestListStoriesEndpoint(t *testing.T) {
	e := newEnv(t)

	resp := e.get(t, "/stories")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, true, body["isFound"])

	bad := e.get(t, "/stories?series_id=abc")
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}
