package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatficdb/chatficdb/pkg/submission"
	"github.com/chatficdb/chatficdb/pkg/submission/repo/memory"
)

func newSubmission(title string) *submission.Submission {
	now := time.Now().UTC()
	return &submission.Submission{
		Title:       title,
		Description: "d",
		Author:      "a",
		StoryText:   "{}",
		SeriesID:    1,
		Files:       []submission.FileEntry{{Name: submission.BasicDocumentName, Size: 10}},
		Status:      submission.StatusWaitingValidation,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
}

func TestSubmissionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	sub := newSubmission("one")
	require.NoError(t, repo.CreateSubmission(ctx, sub))
	assert.Equal(t, int64(1), sub.ID)

	got, err := repo.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "one", got.Title)

	got.Status = submission.StatusWaitingUserUpload
	got.AppendLog("granted")
	require.NoError(t, repo.UpdateSubmission(ctx, got))

	again, err := repo.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, submission.StatusWaitingUserUpload, again.Status)
	require.Len(t, again.Logs, 1)
}

func TestGetSubmissionNotFound(t *testing.T) {
	repo := memory.New()
	_, err := repo.GetSubmission(context.Background(), 404)
	assert.ErrorIs(t, err, submission.ErrSubmissionNotFound)
}

func TestUpdateSubmissionNotFound(t *testing.T) {
	repo := memory.New()
	sub := newSubmission("ghost")
	sub.ID = 404
	err := repo.UpdateSubmission(context.Background(), sub)
	assert.ErrorIs(t, err, submission.ErrSubmissionNotFound)
}

func TestGetSubmissionReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	sub := newSubmission("one")
	require.NoError(t, repo.CreateSubmission(ctx, sub))

	got, err := repo.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	got.Title = "mutated"
	got.Files[0].Name = "mutated.json"

	fresh, err := repo.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "one", fresh.Title)
	assert.Equal(t, submission.BasicDocumentName, fresh.Files[0].Name)
}

func TestListSubmissions(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	first := newSubmission("first")
	require.NoError(t, repo.CreateSubmission(ctx, first))

	second := newSubmission("second")
	second.Status = submission.StatusProcessed
	storyID := int64(7)
	second.StoryID = &storyID
	require.NoError(t, repo.CreateSubmission(ctx, second))

	all, err := repo.ListSubmissions(ctx, submission.SubmissionFilters{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Title)

	status := submission.StatusProcessed
	filtered, err := repo.ListSubmissions(ctx, submission.SubmissionFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "second", filtered[0].Title)

	linked := true
	filtered, err = repo.ListSubmissions(ctx, submission.SubmissionFilters{Linked: &linked})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "second", filtered[0].Title)

	paged, err := repo.ListSubmissions(ctx, submission.SubmissionFilters{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "second", paged[0].Title)

	empty, err := repo.ListSubmissions(ctx, submission.SubmissionFilters{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGlobalIDInUse(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	sub := newSubmission("one")
	sub.StoryGlobalID = "subtoken"
	require.NoError(t, repo.CreateSubmission(ctx, sub))
	require.NoError(t, repo.CreateStory(ctx, &submission.Story{Title: "s", GlobalID: "storytoken", SeriesID: 1}))

	for token, want := range map[string]bool{
		"subtoken":   true,
		"storytoken": true,
		"freetoken":  false,
	} {
		inUse, err := repo.GlobalIDInUse(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, want, inUse, token)
	}
}

func TestStories(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	story := &submission.Story{Title: "t", GlobalID: "g1", SeriesID: 1, ReleaseDate: time.Now().UTC()}
	require.NoError(t, repo.CreateStory(ctx, story))
	assert.Equal(t, int64(1), story.ID)

	got, err := repo.GetStoryByGlobalID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, story.ID, got.ID)

	_, err = repo.GetStoryByGlobalID(ctx, "missing")
	assert.ErrorIs(t, err, submission.ErrStoryNotFound)

	other := &submission.Story{Title: "o", GlobalID: "g2", SeriesID: 2}
	require.NoError(t, repo.CreateStory(ctx, other))

	seriesID := int64(2)
	stories, err := repo.ListStories(ctx, submission.StoryFilters{SeriesID: &seriesID})
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "g2", stories[0].GlobalID)
}

func TestSeries(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	repo.AddSeries(&submission.Series{Name: "standalone", GlobalID: "s0"})

	series, err := repo.GetSeries(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "standalone", series.Name)

	_, err = repo.GetSeries(ctx, 2)
	assert.ErrorIs(t, err, submission.ErrSeriesNotFound)
}
