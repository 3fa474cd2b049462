// Package memory implements the record store in memory for tests and
// development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/chatficdb/chatficdb/pkg/submission"
)

// Repository implements submission.Repository using in-memory storage.
type Repository struct {
	mu           sync.RWMutex
	submissions  map[int64]*submission.Submission
	stories      map[int64]*submission.Story
	series       map[int64]*submission.Series
	nextSubID    int64
	nextStoryID  int64
	nextSeriesID int64
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{
		submissions: make(map[int64]*submission.Submission),
		stories:     make(map[int64]*submission.Story),
		series:      make(map[int64]*submission.Series),
	}
}

func copySubmission(sub *submission.Submission) *submission.Submission {
	c := *sub
	c.Files = append([]submission.FileEntry(nil), sub.Files...)
	c.Grants = append([]submission.UploadGrant(nil), sub.Grants...)
	c.Logs = append([]submission.LogEntry(nil), sub.Logs...)
	if sub.StoryID != nil {
		id := *sub.StoryID
		c.StoryID = &id
	}
	return &c
}

func (r *Repository) CreateSubmission(ctx context.Context, sub *submission.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSubID++
	sub.ID = r.nextSubID
	r.submissions[sub.ID] = copySubmission(sub)
	return nil
}

func (r *Repository) GetSubmission(ctx context.Context, id int64) (*submission.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.submissions[id]
	if !ok {
		return nil, submission.ErrSubmissionNotFound
	}
	return copySubmission(sub), nil
}

func (r *Repository) UpdateSubmission(ctx context.Context, sub *submission.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.submissions[sub.ID]; !ok {
		return submission.ErrSubmissionNotFound
	}
	r.submissions[sub.ID] = copySubmission(sub)
	return nil
}

func (r *Repository) ListSubmissions(ctx context.Context, filters submission.SubmissionFilters) ([]*submission.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*submission.Submission
	for _, sub := range r.submissions {
		if filters.Status != nil && sub.Status != *filters.Status {
			continue
		}
		if filters.Linked != nil && (sub.StoryID != nil) != *filters.Linked {
			continue
		}
		result = append(result, copySubmission(sub))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return paginate(result, filters.Limit, filters.Offset), nil
}

func (r *Repository) GlobalIDInUse(ctx context.Context, globalID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sub := range r.submissions {
		if sub.StoryGlobalID == globalID {
			return true, nil
		}
	}
	for _, story := range r.stories {
		if story.GlobalID == globalID {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) CreateStory(ctx context.Context, story *submission.Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextStoryID++
	story.ID = r.nextStoryID
	c := *story
	r.stories[story.ID] = &c
	return nil
}

func (r *Repository) GetStoryByGlobalID(ctx context.Context, globalID string) (*submission.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, story := range r.stories {
		if story.GlobalID == globalID {
			c := *story
			return &c, nil
		}
	}
	return nil, submission.ErrStoryNotFound
}

func (r *Repository) ListStories(ctx context.Context, filters submission.StoryFilters) ([]*submission.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*submission.Story
	for _, story := range r.stories {
		if filters.SeriesID != nil && story.SeriesID != *filters.SeriesID {
			continue
		}
		c := *story
		result = append(result, &c)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return paginate(result, filters.Limit, filters.Offset), nil
}

func (r *Repository) GetSeries(ctx context.Context, id int64) (*submission.Series, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	series, ok := r.series[id]
	if !ok {
		return nil, submission.ErrSeriesNotFound
	}
	c := *series
	return &c, nil
}

// AddSeries seeds a series record; the pipeline itself never writes series.
func (r *Repository) AddSeries(series *submission.Series) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if series.ID == 0 {
		r.nextSeriesID++
		series.ID = r.nextSeriesID
	}
	c := *series
	r.series[series.ID] = &c
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
