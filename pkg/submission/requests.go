package submission

// CreateSubmissionRequest contains parameters for intake of a new story
// package.
type CreateSubmissionRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Author      string      `json:"author"`
	StoryText   string      `json:"story_text"`
	SeriesID    int64       `json:"series_id"`
	Files       []FileEntry `json:"files_list"`
}

// ConvertToStoryRequest contains parameters for publishing a processed
// submission as a story. ReleaseDate is an optional RFC 3339 timestamp;
// empty means now.
type ConvertToStoryRequest struct {
	SubmissionID   int64  `json:"submission_id"`
	ReleaseDate    string `json:"release_date,omitempty"`
	ExcludeFromRSS bool   `json:"exclude_from_rss,omitempty"`
}

// ConvertResult reports a conversion attempt. A refused conversion is a
// normal outcome: Converted is false and Reason says why.
type ConvertResult struct {
	Converted bool   `json:"converted"`
	Reason    string `json:"reason,omitempty"`
	Story     *Story `json:"story,omitempty"`
}
