package submission

import (
	"fmt"
	"strings"
	"time"
)

// Reserved file names and markers within a submission manifest.
const (
	// BasicDocumentName is the raw story document; every manifest must
	// declare it.
	BasicDocumentName = "storybasic.json"
	// MarkdownDocumentName is the optional markdown-source companion of the
	// story document.
	MarkdownDocumentName = "storybasic.md"
	// CompiledDocumentName is the published, compiled artifact.
	CompiledDocumentName = "story.json"
	// MediaPrefix marks manifest entries that are multimedia assets.
	MediaPrefix = "media/"
)

// Upload grant policy.
const (
	// GrantTTL is how long an issued upload grant stays valid.
	GrantTTL = time.Hour
	// SizeTolerance is the accepted shortfall, in bytes, between an upload
	// and its declared size.
	SizeTolerance = 100
)

// ObjectKey returns the storage key for a submission file.
func ObjectKey(globalID, name string) string {
	return fmt.Sprintf("story/%s/%s", globalID, name)
}

// FileEntry is one declared file in a submission manifest.
type FileEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// UploadGrant is a time-limited, size-constrained credential for writing one
// object directly to storage.
type UploadGrant struct {
	Name      string            `json:"name"`
	URL       string            `json:"url"`
	Fields    map[string]string `json:"fields,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// LogEntry is one timestamped line of a submission's audit log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// ExportLogs renders log entries in the free-text format exposed at the API
// boundary: one "- message" line per entry.
func ExportLogs(entries []LogEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString("- ")
		b.WriteString(e.Message)
		b.WriteString("\n")
	}
	return b.String()
}

// Submission is a pending story package moving through the processing
// pipeline. Records are never deleted; failed submissions remain as an audit
// trail.
type Submission struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Author        string        `json:"author"`
	StoryText     string        `json:"story_text"`
	StoryGlobalID string        `json:"story_global_id,omitempty"`
	SeriesID      int64         `json:"series_id"`
	StoryID       *int64        `json:"story_id,omitempty"`
	Files         []FileEntry   `json:"files_list"`
	Grants        []UploadGrant `json:"upload_grants,omitempty"`
	Logs          []LogEntry    `json:"logs,omitempty"`
	Status        Status        `json:"status"`
	SubmittedAt   time.Time     `json:"submitted_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// AppendLog adds a timestamped entry to the submission log.
func (s *Submission) AppendLog(message string) {
	s.Logs = append(s.Logs, LogEntry{Time: time.Now().UTC(), Message: message})
}

// HasFile reports whether the manifest declares the named file.
func (s *Submission) HasFile(name string) bool {
	for _, f := range s.Files {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Story is a published story. It is created only as the terminal side effect
// of converting a processed submission.
type Story struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Author         string    `json:"author"`
	GlobalID       string    `json:"story_global_id"`
	SeriesID       int64     `json:"series_id"`
	ReleaseDate    time.Time `json:"release_date"`
	ExcludeFromRSS bool      `json:"exclude_from_rss"`
}

// Series is the pre-existing parent a submission is filed under. The
// pipeline only ever reads it.
type Series struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	GlobalID string `json:"series_global_id"`
	Creator  string `json:"creator"`
	Episodes int    `json:"episodes"`
}

// SubmissionFilters narrows submission listings.
type SubmissionFilters struct {
	Status *Status
	Linked *bool
	Limit  int
	Offset int
}

// StoryFilters narrows story listings.
type StoryFilters struct {
	SeriesID *int64
	Limit    int
	Offset   int
}
