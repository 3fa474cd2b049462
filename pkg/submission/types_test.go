package submission_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatficdb/chatficdb/pkg/submission"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "story/abc123/storybasic.json",
		submission.ObjectKey("abc123", submission.BasicDocumentName))
	assert.Equal(t, "story/abc123/media/pic.png",
		submission.ObjectKey("abc123", "media/pic.png"))
}

func TestExportLogs(t *testing.T) {
	now := time.Now().UTC()
	entries := []submission.LogEntry{
		{Time: now, Message: "File pic.png not found in storage."},
		{Time: now, Message: "All files uploaded successfully."},
	}

	assert.Equal(t,
		"- File pic.png not found in storage.\n- All files uploaded successfully.\n",
		submission.ExportLogs(entries))
}

func TestExportLogsEmpty(t *testing.T) {
	assert.Equal(t, "", submission.ExportLogs(nil))
}

func TestAppendLog(t *testing.T) {
	sub := &submission.Submission{}
	sub.AppendLog("first")
	sub.AppendLog("second")

	require.Len(t, sub.Logs, 2)
	assert.Equal(t, "first", sub.Logs[0].Message)
	assert.Equal(t, "second", sub.Logs[1].Message)
	assert.False(t, sub.Logs[0].Time.IsZero())
}

func TestHasFile(t *testing.T) {
	sub := &submission.Submission{Files: []submission.FileEntry{
		{Name: submission.BasicDocumentName, Size: 10},
		{Name: "media/pic.png", Size: 20},
	}}

	assert.True(t, sub.HasFile(submission.BasicDocumentName))
	assert.True(t, sub.HasFile("media/pic.png"))
	assert.False(t, sub.HasFile("pic.png"))
}
