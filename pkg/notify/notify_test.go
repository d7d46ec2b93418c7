package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFeed(t *testing.T) {
	feed := NewFeed(3)
	hub := NewHub(nil, feed)

	hub.Success("Project created", "Site A")
	hub.Error("Save failed", "timeout")
	hub.Success("Request approved", "MR-20240305-0001")
	hub.Success("Upload complete", "")

	got := feed.Recent(0)
	require.Len(t, got, 3)
	assert.Equal(t, "Upload complete", got[0].Title)
	assert.Equal(t, "Request approved", got[1].Title)
	assert.Equal(t, LevelError, got[2].Level)
	assert.Equal(t, int64(4), got[0].ID)

	assert.Len(t, feed.Recent(1), 1)
}

func TestFeedEmpty(t *testing.T) {
	assert.Empty(t, NewFeed(5).Recent(10))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "[OK] Saved", format(Notice{Level: LevelSuccess, Title: "Saved"}))
	assert.Equal(t, "[ERROR] Save failed\ntimeout", format(Notice{Level: LevelError, Title: "Save failed", Description: "timeout"}))
}
