package db

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harryila/redPull/models"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	database, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}

func testPost(redditID string) *models.Post {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Post{
		RedditID:        redditID,
		Subreddit:       "jobs",
		Title:           "No interviews after 50 applications",
		SelfText:        "I have been applying for months with no luck",
		URL:             "https://reddit.com/r/jobs/comments/" + redditID,
		Author:          "throwaway123",
		CreatedUTC:      now.Add(-2 * time.Hour),
		Score:           12,
		NumComments:     3,
		MatchedKeywords: []string{"no interviews", "applications"},
		IntentScore:     62.5,
		Status:          models.StatusNew,
		LastSeenAt:      now,
		ContentHash:     "hash-" + redditID,
	}
}

func TestSavePostAndGetPost(t *testing.T) {
	database := newTestDatabase(t)

	post := testPost("abc123")
	id, err := database.SavePost(post)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))
	assert.Equal(t, id, post.ID)

	got, err := database.GetPost("abc123")
	require.NoError(t, err)
	assert.Equal(t, post.RedditID, got.RedditID)
	assert.Equal(t, post.Title, got.Title)
	assert.Equal(t, post.MatchedKeywords, got.MatchedKeywords)
	assert.Equal(t, post.IntentScore, got.IntentScore)
	assert.Equal(t, models.StatusNew, got.Status)
	assert.Equal(t, post.ContentHash, got.ContentHash)
	assert.True(t, post.CreatedUTC.Equal(got.CreatedUTC))
}

func TestGetPostNotFound(t *testing.T) {
	database := newTestDatabase(t)

	_, err := database.GetPost("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSavePostUpsert(t *testing.T) {
	database := newTestDatabase(t)

	post := testPost("abc123")
	firstID, err := database.SavePost(post)
	require.NoError(t, err)

	require.NoError(t, database.UpdateStatus("abc123", models.StatusQueued))

	// re-observation: engagement and score change, title changes upstream
	updated := testPost("abc123")
	updated.Title = "edited title that must not overwrite"
	updated.Score = 99
	updated.NumComments = 40
	updated.IntentScore = 71.0
	updated.DraftA = "draft text"
	updated.LastSeenAt = time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	secondID, err := database.SavePost(updated)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	got, err := database.GetPost("abc123")
	require.NoError(t, err)
	// mutable fields refreshed
	assert.Equal(t, 99, got.Score)
	assert.Equal(t, 40, got.NumComments)
	assert.Equal(t, 71.0, got.IntentScore)
	assert.Equal(t, "draft text", got.DraftA)
	assert.True(t, updated.LastSeenAt.Equal(got.LastSeenAt))
	// immutable fields and status untouched
	assert.Equal(t, "No interviews after 50 applications", got.Title)
	assert.Equal(t, models.StatusQueued, got.Status)

	stats, err := database.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalPosts)
}

func TestPostExists(t *testing.T) {
	database := newTestDatabase(t)

	exists, err := database.PostExists("abc123")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = database.SavePost(testPost("abc123"))
	require.NoError(t, err)

	exists, err = database.PostExists("abc123")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestHashExistsReturnsEarliest(t *testing.T) {
	database := newTestDatabase(t)

	first := testPost("abc123")
	first.ContentHash = "shared"
	second := testPost("xyz789")
	second.ContentHash = "shared"

	_, err := database.SavePost(first)
	require.NoError(t, err)
	_, err = database.SavePost(second)
	require.NoError(t, err)

	got, err := database.HashExists("shared")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)

	got, err = database.HashExists("unknown")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestUpdateStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    models.PostStatus
		to      models.PostStatus
		wantErr bool
	}{
		{"New to queued", models.StatusNew, models.StatusQueued, false},
		{"New to sent", models.StatusNew, models.StatusSent, false},
		{"Queued to sent", models.StatusQueued, models.StatusSent, false},
		{"Sent to replied", models.StatusSent, models.StatusReplied, false},
		{"New to replied", models.StatusNew, models.StatusReplied, false},
		{"Queued to replied", models.StatusQueued, models.StatusReplied, false},
		{"New to skipped", models.StatusNew, models.StatusSkipped, false},
		{"Replied to skipped", models.StatusReplied, models.StatusSkipped, false},
		{"Skipped to skipped", models.StatusSkipped, models.StatusSkipped, false},
		{"Replied to sent", models.StatusReplied, models.StatusSent, true},
		{"Sent to queued", models.StatusSent, models.StatusQueued, true},
		{"Skipped to sent", models.StatusSkipped, models.StatusSent, true},
		{"Duplicate to sent", models.StatusDuplicate, models.StatusSent, true},
		{"Duplicate to queued", models.StatusDuplicate, models.StatusQueued, true},
		{"Anything to new", models.StatusQueued, models.StatusNew, true},
		{"Anything to duplicate", models.StatusNew, models.StatusDuplicate, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			database := newTestDatabase(t)

			post := testPost("abc123")
			post.Status = tc.from
			_, err := database.SavePost(post)
			require.NoError(t, err)

			err = database.UpdateStatus("abc123", tc.to)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)

				got, getErr := database.GetPost("abc123")
				require.NoError(t, getErr)
				assert.Equal(t, tc.from, got.Status)
			} else {
				assert.NoError(t, err)

				got, getErr := database.GetPost("abc123")
				require.NoError(t, getErr)
				assert.Equal(t, tc.to, got.Status)
			}
		})
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	database := newTestDatabase(t)

	err := database.UpdateStatus("missing", models.StatusReplied)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrInvalidTransition))
}

func TestGetPostsByStatus(t *testing.T) {
	database := newTestDatabase(t)

	for _, p := range []struct {
		id     string
		score  float64
		status models.PostStatus
	}{
		{"low", 30.0, models.StatusNew},
		{"high", 80.0, models.StatusQueued},
		{"mid", 60.0, models.StatusNew},
		{"sent", 90.0, models.StatusSent},
	} {
		post := testPost(p.id)
		post.ContentHash = "hash-" + p.id
		post.IntentScore = p.score
		post.Status = p.status
		_, err := database.SavePost(post)
		require.NoError(t, err)
	}

	posts, err := database.GetPostsByStatus([]models.PostStatus{models.StatusNew, models.StatusQueued}, nil, 10)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "high", posts[0].RedditID)
	assert.Equal(t, "mid", posts[1].RedditID)
	assert.Equal(t, "low", posts[2].RedditID)

	minScore := 55.0
	posts, err = database.GetPostsByStatus([]models.PostStatus{models.StatusNew, models.StatusQueued}, &minScore, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "high", posts[0].RedditID)
	assert.Equal(t, "mid", posts[1].RedditID)

	posts, err = database.GetPostsByStatus([]models.PostStatus{models.StatusNew}, nil, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "mid", posts[0].RedditID)

	posts, err = database.GetPostsByStatus(nil, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestGetRecentPosts(t *testing.T) {
	database := newTestDatabase(t)

	recent := testPost("recent")
	recent.CreatedUTC = time.Now().UTC().Add(-1 * time.Hour)
	old := testPost("old")
	old.ContentHash = "hash-old"
	old.CreatedUTC = time.Now().UTC().Add(-48 * time.Hour)

	_, err := database.SavePost(recent)
	require.NoError(t, err)
	_, err = database.SavePost(old)
	require.NoError(t, err)

	posts, err := database.GetRecentPosts(24, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "recent", posts[0].RedditID)
}

func TestSaveActionAndGetActions(t *testing.T) {
	database := newTestDatabase(t)

	_, err := database.SavePost(testPost("abc123"))
	require.NoError(t, err)

	first := &models.Action{
		RedditID:   "abc123",
		ActionType: models.ActionDrafted,
		Notes:      "Generated 2 drafts",
		CreatedAt:  time.Now().UTC().Add(-time.Minute).Truncate(time.Second),
	}
	id, err := database.SaveAction(first)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	second := &models.Action{
		RedditID:   "abc123",
		ActionType: models.ActionSentToSlack,
	}
	_, err = database.SaveAction(second)
	require.NoError(t, err)
	assert.False(t, second.CreatedAt.IsZero())

	actions, err := database.GetActions("abc123")
	require.NoError(t, err)
	require.Len(t, actions, 2)
	// newest first
	assert.Equal(t, models.ActionSentToSlack, actions[0].ActionType)
	assert.Equal(t, models.ActionDrafted, actions[1].ActionType)
	assert.Equal(t, "Generated 2 drafts", actions[1].Notes)

	actions, err = database.GetActions("unknown")
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestGetStats(t *testing.T) {
	database := newTestDatabase(t)

	for i, status := range []models.PostStatus{models.StatusNew, models.StatusNew, models.StatusQueued} {
		post := testPost(string(rune('a' + i)))
		post.ContentHash = post.RedditID
		post.Status = status
		_, err := database.SavePost(post)
		require.NoError(t, err)
	}
	_, err := database.SaveAction(&models.Action{RedditID: "a", ActionType: models.ActionMarkSkipped})
	require.NoError(t, err)

	stats, err := database.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalPosts)
	assert.Equal(t, 1, stats.TotalActions)
	assert.Equal(t, 2, stats.ByStatus["NEW"])
	assert.Equal(t, 1, stats.ByStatus["QUEUED"])
}
