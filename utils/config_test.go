package utils

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "test.db"))

	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"), testLogger())
	require.NoError(t, err)

	assert.False(t, config.Reddit.IsConfigured())
	assert.False(t, config.Slack.IsConfigured())
	assert.False(t, config.OpenAI.IsConfigured())
	assert.Equal(t, "gpt-4o-mini", config.OpenAI.Model)
	assert.Equal(t, 100, config.Reddit.MaxRequestsPerMinute)
	assert.Equal(t, 55.0, config.Scoring.IntentScoreThreshold)
	assert.Equal(t, 72, config.Scoring.FetchHoursLookback)
	assert.Equal(t, 25, config.Scoring.PostsPerSubreddit)
	assert.Equal(t, 8080, config.Server.Port)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "client123")
	t.Setenv("REDDIT_CLIENT_SECRET", "secret456")
	t.Setenv("INTENT_SCORE_THRESHOLD", "70.5")
	t.Setenv("POSTS_PER_SUBREDDIT", "10")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "nested", "test.db"))

	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"), testLogger())
	require.NoError(t, err)

	assert.True(t, config.Reddit.IsConfigured())
	assert.Equal(t, "client123", config.Reddit.ClientID)
	assert.Equal(t, 70.5, config.Scoring.IntentScoreThreshold)
	assert.Equal(t, 10, config.Scoring.PostsPerSubreddit)

	// nested database directory is created during validation
	assert.DirExists(t, filepath.Dir(config.Database.Path))
}

func TestLoadConfigInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "test.db"))
	t.Setenv("POSTS_PER_SUBREDDIT", "not-a-number")
	t.Setenv("INTENT_SCORE_THRESHOLD", "also-bad")

	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"), testLogger())
	require.NoError(t, err)
	assert.Equal(t, 25, config.Scoring.PostsPerSubreddit)
	assert.Equal(t, 55.0, config.Scoring.IntentScoreThreshold)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"Threshold above 100", "INTENT_SCORE_THRESHOLD", "150"},
		{"Threshold below 0", "INTENT_SCORE_THRESHOLD", "-5"},
		{"Zero lookback", "FETCH_HOURS_LOOKBACK", "0"},
		{"Negative posts per subreddit", "POSTS_PER_SUBREDDIT", "-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "test.db"))
			t.Setenv(tc.key, tc.value)

			_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"), testLogger())
			assert.Error(t, err)
		})
	}
}

func TestParseSubreddits(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Simple list",
			input:    "jobs,resumes,careerguidance",
			expected: []string{"jobs", "resumes", "careerguidance"},
		},
		{
			name:     "Whitespace and empties trimmed",
			input:    " jobs , , resumes ,",
			expected: []string{"jobs", "resumes"},
		},
		{
			name:     "Empty string",
			input:    "",
			expected: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseSubreddits(tc.input))
		})
	}
}
