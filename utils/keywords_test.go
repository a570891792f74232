package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeywords(t *testing.T) {
	kw := DefaultKeywords()

	assert.NotEmpty(t, kw.Positive)
	assert.NotEmpty(t, kw.HighIntent)
	assert.NotEmpty(t, kw.Negative)
	assert.NotEmpty(t, kw.MentionAllowed)
	assert.NotEmpty(t, kw.Hostile)
	assert.Equal(t, 1.2, kw.SubredditWeight["resumes"])
	assert.Equal(t, 0.85, kw.SubredditWeight["recruitinghell"])
}

func TestLoadKeywordsNoPath(t *testing.T) {
	kw, err := LoadKeywords("")
	require.NoError(t, err)
	assert.Equal(t, DefaultKeywords(), kw)
}

func TestLoadKeywordsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	content := `positive_keywords:
  - resume
  - portfolio
subreddit_weights:
  jobs: 2.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	kw, err := LoadKeywords(path)
	require.NoError(t, err)

	// listed fields replaced entirely
	assert.Equal(t, []string{"resume", "portfolio"}, kw.Positive)
	assert.Equal(t, map[string]float64{"jobs": 2.0}, kw.SubredditWeight)
	// unlisted fields keep the defaults
	assert.Equal(t, DefaultKeywords().HighIntent, kw.HighIntent)
	assert.Equal(t, DefaultKeywords().Hostile, kw.Hostile)
}

func TestLoadKeywordsMissingFile(t *testing.T) {
	_, err := LoadKeywords(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadKeywordsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("positive_keywords: [unclosed"), 0644))

	_, err := LoadKeywords(path)
	assert.Error(t, err)
}
