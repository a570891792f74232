package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harryila/redPull/models"
)

// FixtureSource replays posts from per-subreddit JSON files so the full
// pipeline can run offline. Paired with the live client through the same
// iterator contract; the pipeline never knows which it is reading.
type FixtureSource struct {
	dir string
	log *logrus.Logger
}

// NewFixtureSource creates a source reading {dir}/{subreddit}.json files
func NewFixtureSource(dir string, log *logrus.Logger) *FixtureSource {
	return &FixtureSource{dir: dir, log: log}
}

// fixturePost is the on-disk fixture record layout
type fixturePost struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	SelfText    string `json:"selftext"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	CreatedUTC  string `json:"created_utc"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
}

// FetchSubredditPosts returns an iterator over a fixture file. A missing
// fixture file yields an empty sequence, not an error, so dry runs can
// cover a subset of subreddits.
func (f *FixtureSource) FetchSubredditPosts(_ context.Context, subreddit string, limit int, _ time.Duration) PostIter {
	path := filepath.Join(f.dir, subreddit+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			f.log.WithField("subreddit", subreddit).Debug("No fixture file found")
			return &fixtureIter{}
		}
		return &fixtureIter{err: fmt.Errorf("failed to read fixture file: %w", err)}
	}

	var raw []fixturePost
	if err := json.Unmarshal(data, &raw); err != nil {
		return &fixtureIter{err: fmt.Errorf("failed to parse fixture file %s: %w", path, err)}
	}

	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}

	return &fixtureIter{subreddit: subreddit, records: raw}
}

type fixtureIter struct {
	subreddit string
	records   []fixturePost
	current   models.Post
	err       error
}

func (it *fixtureIter) Next() bool {
	if it.err != nil || len(it.records) == 0 {
		return false
	}

	raw := it.records[0]
	it.records = it.records[1:]

	created, err := time.Parse(time.RFC3339, raw.CreatedUTC)
	if err != nil {
		created = time.Now().UTC()
	}

	author := raw.Author
	if author == "" {
		author = "[deleted]"
	}

	it.current = models.Post{
		RedditID:    raw.ID,
		Subreddit:   it.subreddit,
		Title:       raw.Title,
		SelfText:    raw.SelfText,
		URL:         raw.URL,
		Author:      author,
		CreatedUTC:  created,
		Score:       raw.Score,
		NumComments: raw.NumComments,
		Status:      models.StatusNew,
		LastSeenAt:  time.Now().UTC(),
	}
	return true
}

func (it *fixtureIter) Post() models.Post { return it.current }
func (it *fixtureIter) Err() error        { return it.err }
