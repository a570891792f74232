// Package pipeline composes fetching, hashing, dedup, scoring, the store
// and the sinks into the batch workflows behind each CLI command. Posts are
// processed one at a time, synchronously.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harryila/redPull/api"
	"github.com/harryila/redPull/db"
	"github.com/harryila/redPull/dedupe"
	"github.com/harryila/redPull/drafts"
	"github.com/harryila/redPull/models"
	"github.com/harryila/redPull/outputs"
)

// Source yields a lazy, finite sequence of posts for a subreddit. The live
// Reddit client and the fixture replayer both satisfy it; the pipeline does
// not care which one it is reading.
type Source interface {
	FetchSubredditPosts(ctx context.Context, subreddit string, limit int, maxAge time.Duration) api.PostIter
}

// Options bound each fetch/digest pass
type Options struct {
	IntentScoreThreshold float64
	FetchHoursLookback   int
	PostsPerSubreddit    int
}

// Pipeline wires the core components together. slack may be nil (console
// fallback) and the generator may run template-only.
type Pipeline struct {
	source    Source
	database  *db.Database
	scorer    Scorer
	generator *drafts.Generator
	slack     *outputs.SlackSink
	csv       *outputs.CSVSink
	console   *outputs.Console
	opts      Options
	log       *logrus.Logger
}

// Scorer is the deterministic scoring surface the pipeline needs
type Scorer interface {
	CalculateIntentScore(title, selftext, subreddit string, score, numComments int) models.ScoreResult
	CheckMentionAllowed(title, selftext, subreddit string) bool
	MatchReasons(post models.Post) []string
}

// New creates a pipeline
func New(
	source Source,
	database *db.Database,
	scorer Scorer,
	generator *drafts.Generator,
	slack *outputs.SlackSink,
	csv *outputs.CSVSink,
	console *outputs.Console,
	opts Options,
	log *logrus.Logger,
) *Pipeline {
	return &Pipeline{
		source:    source,
		database:  database,
		scorer:    scorer,
		generator: generator,
		slack:     slack,
		csv:       csv,
		console:   console,
		opts:      opts,
		log:       log,
	}
}

// SubredditStats counts one subreddit's share of a fetch pass
type SubredditStats struct {
	Fetched    int `json:"fetched"`
	New        int `json:"new"`
	Duplicates int `json:"duplicates"`
}

// FetchStats summarizes a fetch pass
type FetchStats struct {
	TotalFetched   int                       `json:"total_fetched"`
	NewPosts       int                       `json:"new_posts"`
	Duplicates     int                       `json:"duplicates"`
	AboveThreshold int                       `json:"above_threshold"`
	BySubreddit    map[string]SubredditStats `json:"by_subreddit"`
}

// Fetch pulls posts for each subreddit and runs every one through the
// ingest sequence: hash, dedupe, score, mention policy, upsert. Source
// errors for one subreddit are logged and the pass continues with the rest.
func (p *Pipeline) Fetch(ctx context.Context, subreddits []string) (*FetchStats, error) {
	stats := &FetchStats{BySubreddit: make(map[string]SubredditStats)}
	maxAge := time.Duration(p.opts.FetchHoursLookback) * time.Hour

	for _, subreddit := range subreddits {
		subStats := SubredditStats{}

		it := p.source.FetchSubredditPosts(ctx, subreddit, p.opts.PostsPerSubreddit, maxAge)
		for it.Next() {
			post := it.Post()
			stats.TotalFetched++
			subStats.Fetched++

			isNew, aboveThreshold, isDuplicate, err := p.ingest(&post)
			if err != nil {
				p.log.WithError(err).WithField("reddit_id", post.RedditID).Error("Failed to ingest post")
				continue
			}
			if isDuplicate {
				stats.Duplicates++
				subStats.Duplicates++
			}
			if isNew {
				stats.NewPosts++
				subStats.New++
			}
			if aboveThreshold {
				stats.AboveThreshold++
			}
		}
		if err := it.Err(); err != nil {
			p.log.WithError(err).WithField("subreddit", subreddit).Error("Failed to fetch subreddit")
		}

		stats.BySubreddit[subreddit] = subStats
		p.log.WithFields(logrus.Fields{
			"subreddit":  subreddit,
			"fetched":    subStats.Fetched,
			"new":        subStats.New,
			"duplicates": subStats.Duplicates,
		}).Info("Fetched subreddit")
	}

	return stats, nil
}

// ingest runs one post through hash, dedupe, score and upsert.
// Returns (isNew, aboveThreshold, isDuplicate, err).
func (p *Pipeline) ingest(post *models.Post) (bool, bool, bool, error) {
	post.ContentHash = dedupe.ComputeContentHash(post.Title, post.SelfText)

	existingID, err := dedupe.FindDuplicate(p.database, post.RedditID, post.ContentHash)
	if err != nil {
		return false, false, false, err
	}

	// content duplicate under a different id: record it once as DUPLICATE
	// with an audit note pointing at the earlier post, then move on
	if existingID != "" && existingID != post.RedditID {
		exists, err := p.database.PostExists(post.RedditID)
		if err != nil {
			return false, false, false, err
		}
		if !exists {
			post.Status = models.StatusDuplicate
			if _, err := p.database.SavePost(post); err != nil {
				return false, false, false, err
			}
			if _, err := p.database.SaveAction(&models.Action{
				RedditID:   post.RedditID,
				ActionType: models.ActionMarkSkipped,
				Notes:      "Duplicate of " + existingID,
			}); err != nil {
				return false, false, false, err
			}
		}
		return false, false, true, nil
	}

	result := p.scorer.CalculateIntentScore(post.Title, post.SelfText, post.Subreddit, post.Score, post.NumComments)
	post.IntentScore = result.Score
	post.MatchedKeywords = result.MatchedKeywords
	post.MentionAllowed = p.scorer.CheckMentionAllowed(post.Title, post.SelfText, post.Subreddit)
	post.LastSeenAt = time.Now().UTC()

	// existingID == post.RedditID means re-observation: upsert refreshes
	// mutable fields without touching status
	if existingID == post.RedditID {
		_, err := p.database.SavePost(post)
		return false, false, false, err
	}

	aboveThreshold := post.IntentScore >= p.opts.IntentScoreThreshold
	if aboveThreshold {
		post.Status = models.StatusQueued
	} else {
		post.Status = models.StatusNew
	}

	if _, err := p.database.SavePost(post); err != nil {
		return false, false, false, err
	}
	return true, aboveThreshold, false, nil
}

// DigestOptions tune one digest pass
type DigestOptions struct {
	MinScore       *float64
	Limit          int
	SendSlack      bool
	WriteCSV       bool
	GenerateDrafts bool
}

// Digest selects pending high-intent posts, attaches drafts, and routes the
// batch to the configured sinks. Sink failures leave statuses untouched and
// are reported but do not abort the remaining sinks.
func (p *Pipeline) Digest(ctx context.Context, opts DigestOptions) ([]models.Post, error) {
	threshold := p.opts.IntentScoreThreshold
	if opts.MinScore != nil {
		threshold = *opts.MinScore
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	posts, err := p.database.GetPostsByStatus(
		[]models.PostStatus{models.StatusNew, models.StatusQueued},
		&threshold,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select digest posts: %w", err)
	}
	if len(posts) == 0 {
		return posts, nil
	}

	if opts.GenerateDrafts {
		for i := range posts {
			if posts[i].DraftA != "" {
				continue
			}
			if err := p.attachDrafts(ctx, &posts[i], ""); err != nil {
				p.log.WithError(err).WithField("reddit_id", posts[i].RedditID).Error("Failed to persist drafts")
			}
		}
	}

	p.console.PrintPosts(posts, opts.GenerateDrafts)

	if opts.SendSlack && p.slack != nil {
		if err := p.slack.Send(ctx, posts, "🎯 HireLab Reddit Leads"); err != nil {
			p.log.WithError(err).Error("Failed to send digest to Slack")
		} else {
			for _, post := range posts {
				if err := p.markSent(post.RedditID); err != nil {
					p.log.WithError(err).WithField("reddit_id", post.RedditID).Error("Failed to record Slack delivery")
				}
			}
			p.log.WithField("posts", len(posts)).Info("Sent digest to Slack")
		}
	}

	if opts.WriteCSV && p.csv != nil {
		if err := p.csv.Append(posts); err != nil {
			p.log.WithError(err).Error("Failed to write CSV export")
		} else {
			for _, post := range posts {
				if _, err := p.database.SaveAction(&models.Action{
					RedditID:   post.RedditID,
					ActionType: models.ActionWrittenToSheets,
				}); err != nil {
					p.log.WithError(err).WithField("reddit_id", post.RedditID).Error("Failed to record CSV export")
				}
			}
		}
	}

	return posts, nil
}

// markSent advances a post to SENT and logs the delivery action
func (p *Pipeline) markSent(redditID string) error {
	if err := p.database.UpdateStatus(redditID, models.StatusSent); err != nil {
		return err
	}
	_, err := p.database.SaveAction(&models.Action{
		RedditID:   redditID,
		ActionType: models.ActionSentToSlack,
	})
	return err
}

// attachDrafts generates drafts for a post, persists them and records the
// DRAFTED action. Validator warnings are advisory and only logged.
func (p *Pipeline) attachDrafts(ctx context.Context, post *models.Post, notes string) error {
	draftA, draftB := p.generator.GenerateDrafts(ctx, post)
	post.DraftA = draftA
	post.DraftB = draftB

	for _, warning := range drafts.ValidateDraft(draftA) {
		p.log.WithFields(logrus.Fields{"reddit_id": post.RedditID, "draft": "A"}).Warn(warning)
	}
	if draftB != draftA {
		for _, warning := range drafts.ValidateDraft(draftB) {
			p.log.WithFields(logrus.Fields{"reddit_id": post.RedditID, "draft": "B"}).Warn(warning)
		}
	}

	if _, err := p.database.SavePost(post); err != nil {
		return err
	}
	_, err := p.database.SaveAction(&models.Action{
		RedditID:   post.RedditID,
		ActionType: models.ActionDrafted,
		Notes:      notes,
	})
	return err
}

// Regenerate rebuilds drafts for one post regardless of existing drafts
func (p *Pipeline) Regenerate(ctx context.Context, redditID string) (*models.Post, error) {
	post, err := p.database.GetPost(redditID)
	if err != nil {
		return nil, err
	}
	if err := p.attachDrafts(ctx, post, "Regenerated"); err != nil {
		return nil, err
	}
	return post, nil
}

// MarkReplied records explicit human confirmation that a reply was posted
func (p *Pipeline) MarkReplied(redditID, notes string) error {
	return p.mark(redditID, models.StatusReplied, models.ActionMarkReplied, notes)
}

// MarkSkipped records an operator decision to drop a post from future digests
func (p *Pipeline) MarkSkipped(redditID, notes string) error {
	return p.mark(redditID, models.StatusSkipped, models.ActionMarkSkipped, notes)
}

func (p *Pipeline) mark(redditID string, status models.PostStatus, actionType models.ActionType, notes string) error {
	if err := p.database.UpdateStatus(redditID, status); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to mark %s as %s: %w", redditID, status, err)
	}
	_, err := p.database.SaveAction(&models.Action{
		RedditID:   redditID,
		ActionType: actionType,
		Notes:      notes,
	})
	return err
}

// DailyDigest sends a summary of the top recent posts, falling back to the
// console when Slack is not configured
func (p *Pipeline) DailyDigest(ctx context.Context) error {
	stats, err := p.database.GetStats()
	if err != nil {
		return err
	}

	posts, err := p.database.GetRecentPosts(24, 10)
	if err != nil {
		return err
	}

	if p.slack == nil {
		p.console.PrintPostList(posts)
		p.console.PrintStats(stats)
		return nil
	}

	return p.slack.SendDailyDigest(ctx, posts, stats, len(posts))
}
