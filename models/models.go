package models

import (
	"fmt"
	"time"
)

// PostStatus tracks where a post sits in the outreach workflow
type PostStatus string

const (
	StatusNew       PostStatus = "NEW"
	StatusQueued    PostStatus = "QUEUED"
	StatusSent      PostStatus = "SENT"
	StatusReplied   PostStatus = "REPLIED"
	StatusSkipped   PostStatus = "SKIPPED"
	StatusDuplicate PostStatus = "DUPLICATE"
)

// AllStatuses lists every valid status, useful for CLI flag validation
var AllStatuses = []PostStatus{
	StatusNew, StatusQueued, StatusSent, StatusReplied, StatusSkipped, StatusDuplicate,
}

// ParseStatus converts a string into a PostStatus
func ParseStatus(s string) (PostStatus, error) {
	for _, status := range AllStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown status: %q", s)
}

// IsValid reports whether the status is one of the known values
func (s PostStatus) IsValid() bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ActionType identifies a side effect recorded against a post
type ActionType string

const (
	ActionDrafted         ActionType = "DRAFTED"
	ActionSentToSlack     ActionType = "SENT_TO_SLACK"
	ActionWrittenToSheets ActionType = "WRITTEN_TO_SHEETS"
	ActionMarkReplied     ActionType = "MARK_REPLIED"
	ActionMarkSkipped     ActionType = "MARK_SKIPPED"
)

// Post represents a tracked Reddit submission
type Post struct {
	ID              int64      `json:"id,omitempty"`
	RedditID        string     `json:"reddit_id"`
	Subreddit       string     `json:"subreddit"`
	Title           string     `json:"title"`
	SelfText        string     `json:"selftext"`
	URL             string     `json:"url"`
	Author          string     `json:"author"`
	CreatedUTC      time.Time  `json:"created_utc"`
	Score           int        `json:"score"`
	NumComments     int        `json:"num_comments"`
	MatchedKeywords []string   `json:"matched_keywords"`
	IntentScore     float64    `json:"intent_score"`
	Status          PostStatus `json:"status"`
	LastSeenAt      time.Time  `json:"last_seen_at"`
	ContentHash     string     `json:"content_hash"`
	DraftA          string     `json:"draft_a"`
	DraftB          string     `json:"draft_b"`
	MentionAllowed  bool       `json:"mention_allowed"`
}

// Action is an append-only log entry recording a side effect performed on a post.
// Actions are never mutated or deleted after insert.
type Action struct {
	ID         int64      `json:"id,omitempty"`
	RedditID   string     `json:"reddit_id"`
	ActionType ActionType `json:"action_type"`
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ScoreResult holds the output of intent scoring for a post
type ScoreResult struct {
	Score               float64  `json:"score"`
	MatchedKeywords     []string `json:"matched_keywords"`
	SubredditWeight     float64  `json:"subreddit_weight"`
	EngagementBonus     float64  `json:"engagement_bonus"`
	HadNegativeKeywords bool     `json:"had_negative_keywords"`
}
