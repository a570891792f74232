// Package scoring computes intent scores and the mention policy for posts.
// Everything in here is deterministic and side-effect free so callers can
// safely retry and tests can pin exact values.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/harryila/redPull/models"
	"github.com/harryila/redPull/utils"
)

const (
	keywordPoints    = 5
	keywordCap       = 40
	phrasePoints     = 10
	phraseCap        = 30
	engagementCap    = 15
	negativePoints   = 15
	negativeFloor    = -30
	shortTextLimit   = 20
	shortTextPenalty = 10
)

// forbiddenSubreddit never gets a product mention regardless of post content
const forbiddenSubreddit = "recruitinghell"

// Scorer applies the configured keyword lists to posts
type Scorer struct {
	keywords utils.Keywords
}

// NewScorer creates a scorer with the given keyword configuration
func NewScorer(keywords utils.Keywords) *Scorer {
	return &Scorer{keywords: keywords}
}

// NormalizeText lowercases, trims, and collapses whitespace for keyword
// matching. Punctuation is kept; this is intentionally lighter than the
// normalization used for content hashing.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// CalculateIntentScore scores a post 0-100 for job-search pain intent.
//
// Breakdown:
//   - positive keyword matches: +5 each, capped at +40
//   - high-intent phrases: +10 each, capped at +30
//   - subreddit weight multiplier applied to the two sums above
//   - engagement bonus: min(ln(1 + score + num_comments) * 3, 15)
//   - negative keywords: -15 each, floored at -30
//   - selftext under 20 chars: flat -10
//   - final value clamped to [0, 100], rounded to 2 decimals
func (s *Scorer) CalculateIntentScore(title, selftext, subreddit string, score, numComments int) models.ScoreResult {
	combined := NormalizeText(title + " " + selftext)

	var matched []string

	keywordScore := 0.0
	for _, keyword := range s.keywords.Positive {
		if strings.Contains(combined, strings.ToLower(keyword)) {
			keywordScore += keywordPoints
			matched = append(matched, keyword)
		}
	}
	keywordScore = math.Min(keywordScore, keywordCap)

	phraseScore := 0.0
	for _, phrase := range s.keywords.HighIntent {
		if strings.Contains(combined, strings.ToLower(phrase)) {
			phraseScore += phrasePoints
			matched = append(matched, phrase)
		}
	}
	phraseScore = math.Min(phraseScore, phraseCap)

	weight, ok := s.keywords.SubredditWeight[subreddit]
	if !ok {
		weight = 1.0
	}

	intentScore := (keywordScore + phraseScore) * weight

	// downvoted posts can push score+numComments below zero, which would
	// make Log1p return NaN
	engagement := score + numComments
	if engagement < 0 {
		engagement = 0
	}
	engagementBonus := math.Min(math.Log1p(float64(engagement))*3, engagementCap)
	intentScore += engagementBonus

	negativeScore := 0.0
	for _, keyword := range s.keywords.Negative {
		if strings.Contains(combined, strings.ToLower(keyword)) {
			negativeScore -= negativePoints
		}
	}
	negativeScore = math.Max(negativeScore, negativeFloor)
	intentScore += negativeScore

	if len(strings.TrimSpace(selftext)) < shortTextLimit {
		intentScore -= shortTextPenalty
	}

	intentScore = math.Max(0, math.Min(100, intentScore))

	return models.ScoreResult{
		Score:               round2(intentScore),
		MatchedKeywords:     dedupeKeywords(matched),
		SubredditWeight:     weight,
		EngagementBonus:     round2(engagementBonus),
		HadNegativeKeywords: negativeScore < 0,
	}
}

// CheckMentionAllowed decides whether a soft product mention is permitted
// for a post. Rules are evaluated in order, first match wins, default deny.
func (s *Scorer) CheckMentionAllowed(title, selftext, subreddit string) bool {
	combined := NormalizeText(title + " " + selftext)

	if strings.EqualFold(subreddit, forbiddenSubreddit) {
		return false
	}

	for _, indicator := range s.keywords.Hostile {
		if strings.Contains(combined, indicator) {
			return false
		}
	}

	for _, phrase := range s.keywords.MentionAllowed {
		if strings.Contains(combined, strings.ToLower(phrase)) {
			return true
		}
	}

	return false
}

// MatchReasons produces human-readable reasons why a post matched, for
// notification rendering
func (s *Scorer) MatchReasons(post models.Post) []string {
	var reasons []string

	if len(post.MatchedKeywords) > 0 {
		keywords := post.MatchedKeywords
		if len(keywords) > 5 {
			keywords = keywords[:5]
		}
		reasons = append(reasons, "Keywords: "+strings.Join(keywords, ", "))
	}

	if weight, ok := s.keywords.SubredditWeight[post.Subreddit]; ok && weight > 1.0 {
		reasons = append(reasons, fmt.Sprintf("High-value subreddit (r/%s)", post.Subreddit))
	}

	if post.Score > 10 || post.NumComments > 5 {
		reasons = append(reasons, fmt.Sprintf("Engagement: %d upvotes, %d comments", post.Score, post.NumComments))
	}

	return reasons
}

func dedupeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	result := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, k)
	}
	return result
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
