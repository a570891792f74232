// Package outputs holds the notification and export sinks. Sink failures
// are reported to the caller but never abort the pipeline; posts keep their
// prior status when delivery fails.
package outputs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harryila/redPull/db"
	"github.com/harryila/redPull/models"
)

// maxPostsPerMessage caps how many posts fit in one Slack message
const maxPostsPerMessage = 10

// ReasonFunc renders the match reasons for a post
type ReasonFunc func(models.Post) []string

// SlackSink delivers post batches to a Slack incoming webhook
type SlackSink struct {
	webhookURL string
	httpClient *http.Client
	reasons    ReasonFunc
	log        *logrus.Logger
}

// NewSlackSink creates a sink posting to the given webhook URL
func NewSlackSink(webhookURL string, reasons ReasonFunc, log *logrus.Logger) *SlackSink {
	return &SlackSink{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		reasons:    reasons,
		log:        log,
	}
}

type slackBlock map[string]interface{}

// Send posts a rendered lead batch to Slack. Returns an error on delivery
// failure; the caller decides whether to mark posts SENT.
func (s *SlackSink) Send(ctx context.Context, posts []models.Post, title string) error {
	if len(posts) == 0 {
		return nil
	}

	blocks := s.buildBlocks(posts, title)
	return s.post(ctx, blocks)
}

// SendDailyDigest posts a summary of recent top posts and store statistics
func (s *SlackSink) SendDailyDigest(ctx context.Context, posts []models.Post, stats *db.Stats, newToday int) error {
	blocks := []slackBlock{
		{
			"type": "header",
			"text": map[string]interface{}{"type": "plain_text", "text": "📊 Daily Reddit Digest - HireLab", "emoji": true},
		},
		{
			"type": "section",
			"text": map[string]interface{}{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Summary:*\n• Total posts tracked: %d\n• New today: %d\n• Replied: %d\n• Pending review: %d",
					stats.TotalPosts, newToday, stats.ByStatus[string(models.StatusReplied)], len(posts)),
			},
		},
		{"type": "divider"},
	}

	if len(posts) == 0 {
		blocks = append(blocks, slackBlock{
			"type": "section",
			"text": map[string]interface{}{"type": "mrkdwn", "text": "_No high-intent posts found today._"},
		})
	} else {
		blocks = append(blocks, slackBlock{
			"type": "section",
			"text": map[string]interface{}{"type": "mrkdwn", "text": "*🔥 Top 10 Posts by Intent Score:*"},
		})
		for i, post := range posts {
			if i >= maxPostsPerMessage {
				break
			}
			blocks = append(blocks, slackBlock{
				"type": "section",
				"text": map[string]interface{}{
					"type": "mrkdwn",
					"text": fmt.Sprintf("%d. <%s|%s>\n   r/%s • Score: %.0f",
						i+1, post.URL, escapeSlack(post.Title), post.Subreddit, post.IntentScore),
				},
			})
		}
	}

	return s.post(ctx, blocks)
}

func (s *SlackSink) post(ctx context.Context, blocks []slackBlock) error {
	payload, err := json.Marshal(map[string]interface{}{"blocks": blocks})
	if err != nil {
		return fmt.Errorf("failed to encode Slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create Slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send to Slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	}

	s.log.WithField("blocks", len(blocks)).Debug("Delivered message to Slack")
	return nil
}

func (s *SlackSink) buildBlocks(posts []models.Post, title string) []slackBlock {
	blocks := []slackBlock{
		{
			"type": "header",
			"text": map[string]interface{}{"type": "plain_text", "text": title, "emoji": true},
		},
		{
			"type": "context",
			"elements": []interface{}{
				map[string]interface{}{
					"type": "mrkdwn",
					"text": fmt.Sprintf("Found *%d* high-intent posts", len(posts)),
				},
			},
		},
		{"type": "divider"},
	}

	for i, post := range posts {
		if i >= maxPostsPerMessage {
			break
		}
		blocks = append(blocks, s.buildPostBlocks(post)...)
		blocks = append(blocks, slackBlock{"type": "divider"})
	}

	blocks = append(blocks, slackBlock{
		"type": "context",
		"elements": []interface{}{
			map[string]interface{}{
				"type": "mrkdwn",
				"text": "📝 *Commands:* `redpull mark-replied <id>` | `redpull mark-skipped <id>`",
			},
		},
	})

	return blocks
}

func (s *SlackSink) buildPostBlocks(post models.Post) []slackBlock {
	reasonsText := "• Keyword match"
	if s.reasons != nil {
		if reasons := s.reasons(post); len(reasons) > 0 {
			lines := make([]string, len(reasons))
			for i, r := range reasons {
				lines[i] = "• " + r
			}
			reasonsText = strings.Join(lines, "\n")
		}
	}

	blocks := []slackBlock{
		{
			"type": "section",
			"text": map[string]interface{}{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*<%s|%s>*\nr/%s • Score: %.0f • 👤 u/%s",
					post.URL, escapeSlack(post.Title), post.Subreddit, post.IntentScore, post.Author),
			},
		},
		{
			"type": "context",
			"elements": []interface{}{
				map[string]interface{}{"type": "mrkdwn", "text": "*Why matched:*\n" + reasonsText},
			},
		},
	}

	if post.DraftA != "" {
		blocks = append(blocks, slackBlock{
			"type": "section",
			"text": map[string]interface{}{
				"type": "mrkdwn",
				"text": "*Draft A (no mention):*\n```" + truncate(post.DraftA, 500) + "```",
			},
		})
	}

	if post.DraftB != "" && post.MentionAllowed && post.DraftB != post.DraftA {
		blocks = append(blocks, slackBlock{
			"type": "section",
			"text": map[string]interface{}{
				"type": "mrkdwn",
				"text": "*Draft B (soft mention):*\n```" + truncate(post.DraftB, 500) + "```",
			},
		})
	}

	blocks = append(blocks, slackBlock{
		"type": "context",
		"elements": []interface{}{
			map[string]interface{}{
				"type": "mrkdwn",
				"text": fmt.Sprintf("ID: `%s` | `redpull mark-replied %s` | `redpull mark-skipped %s`",
					post.RedditID, post.RedditID, post.RedditID),
			},
		},
	})

	return blocks
}

func escapeSlack(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	return strings.ReplaceAll(text, ">", "&gt;")
}

func truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen-3] + "..."
}
