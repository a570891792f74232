// Package drafts produces candidate reply texts for high-intent posts.
// Draft A never mentions the product; Draft B may carry one soft mention
// when the mention policy allows it.
package drafts

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/harryila/redPull/models"
)

// productName is checked by the draft validator for over-mention
const productName = "hirelab"

// Completer is the external generation capability. It may be entirely
// unavailable, in which case the generator falls back to templates.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Generator produces draft replies for posts
type Generator struct {
	completer Completer
	log       *logrus.Logger
}

// NewGenerator creates a generator. completer may be nil for template-only mode.
func NewGenerator(completer Completer, log *logrus.Logger) *Generator {
	return &Generator{completer: completer, log: log}
}

// GenerateDrafts produces (draftA, draftB) for a post. LLM output is tried
// first when available; parse failures and request errors fall back
// deterministically to templates and never surface as errors. When the post's
// mention policy denies a mention, draftB always equals draftA.
func (g *Generator) GenerateDrafts(ctx context.Context, post *models.Post) (string, string) {
	if g.completer == nil {
		return g.generateWithTemplates(post)
	}

	prompt := userPrompt(post.Subreddit, post.Title, post.SelfText, post.MentionAllowed)

	content, err := g.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		g.log.WithError(err).WithField("reddit_id", post.RedditID).
			Warn("LLM generation failed, falling back to templates")
		return g.generateWithTemplates(post)
	}

	draftA, draftB := parseResponse(content)
	if draftA == "" || draftB == "" {
		g.log.WithField("reddit_id", post.RedditID).
			Warn("Failed to parse LLM response, falling back to templates")
		return g.generateWithTemplates(post)
	}

	if !post.MentionAllowed {
		return draftA, draftA
	}
	return draftA, draftB
}

var (
	draftAPattern = regexp.MustCompile(`(?s)---DRAFT_A---\s*(.*?)\s*---END_DRAFT_A---`)
	draftBPattern = regexp.MustCompile(`(?s)---DRAFT_B---\s*(.*?)\s*---END_DRAFT_B---`)
	leadingColons = regexp.MustCompile(`^[:\s]+`)
)

// parseResponse extracts draft A and B from a delimited LLM response.
// When the markers are missing it tries a looser split on "Draft B".
func parseResponse(content string) (string, string) {
	var draftA, draftB string

	if m := draftAPattern.FindStringSubmatch(content); m != nil {
		draftA = strings.TrimSpace(m[1])
	}
	if m := draftBPattern.FindStringSubmatch(content); m != nil {
		draftB = strings.TrimSpace(m[1])
	}

	if draftA == "" || draftB == "" {
		parts := strings.SplitN(content, "Draft B", 2)
		if len(parts) == 2 {
			a := strings.ReplaceAll(parts[0], "Draft A", "")
			a = strings.ReplaceAll(a, "---", "")
			draftA = strings.TrimSpace(leadingColons.ReplaceAllString(strings.TrimSpace(a), ""))

			b := strings.ReplaceAll(parts[1], "---", "")
			draftB = strings.TrimSpace(leadingColons.ReplaceAllString(strings.TrimSpace(b), ""))
		}
	}

	return draftA, draftB
}

// generateWithTemplates selects a rule-based template pair by content category
func (g *Generator) generateWithTemplates(post *models.Post) (string, string) {
	key := selectTemplate(post.Title, post.SelfText)
	pair := templateDrafts[key]

	if !post.MentionAllowed {
		return pair.DraftA, pair.DraftA
	}
	return pair.DraftA, pair.DraftB
}

var urlPattern = regexp.MustCompile(`https?://`)

// forbiddenPhrases never belong in a draft regardless of context
var forbiddenPhrases = []string{
	"sign up",
	"check out our",
	"my startup",
	"we're launching",
	"game changer",
	"revolutionize",
	"click here",
	"limited time",
	"discount",
	"promo code",
}

var promoIndicators = []string{"best tool", "amazing", "incredible", "must try", "you need to"}

// ValidateDraft checks a draft against the forbidden-phrase list, a URL
// check, and a product-mention count. It returns advisory warnings for a
// human reviewer and never blocks generation.
func ValidateDraft(draft string) []string {
	var warnings []string
	draftLower := strings.ToLower(draft)

	for _, phrase := range forbiddenPhrases {
		if strings.Contains(draftLower, phrase) {
			warnings = append(warnings, fmt.Sprintf("Contains forbidden phrase: %q", phrase))
		}
	}

	if urlPattern.MatchString(draft) {
		warnings = append(warnings, "Contains URL link")
	}

	if count := strings.Count(draftLower, productName); count > 1 {
		warnings = append(warnings, fmt.Sprintf("Mentions HireLab %d times (should be max 1)", count))
	}

	promoCount := 0
	for _, indicator := range promoIndicators {
		if strings.Contains(draftLower, indicator) {
			promoCount++
		}
	}
	if promoCount >= 2 {
		warnings = append(warnings, "Draft may sound too promotional")
	}

	return warnings
}
