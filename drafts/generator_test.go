package drafts

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/harryila/redPull/models"
)

type fakeCompleter struct {
	response string
	err      error
	called   bool
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	f.called = true
	return f.response, f.err
}

func newTestGenerator(completer Completer) *Generator {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewGenerator(completer, log)
}

func TestSelectTemplate(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		selftext string
		expected string
	}{
		{
			name:     "ATS beats resume when both match",
			title:    "Is the ATS rejecting my resume?",
			selftext: "",
			expected: "ats_question",
		},
		{
			name:     "Ghosted maps to no callbacks",
			title:    "Ghosted after final round",
			selftext: "",
			expected: "no_callbacks",
		},
		{
			name:     "Resume general",
			title:    "Please review my resume",
			selftext: "",
			expected: "resume_general",
		},
		{
			name:     "Career advice",
			title:    "Should I pivot into data engineering?",
			selftext: "",
			expected: "career_advice",
		},
		{
			name:     "Selftext is considered too",
			title:    "Feeling stuck",
			selftext: "my cv keeps getting ignored",
			expected: "resume_general",
		},
		{
			name:     "No match falls through to default",
			title:    "Venting about the market",
			selftext: "just needed to get this off my chest",
			expected: "default",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, selectTemplate(tc.title, tc.selftext))
		})
	}
}

func TestParseResponseDelimited(t *testing.T) {
	content := `---DRAFT_A---
First draft body here.
Second line.
---END_DRAFT_A---

---DRAFT_B---
Second draft body with HireLab mention.
---END_DRAFT_B---`

	draftA, draftB := parseResponse(content)
	assert.Equal(t, "First draft body here.\nSecond line.", draftA)
	assert.Equal(t, "Second draft body with HireLab mention.", draftB)
}

func TestParseResponseLooseFallback(t *testing.T) {
	content := `Draft A: here is the first reply text.

Draft B: here is the second reply text.`

	draftA, draftB := parseResponse(content)
	assert.Equal(t, "here is the first reply text.", draftA)
	assert.Equal(t, "here is the second reply text.", draftB)
}

func TestParseResponseUnparseable(t *testing.T) {
	draftA, draftB := parseResponse("the model ignored the format entirely")
	assert.Equal(t, "", draftA)
	assert.Equal(t, "", draftB)
}

func TestGenerateDraftsWithoutCompleter(t *testing.T) {
	g := newTestGenerator(nil)

	post := &models.Post{
		RedditID:       "abc123",
		Title:          "Is the ATS rejecting my resume?",
		MentionAllowed: true,
	}

	draftA, draftB := g.GenerateDrafts(context.Background(), post)
	assert.Equal(t, templateDrafts["ats_question"].DraftA, draftA)
	assert.Equal(t, templateDrafts["ats_question"].DraftB, draftB)
	assert.NotEqual(t, draftA, draftB)
}

func TestGenerateDraftsMentionDenied(t *testing.T) {
	g := newTestGenerator(nil)

	post := &models.Post{
		RedditID:       "abc123",
		Title:          "Is the ATS rejecting my resume?",
		MentionAllowed: false,
	}

	draftA, draftB := g.GenerateDrafts(context.Background(), post)
	assert.Equal(t, draftA, draftB)
	assert.NotContains(t, strings.ToLower(draftA), productName)
}

func TestGenerateDraftsMentionDeniedOverridesCompleter(t *testing.T) {
	completer := &fakeCompleter{
		response: "---DRAFT_A---\nplain reply\n---END_DRAFT_A---\n---DRAFT_B---\nreply with HireLab\n---END_DRAFT_B---",
	}
	g := newTestGenerator(completer)

	post := &models.Post{RedditID: "abc123", Title: "resume help", MentionAllowed: false}

	draftA, draftB := g.GenerateDrafts(context.Background(), post)
	assert.True(t, completer.called)
	assert.Equal(t, "plain reply", draftA)
	assert.Equal(t, draftA, draftB)
}

func TestGenerateDraftsCompleterError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("rate limited")}
	g := newTestGenerator(completer)

	post := &models.Post{RedditID: "abc123", Title: "resume help", MentionAllowed: true}

	draftA, draftB := g.GenerateDrafts(context.Background(), post)
	assert.Equal(t, templateDrafts["resume_general"].DraftA, draftA)
	assert.Equal(t, templateDrafts["resume_general"].DraftB, draftB)
}

func TestGenerateDraftsUnparseableFallsBack(t *testing.T) {
	completer := &fakeCompleter{response: "no delimiters anywhere"}
	g := newTestGenerator(completer)

	post := &models.Post{RedditID: "abc123", Title: "ghosted after final round", MentionAllowed: true}

	draftA, draftB := g.GenerateDrafts(context.Background(), post)
	assert.Equal(t, templateDrafts["no_callbacks"].DraftA, draftA)
	assert.Equal(t, templateDrafts["no_callbacks"].DraftB, draftB)
}

func TestValidateDraft(t *testing.T) {
	tests := []struct {
		name     string
		draft    string
		expected []string
	}{
		{
			name:     "Clean draft",
			draft:    "Sorry to hear that, the market is rough. Have you tried tailoring per posting?",
			expected: nil,
		},
		{
			name:     "Forbidden phrase",
			draft:    "You should sign up for this.",
			expected: []string{`Contains forbidden phrase: "sign up"`},
		},
		{
			name:     "URL",
			draft:    "Take a look at https://example.com for tips.",
			expected: []string{"Contains URL link"},
		},
		{
			name:     "Over-mention",
			draft:    "HireLab this and HireLab that.",
			expected: []string{"Mentions HireLab 2 times (should be max 1)"},
		},
		{
			name:     "Single mention is fine",
			draft:    "I've been using HireLab for keyword checks.",
			expected: nil,
		},
		{
			name:     "Promotional tone",
			draft:    "This is amazing, you need to try it.",
			expected: []string{"Draft may sound too promotional"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ValidateDraft(tc.draft))
		})
	}
}
