package outputs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harryila/redPull/db"
	"github.com/harryila/redPull/models"
)

func newWebhookServer(t *testing.T, status int) (*httptest.Server, *[]string) {
	t.Helper()

	var payloads []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		payloads = append(payloads, string(body))
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	return server, &payloads
}

func TestSlackSinkSend(t *testing.T) {
	server, payloads := newWebhookServer(t, http.StatusOK)

	reasons := func(models.Post) []string { return []string{"Keywords: resume, ats"} }
	sink := NewSlackSink(server.URL, reasons, testLogger())

	posts := []models.Post{
		{
			RedditID:       "abc123",
			Subreddit:      "jobs",
			Title:          "Stuck at <entry level> & no interviews",
			URL:            "https://reddit.com/r/jobs/comments/abc123",
			Author:         "poster",
			IntentScore:    62.5,
			DraftA:         "plain draft",
			DraftB:         "draft with mention",
			MentionAllowed: true,
		},
	}

	require.NoError(t, sink.Send(context.Background(), posts, "Leads"))
	require.Len(t, *payloads, 1)

	payload := (*payloads)[0]
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Contains(t, decoded, "blocks")

	// flatten the decoded blocks so assertions are independent of JSON escaping
	flat := fmt.Sprint(decoded)
	// markdown control characters escaped
	assert.Contains(t, flat, "&lt;entry level&gt;")
	assert.Contains(t, flat, "Keywords: resume, ats")
	assert.Contains(t, flat, "plain draft")
	assert.Contains(t, flat, "draft with mention")
	assert.Contains(t, flat, "mark-replied abc123")
}

func TestSlackSinkSendEmptyBatch(t *testing.T) {
	server, payloads := newWebhookServer(t, http.StatusOK)
	sink := NewSlackSink(server.URL, nil, testLogger())

	require.NoError(t, sink.Send(context.Background(), nil, "Leads"))
	assert.Empty(t, *payloads)
}

func TestSlackSinkSendHidesIdenticalDraftB(t *testing.T) {
	server, payloads := newWebhookServer(t, http.StatusOK)
	sink := NewSlackSink(server.URL, nil, testLogger())

	posts := []models.Post{
		{
			RedditID: "abc123",
			Title:    "resume help",
			URL:      "https://reddit.com/r/jobs/comments/abc123",
			DraftA:   "same draft",
			DraftB:   "same draft",
		},
	}

	require.NoError(t, sink.Send(context.Background(), posts, "Leads"))
	require.Len(t, *payloads, 1)
	assert.Equal(t, 1, strings.Count((*payloads)[0], "same draft"))
	assert.NotContains(t, (*payloads)[0], "Draft B")
}

func TestSlackSinkSendFailure(t *testing.T) {
	server, _ := newWebhookServer(t, http.StatusInternalServerError)
	sink := NewSlackSink(server.URL, nil, testLogger())

	err := sink.Send(context.Background(), []models.Post{{RedditID: "abc123", Title: "t"}}, "Leads")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSlackSinkDailyDigest(t *testing.T) {
	server, payloads := newWebhookServer(t, http.StatusOK)
	sink := NewSlackSink(server.URL, nil, testLogger())

	stats := &db.Stats{
		TotalPosts: 12,
		ByStatus:   map[string]int{string(models.StatusReplied): 3},
	}
	posts := []models.Post{
		{RedditID: "abc123", Title: "top post", URL: "https://reddit.com/abc123", Subreddit: "jobs", IntentScore: 80},
	}

	require.NoError(t, sink.SendDailyDigest(context.Background(), posts, stats, 5))
	require.Len(t, *payloads, 1)
	assert.Contains(t, (*payloads)[0], "Total posts tracked: 12")
	assert.Contains(t, (*payloads)[0], "New today: 5")
	assert.Contains(t, (*payloads)[0], "top post")
}
