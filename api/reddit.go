package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/harryila/redPull/models"
)

const (
	defaultBaseURL = "https://oauth.reddit.com"
	defaultAuthURL = "https://www.reddit.com/api/v1/access_token"
	pageLimit      = 100 // max number of posts per listing request
)

// PostIter is a lazy, finite sequence of posts. Usage mirrors sql.Rows:
//
//	for it.Next() {
//	    post := it.Post()
//	    ...
//	}
//	if err := it.Err(); err != nil { ... }
type PostIter interface {
	Next() bool
	Post() models.Post
	Err() error
}

// RedditAPI fetches subreddit listings with application-only OAuth
type RedditAPI struct {
	clientID     string
	clientSecret string
	userAgent    string
	baseURL      string
	authURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	accessToken  string
	tokenExpiry  time.Time
	mutex        sync.RWMutex
	log          *logrus.Logger
}

// redditPost is the Reddit API wire structure for a post
type redditPost struct {
	Kind string `json:"kind"`
	Data struct {
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Author      string  `json:"author"`
		Subreddit   string  `json:"subreddit"`
		CreatedUTC  float64 `json:"created_utc"`
		Score       int     `json:"score"`
		NumComments int     `json:"num_comments"`
		SelfText    string  `json:"selftext"`
		Permalink   string  `json:"permalink"`
		Stickied    bool    `json:"stickied"`
	} `json:"data"`
}

// redditListing is the Reddit API wire structure for a listing page
type redditListing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string       `json:"after"`
		Children []redditPost `json:"children"`
	} `json:"data"`
}

// NewRedditAPI creates a new Reddit API client. Requests are paced to 95%
// of the configured per-minute budget to stay under Reddit's limit.
func NewRedditAPI(clientID, clientSecret, userAgent string, maxRequestsPerMinute int, log *logrus.Logger) *RedditAPI {
	if maxRequestsPerMinute <= 0 {
		maxRequestsPerMinute = 100
	}

	targetRate := (float64(maxRequestsPerMinute) / 60.0) * 0.95

	return &RedditAPI{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		baseURL:      defaultBaseURL,
		authURL:      defaultAuthURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(targetRate), 1),
		log:          log,
	}
}

// authenticate obtains or refreshes the app-only access token
func (r *RedditAPI) authenticate(ctx context.Context) error {
	r.mutex.RLock()
	token := r.accessToken
	expiry := r.tokenExpiry
	r.mutex.RUnlock()

	if token != "" && time.Now().Before(expiry) {
		return nil
	}

	r.log.Info("Authenticating with Reddit API")

	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.authURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create auth request: %w", err)
	}

	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("auth request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var authResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}

	r.mutex.Lock()
	r.accessToken = authResp.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(authResp.ExpiresIn) * time.Second)
	r.mutex.Unlock()

	r.log.Info("Successfully authenticated with Reddit API")
	return nil
}

// fetchPage fetches a single listing page from /new
func (r *RedditAPI) fetchPage(ctx context.Context, subreddit string, limit int, after string) ([]redditPost, string, error) {
	if err := r.authenticate(ctx); err != nil {
		return nil, "", err
	}

	if limit <= 0 || limit > pageLimit {
		limit = pageLimit
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	endpoint := fmt.Sprintf("%s/r/%s/new.json?limit=%d", r.baseURL, subreddit, limit)
	if after != "" {
		endpoint += "&after=" + after
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	r.mutex.RLock()
	token := r.accessToken
	r.mutex.RUnlock()

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.log.WithFields(logrus.Fields{
			"subreddit":   subreddit,
			"status_code": resp.StatusCode,
		}).Error("Reddit API error response")
		return nil, "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, "", fmt.Errorf("failed to decode response: %w", err)
	}

	return listing.Data.Children, listing.Data.After, nil
}

// FetchSubredditPosts returns a lazy iterator over a subreddit's newest
// posts, bounded by limit and maxAge. Stickied posts are skipped. Listing
// pages are fetched on demand so a pass over many subreddits never holds
// more than one page in memory.
func (r *RedditAPI) FetchSubredditPosts(ctx context.Context, subreddit string, limit int, maxAge time.Duration) PostIter {
	return &liveIter{
		api:       r,
		ctx:       ctx,
		subreddit: subreddit,
		remaining: limit,
		cutoff:    time.Now().UTC().Add(-maxAge),
	}
}

type liveIter struct {
	api       *RedditAPI
	ctx       context.Context
	subreddit string
	remaining int
	cutoff    time.Time

	buffer  []redditPost
	after   string
	started bool
	done    bool
	current models.Post
	err     error
}

func (it *liveIter) Next() bool {
	for {
		if it.done || it.err != nil || it.remaining <= 0 {
			return false
		}

		if len(it.buffer) == 0 {
			if it.started && it.after == "" {
				// listing exhausted
				return false
			}
			page, after, err := it.api.fetchPage(it.ctx, it.subreddit, it.remaining, it.after)
			if err != nil {
				it.err = err
				return false
			}
			it.started = true
			it.buffer = page
			it.after = after
			if len(page) == 0 {
				return false
			}
		}

		raw := it.buffer[0]
		it.buffer = it.buffer[1:]

		if raw.Data.Stickied {
			continue
		}

		created := time.Unix(int64(raw.Data.CreatedUTC), 0).UTC()
		if created.Before(it.cutoff) {
			// /new is ordered newest first, nothing older is relevant
			it.done = true
			return false
		}

		it.current = rawToPost(raw, it.subreddit)
		it.remaining--
		return true
	}
}

func (it *liveIter) Post() models.Post { return it.current }
func (it *liveIter) Err() error        { return it.err }

func rawToPost(raw redditPost, subreddit string) models.Post {
	author := raw.Data.Author
	if author == "" {
		author = "[deleted]"
	}
	return models.Post{
		RedditID:    raw.Data.ID,
		Subreddit:   subreddit,
		Title:       raw.Data.Title,
		SelfText:    raw.Data.SelfText,
		URL:         "https://www.reddit.com" + raw.Data.Permalink,
		Author:      author,
		CreatedUTC:  time.Unix(int64(raw.Data.CreatedUTC), 0).UTC(),
		Score:       raw.Data.Score,
		NumComments: raw.Data.NumComments,
		Status:      models.StatusNew,
		LastSeenAt:  time.Now().UTC(),
	}
}
