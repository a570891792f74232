package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/harryila/redPull/models"
)

var (
	// ErrNotFound is returned when an operator references an unknown reddit_id
	ErrNotFound = errors.New("post not found")
	// ErrInvalidTransition is returned when a status change violates the post lifecycle
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Database owns all persisted Post and Action records. Every other component
// operates on in-memory copies and calls back in here to persist changes.
type Database struct {
	db    *sql.DB
	mutex sync.RWMutex
	log   *logrus.Logger
}

// NewDatabase creates a new SQLite database connection
func NewDatabase(dbPath string, log *logrus.Logger) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{
		db:  db,
		log: log,
	}

	if err := database.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return database, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.db.Close()
}

// initTables creates the necessary tables if they don't exist
func (d *Database) initTables() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	query := `
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reddit_id TEXT UNIQUE NOT NULL,
		subreddit TEXT NOT NULL,
		title TEXT NOT NULL,
		selftext TEXT DEFAULT '',
		url TEXT NOT NULL,
		author TEXT NOT NULL,
		created_utc TIMESTAMP NOT NULL,
		score INTEGER DEFAULT 0,
		num_comments INTEGER DEFAULT 0,
		matched_keywords TEXT DEFAULT '[]',
		intent_score REAL DEFAULT 0.0,
		status TEXT DEFAULT 'NEW',
		last_seen_at TIMESTAMP NOT NULL,
		content_hash TEXT NOT NULL,
		draft_a TEXT DEFAULT '',
		draft_b TEXT DEFAULT '',
		mention_allowed INTEGER DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reddit_id TEXT NOT NULL,
		action_type TEXT NOT NULL,
		notes TEXT DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (reddit_id) REFERENCES posts(reddit_id)
	);
	CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);
	CREATE INDEX IF NOT EXISTS idx_posts_content_hash ON posts(content_hash);
	CREATE INDEX IF NOT EXISTS idx_actions_reddit_id ON actions(reddit_id);
	`

	_, err := d.db.Exec(query)
	return err
}

// PostExists checks if a post already exists by reddit_id
func (d *Database) PostExists(redditID string) (bool, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var one int
	err := d.db.QueryRow("SELECT 1 FROM posts WHERE reddit_id = ?", redditID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check post existence: %w", err)
	}
	return true, nil
}

// HashExists checks if a content hash is already stored. Returns the
// reddit_id of the earliest post carrying it, or "" if none.
func (d *Database) HashExists(contentHash string) (string, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var redditID string
	err := d.db.QueryRow(
		"SELECT reddit_id FROM posts WHERE content_hash = ? ORDER BY id LIMIT 1",
		contentHash,
	).Scan(&redditID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check content hash: %w", err)
	}
	return redditID, nil
}

// SavePost upserts a post keyed by reddit_id. A second save of an existing
// reddit_id refreshes the mutable fields (engagement counters, intent score,
// drafts, last_seen_at, mention flag) in place and never touches status or
// creates a second row. Returns the row id.
func (d *Database) SavePost(post *models.Post) (int64, error) {
	exists, err := d.PostExists(post.RedditID)
	if err != nil {
		return 0, err
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	keywords, err := json.Marshal(post.MatchedKeywords)
	if err != nil {
		return 0, fmt.Errorf("failed to encode matched keywords: %w", err)
	}

	if exists {
		_, err = d.db.Exec(`
		UPDATE posts SET
			score = ?,
			num_comments = ?,
			intent_score = ?,
			last_seen_at = ?,
			draft_a = ?,
			draft_b = ?,
			mention_allowed = ?
		WHERE reddit_id = ?`,
			post.Score, post.NumComments, post.IntentScore,
			post.LastSeenAt.UTC().Format(time.RFC3339), post.DraftA, post.DraftB,
			boolToInt(post.MentionAllowed), post.RedditID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to update post: %w", err)
		}
	} else {
		_, err = d.db.Exec(`
		INSERT INTO posts (
			reddit_id, subreddit, title, selftext, url, author,
			created_utc, score, num_comments, matched_keywords,
			intent_score, status, last_seen_at, content_hash,
			draft_a, draft_b, mention_allowed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			post.RedditID, post.Subreddit, post.Title, post.SelfText, post.URL,
			post.Author, post.CreatedUTC.UTC().Format(time.RFC3339), post.Score,
			post.NumComments, string(keywords), post.IntentScore, string(post.Status),
			post.LastSeenAt.UTC().Format(time.RFC3339), post.ContentHash,
			post.DraftA, post.DraftB, boolToInt(post.MentionAllowed),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert post: %w", err)
		}
	}

	var id int64
	if err := d.db.QueryRow("SELECT id FROM posts WHERE reddit_id = ?", post.RedditID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read back post id: %w", err)
	}
	post.ID = id
	return id, nil
}

// GetPost gets a post by reddit_id
func (d *Database) GetPost(redditID string) (*models.Post, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	row := d.db.QueryRow(selectPostColumns+" FROM posts WHERE reddit_id = ?", redditID)
	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %s: %w", redditID, err)
	}
	return post, nil
}

// GetPostsByStatus returns posts in any of the given statuses with at least
// minScore intent, ordered by intent_score descending
func (d *Database) GetPostsByStatus(statuses []models.PostStatus, minScore *float64, limit int) ([]models.Post, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	if len(statuses) == 0 {
		return []models.Post{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	query := selectPostColumns + " FROM posts WHERE status IN (" + placeholders + ")"
	params := make([]interface{}, 0, len(statuses)+2)
	for _, s := range statuses {
		params = append(params, string(s))
	}

	if minScore != nil {
		query += " AND intent_score >= ?"
		params = append(params, *minScore)
	}

	query += " ORDER BY intent_score DESC LIMIT ?"
	params = append(params, limit)

	return d.queryPosts(query, params...)
}

// GetRecentPosts returns posts created within the last N hours, ordered by
// intent_score descending
func (d *Database) GetRecentPosts(hours int, limit int) ([]models.Post, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour).Format(time.RFC3339)
	query := selectPostColumns + ` FROM posts
		WHERE created_utc >= ?
		ORDER BY intent_score DESC
		LIMIT ?`

	return d.queryPosts(query, cutoff, limit)
}

// validTransitions encodes the post lifecycle:
// NEW/QUEUED -> SENT -> REPLIED, with SKIPPED reachable from any live state.
// DUPLICATE is terminal and only ever set at insert time. REPLIED is also
// reachable straight from NEW/QUEUED because console-only deployments never
// pass a post through SENT.
var validTransitions = map[models.PostStatus][]models.PostStatus{
	models.StatusSent:    {models.StatusNew, models.StatusQueued},
	models.StatusReplied: {models.StatusNew, models.StatusQueued, models.StatusSent},
	models.StatusSkipped: {models.StatusNew, models.StatusQueued, models.StatusSent, models.StatusReplied, models.StatusSkipped},
	models.StatusQueued:  {models.StatusNew},
}

// UpdateStatus is the only sanctioned way to change a post's status after
// insert. Returns ErrNotFound for unknown ids and ErrInvalidTransition when
// the change violates the lifecycle.
func (d *Database) UpdateStatus(redditID string, status models.PostStatus) error {
	post, err := d.GetPost(redditID)
	if err != nil {
		return err
	}

	allowed, ok := validTransitions[status]
	if !ok {
		return fmt.Errorf("%w: %s is not a valid target status", ErrInvalidTransition, status)
	}
	permitted := false
	for _, from := range allowed {
		if post.Status == from {
			permitted = true
			break
		}
	}
	if !permitted {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, post.Status, status)
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, err := d.db.Exec("UPDATE posts SET status = ? WHERE reddit_id = ?", string(status), redditID); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	d.log.WithFields(logrus.Fields{
		"reddit_id": redditID,
		"from":      post.Status,
		"to":        status,
	}).Debug("Post status updated")

	return nil
}

// SaveAction appends an action to the audit log. The log is append-only:
// there is no update or delete path for actions anywhere in this package.
func (d *Database) SaveAction(action *models.Action) (int64, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now().UTC()
	}

	result, err := d.db.Exec(`
	INSERT INTO actions (reddit_id, action_type, notes, created_at)
	VALUES (?, ?, ?, ?)`,
		action.RedditID, string(action.ActionType), action.Notes,
		action.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save action: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read action id: %w", err)
	}
	action.ID = id
	return id, nil
}

// GetActions returns all actions for a post, newest first
func (d *Database) GetActions(redditID string) ([]models.Action, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	rows, err := d.db.Query(
		"SELECT id, reddit_id, action_type, notes, created_at FROM actions WHERE reddit_id = ? ORDER BY created_at DESC, id DESC",
		redditID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	actions := make([]models.Action, 0)
	for rows.Next() {
		var action models.Action
		var actionType, createdAt string

		if err := rows.Scan(&action.ID, &action.RedditID, &actionType, &action.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}

		action.ActionType = models.ActionType(actionType)
		action.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		actions = append(actions, action)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return actions, nil
}

// Stats summarizes the database contents
type Stats struct {
	ByStatus     map[string]int `json:"by_status"`
	TotalPosts   int            `json:"total_posts"`
	TotalActions int            `json:"total_actions"`
}

// GetStats returns database statistics
func (d *Database) GetStats() (*Stats, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	stats := &Stats{ByStatus: make(map[string]int)}

	rows, err := d.db.Query("SELECT status, COUNT(*) FROM posts GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if err := d.db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&stats.TotalPosts); err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM actions").Scan(&stats.TotalActions); err != nil {
		return nil, fmt.Errorf("failed to count actions: %w", err)
	}

	return stats, nil
}

const selectPostColumns = `SELECT id, reddit_id, subreddit, title, selftext, url, author,
	created_utc, score, num_comments, matched_keywords, intent_score,
	status, last_seen_at, content_hash, draft_a, draft_b, mention_allowed`

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(s scanner) (*models.Post, error) {
	var post models.Post
	var createdUTC, lastSeenAt, keywords, status string
	var mentionAllowed int

	err := s.Scan(
		&post.ID, &post.RedditID, &post.Subreddit, &post.Title, &post.SelfText,
		&post.URL, &post.Author, &createdUTC, &post.Score, &post.NumComments,
		&keywords, &post.IntentScore, &status, &lastSeenAt, &post.ContentHash,
		&post.DraftA, &post.DraftB, &mentionAllowed,
	)
	if err != nil {
		return nil, err
	}

	post.CreatedUTC, _ = time.Parse(time.RFC3339, createdUTC)
	post.LastSeenAt, _ = time.Parse(time.RFC3339, lastSeenAt)
	post.Status = models.PostStatus(status)
	post.MentionAllowed = mentionAllowed != 0
	if err := json.Unmarshal([]byte(keywords), &post.MatchedKeywords); err != nil {
		post.MatchedKeywords = nil
	}

	return &post, nil
}

func (d *Database) queryPosts(query string, params ...interface{}) ([]models.Post, error) {
	rows, err := d.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return posts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
