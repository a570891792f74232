package outputs

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harryila/redPull/models"
)

var csvHeader = []string{
	"Date", "Reddit ID", "Subreddit", "Intent Score", "Title",
	"URL", "Author", "Status", "Draft A", "Draft B", "Notes",
}

// CSVSink is the append-only tabular export: one row per post per delivery
// event. Existing rows are never rewritten or reordered.
type CSVSink struct {
	path string
	log  *logrus.Logger
}

// NewCSVSink creates a sink appending to the CSV file at path
func NewCSVSink(path string, log *logrus.Logger) *CSVSink {
	return &CSVSink{path: path, log: log}
}

// Append writes one row per post, creating the file with a header row on
// first use
func (c *CSVSink) Append(posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	if dir := filepath.Dir(c.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	_, statErr := os.Stat(c.path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if newFile {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	now := time.Now().UTC().Format("2006-01-02 15:04")
	for _, post := range posts {
		row := []string{
			now,
			post.RedditID,
			post.Subreddit,
			strconv.FormatFloat(post.IntentScore, 'f', 2, 64),
			post.Title,
			post.URL,
			post.Author,
			string(post.Status),
			post.DraftA,
			post.DraftB,
			"", // notes column for manual input
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"posts": len(posts),
		"path":  c.path,
	}).Info("Exported posts to CSV")

	return nil
}
