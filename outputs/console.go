package outputs

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/harryila/redPull/db"
	"github.com/harryila/redPull/models"
)

// Console renders posts, lists and stats to a writer. It is the delivery
// fallback when no notification sink is configured.
type Console struct {
	out io.Writer
}

// NewConsole creates a console renderer writing to out
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// PrintPosts renders each post with title, metadata and optionally drafts
func (c *Console) PrintPosts(posts []models.Post, showDrafts bool) {
	for _, post := range posts {
		c.printPost(post, showDrafts)
	}
}

func (c *Console) printPost(post models.Post, showDrafts bool) {
	fmt.Fprintf(c.out, "\n[%s] %.0f  r/%s  u/%s\n", post.Status, post.IntentScore, post.Subreddit, post.Author)
	fmt.Fprintf(c.out, "  %s\n", post.Title)
	fmt.Fprintf(c.out, "  %s\n", post.URL)
	if len(post.MatchedKeywords) > 0 {
		fmt.Fprintf(c.out, "  Matched: %s\n", strings.Join(post.MatchedKeywords, ", "))
	}
	fmt.Fprintf(c.out, "  ID: %s\n", post.RedditID)

	if showDrafts && post.DraftA != "" {
		fmt.Fprintln(c.out, "\n  Draft A (no mention):")
		printIndented(c.out, post.DraftA)

		if post.DraftB != "" && post.MentionAllowed && post.DraftB != post.DraftA {
			fmt.Fprintln(c.out, "\n  Draft B (soft mention):")
			printIndented(c.out, post.DraftB)
		}
	}
}

func printIndented(out io.Writer, text string) {
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(out, "    %s\n", line)
	}
}

// PrintPostList renders a compact table of posts
func (c *Console) PrintPostList(posts []models.Post) {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tSCORE\tSUBREDDIT\tSTATUS\tTITLE")
	for i, post := range posts {
		title := post.Title
		if len(title) > 60 {
			title = title[:60] + "..."
		}
		fmt.Fprintf(w, "%d\t%s\t%.0f\tr/%s\t%s\t%s\n",
			i+1, post.RedditID, post.IntentScore, post.Subreddit, post.Status, title)
	}
	w.Flush()
}

// PrintStats renders store statistics
func (c *Console) PrintStats(stats *db.Stats) {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tCOUNT")
	for _, status := range models.AllStatuses {
		if count, ok := stats.ByStatus[string(status)]; ok {
			fmt.Fprintf(w, "%s\t%d\n", status, count)
		}
	}
	fmt.Fprintf(w, "\nTotal Posts\t%d\n", stats.TotalPosts)
	fmt.Fprintf(w, "Total Actions\t%d\n", stats.TotalActions)
	w.Flush()
}

// PrintActions renders a post's action history, newest first
func (c *Console) PrintActions(actions []models.Action) {
	if len(actions) == 0 {
		return
	}
	fmt.Fprintln(c.out, "\nAction History:")
	for _, action := range actions {
		fmt.Fprintf(c.out, "  • %s at %s\n", action.ActionType, action.CreatedAt.Format("2006-01-02 15:04:05"))
		if action.Notes != "" {
			fmt.Fprintf(c.out, "    Notes: %s\n", action.Notes)
		}
	}
}
