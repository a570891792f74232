package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/harryila/redPull/api"
	"github.com/harryila/redPull/db"
	"github.com/harryila/redPull/drafts"
	"github.com/harryila/redPull/models"
	"github.com/harryila/redPull/outputs"
	"github.com/harryila/redPull/pipeline"
	"github.com/harryila/redPull/scoring"
	"github.com/harryila/redPull/server"
	"github.com/harryila/redPull/utils"
)

// globalOptions apply to every subcommand
type globalOptions struct {
	EnvPath  string `long:"env" default:".env" description:"Path to .env file"`
	LogLevel string `long:"log-level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Logging level"`
}

var opts globalOptions

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "Discover and draft Reddit engagement opportunities"

	mustAddCommand(parser, "fetch", "Fetch posts from Reddit, score them, and store in database", &fetchCommand{})
	mustAddCommand(parser, "digest", "Generate and send digest of high-intent posts", &digestCommand{})
	mustAddCommand(parser, "list", "List posts from the database", &listCommand{})
	mustAddCommand(parser, "show", "Show details for a specific post", &showCommand{})
	mustAddCommand(parser, "stats", "Show database statistics", &statsCommand{})
	mustAddCommand(parser, "mark-replied", "Mark a post as replied to", &markRepliedCommand{})
	mustAddCommand(parser, "mark-skipped", "Mark a post as skipped", &markSkippedCommand{})
	mustAddCommand(parser, "regenerate", "Regenerate drafts for a specific post", &regenerateCommand{})
	mustAddCommand(parser, "daily-digest", "Send a daily summary of top recent posts", &dailyDigestCommand{})
	mustAddCommand(parser, "serve", "Run the local review API server", &serveCommand{})

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}

func mustAddCommand(parser *flags.Parser, name, description string, cmd interface{}) {
	if _, err := parser.AddCommand(name, description, description, cmd); err != nil {
		panic(err)
	}
}

// app bundles everything a command needs
type app struct {
	config   *utils.Config
	database *db.Database
	pipe     *pipeline.Pipeline
	console  *outputs.Console
	log      *logrus.Logger
}

// buildApp wires the full component graph for one command invocation.
// Missing credentials select fallbacks instead of failing: no Reddit creds
// means fixture replay, no Slack means console-only delivery, no OpenAI key
// means template drafts.
func buildApp() (*app, error) {
	log := setupLogger(opts.LogLevel)

	config, err := utils.LoadConfig(opts.EnvPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	database, err := db.NewDatabase(config.Database.Path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	keywords, err := utils.LoadKeywords(config.Scoring.KeywordsFile)
	if err != nil {
		return nil, err
	}
	scorer := scoring.NewScorer(keywords)

	var source pipeline.Source
	if config.Reddit.IsConfigured() {
		source = api.NewRedditAPI(
			config.Reddit.ClientID,
			config.Reddit.ClientSecret,
			config.Reddit.UserAgent,
			config.Reddit.MaxRequestsPerMinute,
			log,
		)
	} else {
		log.Warn("Reddit API not configured, running in fixture-replay mode")
		source = api.NewFixtureSource(config.Reddit.FixturesDir, log)
	}

	var completer drafts.Completer
	if config.OpenAI.IsConfigured() {
		completer = drafts.NewOpenAIClient(config.OpenAI, log)
	} else {
		log.Info("OpenAI not configured, drafts will use templates")
	}
	generator := drafts.NewGenerator(completer, log)

	var slack *outputs.SlackSink
	if config.Slack.IsConfigured() {
		slack = outputs.NewSlackSink(config.Slack.WebhookURL, scorer.MatchReasons, log)
	} else {
		log.Info("Slack not configured, digests will print to console only")
	}

	console := outputs.NewConsole(os.Stdout)
	csvSink := outputs.NewCSVSink(config.Export.CSVPath, log)

	pipe := pipeline.New(source, database, scorer, generator, slack, csvSink, console, pipeline.Options{
		IntentScoreThreshold: config.Scoring.IntentScoreThreshold,
		FetchHoursLookback:   config.Scoring.FetchHoursLookback,
		PostsPerSubreddit:    config.Scoring.PostsPerSubreddit,
	}, log)

	return &app{
		config:   config,
		database: database,
		pipe:     pipe,
		console:  console,
		log:      log,
	}, nil
}

// setupLogger sets up the logger with the specified log level
func setupLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

type fetchCommand struct {
	Subreddits []string `short:"s" long:"subreddit" description:"Subreddit to fetch (can be repeated; defaults to the built-in list)"`
}

func (c *fetchCommand) Execute(args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.database.Close()

	subreddits := c.Subreddits
	if len(subreddits) == 0 {
		subreddits = utils.DefaultSubreddits
	}

	stats, err := a.pipe.Fetch(context.Background(), subreddits)
	if err != nil {
		return err
	}

	a.log.WithFields(logrus.Fields{
		"total_fetched":   stats.TotalFetched,
		"new_posts":       stats.NewPosts,
		"duplicates":      stats.Duplicates,
		"above_threshold": stats.AboveThreshold,
	}).Info("Fetch complete")
	return nil
}

type digestCommand struct {
	MinScore *float64 `short:"m" long:"min-score" description:"Minimum intent score (default: from config)"`
	Limit    int      `short:"l" long:"limit" default:"20" description:"Maximum posts to include"`
	NoSlack  bool     `long:"no-slack" description:"Skip Slack delivery"`
	NoCSV    bool     `long:"no-csv" description:"Skip CSV export"`
	NoDrafts bool     `long:"no-drafts" description:"Skip draft generation"`
}

func (c *digestCommand) Execute(args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.database.Close()

	posts, err := a.pipe.Digest(context.Background(), pipeline.DigestOptions{
		MinScore:       c.MinScore,
		Limit:          c.Limit,
		SendSlack:      !c.NoSlack,
		WriteCSV:       !c.NoCSV,
		GenerateDrafts: !c.NoDrafts,
	})
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Println("No new high-intent posts found.")
	}
	return nil
}

type listCommand struct {
	Statuses []string `short:"s" long:"status" description:"Filter by status (can be repeated; default NEW,QUEUED)"`
	MinScore *float64 `short:"m" long:"min-score" description:"Minimum intent score"`
	Limit    int      `short:"l" long:"limit" default:"50" description:"Maximum posts to show"`
}

func (c *listCommand) Execute(args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.database.Close()

	statuses := []models.PostStatus{models.StatusNew, models.StatusQueued}
	if len(c.Statuses) > 0 {
		statuses = nil
		for _, raw := range c.Statuses {
			status, err := models.ParseStatus(raw)
			if err != nil {
				return err
			}
			statuses = append(statuses, status)
		}
	}

	posts, err := a.database.GetPostsByStatus(statuses, c.MinScore, c.Limit)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Println("No posts found matching criteria.")
		return nil
	}

	a.console.PrintPostList(posts)
	return nil
}

type showCommand struct {
	NoDrafts bool `long:"no-drafts" description:"Hide draft replies"`
	Args     struct {
		RedditID string `positional-arg-name:"reddit-id" required:"yes"`
	} `positional-args:"yes"`
}

func (c *showCommand) Execute(args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.database.Close()

	post, err := a.database.GetPost(c.Args.RedditID)
	if errors.Is(err, db.ErrNotFound) {
		fmt.Printf("Post not found: %s\n", c.Args.RedditID)
		return nil
	}
	if err != nil {
		return err
	}

	a.console.PrintPosts([]models.Post{*post}, !c.NoDrafts)

	actions, err := a.database.GetActions(c.Args.RedditID)
	if err != nil {
		return err
	}
	a.console.PrintActions(actions)
	return nil
}

type statsCommand struct{}

func (c *statsCommand) Execute(args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.database.Close()

	stats, err := a.database.GetStats()
	if err != nil {
		return err
	}
	a.console.PrintStats(stats)
	return nil
}

type markRepliedCommand struct {
	Notes string `short:"n" long:"notes" description:"Optional notes about the reply"`
	Args  struct {
		RedditID string `positional-arg-name:"reddit-id" required:"yes"`
	} `positional-args:"yes"`
}

func (c *markRepliedCommand) Execute(args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.database.Close()

	if err := a.pipe.MarkReplied(c.Args.RedditID, c.Notes); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			fmt.Printf("Post not found: %s\n", c.Args.RedditID)
			return nil
		}
		return err
	}
	fmt.Printf("Marked %s as REPLIED\n", c.Args.RedditID)
	return nil
}

type markSkippedCommand struct {
	Notes string `short:"n" long:"notes" description:"Optional reason for skipping"`
	Args  struct {
		RedditID string `positional-arg-name:"reddit-id" required:"yes"`
	} `positional-args:"yes"`
}

func (c *markSkippedCommand) Execute(args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.database.Close()

	if err := a.pipe.MarkSkipped(c.Args.RedditID, c.Notes); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			fmt.Printf("Post not found: %s\n", c.Args.RedditID)
			return nil
		}
		return err
	}
	fmt.Printf("Marked %s as SKIPPED\n", c.Args.RedditID)
	return nil
}

type regenerateCommand struct {
	Args struct {
		RedditID string `positional-arg-name:"reddit-id" required:"yes"`
	} `positional-args:"yes"`
}

func (c *regenerateCommand) Execute(args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.database.Close()

	post, err := a.pipe.Regenerate(context.Background(), c.Args.RedditID)
	if errors.Is(err, db.ErrNotFound) {
		fmt.Printf("Post not found: %s\n", c.Args.RedditID)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println("Drafts regenerated")
	a.console.PrintPosts([]models.Post{*post}, true)
	return nil
}

type dailyDigestCommand struct{}

func (c *dailyDigestCommand) Execute(args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.database.Close()

	return a.pipe.DailyDigest(context.Background())
}

type serveCommand struct{}

func (c *serveCommand) Execute(args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
		cancel()
	}()

	srv := server.New(a.database, a.pipe, a.log)
	return srv.Start(ctx, a.config.Server.Port)
}
