package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the application
type Config struct {
	Reddit   RedditConfig
	Slack    SlackConfig
	OpenAI   OpenAIConfig
	Export   ExportConfig
	Scoring  ScoringConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// RedditConfig holds Reddit API configuration
type RedditConfig struct {
	ClientID             string
	ClientSecret         string
	UserAgent            string
	MaxRequestsPerMinute int
	FixturesDir          string
}

// IsConfigured reports whether live Reddit API access is possible
func (c RedditConfig) IsConfigured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// SlackConfig holds Slack webhook configuration
type SlackConfig struct {
	WebhookURL string
}

// IsConfigured reports whether Slack delivery is possible
func (c SlackConfig) IsConfigured() bool {
	return c.WebhookURL != ""
}

// OpenAIConfig holds the draft-generation API configuration
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// IsConfigured reports whether LLM draft generation is possible
func (c OpenAIConfig) IsConfigured() bool {
	return c.APIKey != ""
}

// ExportConfig holds the tabular export sink configuration
type ExportConfig struct {
	CSVPath string
}

// ScoringConfig holds thresholds and lookback windows for the pipeline
type ScoringConfig struct {
	IntentScoreThreshold float64
	FetchHoursLookback   int
	PostsPerSubreddit    int
	KeywordsFile         string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string
}

// ServerConfig holds the review API server configuration
type ServerConfig struct {
	Port int
}

// LoadConfig loads configuration from a .env file and the environment.
// A missing .env file is not an error: every integration degrades to a
// documented fallback when its credentials are absent.
func LoadConfig(envPath string, log *logrus.Logger) (*Config, error) {
	if envPath == "" {
		envPath = ".env"
	}

	if err := godotenv.Load(envPath); err != nil {
		log.WithField("file", envPath).Debug("No .env file loaded, using environment only")
	}

	config := &Config{
		Reddit: RedditConfig{
			ClientID:             getEnv("REDDIT_CLIENT_ID", ""),
			ClientSecret:         getEnv("REDDIT_CLIENT_SECRET", ""),
			UserAgent:            getEnv("REDDIT_USER_AGENT", "redpull-listener:v1 (by /u/yourusername)"),
			MaxRequestsPerMinute: getEnvAsInt("REDDIT_MAX_REQUESTS_PER_MINUTE", 100),
			FixturesDir:          getEnv("REDDIT_FIXTURES_DIR", "./data/fixtures"),
		},
		Slack: SlackConfig{
			WebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Export: ExportConfig{
			CSVPath: getEnv("EXPORT_CSV_PATH", "./data/queue.csv"),
		},
		Scoring: ScoringConfig{
			IntentScoreThreshold: getEnvAsFloat("INTENT_SCORE_THRESHOLD", 55),
			FetchHoursLookback:   getEnvAsInt("FETCH_HOURS_LOOKBACK", 72),
			PostsPerSubreddit:    getEnvAsInt("POSTS_PER_SUBREDDIT", 25),
			KeywordsFile:         getEnv("KEYWORDS_FILE", ""),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/redpull.db"),
		},
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	log.WithField("file", envPath).Info("Config loaded successfully")
	return config, nil
}

// ParseSubreddits parses a comma-separated list of subreddits
func ParseSubreddits(subredditsStr string) []string {
	parts := strings.Split(subredditsStr, ",")

	subreddits := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			subreddits = append(subreddits, trimmed)
		}
	}

	return subreddits
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Scoring.IntentScoreThreshold < 0 || config.Scoring.IntentScoreThreshold > 100 {
		return fmt.Errorf("INTENT_SCORE_THRESHOLD must be between 0 and 100")
	}
	if config.Scoring.FetchHoursLookback < 1 {
		return fmt.Errorf("FETCH_HOURS_LOOKBACK must be positive")
	}
	if config.Scoring.PostsPerSubreddit < 1 {
		return fmt.Errorf("POSTS_PER_SUBREDDIT must be positive")
	}

	// if we are storing the db in a nested directory, create the directory
	dbDir := filepath.Dir(config.Database.Path)
	if dbDir != "." && dbDir != "" {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return nil
}
