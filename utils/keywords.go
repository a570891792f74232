package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Keywords holds the keyword lists and subreddit weights driving intent scoring
// and the mention policy. Loaded once at startup and treated as read-only; a YAML
// file can override any list for tuning without a rebuild.
type Keywords struct {
	Positive        []string           `yaml:"positive_keywords"`
	HighIntent      []string           `yaml:"high_intent_phrases"`
	Negative        []string           `yaml:"negative_keywords"`
	MentionAllowed  []string           `yaml:"mention_allowed_phrases"`
	Hostile         []string           `yaml:"hostile_indicators"`
	SubredditWeight map[string]float64 `yaml:"subreddit_weights"`
}

// DefaultSubreddits are the subreddits monitored when none are given on the CLI
var DefaultSubreddits = []string{
	"resumes",
	"careerguidance",
	"jobs",
	"cscareerquestions",
	"EngineeringResumes",
	"internships",
	"layoffs",
	"recruitinghell",
}

// DefaultKeywords returns the built-in keyword lists and weights
func DefaultKeywords() Keywords {
	return Keywords{
		Positive: []string{
			"resume",
			"cv",
			"ats",
			"no interviews",
			"rejected",
			"ghosted",
			"recruiter",
			"application",
			"cover letter",
			"screening",
			"parse",
			"job search",
			"internship",
			"entry level",
			"job hunting",
			"applying",
			"applications",
			"hiring manager",
			"tailoring",
			"customize",
			"keywords",
		},
		HighIntent: []string{
			"no interviews",
			"ats",
			"rejected",
			"not getting callbacks",
			"not hearing back",
			"resume review",
			"resume help",
			"what tool",
			"any tool",
			"resume parser",
			"keyword optimization",
			"tailor my resume",
		},
		Negative: []string{
			"survey",
			"research study",
			"giveaway",
			"promo",
			"discord",
			"my product",
			"affiliate",
			"spam",
			"promotion",
			"advertisement",
			"selling",
		},
		MentionAllowed: []string{
			"ats",
			"resume parser",
			"keyword optimization",
			"formatting",
			"tailoring",
			"job application track",
			"what tool",
			"any tool",
			"recommend a tool",
			"tool recommendation",
			"software",
			"app for",
			"application for",
		},
		Hostile: []string{
			"spam",
			"promotion",
			"sick of",
			"hate these",
			"stop promoting",
		},
		SubredditWeight: map[string]float64{
			"resumes":            1.2,
			"EngineeringResumes": 1.2,
			"careerguidance":     1.1,
			"internships":        1.1,
			"jobs":               1.0,
			"cscareerquestions":  1.0,
			"layoffs":            1.0,
			"recruitinghell":     0.85,
		},
	}
}

// LoadKeywords returns the defaults, overridden field by field from the YAML
// file at path when provided. Lists present in the file replace the defaults
// entirely; missing lists keep their defaults.
func LoadKeywords(path string) (Keywords, error) {
	kw := DefaultKeywords()
	if path == "" {
		return kw, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return kw, fmt.Errorf("failed to read keywords file: %w", err)
	}

	var override Keywords
	if err := yaml.Unmarshal(data, &override); err != nil {
		return kw, fmt.Errorf("failed to parse keywords file: %w", err)
	}

	if len(override.Positive) > 0 {
		kw.Positive = override.Positive
	}
	if len(override.HighIntent) > 0 {
		kw.HighIntent = override.HighIntent
	}
	if len(override.Negative) > 0 {
		kw.Negative = override.Negative
	}
	if len(override.MentionAllowed) > 0 {
		kw.MentionAllowed = override.MentionAllowed
	}
	if len(override.Hostile) > 0 {
		kw.Hostile = override.Hostile
	}
	if len(override.SubredditWeight) > 0 {
		kw.SubredditWeight = override.SubredditWeight
	}

	return kw, nil
}
