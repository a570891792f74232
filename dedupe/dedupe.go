// Package dedupe fingerprints post content and classifies reposts.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// maxHashInputLen caps how much of each normalized field feeds the hash,
// so trailing edits to very long posts don't defeat repost detection
const maxHashInputLen = 500

// NormalizeForHash canonicalizes text for fingerprinting: lowercase, strip
// everything but letters, digits and whitespace, collapse runs of whitespace
// to a single space, and trim. Idempotent and total.
func NormalizeForHash(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// ComputeContentHash computes a stable fingerprint for a post. Title and
// selftext are normalized independently, truncated to their first 500
// characters, and joined with "|" before hashing, so punctuation and
// whitespace differences between reposts still collide.
func ComputeContentHash(title, selftext string) string {
	normalizedTitle := truncate(NormalizeForHash(title), maxHashInputLen)
	normalizedSelftext := truncate(NormalizeForHash(selftext), maxHashInputLen)

	combined := normalizedTitle + "|" + normalizedSelftext
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// HashIndex is the subset of the post store the duplicate check needs
type HashIndex interface {
	PostExists(redditID string) (bool, error)
	HashExists(contentHash string) (string, error)
}

// FindDuplicate classifies a candidate post against stored history.
//
// An existing reddit_id means this is the same post seen again, not a
// duplicate: the caller should take the update path and it is reported
// back as the candidate's own id. A matching content_hash under a
// different reddit_id is a repost/crosspost and the earlier id is
// returned. Otherwise the empty string is returned.
func FindDuplicate(idx HashIndex, redditID, contentHash string) (string, error) {
	exists, err := idx.PostExists(redditID)
	if err != nil {
		return "", err
	}
	if exists {
		return redditID, nil
	}

	existingID, err := idx.HashExists(contentHash)
	if err != nil {
		return "", err
	}
	if existingID != "" && existingID != redditID {
		return existingID, nil
	}

	return "", nil
}
