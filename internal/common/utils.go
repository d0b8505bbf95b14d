package common

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dtnitsch/ngram-year-rank/pkg/fetcher"
	"github.com/dtnitsch/ngram-year-rank/pkg/input"
)

// SanitizePath performs basic cleanup on an input path to handle common copy-paste issues.
// Removes surrounding whitespace and quotes, and expands a leading "~/".
func SanitizePath(rawPath string) string {
	cleaned := strings.TrimSpace(rawPath)

	// Example: "'corpus/1gram-a.gz'" -> "corpus/1gram-a.gz"
	for _, q := range []string{"\"", "'", "`"} {
		if len(cleaned) >= 2 && strings.HasPrefix(cleaned, q) && strings.HasSuffix(cleaned, q) {
			cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
		}
	}

	if strings.HasPrefix(cleaned, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			cleaned = filepath.Join(home, cleaned[2:])
		}
	}

	return cleaned
}

// SanitizeAndValidatePaths sanitizes all input paths and returns (sanitized paths, invalid paths).
// Local paths must exist (or, for globs, match something); remote paths must be well-formed URLs.
func SanitizeAndValidatePaths(paths []string) ([]string, []string) {
	sanitized := make([]string, 0, len(paths))
	var invalid []string
	stdinSeen := false

	for _, rawPath := range paths {
		cleaned := SanitizePath(rawPath)

		if cleaned == "" {
			invalid = append(invalid, rawPath)
			continue
		}

		switch {
		case cleaned == input.Stdin:
			// stdin can only be consumed once
			if stdinSeen {
				invalid = append(invalid, rawPath)
				continue
			}
			stdinSeen = true

		case fetcher.IsRemote(cleaned):
			parsed, err := url.Parse(cleaned)
			if err != nil || parsed.Host == "" || strings.Contains(cleaned, " ") {
				invalid = append(invalid, rawPath)
				continue
			}

		case strings.ContainsAny(cleaned, "*?["):
			matches, err := filepath.Glob(cleaned)
			if err != nil || len(matches) == 0 {
				invalid = append(invalid, rawPath)
				continue
			}

		default:
			if _, err := os.Stat(cleaned); err != nil {
				invalid = append(invalid, rawPath)
				continue
			}
		}

		sanitized = append(sanitized, cleaned)
	}

	return sanitized, invalid
}
