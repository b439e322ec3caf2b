package quickfill

import (
	"regexp"
	"strings"
)

var episodeTokenRe = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?:s\d+)?e\d+`)

const maxClassifyHeaders = 3

// IsMovieFormat reports whether text describes movies rather than
// episodes. The first few "[tag] ..." header lines before any iframe decide:
// an episode token anywhere means series, headers without one mean movie,
// and no headers at all means series.
func IsMovieFormat(text string) bool {
	var headers []string
	for _, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" || strings.EqualFold(line, downloadMarker) {
			continue
		}
		if hasIframePrefix(line) {
			break
		}
		if !strings.HasPrefix(line, "[") {
			continue
		}
		if m := bbcodeRe.FindStringSubmatch(line); m != nil {
			line = m[2]
		}
		if i := strings.IndexAny(line, "|<"); i > 0 {
			line = line[:i]
		}
		headers = append(headers, line)
		if len(headers) == maxClassifyHeaders {
			break
		}
	}

	for _, h := range headers {
		if episodeTokenRe.MatchString(bracketTagRe.ReplaceAllString(h, "")) {
			return false
		}
	}
	return len(headers) > 0
}

func hasIframePrefix(line string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "<iframe")
}
