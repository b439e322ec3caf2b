// Package metadata corrects series and movie names and fills missing years
// from TMDB, falling back to OMDb.
package metadata

import (
	"context"
	"strings"
)

// Kind selects what a query searches for.
type Kind string

const (
	KindSeries Kind = "series"
	KindMovie  Kind = "movie"
)

// Error codes carried by LookupError.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeAuthFailed     = "AUTH_FAILED"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUnavailable    = "UNAVAILABLE"
	CodeUnknown        = "UNKNOWN"
)

// Query is one search.
type Query struct {
	Kind Kind
	Name string
	Year string
}

func (q Query) cacheKey() string {
	return string(q.Kind) + "|" + strings.ToLower(strings.TrimSpace(q.Name)) + "|" + q.Year
}

// Match is the best result a provider returned.
type Match struct {
	Provider string
	Title    string
	Year     string
}

// Lookup is a single metadata source.
type Lookup interface {
	Name() string
	Search(ctx context.Context, q Query) (*Match, error)
}

// LookupError is the error every Lookup returns for provider failures.
type LookupError struct {
	Provider string
	Code     string
	Message  string
	Retry    bool
}

func (e *LookupError) Error() string {
	return e.Provider + ": " + e.Message
}

func invalidQuery(provider string, q Query) error {
	if strings.TrimSpace(q.Name) == "" {
		return &LookupError{Provider: provider, Code: CodeInvalidRequest, Message: "lookup requires a name"}
	}
	if q.Kind != KindSeries && q.Kind != KindMovie {
		return &LookupError{Provider: provider, Code: CodeInvalidRequest, Message: "unsupported kind: " + string(q.Kind)}
	}
	return nil
}

func yearOf(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return ""
}
