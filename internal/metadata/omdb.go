package metadata

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Digital-Shane/omdb"
	"github.com/patrickmn/go-cache"
)

const omdbName = "omdb"

// OMDB searches the Open Movie Database by exact title.
type OMDB struct {
	client *omdb.Client
	cache  *cache.Cache
}

// NewOMDB returns an OMDb lookup. A nil httpClient gets a 10 second
// timeout.
func NewOMDB(apiKey string, httpClient *http.Client) *OMDB {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &OMDB{
		client: omdb.NewClient(strings.TrimSpace(apiKey), httpClient),
		cache:  cache.New(24*time.Hour, time.Hour),
	}
}

func (o *OMDB) Name() string { return omdbName }

// Search queries OMDb for q.
func (o *OMDB) Search(ctx context.Context, q Query) (*Match, error) {
	if err := invalidQuery(omdbName, q); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cached, found := o.cache.Get(q.cacheKey()); found {
		return cached.(*Match), nil
	}

	searchType := "series"
	if q.Kind == KindMovie {
		searchType = "movie"
	}
	result, err := o.client.SearchByTitle(omdb.QueryData{
		Title:      strings.TrimSpace(q.Name),
		Year:       q.Year,
		SearchType: searchType,
		Plot:       "short",
	})
	if err != nil {
		return nil, mapOMDBError(err)
	}

	var match *Match
	switch r := result.(type) {
	case omdb.MovieResult:
		match = &Match{Provider: omdbName, Title: r.Title, Year: omdb.FirstYear(r.Year)}
	case *omdb.MovieResult:
		match = &Match{Provider: omdbName, Title: r.Title, Year: omdb.FirstYear(r.Year)}
	case omdb.SeriesResult:
		match = &Match{Provider: omdbName, Title: r.Title, Year: omdb.FirstYear(r.Year)}
	case *omdb.SeriesResult:
		match = &Match{Provider: omdbName, Title: r.Title, Year: omdb.FirstYear(r.Year)}
	default:
		return nil, &LookupError{Provider: omdbName, Code: CodeNotFound, Message: string(q.Kind) + " not found"}
	}

	o.cache.Set(q.cacheKey(), match, cache.DefaultExpiration)
	return match, nil
}

func mapOMDBError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "invalid api key"), strings.Contains(lower, "missing omdb api key"):
		return &LookupError{Provider: omdbName, Code: CodeAuthFailed, Message: "authentication failed: " + msg}
	case strings.Contains(lower, "not found"):
		return &LookupError{Provider: omdbName, Code: CodeNotFound, Message: msg}
	case strings.Contains(lower, "limit reached"), strings.Contains(lower, "too many requests"):
		return &LookupError{Provider: omdbName, Code: CodeRateLimited, Message: msg, Retry: true}
	default:
		return &LookupError{Provider: omdbName, Code: CodeUnknown, Message: msg}
	}
}
