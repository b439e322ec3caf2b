package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Digital-Shane/quickfill/internal/ratelimit"
	"github.com/patrickmn/go-cache"
	"github.com/ryanbradynd05/go-tmdb"
)

const tmdbName = "tmdb"

// TMDBClient is the subset of *tmdb.TMDb used here.
type TMDBClient interface {
	SearchMovie(name string, options map[string]string) (*tmdb.MovieSearchResults, error)
	SearchTv(name string, options map[string]string) (*tmdb.TvSearchResults, error)
}

// TMDB searches The Movie Database.
type TMDB struct {
	client   TMDBClient
	language string
	limiter  *ratelimit.Limiter
	cache    *cache.Cache
}

// NewTMDB returns a TMDB lookup for apiKey.
func NewTMDB(apiKey, language string) *TMDB {
	client := tmdb.Init(tmdb.Config{
		APIKey:   strings.TrimSpace(apiKey),
		Proxies:  nil,
		UseProxy: false,
	})
	return NewTMDBWithClient(client, language)
}

// NewTMDBWithClient wraps an existing client.
func NewTMDBWithClient(client TMDBClient, language string) *TMDB {
	if language == "" {
		language = "en-US"
	}
	return &TMDB{
		client:   client,
		language: language,
		// 38 requests per 10 seconds keeps under the public limit
		limiter: ratelimit.New(38, 10*time.Second),
		cache:   cache.New(24*time.Hour, time.Hour),
	}
}

func (t *TMDB) Name() string { return tmdbName }

// Search returns the first TMDB result for q.
func (t *TMDB) Search(ctx context.Context, q Query) (*Match, error) {
	if err := invalidQuery(tmdbName, q); err != nil {
		return nil, err
	}
	if cached, found := t.cache.Get(q.cacheKey()); found {
		return cached.(*Match), nil
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	options := map[string]string{"language": t.language}
	var match *Match
	var err error
	switch q.Kind {
	case KindMovie:
		if q.Year != "" {
			options["year"] = q.Year
		}
		match, err = t.searchMovie(q, options)
	default:
		if q.Year != "" {
			options["first_air_date_year"] = q.Year
		}
		match, err = t.searchSeries(q, options)
	}
	if err != nil {
		return nil, err
	}

	t.cache.Set(q.cacheKey(), match, cache.DefaultExpiration)
	return match, nil
}

func (t *TMDB) searchMovie(q Query, options map[string]string) (*Match, error) {
	results, err := t.client.SearchMovie(q.Name, options)
	if err != nil {
		return nil, mapTMDBError(err)
	}
	if results == nil || len(results.Results) == 0 {
		return nil, &LookupError{
			Provider: tmdbName,
			Code:     CodeNotFound,
			Message:  fmt.Sprintf("no results found for movie: %s", q.Name),
		}
	}
	movie := results.Results[0]
	return &Match{Provider: tmdbName, Title: movie.Title, Year: yearOf(movie.ReleaseDate)}, nil
}

func (t *TMDB) searchSeries(q Query, options map[string]string) (*Match, error) {
	results, err := t.client.SearchTv(q.Name, options)
	if err != nil {
		return nil, mapTMDBError(err)
	}
	if results == nil || len(results.Results) == 0 {
		return nil, &LookupError{
			Provider: tmdbName,
			Code:     CodeNotFound,
			Message:  fmt.Sprintf("no results found for series: %s", q.Name),
		}
	}
	show := results.Results[0]
	return &Match{Provider: tmdbName, Title: show.Name, Year: yearOf(show.FirstAirDate)}, nil
}

func mapTMDBError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "401"), strings.Contains(lower, "unauthorized"):
		return &LookupError{Provider: tmdbName, Code: CodeAuthFailed, Message: "authentication failed: " + msg}
	case strings.Contains(lower, "429"), strings.Contains(lower, "rate limit"):
		return &LookupError{Provider: tmdbName, Code: CodeRateLimited, Message: "rate limit exceeded", Retry: true}
	case strings.Contains(lower, "503"), strings.Contains(lower, "unavailable"):
		return &LookupError{Provider: tmdbName, Code: CodeUnavailable, Message: "service unavailable", Retry: true}
	default:
		return &LookupError{Provider: tmdbName, Code: CodeUnknown, Message: msg}
	}
}
