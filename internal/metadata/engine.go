package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/Digital-Shane/quickfill/internal/quickfill"
	"github.com/mhmtszr/concurrent-swiss-map"
	"github.com/sirupsen/logrus"
)

// Failure is a query no lookup could answer.
type Failure struct {
	Query Query
	Errs  []error
}

// Report summarizes one Enrich run.
type Report struct {
	Queries  int
	Resolved int
	Renamed  int
	Filled   int
	Failures []Failure
	Canceled bool
}

type result struct {
	query Query
	match *Match
	errs  []error
}

// Engine runs lookups over a parsed model with a bounded worker pool.
type Engine struct {
	lookups []Lookup
	workers int
	log     logrus.FieldLogger
	results *csmap.CsMap[string, result]

	// OnLookup observes every finished query.
	OnLookup func(q Query, m *Match, err error)
}

// NewEngine returns an engine trying lookups in order. Nil lookups are
// skipped.
func NewEngine(lookups []Lookup, workers int, logger logrus.FieldLogger) *Engine {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	active := make([]Lookup, 0, len(lookups))
	for _, l := range lookups {
		if l != nil {
			active = append(active, l)
		}
	}

	return &Engine{
		lookups: active,
		workers: workers,
		log:     logger.WithField("component", "metadata"),
		results: csmap.Create[string, result](),
	}
}

// Enabled reports whether any lookup is configured.
func (e *Engine) Enabled() bool {
	return len(e.lookups) > 0
}

func queryFor(ep *quickfill.Episode) (Query, bool) {
	name := strings.TrimSpace(ep.SeriesName)
	if name == "" || name == quickfill.UnknownSeries {
		return Query{}, false
	}
	kind := KindSeries
	if ep.IsMovie() {
		kind = KindMovie
	}
	return Query{Kind: kind, Name: name, Year: ep.Year}, true
}

// Enrich looks up every distinct series or movie in model, then renames
// entries to the matched title and fills empty years. Lookup failures are
// reported, never returned.
func (e *Engine) Enrich(ctx context.Context, model *quickfill.Model) Report {
	var report Report
	if !e.Enabled() || model == nil || model.Len() == 0 {
		return report
	}

	queries := make([]Query, 0)
	seen := make(map[string]bool)
	for _, ep := range model.Episodes() {
		q, ok := queryFor(ep)
		if !ok || seen[q.cacheKey()] {
			continue
		}
		seen[q.cacheKey()] = true
		queries = append(queries, q)
	}
	report.Queries = len(queries)

	e.run(ctx, queries)
	if ctx.Err() != nil {
		report.Canceled = true
	}

	for _, q := range queries {
		res, ok := e.results.Load(q.cacheKey())
		if !ok {
			continue
		}
		if res.match == nil {
			report.Failures = append(report.Failures, Failure{Query: q, Errs: res.errs})
			continue
		}
		report.Resolved++
	}
	sort.SliceStable(report.Failures, func(i, j int) bool {
		return report.Failures[i].Query.Name < report.Failures[j].Query.Name
	})

	model.Apply(func(ep *quickfill.Episode) {
		q, ok := queryFor(ep)
		if !ok {
			return
		}
		res, ok := e.results.Load(q.cacheKey())
		if !ok || res.match == nil {
			return
		}
		if title := strings.TrimSpace(res.match.Title); title != "" && title != ep.SeriesName {
			ep.SeriesName = title
			report.Renamed++
		}
		if ep.Year == "" && res.match.Year != "" {
			ep.Year = res.match.Year
			report.Filled++
		}
	})

	return report
}

func (e *Engine) run(ctx context.Context, queries []Query) {
	workCh := make(chan Query)
	var wg sync.WaitGroup

	for i := 0; i < min(e.workers, len(queries)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := range workCh {
				if ctx.Err() != nil {
					return
				}
				e.results.Store(q.cacheKey(), e.resolve(ctx, q))
			}
		}()
	}

	for _, q := range queries {
		if _, exists := e.results.Load(q.cacheKey()); exists {
			continue
		}
		select {
		case workCh <- q:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(workCh)
	wg.Wait()
}

// resolve tries each lookup until one matches.
func (e *Engine) resolve(ctx context.Context, q Query) result {
	res := result{query: q}
	for _, l := range e.lookups {
		match, err := l.Search(ctx, q)
		if e.OnLookup != nil {
			e.OnLookup(q, match, err)
		}
		if err == nil && match != nil {
			res.match = match
			e.log.WithFields(logrus.Fields{"provider": l.Name(), "query": q.Name, "title": match.Title}).Debug("lookup matched")
			return res
		}
		if err == nil {
			err = fmt.Errorf("%s: no match for %q", l.Name(), q.Name)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res
		}
		e.log.WithError(err).WithFields(logrus.Fields{"provider": l.Name(), "query": q.Name}).Debug("lookup failed")
		res.errs = append(res.errs, err)
	}
	return res
}
