package quickfill

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Options tunes the heuristics of a parse. Start from DefaultOptions; a
// zero Options disables context inheritance and resolution de-duplication.
type Options struct {
	// DefaultResolution is assumed for links without an NNNp token.
	DefaultResolution string
	// InheritContext lets an undecodable download URL take the episode
	// and resolution of the explicit line before it.
	InheritContext bool
	// AnchorProvider is the host whose URLs define the resolution order
	// other hosts follow.
	AnchorProvider string
	// DedupeEmbedHosts post one iframe per resolution tier; only the
	// highest tier survives.
	DedupeEmbedHosts []string
	// MovieRoundRobinProvider carries no resolution in its movie URLs and
	// cycles through MovieRoundRobinResolutions instead.
	MovieRoundRobinProvider    string
	MovieRoundRobinResolutions []string

	Logger logrus.FieldLogger
}

// DefaultOptions returns the behavior pasted input has historically been
// written against.
func DefaultOptions() Options {
	return Options{
		DefaultResolution:          DefaultResolution,
		InheritContext:             true,
		AnchorProvider:             "Mirrored",
		DedupeEmbedHosts:           []string{"FileMoon"},
		MovieRoundRobinProvider:    "Terabox",
		MovieRoundRobinResolutions: []string{"720p", "1080p"},
	}
}

func (o Options) withDefaults() Options {
	if o.DefaultResolution == "" {
		o.DefaultResolution = DefaultResolution
	}
	if o.AnchorProvider == "" {
		o.AnchorProvider = "Mirrored"
	}
	if len(o.MovieRoundRobinResolutions) == 0 {
		o.MovieRoundRobinResolutions = []string{"720p", "1080p"}
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Logger = l
	}
	return o
}

// Parse classifies text and runs the movie or series pipeline over it.
// It never fails: lines it cannot place are skipped.
func Parse(text string, opts Options) *Model {
	if IsMovieFormat(text) {
		return ParseMovies(text, opts)
	}
	return ParseSeries(text, opts)
}

// ParseSeries runs the series pipeline, keying entries by series name and
// episode number.
func ParseSeries(text string, opts Options) *Model {
	return newParser(opts, false).run(text)
}

// ParseMovies runs the movie pipeline, keying entries by normalized title.
func ParseMovies(text string, opts Options) *Model {
	return newParser(opts, true).run(text)
}

// parser holds the state of one parse call.
type parser struct {
	opts  Options
	log   logrus.FieldLogger
	model *Model
	movie bool

	headers    []*Episode
	standalone []string
	candidates []embedCandidate

	stream     []streamItem
	anchorURLs []string
	rrCount    map[string]int
}

func newParser(opts Options, movie bool) *parser {
	opts = opts.withDefaults()
	return &parser{
		opts:    opts,
		log:     opts.Logger,
		model:   newModel(movie),
		movie:   movie,
		rrCount: map[string]int{},
	}
}

func (p *parser) run(text string) *Model {
	sec := SplitSections(text)
	p.log.WithFields(logrus.Fields{
		"embed_lines":    len(sec.Embed),
		"download_lines": len(sec.Download),
		"movie":          p.movie,
	}).Debug("split input")

	p.resolveEmbeds(sec.Embed)
	p.resolveDownloads(sec.Download)
	p.resolvePositional()
	p.flushCandidates()
	p.assignStandalone()
	if !p.movie {
		p.backfillSeries()
	}

	for _, e := range p.model.episodes {
		e.finishEmbeds()
	}
	return p.model
}

// header parses a pasted filename into its entry plus any resolution the
// name carries.
func (p *parser) header(name string) (*Episode, string, bool) {
	if p.movie {
		return p.movieHeader(name)
	}
	info, ok := ParseEpisodeFilename(name)
	if !ok {
		return nil, "", false
	}
	ep := p.episodeFor(info.SeriesName, info.Episode, info.Year, info.Season)
	return ep, ExtractResolutionOr(name, ""), true
}

// decodeURL maps a hosting or player URL to its entry.
func (p *parser) decodeURL(raw string) (*Episode, string, bool) {
	if p.movie {
		return p.movieFromURL(raw)
	}
	info, ok := ParseURLPath(raw)
	if !ok {
		return nil, "", false
	}
	return p.episodeFor(info.SeriesName, info.Episode, info.Year, info.Season), info.Resolution, true
}

// episodeFor finds or creates the episode for series and number. Without
// a series name an existing episode with the same number is reused, else
// an UnknownSeries placeholder is made; a later named sighting adopts that
// placeholder.
func (p *parser) episodeFor(series, number, year, season string) *Episode {
	if series == "" {
		if same := p.model.byNumber(number); len(same) > 0 {
			same[0].fill(year, season)
			return same[0]
		}
		series = UnknownSeries
	}

	if ep, ok := p.model.index[EpisodeKey(series, number)]; ok {
		ep.fill(year, season)
		return ep
	}

	if series != UnknownSeries {
		if ep, ok := p.model.index[EpisodeKey(UnknownSeries, number)]; ok {
			ep.SeriesName = series
			ep.fill(year, season)
			p.model.reindex()
			return ep
		}
	}

	ep := newEpisode(series, number, year, season)
	p.model.add(ep)
	return ep
}

// resolution picks the explicit label, else the first token in texts,
// else the configured default.
func (p *parser) resolution(explicit string, texts ...string) string {
	if explicit != "" {
		return explicit
	}
	for _, t := range texts {
		if res := ExtractResolutionOr(t, ""); res != "" {
			return res
		}
	}
	return p.opts.DefaultResolution
}
