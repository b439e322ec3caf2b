package quickfill

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Title and year without a resolution, e.g. "[Tag] Movie Title (2023)".
var movieLooseRe = regexp.MustCompile(`^\s*(?:\[[^\]]*\][\s._]*)?(.+?)[\s._]+\(?(\d{4})\)?(?:[\s._]|$)`)

func (p *parser) movieHeader(name string) (*Episode, string, bool) {
	if info, ok := ParseMovieFilename(name); ok {
		return p.movieFor(info.Title, info.Year), info.Resolution, true
	}
	m := movieLooseRe.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return nil, "", false
	}
	title := cleanTitle(m[1])
	if title == "" {
		return nil, "", false
	}
	return p.movieFor(title, m[2]), ExtractResolutionOr(name, ""), true
}

// movieFromURL decodes anchor style names like
// "[Tag]_Movie_Title_2023_1080p.mp4_links".
func (p *parser) movieFromURL(raw string) (*Episode, string, bool) {
	info, ok := ParseMovieFilename(lastSegment(raw))
	if !ok {
		return nil, "", false
	}
	return p.movieFor(info.Title, info.Year), info.Resolution, true
}

func (p *parser) movieFor(title, year string) *Episode {
	if e, ok := p.model.index[MovieKey(title)]; ok {
		e.fill(year, "")
		return e
	}
	e := newEpisode(title, MovieNumber, year, "")
	p.model.add(e)
	return e
}

// roundRobinMovie gives a resolution-less URL the next label of the fixed
// cycle, counted per movie and provider.
func (p *parser) roundRobinMovie(rawURL, provider string, ctx *linkContext, log logrus.FieldLogger) {
	var target *Episode
	switch {
	case ctx != nil:
		target = ctx.episode
	case p.model.Len() == 1:
		target = p.model.episodes[0]
	default:
		log.Debug("dropping movie link with no movie to attach it to")
		return
	}

	key := target.Key() + "\x00" + provider
	n := p.rrCount[key]
	p.rrCount[key] = n + 1
	cycle := p.opts.MovieRoundRobinResolutions
	p.link(target, rawURL, cycle[n%len(cycle)])
}
