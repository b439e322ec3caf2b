package quickfill

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var (
	filenameURLRe = regexp.MustCompile(`(?i)^(.+?)\s+-\s+(https?://\S+)`)
	anchorNameRe  = regexp.MustCompile(`^\[[^\]]*\][_\s]*(.+?)[_\s]+(?:\(?\d{4}\)?[_\s]+)?[Ee]\d+`)
)

// linkContext is what the last explicit download line established.
type linkContext struct {
	episode    *Episode
	resolution string
	anchored   bool
}

// streamItem is a download URL left for positional resolution. Anchor
// items carry their decoded episode and resolution.
type streamItem struct {
	url        string
	provider   string
	episode    *Episode
	resolution string
	anchor     bool
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// resolveDownloads walks the download section once.
func (p *parser) resolveDownloads(lines []string) {
	var ctx *linkContext
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		log := p.log.WithFields(logrus.Fields{"section": "download", "line": i + 1})

		switch {
		case bbcodeRe.MatchString(line):
			m := bbcodeRe.FindStringSubmatch(line)
			ctx = p.namedURL(strings.TrimSpace(m[2]), strings.TrimSpace(m[1]), ctx, log)
		case isURL(line):
			ctx = p.bareURL(strings.Fields(line)[0], ctx, log)
		case filenameURLRe.MatchString(line):
			m := filenameURLRe.FindStringSubmatch(line)
			ctx = p.namedURL(strings.TrimSpace(m[1]), m[2], ctx, log)
		default:
			log.Debug("skipping unrecognized download line")
		}
	}
}

// namedURL handles a URL that came with a filename, as in BBCode or
// "filename - URL" lines.
func (p *parser) namedURL(name, rawURL string, ctx *linkContext, log logrus.FieldLogger) *linkContext {
	ep, res, ok := p.header(name)
	if !ok {
		return p.bareURL(rawURL, ctx, log)
	}
	res = p.resolution(res, name, rawURL)
	p.link(ep, rawURL, res)
	return &linkContext{episode: ep, resolution: res}
}

func (p *parser) bareURL(rawURL string, ctx *linkContext, log logrus.FieldLogger) *linkContext {
	provider := DetectHostingProvider(rawURL)

	if ep, res, ok := p.decodeURL(rawURL); ok {
		res = p.resolution(res, rawURL)
		if provider == p.opts.AnchorProvider {
			p.stream = append(p.stream, streamItem{url: rawURL, provider: provider, episode: ep, resolution: res, anchor: true})
			return &linkContext{episode: ep, resolution: res, anchored: true}
		}
		p.link(ep, rawURL, res)
		return &linkContext{episode: ep, resolution: res}
	}

	if p.movie && provider == p.opts.MovieRoundRobinProvider && ExtractResolutionOr(rawURL, "") == "" {
		p.roundRobinMovie(rawURL, provider, ctx, log)
		return ctx
	}

	if ctx != nil && !ctx.anchored && p.opts.InheritContext {
		p.link(ctx.episode, rawURL, ctx.resolution)
		return ctx
	}

	p.stream = append(p.stream, streamItem{url: rawURL, provider: provider})
	return ctx
}

func (p *parser) link(ep *Episode, rawURL, res string) {
	provider := DetectHostingProvider(rawURL)
	if provider == p.opts.AnchorProvider {
		p.anchorURLs = append(p.anchorURLs, rawURL)
	}
	ep.addLink(DownloadLink{Provider: provider, URL: rawURL, Resolution: res})
}

// resolvePositional assigns undated URLs. Anchor URLs first fix each
// episode's resolution order; every later host block then repeats that
// order, the cursor restarting whenever the episode or the host changes.
func (p *parser) resolvePositional() {
	order := make(map[*Episode][]string)
	for _, it := range p.stream {
		if !it.anchor {
			continue
		}
		if !lo.Contains(order[it.episode], it.resolution) {
			order[it.episode] = append(order[it.episode], it.resolution)
		}
		p.link(it.episode, it.url, it.resolution)
	}

	var current *Episode
	var host string
	cursor := 0
	for _, it := range p.stream {
		if it.anchor {
			if it.episode != current {
				current = it.episode
				cursor = 0
			}
			host = it.provider
			continue
		}

		log := p.log.WithFields(logrus.Fields{"section": "download", "url": it.url, "host": it.provider})
		if current == nil {
			if p.model.Len() == 1 {
				p.link(p.model.episodes[0], it.url, p.resolution("", it.url))
				continue
			}
			log.Debug("dropping undated link with no anchor before it")
			continue
		}

		if it.provider != host {
			host = it.provider
			cursor = 0
		}
		resolutions := order[current]
		if cursor >= len(resolutions) {
			log.WithField("episode", current.Key()).Debug("dropping link past the anchor's resolution list")
			continue
		}
		p.link(current, it.url, resolutions[cursor])
		cursor++
	}
}

// backfillSeries names UnknownSeries episodes from the first anchor URL
// following the "[Tag]_Series_Name_E01" convention.
func (p *parser) backfillSeries() {
	unknown := lo.Filter(p.model.episodes, func(e *Episode, _ int) bool {
		return e.SeriesName == UnknownSeries
	})
	if len(unknown) == 0 {
		return
	}

	name, ok := lo.Find(lo.Map(p.anchorURLs, func(u string, _ int) string { return anchorSeriesName(u) }),
		func(n string) bool { return n != "" })
	if !ok {
		p.log.WithField("count", len(unknown)).Debug("no anchor URL names the series")
		return
	}
	for _, e := range unknown {
		e.SeriesName = name
	}
	p.model.reindex()
}

func anchorSeriesName(rawURL string) string {
	m := anchorNameRe.FindStringSubmatch(lastSegment(rawURL))
	if m == nil {
		return ""
	}
	name, _ := normalizeSeries(m[1])
	return name
}
