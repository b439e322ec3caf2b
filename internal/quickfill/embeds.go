package quickfill

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var (
	bbcodeRe     = regexp.MustCompile(`(?i)^\[url=([^\]]+)\](.*?)\[/url\]`)
	dashIframeRe = regexp.MustCompile(`(?i)^(.+?)\s+-\s+(<iframe.*)$`)
)

// embedCandidate waits for the keep-highest reduction.
type embedCandidate struct {
	episode    *Episode
	group      string
	resolution int
	markup     string
}

type candidateKey struct {
	episode *Episode
	group   string
}

// resolveEmbeds walks the embed section once with one line of lookahead.
func (p *parser) resolveEmbeds(lines []string) {
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		log := p.log.WithFields(logrus.Fields{"section": "embed", "line": i + 1})

		switch {
		case bbcodeRe.MatchString(line):
			p.embedBBCode(line, log)
		case hasIframePrefix(line):
			p.embedBare(line, log)
		case isPipeLine(line):
			p.embedPipe(line, log)
		case dashIframeRe.MatchString(line):
			p.embedDash(line, log)
		case strings.HasPrefix(line, "["):
			if i+1 < len(lines) && hasIframePrefix(lines[i+1]) {
				p.embedPaired(line, strings.TrimSpace(lines[i+1]), log)
				i++
				continue
			}
			p.embedHeader(line, log)
		default:
			log.Debug("skipping unrecognized embed line")
		}
	}
}

func (p *parser) embedBBCode(line string, log logrus.FieldLogger) {
	m := bbcodeRe.FindStringSubmatch(line)
	src, label := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	markup := IframeMarkup(src)

	ep, _, ok := p.header(label)
	if !ok {
		ep, _, ok = p.decodeURL(src)
	}
	if !ok {
		log.WithField("label", label).Debug("bbcode label names no episode, queued as standalone")
		p.standalone = append(p.standalone, markup)
		return
	}
	ep.addEmbed(markup)
}

// embedHeader defers a filename with no iframe under it to positional
// assignment.
func (p *parser) embedHeader(line string, log logrus.FieldLogger) {
	ep, _, ok := p.header(line)
	if !ok {
		log.Debug("skipping header that names no episode")
		return
	}
	if !lo.Contains(p.headers, ep) {
		p.headers = append(p.headers, ep)
	}
}

func (p *parser) embedPaired(header, iframe string, log logrus.FieldLogger) {
	ep, _, ok := p.header(header)
	if !ok {
		log.Debug("header names no episode, iframe queued as standalone")
		p.standalone = append(p.standalone, iframe)
		return
	}
	if lo.Contains(p.headers, ep) {
		log.WithField("episode", ep.Key()).Debug("episode already waits for positional embeds, iframe queued as standalone")
		p.standalone = append(p.standalone, iframe)
		return
	}
	ep.addEmbed(iframe)
}

func (p *parser) embedBare(line string, log logrus.FieldLogger) {
	if src := IframeSrc(line); src != "" {
		if ep, res, ok := p.decodeURL(src); ok {
			p.offer(ep, line, src, res)
			return
		}
	}
	log.Debug("iframe source names no episode, queued as standalone")
	p.standalone = append(p.standalone, line)
}

func isPipeLine(line string) bool {
	_, right, found := strings.Cut(line, "|")
	if !found {
		return false
	}
	right = strings.TrimSpace(right)
	return hasIframePrefix(right) || isURL(right)
}

func (p *parser) embedPipe(line string, log logrus.FieldLogger) {
	left, right, _ := strings.Cut(line, "|")
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	if hasIframePrefix(right) {
		p.standalone = append(p.standalone, right)
		return
	}

	markup := IframeMarkup(right)
	if ep, _, ok := p.header(left); ok {
		ep.addEmbed(markup)
		return
	}
	log.Debug("pipe line names no episode, queued as standalone")
	p.standalone = append(p.standalone, markup)
}

func (p *parser) embedDash(line string, log logrus.FieldLogger) {
	m := dashIframeRe.FindStringSubmatch(line)
	ep, res, ok := p.header(m[1])
	if !ok {
		log.Debug("dash line names no episode, queued as standalone")
		p.standalone = append(p.standalone, m[2])
		return
	}
	p.attach(ep, m[2], res)
}

// attach links a dash-line iframe to ep directly, or through keep-highest
// when its provider posts one iframe per resolution.
func (p *parser) attach(ep *Episode, iframe, res string) {
	src := IframeSrc(iframe)
	if !lo.Contains(p.opts.DedupeEmbedHosts, DetectEmbedHostname(iframe)) {
		ep.addEmbed(iframe)
		return
	}
	if res == "" {
		res = ExtractResolutionOr(src, "")
	}
	p.offer(ep, iframe, src, res)
}

func (p *parser) offer(ep *Episode, markup, src, res string) {
	p.candidates = append(p.candidates, embedCandidate{
		episode:    ep,
		group:      embedGroup(src),
		resolution: ResolutionValue(res),
		markup:     markup,
	})
}

// embedGroup is the provider name, or the bare host for unknown
// providers so two unknown hosts stay apart.
func embedGroup(src string) string {
	if name := DetectEmbedHostname(src); name != OtherProvider {
		return name
	}
	if u, err := url.Parse(src); err == nil && u.Host != "" {
		return strings.ToLower(u.Host)
	}
	return OtherProvider
}

func (p *parser) flushCandidates() {
	best := KeepHighest(p.candidates,
		func(c embedCandidate) candidateKey { return candidateKey{c.episode, c.group} },
		func(c embedCandidate) int { return c.resolution },
	)
	for _, c := range best {
		c.episode.addEmbed(c.markup)
	}
}

// assignStandalone places embeds that named no episode: everything goes
// to a sole episode, otherwise round-robin over the deferred headers.
func (p *parser) assignStandalone() {
	if len(p.standalone) == 0 {
		return
	}
	if p.model.Len() == 1 {
		sole := p.model.episodes[0]
		for _, m := range p.standalone {
			sole.addEmbed(m)
		}
		return
	}
	if AssignRoundRobin(p.standalone, p.headers, func(m string, ep *Episode) { ep.addEmbed(m) }) {
		return
	}
	p.log.WithField("count", len(p.standalone)).Debug("dropping standalone embeds with no episode to receive them")
}
