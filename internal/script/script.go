// Package script renders a parsed episode into the quickfill script that
// fills the publishing form from the browser console.
package script

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/Digital-Shane/quickfill/internal/quickfill"
	"github.com/samber/lo"
)

// Shortener rewrites a download URL. Implementations must return the
// input unchanged when they fail.
type Shortener interface {
	Shorten(ctx context.Context, url string) string
}

// Options controls rendering.
type Options struct {
	Subbed      string
	TitleSuffix string
	// ShortenHosts lists hosting providers whose links go through
	// Shortener.
	ShortenHosts []string
	Shortener    Shortener
}

// Payload is the data object embedded in the script.
type Payload struct {
	Title         string
	SeriesName    string
	Number        string
	Season        string
	Year          string
	Subbed        string
	TitleSuffix   string
	Embeds        []quickfill.EmbedEntry
	DownloadTitle string
	Resolutions   []ResolutionGroup
}

// ResolutionGroup is one resolution tier and its links.
type ResolutionGroup struct {
	Pixel string
	Links []quickfill.DownloadLink
}

var scriptTmpl = template.Must(template.New("quickfill").Funcs(template.FuncMap{"q": Escape, "comment": commentText}).Parse(scriptSource))

// Title builds "Series [Season N] [Episode N]". Movies carry no episode
// clause.
func Title(ep *quickfill.Episode) string {
	var b strings.Builder
	b.WriteString(ep.SeriesName)
	if ep.Season != "" {
		b.WriteString(" Season ")
		b.WriteString(ep.Season)
	}
	if !ep.IsMovie() && ep.Number != "" {
		b.WriteString(" Episode ")
		b.WriteString(ep.Number)
	}
	return b.String()
}

// Escape makes s safe inside a single quoted JavaScript string literal.
func Escape(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		"\r\n", `\n`,
		"\n", `\n`,
		"\r", `\r`,
	)
	return r.Replace(s)
}

// commentText keeps s on one line and unable to close a block comment.
func commentText(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.ReplaceAll(s, "*/", "* /")
}

// BuildPayload collects what the script needs, shortening links on the
// configured hosts.
func BuildPayload(ctx context.Context, ep *quickfill.Episode, opts Options) Payload {
	p := Payload{
		Title:       Title(ep),
		SeriesName:  ep.SeriesName,
		Number:      ep.Number,
		Season:      ep.Season,
		Year:        ep.Year,
		Subbed:      opts.Subbed,
		TitleSuffix: opts.TitleSuffix,
		Embeds:      ep.Embeds,
	}
	if ep.IsMovie() {
		p.DownloadTitle = ep.SeriesName
	} else {
		p.DownloadTitle = "Episode " + ep.Number
	}

	for _, res := range ep.Resolutions() {
		links := lo.Map(ep.Downloads[res], func(l quickfill.DownloadLink, _ int) quickfill.DownloadLink {
			if opts.Shortener != nil && lo.Contains(opts.ShortenHosts, l.Provider) {
				l.URL = opts.Shortener.Shorten(ctx, l.URL)
			}
			return l
		})
		p.Resolutions = append(p.Resolutions, ResolutionGroup{Pixel: res, Links: links})
	}
	return p
}

// Render produces the complete script for one episode.
func Render(ctx context.Context, ep *quickfill.Episode, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := scriptTmpl.Execute(&buf, BuildPayload(ctx, ep, opts)); err != nil {
		return "", fmt.Errorf("failed to render script for %s: %w", Title(ep), err)
	}
	return buf.String(), nil
}
