package quickfill

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultResolution is the resolution assumed when a line carries no
// resolution token.
const DefaultResolution = "720p"

// Pattern compilation for pasted episode and movie text
var (
	// Episode filename cascade, tried in order
	yearEpisodeRe   = regexp.MustCompile(`^\s*\[[^\]]*\]\s*(.+?)\s*\((\d{4})\)\s*[Ee](\d+)`)
	seasonEpisodeRe = regexp.MustCompile(`(?i)^\s*(?:\[[^\]]*\][\s._]*)?(.+?)[\s._-]+S(\d{1,3})E(\d{1,4})`)
	episodeOnlyRe   = regexp.MustCompile(`(?i)^\s*(?:\[[^\]]*\][\s._]*)?(.+?)[\s._-]+E(\d{1,4})(?:[^0-9]|$)`)

	// Movie filename variants: dots, spaces, underscores
	movieDotRe        = regexp.MustCompile(`(?i)^\s*(?:\[[^\]]*\][\s._]*)?(.+?)\.\(?(\d{4})\)?\.(\d{3,4}p)`)
	movieSpaceRe      = regexp.MustCompile(`(?i)^\s*(?:\[[^\]]*\][\s._]*)?(.+?)\s+\(?(\d{4})\)?\s+(\d{3,4}p)`)
	movieUnderscoreRe = regexp.MustCompile(`(?i)^\s*(?:\[[^\]]*\][\s._]*)?(.+?)_\(?(\d{4})\)?_(\d{3,4}p)`)

	resolutionRe   = regexp.MustCompile(`(?i)\d{3,4}p`)
	trailingYearRe = regexp.MustCompile(`(?:\s+|\()\(?(\d{4})\)?$`)
	bracketTagRe   = regexp.MustCompile(`^\[[^\]]*\][-_.\s]*`)
	separatorsRe   = regexp.MustCompile(`[._]+`)
	spacesRe       = regexp.MustCompile(`\s+`)

	// URL path tokens
	urlSeasonEpisodeRe = regexp.MustCompile(`(?i)(?:^|[-_.\s])s(\d{1,3})e(\d{1,4})(?:[-_.\s]|$)`)
	urlEpisodeRe       = regexp.MustCompile(`(?i)(?:^|[-_.\s])e(\d{1,4})(?:[-_.\s]|$)`)
	urlResolutionRe    = regexp.MustCompile(`(?i)(?:^|[-_.\s])(\d{3,4}p)(?:[-_.\s]|$)`)
	leadingResRe       = regexp.MustCompile(`(?i)^\d{3,4}p[-_.\s]*`)
	slugSeparatorsRe   = regexp.MustCompile(`[-_.]+`)

	iframeSrcRe = regexp.MustCompile(`(?i)src\s*=\s*["']?([^"'\s>]+)`)
)

// EpisodeInfo is what a series filename yields.
type EpisodeInfo struct {
	SeriesName string
	Year       string
	Episode    string
	Season     string
}

// MovieInfo is what a movie filename yields.
type MovieInfo struct {
	Title      string
	Year       string
	Resolution string
}

// URLInfo is what the last path segment of a hosting URL yields.
type URLInfo struct {
	SeriesName string
	Year       string
	Episode    string
	Season     string
	Resolution string
}

// firstMatch evaluates matchers in order and returns the first hit.
func firstMatch[T any](s string, matchers []func(string) (T, bool)) (T, bool) {
	for _, m := range matchers {
		if v, ok := m(s); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

var episodeMatchers = []func(string) (EpisodeInfo, bool){
	matchYearEpisode,
	matchSeasonEpisode,
	matchEpisodeOnly,
}

// ParseEpisodeFilename extracts series, year, season and episode from a
// pasted filename such as "[Tag] My Show (2024) E007".
func ParseEpisodeFilename(name string) (EpisodeInfo, bool) {
	return firstMatch(strings.TrimSpace(name), episodeMatchers)
}

func matchYearEpisode(s string) (EpisodeInfo, bool) {
	m := yearEpisodeRe.FindStringSubmatch(s)
	if m == nil {
		return EpisodeInfo{}, false
	}
	series, _ := normalizeSeries(m[1])
	if series == "" {
		return EpisodeInfo{}, false
	}
	return EpisodeInfo{SeriesName: series, Year: m[2], Episode: m[3]}, true
}

func matchSeasonEpisode(s string) (EpisodeInfo, bool) {
	m := seasonEpisodeRe.FindStringSubmatch(s)
	if m == nil {
		return EpisodeInfo{}, false
	}
	series, year := normalizeSeries(m[1])
	if series == "" {
		return EpisodeInfo{}, false
	}
	return EpisodeInfo{SeriesName: series, Year: year, Season: trimNumber(m[2]), Episode: m[3]}, true
}

func matchEpisodeOnly(s string) (EpisodeInfo, bool) {
	m := episodeOnlyRe.FindStringSubmatch(s)
	if m == nil {
		return EpisodeInfo{}, false
	}
	series, year := normalizeSeries(m[1])
	if series == "" {
		return EpisodeInfo{}, false
	}
	return EpisodeInfo{SeriesName: series, Year: year, Episode: m[2]}, true
}

// normalizeSeries turns dots and underscores into spaces and splits off a
// trailing four digit year.
func normalizeSeries(raw string) (name, year string) {
	name = cleanTitle(raw)
	if m := trailingYearRe.FindStringSubmatchIndex(name); m != nil && m[0] > 0 {
		year = name[m[2]:m[3]]
		name = strings.TrimRight(name[:m[0]], " -")
	}
	return name, year
}

func trimNumber(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return strconv.Itoa(n)
}

var movieMatchers = []func(string) (MovieInfo, bool){
	movieVariant(movieDotRe),
	movieVariant(movieSpaceRe),
	movieVariant(movieUnderscoreRe),
}

// ParseMovieFilename extracts title, year and resolution from names like
// "[Tag] My.Movie.2023.1080p.mp4".
func ParseMovieFilename(name string) (MovieInfo, bool) {
	return firstMatch(strings.TrimSpace(name), movieMatchers)
}

func movieVariant(re *regexp.Regexp) func(string) (MovieInfo, bool) {
	return func(s string) (MovieInfo, bool) {
		m := re.FindStringSubmatch(s)
		if m == nil {
			return MovieInfo{}, false
		}
		title := cleanTitle(m[1])
		if title == "" {
			return MovieInfo{}, false
		}
		return MovieInfo{Title: title, Year: m[2], Resolution: strings.ToLower(m[3])}, true
	}
}

// cleanTitle turns dots and underscores into single spaces.
func cleanTitle(raw string) string {
	title := separatorsRe.ReplaceAllString(raw, " ")
	title = strings.TrimSpace(spacesRe.ReplaceAllString(title, " "))
	return strings.TrimRight(title, " -")
}

// ExtractResolution returns the first NNNp token in text, or
// DefaultResolution when there is none.
func ExtractResolution(text string) string {
	return ExtractResolutionOr(text, DefaultResolution)
}

// ExtractResolutionOr is ExtractResolution with a caller supplied default.
// An empty default means "no guess".
func ExtractResolutionOr(text, def string) string {
	if res := resolutionRe.FindString(text); res != "" {
		return res
	}
	return def
}

// ResolutionValue returns the leading integer of a resolution label, 0 when
// the label has none.
func ResolutionValue(label string) int {
	end := 0
	for end < len(label) && label[end] >= '0' && label[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(label[:end])
	if err != nil {
		return 0
	}
	return n
}

// SortResolutions orders labels numerically ascending.
func SortResolutions(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		vi, vj := ResolutionValue(labels[i]), ResolutionValue(labels[j])
		if vi != vj {
			return vi < vj
		}
		return labels[i] < labels[j]
	})
}

type hostRule struct {
	name    string
	needles []string
}

// Ordered hosting table, first hit wins.
var hostingProviders = []hostRule{
	{"Terabox", []string{"terabox"}},
	{"Mirrored", []string{"mirrored", "mir.cr"}},
	{"Upfiles", []string{"upfiles"}},
	{"BuzzHeavier", []string{"buzzheavier"}},
	{"Gofile", []string{"gofile"}},
	{"FileMoon", []string{"filemoon", "bysetayico"}},
	{"VidHide", []string{"vidhide"}},
	{"Krakenfiles", []string{"krakenfiles"}},
	{"VikingFile", []string{"vikingfile"}},
	{"Veev", []string{"veev"}},
	{"DoodStream", []string{"doodstream", "dood."}},
	{"Streamtape", []string{"streamtape"}},
	{"Shortlink", []string{"ouo.io", "ouo.press", "short.icu"}},
}

// OtherProvider labels anything the tables do not know.
const OtherProvider = "Other"

// DetectHostingProvider maps a download URL to a canonical provider name.
func DetectHostingProvider(rawURL string) string {
	return matchHost(strings.ToLower(rawURL), hostingProviders)
}

func matchHost(lower string, rules []hostRule) string {
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(lower, n) {
				return r.name
			}
		}
	}
	return OtherProvider
}

// Embed domains, lower index wins when embeds are ordered.
var embedProviders = []hostRule{
	{"Abyss", []string{"short.icu", "abysscdn", "abyss.to"}},
	{"FileMoon", []string{"filemoon", "bysetayico"}},
	{"VidHide", []string{"vidhide"}},
	{"Streamtape", []string{"streamtape"}},
	{"DoodStream", []string{"doodstream", "dood."}},
	{"Veev", []string{"veev"}},
	{"VikingFile", []string{"vikingfile"}},
	{"Terabox", []string{"terabox"}},
	{"Krakenfiles", []string{"krakenfiles"}},
	{"Gofile", []string{"gofile"}},
}

// DetectEmbedHostname maps iframe markup (or a bare src) to a canonical
// embed provider name.
func DetectEmbedHostname(markup string) string {
	src := IframeSrc(markup)
	if src == "" {
		src = markup
	}
	return matchHost(strings.ToLower(src), embedProviders)
}

// EmbedPriority is the position of label in the embed table. Unknown
// labels sort last.
func EmbedPriority(label string) int {
	for i, r := range embedProviders {
		if r.name == label {
			return i
		}
	}
	return len(embedProviders)
}

// IframeSrc returns the src attribute of the first iframe in markup.
func IframeSrc(markup string) string {
	if !strings.Contains(strings.ToLower(markup), "<iframe") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err == nil {
		if src, ok := doc.Find("iframe").First().Attr("src"); ok && strings.TrimSpace(src) != "" {
			return strings.TrimSpace(src)
		}
	}
	// truncated markup the HTML parser gives up on
	if m := iframeSrcRe.FindStringSubmatch(markup); m != nil {
		return m[1]
	}
	return ""
}

// IframeMarkup wraps a bare player URL in the canonical iframe tag.
func IframeMarkup(src string) string {
	return `<iframe src="` + src + `" width="100%" height="100%" frameborder="0" allowfullscreen></iframe>`
}

// ParseURLPath decodes episode, season, resolution and series name from
// the last path segment of a URL. It reports false when the segment has
// no episode token.
func ParseURLPath(rawURL string) (URLInfo, bool) {
	seg := lastSegment(rawURL)
	if seg == "" {
		return URLInfo{}, false
	}

	var info URLInfo
	var start int
	if m := urlSeasonEpisodeRe.FindStringSubmatchIndex(seg); m != nil {
		start = m[0]
		info.Season = trimNumber(seg[m[2]:m[3]])
		info.Episode = seg[m[4]:m[5]]
	} else if m := urlEpisodeRe.FindStringSubmatchIndex(seg); m != nil {
		start = m[0]
		info.Episode = seg[m[2]:m[3]]
	} else {
		return URLInfo{}, false
	}

	if m := urlResolutionRe.FindStringSubmatch(seg); m != nil {
		info.Resolution = strings.ToLower(m[1])
	}
	// A bare token such as "e1" is more likely a host's file id than an
	// episode number.
	if strings.Trim(seg[:start], "-_. ") == "" && info.Resolution == "" {
		return URLInfo{}, false
	}
	info.SeriesName, info.Year = seriesFromSlug(seg[:start])
	return info, true
}

func lastSegment(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else {
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
		if i := strings.Index(p, "://"); i >= 0 {
			p = p[i+3:]
			if j := strings.Index(p, "/"); j >= 0 {
				p = p[j:]
			} else {
				p = ""
			}
		}
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// seriesFromSlug turns "720p-my-show" or "[Tag]_My_Show_(2025)" into a
// display name and year.
func seriesFromSlug(prefix string) (string, string) {
	s := leadingResRe.ReplaceAllString(prefix, "")
	s = bracketTagRe.ReplaceAllString(s, "")
	s = slugSeparatorsRe.ReplaceAllString(s, " ")
	name, year := normalizeSeries(s)
	if name != "" && name == strings.ToLower(name) {
		name = cases.Title(language.Und).String(name)
	}
	return name, year
}
