package quickfill

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	// MovieNumber is the episode number every movie entry carries.
	MovieNumber = "HD"
	// UnknownSeries names episodes whose series could not be recovered.
	UnknownSeries = "Unknown"
)

var keyPunctRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// DownloadLink is one recovered download URL.
type DownloadLink struct {
	Provider   string `json:"hosting"`
	URL        string `json:"url"`
	Resolution string `json:"resolution"`
}

// EmbedEntry is one streaming player for an episode.
type EmbedEntry struct {
	Hostname string `json:"hostname"`
	Markup   string `json:"embed"`
}

// Episode holds everything recovered for one episode or, with Number set
// to MovieNumber, one movie.
type Episode struct {
	Number     string                    `json:"episodeNumber"`
	SeriesName string                    `json:"seriesName"`
	Year       string                    `json:"year,omitempty"`
	Season     string                    `json:"season,omitempty"`
	Embeds     []EmbedEntry              `json:"embeds"`
	Downloads  map[string][]DownloadLink `json:"downloads"`

	rawEmbeds []string
}

func newEpisode(series, number, year, season string) *Episode {
	return &Episode{
		Number:     number,
		SeriesName: series,
		Year:       year,
		Season:     season,
		Downloads:  map[string][]DownloadLink{},
	}
}

// IsMovie reports whether the entry is a movie pseudo-episode.
func (e *Episode) IsMovie() bool {
	return e.Number == MovieNumber
}

// Key is the identity of the entry inside its model.
func (e *Episode) Key() string {
	if e.IsMovie() {
		return MovieKey(e.SeriesName)
	}
	return EpisodeKey(e.SeriesName, e.Number)
}

// Resolutions lists the download resolutions, numerically ascending.
func (e *Episode) Resolutions() []string {
	res := lo.Keys(e.Downloads)
	SortResolutions(res)
	return res
}

// LinkCount is the number of download links across all resolutions.
func (e *Episode) LinkCount() int {
	n := 0
	for _, links := range e.Downloads {
		n += len(links)
	}
	return n
}

func (e *Episode) addEmbed(markup string) {
	if lo.Contains(e.rawEmbeds, markup) {
		return
	}
	e.rawEmbeds = append(e.rawEmbeds, markup)
}

func (e *Episode) addLink(link DownloadLink) {
	existing := e.Downloads[link.Resolution]
	if lo.ContainsBy(existing, func(l DownloadLink) bool { return l.URL == link.URL }) {
		return
	}
	e.Downloads[link.Resolution] = append(existing, link)
}

func (e *Episode) fill(year, season string) {
	if e.Year == "" {
		e.Year = year
	}
	if e.Season == "" {
		e.Season = season
	}
}

// absorb merges other into e, keeping e's values where both are set.
func (e *Episode) absorb(other *Episode) {
	e.fill(other.Year, other.Season)
	for _, m := range other.rawEmbeds {
		e.addEmbed(m)
	}
	for _, res := range lo.Keys(other.Downloads) {
		for _, l := range other.Downloads[res] {
			e.addLink(l)
		}
	}
}

// finishEmbeds orders raw embeds by provider priority and labels them.
func (e *Episode) finishEmbeds() {
	type ranked struct {
		provider string
		markup   string
	}
	items := lo.Map(e.rawEmbeds, func(m string, _ int) ranked {
		return ranked{provider: DetectEmbedHostname(m), markup: m}
	})
	sort.SliceStable(items, func(i, j int) bool {
		return EmbedPriority(items[i].provider) < EmbedPriority(items[j].provider)
	})

	e.Embeds = make([]EmbedEntry, 0, len(items))
	server := 0
	for _, it := range items {
		label := it.provider
		if label == OtherProvider {
			server++
			label = "Server " + strconv.Itoa(server)
		}
		e.Embeds = append(e.Embeds, EmbedEntry{Hostname: label, Markup: it.markup})
	}
}

// normalizeKey lowercases s and folds punctuation runs to single spaces.
func normalizeKey(s string) string {
	return strings.TrimSpace(keyPunctRe.ReplaceAllString(strings.ToLower(s), " "))
}

// EpisodeKey is the composite series and episode identity. Leading zeros
// in the episode number do not matter.
func EpisodeKey(series, number string) string {
	return normalizeKey(series) + "#" + trimNumber(number)
}

// MovieKey is the normalized movie title, e.g. "movie title".
func MovieKey(title string) string {
	return normalizeKey(title)
}

// Model is the result of one parse: episodes in discovery order, indexed
// by key.
type Model struct {
	movie    bool
	episodes []*Episode
	index    map[string]*Episode
}

func newModel(movie bool) *Model {
	return &Model{movie: movie, index: map[string]*Episode{}}
}

// IsMovie reports whether the movie pipeline produced the model.
func (m *Model) IsMovie() bool { return m.movie }

// Len is the number of entries.
func (m *Model) Len() int { return len(m.episodes) }

// Episodes returns the entries in discovery order.
func (m *Model) Episodes() []*Episode {
	return append([]*Episode(nil), m.episodes...)
}

// Keys returns entry keys in discovery order.
func (m *Model) Keys() []string {
	return lo.Map(m.episodes, func(e *Episode, _ int) string { return e.Key() })
}

// Get looks an entry up by key.
func (m *Model) Get(key string) (*Episode, bool) {
	e, ok := m.index[key]
	return e, ok
}

// Sorted returns the entries ordered by series name, then season, then
// episode number.
func (m *Model) Sorted() []*Episode {
	out := m.Episodes()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ka, kb := normalizeKey(a.SeriesName), normalizeKey(b.SeriesName); ka != kb {
			return ka < kb
		}
		if sa, sb := ResolutionValue(a.Season), ResolutionValue(b.Season); sa != sb {
			return sa < sb
		}
		return ResolutionValue(a.Number) < ResolutionValue(b.Number)
	})
	return out
}

// OverrideSeries renames every episode of a series model. Movie models
// are left alone since their key is the title.
func (m *Model) OverrideSeries(name string) {
	name = strings.TrimSpace(name)
	if m.movie || name == "" {
		return
	}
	m.Apply(func(e *Episode) { e.SeriesName = name })
}

// Apply runs fn on every entry, then merges entries whose keys collide.
func (m *Model) Apply(fn func(e *Episode)) {
	for _, e := range m.episodes {
		fn(e)
	}
	m.reindex()
	for _, e := range m.episodes {
		e.finishEmbeds()
	}
}

func (m *Model) add(e *Episode) {
	m.episodes = append(m.episodes, e)
	m.index[e.Key()] = e
}

func (m *Model) byNumber(number string) []*Episode {
	n := trimNumber(number)
	return lo.Filter(m.episodes, func(e *Episode, _ int) bool {
		return trimNumber(e.Number) == n
	})
}

// reindex rebuilds the index after renames, merging entries whose keys
// now collide into the first one seen.
func (m *Model) reindex() {
	index := make(map[string]*Episode, len(m.episodes))
	kept := m.episodes[:0]
	for _, e := range m.episodes {
		if first, ok := index[e.Key()]; ok {
			first.absorb(e)
			continue
		}
		index[e.Key()] = e
		kept = append(kept, e)
	}
	m.episodes = kept
	m.index = index
}
