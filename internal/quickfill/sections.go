package quickfill

import "strings"

// SplitKind records how the download section was found.
type SplitKind int

const (
	// SplitNone means the whole input is embed text.
	SplitNone SplitKind = iota
	// SplitMarker means a "Download Link" line separated the sections.
	SplitMarker
	// SplitHostURL means the first anchor-style hosting URL started the
	// download section.
	SplitHostURL
)

const downloadMarker = "download link"

// Sections is raw input cut into its embed and download parts.
type Sections struct {
	Embed    []string
	Download []string
	Kind     SplitKind
}

// splitLines breaks text into lines, accepting CRLF input.
func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// SplitSections separates embed lines from download lines. An explicit
// marker line always wins over sniffing for a hosting URL.
func SplitSections(text string) Sections {
	lines := splitLines(text)

	for i, line := range lines {
		if strings.EqualFold(strings.TrimSpace(line), downloadMarker) {
			return Sections{Embed: lines[:i], Download: lines[i+1:], Kind: SplitMarker}
		}
	}

	for i, line := range lines {
		if isHostingStart(line) {
			return Sections{Embed: lines[:i], Download: lines[i:], Kind: SplitHostURL}
		}
	}

	return Sections{Embed: lines, Kind: SplitNone}
}

func isHostingStart(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	if !strings.HasPrefix(lower, "http") {
		return false
	}
	return strings.Contains(lower, "mirrored") || strings.Contains(lower, "terabox")
}
