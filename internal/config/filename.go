package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Digital-Shane/quickfill/internal/quickfill"
)

var (
	variablePattern = regexp.MustCompile(`\{([^}]+)\}`)
	emptyBracketsRe = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
)

const invalidFilenameChars = "<>:\"/\\|?*"

// FilenameVars are the values available to the script filename template.
type FilenameVars struct {
	Series  string
	Episode string
	Season  string
	Year    string
	Title   string
}

// VarsFor builds template values for an episode or movie.
func VarsFor(ep *quickfill.Episode, title string) FilenameVars {
	return FilenameVars{
		Series:  ep.SeriesName,
		Episode: ep.Number,
		Season:  ep.Season,
		Year:    ep.Year,
		Title:   title,
	}
}

func (v FilenameVars) lookup(name string) (string, bool) {
	switch name {
	case "series":
		return v.Series, true
	case "episode":
		return v.Episode, true
	case "season":
		return v.Season, true
	case "year":
		return v.Year, true
	case "title":
		return v.Title, true
	default:
		return "", false
	}
}

// ValidateTemplate rejects templates using unknown variables.
func ValidateTemplate(template string) error {
	for _, match := range variablePattern.FindAllStringSubmatch(template, -1) {
		if _, ok := (FilenameVars{}).lookup(match[1]); !ok {
			return fmt.Errorf("unknown variable: {%s}", match[1])
		}
	}
	return nil
}

// ResolveFilename replaces {variables} in template and returns a name safe
// to use as a single path element. Unknown or empty variables resolve to
// nothing.
func ResolveFilename(template string, vars FilenameVars) (string, error) {
	result := variablePattern.ReplaceAllStringFunc(template, func(placeholder string) string {
		value, _ := vars.lookup(placeholder[1 : len(placeholder)-1])
		return value
	})

	result = emptyBracketsRe.ReplaceAllString(result, "")
	return sanitizeFilename(result)
}

func sanitizeFilename(name string) (string, error) {
	var b strings.Builder
	b.Grow(len(name))

	lastSpace := false
	for _, r := range name {
		if r < 32 || r == 127 || strings.ContainsRune(invalidFilenameChars, r) {
			r = ' '
		}
		if r == ' ' {
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}

	result := strings.Trim(b.String(), " -_.")
	if result == "" {
		return "", fmt.Errorf("filename is empty after sanitization")
	}
	return result, nil
}
