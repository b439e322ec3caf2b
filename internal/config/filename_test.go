package config

import (
	"testing"

	"github.com/Digital-Shane/quickfill/internal/quickfill"
)

func TestResolveFilename(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     FilenameVars
		want     string
		wantErr  bool
	}{
		{
			name:     "DefaultTemplate",
			template: "quickfill_{series}_E{episode}.js",
			vars:     FilenameVars{Series: "My Show", Episode: "07"},
			want:     "quickfill_My Show_E07.js",
		},
		{
			name:     "InvalidCharactersBecomeSpaces",
			template: "{series}: {title}.js",
			vars:     FilenameVars{Series: "A/B", Title: "What?"},
			want:     "A B What .js",
		},
		{
			name:     "EmptyYearDropsBrackets",
			template: "{series} ({year}).js",
			vars:     FilenameVars{Series: "Show"},
			want:     "Show .js",
		},
		{
			name:     "UnknownVariableResolvesEmpty",
			template: "{nope}{series}.js",
			vars:     FilenameVars{Series: "Show"},
			want:     "Show.js",
		},
		{
			name:     "NothingLeft",
			template: "{series}",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveFilename(tt.template, tt.vars)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveFilename() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateTemplate(t *testing.T) {
	if err := ValidateTemplate("quickfill_{series}_S{season}E{episode}_{year}_{title}.js"); err != nil {
		t.Errorf("ValidateTemplate() error = %v, want nil", err)
	}
	if err := ValidateTemplate("{show}.js"); err == nil {
		t.Error("ValidateTemplate({show}) error = nil, want error")
	}
}

func TestVarsFor(t *testing.T) {
	ep := &quickfill.Episode{Number: "3", SeriesName: "Show", Year: "2024", Season: "1"}
	got := VarsFor(ep, "Show Episode 3")
	want := FilenameVars{Series: "Show", Episode: "3", Season: "1", Year: "2024", Title: "Show Episode 3"}
	if got != want {
		t.Errorf("VarsFor() = %+v, want %+v", got, want)
	}
}
