// Package theme holds the named color and font palettes a scene is drawn
// with. Themes are looked up by name in a registry built at init; Resolve
// returns a copy with per-timeline overrides applied, so the registry itself
// is never modified.
package theme

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"timelinegen/internal/timeline"
)

// Shape is the outline of a milestone marker.
type Shape string

const (
	Circle   Shape = "circle"
	Square   Shape = "square"
	Diamond  Shape = "diamond"
	Triangle Shape = "triangle"
)

// Shapes lists every marker shape.
var Shapes = []Shape{Circle, Square, Diamond, Triangle}

// ParseShape returns the shape named by s. Unknown names are an error.
func ParseShape(s string) (Shape, error) {
	sh := Shape(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Shapes, sh) {
		return sh, nil
	}
	return "", fmt.Errorf("unknown marker shape %q (want one of %v)", s, Shapes)
}

// Colors is a theme palette. Values are #RRGGBB.
type Colors struct {
	Background    string
	BackgroundAlt string
	Text          string
	TextSecondary string
	Accent        string
	Secondary     string
	Highlight     string
	Axis          string
	Border        string
	// Accents cycle over milestones by chronological rank.
	Accents []string
}

// Font is one text style.
type Font struct {
	Family string
	Size   float64
	Bold   bool
	Italic bool
}

// Fonts groups the text styles of a timeline.
type Fonts struct {
	Title       Font
	Subtitle    Font
	Label       Font
	Badge       Font
	Description Font
	Date        Font
}

// Theme is a complete visual palette.
type Theme struct {
	Name   string
	Colors Colors
	Fonts  Fonts

	Shape          Shape
	MarkerRadius   float64
	MarkerBorder   float64
	LineWidth      float64
	ConnectorWidth float64
	CornerRadius   float64
	Padding        float64
	Margin         float64
	Shadows        bool
}

// DisplayName is the title-cased theme name.
func (t Theme) DisplayName() string { return DisplayName(t.Name) }

// AccentAt returns the accent for index i, cycling through the palette.
func (t Theme) AccentAt(i int) string {
	if len(t.Colors.Accents) == 0 {
		return t.Colors.Accent
	}
	if i < 0 {
		i = -i
	}
	return t.Colors.Accents[i%len(t.Colors.Accents)]
}

// DisplayName title-cases a registry key such as a theme or style name.
func DisplayName(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "-", " "))
}

// Default is the theme used when none is named.
const Default = "minimal"

// registry is built at init and read-only afterwards.
var registry = map[string]Theme{
	"minimal": {
		Name: "minimal",
		Colors: Colors{
			Background: "#FFFFFF", BackgroundAlt: "#FAFAFA",
			Text: "#222222", TextSecondary: "#666666",
			Accent: "#333333", Secondary: "#888888", Highlight: "#F9A825",
			Axis: "#D0D0D0", Border: "#E8E8E8",
			Accents: []string{"#333333", "#555555", "#777777", "#999999", "#BBBBBB", "#444444", "#666666", "#888888"},
		},
		Fonts: Fonts{
			Title:       Font{Family: "Helvetica", Size: 28},
			Subtitle:    Font{Family: "Helvetica", Size: 16},
			Label:       Font{Family: "Helvetica", Size: 13},
			Badge:       Font{Family: "Helvetica", Size: 11, Bold: true},
			Description: Font{Family: "Helvetica", Size: 11},
			Date:        Font{Family: "Helvetica", Size: 10},
		},
		Shape: Circle, MarkerRadius: 6, MarkerBorder: 1.5, LineWidth: 2, ConnectorWidth: 1,
		CornerRadius: 4, Padding: 12, Margin: 20,
	},
	"corporate": {
		Name: "corporate",
		Colors: Colors{
			Background: "#FFFFFF", BackgroundAlt: "#F0F4F8",
			Text: "#1A1A2E", TextSecondary: "#4A5568",
			Accent: "#1E3A5F", Secondary: "#4A90D9", Highlight: "#FFC107",
			Axis: "#A0AEC0", Border: "#CBD5E0",
			Accents: []string{"#1E3A5F", "#4A90D9", "#2E7D32", "#6B21A8", "#0891B2", "#B45309", "#BE185D", "#059669"},
		},
		Fonts: Fonts{
			Title:       Font{Family: "Georgia", Size: 34, Bold: true},
			Subtitle:    Font{Family: "Georgia", Size: 18, Italic: true},
			Label:       Font{Family: "Arial", Size: 14, Bold: true},
			Badge:       Font{Family: "Arial", Size: 12, Bold: true},
			Description: Font{Family: "Arial", Size: 12},
			Date:        Font{Family: "Arial", Size: 11},
		},
		Shape: Square, MarkerRadius: 10, MarkerBorder: 2.5, LineWidth: 4, ConnectorWidth: 2,
		CornerRadius: 6, Padding: 18, Margin: 28, Shadows: true,
	},
	"creative": {
		Name: "creative",
		Colors: Colors{
			Background: "#FFF8E7", BackgroundAlt: "#FFE4B5",
			Text: "#2C3E50", TextSecondary: "#5D6D7E",
			Accent: "#FF6B6B", Secondary: "#4ECDC4", Highlight: "#F39C12",
			Axis: "#AEB6BF", Border: "#D5DBDB",
			Accents: []string{
				"#FF6B6B", "#4ECDC4", "#FFE66D", "#95E1D3", "#F38181", "#AA96DA",
				"#FCBAD3", "#A8D8EA", "#FFB347", "#77DD77", "#FF85A2", "#89CFF0",
			},
		},
		Fonts: Fonts{
			Title:       Font{Family: "Comic Sans MS", Size: 38, Bold: true},
			Subtitle:    Font{Family: "Arial", Size: 18, Italic: true},
			Label:       Font{Family: "Arial", Size: 15, Bold: true},
			Badge:       Font{Family: "Arial", Size: 13, Bold: true},
			Description: Font{Family: "Arial", Size: 13},
			Date:        Font{Family: "Arial", Size: 12, Bold: true},
		},
		Shape: Diamond, MarkerRadius: 14, MarkerBorder: 3, LineWidth: 5, ConnectorWidth: 2.5,
		CornerRadius: 16, Padding: 20, Margin: 30, Shadows: true,
	},
	"dark": {
		Name: "dark",
		Colors: Colors{
			Background: "#0D1117", BackgroundAlt: "#161B22",
			Text: "#E6EDF3", TextSecondary: "#8B949E",
			Accent: "#58A6FF", Secondary: "#F78166", Highlight: "#D29922",
			Axis: "#21262D", Border: "#30363D",
			Accents: []string{
				"#58A6FF", "#F78166", "#3FB950", "#A371F7", "#DB61A2", "#79C0FF",
				"#FFA657", "#7EE787", "#D2A8FF", "#FF7B72", "#56D4DD", "#FFDCD7",
			},
		},
		Fonts: Fonts{
			Title:       Font{Family: "Menlo", Size: 32, Bold: true},
			Subtitle:    Font{Family: "Menlo", Size: 16},
			Label:       Font{Family: "Menlo", Size: 13, Bold: true},
			Badge:       Font{Family: "Menlo", Size: 11, Bold: true},
			Description: Font{Family: "Menlo", Size: 11},
			Date:        Font{Family: "Menlo", Size: 10},
		},
		Shape: Circle, MarkerRadius: 8, MarkerBorder: 2, LineWidth: 3, ConnectorWidth: 1.5,
		CornerRadius: 8, Padding: 16, Margin: 24, Shadows: true,
	},
}

// Names returns the registered theme names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Lookup returns a copy of the named theme. An empty name selects Default.
func Lookup(name string) (Theme, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = Default
	}
	t, ok := registry[key]
	if !ok {
		return Theme{}, fmt.Errorf("unknown theme %q (want one of %v)", name, Names())
	}
	t.Colors.Accents = slices.Clone(t.Colors.Accents)
	return t, nil
}

// Resolve looks up a theme and applies color, font and marker overrides.
func Resolve(name string, colors timeline.ColorOverrides, fonts timeline.FontOverrides, shape string) (Theme, error) {
	t, err := Lookup(name)
	if err != nil {
		return Theme{}, err
	}

	for _, o := range []struct {
		field string
		value string
		dst   []*string
	}{
		{"background", colors.Background, []*string{&t.Colors.Background, &t.Colors.BackgroundAlt}},
		{"text", colors.Text, []*string{&t.Colors.Text}},
		{"accent", colors.Accent, []*string{&t.Colors.Accent}},
		{"secondary", colors.Secondary, []*string{&t.Colors.Secondary}},
		{"highlight", colors.Highlight, []*string{&t.Colors.Highlight}},
		{"axis", colors.Axis, []*string{&t.Colors.Axis, &t.Colors.Border}},
	} {
		if o.value == "" {
			continue
		}
		if !IsHex(o.value) {
			return Theme{}, fmt.Errorf("color override %s: %q is not #RRGGBB", o.field, o.value)
		}
		for _, d := range o.dst {
			*d = strings.ToUpper(o.value)
		}
	}
	if colors.Accent != "" {
		// A single accent replaces the rank cycle.
		t.Colors.Accents = nil
	}

	if fonts.Family != "" {
		for _, f := range []*Font{&t.Fonts.Title, &t.Fonts.Subtitle, &t.Fonts.Label, &t.Fonts.Badge, &t.Fonts.Description, &t.Fonts.Date} {
			f.Family = fonts.Family
		}
	}
	if fonts.Title > 0 {
		t.Fonts.Label.Size = fonts.Title
	}
	if fonts.Badge > 0 {
		t.Fonts.Badge.Size = fonts.Badge
	}
	if fonts.Description > 0 {
		t.Fonts.Description.Size = fonts.Description
		t.Fonts.Date.Size = fonts.Description
	}

	if shape != "" {
		sh, err := ParseShape(shape)
		if err != nil {
			return Theme{}, err
		}
		t.Shape = sh
	}
	return t, nil
}

// IsHex reports whether s is a #RRGGBB color.
func IsHex(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
