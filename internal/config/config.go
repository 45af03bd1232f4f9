// Package config loads timeline documents from YAML, JSON, TOML or CSV and
// turns them into a validated timeline.Spec plus engine settings.
//
// A document always starts from Default(): keys missing from the file keep
// their default values, so a minimal file only needs a list of milestones.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"timelinegen/internal/animation"
	"timelinegen/internal/collision"
	"timelinegen/internal/engine"
	"timelinegen/internal/layout"
	"timelinegen/internal/textfit"
	"timelinegen/internal/theme"
	"timelinegen/internal/timeline"
)

// Milestone is one entry of the milestones list as written in a document.
type Milestone struct {
	Date        string `yaml:"date" json:"date" toml:"date"`
	Title       string `yaml:"title" json:"title" toml:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	Badge       string `yaml:"badge,omitempty" json:"badge,omitempty" toml:"badge,omitempty"`
	Icon        string `yaml:"icon,omitempty" json:"icon,omitempty" toml:"icon,omitempty"` // alias of badge
	Color       string `yaml:"color,omitempty" json:"color,omitempty" toml:"color,omitempty"`
	Highlight   bool   `yaml:"highlight,omitempty" json:"highlight,omitempty" toml:"highlight,omitempty"`
	Category    string `yaml:"category,omitempty" json:"category,omitempty" toml:"category,omitempty"`
	EndDate     string `yaml:"end_date,omitempty" json:"end_date,omitempty" toml:"end_date,omitempty"`
	// Duration accepts Go durations ("36h") and day or week counts ("10d", "2w").
	Duration string `yaml:"duration,omitempty" json:"duration,omitempty" toml:"duration,omitempty"`
	// Progress is a completion percentage in [0,100].
	Progress *float64 `yaml:"progress,omitempty" json:"progress,omitempty" toml:"progress,omitempty"`
}

// Output controls the exported file.
type Output struct {
	Format      string  `yaml:"format" json:"format" toml:"format"`
	Width       int     `yaml:"width" json:"width" toml:"width"`
	Height      int     `yaml:"height" json:"height" toml:"height"`
	FPS         int     `yaml:"fps" json:"fps" toml:"fps"`
	Duration    float64 `yaml:"duration" json:"duration" toml:"duration"` // seconds
	Frames      int     `yaml:"frames,omitempty" json:"frames,omitempty" toml:"frames,omitempty"`
	Transparent bool    `yaml:"transparent" json:"transparent" toml:"transparent"`
	Easing      string  `yaml:"easing" json:"easing" toml:"easing"`
	Fade        bool    `yaml:"fade" json:"fade" toml:"fade"`
	EmptyLeadIn bool    `yaml:"empty_lead_in,omitempty" json:"empty_lead_in,omitempty" toml:"empty_lead_in,omitempty"`
	HoldStart   int     `yaml:"hold_start,omitempty" json:"hold_start,omitempty" toml:"hold_start,omitempty"`
	HoldEnd     int     `yaml:"hold_end,omitempty" json:"hold_end,omitempty" toml:"hold_end,omitempty"`
}

// Colors override individual theme colors (#RRGGBB).
type Colors struct {
	Background string `yaml:"background,omitempty" json:"background,omitempty" toml:"background,omitempty"`
	Text       string `yaml:"text,omitempty" json:"text,omitempty" toml:"text,omitempty"`
	Accent     string `yaml:"accent,omitempty" json:"accent,omitempty" toml:"accent,omitempty"`
	Secondary  string `yaml:"secondary,omitempty" json:"secondary,omitempty" toml:"secondary,omitempty"`
	Highlight  string `yaml:"highlight,omitempty" json:"highlight,omitempty" toml:"highlight,omitempty"`
	Axis       string `yaml:"axis,omitempty" json:"axis,omitempty" toml:"axis,omitempty"`
}

// Fonts override theme font settings. Sizes are in pixels.
type Fonts struct {
	Family      string  `yaml:"family,omitempty" json:"family,omitempty" toml:"family,omitempty"`
	Badge       float64 `yaml:"badge,omitempty" json:"badge,omitempty" toml:"badge,omitempty"`
	Title       float64 `yaml:"title,omitempty" json:"title,omitempty" toml:"title,omitempty"`
	Description float64 `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
}

// Layout tunes the geometry. Zero values keep the engine defaults.
type Layout struct {
	MarkerGap    float64 `yaml:"marker_gap,omitempty" json:"marker_gap,omitempty" toml:"marker_gap,omitempty"`
	LabelGap     float64 `yaml:"label_gap,omitempty" json:"label_gap,omitempty" toml:"label_gap,omitempty"`
	LabelPadding float64 `yaml:"label_padding,omitempty" json:"label_padding,omitempty" toml:"label_padding,omitempty"`
	WrapWidth    float64 `yaml:"wrap_width,omitempty" json:"wrap_width,omitempty" toml:"wrap_width,omitempty"`
	MaxTicks     int     `yaml:"max_ticks,omitempty" json:"max_ticks,omitempty" toml:"max_ticks,omitempty"`
	DateFormat   string  `yaml:"date_format,omitempty" json:"date_format,omitempty" toml:"date_format,omitempty"`
	LabelColumn  float64 `yaml:"label_column,omitempty" json:"label_column,omitempty" toml:"label_column,omitempty"`
	Columns      int     `yaml:"columns,omitempty" json:"columns,omitempty" toml:"columns,omitempty"`
	// Measurer selects text measurement: heuristic, shaping or face.
	Measurer string `yaml:"measurer,omitempty" json:"measurer,omitempty" toml:"measurer,omitempty"`
}

// Collision configures label collision resolution.
type Collision struct {
	Step            float64  `yaml:"step,omitempty" json:"step,omitempty" toml:"step,omitempty"`
	IterationFactor int      `yaml:"iteration_factor,omitempty" json:"iteration_factor,omitempty" toml:"iteration_factor,omitempty"`
	MaxIterations   int      `yaml:"max_iterations,omitempty" json:"max_iterations,omitempty" toml:"max_iterations,omitempty"`
	Padding         float64  `yaml:"padding,omitempty" json:"padding,omitempty" toml:"padding,omitempty"`
	Fallbacks       []string `yaml:"fallbacks,omitempty" json:"fallbacks,omitempty" toml:"fallbacks,omitempty"`
	TruncateWrapped bool     `yaml:"truncate_wrapped,omitempty" json:"truncate_wrapped,omitempty" toml:"truncate_wrapped,omitempty"`
}

// Columns maps CSV headers to milestone fields. Header matching is
// case-insensitive.
type Columns struct {
	Timestamp   string `yaml:"timestamp" json:"timestamp" toml:"timestamp"`
	Title       string `yaml:"title" json:"title" toml:"title"`
	Description string `yaml:"description" json:"description" toml:"description"`
	Category    string `yaml:"category" json:"category" toml:"category"`
	EndDate     string `yaml:"end_date" json:"end_date" toml:"end_date"`
	Progress    string `yaml:"progress" json:"progress" toml:"progress"`
	Badge       string `yaml:"badge" json:"badge" toml:"badge"`
	Highlight   string `yaml:"highlight" json:"highlight" toml:"highlight"`
}

// Document is the complete on-disk timeline description.
type Document struct {
	Title    string `yaml:"title" json:"title" toml:"title"`
	Subtitle string `yaml:"subtitle,omitempty" json:"subtitle,omitempty" toml:"subtitle,omitempty"`
	Scale    string `yaml:"scale" json:"scale" toml:"scale"`
	Style    string `yaml:"style" json:"style" toml:"style"`
	Theme    string `yaml:"theme" json:"theme" toml:"theme"`

	Milestones []Milestone `yaml:"milestones" json:"milestones" toml:"milestones"`

	Output      Output    `yaml:"output" json:"output" toml:"output"`
	Colors      Colors    `yaml:"colors,omitempty" json:"colors,omitempty" toml:"colors,omitempty"`
	Fonts       Fonts     `yaml:"fonts,omitempty" json:"fonts,omitempty" toml:"fonts,omitempty"`
	Layout      Layout    `yaml:"layout,omitempty" json:"layout,omitempty" toml:"layout,omitempty"`
	Collision   Collision `yaml:"collision,omitempty" json:"collision,omitempty" toml:"collision,omitempty"`
	Columns     Columns   `yaml:"columns,omitempty" json:"columns,omitempty" toml:"columns,omitempty"`
	MarkerShape string    `yaml:"marker_shape,omitempty" json:"marker_shape,omitempty" toml:"marker_shape,omitempty"`

	ShowTitle        bool `yaml:"show_title" json:"show_title" toml:"show_title"`
	ShowDates        bool `yaml:"show_dates" json:"show_dates" toml:"show_dates"`
	ShowDescriptions bool `yaml:"show_descriptions" json:"show_descriptions" toml:"show_descriptions"`
	TextWrap         bool `yaml:"text_wrap" json:"text_wrap" toml:"text_wrap"`

	Categories []string `yaml:"categories,omitempty" json:"categories,omitempty" toml:"categories,omitempty"`
}

// Formats lists the output formats the CLI can export.
var Formats = []string{"svg", "png", "gif"}

// Default returns the document every load starts from.
func Default() Document {
	return Document{
		Title: "Timeline",
		Scale: string(timeline.Monthly),
		Style: string(timeline.Horizontal),
		Theme: theme.Default,
		Output: Output{
			Format:   "png",
			Width:    1920,
			Height:   1080,
			FPS:      30,
			Duration: 5,
			Easing:   string(animation.EaseInOut),
		},
		Columns: Columns{
			Timestamp:   "timestamp",
			Title:       "title",
			Description: "description",
			Category:    "category",
			EndDate:     "end_date",
			Progress:    "progress",
			Badge:       "badge",
			Highlight:   "highlight",
		},
		ShowTitle:        true,
		ShowDates:        true,
		ShowDescriptions: true,
		TextWrap:         true,
	}
}

// Load reads the document at path. The file extension picks the decoder;
// unknown extensions are tried as YAML, then JSON, then TOML.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("error reading config file: %w", err)
	}
	doc, err := Parse(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		return Document{}, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes data in the given format ("yaml", "yml", "json", "toml",
// "csv"). Any other format is detected by trying each decoder in turn.
func Parse(data []byte, format string) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, errors.New("empty document")
	}
	doc := Default()
	var err error
	switch format {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &doc)
	case "json":
		err = json.Unmarshal(data, &doc)
	case "toml":
		err = toml.Unmarshal(data, &doc)
	case "csv":
		err = doc.ReadCSV(bytes.NewReader(data))
	default:
		return detect(data)
	}
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func detect(data []byte) (Document, error) {
	var errs []error
	for _, format := range []string{"yaml", "json", "toml"} {
		doc, err := Parse(data, format)
		if err == nil {
			return doc, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", format, err))
	}
	return Document{}, fmt.Errorf("unrecognized document format: %w", errors.Join(errs...))
}

// Output size limits in pixels. MaxCanvas also bounds raster output after
// resolution scaling.
const (
	MinCanvas = 100
	MaxCanvas = 8000
)

// Validate checks the output settings.
func (d *Document) Validate() error {
	o := d.Output
	switch {
	case !validFormat(o.Format):
		return fmt.Errorf("output format %q not one of %v", o.Format, Formats)
	case o.Width < MinCanvas || o.Width > MaxCanvas || o.Height < MinCanvas || o.Height > MaxCanvas:
		return fmt.Errorf("output size %dx%d outside %d..%d", o.Width, o.Height, MinCanvas, MaxCanvas)
	case o.FPS < 1 || o.FPS > 120:
		return fmt.Errorf("output fps %d outside 1..120", o.FPS)
	case o.Frames == 0 && (o.Duration < 0.5 || o.Duration > 60):
		return fmt.Errorf("output duration %gs outside 0.5..60", o.Duration)
	case o.Frames < 0:
		return fmt.Errorf("output frames %d is negative", o.Frames)
	}
	return nil
}

// CheckResolution validates a raster resolution multiplier against the
// output size.
func (d *Document) CheckResolution(res float64) error {
	if !(res > 0) {
		return fmt.Errorf("resolution %g must be positive", res)
	}
	w, h := float64(d.Output.Width)*res, float64(d.Output.Height)*res
	if w > MaxCanvas || h > MaxCanvas {
		return fmt.Errorf("output size %.0fx%.0f at resolution %g exceeds %d", w, h, res, MaxCanvas)
	}
	return nil
}

func validFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Spec converts the document into a validated timeline spec.
// Milestone errors wrap timeline.ErrInvalidTimeline and name the index.
func (d *Document) Spec() (*timeline.Spec, error) {
	scale, err := timeline.ParseScale(d.Scale)
	if err != nil {
		return nil, timeline.Errorf(timeline.ErrInvalidTimeline, -1, "%v", err)
	}
	style, err := timeline.ParseStyle(d.Style)
	if err != nil {
		return nil, timeline.Errorf(timeline.ErrUnsupportedStyle, -1, "%v", err)
	}

	spec := &timeline.Spec{
		Scale:            scale,
		Style:            style,
		Theme:            d.Theme,
		MarkerShape:      d.MarkerShape,
		TextWrap:         d.TextWrap,
		ShowDates:        d.ShowDates,
		ShowDescriptions: d.ShowDescriptions,
		Categories:       d.Categories,
		Colors: timeline.ColorOverrides{
			Background: d.Colors.Background,
			Text:       d.Colors.Text,
			Accent:     d.Colors.Accent,
			Secondary:  d.Colors.Secondary,
			Highlight:  d.Colors.Highlight,
			Axis:       d.Colors.Axis,
		},
		Fonts: timeline.FontOverrides{
			Family:      d.Fonts.Family,
			Badge:       d.Fonts.Badge,
			Title:       d.Fonts.Title,
			Description: d.Fonts.Description,
		},
	}
	if d.ShowTitle {
		spec.Title, spec.Subtitle = d.Title, d.Subtitle
	}
	for i, m := range d.Milestones {
		ms, err := m.milestone()
		if err != nil {
			return nil, timeline.Errorf(timeline.ErrInvalidTimeline, i, "milestone %d: %v", i+1, err)
		}
		spec.Milestones = append(spec.Milestones, ms)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func (m Milestone) milestone() (timeline.Milestone, error) {
	title := strings.TrimSpace(m.Title)
	if title == "" {
		return timeline.Milestone{}, errors.New("title is required")
	}
	start, err := ParseDate(m.Date)
	if err != nil {
		return timeline.Milestone{}, err
	}
	ms := timeline.Milestone{
		Timestamp:   start,
		Title:       title,
		Description: strings.TrimSpace(m.Description),
		Badge:       m.Badge,
		Highlight:   m.Highlight,
		Category:    strings.TrimSpace(m.Category),
	}
	if ms.Badge == "" {
		ms.Badge = m.Icon
	}
	if m.Color != "" {
		if !theme.IsHex(m.Color) {
			return timeline.Milestone{}, fmt.Errorf("color %q is not #RRGGBB", m.Color)
		}
		ms.Color = strings.ToUpper(m.Color)
	}

	switch {
	case m.EndDate != "":
		end, err := ParseDate(m.EndDate)
		if err != nil {
			return timeline.Milestone{}, fmt.Errorf("end_date: %w", err)
		}
		if end.Before(start) {
			return timeline.Milestone{}, errors.New("end_date must be after date")
		}
		ms.Duration = end.Sub(start)
	case m.Duration != "":
		if ms.Duration, err = ParseDuration(m.Duration); err != nil {
			return timeline.Milestone{}, err
		}
	}

	if m.Progress != nil {
		p := *m.Progress
		if p < 0 || p > 100 {
			return timeline.Milestone{}, fmt.Errorf("progress %g outside 0..100", p)
		}
		p /= 100
		ms.Progress = &p
	}
	return ms, nil
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01",
}

// ParseDate parses s with the first matching layout. Times without a zone
// are UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("date is required")
	}
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, err)
}

// ParseDuration accepts Go duration strings plus whole day ("10d") and week
// ("2w") counts.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for suffix, unit := range map[string]time.Duration{"d": 24 * time.Hour, "w": 7 * 24 * time.Hour} {
		if n, ok := strings.CutSuffix(s, suffix); ok {
			v, err := strconv.ParseFloat(n, 64)
			if err != nil || v < 0 {
				return 0, fmt.Errorf("invalid duration %q", s)
			}
			return time.Duration(v * float64(unit)), nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// ParseQuick parses "DATE:TITLE" entries for the quick command. The date is
// everything before the last colon that leaves a parseable date, so
// "2024-01-02 15:04:Deploy" works too.
func ParseQuick(entries []string) ([]Milestone, error) {
	var out []Milestone
	var errs []error
	for i, s := range entries {
		m, err := parseQuick(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("milestone %d: %w", i+1, err))
			continue
		}
		out = append(out, m)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to parse milestones: %w", errors.Join(errs...))
	}
	return out, nil
}

func parseQuick(s string) (Milestone, error) {
	if !strings.Contains(s, ":") {
		return Milestone{}, fmt.Errorf("invalid format %q, expected DATE:TITLE", s)
	}
	for i := strings.LastIndex(s, ":"); i > 0; i = strings.LastIndex(s[:i], ":") {
		date, title := strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
		if _, err := ParseDate(date); err == nil && title != "" {
			return Milestone{Date: date, Title: title}, nil
		}
	}
	return Milestone{}, fmt.Errorf("invalid format %q, expected DATE:TITLE", s)
}

// Params applies the layout section to the engine defaults.
func (d *Document) Params() (layout.Params, error) {
	p := layout.DefaultParams()
	p.Width, p.Height = float64(d.Output.Width), float64(d.Output.Height)
	l := d.Layout
	setPositive(&p.MarkerGap, l.MarkerGap)
	setPositive(&p.LabelGap, l.LabelGap)
	setPositive(&p.LabelPadding, l.LabelPadding)
	setPositive(&p.WrapWidth, l.WrapWidth)
	setPositive(&p.LabelColumn, l.LabelColumn)
	if l.MaxTicks > 0 {
		p.MaxTicks = l.MaxTicks
	}
	if l.Columns > 0 {
		p.Columns = l.Columns
	}
	if l.DateFormat != "" {
		p.DateLayout = l.DateFormat
	}
	m, err := textfit.ByName(l.Measurer)
	if err != nil {
		return layout.Params{}, err
	}
	p.Measurer = m
	return p, nil
}

func setPositive(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

// Policy returns the collision policy. Zero fields keep the defaults.
func (d *Document) Policy() (collision.Policy, error) {
	c := d.Collision
	p := collision.DefaultPolicy()
	setPositive(&p.Step, c.Step)
	setPositive(&p.Padding, c.Padding)
	if c.IterationFactor > 0 {
		p.IterationFactor = c.IterationFactor
	}
	p.MaxIterations = c.MaxIterations
	p.TruncateWrapped = c.TruncateWrapped
	if c.Fallbacks != nil {
		p.Fallbacks = []collision.Fallback{}
		for _, s := range c.Fallbacks {
			fb, err := collision.ParseFallback(s)
			if err != nil {
				return collision.Policy{}, err
			}
			p.Fallbacks = append(p.Fallbacks, fb)
		}
	}
	return p, nil
}

// EngineOptions bundles Params and Policy as engine options.
func (d *Document) EngineOptions() ([]engine.Option, error) {
	params, err := d.Params()
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	policy, err := d.Policy()
	if err != nil {
		return nil, fmt.Errorf("collision: %w", err)
	}
	return []engine.Option{
		engine.WithParams(params),
		engine.WithMeasurer(params.Measurer),
		engine.WithPolicy(policy),
	}, nil
}

// Animation returns the frame count and options for animated output.
func (d *Document) Animation() (int, animation.Options, error) {
	o := d.Output
	easing, err := animation.ParseEasing(o.Easing)
	if err != nil {
		return 0, animation.Options{}, timeline.Errorf(timeline.ErrInvalidAnimation, -1, "%v", err)
	}
	opts := animation.Options{
		Easing:      easing,
		Fade:        o.Fade,
		EmptyLeadIn: o.EmptyLeadIn,
		HoldStart:   o.HoldStart,
		HoldEnd:     o.HoldEnd,
	}
	if o.Frames > 0 {
		return o.Frames, opts, nil
	}
	n, err := animation.FrameCount(float64(o.FPS), o.Duration)
	if err != nil {
		return 0, animation.Options{}, err
	}
	return n, opts, nil
}

// Example returns a small document used by the init command.
func Example() Document {
	doc := Default()
	doc.Title = "Product Launch"
	doc.Subtitle = "2024 plan"
	doc.Theme = "corporate"
	doc.Output.Format = "svg"
	doc.Milestones = []Milestone{
		{Date: "2024-01-15", Title: "Kickoff", Description: "Team assembled and scope agreed"},
		{Date: "2024-03-01", Title: "Alpha", Description: "First internal build", Category: "Engineering"},
		{Date: "2024-05-20", Title: "Beta", Description: "Public preview", Category: "Engineering", Badge: "v0.9"},
		{Date: "2024-07-01", Title: "Launch", Description: "General availability", Highlight: true, Category: "Marketing"},
	}
	return doc
}

// Marshal encodes d as yaml, json or toml.
func (d Document) Marshal(format string) ([]byte, error) {
	switch format {
	case "", "yaml", "yml":
		return yaml.Marshal(d)
	case "json":
		return json.MarshalIndent(d, "", "  ")
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(d); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("cannot encode documents as %q", format)
}
