// Package timeline defines the milestone records and the validated timeline
// description consumed by the layout engine.
//
// Values in this package are created once per render pass by a config loader
// and are treated as immutable afterwards: the engine reads them but never
// writes them back.
package timeline

import (
	"fmt"
	"strings"
	"time"
)

// Scale selects which unit boundaries the time axis labels.
// It never changes how timestamps are normalized onto the axis.
type Scale string

const (
	Hourly    Scale = "hourly"
	Daily     Scale = "daily"
	Weekly    Scale = "weekly"
	Monthly   Scale = "monthly"
	Quarterly Scale = "quarterly"
	Yearly    Scale = "yearly"
)

// Scales lists every supported scale in ascending unit size.
var Scales = []Scale{Hourly, Daily, Weekly, Monthly, Quarterly, Yearly}

// ParseScale returns the Scale named by s (case-insensitive).
func ParseScale(s string) (Scale, error) {
	sc := Scale(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Scales {
		if sc == known {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown scale %q (want one of %v)", s, Scales)
}

// Unit returns the length of one unit of the scale starting at t.
// Months, quarters and years use calendar arithmetic, so the result depends
// on t.
func (s Scale) Unit(t time.Time) time.Duration {
	return s.Add(t, 1).Sub(t)
}

// Add advances t by n units of the scale.
func (s Scale) Add(t time.Time, n int) time.Time {
	switch s {
	case Hourly:
		return t.Add(time.Duration(n) * time.Hour)
	case Daily:
		return t.AddDate(0, 0, n)
	case Weekly:
		return t.AddDate(0, 0, 7*n)
	case Quarterly:
		return t.AddDate(0, 3*n, 0)
	case Yearly:
		return t.AddDate(n, 0, 0)
	default:
		return t.AddDate(0, n, 0)
	}
}

// Floor truncates t to the start of the scale unit containing it.
// Weeks start on Monday.
func (s Scale) Floor(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch s {
	case Hourly:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, loc)
	case Daily:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case Weekly:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case Quarterly:
		q := (int(m)-1)/3*3 + 1
		return time.Date(y, time.Month(q), 1, 0, 0, 0, 0, loc)
	case Yearly:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	}
}

// Style names a visual layout strategy.
type Style string

const (
	Horizontal  Style = "horizontal"
	Vertical    Style = "vertical"
	Gantt       Style = "gantt"
	Roadmap     Style = "roadmap"
	Infographic Style = "infographic"
)

// Styles lists every built-in style.
var Styles = []Style{Horizontal, Vertical, Gantt, Roadmap, Infographic}

// ParseStyle returns the Style named by s (case-insensitive).
func ParseStyle(s string) (Style, error) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Styles {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown style %q (want one of %v)", s, Styles)
}

// Milestone is a single user-declared event.
type Milestone struct {
	Timestamp   time.Time
	Title       string
	Description string
	Badge       string
	Highlight   bool
	Category    string

	// Duration is only meaningful for Gantt-like styles. Zero means the
	// milestone is a point in time.
	Duration time.Duration

	// Progress is a completion fraction in [0,1]; nil when not tracked.
	Progress *float64

	// Color optionally overrides the theme accent for this milestone (#RRGGBB).
	Color string
}

// HasDuration reports whether the milestone spans a time range.
func (m Milestone) HasDuration() bool { return m.Duration > 0 }

// End returns the end of the milestone's time range, or its timestamp when
// it has no duration.
func (m Milestone) End() time.Time { return m.Timestamp.Add(m.Duration) }

// ColorOverrides replaces individual theme colors. Empty fields keep the
// theme value.
type ColorOverrides struct {
	Background string
	Text       string
	Accent     string
	Secondary  string
	Highlight  string
	Axis       string
}

// FontOverrides replaces individual theme font settings. Zero fields keep the
// theme value.
type FontOverrides struct {
	Family      string
	Badge       float64
	Title       float64
	Description float64
}

// Spec is the full, validated input of one render pass.
type Spec struct {
	Title    string
	Subtitle string

	// Milestones keep input order, which is not necessarily chronological.
	Milestones []Milestone

	Scale Scale
	Style Style
	Theme string

	Colors ColorOverrides
	Fonts  FontOverrides

	// MarkerShape overrides the theme's marker outline when set.
	MarkerShape string

	TextWrap         bool
	ShowDates        bool
	ShowDescriptions bool

	// Categories fixes the swimlane order for the roadmap style. Categories
	// seen on milestones but missing here are appended in first-appearance
	// order.
	Categories []string
}

// Validate checks the structural rules the engine relies on.
// The returned error wraps ErrInvalidTimeline or ErrUnsupportedStyle.
func (s *Spec) Validate() error {
	if s == nil || len(s.Milestones) == 0 {
		return Errorf(ErrInvalidTimeline, -1, "at least one milestone is required")
	}
	if _, err := ParseScale(string(s.Scale)); err != nil {
		return Errorf(ErrInvalidTimeline, -1, "%v", err)
	}
	if _, err := ParseStyle(string(s.Style)); err != nil {
		return Errorf(ErrUnsupportedStyle, -1, "%v", err)
	}
	for i, m := range s.Milestones {
		if m.Timestamp.IsZero() {
			return Errorf(ErrInvalidTimeline, i, "milestone %q has no timestamp", m.Title)
		}
		if m.Duration < 0 {
			return Errorf(ErrInvalidTimeline, i, "milestone %q has a negative duration", m.Title)
		}
		if m.Progress != nil && (*m.Progress < 0 || *m.Progress > 1) {
			return Errorf(ErrInvalidTimeline, i, "milestone %q progress %.2f outside [0,1]", m.Title, *m.Progress)
		}
		if s.Style == Gantt && !m.HasDuration() {
			return Errorf(ErrUnsupportedStyle, i, "gantt style requires a duration on milestone %q", m.Title)
		}
	}
	return nil
}
