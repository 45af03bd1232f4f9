// Package layout turns axis positions into concrete marker and label
// geometry for each timeline style.
//
// A Strategy produces one Placement per milestone plus the Guides shared by
// the whole timeline (axis path, ticks, swimlanes). Placements leave this
// package unresolved: label boxes may still overlap and are handed to the
// collision resolver before scene assembly.
package layout

import (
	"slices"
	"strings"
	"time"

	"timelinegen/internal/axis"
	"timelinegen/internal/textfit"
	"timelinegen/internal/timeline"
)

// Params are the geometric knobs shared by every strategy.
type Params struct {
	Width  float64
	Height float64
	Margin float64

	MarkerSize   float64 // marker half-size
	MarkerGap    float64 // minimum clear space between marker boxes
	LabelGap     float64 // distance from the marker edge to the label pin
	LabelPadding float64
	WrapWidth    float64
	MaxTicks     int

	BadgeSize       float64
	TitleSize       float64
	DateSize        float64
	DescriptionSize float64
	HeadingSize     float64
	SubtitleSize    float64
	TickSize        float64

	DateLayout string

	// Gantt.
	LabelColumn float64
	RowMin      float64
	RowMax      float64
	MinBarWidth float64

	// Roadmap.
	LaneColumn float64

	// Infographic.
	Columns int

	Measurer textfit.Measurer
}

// DefaultParams returns parameters for a 1200x600 canvas.
func DefaultParams() Params {
	return Params{
		Width:           1200,
		Height:          600,
		Margin:          40,
		MarkerSize:      8,
		MarkerGap:       2,
		LabelGap:        24,
		LabelPadding:    4,
		WrapWidth:       160,
		MaxTicks:        12,
		BadgeSize:       12,
		TitleSize:       14,
		DateSize:        11,
		DescriptionSize: 11,
		HeadingSize:     24,
		SubtitleSize:    14,
		TickSize:        10,
		DateLayout:      "Jan 2, 2006",
		LabelColumn:     150,
		RowMin:          30,
		RowMax:          50,
		MinBarWidth:     4,
		LaneColumn:      110,
		Columns:         3,
		Measurer:        textfit.NewHeuristic(),
	}
}

// Input is everything a strategy reads.
type Input struct {
	Spec      *timeline.Spec
	Axis      *axis.Axis
	Positions []axis.Position
	Params    Params
}

// Bar is the duration bar of a Gantt task.
type Bar struct {
	Rect     Rect
	Progress *float64
}

// Placement is the geometry of one milestone.
type Placement struct {
	Milestone int // input index
	Rank      int
	Lane      int
	Highlight bool

	// Anchor is where the milestone touches its axis or track.
	Anchor Point
	Marker Rect
	Label  Label
	Bar    *Bar

	// Connector draws a leader line from the marker to the label pin.
	Connector bool

	// Shift is the unit direction the resolver may move the label in. The
	// zero vector pins the label.
	Shift Point

	Z int
}

// Lane is a background band: a Gantt row or a roadmap swimlane.
type Lane struct {
	Name  string
	Rect  Rect
	Track []Point
}

// TickMark is a labelled axis tick. Normal points from the axis towards the
// tick text.
type TickMark struct {
	At     Point
	Normal Point
	Label  string
}

// Guides are the per-timeline primitives.
type Guides struct {
	Axis    []Point
	Ticks   []TickMark
	Lanes   []Lane
	Heading Rect
	Content Rect
}

// Result is a strategy's output.
type Result struct {
	Style  timeline.Style
	Width  float64
	Height float64

	// Placements are indexed by milestone input index.
	Placements []Placement
	Guides     Guides

	// Bounds is the region labels must stay inside.
	Bounds Rect
}

// Strategy lays out one style.
type Strategy interface {
	Style() timeline.Style
	// Description is a one-line summary for style listings.
	Description() string
	Layout(in Input) (*Result, error)
}

// strategies is built at init and read-only afterwards.
var strategies = map[timeline.Style]Strategy{
	timeline.Horizontal:  horizontal{},
	timeline.Vertical:    vertical{},
	timeline.Gantt:       gantt{},
	timeline.Roadmap:     roadmap{},
	timeline.Infographic: infographic{},
}

// Lookup returns the strategy for style.
func Lookup(style timeline.Style) (Strategy, error) {
	s, ok := strategies[style]
	if !ok {
		return nil, timeline.Errorf(timeline.ErrUnsupportedStyle, -1, "no layout strategy for style %q", style)
	}
	return s, nil
}

// Styles returns the registered styles sorted by name.
func Styles() []timeline.Style {
	out := make([]timeline.Style, 0, len(strategies))
	for s := range strategies {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Run looks up the strategy for the Spec's style and applies it.
func Run(in Input) (*Result, error) {
	s, err := Lookup(in.Spec.Style)
	if err != nil {
		return nil, err
	}
	return s.Layout(in)
}

// begin validates the input and frames the canvas: heading band, content
// area and label bounds.
func (in Input) begin(style timeline.Style) (*Result, error) {
	p := in.Params
	if in.Spec == nil || in.Axis == nil {
		return nil, timeline.Errorf(timeline.ErrInvalidTimeline, -1, "layout needs a spec and an axis")
	}
	if len(in.Positions) != len(in.Spec.Milestones) {
		return nil, timeline.Errorf(timeline.ErrInvalidTimeline, -1,
			"%d axis positions for %d milestones", len(in.Positions), len(in.Spec.Milestones))
	}
	if p.Width <= 2*p.Margin || p.Height <= 2*p.Margin {
		return nil, timeline.Errorf(timeline.ErrInvalidTimeline, -1,
			"canvas %gx%g leaves no room inside %g margins", p.Width, p.Height, p.Margin)
	}
	m := in.measurer()

	res := &Result{
		Style:      style,
		Width:      p.Width,
		Height:     p.Height,
		Placements: make([]Placement, len(in.Spec.Milestones)),
	}

	top := p.Margin
	var band float64
	if in.Spec.Title != "" {
		band += m.LineHeight(p.HeadingSize)
	}
	if in.Spec.Subtitle != "" {
		band += m.LineHeight(p.SubtitleSize)
	}
	if band > 0 {
		res.Guides.Heading = Rect{p.Margin, p.Margin / 2, p.Width - 2*p.Margin, band}
		top = res.Guides.Heading.Bottom() + p.Margin/2
	}
	h := p.Height - top - p.Margin
	if h <= 0 {
		return nil, timeline.Errorf(timeline.ErrInvalidTimeline, -1, "canvas height %g leaves no room below the heading", p.Height)
	}
	res.Guides.Content = Rect{p.Margin, top, p.Width - 2*p.Margin, h}

	labelTop := res.Guides.Heading.Bottom()
	res.Bounds = Rect{0, labelTop, p.Width, p.Height - labelTop}
	return res, nil
}

// measurer returns the configured measurer or the heuristic.
func (in Input) measurer() textfit.Measurer {
	if in.Params.Measurer == nil {
		return textfit.NewHeuristic()
	}
	return in.Params.Measurer
}

// byRank returns input indices in chronological order.
func (in Input) byRank() []int {
	order := make([]int, len(in.Positions))
	for _, pos := range in.Positions {
		order[pos.Rank] = pos.Index
	}
	return order
}

// DateText formats a milestone date for its label.
func DateText(t time.Time, scale timeline.Scale, layout string) string {
	if scale == timeline.Hourly {
		return t.Format("Jan 2 15:04")
	}
	if layout == "" {
		layout = "Jan 2, 2006"
	}
	return t.Format(layout)
}

// labelLines builds the text block for a milestone: optional badge, title,
// date and description. Text is word-wrapped to wrapWidth when TextWrap is
// set; the flag reports whether any field actually broke onto more lines.
func (in Input) labelLines(ms timeline.Milestone, wrapWidth float64) ([]TextLine, bool) {
	p := in.Params
	m := in.measurer()
	wrap := in.Spec.TextWrap && wrapWidth > 0

	var lines []TextLine
	wrapped := false
	add := func(text string, role Role, size float64) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		if !wrap {
			lines = append(lines, TextLine{Text: text, Role: role, Size: size})
			return
		}
		split := textfit.Wrap(m, text, size, wrapWidth)
		wrapped = wrapped || len(split) > 1
		for _, l := range split {
			lines = append(lines, TextLine{Text: l, Role: role, Size: size})
		}
	}

	add(ms.Badge, RoleBadge, p.BadgeSize)
	add(ms.Title, RoleTitle, p.TitleSize)
	if in.Spec.ShowDates {
		lines = append(lines, TextLine{
			Text: DateText(ms.Timestamp, in.Spec.Scale, p.DateLayout),
			Role: RoleDate,
			Size: p.DateSize,
		})
	}
	if in.Spec.ShowDescriptions {
		add(ms.Description, RoleDescription, p.DescriptionSize)
	}
	return lines, wrapped
}

// newPlacement fills the fields every strategy shares.
func (in Input) newPlacement(idx int, anchor Point, r float64) Placement {
	ms := in.Spec.Milestones[idx]
	rank := in.Positions[idx].Rank
	z := rank
	if ms.Highlight {
		z += len(in.Positions)
	}
	return Placement{
		Milestone: idx,
		Rank:      rank,
		Highlight: ms.Highlight,
		Anchor:    anchor,
		Marker:    Square(anchor, r),
		Z:         z,
	}
}

// newLabel builds and fits a label, then slides it along the axis
// perpendicular to shift so that it starts inside bounds.
func (in Input) newLabel(lines []TextLine, wrapped bool, pin Point, mode PinMode, shift Point, bounds Rect) Label {
	m := in.measurer()
	l := Label{Pin: pin, Mode: mode, Pad: in.Params.LabelPadding, Lines: lines, Wrapped: wrapped}
	l.Fit(m)

	var d Point
	if shift.X == 0 {
		d.X = slide(l.Box.X, l.Box.Right(), bounds.X, bounds.Right())
	}
	if shift.Y == 0 {
		d.Y = slide(l.Box.Y, l.Box.Bottom(), bounds.Y, bounds.Bottom())
	}
	if !d.IsZero() {
		l.Move(d, m)
	}
	return l
}

// slide returns the offset that moves [lo,hi] inside [from,to]. A span
// wider than the range is aligned to from.
func slide(lo, hi, from, to float64) float64 {
	switch {
	case lo < from:
		return from - lo
	case hi > to:
		return max(to-hi, from-lo)
	}
	return 0
}

// sweep spreads ideal coordinates (given in rank order) so consecutive
// values are at least gap apart while staying inside [lo,hi]. Order is
// never changed; when the range is too short the gap shrinks. It returns
// the coordinates and the gap actually used.
func sweep(ideal []float64, lo, hi, gap float64) ([]float64, float64) {
	n := len(ideal)
	out := make([]float64, n)
	if n == 0 {
		return out, gap
	}
	if n > 1 && gap*float64(n-1) > hi-lo {
		gap = (hi - lo) / float64(n-1)
	}
	for i, v := range ideal {
		v = clamp(v, lo, hi)
		if i > 0 && v < out[i-1]+gap {
			v = out[i-1] + gap
		}
		out[i] = v
	}
	if out[n-1] > hi {
		out[n-1] = hi
		for i := n - 2; i >= 0; i-- {
			if out[i] > out[i+1]-gap {
				out[i] = out[i+1] - gap
			}
		}
	}
	return out, gap
}

// sweepMarkers runs sweep with the marker spacing of p and returns the
// marker half-size that keeps boxes apart at the resulting spacing.
func (p Params) sweepMarkers(ideal []float64, lo, hi float64) ([]float64, float64) {
	want := 2*p.MarkerSize + p.MarkerGap
	xs, gap := sweep(ideal, lo, hi, want)
	r := p.MarkerSize
	if len(xs) > 1 && gap < want {
		r = gap * 0.4
	}
	return xs, r
}

// ticks projects the axis ticks onto the segment from a to b.
func (in Input) ticks(a, b, normal Point) []TickMark {
	var out []TickMark
	for _, t := range in.Axis.Ticks(in.Params.MaxTicks) {
		out = append(out, TickMark{At: a.Lerp(b, t.Value), Normal: normal, Label: t.Label})
	}
	return out
}
