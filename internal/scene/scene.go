// Package scene assembles resolved placements and a theme into an ordered,
// backend-independent list of drawing primitives.
package scene

import (
	"cmp"
	"slices"

	"timelinegen/internal/layout"
	"timelinegen/internal/textfit"
	"timelinegen/internal/theme"
	"timelinegen/internal/timeline"
)

// Kind is the primitive type. Kinds are drawn back to front in the order of
// Kinds.
type Kind string

const (
	KindLane      Kind = "lane"
	KindAxis      Kind = "axis-line"
	KindTick      Kind = "tick"
	KindConnector Kind = "connector"
	KindBar       Kind = "bar"
	KindMarker    Kind = "marker"
	KindLabel     Kind = "label"
	KindHeading   Kind = "heading"
)

// Kinds lists every kind in paint order.
var Kinds = []Kind{KindLane, KindAxis, KindTick, KindConnector, KindBar, KindMarker, KindLabel, KindHeading}

func (k Kind) layer() int { return slices.Index(Kinds, k) }

// Anchor is the horizontal alignment of a text run.
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
	AnchorEnd    Anchor = "end"
)

// TextRun is a single line of text positioned by its baseline.
type TextRun struct {
	Text   string
	X, Y   float64
	Size   float64
	Family string
	Bold   bool
	Italic bool
	Color  string
	Anchor Anchor
}

// Primitive is one drawable element.
type Primitive struct {
	Kind Kind
	// Milestone is the input index, or -1 for timeline-wide primitives.
	Milestone int
	// Rank is the chronological rank, or -1 for timeline-wide primitives.
	Rank int
	Z    int

	Points []layout.Point
	Rect   layout.Rect
	Shape  theme.Shape

	Fill         string
	Stroke       string
	StrokeWidth  float64
	CornerRadius float64
	Opacity      float64

	// Progress is the filled fraction of a bar; HasProgress marks it set.
	Progress    float64
	HasProgress bool

	Text []TextRun
}

// Timeline reports whether p belongs to the whole timeline rather than one
// milestone.
func (p Primitive) Timeline() bool { return p.Milestone < 0 }

// Scene is the immutable output of one render pass.
type Scene struct {
	Width      float64
	Height     float64
	Background string
	Theme      string
	Style      timeline.Style

	// Milestones is the number of milestones drawn.
	Milestones int
	Primitives []Primitive
}

// Count returns how many primitives have kind k.
func (s *Scene) Count(k Kind) int {
	n := 0
	for _, p := range s.Primitives {
		if p.Kind == k {
			n++
		}
	}
	return n
}

// ByKind returns the primitives of kind k in paint order.
func (s *Scene) ByKind(k Kind) []Primitive {
	var out []Primitive
	for _, p := range s.Primitives {
		if p.Kind == k {
			out = append(out, p)
		}
	}
	return out
}

// Option configures Assemble.
type Option func(*assembler)

// WithMeasurer sets the measurer used to place label baselines. It must be
// the one layout sized the labels with.
func WithMeasurer(m textfit.Measurer) Option {
	return func(a *assembler) {
		if m != nil {
			a.m = m
		}
	}
}

type assembler struct {
	th   theme.Theme
	spec *timeline.Spec
	m    textfit.Measurer
	out  []Primitive
}

// Assemble attaches colors, fonts and text to a resolved layout and returns
// the primitives sorted back to front.
func Assemble(res *layout.Result, th theme.Theme, spec *timeline.Spec, opts ...Option) (*Scene, error) {
	if res == nil || spec == nil {
		return nil, timeline.Errorf(timeline.ErrInvalidTimeline, -1, "nothing to assemble")
	}
	if len(res.Placements) != len(spec.Milestones) {
		return nil, timeline.Errorf(timeline.ErrInvalidTimeline, -1,
			"%d placements for %d milestones", len(res.Placements), len(spec.Milestones))
	}
	a := &assembler{th: th, spec: spec, m: textfit.NewHeuristic()}
	for _, opt := range opts {
		opt(a)
	}

	a.lanes(res.Guides.Lanes)
	a.axis(res.Guides.Axis)
	a.ticks(res.Guides.Ticks)
	for _, pl := range res.Placements {
		a.placement(pl)
	}
	a.heading(res.Guides.Heading)

	slices.SortStableFunc(a.out, func(x, y Primitive) int {
		if c := cmp.Compare(x.Kind.layer(), y.Kind.layer()); c != 0 {
			return c
		}
		return cmp.Compare(x.Z, y.Z)
	})

	return &Scene{
		Width:      res.Width,
		Height:     res.Height,
		Background: th.Colors.Background,
		Theme:      th.Name,
		Style:      res.Style,
		Milestones: len(spec.Milestones),
		Primitives: a.out,
	}, nil
}

func (a *assembler) emit(p Primitive) {
	if p.Opacity == 0 {
		p.Opacity = 1
	}
	a.out = append(a.out, p)
}

func global(k Kind) Primitive {
	return Primitive{Kind: k, Milestone: -1, Rank: -1}
}

func (a *assembler) lanes(lanes []layout.Lane) {
	c := a.th.Colors
	for i, l := range lanes {
		p := global(KindLane)
		p.Z = i
		p.Rect = l.Rect
		p.Points = l.Track
		p.Fill = c.Background
		if i%2 == 0 {
			p.Fill = c.BackgroundAlt
		}
		p.Stroke = c.Border
		p.StrokeWidth = a.th.ConnectorWidth
		if l.Name != "" {
			f := a.th.Fonts.Label
			p.Text = []TextRun{{
				Text:   theme.DisplayName(l.Name),
				X:      l.Rect.X + a.th.Padding/2,
				Y:      l.Rect.Center().Y + f.Size*0.35,
				Size:   f.Size,
				Family: f.Family,
				Bold:   true,
				Color:  c.TextSecondary,
				Anchor: AnchorStart,
			}}
		}
		a.emit(p)
	}
}

func (a *assembler) axis(path []layout.Point) {
	p := global(KindAxis)
	p.Points = path
	p.Stroke = a.th.Colors.Axis
	p.StrokeWidth = a.th.LineWidth
	a.emit(p)
}

// tickLength is the length of a tick stroke in pixels.
const tickLength = 6

func (a *assembler) ticks(ticks []layout.TickMark) {
	f := a.th.Fonts.Date
	for i, t := range ticks {
		p := global(KindTick)
		p.Z = i
		end := t.At.Add(t.Normal.Mul(tickLength))
		p.Points = []layout.Point{t.At, end}
		p.Stroke = a.th.Colors.Axis
		p.StrokeWidth = a.th.ConnectorWidth

		run := TextRun{Text: t.Label, Size: f.Size, Family: f.Family, Color: a.th.Colors.TextSecondary, Anchor: AnchorMiddle}
		switch {
		case t.Normal.X < 0:
			run.Anchor = AnchorEnd
			run.X, run.Y = end.X-2, end.Y+f.Size*0.35
		case t.Normal.X > 0:
			run.Anchor = AnchorStart
			run.X, run.Y = end.X+2, end.Y+f.Size*0.35
		case t.Normal.Y < 0:
			run.X, run.Y = end.X, end.Y-2
		default:
			run.X, run.Y = end.X, end.Y+f.Size
		}
		p.Text = []TextRun{run}
		a.emit(p)
	}
}

// markerColor picks the milestone color, the highlight color or the rank
// accent, in that order.
func (a *assembler) markerColor(pl layout.Placement) string {
	ms := a.spec.Milestones[pl.Milestone]
	switch {
	case ms.Color != "":
		return ms.Color
	case pl.Highlight:
		return a.th.Colors.Highlight
	}
	return a.th.AccentAt(pl.Rank)
}

func (a *assembler) placement(pl layout.Placement) {
	color := a.markerColor(pl)
	base := Primitive{Milestone: pl.Milestone, Rank: pl.Rank, Z: pl.Z}

	if pl.Connector {
		from := pl.Marker.Center()
		dir := pl.Label.Pin.Sub(from).Unit()
		from = from.Add(dir.Mul(pl.Marker.W / 2))
		p := base
		p.Kind = KindConnector
		p.Points = []layout.Point{from, pl.Label.Pin}
		p.Stroke = color
		p.StrokeWidth = a.th.ConnectorWidth
		a.emit(p)
	}

	if pl.Bar != nil {
		p := base
		p.Kind = KindBar
		p.Rect = pl.Bar.Rect
		p.Fill = color
		p.Stroke = color
		p.CornerRadius = min(a.th.CornerRadius, pl.Bar.Rect.H/2)
		if pl.Bar.Progress != nil {
			p.Progress, p.HasProgress = *pl.Bar.Progress, true
		}
		a.emit(p)
	} else {
		p := base
		p.Kind = KindMarker
		p.Rect = pl.Marker
		p.Shape = a.th.Shape
		p.Fill = color
		p.Stroke = a.th.Colors.Background
		p.StrokeWidth = a.th.MarkerBorder
		if pl.Highlight {
			p.Stroke = a.th.Colors.Highlight
			p.StrokeWidth = 2 * a.th.MarkerBorder
		}
		a.emit(p)
	}

	p := base
	p.Kind = KindLabel
	p.Rect = pl.Label.Box
	if pl.Bar == nil {
		p.Fill = a.th.Colors.Background
		p.Stroke = a.th.Colors.Border
		p.StrokeWidth = 1
		p.CornerRadius = a.th.CornerRadius / 2
	}
	p.Text = a.labelText(pl.Label, color)
	a.emit(p)
}

// labelText lays the label lines out top to bottom inside the box.
func (a *assembler) labelText(l layout.Label, accent string) []TextRun {
	box := l.Box
	x, anchor := box.Center().X, AnchorMiddle
	switch l.Mode {
	case layout.PinRight:
		x, anchor = box.X+l.Pad, AnchorStart
	case layout.PinLeft:
		x, anchor = box.Right()-l.Pad, AnchorEnd
	}

	runs := make([]TextRun, 0, len(l.Lines))
	y := box.Y + l.Pad
	for _, tl := range l.Lines {
		lh := a.m.LineHeight(tl.Size)
		f, color := a.fontFor(tl.Role, accent)
		runs = append(runs, TextRun{
			Text:   tl.Text,
			X:      x,
			Y:      y + lh*0.8,
			Size:   tl.Size,
			Family: f.Family,
			Bold:   f.Bold,
			Italic: f.Italic,
			Color:  color,
			Anchor: anchor,
		})
		y += lh
	}
	return runs
}

func (a *assembler) fontFor(r layout.Role, accent string) (theme.Font, string) {
	f, c := a.th.Fonts, a.th.Colors
	switch r {
	case layout.RoleBadge:
		return f.Badge, accent
	case layout.RoleTitle:
		return f.Label, c.Text
	case layout.RoleDate:
		return f.Date, c.TextSecondary
	default:
		return f.Description, c.TextSecondary
	}
}

func (a *assembler) heading(band layout.Rect) {
	if band.H <= 0 {
		return
	}
	p := global(KindHeading)
	p.Rect = band
	f := a.th.Fonts
	y := band.Y
	if a.spec.Title != "" {
		lh := a.m.LineHeight(f.Title.Size)
		p.Text = append(p.Text, TextRun{
			Text: a.spec.Title, X: band.Center().X, Y: y + lh*0.8,
			Size: f.Title.Size, Family: f.Title.Family, Bold: f.Title.Bold, Italic: f.Title.Italic,
			Color: a.th.Colors.Text, Anchor: AnchorMiddle,
		})
		y += lh
	}
	if a.spec.Subtitle != "" {
		lh := a.m.LineHeight(f.Subtitle.Size)
		p.Text = append(p.Text, TextRun{
			Text: a.spec.Subtitle, X: band.Center().X, Y: y + lh*0.8,
			Size: f.Subtitle.Size, Family: f.Subtitle.Family, Bold: f.Subtitle.Bold, Italic: f.Subtitle.Italic,
			Color: a.th.Colors.TextSecondary, Anchor: AnchorMiddle,
		})
	}
	a.emit(p)
}

// Outline returns the polygon of a square, diamond or triangle marker
// fitted to its rect. Circles have no outline and return nil.
func (p Primitive) Outline() []layout.Point {
	c := p.Rect.Center()
	s := min(p.Rect.W, p.Rect.H) / 2
	switch p.Shape {
	case theme.Square:
		return []layout.Point{{X: c.X - s, Y: c.Y - s}, {X: c.X + s, Y: c.Y - s}, {X: c.X + s, Y: c.Y + s}, {X: c.X - s, Y: c.Y + s}}
	case theme.Diamond:
		return []layout.Point{{X: c.X, Y: c.Y - s}, {X: c.X + s, Y: c.Y}, {X: c.X, Y: c.Y + s}, {X: c.X - s, Y: c.Y}}
	case theme.Triangle:
		return []layout.Point{{X: c.X, Y: c.Y - s}, {X: c.X - s, Y: c.Y + s}, {X: c.X + s, Y: c.Y + s}}
	}
	return nil
}
