package layout

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"timelinegen/internal/axis"
	"timelinegen/internal/timeline"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// input builds a layout input for spec on a canvas of the given size.
func input(t *testing.T, spec *timeline.Spec, w, h float64) Input {
	t.Helper()
	if err := spec.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	a, pos, err := axis.MapToAxis(spec.Milestones, spec.Scale)
	if err != nil {
		t.Fatalf("MapToAxis() = %v", err)
	}
	p := DefaultParams()
	p.Width, p.Height = w, h
	return Input{Spec: spec, Axis: a, Positions: pos, Params: p}
}

func sampleSpec(style timeline.Style, n int) *timeline.Spec {
	spec := &timeline.Spec{
		Title:            "Product roadmap",
		Scale:            timeline.Monthly,
		Style:            style,
		ShowDates:        true,
		ShowDescriptions: true,
		TextWrap:         true,
	}
	cats := []string{"Engineering", "", "Design"}
	for i := 0; i < n; i++ {
		spec.Milestones = append(spec.Milestones, timeline.Milestone{
			Timestamp:   day(2024, time.Month(1+(i*5)%12), 1+i),
			Title:       fmt.Sprintf("Milestone %d", i),
			Description: "Short description of the work",
			Category:    cats[i%len(cats)],
			Duration:    time.Duration(20+i) * 24 * time.Hour,
			Highlight:   i == 2,
		})
	}
	return spec
}

func TestStrategiesOnePlacementPerMilestone(t *testing.T) {
	for _, style := range timeline.Styles {
		t.Run(string(style), func(t *testing.T) {
			spec := sampleSpec(style, 7)
			res, err := Run(input(t, spec, 1200, 600))
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if res.Style != style {
				t.Errorf("Style = %q", res.Style)
			}
			if len(res.Placements) != len(spec.Milestones) {
				t.Fatalf("got %d placements, want %d", len(res.Placements), len(spec.Milestones))
			}
			for i, pl := range res.Placements {
				if pl.Milestone != i {
					t.Errorf("placement %d has Milestone %d", i, pl.Milestone)
				}
				if len(pl.Label.Lines) == 0 {
					t.Errorf("placement %d has an empty label", i)
				}
				if (style == timeline.Gantt) != (pl.Bar != nil) {
					t.Errorf("placement %d: Bar = %v for style %s", i, pl.Bar, style)
				}
			}
			for i := range res.Placements {
				for j := i + 1; j < len(res.Placements); j++ {
					if res.Placements[i].Marker.Intersects(res.Placements[j].Marker) {
						t.Errorf("markers %d and %d intersect: %+v %+v", i, j,
							res.Placements[i].Marker, res.Placements[j].Marker)
					}
				}
			}
			if len(res.Guides.Axis) < 2 {
				t.Errorf("axis path has %d points", len(res.Guides.Axis))
			}
		})
	}
}

func TestMarkersKeepReadingOrder(t *testing.T) {
	spec := &timeline.Spec{Scale: timeline.Daily, Style: timeline.Horizontal}
	for i := 0; i < 5; i++ {
		spec.Milestones = append(spec.Milestones, timeline.Milestone{
			Timestamp: day(2024, 6, 15),
			Title:     fmt.Sprintf("Same day %d", i),
		})
	}
	res, err := Run(input(t, spec, 240, 160))
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(res.Placements); i++ {
		prev, cur := res.Placements[i-1], res.Placements[i]
		if cur.Anchor.X <= prev.Anchor.X {
			t.Errorf("marker %d at x=%v not right of marker %d at x=%v", i, cur.Anchor.X, i-1, prev.Anchor.X)
		}
		if cur.Marker.Intersects(prev.Marker) {
			t.Errorf("markers %d and %d intersect", i-1, i)
		}
	}
}

func TestSweep(t *testing.T) {
	tests := []struct {
		name    string
		ideal   []float64
		lo, hi  float64
		gap     float64
		want    []float64
		wantGap float64
	}{
		{"spread", []float64{0, 50, 100}, 0, 100, 10, []float64{0, 50, 100}, 10},
		{"push right", []float64{0, 0, 0}, 0, 100, 10, []float64{0, 10, 20}, 10},
		{"push back", []float64{100, 100, 100}, 0, 100, 10, []float64{80, 90, 100}, 10},
		{"shrink", []float64{5, 5, 5, 5, 5}, 0, 20, 10, []float64{0, 5, 10, 15, 20}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, gap := sweep(tt.ideal, tt.lo, tt.hi, tt.gap)
			if gap != tt.wantGap {
				t.Errorf("gap = %v, want %v", gap, tt.wantGap)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sweep() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestGanttOverlappingTasksGetOrderedLanes(t *testing.T) {
	week := 7 * 24 * time.Hour
	spec := &timeline.Spec{
		Scale: timeline.Weekly,
		Style: timeline.Gantt,
		Milestones: []timeline.Milestone{
			{Timestamp: day(2024, 3, 4), Title: "Build", Duration: 3 * week},
			{Timestamp: day(2024, 3, 1), Title: "Design", Duration: 2 * week},
			{Timestamp: day(2024, 3, 4), Title: "Docs", Duration: 4 * week},
		},
	}
	res, err := Run(input(t, spec, 800, 400))
	if err != nil {
		t.Fatal(err)
	}
	wantLane := []int{1, 0, 2}
	for i, pl := range res.Placements {
		if pl.Lane != wantLane[i] {
			t.Errorf("%s: lane %d, want %d", spec.Milestones[i].Title, pl.Lane, wantLane[i])
		}
	}
	for i := range res.Placements {
		for j := range res.Placements {
			a, b := res.Placements[i], res.Placements[j]
			if i == j {
				continue
			}
			if a.Bar.Rect.Intersects(b.Bar.Rect) {
				t.Errorf("bars %d and %d overlap", i, j)
			}
			if a.Label.Box.Intersects(b.Label.Box) {
				t.Errorf("labels %d and %d overlap", i, j)
			}
			if a.Lane < b.Lane && a.Bar.Rect.Y >= b.Bar.Rect.Y {
				t.Errorf("lane %d drawn below lane %d", a.Lane, b.Lane)
			}
		}
	}
	if len(res.Guides.Lanes) != 3 {
		t.Errorf("got %d lane guides, want 3", len(res.Guides.Lanes))
	}
}

func TestGanttProgressAndRequiredDuration(t *testing.T) {
	half := 0.5
	spec := &timeline.Spec{
		Scale: timeline.Monthly,
		Style: timeline.Gantt,
		Milestones: []timeline.Milestone{
			{Timestamp: day(2024, 1, 1), Title: "A", Duration: 30 * 24 * time.Hour, Progress: &half},
		},
	}
	res, err := Run(input(t, spec, 800, 400))
	if err != nil {
		t.Fatal(err)
	}
	if p := res.Placements[0].Bar.Progress; p == nil || *p != 0.5 {
		t.Errorf("Progress = %v, want 0.5", p)
	}

	spec.Milestones = append(spec.Milestones, timeline.Milestone{Timestamp: day(2024, 2, 1), Title: "point"})
	a, pos, _ := axis.MapToAxis(spec.Milestones, spec.Scale)
	_, err = gantt{}.Layout(Input{Spec: spec, Axis: a, Positions: pos, Params: DefaultParams()})
	if !errors.Is(err, timeline.ErrUnsupportedStyle) {
		t.Fatalf("error = %v, want ErrUnsupportedStyle", err)
	}
}

func TestGanttGrowsCanvasForManyRows(t *testing.T) {
	spec := sampleSpec(timeline.Gantt, 30)
	spec.Title = ""
	res, err := Run(input(t, spec, 800, 300))
	if err != nil {
		t.Fatal(err)
	}
	if res.Height <= 300 {
		t.Errorf("Height = %v, want growth past 300", res.Height)
	}
	for i, pl := range res.Placements {
		if !pl.Label.Box.Within(res.Bounds) {
			t.Errorf("label %d outside bounds: %+v", i, pl.Label.Box)
		}
	}
}

func TestLanes(t *testing.T) {
	spec := &timeline.Spec{
		Categories: []string{"Ops"},
		Milestones: []timeline.Milestone{
			{Category: "Eng"}, {}, {Category: "Ops"}, {Category: "Design"}, {Category: "Eng"},
		},
	}
	got := Lanes(spec)
	want := []string{"Ops", "Eng", "Design", DefaultLane}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Lanes() = %v, want %v", got, want)
	}
}

func TestRoadmapPlacesMarkersOnTheirLaneTrack(t *testing.T) {
	spec := sampleSpec(timeline.Roadmap, 6)
	res, err := Run(input(t, spec, 1200, 600))
	if err != nil {
		t.Fatal(err)
	}
	names := Lanes(spec)
	for i, pl := range res.Placements {
		lane := res.Guides.Lanes[pl.Lane]
		if lane.Name != names[pl.Lane] {
			t.Errorf("lane %d name %q, want %q", pl.Lane, lane.Name, names[pl.Lane])
		}
		if pl.Anchor.Y != lane.Track[0].Y {
			t.Errorf("milestone %d not on its lane track", i)
		}
		if want := laneOf(spec.Milestones[i]); lane.Name != want {
			t.Errorf("milestone %d in lane %q, want %q", i, lane.Name, want)
		}
	}
}

func TestLabelsAlternateSides(t *testing.T) {
	spec := sampleSpec(timeline.Horizontal, 4)
	res, err := Run(input(t, spec, 1200, 600))
	if err != nil {
		t.Fatal(err)
	}
	axisY := res.Guides.Axis[0].Y
	for i, pl := range res.Placements {
		above := pl.Label.Box.Bottom() <= axisY
		if above != (i%2 == 0) {
			t.Errorf("label %d above=%v", i, above)
		}
		if pl.Shift.X != 0 || pl.Shift.Y == 0 {
			t.Errorf("label %d shift %+v, want vertical", i, pl.Shift)
		}
	}

	spec.Style = timeline.Vertical
	res, err = Run(input(t, spec, 800, 800))
	if err != nil {
		t.Fatal(err)
	}
	axisX := res.Guides.Axis[0].X
	for i, pl := range res.Placements {
		right := pl.Label.Box.X >= axisX
		if right != (i%2 == 0) {
			t.Errorf("vertical label %d right=%v", i, right)
		}
	}
}

func TestLabelWrappedOnlyWhenSplit(t *testing.T) {
	spec := &timeline.Spec{
		Scale:    timeline.Monthly,
		Style:    timeline.Horizontal,
		TextWrap: true,
		Milestones: []timeline.Milestone{
			{Timestamp: day(2024, 1, 1), Title: "Launch"},
			{Timestamp: day(2024, 6, 1), Title: "A considerably longer milestone title that cannot fit on one line"},
		},
	}
	res, err := Run(input(t, spec, 1200, 600))
	if err != nil {
		t.Fatal(err)
	}
	short, long := res.Placements[0].Label, res.Placements[1].Label
	if short.Wrapped || len(short.Lines) != 1 {
		t.Errorf("short label wrapped=%v lines=%d, want unwrapped single line", short.Wrapped, len(short.Lines))
	}
	if !long.Wrapped || len(long.Lines) < 2 {
		t.Errorf("long label wrapped=%v lines=%d, want wrapped", long.Wrapped, len(long.Lines))
	}

	spec.TextWrap = false
	if res, err = Run(input(t, spec, 1200, 600)); err != nil {
		t.Fatal(err)
	}
	if res.Placements[1].Label.Wrapped {
		t.Error("label wrapped with TextWrap off")
	}
}

func TestInfographicRadialShift(t *testing.T) {
	spec := sampleSpec(timeline.Infographic, 5)
	res, err := Run(input(t, spec, 900, 700))
	if err != nil {
		t.Fatal(err)
	}
	for i, pl := range res.Placements {
		if l := pl.Shift.Len(); l < 0.999 || l > 1.001 {
			t.Errorf("placement %d shift %+v is not a unit vector", i, pl.Shift)
		}
		if pl.Shift.Y <= 0 {
			t.Errorf("placement %d shift %+v does not point away from the marker", i, pl.Shift)
		}
	}
}

func TestLookup(t *testing.T) {
	if got := Styles(); len(got) != len(timeline.Styles) {
		t.Errorf("Styles() = %v", got)
	}
	for _, style := range timeline.Styles {
		s, err := Lookup(style)
		if err != nil {
			t.Fatalf("Lookup(%q) = %v", style, err)
		}
		if s.Style() != style {
			t.Errorf("Lookup(%q).Style() = %q", style, s.Style())
		}
		if s.Description() == "" {
			t.Errorf("Lookup(%q) has no description", style)
		}
	}
	if _, err := Lookup("spiral"); !errors.Is(err, timeline.ErrUnsupportedStyle) {
		t.Errorf("Lookup(spiral) = %v", err)
	}
}

func TestCanvasTooSmall(t *testing.T) {
	spec := sampleSpec(timeline.Horizontal, 2)
	in := input(t, spec, 60, 60)
	if _, err := Run(in); !errors.Is(err, timeline.ErrInvalidTimeline) {
		t.Errorf("Run() = %v, want ErrInvalidTimeline", err)
	}
}
