package layout

import "timelinegen/internal/timeline"

// DefaultLane names the swimlane of uncategorized milestones.
const DefaultLane = "default"

// Lanes returns the swimlane names of a Spec: the explicit category
// order first, then categories in order of first appearance, then
// DefaultLane when any milestone has no category.
func Lanes(spec *timeline.Spec) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, c := range spec.Categories {
		if c != "" {
			add(c)
		}
	}
	uncategorized := false
	for _, ms := range spec.Milestones {
		if ms.Category == "" {
			uncategorized = true
			continue
		}
		add(ms.Category)
	}
	if uncategorized || len(names) == 0 {
		add(DefaultLane)
	}
	return names
}

func laneOf(ms timeline.Milestone) string {
	if ms.Category == "" {
		return DefaultLane
	}
	return ms.Category
}

// roadmap stacks one small horizontal track per category. Lane names sit
// in a column on the left, the shared time axis runs under the last lane.
type roadmap struct{}

func (roadmap) Style() timeline.Style { return timeline.Roadmap }

func (roadmap) Description() string { return "Horizontal swimlanes, one per category" }

func (roadmap) Layout(in Input) (*Result, error) {
	res, err := in.begin(timeline.Roadmap)
	if err != nil {
		return nil, err
	}
	p := in.Params
	c := res.Guides.Content
	names := Lanes(in.Spec)
	laneIndex := make(map[string]int, len(names))
	for i, n := range names {
		laneIndex[n] = i
	}

	trackX := c.X + p.LaneColumn
	trackW := max(c.W-p.LaneColumn, 1)
	laneH := c.H / float64(len(names))

	axisL, axisR := Point{trackX, c.Bottom()}, Point{trackX + trackW, c.Bottom()}
	res.Guides.Axis = []Point{axisL, axisR}
	res.Guides.Ticks = in.ticks(axisL, axisR, Point{0, 1})

	// Group milestones per lane, keeping chronological order inside each.
	members := make([][]int, len(names))
	for _, idx := range in.byRank() {
		li := laneIndex[laneOf(in.Spec.Milestones[idx])]
		members[li] = append(members[li], idx)
	}

	for li, name := range names {
		band := Rect{c.X, c.Y + float64(li)*laneH, c.W, laneH}
		trackY := band.Y + band.H/2
		res.Guides.Lanes = append(res.Guides.Lanes, Lane{
			Name:  name,
			Rect:  band,
			Track: []Point{{trackX, trackY}, {trackX + trackW, trackY}},
		})

		idxs := members[li]
		ideal := make([]float64, len(idxs))
		for k, idx := range idxs {
			ideal[k] = trackX + in.Positions[idx].Value*trackW
		}
		xs, r := p.sweepMarkers(ideal, trackX, trackX+trackW)
		gap := min(p.LabelGap, max(band.H/4-r, 2))

		for k, idx := range idxs {
			pl := in.newPlacement(idx, Point{xs[k], trackY}, r)
			pl.Lane = li
			lines, wrapped := in.labelLines(in.Spec.Milestones[idx], p.WrapWidth)

			pin, mode, shift := Point{xs[k], trackY - r - gap}, PinAbove, Point{0, -1}
			if k%2 == 1 {
				pin, mode, shift = Point{xs[k], trackY + r + gap}, PinBelow, Point{0, 1}
			}
			pl.Label = in.newLabel(lines, wrapped, pin, mode, shift, res.Bounds)
			pl.Shift = shift
			pl.Connector = true
			res.Placements[idx] = pl
		}
	}
	return res, nil
}
