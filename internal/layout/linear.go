package layout

import "timelinegen/internal/timeline"

// horizontal places markers on one horizontal axis through the middle of
// the content area. Labels alternate above and below by input index and are
// pushed away from the axis on collision.
type horizontal struct{}

func (horizontal) Style() timeline.Style { return timeline.Horizontal }

func (horizontal) Description() string {
	return "Single horizontal axis, labels alternating above and below"
}

func (horizontal) Layout(in Input) (*Result, error) {
	res, err := in.begin(timeline.Horizontal)
	if err != nil {
		return nil, err
	}
	p := in.Params
	c := res.Guides.Content
	axisY := c.Y + c.H/2
	left, right := Point{c.X, axisY}, Point{c.Right(), axisY}
	res.Guides.Axis = []Point{left, right}
	res.Guides.Ticks = in.ticks(left, right, Point{0, 1})

	order := in.byRank()
	ideal := make([]float64, len(order))
	for k, idx := range order {
		ideal[k] = c.X + in.Positions[idx].Value*c.W
	}
	xs, r := p.sweepMarkers(ideal, c.X, c.Right())

	for k, idx := range order {
		pl := in.newPlacement(idx, Point{xs[k], axisY}, r)
		lines, wrapped := in.labelLines(in.Spec.Milestones[idx], p.WrapWidth)

		pin, mode, shift := Point{xs[k], axisY - r - p.LabelGap}, PinAbove, Point{0, -1}
		if idx%2 == 1 {
			pin, mode, shift = Point{xs[k], axisY + r + p.LabelGap}, PinBelow, Point{0, 1}
		}
		pl.Label = in.newLabel(lines, wrapped, pin, mode, shift, res.Bounds)
		pl.Shift = shift
		pl.Connector = true
		res.Placements[idx] = pl
	}
	return res, nil
}

// vertical is horizontal turned on its side: time runs top to bottom and
// label cards alternate right and left of the axis.
type vertical struct{}

func (vertical) Style() timeline.Style { return timeline.Vertical }

func (vertical) Description() string {
	return "Single vertical axis, labels alternating left and right"
}

func (vertical) Layout(in Input) (*Result, error) {
	res, err := in.begin(timeline.Vertical)
	if err != nil {
		return nil, err
	}
	p := in.Params
	c := res.Guides.Content
	axisX := c.X + c.W/2
	top, bottom := Point{axisX, c.Y}, Point{axisX, c.Bottom()}
	res.Guides.Axis = []Point{top, bottom}
	res.Guides.Ticks = in.ticks(top, bottom, Point{-1, 0})

	order := in.byRank()
	ideal := make([]float64, len(order))
	for k, idx := range order {
		ideal[k] = c.Y + in.Positions[idx].Value*c.H
	}
	ys, r := p.sweepMarkers(ideal, c.Y, c.Bottom())

	// Cards may not be wider than the space beside the axis.
	side := c.W/2 - r - p.LabelGap - 2*p.LabelPadding
	wrapWidth := min(p.WrapWidth, side)

	for k, idx := range order {
		pl := in.newPlacement(idx, Point{axisX, ys[k]}, r)
		lines, wrapped := in.labelLines(in.Spec.Milestones[idx], wrapWidth)

		pin, mode, shift := Point{axisX + r + p.LabelGap, ys[k]}, PinRight, Point{1, 0}
		if idx%2 == 1 {
			pin, mode, shift = Point{axisX - r - p.LabelGap, ys[k]}, PinLeft, Point{-1, 0}
		}
		pl.Label = in.newLabel(lines, wrapped, pin, mode, shift, res.Bounds)
		pl.Shift = shift
		pl.Connector = true
		res.Placements[idx] = pl
	}
	return res, nil
}
