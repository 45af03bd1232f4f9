package layout

import (
	"timelinegen/internal/textfit"
	"timelinegen/internal/timeline"
)

// gantt gives every task its own row, ordered by start date with input
// order breaking ties. Titles sit in a fixed label column left of the bars.
// Rows are at least one label tall, so the result may be taller than the
// requested canvas.
type gantt struct{}

func (gantt) Style() timeline.Style { return timeline.Gantt }

func (gantt) Description() string {
	return "One row per task with duration bars; every milestone needs a duration"
}

func (gantt) Layout(in Input) (*Result, error) {
	for i, ms := range in.Spec.Milestones {
		if !ms.HasDuration() {
			return nil, timeline.Errorf(timeline.ErrUnsupportedStyle, i, "gantt style requires a duration on milestone %q", ms.Title)
		}
	}
	res, err := in.begin(timeline.Gantt)
	if err != nil {
		return nil, err
	}
	p := in.Params
	m := in.measurer()
	c := res.Guides.Content
	n := len(in.Spec.Milestones)

	// Tick labels sit in a band above the first row.
	band := m.LineHeight(p.TickSize) + p.LabelPadding
	labelH := m.LineHeight(p.TitleSize) + 2*p.LabelPadding
	rowH := clamp((c.H-band)/float64(n), p.RowMin, p.RowMax)
	rowH = max(rowH, labelH)

	rowsTop := c.Y + band
	if need := rowsTop + float64(n)*rowH + p.Margin; need > res.Height {
		res.Height = need
		res.Bounds.H = need - res.Bounds.Y
		c.H = need - p.Margin - c.Y
		res.Guides.Content = c
	}

	barX := c.X + p.LabelColumn
	barW := max(c.W-p.LabelColumn, p.MinBarWidth)
	axisL, axisR := Point{barX, rowsTop}, Point{barX + barW, rowsTop}
	res.Guides.Axis = []Point{axisL, axisR}
	res.Guides.Ticks = in.ticks(axisL, axisR, Point{0, -1})

	titleRoom := p.LabelColumn - 2*p.LabelPadding - p.MarkerGap
	for lane, idx := range in.byRank() {
		ms := in.Spec.Milestones[idx]
		y := rowsTop + float64(lane)*rowH
		res.Guides.Lanes = append(res.Guides.Lanes, Lane{
			Rect: Rect{c.X, y, c.W, rowH},
		})

		x0 := barX + in.Axis.Value(ms.Timestamp)*barW
		x1 := barX + in.Axis.Value(ms.End())*barW
		bar := Rect{x0, y + rowH*0.2, max(x1-x0, p.MinBarWidth), rowH * 0.6}
		if bar.Right() > barX+barW {
			bar.X = barX + barW - bar.W
		}

		pl := in.newPlacement(idx, Point{bar.X, bar.Center().Y}, 0)
		pl.Lane = lane
		pl.Marker = bar
		pl.Bar = &Bar{Rect: bar, Progress: ms.Progress}

		title, truncated := textfit.Truncate(m, ms.Title, p.TitleSize, titleRoom)
		lines := []TextLine{{Text: title, Role: RoleTitle, Size: p.TitleSize}}
		pl.Label = in.newLabel(lines, false, Point{c.X, y + rowH/2}, PinRight, Point{}, res.Bounds)
		pl.Label.Truncated = truncated
		res.Placements[idx] = pl
	}
	return res, nil
}
