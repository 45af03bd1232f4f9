package layout

import (
	"math"

	"timelinegen/internal/timeline"
)

// infographic walks a serpentine path through a grid of cells, one
// milestone per cell in chronological order. Rows alternate direction and
// are joined by half-circle arcs.
type infographic struct{}

func (infographic) Style() timeline.Style { return timeline.Infographic }

func (infographic) Description() string { return "Serpentine path through a grid of cards" }

// arcSteps is the number of segments used to approximate a row-joining arc.
const arcSteps = 12

func (infographic) Layout(in Input) (*Result, error) {
	res, err := in.begin(timeline.Infographic)
	if err != nil {
		return nil, err
	}
	p := in.Params
	c := res.Guides.Content
	n := len(in.Spec.Milestones)

	cols := p.Columns
	if cols < 1 {
		cols = 3
	}
	cols = min(cols, n)
	rows := (n + cols - 1) / cols
	cellW, cellH := c.W/float64(cols), c.H/float64(rows)
	r := min(2*p.MarkerSize, cellW*0.2, cellH*0.2)

	centre := func(k int) Point {
		row, col := k/cols, k%cols
		if row%2 == 1 {
			col = cols - 1 - col
		}
		return Point{c.X + (float64(col)+0.5)*cellW, c.Y + float64(row)*cellH + cellH*0.3}
	}
	res.Guides.Axis = serpentine(c, rows, cols, cellW, cellH, centre)

	for k, idx := range in.byRank() {
		at := centre(k)
		pl := in.newPlacement(idx, at, r)
		lines, wrapped := in.labelLines(in.Spec.Milestones[idx], min(p.WrapWidth, cellW*0.9))
		pin := Point{at.X, at.Y + r + p.LabelGap/2}

		// Radial shift: from the marker centre through the label centre.
		trial := in.newLabel(lines, wrapped, pin, PinBelow, Point{}, res.Bounds)
		shift := trial.Box.Center().Sub(at).Unit()
		if shift.IsZero() {
			shift = Point{0, 1}
		}
		pl.Label = in.newLabel(lines, wrapped, pin, PinBelow, shift, res.Bounds)
		pl.Shift = shift
		res.Placements[idx] = pl
	}
	return res, nil
}

// serpentine returns the path polyline: straight runs along each row and an
// arc at the row ends bulging outside the grid column.
func serpentine(c Rect, rows, cols int, cellW, cellH float64, centre func(int) Point) []Point {
	left := c.X + cellW*0.5
	right := c.X + (float64(cols)-0.5)*cellW
	var path []Point
	for row := 0; row < rows; row++ {
		y := centre(row * cols).Y
		a, b := Point{left, y}, Point{right, y}
		if row%2 == 1 {
			a, b = b, a
		}
		path = append(path, a, b)
		if row == rows-1 {
			break
		}
		// Half circle from this row's end to the next row's start.
		radius := cellH / 2
		mid := Point{b.X, y + radius}
		side := 1.0
		if row%2 == 1 {
			side = -1
		}
		for s := 1; s < arcSteps; s++ {
			theta := -math.Pi/2 + math.Pi*float64(s)/arcSteps
			path = append(path, Point{mid.X + side*radius*math.Cos(theta), mid.Y + radius*math.Sin(theta)})
		}
	}
	if len(path) == 2 && path[0] == path[1] {
		// Single cell: give the path a visible length.
		path[0].X -= cellW * 0.4
		path[1].X += cellW * 0.4
	}
	return path
}
