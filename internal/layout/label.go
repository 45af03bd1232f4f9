package layout

import "timelinegen/internal/textfit"

// PinMode says how a label box hangs from its pin point. The pin is the
// edge nearest the marker, so resizing a label never moves it towards
// the axis.
type PinMode int

const (
	// PinBelow centres the box horizontally under the pin.
	PinBelow PinMode = iota
	// PinAbove centres the box horizontally over the pin.
	PinAbove
	// PinRight extends the box right of the pin, centred vertically.
	PinRight
	// PinLeft extends the box left of the pin, centred vertically.
	PinLeft
)

// Role tags a label line with the milestone field it shows.
type Role int

const (
	RoleBadge Role = iota
	RoleTitle
	RoleDate
	RoleDescription
)

func (r Role) String() string {
	switch r {
	case RoleBadge:
		return "badge"
	case RoleTitle:
		return "title"
	case RoleDate:
		return "date"
	default:
		return "description"
	}
}

// TextLine is one rendered line of a label.
type TextLine struct {
	Text string
	Role Role
	Size float64
}

// Label is the text block attached to a marker.
type Label struct {
	Box   Rect
	Pin   Point
	Mode  PinMode
	Pad   float64
	Lines []TextLine

	// Wrapped is set when word wrapping split a field over several lines.
	Wrapped bool

	// Fallback flags set by the collision resolver.
	Truncated         bool
	DescriptionHidden bool
}

// Fit recomputes Box from the current lines, pin and mode.
func (l *Label) Fit(m textfit.Measurer) {
	block := make([]textfit.Line, len(l.Lines))
	for i, tl := range l.Lines {
		block[i] = textfit.Line{Text: tl.Text, Size: tl.Size}
	}
	ext := textfit.MeasureBlock(m, block)
	w, h := ext.Width+2*l.Pad, ext.Height+2*l.Pad

	switch l.Mode {
	case PinAbove:
		l.Box = Rect{l.Pin.X - w/2, l.Pin.Y - h, w, h}
	case PinRight:
		l.Box = Rect{l.Pin.X, l.Pin.Y - h/2, w, h}
	case PinLeft:
		l.Box = Rect{l.Pin.X - w, l.Pin.Y - h/2, w, h}
	default:
		l.Box = Rect{l.Pin.X - w/2, l.Pin.Y, w, h}
	}
}

// Move translates the pin by d and refits the box.
func (l *Label) Move(d Point, m textfit.Measurer) {
	l.Pin = l.Pin.Add(d)
	l.Fit(m)
}

// HasDescription reports whether any description line is still shown.
func (l *Label) HasDescription() bool {
	for _, tl := range l.Lines {
		if tl.Role == RoleDescription {
			return true
		}
	}
	return false
}

// HideDescription drops the description lines and reports whether any were
// removed.
func (l *Label) HideDescription() bool {
	kept := l.Lines[:0:0]
	for _, tl := range l.Lines {
		if tl.Role != RoleDescription {
			kept = append(kept, tl)
		}
	}
	removed := len(kept) != len(l.Lines)
	l.Lines = kept
	if removed {
		l.DescriptionHidden = true
	}
	return removed
}

// FullText reports whether the label still shows everything it was built
// with.
func (l *Label) FullText() bool { return !l.Truncated && !l.DescriptionHidden }
