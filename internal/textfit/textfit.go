// Package textfit measures, wraps and truncates label text.
//
// Layout strategies size label boxes through a Measurer and the collision
// resolver shrinks them with Truncate. Three measurers are provided: a
// deterministic character-width estimate, a HarfBuzz shaper and an
// x/image opentype face. The heuristic is the default because its output is
// identical on every machine.
package textfit

import (
	"fmt"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "…"

// Measurer reports the rendered size of a single line of text.
type Measurer interface {
	// Width returns the advance width of s in pixels at the given font size.
	Width(s string, size float64) float64
	// LineHeight returns the baseline-to-baseline distance at size.
	LineHeight(size float64) float64
}

// Heuristic estimates widths from display columns: each column is
// CharWidth × size pixels wide. East Asian wide runes count as two columns.
type Heuristic struct {
	CharWidth   float64
	LineSpacing float64
}

// NewHeuristic returns the default estimate, 0.6 em per column and 1.2 em
// line spacing.
func NewHeuristic() Heuristic {
	return Heuristic{CharWidth: 0.6, LineSpacing: 1.2}
}

func (h Heuristic) Width(s string, size float64) float64 {
	return float64(runewidth.StringWidth(s)) * h.CharWidth * size
}

func (h Heuristic) LineHeight(size float64) float64 {
	return h.LineSpacing * size
}

// Measurers lists the names accepted by ByName.
var Measurers = []string{"heuristic", "shaping", "face"}

// ByName returns the measurer registered under name. An empty name selects
// the heuristic.
func ByName(name string) (Measurer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "heuristic":
		return NewHeuristic(), nil
	case "shaping", "harfbuzz":
		return NewShaping()
	case "face", "opentype":
		return NewFace()
	}
	return nil, fmt.Errorf("unknown measurer %q (want one of %v)", name, Measurers)
}

// Extent is the size of a block of lines.
type Extent struct {
	Width  float64
	Height float64
}

// Line is one line of a label block with its font size.
type Line struct {
	Text string
	Size float64
}

// MeasureBlock returns the widest line and the summed line heights.
func MeasureBlock(m Measurer, lines []Line) Extent {
	var e Extent
	for _, l := range lines {
		e.Width = math.Max(e.Width, m.Width(l.Text, l.Size))
		e.Height += m.LineHeight(l.Size)
	}
	return e
}

// Wrap splits s into lines that fit maxWidth pixels. Words move whole to the
// next line; words longer than a line are hard-broken.
func Wrap(m Measurer, s string, size, maxWidth float64) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if maxWidth <= 0 || m.Width(s, size) <= maxWidth {
		return []string{s}
	}
	cols := columns(m, size, maxWidth)
	wrapped := wrap.String(wordwrap.String(s, cols), cols)

	var lines []string
	for _, l := range strings.Split(wrapped, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// columns converts a pixel width into a column limit for reflow using the
// measurer's width of a representative glyph.
func columns(m Measurer, size, maxWidth float64) int {
	em := m.Width("n", size)
	if em <= 0 {
		return 1
	}
	return max(1, int(maxWidth/em))
}

// Truncate shortens s until it fits maxWidth pixels, appending Ellipsis. It
// reports whether s was changed. When not even the ellipsis fits, the
// ellipsis alone is returned.
func Truncate(m Measurer, s string, size, maxWidth float64) (string, bool) {
	if m.Width(s, size) <= maxWidth {
		return s, false
	}
	// Largest column budget whose truncated form still fits.
	lo, hi := 1, runewidth.StringWidth(s)
	best := Ellipsis
	for lo <= hi {
		mid := (lo + hi) / 2
		cand := truncate.StringWithTail(s, uint(mid), Ellipsis)
		if m.Width(cand, size) <= maxWidth {
			best = cand
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best, true
}
