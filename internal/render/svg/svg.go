// Package svg draws scenes and animation frames as SVG documents.
package svg

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"timelinegen/internal/animation"
	"timelinegen/internal/layout"
	"timelinegen/internal/scene"
	"timelinegen/internal/theme"
)

// Option configures rendering.
type Option func(*options)

type options struct {
	transparent bool
}

// Transparent omits the background rectangle.
func Transparent(on bool) Option {
	return func(o *options) { o.transparent = on }
}

// Render writes sc as a standalone SVG document.
func Render(w io.Writer, sc *scene.Scene, opts ...Option) error {
	if sc == nil {
		return fmt.Errorf("svg: nil scene")
	}
	return write(w, sc, sc.Primitives, opts)
}

// RenderFrame writes one animation frame of sc. The canvas size and
// background come from the scene.
func RenderFrame(w io.Writer, sc *scene.Scene, f animation.Frame, opts ...Option) error {
	if sc == nil {
		return fmt.Errorf("svg: nil scene")
	}
	return write(w, sc, f.Primitives, opts)
}

func write(w io.Writer, sc *scene.Scene, prims []scene.Primitive, opts []Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var svg strings.Builder
	svg.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg width="%s" height="%s" viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg">
`, num(sc.Width), num(sc.Height), num(sc.Width), num(sc.Height)))
	if !o.transparent && sc.Background != "" {
		svg.WriteString(fmt.Sprintf(`<rect width="100%%" height="100%%" fill="%s"/>`+"\n", sc.Background))
	}
	for _, p := range prims {
		drawPrimitive(&svg, p)
	}
	svg.WriteString("</svg>\n")

	if _, err := io.WriteString(w, svg.String()); err != nil {
		return fmt.Errorf("error writing SVG: %w", err)
	}
	return nil
}

func drawPrimitive(svg *strings.Builder, p scene.Primitive) {
	if p.Opacity <= 0 {
		return
	}
	class := strings.ReplaceAll(string(p.Kind), "-", "_")
	if p.Opacity < 1 {
		svg.WriteString(fmt.Sprintf(`<g class="%s" opacity="%s">`, class, num(p.Opacity)))
	} else {
		svg.WriteString(fmt.Sprintf(`<g class="%s">`, class))
	}

	switch p.Kind {
	case scene.KindLane:
		drawRect(svg, p.Rect, p.Fill, p.Stroke, p.StrokeWidth, p.CornerRadius)
		if len(p.Points) > 1 {
			drawPath(svg, p.Points, p.Stroke, p.StrokeWidth, `stroke-dasharray="4 4"`)
		}
	case scene.KindAxis, scene.KindTick, scene.KindConnector:
		drawPath(svg, p.Points, p.Stroke, p.StrokeWidth, "")
	case scene.KindBar:
		drawBar(svg, p)
	case scene.KindMarker:
		drawEventMarker(svg, p)
	case scene.KindLabel:
		if p.Fill != "" {
			drawRect(svg, p.Rect, p.Fill, p.Stroke, p.StrokeWidth, p.CornerRadius)
		}
	}
	for _, run := range p.Text {
		drawText(svg, run)
	}
	svg.WriteString("</g>\n")
}

func drawRect(svg *strings.Builder, r layout.Rect, fill, stroke string, strokeWidth, radius float64) {
	if fill == "" {
		fill = "none"
	}
	svg.WriteString(fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s"`, num(r.X), num(r.Y), num(r.W), num(r.H)))
	if radius > 0 {
		svg.WriteString(fmt.Sprintf(` rx="%s"`, num(radius)))
	}
	svg.WriteString(fmt.Sprintf(` fill="%s"`, fill))
	if stroke != "" && strokeWidth > 0 {
		svg.WriteString(fmt.Sprintf(` stroke="%s" stroke-width="%s"`, stroke, num(strokeWidth)))
	}
	svg.WriteString("/>")
}

// drawPath draws a straight line for two points and a polyline otherwise.
func drawPath(svg *strings.Builder, pts []layout.Point, stroke string, width float64, extra string) {
	if len(pts) < 2 || stroke == "" {
		return
	}
	if extra != "" {
		extra = " " + extra
	}
	if len(pts) == 2 {
		svg.WriteString(fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"%s/>`,
			num(pts[0].X), num(pts[0].Y), num(pts[1].X), num(pts[1].Y), stroke, num(width), extra))
		return
	}
	svg.WriteString(fmt.Sprintf(`<polyline points="%s" fill="none" stroke="%s" stroke-width="%s" stroke-linejoin="round"%s/>`,
		points(pts), stroke, num(width), extra))
}

// drawBar draws a duration bar. With progress the full bar is a faint
// track and the completed fraction is solid.
func drawBar(svg *strings.Builder, p scene.Primitive) {
	if !p.HasProgress {
		drawRect(svg, p.Rect, p.Fill, "", 0, p.CornerRadius)
		return
	}
	svg.WriteString(fmt.Sprintf(`<g opacity="%s">`, num(trackOpacity)))
	drawRect(svg, p.Rect, p.Fill, "", 0, p.CornerRadius)
	svg.WriteString("</g>")
	done := p.Rect
	done.W *= math.Max(0, math.Min(1, p.Progress))
	if done.W > 0 {
		drawRect(svg, done, p.Fill, "", 0, p.CornerRadius)
	}
}

// trackOpacity is the opacity of the unfinished part of a bar.
const trackOpacity = 0.35

// drawEventMarker draws the marker shape centred in the primitive rect.
func drawEventMarker(svg *strings.Builder, p scene.Primitive) {
	c := p.Rect.Center()
	size := math.Min(p.Rect.W, p.Rect.H) / 2
	stroke := ""
	if p.Stroke != "" && p.StrokeWidth > 0 {
		stroke = fmt.Sprintf(` stroke="%s" stroke-width="%s"`, p.Stroke, num(p.StrokeWidth))
	}

	switch p.Shape {
	case theme.Square:
		svg.WriteString(fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s"%s/>`,
			num(c.X-size), num(c.Y-size), num(2*size), num(2*size), p.Fill, stroke))

	case theme.Diamond, theme.Triangle:
		svg.WriteString(fmt.Sprintf(`<polygon points="%s" fill="%s"%s/>`, points(p.Outline()), p.Fill, stroke))

	default:
		svg.WriteString(fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" fill="%s"%s/>`,
			num(c.X), num(c.Y), num(size), p.Fill, stroke))
	}
}

func drawText(svg *strings.Builder, t scene.TextRun) {
	if t.Text == "" {
		return
	}
	weight, style := "normal", "normal"
	if t.Bold {
		weight = "bold"
	}
	if t.Italic {
		style = "italic"
	}
	anchor := t.Anchor
	if anchor == "" {
		anchor = scene.AnchorStart
	}
	svg.WriteString(fmt.Sprintf(`<text x="%s" y="%s" text-anchor="%s" font-family="%s" font-size="%s" font-weight="%s" font-style="%s" fill="%s">%s</text>`,
		num(t.X), num(t.Y), anchor, escapeXML(t.Family), num(t.Size), weight, style, t.Color, escapeXML(t.Text)))
}

func points(pts []layout.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = num(p.X) + "," + num(p.Y)
	}
	return strings.Join(parts, " ")
}

// num formats v with at most two decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// escapeXML escapes the XML special characters in s and drops runes XML
// does not allow, such as control characters other than tab and newlines.
func escapeXML(s string) string {
	s = strings.Map(func(r rune) rune {
		if xmlChar(r) {
			return r
		}
		return -1
	}, s)
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

// xmlChar reports whether r is in the XML 1.0 Char production.
func xmlChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
