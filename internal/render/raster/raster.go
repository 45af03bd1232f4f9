// Package raster draws scenes into RGBA images with a software rasterizer
// and encodes them as PNG or animated GIF.
//
// Text is drawn with the same Go Regular opentype faces that the "face"
// measurer sizes labels with.
package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"timelinegen/internal/animation"
	"timelinegen/internal/layout"
	"timelinegen/internal/scene"
	"timelinegen/internal/textfit"
	"timelinegen/internal/theme"
)

// Canvas rasterizes scenes. It is safe for concurrent use.
type Canvas struct {
	transparent bool
	scale       float64

	// faces holds *textfit.Face values; a face is used by one goroutine
	// at a time.
	faces sync.Pool
}

// Option configures a Canvas.
type Option func(*Canvas)

// Transparent leaves the background unpainted.
func Transparent(on bool) Option {
	return func(c *Canvas) { c.transparent = on }
}

// Scale multiplies the output resolution.
func Scale(s float64) Option {
	return func(c *Canvas) {
		if s > 0 {
			c.scale = s
		}
	}
}

// New returns a canvas. It fails only when the embedded font cannot be
// parsed.
func New(opts ...Option) (*Canvas, error) {
	first, err := textfit.NewFace()
	if err != nil {
		return nil, err
	}
	c := &Canvas{scale: 1}
	c.faces.New = func() any {
		f, err := textfit.NewFace()
		if err != nil {
			return nil
		}
		return f
	}
	c.faces.Put(first)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Render draws the whole scene.
func (c *Canvas) Render(sc *scene.Scene) (*image.RGBA, error) {
	if sc == nil {
		return nil, fmt.Errorf("raster: nil scene")
	}
	return c.draw(sc, sc.Primitives)
}

// RenderFrame draws one animation frame of sc.
func (c *Canvas) RenderFrame(sc *scene.Scene, f animation.Frame) (*image.RGBA, error) {
	if sc == nil {
		return nil, fmt.Errorf("raster: nil scene")
	}
	return c.draw(sc, f.Primitives)
}

// RenderFrames draws frames in parallel with at most workers goroutines;
// zero means GOMAXPROCS.
func (c *Canvas) RenderFrames(ctx context.Context, sc *scene.Scene, frames []animation.Frame, workers int) ([]*image.RGBA, error) {
	out := make([]*image.RGBA, len(frames))
	err := parallel(ctx, len(frames), workers, func(i int) error {
		img, err := c.RenderFrame(sc, frames[i])
		out[i] = img
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Canvas) draw(sc *scene.Scene, prims []scene.Primitive) (*image.RGBA, error) {
	w := int(math.Ceil(sc.Width * c.scale))
	h := int(math.Ceil(sc.Height * c.scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster: empty canvas %vx%v", sc.Width, sc.Height)
	}
	face, _ := c.faces.Get().(*textfit.Face)
	if face == nil {
		return nil, fmt.Errorf("raster: no font face available")
	}
	defer c.faces.Put(face)

	p := &painter{
		dst:   image.NewRGBA(image.Rect(0, 0, w, h)),
		z:     vector.NewRasterizer(w, h),
		scale: c.scale,
		face:  face,
	}
	if !c.transparent && sc.Background != "" {
		draw.Draw(p.dst, p.dst.Bounds(), image.NewUniform(parseHex(sc.Background, 1)), image.Point{}, draw.Src)
	}
	for _, prim := range prims {
		if err := p.primitive(prim); err != nil {
			return nil, err
		}
	}
	return p.dst, nil
}

// painter draws primitives onto one image. Coordinates are in scene units
// and multiplied by scale on the way into the rasterizer.
type painter struct {
	dst   *image.RGBA
	z     *vector.Rasterizer
	scale float64
	face  *textfit.Face
}

func (p *painter) primitive(prim scene.Primitive) error {
	alpha := prim.Opacity
	if alpha <= 0 {
		return nil
	}
	switch prim.Kind {
	case scene.KindLane:
		p.fillRect(prim.Rect, prim.CornerRadius, prim.Fill, alpha)
		p.strokeRect(prim.Rect, prim.Stroke, prim.StrokeWidth, alpha)
		p.polyline(prim.Points, prim.Stroke, prim.StrokeWidth, alpha*0.6)
	case scene.KindAxis, scene.KindTick, scene.KindConnector:
		p.polyline(prim.Points, prim.Stroke, prim.StrokeWidth, alpha)
	case scene.KindBar:
		if prim.HasProgress {
			p.fillRect(prim.Rect, prim.CornerRadius, prim.Fill, alpha*trackOpacity)
			done := prim.Rect
			done.W *= math.Max(0, math.Min(1, prim.Progress))
			p.fillRect(done, prim.CornerRadius, prim.Fill, alpha)
		} else {
			p.fillRect(prim.Rect, prim.CornerRadius, prim.Fill, alpha)
		}
	case scene.KindMarker:
		p.marker(prim, alpha)
	case scene.KindLabel:
		p.fillRect(prim.Rect, prim.CornerRadius, prim.Fill, alpha)
		p.strokeRect(prim.Rect, prim.Stroke, prim.StrokeWidth, alpha)
	}
	for _, run := range prim.Text {
		if err := p.text(run, alpha); err != nil {
			return err
		}
	}
	return nil
}

// trackOpacity is the opacity of the unfinished part of a bar.
const trackOpacity = 0.35

// circleSegments is the polygon resolution of circles.
const circleSegments = 32

func (p *painter) marker(prim scene.Primitive, alpha float64) {
	outline := prim.Outline()
	if prim.Shape == theme.Circle || outline == nil {
		c := prim.Rect.Center()
		r := math.Min(prim.Rect.W, prim.Rect.H) / 2
		outline = make([]layout.Point, circleSegments)
		for i := range outline {
			a := 2 * math.Pi * float64(i) / circleSegments
			outline[i] = layout.Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
		}
	}
	p.fillPolygon(outline, prim.Fill, alpha)
	if prim.Stroke != "" && prim.StrokeWidth > 0 {
		closed := append(outline[:len(outline):len(outline)], outline[0])
		p.polyline(closed, prim.Stroke, prim.StrokeWidth, alpha)
	}
}

func (p *painter) fill(col string, alpha float64) {
	p.z.Draw(p.dst, p.dst.Bounds(), image.NewUniform(parseHex(col, alpha)), image.Point{})
}

func (p *painter) fillPolygon(pts []layout.Point, col string, alpha float64) {
	if len(pts) < 3 || col == "" {
		return
	}
	p.z.Reset(p.dst.Bounds().Dx(), p.dst.Bounds().Dy())
	p.z.MoveTo(p.pt(pts[0]))
	for _, q := range pts[1:] {
		p.z.LineTo(p.pt(q))
	}
	p.z.ClosePath()
	p.fill(col, alpha)
}

// fillRect fills r with rounded corners of radius rad.
func (p *painter) fillRect(r layout.Rect, rad float64, col string, alpha float64) {
	if col == "" || r.W <= 0 || r.H <= 0 {
		return
	}
	rad = math.Min(rad, math.Min(r.W, r.H)/2)
	p.z.Reset(p.dst.Bounds().Dx(), p.dst.Bounds().Dy())
	x0, y0, x1, y1 := r.X, r.Y, r.Right(), r.Bottom()
	p.z.MoveTo(p.xy(x0+rad, y0))
	p.z.LineTo(p.xy(x1-rad, y0))
	p.quad(x1, y0, x1, y0+rad)
	p.z.LineTo(p.xy(x1, y1-rad))
	p.quad(x1, y1, x1-rad, y1)
	p.z.LineTo(p.xy(x0+rad, y1))
	p.quad(x0, y1, x0, y1-rad)
	p.z.LineTo(p.xy(x0, y0+rad))
	p.quad(x0, y0, x0+rad, y0)
	p.z.ClosePath()
	p.fill(col, alpha)
}

func (p *painter) quad(cx, cy, x, y float64) {
	ax, ay := p.xy(cx, cy)
	bx, by := p.xy(x, y)
	p.z.QuadTo(ax, ay, bx, by)
}

func (p *painter) strokeRect(r layout.Rect, col string, width, alpha float64) {
	if col == "" || width <= 0 {
		return
	}
	p.polyline([]layout.Point{
		{X: r.X, Y: r.Y}, {X: r.Right(), Y: r.Y}, {X: r.Right(), Y: r.Bottom()}, {X: r.X, Y: r.Bottom()}, {X: r.X, Y: r.Y},
	}, col, width, alpha)
}

// polyline strokes each segment as a quad. Joints are covered by the
// overlap of neighbouring quads, extended by half the width.
func (p *painter) polyline(pts []layout.Point, col string, width, alpha float64) {
	if len(pts) < 2 || col == "" || width <= 0 {
		return
	}
	half := width / 2
	p.z.Reset(p.dst.Bounds().Dx(), p.dst.Bounds().Dy())
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		d := b.Sub(a).Unit()
		if d.IsZero() {
			continue
		}
		n := layout.Point{X: -d.Y, Y: d.X}.Mul(half)
		a, b = a.Sub(d.Mul(half)), b.Add(d.Mul(half))
		p.z.MoveTo(p.pt(a.Add(n)))
		p.z.LineTo(p.pt(b.Add(n)))
		p.z.LineTo(p.pt(b.Sub(n)))
		p.z.LineTo(p.pt(a.Sub(n)))
		p.z.ClosePath()
	}
	p.fill(col, alpha)
}

func (p *painter) text(run scene.TextRun, alpha float64) error {
	if run.Text == "" {
		return nil
	}
	face, err := p.face.Drawable(run.Size * p.scale)
	if err != nil {
		return fmt.Errorf("raster: face for size %v: %w", run.Size, err)
	}
	d := font.Drawer{Dst: p.dst, Src: image.NewUniform(parseHex(run.Color, alpha)), Face: face}
	x := run.X * p.scale
	switch run.Anchor {
	case scene.AnchorMiddle:
		x -= float64(d.MeasureString(run.Text)) / 128
	case scene.AnchorEnd:
		x -= float64(d.MeasureString(run.Text)) / 64
	}
	y := run.Y * p.scale
	d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
	d.DrawString(run.Text)
	if run.Bold {
		d.Dot = fixed.Point26_6{X: fixed.Int26_6((x + 0.6*p.scale) * 64), Y: fixed.Int26_6(y * 64)}
		d.DrawString(run.Text)
	}
	return nil
}

func (p *painter) pt(q layout.Point) (float32, float32) { return p.xy(q.X, q.Y) }

func (p *painter) xy(x, y float64) (float32, float32) {
	return float32(x * p.scale), float32(y * p.scale)
}

// parseHex converts #RRGGBB (or #RGB) to a color with the given opacity.
// Malformed values are black.
func parseHex(s string, alpha float64) color.NRGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	a := uint8(math.Round(math.Max(0, math.Min(1, alpha)) * 255))
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.NRGBA{A: a}
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: a}
}
