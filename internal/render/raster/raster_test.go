package raster

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"
	"time"

	"timelinegen/internal/animation"
	"timelinegen/internal/engine"
	"timelinegen/internal/layout"
	"timelinegen/internal/scene"
	"timelinegen/internal/timeline"
)

func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	spec := &timeline.Spec{
		Title: "Roadmap",
		Scale: timeline.Monthly,
		Style: timeline.Horizontal,
		Theme: "corporate",
		Milestones: []timeline.Milestone{
			{Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Title: "Start", Color: "#CC0000"},
			{Timestamp: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Title: "Middle"},
			{Timestamp: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), Title: "End"},
		},
	}
	sc, err := engine.New(engine.WithCanvas(480, 240)).Render(spec)
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func rgb(c color.Color) [3]uint32 {
	r, g, b, _ := c.RGBA()
	return [3]uint32{r >> 8, g >> 8, b >> 8}
}

func TestRenderPixels(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatal(err)
	}
	sc := testScene(t)
	img, err := c.Render(sc)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 480 || img.Bounds().Dy() != 240 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got, want := rgb(img.At(1, 1)), rgb(parseHex(sc.Background, 1)); got != want {
		t.Errorf("corner pixel = %v, want background %v", got, want)
	}
	for _, m := range sc.ByKind(scene.KindMarker) {
		if m.Milestone != 0 {
			continue
		}
		ctr := m.Rect.Center()
		if got := rgb(img.At(int(ctr.X), int(ctr.Y))); got != [3]uint32{0xCC, 0, 0} {
			t.Errorf("marker centre = %v, want #CC0000", got)
		}
	}
}

func TestRenderTransparentAndScaled(t *testing.T) {
	c, err := New(Transparent(true), Scale(2))
	if err != nil {
		t.Fatal(err)
	}
	img, err := c.Render(testScene(t))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 960 {
		t.Errorf("scaled width = %d", img.Bounds().Dx())
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Errorf("corner alpha = %d, want 0", a)
	}
}

func TestEncodePNG(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := c.EncodePNG(&buf, testScene(t)); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 480, 240) {
		t.Errorf("decoded bounds = %v", img.Bounds())
	}
}

func TestEncodeGIF(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatal(err)
	}
	sc := testScene(t)
	frames, err := animation.Frames(sc, 6, animation.Options{Fade: true})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := c.EncodeGIF(context.Background(), &buf, sc, frames, GIFOptions{FPS: 10, Workers: 2}); err != nil {
		t.Fatal(err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("gif.DecodeAll() error = %v", err)
	}
	if len(g.Image) != 6 {
		t.Errorf("got %d frames, want 6", len(g.Image))
	}
	for i, d := range g.Delay {
		if d != 10 {
			t.Errorf("frame %d delay = %d, want 10", i, d)
		}
	}

	if err := c.EncodeGIF(context.Background(), &buf, sc, nil, GIFOptions{}); err == nil {
		t.Error("EncodeGIF accepted zero frames")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.EncodeGIF(ctx, &buf, sc, frames, GIFOptions{}); err == nil {
		t.Error("EncodeGIF ignored a cancelled context")
	}
}

func TestRenderFramesParallelMatchesSerial(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatal(err)
	}
	sc := testScene(t)
	frames, err := animation.Frames(sc, 4, animation.Options{})
	if err != nil {
		t.Fatal(err)
	}
	imgs, err := c.RenderFrames(context.Background(), sc, frames, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, f := range frames {
		want, err := c.RenderFrame(sc, f)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(imgs[i].Pix, want.Pix) {
			t.Errorf("frame %d differs between parallel and serial rendering", i)
		}
	}
}

func TestPainterShapes(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatal(err)
	}
	sc := &scene.Scene{Width: 40, Height: 40, Background: "#FFFFFF", Primitives: []scene.Primitive{
		{Kind: scene.KindBar, Milestone: 0, Rect: layout.Rect{X: 0, Y: 0, W: 40, H: 10}, Fill: "#0000FF", Progress: 0.5, HasProgress: true, Opacity: 1},
		{Kind: scene.KindAxis, Milestone: -1, Points: []layout.Point{{X: 0, Y: 30}, {X: 40, Y: 30}}, Stroke: "#000000", StrokeWidth: 4, Opacity: 1},
	}}
	out, err := c.Render(sc)
	if err != nil {
		t.Fatal(err)
	}
	if got := rgb(out.At(10, 5)); got != [3]uint32{0, 0, 0xFF} {
		t.Errorf("completed bar pixel = %v", got)
	}
	if got := rgb(out.At(30, 5)); got[2] != 0xFF || got[0] == 0 || got[0] == 0xFF {
		t.Errorf("track pixel = %v, want a faint blue", got)
	}
	if got := rgb(out.At(20, 30)); got != [3]uint32{0, 0, 0} {
		t.Errorf("axis pixel = %v", got)
	}
	if got := rgb(out.At(20, 20)); got != [3]uint32{0xFF, 0xFF, 0xFF} {
		t.Errorf("empty pixel = %v", got)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#336699", color.NRGBA{0x33, 0x66, 0x99, 0xFF}},
		{"#abc", color.NRGBA{0xAA, 0xBB, 0xCC, 0xFF}},
		{"nope", color.NRGBA{A: 0xFF}},
	}
	for _, tt := range tests {
		if got := parseHex(tt.in, 1); got != tt.want {
			t.Errorf("parseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
