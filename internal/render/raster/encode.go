package raster

import (
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"
	"math"
	"runtime"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"timelinegen/internal/animation"
	"timelinegen/internal/scene"
)

// EncodePNG rasterizes sc and writes it as PNG.
func (c *Canvas) EncodePNG(w io.Writer, sc *scene.Scene) error {
	img, err := c.Render(sc)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("error encoding PNG: %w", err)
	}
	return nil
}

// GIFOptions control animated GIF output.
type GIFOptions struct {
	// FPS sets the frame delay; GIF delays are in hundredths of a second.
	FPS float64
	// LoopCount follows image/gif: 0 loops forever, -1 plays once.
	LoopCount int
	// Workers bounds parallel rasterization; zero means GOMAXPROCS.
	Workers int
}

// EncodeGIF rasterizes frames in parallel, quantizes them to the Plan 9
// palette and writes an animated GIF.
func (c *Canvas) EncodeGIF(ctx context.Context, w io.Writer, sc *scene.Scene, frames []animation.Frame, opts GIFOptions) error {
	if len(frames) == 0 {
		return fmt.Errorf("gif: no frames")
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	delay := max(2, int(math.Round(100/opts.FPS)))

	anim := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		Disposal:  make([]byte, len(frames)),
		LoopCount: opts.LoopCount,
	}
	err := parallel(ctx, len(frames), opts.Workers, func(i int) error {
		img, err := c.RenderFrame(sc, frames[i])
		if err != nil {
			return err
		}
		pm := image.NewPaletted(img.Bounds(), palette.Plan9)
		if c.transparent {
			pm.Palette = append(pm.Palette[:len(pm.Palette)-1:len(pm.Palette)-1], image.Transparent)
		}
		draw.FloydSteinberg.Draw(pm, pm.Bounds(), img, image.Point{})
		anim.Image[i] = pm
		anim.Delay[i] = delay
		anim.Disposal[i] = gif.DisposalBackground
		return nil
	})
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("error encoding GIF: %w", err)
	}
	return nil
}

// parallel runs fn for 0..n-1 with at most workers goroutines.
func parallel(ctx context.Context, n, workers int, fn func(int) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}
