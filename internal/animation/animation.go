// Package animation derives progressive-reveal frames from a finished scene.
//
// A frame is a filtered copy of the scene: timeline-wide primitives are
// always present and milestone primitives appear in chronological order.
// Frames are never laid out again, so every frame is a subset of the next
// and the last frame is the scene itself.
package animation

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"timelinegen/internal/scene"
	"timelinegen/internal/timeline"
)

// Easing maps linear time in [0,1] to reveal progress in [0,1]. Every easing
// is monotonic non-decreasing.
type Easing string

const (
	Linear    Easing = "linear"
	EaseIn    Easing = "ease-in"
	EaseOut   Easing = "ease-out"
	EaseInOut Easing = "ease-in-out"
)

// Easings lists the supported easings.
var Easings = []Easing{Linear, EaseIn, EaseOut, EaseInOut}

// ParseEasing returns the easing named by s; the empty string is Linear.
func ParseEasing(s string) (Easing, error) {
	e := Easing(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if e == "" {
		return Linear, nil
	}
	for _, known := range Easings {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown easing %q (want one of %v)", s, Easings)
}

// Apply evaluates the easing at t, clamped to [0,1].
func (e Easing) Apply(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	switch e {
	case EaseIn:
		return t * t
	case EaseOut:
		return 1 - (1-t)*(1-t)
	case EaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return 1 - math.Pow(-2*t+2, 2)/2
	default:
		return t
	}
}

// Options tune frame derivation.
type Options struct {
	Easing Easing

	// Fade gives the most recently revealed milestone a partial opacity
	// while it is coming in.
	Fade bool

	// EmptyLeadIn starts with an axis-only frame. By default the first
	// milestone is visible from frame 0.
	EmptyLeadIn bool

	// HoldStart and HoldEnd pin that many leading and trailing frames to
	// the start and end state.
	HoldStart int
	HoldEnd   int

	// Workers bounds the fan-out; zero means GOMAXPROCS.
	Workers int
}

// Frame is one step of the reveal.
type Frame struct {
	Index    int
	Progress float64
	// Revealed is the number of milestones shown.
	Revealed int
	// Indices are the positions in the scene of the included primitives.
	Indices    []int
	Primitives []scene.Primitive
}

// minFade keeps a lead-in milestone faintly visible at progress zero.
const minFade = 0.1

// FrameCount converts a frame rate and duration into a frame count.
func FrameCount(fps, seconds float64) (int, error) {
	if fps <= 0 || seconds <= 0 || math.IsNaN(fps) || math.IsNaN(seconds) {
		return 0, timeline.Errorf(timeline.ErrInvalidAnimation, -1, "fps %g and duration %gs must be positive", fps, seconds)
	}
	return max(1, int(math.Round(fps*seconds))), nil
}

// Frames derives frameCount frames from sc.
func Frames(sc *scene.Scene, frameCount int, opts Options) ([]Frame, error) {
	return FramesContext(context.Background(), sc, frameCount, opts)
}

// FramesContext is Frames with cancellation of the parallel fan-out.
func FramesContext(ctx context.Context, sc *scene.Scene, frameCount int, opts Options) ([]Frame, error) {
	if sc == nil {
		return nil, timeline.Errorf(timeline.ErrInvalidAnimation, -1, "no scene to animate")
	}
	if frameCount < 1 {
		return nil, timeline.Errorf(timeline.ErrInvalidAnimation, -1, "frame count %d must be at least 1", frameCount)
	}
	if opts.HoldStart < 0 || opts.HoldEnd < 0 || (frameCount > 1 && opts.HoldStart+opts.HoldEnd >= frameCount) {
		return nil, timeline.Errorf(timeline.ErrInvalidAnimation, -1,
			"holds %d+%d leave no animated frames out of %d", opts.HoldStart, opts.HoldEnd, frameCount)
	}
	if _, err := ParseEasing(string(opts.Easing)); err != nil {
		return nil, timeline.Errorf(timeline.ErrInvalidAnimation, -1, "%v", err)
	}

	n := sc.Milestones
	progress := make([]float64, frameCount)
	revealed := make([]int, frameCount)
	running := 0
	for i := range progress {
		p := opts.Easing.Apply(opts.timeAt(i, frameCount)) * float64(n)
		k := int(math.Ceil(p - 1e-9))
		if !opts.EmptyLeadIn && n > 0 {
			k = max(k, 1)
		}
		running = min(n, max(running, k))
		progress[i], revealed[i] = p, running
	}

	frames := make([]Frame, frameCount)
	g, ctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)
	for i := range frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			frames[i] = build(sc, i, progress[i], revealed[i], opts.Fade)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

// timeAt is the linear time of frame i after holds are applied.
func (o Options) timeAt(i, frameCount int) float64 {
	if frameCount == 1 {
		return 1
	}
	switch {
	case i < o.HoldStart:
		return 0
	case i >= frameCount-o.HoldEnd:
		return 1
	}
	animated := frameCount - o.HoldStart - o.HoldEnd
	if animated <= 1 {
		return 1
	}
	return float64(i-o.HoldStart) / float64(animated-1)
}

// build filters the scene for one frame.
func build(sc *scene.Scene, index int, p float64, k int, fade bool) Frame {
	f := Frame{Index: index, Progress: p, Revealed: k}
	if sc.Milestones > 0 {
		f.Progress = p / float64(sc.Milestones)
	}

	alpha := 1.0
	if fade && k > 0 {
		alpha = math.Max(minFade, math.Min(1, p-float64(k-1)))
	}
	for i, prim := range sc.Primitives {
		if !prim.Timeline() && prim.Rank+1 > k {
			continue
		}
		if alpha < 1 && prim.Rank+1 == k {
			prim.Opacity *= alpha
		}
		f.Indices = append(f.Indices, i)
		f.Primitives = append(f.Primitives, prim)
	}
	return f
}
