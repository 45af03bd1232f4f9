// Package engine runs the layout pipeline: axis mapping, style strategy,
// collision resolution and scene assembly, then optionally derives
// animation frames from the scene.
//
// An Engine holds only configuration. Every Render call builds its own
// intermediate state, so one Engine may serve concurrent renders.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"timelinegen/internal/animation"
	"timelinegen/internal/axis"
	"timelinegen/internal/collision"
	"timelinegen/internal/layout"
	"timelinegen/internal/scene"
	"timelinegen/internal/textfit"
	"timelinegen/internal/theme"
	"timelinegen/internal/timeline"
)

// Engine renders timeline specs into scenes.
type Engine struct {
	params   layout.Params
	policy   collision.Policy
	measurer textfit.Measurer
}

// Option configures an Engine.
type Option func(*Engine)

// WithCanvas sets the canvas size in pixels.
func WithCanvas(width, height float64) Option {
	return func(e *Engine) {
		e.params.Width, e.params.Height = width, height
	}
}

// WithParams replaces the layout parameters. Font sizes and marker size are
// still taken from the resolved theme.
func WithParams(p layout.Params) Option {
	return func(e *Engine) {
		e.params = p
	}
}

// WithPolicy sets the collision policy.
func WithPolicy(p collision.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithMeasurer sets the text measurer shared by layout, resolver and scene.
func WithMeasurer(m textfit.Measurer) Option {
	return func(e *Engine) {
		if m != nil {
			e.measurer = m
		}
	}
}

// New returns an engine with a 1200x600 canvas, the default collision
// policy and the heuristic measurer.
func New(opts ...Option) *Engine {
	e := &Engine{
		params:   layout.DefaultParams(),
		policy:   collision.DefaultPolicy(),
		measurer: textfit.NewHeuristic(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render lays out spec and returns its scene. Errors wrap the kinds in
// package timeline; no partial scene is returned.
func (e *Engine) Render(spec *timeline.Spec) (*scene.Scene, error) {
	log := Logger().With("render_id", uuid.NewString())
	start := time.Now()

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	th, err := theme.Resolve(spec.Theme, spec.Colors, spec.Fonts, spec.MarkerShape)
	if err != nil {
		return nil, fmt.Errorf("resolve theme: %w", err)
	}

	ax, positions, err := axis.MapToAxis(spec.Milestones, spec.Scale)
	if err != nil {
		return nil, err
	}
	log.Debug("axis mapped", "min", ax.Min, "max", ax.Max, "scale", spec.Scale, "milestones", len(positions))

	params := e.paramsFor(th)
	res, err := layout.Run(layout.Input{Spec: spec, Axis: ax, Positions: positions, Params: params})
	if err != nil {
		return nil, err
	}
	for _, pl := range res.Placements {
		log.Debug("placement",
			"milestone", pl.Milestone, "rank", pl.Rank, "lane", pl.Lane,
			"x", pl.Anchor.X, "y", pl.Anchor.Y, "label", pl.Label.Box)
	}

	resolver := collision.New(e.policy, e.measurer, collision.WithLogger(log))
	report, err := resolver.Resolve(res.Placements, res.Bounds)
	if err != nil {
		return nil, err
	}
	log.Debug("collisions resolved",
		"iterations", report.Iterations, "shifts", report.Shifts,
		"truncated", report.Truncated, "hidden", report.Hidden, "remaining", report.Remaining)

	sc, err := scene.Assemble(res, th, spec, scene.WithMeasurer(e.measurer))
	if err != nil {
		return nil, err
	}
	log.Info("timeline rendered",
		"style", spec.Style, "theme", th.Name, "milestones", len(spec.Milestones),
		"primitives", len(sc.Primitives), "elapsed", time.Since(start))
	return sc, nil
}

// Animate renders spec and derives frameCount frames from the scene.
func (e *Engine) Animate(ctx context.Context, spec *timeline.Spec, frameCount int, opts animation.Options) (*scene.Scene, []animation.Frame, error) {
	if frameCount < 1 {
		return nil, nil, timeline.Errorf(timeline.ErrInvalidAnimation, -1, "frame count %d must be at least 1", frameCount)
	}
	sc, err := e.Render(spec)
	if err != nil {
		return nil, nil, err
	}
	frames, err := animation.FramesContext(ctx, sc, frameCount, opts)
	if err != nil {
		return nil, nil, err
	}
	Logger().Debug("frames derived", "frames", len(frames), "easing", opts.Easing)
	return sc, frames, nil
}

// paramsFor copies the engine parameters and fills the theme-dependent
// sizes.
func (e *Engine) paramsFor(th theme.Theme) layout.Params {
	p := e.params
	p.Measurer = e.measurer
	f := th.Fonts
	p.TitleSize = f.Label.Size
	p.BadgeSize = f.Badge.Size
	p.DateSize = f.Date.Size
	p.DescriptionSize = f.Description.Size
	p.HeadingSize = f.Title.Size
	p.SubtitleSize = f.Subtitle.Size
	p.TickSize = f.Date.Size
	if th.MarkerRadius > 0 {
		p.MarkerSize = th.MarkerRadius
	}
	if th.Margin > 0 {
		p.Margin = th.Margin
	}
	return p
}
