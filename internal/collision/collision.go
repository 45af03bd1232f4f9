// Package collision separates overlapping label boxes.
//
// The resolver only ever touches labels. Markers stay where the layout put
// them, so the chronological reading order survives any amount of label
// shuffling. Work is bounded: a fixed number of shift iterations followed by
// the configured text fallbacks, after which any remaining full-text
// overlap is reported as a layout overflow.
package collision

import (
	"fmt"
	"log/slog"
	"strings"

	"timelinegen/internal/layout"
	"timelinegen/internal/textfit"
	"timelinegen/internal/timeline"
)

// Fallback is a text-reduction step applied to a label that is still in
// conflict after the shift iterations.
type Fallback string

const (
	Truncate        Fallback = "truncate"
	HideDescription Fallback = "hide-description"
)

// Fallbacks lists the known fallbacks.
var Fallbacks = []Fallback{Truncate, HideDescription}

// ParseFallback returns the fallback named by s.
func ParseFallback(s string) (Fallback, error) {
	f := Fallback(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	for _, known := range Fallbacks {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown collision fallback %q (want one of %v)", s, Fallbacks)
}

// Policy configures the resolver.
type Policy struct {
	// Step is the distance a label moves per shift.
	Step float64
	// IterationFactor scales the iteration budget with the label count.
	IterationFactor int
	// MaxIterations caps the budget when positive.
	MaxIterations int
	// Padding is the clear space required between label boxes.
	Padding float64
	// Fallbacks are tried in order on labels still in conflict.
	Fallbacks []Fallback
	// TruncateWrapped allows truncating word-wrapped labels.
	TruncateWrapped bool
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		Step:            12,
		IterationFactor: 3,
		Padding:         4,
		Fallbacks:       []Fallback{Truncate, HideDescription},
	}
}

// Budget returns the number of shift iterations allowed for n labels.
func (p Policy) Budget(n int) int {
	b := max(1, p.IterationFactor*n)
	if p.MaxIterations > 0 {
		b = min(b, p.MaxIterations)
	}
	return b
}

// Report summarizes one Resolve call.
type Report struct {
	Iterations int
	Shifts     int
	Truncated  int
	Hidden     int
	// Remaining counts overlaps left in place because the lower-priority
	// label was reduced.
	Remaining int
}

// Resolver applies a Policy to a placement set.
type Resolver struct {
	policy Policy
	m      textfit.Measurer
	log    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for shift and fallback diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// New returns a resolver. Zero policy fields take their defaults.
func New(policy Policy, m textfit.Measurer, opts ...Option) *Resolver {
	def := DefaultPolicy()
	if policy.Step <= 0 {
		policy.Step = def.Step
	}
	if policy.IterationFactor <= 0 {
		policy.IterationFactor = def.IterationFactor
	}
	if policy.Padding < 0 {
		policy.Padding = 0
	}
	if policy.Fallbacks == nil {
		policy.Fallbacks = def.Fallbacks
	}
	if m == nil {
		m = textfit.NewHeuristic()
	}
	r := &Resolver{policy: policy, m: m, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the effective policy.
func (r *Resolver) Policy() Policy { return r.policy }

type pair struct{ a, b int }

// Resolve separates the labels of pls in place. Only label geometry and
// text change. Bounds limits where shifts may move a label.
func (r *Resolver) Resolve(pls []layout.Placement, bounds layout.Rect) (Report, error) {
	var rep Report
	if len(pls) < 2 {
		return rep, nil
	}

	budget := r.policy.Budget(len(pls))
	for it := 0; it < budget; it++ {
		pairs := r.conflicts(pls, r.policy.Padding)
		if len(pairs) == 0 {
			return rep, nil
		}
		rep.Iterations++
		moved := make([]bool, len(pls))
		progress := false
		for _, pr := range pairs {
			_, lo := r.rank(pls, pr)
			if moved[lo] || pls[lo].Shift.IsZero() {
				continue
			}
			moved[lo] = true
			if r.shift(&pls[lo], bounds) {
				rep.Shifts++
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	for _, pr := range r.conflicts(pls, r.policy.Padding) {
		hi, lo := r.rank(pls, pr)
		for _, fb := range r.policy.Fallbacks {
			if !r.overlap(pls[hi].Label.Box, pls[lo].Label.Box, r.policy.Padding) {
				break
			}
			r.apply(fb, &pls[lo], pls[hi].Label.Box, bounds, &rep)
		}
	}

	for _, pr := range r.conflicts(pls, 0) {
		hi, lo := r.rank(pls, pr)
		if pls[lo].Label.FullText() {
			return rep, timeline.Errorf(timeline.ErrLayoutOverflow, pls[lo].Milestone,
				"label still overlaps milestone %d after %d iterations and fallbacks %v",
				pls[hi].Milestone, rep.Iterations, r.policy.Fallbacks)
		}
		rep.Remaining++
	}
	return rep, nil
}

// conflicts returns the overlapping label pairs in input order.
func (r *Resolver) conflicts(pls []layout.Placement, padding float64) []pair {
	var out []pair
	for i := range pls {
		for j := i + 1; j < len(pls); j++ {
			if r.overlap(pls[i].Label.Box, pls[j].Label.Box, padding) {
				out = append(out, pair{i, j})
			}
		}
	}
	return out
}

func (r *Resolver) overlap(a, b layout.Rect, padding float64) bool {
	return a.Inflate(padding / 2).Intersects(b.Inflate(padding / 2))
}

// rank orders a pair as (higher priority, lower priority): highlighted
// labels first, then earlier chronological rank, then input order.
func (r *Resolver) rank(pls []layout.Placement, pr pair) (hi, lo int) {
	a, b := pls[pr.a], pls[pr.b]
	switch {
	case a.Highlight != b.Highlight:
		if a.Highlight {
			return pr.a, pr.b
		}
		return pr.b, pr.a
	case a.Rank != b.Rank:
		if a.Rank < b.Rank {
			return pr.a, pr.b
		}
		return pr.b, pr.a
	case a.Milestone <= b.Milestone:
		return pr.a, pr.b
	}
	return pr.b, pr.a
}

// shift moves a label one step along its shift direction. It refuses moves
// that would leave bounds.
func (r *Resolver) shift(pl *layout.Placement, bounds layout.Rect) bool {
	d := pl.Shift.Unit().Mul(r.policy.Step)
	if !pl.Label.Box.Translate(d).Within(bounds) {
		return false
	}
	pl.Label.Move(d, r.m)
	r.log.Debug("label shifted", "milestone", pl.Milestone, "dx", d.X, "dy", d.Y)
	return true
}

func (r *Resolver) apply(fb Fallback, pl *layout.Placement, other, bounds layout.Rect, rep *Report) {
	switch fb {
	case Truncate:
		if pl.Label.Wrapped && !r.policy.TruncateWrapped {
			return
		}
		l := &pl.Label
		room := r.room(*l, other, bounds)
		changed := r.truncate(l, room)
		// Narrowing cannot separate labels stacked on the same row, so
		// shrink the height too.
		if r.overlap(other, l.Box, r.policy.Padding) && r.collapse(l, room) {
			changed = true
		}
		if r.overlap(other, l.Box, r.policy.Padding) && l.FullText() && r.truncate(l, 0) {
			changed = true
		}
		if changed {
			rep.Truncated++
			r.log.Warn("label truncated", "milestone", pl.Milestone)
		}
	case HideDescription:
		if pl.Label.HideDescription() {
			pl.Label.Fit(r.m)
			rep.Hidden++
			r.log.Warn("label description hidden", "milestone", pl.Milestone)
		}
	}
}

// room is the text width a label can have without reaching other, measured
// from its pin and limited by bounds.
func (r *Resolver) room(l layout.Label, other, bounds layout.Rect) float64 {
	gap := r.policy.Padding
	var w float64
	switch l.Mode {
	case layout.PinRight:
		w = bounds.Right() - l.Pin.X
		if other.X > l.Pin.X {
			w = min(w, other.X-gap-l.Pin.X)
		}
	case layout.PinLeft:
		w = l.Pin.X - bounds.X
		if other.Right() < l.Pin.X {
			w = min(w, l.Pin.X-gap-other.Right())
		}
	default:
		var half float64
		if l.Pin.X >= other.Center().X {
			half = l.Pin.X - gap - other.Right()
		} else {
			half = other.X - gap - l.Pin.X
		}
		half = min(half, l.Pin.X-bounds.X, bounds.Right()-l.Pin.X)
		w = 2 * half
	}
	return w - 2*l.Pad
}

// truncate shortens every line to width and refits the box.
func (r *Resolver) truncate(l *layout.Label, width float64) bool {
	changed := false
	for i, tl := range l.Lines {
		s, ok := textfit.Truncate(r.m, tl.Text, tl.Size, width)
		if ok && s != tl.Text {
			l.Lines[i].Text = s
			changed = true
		}
	}
	if changed {
		l.Truncated = true
		l.Fit(r.m)
	}
	return changed
}

// collapse reduces a label to its first title line shortened to width,
// dropping badge, date and description lines. The kept line always ends in
// an ellipsis so the cut stays visible.
func (r *Resolver) collapse(l *layout.Label, width float64) bool {
	if len(l.Lines) < 2 {
		return false
	}
	keep := l.Lines[0]
	for _, tl := range l.Lines {
		if tl.Role == layout.RoleTitle {
			keep = tl
			break
		}
	}
	s, cut := textfit.Truncate(r.m, keep.Text, keep.Size, width)
	if !cut && !strings.HasSuffix(s, textfit.Ellipsis) {
		s, _ = textfit.Truncate(r.m, s+textfit.Ellipsis, keep.Size, width)
	}
	keep.Text = s
	l.Lines = []layout.TextLine{keep}
	l.Truncated = true
	l.Fit(r.m)
	return true
}
