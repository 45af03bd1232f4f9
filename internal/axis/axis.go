// Package axis maps milestone timestamps onto a normalized time axis and
// generates the tick labels for a chosen scale.
package axis

import (
	"fmt"
	"sort"
	"time"

	"timelinegen/internal/timeline"
)

// Position is the normalized location of one milestone on the axis.
type Position struct {
	// Index is the milestone's input index.
	Index int
	// Value is in [0,1].
	Value float64
	// Rank is the 0-based chronological rank; equal timestamps keep input
	// order.
	Rank int
}

// Tick is a labelled unit boundary on the axis.
type Tick struct {
	Time  time.Time
	Value float64
	Label string
}

// Axis is the time extent of one render pass.
type Axis struct {
	Scale timeline.Scale
	Min   time.Time
	Max   time.Time
}

// New computes the axis extent for the milestones. The extent covers every
// start timestamp and, for milestones with a duration, every end time.
// When all instants coincide the axis spans a single unit of the scale so
// that normalization never divides by zero.
func New(ms []timeline.Milestone, scale timeline.Scale) (*Axis, error) {
	if len(ms) == 0 {
		return nil, timeline.Errorf(timeline.ErrInvalidTimeline, -1, "no milestones to place on the axis")
	}
	var lo, hi time.Time
	for i, m := range ms {
		if m.Timestamp.IsZero() {
			return nil, timeline.Errorf(timeline.ErrInvalidTimeline, i, "timestamp of %q cannot be ordered", m.Title)
		}
		end := m.Timestamp
		if m.HasDuration() {
			end = m.End()
		}
		if i == 0 || m.Timestamp.Before(lo) {
			lo = m.Timestamp
		}
		if i == 0 || end.After(hi) {
			hi = end
		}
	}
	if !hi.After(lo) {
		hi = scale.Add(lo, 1)
	}
	return &Axis{Scale: scale, Min: lo, Max: hi}, nil
}

// Span returns the axis length.
func (a *Axis) Span() time.Duration { return a.Max.Sub(a.Min) }

// Value maps t to [0,1], clamping instants outside the axis.
func (a *Axis) Value(t time.Time) float64 {
	span := a.Span()
	if span <= 0 {
		return 0
	}
	v := float64(t.Sub(a.Min)) / float64(span)
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Map returns one Position per milestone, in input order.
func (a *Axis) Map(ms []timeline.Milestone) ([]Position, error) {
	out := make([]Position, len(ms))
	for i, m := range ms {
		if m.Timestamp.IsZero() {
			return nil, timeline.Errorf(timeline.ErrInvalidTimeline, i, "timestamp of %q cannot be ordered", m.Title)
		}
		out[i] = Position{Index: i, Value: a.Value(m.Timestamp)}
	}
	for rank, idx := range Chronological(ms) {
		out[idx].Rank = rank
	}
	return out, nil
}

// MapToAxis builds the axis for ms and maps every milestone onto it.
func MapToAxis(ms []timeline.Milestone, scale timeline.Scale) (*Axis, []Position, error) {
	a, err := New(ms, scale)
	if err != nil {
		return nil, nil, err
	}
	pos, err := a.Map(ms)
	if err != nil {
		return nil, nil, err
	}
	return a, pos, nil
}

// Chronological returns milestone input indices sorted by timestamp, ties
// broken by input order.
func Chronological(ms []timeline.Milestone) []int {
	idx := make([]int, len(ms))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return ms[idx[i]].Timestamp.Before(ms[idx[j]].Timestamp)
	})
	return idx
}

// Ticks returns the unit boundaries inside the axis, thinned with a constant
// stride so that no more than max ticks are produced. max <= 0 means no limit.
func (a *Axis) Ticks(max int) []Tick {
	start := a.Scale.Floor(a.Min)
	if start.Before(a.Min) {
		start = a.Scale.Add(start, 1)
	}
	if start.After(a.Max) {
		return nil
	}

	stride := 1
	if max > 0 {
		unit := a.Scale.Unit(start)
		approx := int(a.Max.Sub(start)/unit) + 1
		if approx > max {
			stride = (approx + max - 1) / max
		}
	}

	var ticks []Tick
	for k := 0; ; k += stride {
		t := a.Scale.Add(start, k)
		if t.After(a.Max) {
			break
		}
		if max > 0 && len(ticks) == max {
			break
		}
		ticks = append(ticks, Tick{Time: t, Value: a.Value(t), Label: Label(a.Scale, t)})
	}
	return ticks
}

// Label formats t for the given scale.
func Label(scale timeline.Scale, t time.Time) string {
	switch scale {
	case timeline.Hourly:
		return t.Format("15:04")
	case timeline.Daily:
		return t.Format("Jan 02")
	case timeline.Weekly:
		_, week := t.ISOWeek()
		return fmt.Sprintf("W%d", week)
	case timeline.Quarterly:
		return fmt.Sprintf("Q%d %d", (int(t.Month())-1)/3+1, t.Year())
	case timeline.Yearly:
		return t.Format("2006")
	default:
		return t.Format("Jan 2006")
	}
}
