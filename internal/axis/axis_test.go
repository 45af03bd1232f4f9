package axis

import (
	"errors"
	"testing"
	"time"

	"timelinegen/internal/timeline"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMapToAxisMonotonic(t *testing.T) {
	ms := []timeline.Milestone{
		{Timestamp: day(2024, 6, 1), Title: "c"},
		{Timestamp: day(2024, 1, 1), Title: "a"},
		{Timestamp: day(2024, 3, 1), Title: "b1"},
		{Timestamp: day(2024, 12, 31), Title: "d"},
		{Timestamp: day(2024, 3, 1), Title: "b2"},
	}
	_, pos, err := MapToAxis(ms, timeline.Monthly)
	if err != nil {
		t.Fatalf("MapToAxis() error = %v", err)
	}
	if len(pos) != len(ms) {
		t.Fatalf("got %d positions, want %d", len(pos), len(ms))
	}

	wantRank := []int{3, 0, 1, 4, 2}
	for i, p := range pos {
		if p.Index != i {
			t.Errorf("pos[%d].Index = %d", i, p.Index)
		}
		if p.Rank != wantRank[i] {
			t.Errorf("pos[%d].Rank = %d, want %d", i, p.Rank, wantRank[i])
		}
		if p.Value < 0 || p.Value > 1 {
			t.Errorf("pos[%d].Value = %v outside [0,1]", i, p.Value)
		}
	}
	if pos[1].Value != 0 || pos[3].Value != 1 {
		t.Errorf("extremes = %v, %v, want 0 and 1", pos[1].Value, pos[3].Value)
	}
	if pos[2].Value != pos[4].Value {
		t.Errorf("tied timestamps mapped to %v and %v", pos[2].Value, pos[4].Value)
	}

	// Non-decreasing along chronological order.
	order := Chronological(ms)
	for k := 1; k < len(order); k++ {
		if pos[order[k]].Value < pos[order[k-1]].Value {
			t.Errorf("value decreases between rank %d and %d", k-1, k)
		}
	}
}

func TestMapToAxisIdenticalTimestamps(t *testing.T) {
	ts := day(2024, 6, 15)
	ms := []timeline.Milestone{{Timestamp: ts}, {Timestamp: ts}, {Timestamp: ts}}
	a, pos, err := MapToAxis(ms, timeline.Daily)
	if err != nil {
		t.Fatalf("MapToAxis() error = %v", err)
	}
	if a.Span() != 24*time.Hour {
		t.Errorf("Span() = %v, want one day", a.Span())
	}
	for i, p := range pos {
		if p.Value != 0 {
			t.Errorf("pos[%d].Value = %v, want 0", i, p.Value)
		}
		if p.Rank != i {
			t.Errorf("pos[%d].Rank = %d, want input order %d", i, p.Rank, i)
		}
	}
}

func TestNewIncludesDurations(t *testing.T) {
	ms := []timeline.Milestone{
		{Timestamp: day(2024, 1, 1), Duration: 10 * 24 * time.Hour},
		{Timestamp: day(2024, 1, 5)},
	}
	a, err := New(ms, timeline.Daily)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Max.Equal(day(2024, 1, 11)) {
		t.Errorf("Max = %v, want end of the first task", a.Max)
	}
	if got := a.Value(day(2024, 1, 6)); got != 0.5 {
		t.Errorf("Value(mid) = %v, want 0.5", got)
	}
	if got := a.Value(day(2030, 1, 1)); got != 1 {
		t.Errorf("Value(after) = %v, want clamp to 1", got)
	}
}

func TestNewRejectsUnorderable(t *testing.T) {
	ms := []timeline.Milestone{{Timestamp: day(2024, 1, 1)}, {Title: "broken"}}
	_, _, err := MapToAxis(ms, timeline.Monthly)
	if !errors.Is(err, timeline.ErrInvalidTimeline) {
		t.Fatalf("error = %v, want ErrInvalidTimeline", err)
	}
	var te *timeline.Error
	if errors.As(err, &te) && te.Milestone != 1 {
		t.Errorf("Milestone = %d, want 1", te.Milestone)
	}
	if _, err := New(nil, timeline.Monthly); !errors.Is(err, timeline.ErrInvalidTimeline) {
		t.Errorf("New(nil) error = %v", err)
	}
}

func TestMapDeterministic(t *testing.T) {
	ms := []timeline.Milestone{
		{Timestamp: time.Date(2024, 2, 3, 7, 11, 0, 0, time.UTC)},
		{Timestamp: time.Date(2025, 9, 1, 23, 59, 0, 0, time.UTC)},
		{Timestamp: time.Date(2024, 11, 30, 0, 0, 1, 0, time.UTC)},
	}
	_, first, _ := MapToAxis(ms, timeline.Quarterly)
	for run := 0; run < 5; run++ {
		_, again, _ := MapToAxis(ms, timeline.Quarterly)
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("run %d: pos[%d] = %+v, want %+v", run, i, again[i], first[i])
			}
		}
	}
}

func TestTicks(t *testing.T) {
	ms := []timeline.Milestone{
		{Timestamp: day(2024, 1, 15)},
		{Timestamp: day(2024, 12, 1)},
	}
	a, err := New(ms, timeline.Monthly)
	if err != nil {
		t.Fatal(err)
	}
	ticks := a.Ticks(0)
	if len(ticks) != 11 {
		t.Fatalf("got %d ticks, want 11 (Feb..Dec)", len(ticks))
	}
	if ticks[0].Label != "Feb 2024" || ticks[10].Label != "Dec 2024" {
		t.Errorf("labels = %q .. %q", ticks[0].Label, ticks[10].Label)
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i].Value <= ticks[i-1].Value {
			t.Errorf("tick %d not increasing", i)
		}
	}

	thinned := a.Ticks(4)
	if len(thinned) == 0 || len(thinned) > 4 {
		t.Errorf("Ticks(4) returned %d ticks", len(thinned))
	}
}

func TestLabel(t *testing.T) {
	ts := time.Date(2024, 8, 7, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		scale timeline.Scale
		want  string
	}{
		{timeline.Hourly, "09:30"},
		{timeline.Daily, "Aug 07"},
		{timeline.Weekly, "W32"},
		{timeline.Monthly, "Aug 2024"},
		{timeline.Quarterly, "Q3 2024"},
		{timeline.Yearly, "2024"},
	}
	for _, tt := range tests {
		if got := Label(tt.scale, ts); got != tt.want {
			t.Errorf("Label(%s) = %q, want %q", tt.scale, got, tt.want)
		}
	}
}
