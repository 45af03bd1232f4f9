package textfit

import (
	"strings"
	"testing"
)

func TestHeuristicWidth(t *testing.T) {
	h := NewHeuristic()
	tests := []struct {
		in   string
		size float64
		want float64
	}{
		{"", 10, 0},
		{"abcde", 10, 30},
		{"日本", 10, 24},
	}
	for _, tt := range tests {
		if got := h.Width(tt.in, tt.size); got != tt.want {
			t.Errorf("Width(%q, %v) = %v, want %v", tt.in, tt.size, got, tt.want)
		}
	}
	if got := h.LineHeight(10); got != 12 {
		t.Errorf("LineHeight(10) = %v, want 12", got)
	}
}

func TestWrap(t *testing.T) {
	h := NewHeuristic()
	// 6px per column at size 10: 60px holds 10 columns.
	lines := Wrap(h, "the quick brown fox jumps", 10, 60)
	if len(lines) < 3 {
		t.Fatalf("Wrap() = %q, want at least 3 lines", lines)
	}
	for _, l := range lines {
		if w := h.Width(l, 10); w > 60 {
			t.Errorf("line %q is %vpx, want <= 60", l, w)
		}
	}
	if got := strings.Join(lines, " "); got != "the quick brown fox jumps" {
		t.Errorf("rejoined = %q", got)
	}

	if got := Wrap(h, "short", 10, 600); len(got) != 1 || got[0] != "short" {
		t.Errorf("Wrap(short) = %q", got)
	}
	if got := Wrap(h, "   ", 10, 60); got != nil {
		t.Errorf("Wrap(blank) = %q, want nil", got)
	}

	long := Wrap(h, "supercalifragilistic", 10, 60)
	for _, l := range long {
		if w := h.Width(l, 10); w > 60 {
			t.Errorf("hard-broken line %q is %vpx", l, w)
		}
	}
}

func TestTruncate(t *testing.T) {
	h := NewHeuristic()
	got, changed := Truncate(h, "Release candidate", 10, 60)
	if !changed {
		t.Fatal("Truncate() did not report a change")
	}
	if !strings.HasSuffix(got, Ellipsis) {
		t.Errorf("Truncate() = %q, want ellipsis suffix", got)
	}
	if w := h.Width(got, 10); w > 60 {
		t.Errorf("truncated width %v > 60", w)
	}
	if got != "Release c…" {
		t.Errorf("Truncate() = %q, want %q", got, "Release c…")
	}

	same, changed := Truncate(h, "fits", 10, 60)
	if changed || same != "fits" {
		t.Errorf("Truncate(fits) = %q, %v", same, changed)
	}

	tiny, changed := Truncate(h, "nothing fits", 10, 1)
	if !changed || tiny != Ellipsis {
		t.Errorf("Truncate(tiny) = %q, %v, want bare ellipsis", tiny, changed)
	}
}

func TestMeasureBlock(t *testing.T) {
	h := NewHeuristic()
	e := MeasureBlock(h, []Line{{"Title", 20}, {"description", 10}})
	if e.Width != 66 {
		t.Errorf("Width = %v, want 66", e.Width)
	}
	if e.Height != 36 {
		t.Errorf("Height = %v, want 36", e.Height)
	}
}

func TestFontMeasurers(t *testing.T) {
	for _, name := range []string{"shaping", "face"} {
		t.Run(name, func(t *testing.T) {
			m, err := ByName(name)
			if err != nil {
				t.Fatalf("ByName(%q) error = %v", name, err)
			}
			short := m.Width("Beta", 14)
			long := m.Width("Beta release", 14)
			if short <= 0 || long <= short {
				t.Errorf("widths %v, %v not increasing", short, long)
			}
			if m.Width("Beta", 28) <= short {
				t.Error("width does not grow with size")
			}
			if m.LineHeight(14) < 14 {
				t.Errorf("LineHeight(14) = %v", m.LineHeight(14))
			}
		})
	}

	if _, err := ByName("crayon"); err == nil {
		t.Error("ByName(crayon) succeeded")
	}
}
