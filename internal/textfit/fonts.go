package textfit

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Shaping measures advances with HarfBuzz over the embedded Go Regular font,
// so kerning and ligatures are reflected in label widths.
//
// Shaping is safe for concurrent use. The parsed font is shared and a face
// plus shaper is created per call, since neither is goroutine-safe.
type Shaping struct {
	font    *gotext.Font
	shapers sync.Pool
}

// NewShaping parses the embedded font.
func NewShaping() (*Shaping, error) {
	face, err := gotext.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("parse go regular: %w", err)
	}
	return &Shaping{
		font: face.Font,
		shapers: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
	}, nil
}

func (s *Shaping) Width(text string, size float64) float64 {
	if text == "" {
		return 0
	}
	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      gotext.NewFace(s.font),
		Size:      fixed.Int26_6(size * 64),
		Script:    scriptOf(runes),
		Language:  language.NewLanguage("en"),
	}
	hb := s.shapers.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	s.shapers.Put(hb)
	return float64(out.Advance) / 64
}

func (s *Shaping) LineHeight(size float64) float64 { return 1.2 * size }

// scriptOf returns the script of the first non-space rune.
func scriptOf(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// Face measures with x/image opentype faces built from Go Regular at 72 DPI,
// the same faces the raster canvas draws with.
type Face struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewFace parses the embedded font.
func NewFace() (*Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse go regular: %w", err)
	}
	return &Face{font: f, faces: make(map[float64]font.Face)}, nil
}

// face returns the cached face for size. The caller must hold mu.
func (f *Face) face(size float64) (font.Face, error) {
	if ff, ok := f.faces[size]; ok {
		return ff, nil
	}
	ff, err := opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	f.faces[size] = ff
	return ff, nil
}

func (f *Face) Width(s string, size float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	ff, err := f.face(size)
	if err != nil {
		return NewHeuristic().Width(s, size)
	}
	return float64(font.MeasureString(ff, s)) / 64
}

func (f *Face) LineHeight(size float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	ff, err := f.face(size)
	if err != nil {
		return NewHeuristic().LineHeight(size)
	}
	return math.Max(float64(ff.Metrics().Height)/64, size)
}

// Drawable returns the face used for size so a canvas can draw with exactly
// the metrics that were measured. The returned face must not be used
// concurrently with f.
func (f *Face) Drawable(size float64) (font.Face, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.face(size)
}
