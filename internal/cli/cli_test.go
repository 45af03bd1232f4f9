package cli

import (
	"bytes"
	"context"
	"errors"
	"image/gif"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"timelinegen/internal/config"
	"timelinegen/internal/engine"
	"timelinegen/internal/layout"
	"timelinegen/internal/theme"
	"timelinegen/internal/timeline"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	defaultLogger := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(defaultLogger)
		engine.SetLogger(nil)
	})

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeExample(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data, err := config.Example().Marshal(strings.TrimPrefix(filepath.Ext(name), "."))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGenerateFormats(t *testing.T) {
	input := writeExample(t, "roadmap.yaml")
	dir := t.TempDir()

	out, err := run(t, "generate", input, "-f", "svg", "-o", filepath.Join(dir, "out.svg"))
	if err != nil {
		t.Fatalf("generate svg: %v", err)
	}
	if !strings.Contains(out, "generated successfully") {
		t.Errorf("stdout = %q", out)
	}
	data, err := os.ReadFile(filepath.Join(dir, "out.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("<?xml")) || !bytes.Contains(data, []byte("Kickoff")) {
		t.Errorf("unexpected SVG:\n%.200s", data)
	}

	pngPath := filepath.Join(dir, "out.png")
	if _, err := run(t, "generate", input, "-o", pngPath, "-w", "600", "--height", "300"); err != nil {
		t.Fatalf("generate png: %v", err)
	}
	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output extension did not select PNG: %v", err)
	}
	if img.Bounds().Dx() != 600 {
		t.Errorf("png width = %d, want 600", img.Bounds().Dx())
	}

	gifPath := filepath.Join(dir, "out.gif")
	if _, err := run(t, "generate", input, "-f", "gif", "-o", gifPath, "-w", "600", "--height", "300", "--frames", "4", "--fade"); err != nil {
		t.Fatalf("generate gif: %v", err)
	}
	g, err := os.Open(gifPath)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()
	anim, err := gif.DecodeAll(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Image) != 4 {
		t.Errorf("gif frames = %d, want 4", len(anim.Image))
	}
}

func TestGenerateCSVWithConfig(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "events.csv")
	csvData := "Timestamp,Title,Description\n2024-01-15,Kickoff,Scope agreed\n2024-04-01,Beta,Preview\n"
	if err := os.WriteFile(csvPath, []byte(csvData), 0644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "style.yaml")
	if err := os.WriteFile(cfgPath, []byte("theme: dark\noutput:\n  format: svg\n"), 0644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "events.svg")
	if _, err := run(t, "generate", csvPath, "--config", cfgPath, "-o", outPath); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	dark, _ := theme.Lookup("dark")
	if !bytes.Contains(data, []byte(dark.Colors.Background)) {
		t.Error("config theme not applied to CSV input")
	}
	if !bytes.Contains(data, []byte("Beta")) {
		t.Error("CSV milestone missing")
	}
}

func TestGenerateErrors(t *testing.T) {
	input := writeExample(t, "roadmap.yaml")
	dir := t.TempDir()

	if _, err := run(t, "generate", filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing input accepted")
	}
	if _, err := run(t, "generate", input, "-f", "bmp", "-o", filepath.Join(dir, "x.bmp")); err == nil {
		t.Error("unknown format accepted")
	}

	out := filepath.Join(dir, "gantt.svg")
	_, err := run(t, "generate", input, "-s", "gantt", "-o", out)
	if !errors.Is(err, timeline.ErrUnsupportedStyle) {
		t.Errorf("gantt without durations: err = %v, want ErrUnsupportedStyle", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("failed render left an output file behind")
	}
}

func TestGenerateResolutionLimits(t *testing.T) {
	input := writeExample(t, "roadmap.yaml")
	dir := t.TempDir()
	for _, res := range []string{"0", "-2", "10"} {
		out := filepath.Join(dir, "res.png")
		if _, err := run(t, "generate", input, "-o", out, "--resolution="+res); err == nil {
			t.Errorf("--resolution %s accepted", res)
		}
		if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
			t.Errorf("--resolution %s left an output file behind", res)
		}
	}
	// SVG output ignores the raster multiplier.
	if _, err := run(t, "generate", input, "-o", filepath.Join(dir, "res.svg"), "--resolution", "10"); err != nil {
		t.Errorf("svg with --resolution 10: %v", err)
	}
}

type closeFailer struct {
	bytes.Buffer
	closed int
}

func (c *closeFailer) Close() error {
	c.closed++
	return errors.New("disk full")
}

func TestWriteOutputReportsCloseError(t *testing.T) {
	var wc closeFailer
	err := writeOutput(&wc, func(w io.Writer) error {
		_, err := io.WriteString(w, "<svg/>")
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "error closing output file") {
		t.Errorf("writeOutput() error = %v, want close error", err)
	}
	if wc.closed != 1 {
		t.Errorf("closed %d times, want 1", wc.closed)
	}

	wc = closeFailer{}
	encErr := errors.New("encode failed")
	if err := writeOutput(&wc, func(io.Writer) error { return encErr }); !errors.Is(err, encErr) {
		t.Errorf("writeOutput() error = %v, want encode error", err)
	}
	if wc.closed != 1 {
		t.Errorf("closed %d times after encode error, want 1", wc.closed)
	}
}

func TestQuick(t *testing.T) {
	out := filepath.Join(t.TempDir(), "quick.svg")
	if _, err := run(t, "quick", "2024-01-15:Kickoff", "2024-06-01 09:30:Launch", "--title", "Plan", "-o", out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Plan", "Kickoff", "Launch"} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("output lacks %q", want)
		}
	}

	if _, err := run(t, "quick", "not-a-date:Oops", "-o", out); err == nil {
		t.Error("bad entry accepted")
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.toml")
	if _, err := run(t, "init", "-o", path); err != nil {
		t.Fatal(err)
	}
	doc, err := config.Load(path)
	if err != nil {
		t.Fatalf("written example does not load: %v", err)
	}
	if len(doc.Milestones) != len(config.Example().Milestones) {
		t.Errorf("loaded %d milestones", len(doc.Milestones))
	}
	if _, err := run(t, "init", "-o", path); err == nil {
		t.Error("init overwrote an existing file without --force")
	}
	if _, err := run(t, "init", "-o", path, "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestListCommands(t *testing.T) {
	out, err := run(t, "styles")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range timeline.Styles {
		strategy, err := layout.Lookup(s)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, string(s)) || !strings.Contains(out, strategy.Description()) {
			t.Errorf("styles output lacks %s", s)
		}
	}

	out, err = run(t, "themes")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range theme.Names() {
		if !strings.Contains(out, theme.DisplayName(name)) {
			t.Errorf("themes output lacks %s", name)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("escape sequences written to a non-terminal")
	}

	out, err = run(t, "version")
	if err != nil || !strings.Contains(out, Version) {
		t.Errorf("version = %q, %v", out, err)
	}
}

func TestPreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	doc := `title: Plan
theme: corporate
milestones:
  - date: 2024-06-01
    title: Launch
    highlight: true
  - date: 2024-01-15
    title: Kickoff
    category: Eng
    progress: 50
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "preview", path)
	if err != nil {
		t.Fatal(err)
	}
	kick, launch := strings.Index(out, "Kickoff"), strings.Index(out, "Launch")
	if kick < 0 || launch < 0 || kick > launch {
		t.Errorf("milestones not in chronological order:\n%s", out)
	}
	for _, want := range []string{"Plan", "2024-01-15", "[Eng, 50%]", "Horizontal · Corporate"} {
		if !strings.Contains(out, want) {
			t.Errorf("preview lacks %q:\n%s", want, out)
		}
	}
}

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		input, output, format, want string
	}{
		{"data/events.csv", "", "svg", "events.svg"},
		{"roadmap.yaml", "", "gif", "roadmap.gif"},
		{"roadmap.yaml", "custom.png", "svg", "custom.png"},
		{"timeline", "", "png", "timeline.png"},
	}
	for _, tt := range tests {
		if got := outputFilename(tt.input, tt.output, tt.format); got != tt.want {
			t.Errorf("outputFilename(%q, %q, %q) = %q, want %q", tt.input, tt.output, tt.format, got, tt.want)
		}
	}
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte("title: a\n"), 0644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() { done <- watch(ctx, []string{path}, func() { calls.Add(1) }) }()

	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		if err := os.WriteFile(path, []byte("title: b\n"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * debounce)
	}
	if calls.Load() == 0 {
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("watch did not stop on cancel")
	}
}

func TestSetupLogging(t *testing.T) {
	defaultLogger := slog.Default()
	defer func() {
		slog.SetDefault(defaultLogger)
		engine.SetLogger(nil)
	}()

	var buf bytes.Buffer
	setupLogging(&buf, "debug")
	if !engine.Logger().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("engine logger not at debug level")
	}
	setupLogging(&buf, "bogus")
	if engine.Logger().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("unknown level should fall back to warn")
	}
}
