package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"timelinegen/internal/config"
	"timelinegen/internal/engine"
	"timelinegen/internal/render/raster"
	"timelinegen/internal/render/svg"
	"timelinegen/internal/timeline"
)

// outputFlags are the overrides shared by generate and quick.
type outputFlags struct {
	output      string
	format      string
	style       string
	theme       string
	scale       string
	width       int
	height      int
	fps         int
	duration    float64
	frames      int
	transparent bool
	accent      string
	easing      string
	fade        bool
	resolution  float64
}

func (f *outputFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "Output file, '-' for stdout (default: input name with the format extension)")
	fl.StringVarP(&f.format, "format", "f", "", "Output format: svg, png, gif")
	fl.StringVarP(&f.style, "style", "s", "", "Layout style: horizontal, vertical, gantt, roadmap, infographic")
	fl.StringVarP(&f.theme, "theme", "t", "", "Theme: minimal, corporate, creative, dark")
	fl.StringVar(&f.scale, "scale", "", "Time scale: hourly, daily, weekly, monthly, quarterly, yearly")
	fl.IntVarP(&f.width, "width", "w", 0, "Canvas width in pixels")
	fl.IntVar(&f.height, "height", 0, "Canvas height in pixels")
	fl.IntVar(&f.fps, "fps", 0, "GIF frames per second")
	fl.Float64VarP(&f.duration, "duration", "d", 0, "GIF duration in seconds")
	fl.IntVar(&f.frames, "frames", 0, "GIF frame count (overrides --fps and --duration)")
	fl.BoolVar(&f.transparent, "transparent", false, "Leave the background unpainted")
	fl.StringVar(&f.accent, "accent-color", "", "Accent color override (#RRGGBB)")
	fl.StringVar(&f.easing, "easing", "", "GIF easing: linear, ease-in, ease-out, ease-in-out")
	fl.BoolVar(&f.fade, "fade", false, "Fade milestones in during GIF animation")
	fl.Float64Var(&f.resolution, "resolution", 1, "Raster resolution multiplier for PNG and GIF")
}

// apply copies every flag the user set onto doc. The format falls back to
// the output extension when --format is absent.
func (f *outputFlags) apply(cmd *cobra.Command, doc *config.Document) {
	changed := cmd.Flags().Changed
	set := func(name string, fn func()) {
		if changed(name) {
			fn()
		}
	}
	set("style", func() { doc.Style = f.style })
	set("theme", func() { doc.Theme = f.theme })
	set("scale", func() { doc.Scale = f.scale })
	set("width", func() { doc.Output.Width = f.width })
	set("height", func() { doc.Output.Height = f.height })
	set("fps", func() { doc.Output.FPS = f.fps })
	set("duration", func() { doc.Output.Duration = f.duration })
	set("frames", func() { doc.Output.Frames = f.frames })
	set("transparent", func() { doc.Output.Transparent = f.transparent })
	set("accent-color", func() { doc.Colors.Accent = f.accent })
	set("easing", func() { doc.Output.Easing = f.easing })
	set("fade", func() { doc.Output.Fade = f.fade })

	switch {
	case changed("format"):
		doc.Output.Format = strings.ToLower(f.format)
	case f.output != "" && f.output != "-":
		if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.output)), "."); slices.Contains(config.Formats, ext) {
			doc.Output.Format = ext
		}
	}
}

type generateFlags struct {
	outputFlags
	config string
	watch  bool
}

func newGenerateCmd() *cobra.Command {
	var flags generateFlags
	cmd := &cobra.Command{
		Use:   "generate FILE",
		Short: "Render a timeline file",
		Long: `Render the timeline described in FILE.

FILE may be YAML, JSON, TOML or CSV. CSV files carry milestones only; use
--config to supply the remaining settings and column names.

Examples:
  timelinegen generate roadmap.yaml
  timelinegen generate roadmap.yaml -f gif --fps 24 -d 4 --fade
  timelinegen generate events.csv --config style.yaml -o events.png
  timelinegen generate roadmap.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0], &flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.config, "config", "", "Settings file for CSV input")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "Re-render whenever FILE or --config changes")
	return cmd
}

func runGenerate(cmd *cobra.Command, input string, flags *generateFlags) error {
	build := func(ctx context.Context) error {
		doc, err := loadDocument(input, flags.config)
		if err != nil {
			return err
		}
		flags.apply(cmd, &doc)
		fmt.Fprintf(cmd.ErrOrStderr(), "Loaded %d milestones from %s\n", len(doc.Milestones), input)
		return export(ctx, cmd.OutOrStdout(), doc, outputFilename(input, flags.output, doc.Output.Format), flags.resolution)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !flags.watch {
		return build(ctx)
	}
	if err := build(ctx); err != nil {
		slog.Error("render failed", "file", input, "error", err)
	}
	paths := []string{input}
	if flags.config != "" {
		paths = append(paths, flags.config)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", strings.Join(paths, ", "))
	return watch(ctx, paths, func() {
		if err := build(ctx); err != nil {
			slog.Error("render failed", "file", input, "error", err)
		}
	})
}

// loadDocument reads input. A CSV input is layered over the settings in
// configPath; any other input replaces them.
func loadDocument(input, configPath string) (config.Document, error) {
	if !strings.EqualFold(filepath.Ext(input), ".csv") {
		if configPath != "" {
			slog.Warn("--config ignored for non-CSV input", "file", input)
		}
		return config.Load(input)
	}
	doc := config.Default()
	if configPath != "" {
		var err error
		if doc, err = config.Load(configPath); err != nil {
			return config.Document{}, err
		}
	}
	f, err := os.Open(input)
	if err != nil {
		return config.Document{}, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer f.Close()
	if err := doc.ReadCSV(f); err != nil {
		return config.Document{}, fmt.Errorf("error parsing CSV file: %w", err)
	}
	return doc, nil
}

// export validates doc, renders it and writes the result to path. A path
// of "-" writes to stdout.
func export(ctx context.Context, stdout io.Writer, doc config.Document, path string, resolution float64) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	spec, err := doc.Spec()
	if err != nil {
		return err
	}
	opts, err := doc.EngineOptions()
	if err != nil {
		return err
	}
	if doc.Output.Format != "svg" {
		if err := doc.CheckResolution(resolution); err != nil {
			return err
		}
	}
	e := engine.New(opts...)
	enc := func(w io.Writer) error { return encode(ctx, w, e, doc, spec, resolution) }

	if path == "-" {
		return enc(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	if err := writeOutput(f, enc); err != nil {
		os.Remove(path)
		return err
	}
	fmt.Fprintf(stdout, "Timeline %s generated successfully: %s\n", strings.ToUpper(doc.Output.Format), path)
	return nil
}

// writeOutput runs enc against wc and closes it. A failed close is an error
// even when encoding succeeded, since buffered data may not have reached
// the file.
func writeOutput(wc io.WriteCloser, enc func(io.Writer) error) error {
	if err := enc(wc); err != nil {
		wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("error closing output file: %w", err)
	}
	return nil
}

func encode(ctx context.Context, w io.Writer, e *engine.Engine, doc config.Document, spec *timeline.Spec, resolution float64) error {
	transparent := doc.Output.Transparent
	switch doc.Output.Format {
	case "svg":
		sc, err := e.Render(spec)
		if err != nil {
			return err
		}
		return svg.Render(w, sc, svg.Transparent(transparent))

	case "png":
		sc, err := e.Render(spec)
		if err != nil {
			return err
		}
		c, err := raster.New(raster.Transparent(transparent), raster.Scale(resolution))
		if err != nil {
			return err
		}
		return c.EncodePNG(w, sc)

	case "gif":
		n, aopts, err := doc.Animation()
		if err != nil {
			return err
		}
		sc, frames, err := e.Animate(ctx, spec, n, aopts)
		if err != nil {
			return err
		}
		c, err := raster.New(raster.Transparent(transparent), raster.Scale(resolution))
		if err != nil {
			return err
		}
		return c.EncodeGIF(ctx, w, sc, frames, raster.GIFOptions{FPS: float64(doc.Output.FPS)})
	}
	return fmt.Errorf("output format %q not one of %v", doc.Output.Format, config.Formats)
}

// outputFilename returns outputFile when set, else the base name of input
// with the extension of format.
func outputFilename(input, outputFile, format string) string {
	if outputFile != "" {
		return outputFile
	}
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "." + format
}
