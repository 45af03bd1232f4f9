package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"timelinegen/internal/config"
	"timelinegen/internal/engine"
	"timelinegen/internal/scene"
	"timelinegen/internal/theme"
	"timelinegen/internal/timeline"
)

// palette holds the preview styles. Plain output uses zero styles.
type palette struct {
	title, muted, date, highlight, warn lipgloss.Style
	swatch                              func(hex string) string
}

func newPalette(color bool) palette {
	if !color {
		return palette{swatch: func(string) string { return "" }}
	}
	return palette{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89B4FA")),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		date:      lipgloss.NewStyle().Foreground(lipgloss.Color("#94E2D5")),
		highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF")),
		warn:      lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		swatch: func(hex string) string {
			return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  ") + " "
		},
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// useColor reports whether styled output should be written to w.
func useColor(w io.Writer) bool {
	return isTerminal(w) && !termenv.EnvNoColor()
}

// termWidth returns the column count of w, or 0 when w is not a terminal.
func termWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !isTerminal(w) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func newPreviewCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Print the laid-out timeline in the terminal",
		Long: `Lay out FILE and print its milestones in chronological order together
with the label each one received after collision resolution.

Nothing is written to disk. Colors are used only when stdout is a terminal.

Examples:
  timelinegen preview roadmap.yaml
  timelinegen preview events.csv --config style.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0], configPath)
			if err != nil {
				return err
			}
			return runPreview(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Settings file for CSV input")
	return cmd
}

func runPreview(w io.Writer, doc config.Document) error {
	spec, err := doc.Spec()
	if err != nil {
		return err
	}
	opts, err := doc.EngineOptions()
	if err != nil {
		return err
	}
	sc, err := engine.New(opts...).Render(spec)
	if err != nil {
		return err
	}

	p := newPalette(useColor(w))
	width := termWidth(w)
	var b strings.Builder
	if spec.Title != "" {
		b.WriteString(p.title.Render(spec.Title) + "\n")
	}
	if spec.Subtitle != "" {
		b.WriteString(spec.Subtitle + "\n")
	}
	b.WriteString(p.muted.Render(fmt.Sprintf("%s · %s · %s · %d milestones · %gx%g",
		theme.DisplayName(string(spec.Style)), theme.DisplayName(sc.Theme), spec.Scale,
		len(spec.Milestones), sc.Width, sc.Height)) + "\n\n")

	labels := make(map[int]scene.Primitive)
	colors := make(map[int]string)
	for _, prim := range sc.Primitives {
		switch prim.Kind {
		case scene.KindLabel:
			labels[prim.Milestone] = prim
		case scene.KindMarker, scene.KindBar:
			colors[prim.Milestone] = prim.Fill
		}
	}

	order := make([]int, len(spec.Milestones))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return spec.Milestones[a].Timestamp.Compare(spec.Milestones[b].Timestamp)
	})

	for _, i := range order {
		m := spec.Milestones[i]
		var line strings.Builder
		line.WriteString("  " + p.swatch(colors[i]))
		line.WriteString(p.date.Render(dateFor(m.Timestamp, spec.Scale)) + "  ")
		title := m.Title
		if m.Highlight {
			title = p.highlight.Render(title)
		}
		line.WriteString(title)
		if extra := details(m); extra != "" {
			line.WriteString(" " + p.muted.Render(extra))
		}
		if status := labelStatus(labels, i); status != "" {
			line.WriteString(" " + p.warn.Render(status))
		}
		row := line.String()
		if width > 0 {
			row = truncate.StringWithTail(row, uint(width), "…")
		}
		b.WriteString(row + "\n")
	}

	_, err = io.WriteString(w, b.String())
	return err
}

func dateFor(t time.Time, s timeline.Scale) string {
	switch s {
	case timeline.Hourly:
		return t.Format("2006-01-02 15:04")
	case timeline.Yearly:
		return t.Format("2006")
	}
	return t.Format("2006-01-02")
}

func details(m timeline.Milestone) string {
	var parts []string
	if m.Category != "" {
		parts = append(parts, m.Category)
	}
	if m.Badge != "" {
		parts = append(parts, m.Badge)
	}
	if m.HasDuration() {
		parts = append(parts, "until "+m.End().Format("2006-01-02"))
	}
	if m.Progress != nil {
		parts = append(parts, fmt.Sprintf("%.0f%%", *m.Progress*100))
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// labelStatus describes how collision resolution reduced milestone i's
// label, or returns "" when it kept its full text.
func labelStatus(labels map[int]scene.Primitive, i int) string {
	l, ok := labels[i]
	if !ok {
		return "(label hidden)"
	}
	for _, run := range l.Text {
		if strings.HasSuffix(run.Text, "…") {
			return "(label truncated)"
		}
	}
	return ""
}
