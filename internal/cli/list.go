package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"timelinegen/internal/config"
	"timelinegen/internal/layout"
	"timelinegen/internal/theme"
)

func newStylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List layout styles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPalette(useColor(cmd.OutOrStdout()))
			w := cmd.OutOrStdout()
			for _, s := range layout.Styles() {
				strategy, err := layout.Lookup(s)
				if err != nil {
					return err
				}
				name := lipgloss.NewStyle().Width(14).Render(string(s))
				fmt.Fprintf(w, "  %s%s\n", p.title.Render(name), strategy.Description())
			}
			return nil
		},
	}
}

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List color themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPalette(useColor(cmd.OutOrStdout()))
			w := cmd.OutOrStdout()
			for _, name := range theme.Names() {
				th, err := theme.Lookup(name)
				if err != nil {
					return err
				}
				label := lipgloss.NewStyle().Width(12).Render(th.DisplayName())
				var swatches strings.Builder
				for _, c := range []string{th.Colors.Background, th.Colors.Accent, th.Colors.Secondary, th.Colors.Highlight} {
					swatches.WriteString(p.swatch(c))
				}
				fmt.Fprintf(w, "  %s%s%s %s\n", p.title.Render(label), swatches.String(),
					p.muted.Render(string(th.Shape)+" markers"), p.muted.Render(th.Colors.Accent))
			}
			return nil
		},
	}
}

func newInitCmd() *cobra.Command {
	var (
		output string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example timeline file",
		Long: `Write an example timeline to start from. The extension of --output
picks the encoding: .yaml, .json or .toml.

Examples:
  timelinegen init
  timelinegen init -o roadmap.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
			data, err := config.Example().Marshal(format)
			if err != nil {
				return err
			}
			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", output)
				}
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("error writing %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Example timeline written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "timeline.yaml", "File to write")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "timelinegen %s\n", Version)
		},
	}
}
