package cli

import (
	"github.com/spf13/cobra"

	"timelinegen/internal/config"
)

func newQuickCmd() *cobra.Command {
	var (
		flags    outputFlags
		title    string
		subtitle string
	)
	cmd := &cobra.Command{
		Use:   "quick DATE:TITLE...",
		Short: "Render a timeline from milestones given on the command line",
		Long: `Render a timeline without a config file. Each argument is a date and a
title separated by a colon. Dates accept the same layouts as config files.

Examples:
  timelinegen quick 2024-01-15:Kickoff 2024-03-01:Alpha 2024-06-01:Launch
  timelinegen quick "2024-01-15 09:00:Standup" "2024-01-15 17:00:Deploy" --scale hourly
  timelinegen quick 2024-01-15:Kickoff 2024-06-01:Launch -t dark -o launch.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			milestones, err := config.ParseQuick(args)
			if err != nil {
				return err
			}
			doc := config.Default()
			doc.Title = title
			doc.Subtitle = subtitle
			doc.Output.Format = "svg"
			doc.Milestones = milestones
			flags.apply(cmd, &doc)
			return export(cmd.Context(), cmd.OutOrStdout(), doc, outputFilename("timeline", flags.output, doc.Output.Format), flags.resolution)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&title, "title", "Timeline", "Timeline title")
	cmd.Flags().StringVar(&subtitle, "subtitle", "", "Timeline subtitle")
	return cmd
}
