package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/mint-cli/pkg/export"
	"github.com/otherjamesbrown/mint-cli/pkg/summary"
)

// Export command flags
var (
	exportFormat string
	exportFile   string
)

// NewExportCommand creates the 'export' command.
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <filename>",
		Short: "Export meeting minutes",
		Long: `Export a processed meeting as a minutes document.

The document includes the meeting metadata, summary sections, speaking time
and the action item table.

Examples:
  mint export standup-2026-03-11.vtt
  mint export standup-2026-03-11.vtt --format json
  mint export standup-2026-03-11.vtt --format markdown --out minutes.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "Output format: markdown, json, yaml")
	cmd.Flags().StringVar(&exportFile, "out", "", "Write to a file instead of stdout")

	return cmd
}

func runExport(cmd *cobra.Command, filename string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig("")
	if err != nil {
		return err
	}

	logger := newCommandLogger(cfg)
	repo, pool, err := openRepository(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	meeting, err := repo.GetMeetingByFilename(cmd.Context(), filename)
	if err != nil {
		return err
	}

	actions, err := repo.ActionsByMeeting(cmd.Context(), filename)
	if err != nil {
		return err
	}

	minutes := &export.Minutes{
		Meeting: meeting,
		Summary: &summary.MeetingSummary{
			ExecutiveSummary: meeting.Summary,
			AgendaItems:      meeting.AgendaItems,
			Decisions:        meeting.Decisions,
			Risks:            meeting.Risks,
			NextSteps:        meeting.NextSteps,
		},
		Actions: actions,
	}

	var out io.Writer = cmd.OutOrStdout()
	if exportFile != "" {
		f, err := os.Create(exportFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := export.Render(out, minutes, format); err != nil {
		return err
	}

	if exportFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", exportFile)
	}
	return nil
}
