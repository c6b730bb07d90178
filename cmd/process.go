// Package cmd provides CLI commands for the mint tool.
package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/mint-cli/pkg/assign"
	"github.com/otherjamesbrown/mint-cli/pkg/deadline"
	"github.com/otherjamesbrown/mint-cli/pkg/detect"
	"github.com/otherjamesbrown/mint-cli/pkg/normalize"
	"github.com/otherjamesbrown/mint-cli/pkg/pipeline"
	"github.com/otherjamesbrown/mint-cli/pkg/summary"
	"github.com/otherjamesbrown/mint-cli/pkg/tracker"
)

// Process command flags
var (
	processAudio  string
	processTitle  string
	processDate   string
	processDryRun bool
	processOutput string
)

// NewProcessCommand creates the 'process' command.
func NewProcessCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <transcript>",
		Short: "Process a meeting transcript into tracked action items",
		Long: `Process a meeting transcript through the full extraction pipeline.

The pipeline reads a .vtt or .txt transcript (or transcribes audio when
--audio is given instead), normalizes the speech, detects action item
sentences, resolves assignees and deadlines, generates a meeting summary,
and stores everything in the database.

The model host sidecar must be running for detection; transcription,
entity extraction, date parsing and summarization degrade gracefully when
their capabilities are unavailable.

Examples:
  # Process a VTT transcript
  mint process standup-2026-03-11.vtt

  # Process an audio recording (requires the ASR capability)
  mint process --audio standup.wav

  # Preview extraction without writing to the database
  mint process standup.vtt --dry-run

  # Set an explicit title and date
  mint process standup.vtt --title "Weekly Standup" --date 2026-03-11`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runProcess(cmd, path)
		},
	}

	cmd.Flags().StringVar(&processAudio, "audio", "", "Audio file to transcribe instead of a transcript")
	cmd.Flags().StringVar(&processTitle, "title", "", "Meeting title (defaults to the filename)")
	cmd.Flags().StringVar(&processDate, "date", "", "Meeting date as YYYY-MM-DD (defaults to today)")
	cmd.Flags().BoolVar(&processDryRun, "dry-run", false, "Extract without writing to the database")
	cmd.Flags().StringVarP(&processOutput, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runProcess(cmd *cobra.Command, path string) error {
	cfg, err := loadConfig(processOutput)
	if err != nil {
		return err
	}

	logger := newCommandLogger(cfg)
	ctx := cmd.Context()

	var store pipeline.Store
	if !processDryRun {
		repo, pool, err := openRepository(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		if err := tracker.InitSchema(ctx, pool); err != nil {
			return fmt.Errorf("initializing schema: %w", err)
		}
		store = repo
	}

	req := pipeline.Request{
		Path:      path,
		AudioPath: processAudio,
		Title:     processTitle,
	}
	if processDate != "" {
		date, err := time.Parse("2006-01-02", processDate)
		if err != nil {
			return fmt.Errorf("parsing --date: %w", err)
		}
		req.Date = date
	}

	host := newModelHost(cfg)

	p := pipeline.New(pipeline.Deps{
		Transcriber: host,
		Diarizer:    host,
		Normalizer: normalize.New(
			normalize.WithDateParser(host),
			normalize.WithSentenceSegmenter(host),
			normalize.WithLogger(logger),
		),
		Detector: detect.NewDetector(host, host, logger),
		Assigner: assign.NewExtractor(
			assign.WithEntityExtractor(host),
			assign.WithGenericExtractor(host),
			assign.WithLogger(logger),
		),
		Deadlines: deadline.NewResolver(
			deadline.WithDateParser(host),
			deadline.WithLogger(logger),
		),
		Summaries: summary.NewService(host, logger),
		Store:     store,
		Logger:    logger,
	}, pipeline.Config{
		MergeGapSeconds: cfg.Pipeline.MergeGapSeconds,
		Persist:         !processDryRun,
	})

	result, err := p.Process(ctx, req)
	if err != nil {
		return err
	}

	return renderOutput(cmd.OutOrStdout(), cfg.OutputFormat, result, func(w io.Writer) error {
		return printProcessResult(w, result, processDryRun)
	})
}

func printProcessResult(w io.Writer, result *pipeline.Result, dryRun bool) error {
	m := result.Meeting
	fmt.Fprintf(w, "Processed %s\n", m.Filename)
	fmt.Fprintf(w, "  title:        %s\n", m.Title)
	fmt.Fprintf(w, "  duration:     %.0fs\n", m.DurationSeconds)
	fmt.Fprintf(w, "  participants: %d\n", len(m.Participants))
	fmt.Fprintf(w, "  actions:      %d\n", len(result.Actions))
	if dryRun {
		fmt.Fprintln(w, "  (dry run, nothing written)")
	}

	if len(result.Actions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Action items:")
		for _, a := range result.Actions {
			assignee := "unassigned"
			if len(a.Assignees) > 0 {
				assignee = a.Assignees[0]
			}
			fmt.Fprintf(w, "  [%s] %s — %s (due %s)\n",
				a.Urgency, truncateText(a.Text, 70), assignee, formatDeadline(a.Deadline))
		}
	}

	if result.Summary != nil && result.Summary.ExecutiveSummary != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Summary:")
		fmt.Fprintf(w, "  %s\n", result.Summary.ExecutiveSummary)
	}

	return nil
}
