package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/mint-cli/pkg/summary"
	"github.com/otherjamesbrown/mint-cli/pkg/tracker"
)

// Meetings command flags
var (
	meetingsOutput string
	meetingsLimit  int
)

// NewMeetingsCommand creates the root meetings command with all subcommands.
func NewMeetingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetings",
		Short: "Inspect processed meetings",
		Long: `Inspect meetings that have been processed into the database.

Examples:
  mint meetings show standup-2026-03-11.vtt
  mint meetings recent --limit 10`,
		Aliases: []string{"meeting"},
	}

	cmd.PersistentFlags().StringVarP(&meetingsOutput, "output", "o", "", "Output format: text, json, yaml")

	cmd.AddCommand(newMeetingsShowCommand())
	cmd.AddCommand(newMeetingsRecentCommand())

	return cmd
}

func newMeetingsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <filename>",
		Short: "Show a processed meeting with its actions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(meetingsOutput)
			if err != nil {
				return err
			}

			logger := newCommandLogger(cfg)
			repo, pool, err := openRepository(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			meeting, err := repo.GetMeetingByFilename(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			actions, err := repo.ActionsByMeeting(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			payload := struct {
				Meeting *tracker.Meeting `json:"meeting" yaml:"meeting"`
				Actions []tracker.Action `json:"actions" yaml:"actions"`
			}{meeting, actions}

			return renderOutput(cmd.OutOrStdout(), cfg.OutputFormat, payload, func(w io.Writer) error {
				return printMeeting(w, meeting, actions)
			})
		},
	}
}

func newMeetingsRecentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently processed meetings with action totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(meetingsOutput)
			if err != nil {
				return err
			}

			client, err := openReporting(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			summaries, err := client.MeetingActivity(cmd.Context(), meetingsLimit)
			if err != nil {
				return err
			}

			return renderOutput(cmd.OutOrStdout(), cfg.OutputFormat, summaries, func(w io.Writer) error {
				if len(summaries) == 0 {
					fmt.Fprintln(w, "No meetings processed yet.")
					return nil
				}
				fmt.Fprintf(w, "%-5s %-40s %-12s %-8s %-10s %s\n", "ID", "TITLE", "DATE", "ACTIONS", "COMPLETED", "OPEN")
				for _, s := range summaries {
					date := "-"
					if s.Date != nil {
						date = s.Date.Format("2006-01-02")
					}
					fmt.Fprintf(w, "%-5d %-40s %-12s %-8d %-10d %d\n",
						s.MeetingID, truncateText(s.Title, 40), date, s.TotalActions, s.CompletedCount, s.OpenCount)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&meetingsLimit, "limit", "n", 20, "Maximum meetings to list")

	return cmd
}

func printMeeting(w io.Writer, m *tracker.Meeting, actions []tracker.Action) error {
	fmt.Fprintf(w, "%s\n", m.Title)
	fmt.Fprintf(w, "  file:     %s\n", m.Filename)
	fmt.Fprintf(w, "  date:     %s\n", m.Date.Format("2006-01-02"))
	fmt.Fprintf(w, "  duration: %s\n", (time.Duration(m.DurationSeconds) * time.Second).String())

	if len(m.Participants) > 0 {
		fmt.Fprintln(w, "\nParticipants:")
		names := append([]string(nil), m.Participants...)
		sort.Strings(names)
		for _, name := range names {
			if secs, ok := m.SpeakingTime[name]; ok {
				fmt.Fprintf(w, "  %-20s %.0fs\n", name, secs)
			} else {
				fmt.Fprintf(w, "  %s\n", name)
			}
		}
	}

	s := summary.MeetingSummary{
		ExecutiveSummary: m.Summary,
		AgendaItems:      m.AgendaItems,
		Decisions:        m.Decisions,
		Risks:            m.Risks,
		NextSteps:        m.NextSteps,
	}
	if s.ExecutiveSummary != "" {
		fmt.Fprintf(w, "\nSummary:\n  %s\n", s.ExecutiveSummary)
	}
	printList(w, "Decisions", s.Decisions)
	printList(w, "Risks", s.Risks)
	printList(w, "Next steps", s.NextSteps)

	if len(actions) > 0 {
		fmt.Fprintln(w, "\nActions:")
		if err := printActionTable(w, actions); err != nil {
			return err
		}
	}

	return nil
}

func printList(w io.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", heading)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
