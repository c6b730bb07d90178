package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/mint-cli/pkg/reporting"
)

// Report command flags
var (
	reportOutput   string
	reportStatus   string
	reportUrgency  string
	reportAssignee string
	reportSince    string
	reportLimit    int
	reportWeeks    int
)

// NewReportCommand creates the root report command with all subcommands.
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Cross-meeting reporting queries",
		Long: `Read-only reports that aggregate actions across meetings.

Examples:
  mint report actions --assignee "Alice Jones" --status open
  mint report workload
  mint report trends --weeks 12`,
	}

	cmd.PersistentFlags().StringVarP(&reportOutput, "output", "o", "", "Output format: text, json, yaml")

	cmd.AddCommand(newReportActionsCommand())
	cmd.AddCommand(newReportWorkloadCommand())
	cmd.AddCommand(newReportTrendsCommand())

	return cmd
}

func newReportActionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List actions joined with their source meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(reportOutput)
			if err != nil {
				return err
			}

			opts := reporting.ActionReportOptions{
				Status:   reportStatus,
				Urgency:  reportUrgency,
				Assignee: reportAssignee,
				Limit:    reportLimit,
			}
			if reportSince != "" {
				since, err := time.Parse("2006-01-02", reportSince)
				if err != nil {
					return fmt.Errorf("parsing --since: %w", err)
				}
				opts.Since = &since
			}

			client, err := openReporting(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			rows, err := client.ActionReport(cmd.Context(), opts)
			if err != nil {
				return err
			}

			return renderOutput(cmd.OutOrStdout(), cfg.OutputFormat, rows, func(w io.Writer) error {
				if len(rows) == 0 {
					fmt.Fprintln(w, "No actions found.")
					return nil
				}
				fmt.Fprintf(w, "%-5s %-11s %-8s %-45s %-20s %-30s %s\n",
					"ID", "STATUS", "URGENCY", "ACTION", "ASSIGNEES", "MEETING", "DEADLINE")
				for _, row := range rows {
					assignees := "-"
					if len(row.Assignees) > 0 {
						assignees = truncateText(strings.Join(row.Assignees, ", "), 20)
					}
					fmt.Fprintf(w, "%-5d %-11s %-8s %-45s %-20s %-30s %s\n",
						row.ID, row.Status, row.Urgency, truncateText(row.Description, 45),
						assignees, truncateText(row.MeetingTitle, 30), formatDeadline(row.Deadline))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&reportStatus, "status", "s", "", "Filter by status")
	cmd.Flags().StringVarP(&reportUrgency, "urgency", "u", "", "Filter by urgency")
	cmd.Flags().StringVarP(&reportAssignee, "assignee", "a", "", "Filter by assignee")
	cmd.Flags().StringVar(&reportSince, "since", "", "Only actions created on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&reportLimit, "limit", "n", 50, "Maximum rows")

	return cmd
}

func newReportWorkloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "workload",
		Short: "Show open action counts per assignee",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(reportOutput)
			if err != nil {
				return err
			}

			client, err := openReporting(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			loads, err := client.AssigneeWorkload(cmd.Context())
			if err != nil {
				return err
			}

			return renderOutput(cmd.OutOrStdout(), cfg.OutputFormat, loads, func(w io.Writer) error {
				if len(loads) == 0 {
					fmt.Fprintln(w, "No open actions.")
					return nil
				}
				fmt.Fprintf(w, "%-25s %-6s %s\n", "ASSIGNEE", "OPEN", "OVERDUE")
				for _, load := range loads {
					fmt.Fprintf(w, "%-25s %-6d %d\n", load.Assignee, load.OpenActions, load.OverdueCount)
				}
				return nil
			})
		},
	}
}

func newReportTrendsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show weekly created vs completed action counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(reportOutput)
			if err != nil {
				return err
			}

			client, err := openReporting(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			trends, err := client.CompletionTrends(cmd.Context(), reportWeeks)
			if err != nil {
				return err
			}

			return renderOutput(cmd.OutOrStdout(), cfg.OutputFormat, trends, func(w io.Writer) error {
				if len(trends) == 0 {
					fmt.Fprintln(w, "No action activity in the window.")
					return nil
				}
				fmt.Fprintf(w, "%-12s %-8s %s\n", "WEEK", "CREATED", "COMPLETED")
				for _, t := range trends {
					fmt.Fprintf(w, "%-12s %-8d %d\n", t.WeekStart.Format("2006-01-02"), t.Created, t.Completed)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&reportWeeks, "weeks", 8, "How many weeks back to report")

	return cmd
}
