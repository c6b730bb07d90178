package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/mint-cli/pkg/deadline"
	"github.com/otherjamesbrown/mint-cli/pkg/tracker"
)

// Actions command flags
var (
	actionsStatus   string
	actionsUrgency  string
	actionsMeeting  string
	actionsOutput   string
	actionsBy       string
	actionsNotes    string
	actionsReason   string
	actionsNewState string
	actionsDays     int
)

// NewActionsCommand creates the root actions command with all subcommands.
func NewActionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Manage tracked action items",
		Long: `Manage action items extracted from meeting transcripts.

Actions move through a simple lifecycle: open, in_progress, completed or
cancelled. Every transition is recorded in the action history with who made
the change and why.

Examples:
  mint actions list
  mint actions list --status open --urgency high
  mint actions complete 42 --by alice --notes "shipped in v1.2"
  mint actions overdue
  mint actions stats
  mint actions cleanup --days 90`,
		Aliases: []string{"action"},
	}

	cmd.PersistentFlags().StringVarP(&actionsOutput, "output", "o", "", "Output format: text, json, yaml")

	cmd.AddCommand(newActionsListCommand())
	cmd.AddCommand(newActionsCompleteCommand())
	cmd.AddCommand(newActionsUpdateCommand())
	cmd.AddCommand(newActionsOverdueCommand())
	cmd.AddCommand(newActionsStatsCommand())
	cmd.AddCommand(newActionsCleanupCommand())

	return cmd
}

func newActionsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked action items",
		Long: `List action items, optionally filtered by status, urgency or meeting.

Urgency for open actions with a deadline is recomputed at read time, so an
action created as "medium" shows as "urgent" once its deadline is today.

Examples:
  mint actions list
  mint actions list --status in_progress
  mint actions list --urgency overdue
  mint actions list --meeting standup-2026-03-11.vtt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(actionsOutput)
			if err != nil {
				return err
			}

			logger := newCommandLogger(cfg)
			repo, pool, err := openRepository(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			var actions []tracker.Action
			if actionsMeeting != "" {
				actions, err = repo.ActionsByMeeting(cmd.Context(), actionsMeeting)
			} else {
				actions, err = repo.ListActions(cmd.Context(), tracker.Filter{
					Status:  tracker.Status(actionsStatus),
					Urgency: deadline.Urgency(actionsUrgency),
				})
			}
			if err != nil {
				return err
			}

			return renderOutput(cmd.OutOrStdout(), cfg.OutputFormat, actions, func(w io.Writer) error {
				return printActionTable(w, actions)
			})
		},
	}

	cmd.Flags().StringVarP(&actionsStatus, "status", "s", "", "Filter by status (open, in_progress, completed, cancelled)")
	cmd.Flags().StringVarP(&actionsUrgency, "urgency", "u", "", "Filter by urgency (overdue, urgent, high, medium, low)")
	cmd.Flags().StringVarP(&actionsMeeting, "meeting", "m", "", "Filter by meeting filename")

	return cmd
}

func newActionsCompleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark an action item as completed",
		Long: `Mark an action item as completed.

Completing an already-completed action is not an error; the history records
each attempt.

Examples:
  mint actions complete 42
  mint actions complete 42 --by alice --notes "merged upstream"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseActionID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(actionsOutput)
			if err != nil {
				return err
			}

			logger := newCommandLogger(cfg)
			repo, pool, err := openRepository(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repo.MarkCompleted(cmd.Context(), id, actionsBy, actionsNotes); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Action %d marked completed\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&actionsBy, "by", "", "Who completed the action")
	cmd.Flags().StringVar(&actionsNotes, "notes", "", "Completion notes")

	return cmd
}

func newActionsUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an action item's status",
		Long: `Move an action item to a new lifecycle status.

Built-in statuses are open, in_progress, completed and cancelled, but any
custom status is accepted and recorded in the history.

Examples:
  mint actions update 42 --status in_progress
  mint actions update 42 --status deferred --reason "waiting on vendor"
  mint actions update 42 --status cancelled --reason "superseded by #57"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseActionID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(actionsOutput)
			if err != nil {
				return err
			}

			logger := newCommandLogger(cfg)
			repo, pool, err := openRepository(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			newStatus := tracker.Status(actionsNewState)
			if err := repo.UpdateStatus(cmd.Context(), id, newStatus, actionsBy, actionsReason); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Action %d moved to %s\n", id, newStatus)
			return nil
		},
	}

	cmd.Flags().StringVarP(&actionsNewState, "status", "s", "", "New status (required)")
	cmd.Flags().StringVar(&actionsBy, "by", "", "Who made the change")
	cmd.Flags().StringVar(&actionsReason, "reason", "", "Reason for the change")
	_ = cmd.MarkFlagRequired("status")

	return cmd
}

func newActionsOverdueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List open actions past their deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(actionsOutput)
			if err != nil {
				return err
			}

			logger := newCommandLogger(cfg)
			repo, pool, err := openRepository(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			actions, err := repo.GetOverdueActions(cmd.Context())
			if err != nil {
				return err
			}

			return renderOutput(cmd.OutOrStdout(), cfg.OutputFormat, actions, func(w io.Writer) error {
				if len(actions) == 0 {
					fmt.Fprintln(w, "No overdue actions.")
					return nil
				}
				return printActionTable(w, actions)
			})
		},
	}
}

func newActionsStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show action tracking statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(actionsOutput)
			if err != nil {
				return err
			}

			logger := newCommandLogger(cfg)
			repo, pool, err := openRepository(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			stats, err := repo.GetStatistics(cmd.Context())
			if err != nil {
				return err
			}

			return renderOutput(cmd.OutOrStdout(), cfg.OutputFormat, stats, func(w io.Writer) error {
				fmt.Fprintf(w, "Total actions:    %d\n", stats.TotalActions)
				fmt.Fprintf(w, "Overdue:          %d\n", stats.OverdueCount)
				fmt.Fprintf(w, "Recent meetings:  %d\n", stats.RecentMeetings)

				fmt.Fprintln(w, "\nBy status:")
				for _, s := range []tracker.Status{tracker.StatusOpen, tracker.StatusInProgress, tracker.StatusCompleted, tracker.StatusCancelled} {
					fmt.Fprintf(w, "  %-12s %d\n", s, stats.ByStatus[s])
				}

				fmt.Fprintln(w, "\nOpen by urgency:")
				for _, u := range []deadline.Urgency{deadline.UrgencyOverdue, deadline.UrgencyUrgent, deadline.UrgencyHigh, deadline.UrgencyMedium, deadline.UrgencyLow} {
					fmt.Fprintf(w, "  %-12s %d\n", u, stats.OpenByUrgency[u])
				}
				return nil
			})
		},
	}
}

func newActionsCleanupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old completed and cancelled actions",
		Long: `Remove completed and cancelled actions older than the retention window,
along with their history entries. A window of 0 removes every completed
action and all history.

Examples:
  mint actions cleanup
  mint actions cleanup --days 30
  mint actions cleanup --days 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(actionsOutput)
			if err != nil {
				return err
			}

			days := actionsDays
			if days < 0 {
				days = cfg.Pipeline.RetentionDays
			}

			logger := newCommandLogger(cfg)
			repo, pool, err := openRepository(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			result, err := repo.Cleanup(cmd.Context(), days)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d actions and %d history entries older than %d days\n",
				result.DeletedActions, result.DeletedHistory, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&actionsDays, "days", -1, "Retention window in days, 0 removes all completed (default from config)")

	return cmd
}

// printActionTable renders actions as an aligned table.
func printActionTable(w io.Writer, actions []tracker.Action) error {
	if len(actions) == 0 {
		fmt.Fprintln(w, "No actions found.")
		return nil
	}

	fmt.Fprintf(w, "%-5s %-11s %-8s %-50s %-20s %s\n", "ID", "STATUS", "URGENCY", "ACTION", "ASSIGNEES", "DEADLINE")
	for _, a := range actions {
		assignees := "-"
		if len(a.Assignees) > 0 {
			assignees = truncateText(strings.Join(a.Assignees, ", "), 20)
		}
		fmt.Fprintf(w, "%-5d %-11s %-8s %-50s %-20s %s\n",
			a.ID, a.Status, a.Urgency, truncateText(a.Text, 50), assignees, formatDeadline(a.Deadline))
	}
	return nil
}
