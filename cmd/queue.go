package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/mint-cli/pkg/observability"
	"github.com/otherjamesbrown/mint-cli/pkg/queue"
)

// Queue command flags
var (
	queueTitle    string
	queueAudio    string
	queuePriority int
	queueOutput   string
)

// NewQueueCommand creates the root queue command with all subcommands.
func NewQueueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage the meeting processing queue",
		Long: `Manage the Redis-backed meeting queue that workers drain.

Examples:
  mint queue add standup-2026-03-11.vtt --priority 5
  mint queue stats`,
	}

	cmd.PersistentFlags().StringVarP(&queueOutput, "output", "o", "", "Output format: text, json, yaml")

	cmd.AddCommand(newQueueAddCommand())
	cmd.AddCommand(newQueueStatsCommand())

	return cmd
}

func newQueueAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <transcript>",
		Short: "Enqueue a meeting for background processing",
		Long: `Enqueue a transcript (or audio file with --audio) for a worker to
process. Higher priority jobs are dequeued first.

Examples:
  mint queue add standup.vtt
  mint queue add board-meeting.vtt --priority 9
  mint queue add --audio allhands.wav --title "All Hands"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" && queueAudio == "" {
				return fmt.Errorf("a transcript path or --audio is required")
			}

			cfg, err := loadConfig(queueOutput)
			if err != nil {
				return err
			}

			client, err := connectToRedis(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			queueCfg := queue.DefaultConfig()
			if cfg.Queue.Name != "" {
				queueCfg.Name = cfg.Queue.Name
			}
			q := queue.NewRedisQueue(client, queueCfg)

			meetingFile := path
			if meetingFile == "" {
				meetingFile = queueAudio
			}

			id, err := q.Enqueue(cmd.Context(), queue.Job{
				MeetingFile:    meetingFile,
				Title:          queueTitle,
				TranscriptPath: path,
				AudioPath:      queueAudio,
				Priority:       queuePriority,
				Trace:          observability.InjectTraceContext(cmd.Context()),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %s as job %s\n", meetingFile, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&queueTitle, "title", "", "Meeting title")
	cmd.Flags().StringVar(&queueAudio, "audio", "", "Audio file to transcribe instead of a transcript")
	cmd.Flags().IntVarP(&queuePriority, "priority", "p", 0, "Job priority (higher runs first)")

	return cmd
}

func newQueueStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue depths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(queueOutput)
			if err != nil {
				return err
			}

			client, err := connectToRedis(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			queueCfg := queue.DefaultConfig()
			if cfg.Queue.Name != "" {
				queueCfg.Name = cfg.Queue.Name
			}
			q := queue.NewRedisQueue(client, queueCfg)

			stats, err := q.QueueStats(cmd.Context())
			if err != nil {
				return err
			}

			return renderOutput(cmd.OutOrStdout(), cfg.OutputFormat, stats, func(w io.Writer) error {
				fmt.Fprintf(w, "Queue %s\n", q.Name())
				fmt.Fprintf(w, "  pending:     %d\n", stats.Pending)
				fmt.Fprintf(w, "  processing:  %d\n", stats.Processing)
				fmt.Fprintf(w, "  dead letter: %d\n", stats.DeadLetter)
				return nil
			})
		},
	}
}
