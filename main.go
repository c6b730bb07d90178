// Package main provides the mint CLI entry point.
// mint turns meeting transcripts into tracked action items and minutes.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/mint-cli/cmd"
	"github.com/otherjamesbrown/mint-cli/pkg/buildinfo"
)

// Version command flags.
var versionOutputJSON bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mint",
	Short: "Meeting intelligence - turn transcripts into tracked action items",
	Long: `mint processes meeting transcripts (or recordings) into structured,
tracked action items and meeting minutes.

A local model host sidecar provides the heavy lifting (transcription,
classification, entity extraction); mint handles normalization, deadline
resolution, assignee mapping, persistence and reporting.

WORKFLOWS:
  Process a meeting:  mint process standup.vtt
  Background work:    mint queue add standup.vtt  →  mint worker
  Track actions:      mint actions list  →  mint actions complete <id>
  Minutes:            mint export standup.vtt --format markdown
  Reporting:          mint report workload  /  mint report trends

SETUP:
  mint db login       Store the database password securely
  mint db init        Create the schema

DISCOVERY:
  mint <command> --help   Subcommands, flags, and examples for any command`,
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit hash, and build time of the mint CLI.

Use --output-json for machine-readable output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildinfo.Get("mint-cli")

		if versionOutputJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mint version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go:         %s\n", info.GoVersion)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionOutputJSON, "output-json", false, "Output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cmd.NewProcessCommand())
	rootCmd.AddCommand(cmd.NewActionsCommand())
	rootCmd.AddCommand(cmd.NewMeetingsCommand())
	rootCmd.AddCommand(cmd.NewExportCommand())
	rootCmd.AddCommand(cmd.NewQueueCommand())
	rootCmd.AddCommand(cmd.NewWorkerCommand())
	rootCmd.AddCommand(cmd.NewReportCommand())
	rootCmd.AddCommand(cmd.NewDbCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
