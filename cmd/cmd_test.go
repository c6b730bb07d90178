// Package cmd provides CLI commands for the mint tool.
package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/otherjamesbrown/mint-cli/config"
	"github.com/otherjamesbrown/mint-cli/pkg/tracker"
)

// TestNewProcessCommand tests that NewProcessCommand returns a valid cobra.Command.
func TestNewProcessCommand(t *testing.T) {
	cmd := NewProcessCommand()

	if cmd == nil {
		t.Fatal("NewProcessCommand() returned nil")
	}
	if cmd.Use != "process <transcript>" {
		t.Errorf("NewProcessCommand().Use = %q, want %q", cmd.Use, "process <transcript>")
	}

	for _, flagName := range []string{"audio", "title", "date", "dry-run", "output"} {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("NewProcessCommand() missing flag: --%s", flagName)
		}
	}
}

// TestNewActionsCommand verifies the actions command tree.
func TestNewActionsCommand(t *testing.T) {
	cmd := NewActionsCommand()

	if cmd == nil {
		t.Fatal("NewActionsCommand() returned nil")
	}

	want := []string{"list", "complete", "update", "overdue", "stats", "cleanup"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("NewActionsCommand() missing subcommand: %s", name)
		}
	}
}

// TestNewQueueCommand verifies the queue command tree.
func TestNewQueueCommand(t *testing.T) {
	cmd := NewQueueCommand()

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"add", "stats"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("NewQueueCommand() missing subcommand %s, have %v", want, names)
		}
	}
}

// TestNewDbCommand verifies the db command tree.
func TestNewDbCommand(t *testing.T) {
	cmd := NewDbCommand()

	for _, want := range []string{"init", "health", "login"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == want {
				found = true
			}
		}
		if !found {
			t.Errorf("NewDbCommand() missing subcommand: %s", want)
		}
	}
}

// TestNewReportCommand verifies the report command tree.
func TestNewReportCommand(t *testing.T) {
	cmd := NewReportCommand()

	for _, want := range []string{"actions", "workload", "trends"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == want {
				found = true
			}
		}
		if !found {
			t.Errorf("NewReportCommand() missing subcommand: %s", want)
		}
	}
}

// TestNewWorkerCommand verifies worker flags.
func TestNewWorkerCommand(t *testing.T) {
	cmd := NewWorkerCommand()

	for _, flagName := range []string{"workers", "metrics-addr"} {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("NewWorkerCommand() missing flag: --%s", flagName)
		}
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten chars!", 18, "exactly ten chars!"},
		{"this is far too long for the column", 10, "this is..."},
	}

	for _, tc := range tests {
		if got := truncateText(tc.in, tc.max); got != tc.want {
			t.Errorf("truncateText(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestParseActionID(t *testing.T) {
	if _, err := parseActionID("42"); err != nil {
		t.Errorf("parseActionID(42) error = %v", err)
	}
	for _, bad := range []string{"", "abc", "-1", "0"} {
		if _, err := parseActionID(bad); err == nil {
			t.Errorf("parseActionID(%q) expected error", bad)
		}
	}
}

func TestFormatDeadline(t *testing.T) {
	if got := formatDeadline(nil); got != "-" {
		t.Errorf("formatDeadline(nil) = %q, want -", got)
	}

	future := time.Now().Add(72 * time.Hour)
	if got := formatDeadline(&future); !strings.Contains(got, future.Format("2006-01-02")) {
		t.Errorf("formatDeadline(future) = %q, missing date", got)
	}

	past := time.Now().Add(-72 * time.Hour)
	if got := formatDeadline(&past); !strings.Contains(got, "overdue") {
		t.Errorf("formatDeadline(past) = %q, want overdue marker", got)
	}
}

func TestRenderOutput(t *testing.T) {
	payload := map[string]string{"status": "ok"}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		err := renderOutput(&buf, config.OutputFormatJSON, payload, nil)
		if err != nil {
			t.Fatalf("renderOutput() error = %v", err)
		}
		var decoded map[string]string
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if decoded["status"] != "ok" {
			t.Errorf("decoded = %v", decoded)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := renderOutput(&buf, config.OutputFormatYAML, payload, nil); err != nil {
			t.Fatalf("renderOutput() error = %v", err)
		}
		if !strings.Contains(buf.String(), "status: ok") {
			t.Errorf("yaml output = %q", buf.String())
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		err := renderOutput(&buf, config.OutputFormatText, payload, func(w io.Writer) error {
			_, err := w.Write([]byte("plain"))
			return err
		})
		if err != nil {
			t.Fatalf("renderOutput() error = %v", err)
		}
		if buf.String() != "plain" {
			t.Errorf("text output = %q, want plain", buf.String())
		}
	})
}

func TestPrintActionTable(t *testing.T) {
	deadline := time.Now().Add(48 * time.Hour)
	actions := []tracker.Action{
		{
			ID:        7,
			Text:      "send the quarterly report to finance",
			Assignees: []string{"Alice Jones"},
			Status:    tracker.StatusOpen,
			Urgency:   "high",
			Deadline:  &deadline,
		},
	}

	var buf bytes.Buffer
	if err := printActionTable(&buf, actions); err != nil {
		t.Fatalf("printActionTable() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"7", "open", "high", "Alice Jones", "quarterly report"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := printActionTable(&buf, nil); err != nil {
		t.Fatalf("printActionTable(empty) error = %v", err)
	}
	if !strings.Contains(buf.String(), "No actions found") {
		t.Errorf("empty table output = %q", buf.String())
	}
}

// TestLoadConfigOutputOverride verifies the per-command output override.
func TestLoadConfigOutputOverride(t *testing.T) {
	t.Setenv("MINT_CONFIG_DIR", t.TempDir())

	cfg, err := loadConfig("json")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.OutputFormat != config.OutputFormatJSON {
		t.Errorf("OutputFormat = %v, want json", cfg.OutputFormat)
	}

	if _, err := loadConfig("xml"); err == nil {
		t.Error("loadConfig(xml) expected error")
	}
}

// TestDatabaseConfigOverlay verifies config file values reach the db config.
func TestDatabaseConfigOverlay(t *testing.T) {
	t.Setenv("MINT_CONFIG_DIR", t.TempDir())
	t.Setenv("MINT_DB_HOST", "")
	t.Setenv("MINT_DB_PASSWORD", "pw-from-env")
	t.Setenv("MINT_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

	cfg := config.DefaultConfig()
	cfg.Database.Host = "db.internal"
	cfg.Database.Port = 5433
	cfg.Database.Database = "meetings"
	cfg.Database.User = "svc"

	dbCfg := databaseConfig(cfg)
	if dbCfg.Host != "db.internal" || dbCfg.Port != 5433 {
		t.Errorf("host/port = %s/%d, want db.internal/5433", dbCfg.Host, dbCfg.Port)
	}
	if dbCfg.Database != "meetings" || dbCfg.User != "svc" {
		t.Errorf("database/user = %s/%s, want meetings/svc", dbCfg.Database, dbCfg.User)
	}
	if dbCfg.Password != "pw-from-env" {
		t.Errorf("password = %q, want env value", dbCfg.Password)
	}
}
