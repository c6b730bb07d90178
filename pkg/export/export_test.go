package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/mint-cli/pkg/deadline"
	"github.com/otherjamesbrown/mint-cli/pkg/tracker"
)

func sampleMinutes() *Minutes {
	due := time.Date(2026, 3, 13, 17, 0, 0, 0, time.UTC)
	return &Minutes{
		Meeting: &tracker.Meeting{
			Filename:        "standup.vtt",
			Title:           "Weekly standup",
			Date:            time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC),
			DurationSeconds: 182,
			Participants:    []string{"Alice", "Bob"},
			Summary:         "Reviewed launch readiness.",
			Decisions:       []string{"Postpone the launch until May"},
			SpeakingTime:    map[string]float64{"Alice": 120, "Bob": 62},
		},
		Actions: []tracker.Action{
			{
				Text:       "Sarah will send the report",
				Speaker:    "Alice",
				Assignees:  []string{"Sarah", "Bob"},
				Deadline:   &due,
				Urgency:    deadline.UrgencyHigh,
				Status:     tracker.StatusOpen,
				Confidence: 0.91,
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
		"JSON":     FormatJSON,
		"yml":      FormatYAML,
	} {
		got, err := ParseFormat(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("csv")
	assert.Error(t, err)
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleMinutes(), FormatMarkdown))
	out := buf.String()

	assert.Contains(t, out, "# Meeting Minutes: Weekly standup")
	assert.Contains(t, out, "- **Participants:** Alice, Bob")
	assert.Contains(t, out, "## Decisions")
	assert.Contains(t, out, "| Sarah will send the report | Sarah, Bob | 2026-03-13T17:00:00Z | high | open |")
	assert.Contains(t, out, "- Alice: 2m00s")
}

func TestRenderMarkdownNoActions(t *testing.T) {
	m := sampleMinutes()
	m.Actions = nil

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, m, FormatMarkdown))
	assert.Contains(t, buf.String(), "No action items detected.")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleMinutes(), FormatJSON))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "standup.vtt", doc["filename"])
	assert.Equal(t, "2026-03-11T10:00:00Z", doc["date"])

	actions, ok := doc["actions"].([]any)
	require.True(t, ok)
	require.Len(t, actions, 1)
	action := actions[0].(map[string]any)
	assert.Equal(t, "Sarah, Bob", action["assignees"])
	assert.Equal(t, "2026-03-13T17:00:00Z", action["deadline"])
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleMinutes(), FormatYAML))

	var doc minutesDoc
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Weekly standup", doc.Title)
	require.Len(t, doc.Actions, 1)
	assert.Equal(t, "high", doc.Actions[0].Urgency)
}

func TestEscapeCell(t *testing.T) {
	assert.Equal(t, "a \\| b", escapeCell("a | b"))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "3m02s", formatDuration(182))
	assert.Equal(t, "0m00s", formatDuration(0))
}

func TestRenderUnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, sampleMinutes(), Format("csv"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown format"))
}
