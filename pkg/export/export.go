// Package export renders processed meetings as minutes documents in
// markdown, JSON or YAML.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/mint-cli/pkg/summary"
	"github.com/otherjamesbrown/mint-cli/pkg/tracker"
)

// Format selects the output encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want markdown, json or yaml)", name)
}

// Minutes is the render model for one meeting.
type Minutes struct {
	Meeting *tracker.Meeting        `json:"meeting" yaml:"meeting"`
	Summary *summary.MeetingSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Actions []tracker.Action        `json:"actions" yaml:"actions"`
}

// minutesDoc is the wire shape for JSON and YAML output.
type minutesDoc struct {
	Filename     string             `json:"filename" yaml:"filename"`
	Title        string             `json:"title" yaml:"title"`
	Date         string             `json:"date" yaml:"date"`
	Duration     float64            `json:"duration_seconds" yaml:"duration_seconds"`
	Participants []string           `json:"participants" yaml:"participants"`
	SpeakingTime map[string]float64 `json:"speaking_time,omitempty" yaml:"speaking_time,omitempty"`
	Summary      string             `json:"summary,omitempty" yaml:"summary,omitempty"`
	AgendaItems  []string           `json:"agenda_items,omitempty" yaml:"agenda_items,omitempty"`
	Decisions    []string           `json:"decisions,omitempty" yaml:"decisions,omitempty"`
	Risks        []string           `json:"risks,omitempty" yaml:"risks,omitempty"`
	NextSteps    []string           `json:"next_steps,omitempty" yaml:"next_steps,omitempty"`
	Actions      []actionDoc        `json:"actions" yaml:"actions"`
}

type actionDoc struct {
	Text       string  `json:"text" yaml:"text"`
	Speaker    string  `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	Assignees  string  `json:"assignees,omitempty" yaml:"assignees,omitempty"`
	Deadline   string  `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Urgency    string  `json:"urgency" yaml:"urgency"`
	Status     string  `json:"status" yaml:"status"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Render writes the minutes to w in the requested format.
func Render(w io.Writer, m *Minutes, format Format) error {
	switch format {
	case FormatMarkdown:
		return renderMarkdown(w, m)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(buildDoc(m))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(buildDoc(m))
	}
	return fmt.Errorf("unknown format %q", format)
}

func buildDoc(m *Minutes) *minutesDoc {
	doc := &minutesDoc{
		Filename:     m.Meeting.Filename,
		Title:        m.Meeting.Title,
		Date:         m.Meeting.Date.Format(time.RFC3339),
		Duration:     m.Meeting.DurationSeconds,
		Participants: m.Meeting.Participants,
		SpeakingTime: m.Meeting.SpeakingTime,
		Summary:      m.Meeting.Summary,
		AgendaItems:  m.Meeting.AgendaItems,
		Decisions:    m.Meeting.Decisions,
		Risks:        m.Meeting.Risks,
		NextSteps:    m.Meeting.NextSteps,
		Actions:      make([]actionDoc, 0, len(m.Actions)),
	}
	if m.Summary != nil {
		doc.Summary = m.Summary.ExecutiveSummary
		doc.AgendaItems = m.Summary.AgendaItems
		doc.Decisions = m.Summary.Decisions
		doc.Risks = m.Summary.Risks
		doc.NextSteps = m.Summary.NextSteps
	}
	for _, action := range m.Actions {
		doc.Actions = append(doc.Actions, actionDoc{
			Text:       action.Text,
			Speaker:    action.Speaker,
			Assignees:  strings.Join(action.Assignees, ", "),
			Deadline:   formatDeadline(action.Deadline),
			Urgency:    string(action.Urgency),
			Status:     string(action.Status),
			Confidence: action.Confidence,
		})
	}
	return doc
}

func formatDeadline(deadline *time.Time) string {
	if deadline == nil {
		return ""
	}
	return deadline.Format(time.RFC3339)
}

func renderMarkdown(w io.Writer, m *Minutes) error {
	var b strings.Builder

	title := m.Meeting.Title
	if title == "" {
		title = m.Meeting.Filename
	}
	fmt.Fprintf(&b, "# Meeting Minutes: %s\n\n", title)
	fmt.Fprintf(&b, "- **File:** %s\n", m.Meeting.Filename)
	if !m.Meeting.Date.IsZero() {
		fmt.Fprintf(&b, "- **Date:** %s\n", m.Meeting.Date.Format("2006-01-02"))
	}
	if m.Meeting.DurationSeconds > 0 {
		fmt.Fprintf(&b, "- **Duration:** %s\n", formatDuration(m.Meeting.DurationSeconds))
	}
	if len(m.Meeting.Participants) > 0 {
		fmt.Fprintf(&b, "- **Participants:** %s\n", strings.Join(m.Meeting.Participants, ", "))
	}
	b.WriteString("\n")

	doc := buildDoc(m)

	if doc.Summary != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(doc.Summary)
		b.WriteString("\n\n")
	}

	writeSection(&b, "Agenda", doc.AgendaItems)
	writeSection(&b, "Decisions", doc.Decisions)
	writeSection(&b, "Risks", doc.Risks)
	writeSection(&b, "Next Steps", doc.NextSteps)

	b.WriteString("## Action Items\n\n")
	if len(doc.Actions) == 0 {
		b.WriteString("No action items detected.\n")
	} else {
		b.WriteString("| Action | Assignees | Deadline | Urgency | Status |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, action := range doc.Actions {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				escapeCell(action.Text),
				escapeCell(action.Assignees),
				action.Deadline,
				action.Urgency,
				action.Status,
			)
		}
	}

	if len(doc.SpeakingTime) > 0 {
		b.WriteString("\n## Speaking Time\n\n")
		for _, name := range sortedKeys(doc.SpeakingTime) {
			fmt.Fprintf(&b, "- %s: %s\n", name, formatDuration(doc.SpeakingTime[name]))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSection(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	minutes := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%02ds", minutes, secs)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
