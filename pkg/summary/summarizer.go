// Package summary builds meeting summaries by prompting the summarizer
// capability per chunk of transcript and sieving the responses with
// indicator patterns.
package summary

import (
	"context"
	"regexp"
	"strings"

	"github.com/otherjamesbrown/mint-cli/pkg/capability"
	"github.com/otherjamesbrown/mint-cli/pkg/logging"
)

const (
	chunkLength          = 400
	executiveChunkLength = 600

	maxAgendaItems = 10
	maxDecisions   = 8
	maxRisks       = 6
	maxNextSteps   = 10

	minDecisionLength = 10
	minRiskLength     = 10
	minStepLength     = 5
)

const (
	promptExecutive = "Provide a concise executive summary of this meeting, highlighting the most important points:"
	promptAgenda    = "Extract the main agenda items or topics discussed in this meeting. List them as bullet points:"
	promptDecisions = "Identify the key decisions made in this meeting. List each decision clearly:"
	promptRisks     = "Identify any risks, concerns, or potential issues mentioned in this meeting:"
	promptNextSteps = "Identify the next steps, follow-up actions, or future plans mentioned in this meeting:"
)

var (
	bulletPattern   = regexp.MustCompile(`[•\-\*]\s*(.+)`)
	decisionPattern = regexp.MustCompile(`(?i)(?:decided|agreed|resolved|concluded)\s+(?:to\s+)?(.+?)(?:\.|$)`)
	riskPattern     = regexp.MustCompile(`(?i)(?:risk|concern|issue|problem|challenge)\s*:?\s*(.+?)(?:\.|$)`)
	stepPattern     = regexp.MustCompile(`(?i)(?:will|should|need to|must|plan to)\s+(.+?)(?:\.|$)`)
)

// MeetingSummary holds the generated summary fields.
type MeetingSummary struct {
	ExecutiveSummary string
	AgendaItems      []string
	Decisions        []string
	Risks            []string
	NextSteps        []string
}

// Service generates summaries. The capability is optional; without one every
// field comes back empty.
type Service struct {
	summarizer capability.Summarizer
	logger     logging.Logger
}

// NewService builds a summary service over the given capability.
func NewService(summarizer capability.Summarizer, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{summarizer: summarizer, logger: logger}
}

// Generate produces the full summary for a transcript. Capability failures
// degrade to empty fields; Generate itself never fails.
func (s *Service) Generate(ctx context.Context, fullText string) *MeetingSummary {
	if strings.TrimSpace(fullText) == "" {
		return &MeetingSummary{ExecutiveSummary: "No transcript available"}
	}
	return &MeetingSummary{
		ExecutiveSummary: s.executiveSummary(ctx, fullText),
		AgendaItems:      s.collect(ctx, fullText, promptAgenda, bulletPattern, 0, maxAgendaItems),
		Decisions:        s.collect(ctx, fullText, promptDecisions, decisionPattern, minDecisionLength, maxDecisions),
		Risks:            s.collect(ctx, fullText, promptRisks, riskPattern, minRiskLength, maxRisks),
		NextSteps:        s.collect(ctx, fullText, promptNextSteps, stepPattern, minStepLength, maxNextSteps),
	}
}

func (s *Service) executiveSummary(ctx context.Context, text string) string {
	chunks := chunkText(text, executiveChunkLength)
	if len(chunks) == 0 {
		return "No content available for summary."
	}
	return s.summarize(ctx, chunks[0], promptExecutive)
}

// collect prompts the model per chunk and keeps unique pattern matches above
// the minimum length, up to the limit.
func (s *Service) collect(ctx context.Context, text, prompt string, pattern *regexp.Regexp, minLength, limit int) []string {
	var items []string
	seen := make(map[string]struct{})

	for _, chunk := range chunkText(text, chunkLength) {
		response := s.summarize(ctx, chunk, prompt)
		if response == "" {
			continue
		}
		for _, match := range pattern.FindAllStringSubmatch(response, -1) {
			item := strings.TrimSpace(match[1])
			if item == "" || len(item) <= minLength {
				continue
			}
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			items = append(items, item)
			if len(items) >= limit {
				return items
			}
		}
	}
	return items
}

func (s *Service) summarize(ctx context.Context, text, prompt string) string {
	if s.summarizer == nil {
		return ""
	}
	response, err := s.summarizer.Summarize(ctx, text, prompt)
	if err != nil {
		s.logger.Debug("summarization degraded", logging.Err(err))
		return ""
	}
	return response
}

// chunkText splits text into chunks of roughly maxLength characters along
// sentence boundaries.
func chunkText(text string, maxLength int) []string {
	sentences := strings.Split(text, ". ")
	var chunks []string
	var current strings.Builder

	for _, sentence := range sentences {
		if current.Len()+len(sentence) < maxLength {
			current.WriteString(sentence)
			current.WriteString(". ")
			continue
		}
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(sentence)
		current.WriteString(". ")
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}
