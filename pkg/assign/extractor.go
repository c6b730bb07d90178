// Package assign resolves who owns an action item. Person entities come from
// a primary NER capability with a generic fallback, then a regex net; each
// candidate is weighed by the assignment language around it and finally
// mapped onto the meeting's speaker roster.
package assign

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/otherjamesbrown/mint-cli/pkg/capability"
	"github.com/otherjamesbrown/mint-cli/pkg/logging"
)

const (
	// fallbackConfidence is assigned to generic-model entities, which carry
	// no score of their own.
	fallbackConfidence = 0.8
	// regexConfidence is assigned to regex-extracted names. Below the
	// retention bar, so regex names survive only with assignment context.
	regexConfidence = 0.6
	// retainConfidence keeps an unassigned mention when the extractor was
	// this sure it is a person.
	retainConfidence = 0.7
	// contextWindow is how many characters around a mention are scanned for
	// assignment language.
	contextWindow = 50
	// rosterSimilarity is the bar a partial speaker match must clear.
	rosterSimilarity = 0.5
)

var (
	fullNamePattern   = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
	singleNamePattern = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
	titlePattern      = regexp.MustCompile(`(?i)\b(Mr|Mrs|Ms|Dr|Prof|CEO|CTO|VP|Director|Manager|Lead|Senior|Junior)\b\.?\s*`)
)

// capitalizedNoise are capitalized words that match the name patterns but
// never name a person in meeting text.
var capitalizedNoise = map[string]struct{}{
	"Action": {}, "Item": {}, "Next": {}, "Step": {}, "Meeting": {},
	"Team": {}, "Project": {}, "Update": {}, "Review": {}, "Send": {},
	"Call": {}, "Email": {}, "Follow": {}, "Complete": {},
}

var assignmentPhrases = []string{
	"assigned to", "responsible for", "will handle", "takes care of",
	"in charge of", "owns", "leads", "manages",
}

var actionVerbs = []string{"will", "should", "needs to", "has to", "responsible"}

// AssignmentType classifies how strongly a mention is tied to the action.
type AssignmentType string

const (
	AssignmentAssigned  AssignmentType = "assigned"
	AssignmentAction    AssignmentType = "action"
	AssignmentMentioned AssignmentType = "mentioned"
)

// Mention is one person candidate with its assignment context verdict.
type Mention struct {
	Name       string
	Confidence float64
	Assigned   bool
	Type       AssignmentType
	Context    string
}

// Extractor resolves assignees. Both capabilities are optional: with neither
// configured only the regex stage runs.
type Extractor struct {
	entities capability.EntityExtractor
	generic  capability.GenericEntityExtractor
	logger   logging.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithEntityExtractor sets the primary person-entity capability.
func WithEntityExtractor(e capability.EntityExtractor) Option {
	return func(x *Extractor) { x.entities = e }
}

// WithGenericExtractor sets the fallback entity capability.
func WithGenericExtractor(g capability.GenericEntityExtractor) Option {
	return func(x *Extractor) { x.generic = g }
}

// WithLogger sets the extractor logger.
func WithLogger(l logging.Logger) Option {
	return func(x *Extractor) { x.logger = l }
}

// NewExtractor builds an Extractor with the given options.
func NewExtractor(opts ...Option) *Extractor {
	x := &Extractor{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// ExtractAssignees returns the deduplicated, sorted assignee names for one
// action item, mapped onto the speaker roster when one is given. Capability
// failures degrade to the next stage rather than failing the action.
func (x *Extractor) ExtractAssignees(ctx context.Context, text string, speakers []string) []string {
	entities := x.personEntities(ctx, text)

	mentions := x.classifyMentions(text, entities)

	var names []string
	for _, mention := range mentions {
		if mention.Assigned || mention.Confidence > retainConfidence {
			names = append(names, mention.Name)
		}
	}

	if len(speakers) > 0 {
		names = MapToSpeakers(names, speakers)
	}
	return dedupeSorted(names)
}

// personEntities runs the three-stage extraction chain.
func (x *Extractor) personEntities(ctx context.Context, text string) []capability.Entity {
	if x.entities != nil {
		entities, err := x.entities.ExtractEntities(ctx, text)
		if err != nil {
			x.logger.Debug("primary entity extraction failed", logging.Err(err))
		} else if persons := filterPersons(entities); len(persons) > 0 {
			return persons
		}
	}

	if x.generic != nil {
		entities, err := x.generic.ExtractEntitiesGeneric(ctx, text)
		if err != nil {
			x.logger.Debug("generic entity extraction failed", logging.Err(err))
		} else if persons := filterPersons(entities); len(persons) > 0 {
			for i := range persons {
				persons[i].Confidence = fallbackConfidence
			}
			return persons
		}
	}

	return regexEntities(text)
}

func filterPersons(entities []capability.Entity) []capability.Entity {
	var persons []capability.Entity
	for _, entity := range entities {
		switch entity.Label {
		case "PER", "PERSON":
			persons = append(persons, entity)
		}
	}
	return persons
}

// regexEntities is the last-resort name net: capitalized word shapes with
// titles stripped and known noise words dropped.
func regexEntities(text string) []capability.Entity {
	clean := titlePattern.ReplaceAllString(text, "")

	seen := make(map[string]struct{})
	var entities []capability.Entity
	for _, pattern := range []*regexp.Regexp{fullNamePattern, singleNamePattern} {
		for _, name := range pattern.FindAllString(clean, -1) {
			if _, noise := capitalizedNoise[name]; noise {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			start := strings.Index(text, name)
			entities = append(entities, capability.Entity{
				Text:       name,
				Label:      "PERSON",
				Confidence: regexConfidence,
				Start:      start,
				End:        start + len(name),
			})
		}
	}
	return entities
}

// classifyMentions inspects a context window around each entity for
// assignment language. Ownership verbs outrank generic assignment phrases
// when both appear.
func (x *Extractor) classifyMentions(text string, entities []capability.Entity) []Mention {
	mentions := make([]Mention, 0, len(entities))
	for _, entity := range entities {
		start := entity.Start - contextWindow
		if start < 0 {
			start = 0
		}
		end := entity.Start + len(entity.Text) + contextWindow
		if end > len(text) {
			end = len(text)
		}
		context := strings.ToLower(text[start:end])

		mention := Mention{
			Name:       entity.Text,
			Confidence: entity.Confidence,
			Type:       AssignmentMentioned,
			Context:    strings.TrimSpace(context),
		}
		for _, phrase := range assignmentPhrases {
			if strings.Contains(context, phrase) {
				mention.Assigned = true
				mention.Type = AssignmentAssigned
				break
			}
		}
		for _, verb := range actionVerbs {
			if strings.Contains(context, verb) {
				mention.Assigned = true
				mention.Type = AssignmentAction
				break
			}
		}
		mentions = append(mentions, mention)
	}
	return mentions
}

// MapToSpeakers resolves extracted names against the speaker roster: exact
// case-insensitive match first, then the best containment match above the
// similarity bar. Names without a good match pass through unchanged.
func MapToSpeakers(names []string, speakers []string) []string {
	mapped := make([]string, 0, len(names))
	for _, name := range names {
		mapped = append(mapped, matchSpeaker(name, speakers))
	}
	return mapped
}

func matchSpeaker(name string, speakers []string) string {
	lower := strings.ToLower(name)
	for _, speaker := range speakers {
		if lower == strings.ToLower(speaker) {
			return speaker
		}
	}

	bestScore := 0.0
	bestMatch := ""
	for _, speaker := range speakers {
		speakerLower := strings.ToLower(speaker)
		if !strings.Contains(speakerLower, lower) && !strings.Contains(lower, speakerLower) {
			continue
		}
		longest := len(speaker)
		if len(name) > longest {
			longest = len(name)
		}
		similarity := float64(len(name)) / float64(longest)
		if similarity > bestScore {
			bestScore = similarity
			bestMatch = speaker
		}
	}
	if bestMatch != "" && bestScore > rosterSimilarity {
		return bestMatch
	}
	return name
}

func dedupeSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
