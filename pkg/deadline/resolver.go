package deadline

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/otherjamesbrown/mint-cli/pkg/capability"
	"github.com/otherjamesbrown/mint-cli/pkg/logging"
)

// Urgency tiers assigned to an action item based on how far away its
// deadline is. An action with no deadline is always UrgencyLow.
type Urgency string

const (
	UrgencyOverdue Urgency = "overdue"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyHigh    Urgency = "high"
	UrgencyMedium  Urgency = "medium"
	UrgencyLow     Urgency = "low"
)

// urgencyOffsets map urgency keywords to a day offset from now. Order
// matters: the first keyword found in the text wins.
var urgencyOffsets = []struct {
	keyword string
	days    int
}{
	{"asap", 0},
	{"urgent", 1},
	{"high priority", 2},
	{"soon", 7},
	{"eventually", 30},
}

// Resolver turns free text into concrete deadline timestamps. Relative
// phrases are resolved natively against a clock; anything else falls back to
// the date-parsing capability when one is configured.
type Resolver struct {
	dates  capability.DateParser
	logger logging.Logger
	now    func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDateParser sets the capability used for dates the native rules cannot
// resolve. Without one, such mentions yield no deadline.
func WithDateParser(p capability.DateParser) Option {
	return func(r *Resolver) { r.dates = p }
}

// WithLogger sets the resolver logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithClock overrides the time source. Tests use this to pin "now".
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver builds a Resolver with the given options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		logger: logging.NewNopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExtractDeadline finds the most likely deadline in text, or nil when the
// text carries no date signal. Resolution order: deadline phrase tails,
// then standalone date mentions, then urgency keywords.
func (r *Resolver) ExtractDeadline(ctx context.Context, text string) *time.Time {
	for _, pattern := range deadlinePhrasePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		phrase := strings.TrimSpace(match[1])
		if phrase == "" {
			continue
		}
		if deadline := r.resolvePhrase(ctx, phrase); deadline != nil {
			return deadline
		}
	}

	for _, pattern := range MentionPatterns() {
		match := pattern.FindString(text)
		if match == "" {
			continue
		}
		if deadline := r.resolvePhrase(ctx, match); deadline != nil {
			return deadline
		}
	}

	lower := strings.ToLower(text)
	for _, offset := range urgencyOffsets {
		if strings.Contains(lower, offset.keyword) {
			deadline := r.now().AddDate(0, 0, offset.days)
			return &deadline
		}
	}
	return nil
}

// resolvePhrase tries native relative resolution first, then the capability.
func (r *Resolver) resolvePhrase(ctx context.Context, phrase string) *time.Time {
	if deadline := r.ParseRelativeDate(phrase, r.now()); deadline != nil {
		return deadline
	}
	if r.dates == nil {
		return nil
	}
	deadline, err := r.dates.ParseDate(ctx, phrase, true)
	if err != nil {
		r.logger.Debug("date capability parse failed",
			logging.F("phrase", phrase), logging.Err(err))
		return nil
	}
	return deadline
}

var (
	weekdayPattern  = regexp.MustCompile(`(?i)\b(?:next|this)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	inWithinPattern = regexp.MustCompile(`(?i)\b(?:in|within)\s+(\d+)\s+(days?|weeks?|months?)\b`)
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ParseRelativeDate resolves relative phrases against the given reference
// time. Unrecognized phrases return nil.
func (r *Resolver) ParseRelativeDate(text string, now time.Time) *time.Time {
	lower := strings.ToLower(text)

	for _, offset := range urgencyOffsets {
		if strings.Contains(lower, offset.keyword) {
			deadline := now.AddDate(0, 0, offset.days)
			return &deadline
		}
	}

	switch {
	case strings.Contains(lower, "today"):
		deadline := now
		return &deadline
	case strings.Contains(lower, "tomorrow"):
		deadline := now.AddDate(0, 0, 1)
		return &deadline
	case strings.Contains(lower, "yesterday"):
		deadline := now.AddDate(0, 0, -1)
		return &deadline
	case strings.Contains(lower, "next week"):
		deadline := now.AddDate(0, 0, 7)
		return &deadline
	case strings.Contains(lower, "this week"):
		// End of the working week: the coming Friday.
		days := (int(time.Friday) - int(now.Weekday()) + 7) % 7
		deadline := now.AddDate(0, 0, days)
		return &deadline
	case strings.Contains(lower, "next month"):
		deadline := now.AddDate(0, 0, 30)
		return &deadline
	case strings.Contains(lower, "end of month"), strings.Contains(lower, "end of the month"):
		deadline := endOfMonth(now)
		return &deadline
	}

	if match := weekdayPattern.FindStringSubmatch(lower); match != nil {
		target := weekdays[match[1]]
		days := (int(target) - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		deadline := now.AddDate(0, 0, days)
		return &deadline
	}

	if match := inWithinPattern.FindStringSubmatch(lower); match != nil {
		amount, err := strconv.Atoi(match[1])
		if err != nil {
			return nil
		}
		days := amount
		switch {
		case strings.HasPrefix(match[2], "week"):
			days = amount * 7
		case strings.HasPrefix(match[2], "month"):
			days = amount * 30
		}
		deadline := now.AddDate(0, 0, days)
		return &deadline
	}

	return nil
}

// endOfMonth returns the last day of now's month at the same clock time.
func endOfMonth(now time.Time) time.Time {
	firstOfNext := time.Date(now.Year(), now.Month(), 1, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
	firstOfNext = firstOfNext.AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

// ClassifyUrgency buckets a deadline relative to now. Whole days are floored,
// so a deadline any amount in the past is overdue and one later today is
// urgent.
func ClassifyUrgency(deadline *time.Time, now time.Time) Urgency {
	if deadline == nil {
		return UrgencyLow
	}
	days := int(math.Floor(deadline.Sub(now).Hours() / 24))
	switch {
	case days < 0:
		return UrgencyOverdue
	case days == 0:
		return UrgencyUrgent
	case days <= 3:
		return UrgencyHigh
	case days <= 7:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
