// Package deadline extracts deadline timestamps from action-item text and
// classifies them into urgency tiers. It also hosts the shared date-pattern
// library used by the text normalizer.
package deadline

import "regexp"

// AbsoluteDatePatterns match explicit calendar dates. The normalizer rewrites
// these to YYYY-MM-DD and this package scans them as deadline mentions.
var AbsoluteDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2,4})\b`), // MM/DD/YYYY
	regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{2,4})\b`), // MM-DD-YYYY
	regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),?\s+(\d{4})\b`),
	regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+(\d{1,2}),?\s+(\d{4})\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2})\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{4})\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2})\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+(\d{4})\b`),
}

// relativeDatePatterns match relative or partial date mentions.
var relativeDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(today|tomorrow|yesterday)\b`),
	regexp.MustCompile(`(?i)\b(next|this)\s+(week|month|year|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	regexp.MustCompile(`(?i)\b(end of|beginning of)\s+(week|month|year|quarter)\b`),
	regexp.MustCompile(`(?i)\bin\s+(\d+)\s+(days?|weeks?|months?)\b`),
	regexp.MustCompile(`(?i)\bwithin\s+(\d+)\s+(days?|weeks?|months?)\b`),
	regexp.MustCompile(`(?i)\b(Q1|Q2|Q3|Q4)\s*(\d{4})?\b`),
	regexp.MustCompile(`(?i)\b(first|second|third|fourth)\s+quarter\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(AM|PM)\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2})\s*(AM|PM)\b`),
}

// deadlinePhrasePatterns capture the tail after a deadline-introducing phrase.
var deadlinePhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bby\s+(.*?)(?:\.|,|;|$)`),
	regexp.MustCompile(`(?i)\bbefore\s+(.*?)(?:\.|,|;|$)`),
	regexp.MustCompile(`(?i)\buntil\s+(.*?)(?:\.|,|;|$)`),
	regexp.MustCompile(`(?i)\bdue\s+(.*?)(?:\.|,|;|$)`),
	regexp.MustCompile(`(?i)\bdeadline\s*:?\s*(.*?)(?:\.|,|;|$)`),
}

// MentionPatterns returns every pattern that counts as a date-like mention
// when scanning whole text (absolute first, then relative).
func MentionPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(AbsoluteDatePatterns)+len(relativeDatePatterns))
	patterns = append(patterns, AbsoluteDatePatterns...)
	patterns = append(patterns, relativeDatePatterns...)
	return patterns
}
