package transcript

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Matches transcript line: 0:11 : Speaker Name : Text content
// or: 12:45 : Speaker Name (pronouns) : Text content
var txtTranscriptLineRegex = regexp.MustCompile(`^(\d+):(\d{2})\s*:\s*([^:]+?)\s*:\s*(.+)$`)

// ParseTXT parses a plain text transcript file.
// Format: timestamp : Speaker Name : text
//
// The TXT format has no end times; each segment's end equals its start, so
// a later merge pass generally collapses consecutive same-speaker lines.
func ParseTXT(r io.Reader) (*Transcript, error) {
	decoded, err := decodeTranscriptReader(r)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(decoded)
	result := &Transcript{
		Segments: make([]Segment, 0),
		Speakers: make([]string, 0),
	}

	speakerSeen := make(map[string]bool)
	var textBuilder strings.Builder

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		matches := txtTranscriptLineRegex.FindStringSubmatch(line)
		if matches == nil {
			// Skip malformed lines
			continue
		}

		minutes, _ := strconv.Atoi(matches[1])
		seconds, _ := strconv.Atoi(matches[2])
		speaker := strings.TrimSpace(matches[3])
		text := strings.TrimSpace(matches[4])

		timestamp := float64(minutes*60 + seconds)

		result.Segments = append(result.Segments, Segment{
			Text:       text,
			Start:      timestamp,
			End:        timestamp,
			SpeakerID:  speaker,
			Confidence: 1.0,
		})

		if !speakerSeen[speaker] {
			speakerSeen[speaker] = true
			result.Speakers = append(result.Speakers, speaker)
		}

		if timestamp > result.DurationSeconds {
			result.DurationSeconds = timestamp
		}

		if textBuilder.Len() > 0 {
			textBuilder.WriteString(" ")
		}
		textBuilder.WriteString(text)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	result.FullText = textBuilder.String()
	return result, nil
}
