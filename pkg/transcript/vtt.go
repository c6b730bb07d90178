package transcript

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// VTT parsing regular expressions
var (
	// Matches segment header: 1 "Speaker Name" (speaker_id) or just: 1 "" (0)
	vttSegmentHeaderRegex = regexp.MustCompile(`^\d+\s+"([^"]*)"(?:\s+\((\d+)\))?`)

	// Matches timestamp line: 00:00:05.579 --> 00:00:06.858
	vttTimestampRegex = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}\.\d{3})\s+-->\s+(\d{2}:\d{2}:\d{2}\.\d{3})`)
)

// ParseVTT parses a WebVTT format transcript file into an aligned transcript.
// File transcripts carry their own speaker attribution, so no diarization
// pass is needed; segment confidence is fixed at 1.0.
func ParseVTT(r io.Reader) (*Transcript, error) {
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
	var current *Segment

	flush := func() {
		if current != nil && current.Text != "" {
			result.Segments = append(result.Segments, *current)
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || line == "WEBVTT" {
			continue
		}

		if matches := vttSegmentHeaderRegex.FindStringSubmatch(line); matches != nil {
			flush()

			speaker := matches[1]
			if speaker == "" {
				speaker = GenericSpeaker
			}
			current = &Segment{SpeakerID: speaker, Confidence: 1.0}

			if !speakerSeen[speaker] {
				speakerSeen[speaker] = true
				result.Speakers = append(result.Speakers, speaker)
			}
			continue
		}

		if matches := vttTimestampRegex.FindStringSubmatch(line); matches != nil {
			start := parseVTTTimestamp(matches[1])
			end := parseVTTTimestamp(matches[2])
			if current != nil {
				current.Start = start
				current.End = end
			}
			if end > result.DurationSeconds {
				result.DurationSeconds = end
			}
			continue
		}

		// Must be text content
		if current != nil {
			if current.Text != "" {
				current.Text += " "
			}
			current.Text += line

			if textBuilder.Len() > 0 {
				textBuilder.WriteString(" ")
			}
			textBuilder.WriteString(line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	result.FullText = textBuilder.String()
	return result, nil
}

// parseVTTTimestamp parses a VTT timestamp (HH:MM:SS.mmm) to seconds.
func parseVTTTimestamp(ts string) float64 {
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0
	}

	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	seconds, _ := strconv.ParseFloat(parts[2], 64)

	return float64(hours)*3600 + float64(minutes)*60 + seconds
}

// decodeTranscriptReader returns a UTF-8 reader for transcript content.
// Meeting tools on Windows still export Windows-1252; invalid UTF-8 input
// is re-decoded through that charmap.
func decodeTranscriptReader(r io.Reader) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if utf8.Valid(raw) {
		return bytes.NewReader(raw), nil
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), charmap.Windows1252.NewDecoder()))
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(decoded), nil
}
