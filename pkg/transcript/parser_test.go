package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sampleVTT = `WEBVTT

1 "Alice Chen" (101)
00:00:01.000 --> 00:00:04.500
Good morning everyone.

2 "Bob Park" (102)
00:00:05.000 --> 00:00:09.250
I will send the report by Friday.

3 "Alice Chen" (101)
00:00:10.000 --> 00:00:12.000
Thanks Bob.
`

func TestParseVTT(t *testing.T) {
	result, err := ParseVTT(strings.NewReader(sampleVTT))
	require.NoError(t, err)

	require.Len(t, result.Segments, 3)
	assert.Equal(t, "Alice Chen", result.Segments[0].SpeakerID)
	assert.Equal(t, 1.0, result.Segments[0].Start)
	assert.Equal(t, 4.5, result.Segments[0].End)
	assert.Equal(t, "I will send the report by Friday.", result.Segments[1].Text)
	assert.Equal(t, []string{"Alice Chen", "Bob Park"}, result.Speakers)
	assert.Equal(t, 12.0, result.DurationSeconds)
	assert.Contains(t, result.FullText, "Good morning everyone.")
}

func TestParseVTT_EmptySpeakerGetsGenericLabel(t *testing.T) {
	vtt := `WEBVTT

1 "" (0)
00:00:00.000 --> 00:00:02.000
Unattributed remark.
`
	result, err := ParseVTT(strings.NewReader(vtt))
	require.NoError(t, err)

	require.Len(t, result.Segments, 1)
	assert.Equal(t, GenericSpeaker, result.Segments[0].SpeakerID)
}

func TestParseVTT_Windows1252Input(t *testing.T) {
	text := "WEBVTT\n\n1 \"José García\" (7)\n00:00:00.000 --> 00:00:01.000\nRevisaré el documento.\n"
	encoded, err := charmap.Windows1252.NewEncoder().String(text)
	require.NoError(t, err)

	result, err := ParseVTT(strings.NewReader(encoded))
	require.NoError(t, err)

	require.Len(t, result.Segments, 1)
	assert.Equal(t, "José García", result.Segments[0].SpeakerID)
}

func TestParseTXT(t *testing.T) {
	txt := `0:11 : Alice Chen : We need to schedule a follow-up.
0:45 : Bob Park : I can take that.
not a transcript line
1:30 : Alice Chen : Great, thanks.
`
	result, err := ParseTXT(strings.NewReader(txt))
	require.NoError(t, err)

	require.Len(t, result.Segments, 3)
	assert.Equal(t, 11.0, result.Segments[0].Start)
	assert.Equal(t, 11.0, result.Segments[0].End)
	assert.Equal(t, "Bob Park", result.Segments[1].SpeakerID)
	assert.Equal(t, 90.0, result.DurationSeconds)
	assert.Equal(t, []string{"Alice Chen", "Bob Park"}, result.Speakers)
}

func TestParseTXT_SkipsEmptyInput(t *testing.T) {
	result, err := ParseTXT(strings.NewReader("\n\n"))
	require.NoError(t, err)
	assert.Empty(t, result.Segments)
	assert.Equal(t, 0.0, result.DurationSeconds)
}
