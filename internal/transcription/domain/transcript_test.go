package domain

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticTranscript_Deterministic(t *testing.T) {
	first := SyntheticTranscript()
	second := SyntheticTranscript()

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Segments, second.Segments)
}

func TestSyntheticTranscript_Shape(t *testing.T) {
	transcript := SyntheticTranscript()

	require.True(t, IsSynthetic(transcript.Text))

	wordCount := len(strings.Fields(syntheticText))
	wantSegments := int(math.Ceil(float64(wordCount) / float64(syntheticWordsPerSegment)))
	require.Len(t, transcript.Segments, wantSegments)

	for i, seg := range transcript.Segments {
		assert.Equal(t, float64(i)*syntheticSegmentSeconds, seg.Start)
		assert.Equal(t, seg.Start+syntheticSegmentSeconds, seg.End)
		assert.NotEmpty(t, seg.Text)
	}

	// Segment texts reassemble the placeholder sentence
	var parts []string
	for _, seg := range transcript.Segments {
		parts = append(parts, seg.Text)
	}
	assert.Equal(t, syntheticText, strings.Join(parts, " "))
}

func TestSyntheticTranscript_StartsNonDecreasing(t *testing.T) {
	transcript := SyntheticTranscript()

	for i := 1; i < len(transcript.Segments); i++ {
		assert.GreaterOrEqual(t, transcript.Segments[i].Start, transcript.Segments[i-1].Start)
	}
}

func TestIsSynthetic(t *testing.T) {
	assert.True(t, IsSynthetic(SyntheticTranscript().Text))
	assert.False(t, IsSynthetic("hola"))
}
