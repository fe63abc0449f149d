package domain

import "strings"

// Segment is one timed slice of a transcript. Start and End are seconds
// from the beginning of the recording.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the output of one transcription run. Segments are ordered
// by start time ascending and assumed non-overlapping by the provider.
type Transcript struct {
	Text     string
	Segments []Segment
}

const (
	syntheticMarker = "[TRANSCRIPCIÓN SIMULADA - Sin créditos OpenAI]"

	syntheticText = "Hola, mi nombre es [Candidato] y estoy muy entusiasmado por esta oportunidad. " +
		"Tengo experiencia relevante en el área y creo que puedo aportar mucho valor a su equipo. " +
		"Me considero una persona proactiva, con capacidad de trabajo en equipo y siempre " +
		"dispuesto a aprender nuevas tecnologías. Gracias por considerarme para este puesto."

	syntheticWordsPerSegment = 10
	syntheticSegmentSeconds  = 3.0
)

// SyntheticTranscript builds the deterministic placeholder transcript used
// when the transcription provider reports exhausted quota. The placeholder
// sentence is split into groups of ten words, each assigned a sequential
// three second segment starting at zero. Repeated calls return identical
// output.
func SyntheticTranscript() *Transcript {
	words := strings.Fields(syntheticText)

	var segments []Segment
	start := 0.0
	for i := 0; i < len(words); i += syntheticWordsPerSegment {
		end := i + syntheticWordsPerSegment
		if end > len(words) {
			end = len(words)
		}
		segments = append(segments, Segment{
			Start: start,
			End:   start + syntheticSegmentSeconds,
			Text:  strings.Join(words[i:end], " "),
		})
		start += syntheticSegmentSeconds
	}

	return &Transcript{
		Text:     syntheticMarker + "\n\n" + syntheticText,
		Segments: segments,
	}
}

// IsSynthetic reports whether a transcript text carries the synthetic
// origin marker.
func IsSynthetic(text string) bool {
	return strings.HasPrefix(text, syntheticMarker)
}
