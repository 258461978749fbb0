// Package engines holds the clients for the external model services the
// pipeline depends on: speech-to-text, speaker diarization, the LLM used for
// titles/summaries/memory extraction, and the embedding model.
package engines

import "context"

// Word is a single recognised word with its confidence, on the timeline of
// the audio that was submitted.
type Word struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// TranscriptSegment is a contiguous utterance grouped by the engine.
type TranscriptSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// TranscribeResult carries both granularities: words feed the boundary
// detector, segments become transcript versions.
type TranscribeResult struct {
	Words    []Word              `json:"words"`
	Segments []TranscriptSegment `json:"segments"`
}

// SpeakerTurn is one attributed span from the diarization engine.
type SpeakerTurn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// MemoryFact is one extracted fact before embedding.
type MemoryFact struct {
	Content  string `json:"content"`
	Category string `json:"category"`
}

// Transcriber converts WAV audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (*TranscribeResult, error)
}

// Diarizer attributes spans of WAV audio to speakers.
type Diarizer interface {
	Diarize(ctx context.Context, wav []byte) ([]SpeakerTurn, error)
}

// LLMProvider covers the generation tasks the pipeline needs.
type LLMProvider interface {
	GenerateTitleSummary(ctx context.Context, transcript string) (title string, summary string, err error)
	ExtractMemories(ctx context.Context, transcript string) ([]MemoryFact, error)
}

// EmbeddingProvider turns text into a normalized vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
