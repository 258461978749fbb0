package entity

import (
	"time"

	"github.com/google/uuid"
)

// Segment is one attributed span of transcribed speech. Start/End are seconds
// into the timeline the version currently references (original audio until
// remap, cropped audio after).
type Segment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Speaker    string  `json:"speaker,omitempty"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// TranscriptVersion is an immutable artifact of one transcription job.
// SourceSegments keep the engine output on the original audio timeline;
// Segments hold the display timeline and are always recomputed from
// SourceSegments when the cropped timeline is applied.
type TranscriptVersion struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	Segments       []Segment
	SourceSegments []Segment
	CreatedByJobId uuid.UUID
	CreatedAt      time.Time
}

// Text concatenates the segment texts, used as LLM input.
func (v *TranscriptVersion) Text() string {
	out := ""
	for i, seg := range v.Segments {
		if i > 0 {
			out += " "
		}
		out += seg.Text
	}
	return out
}
