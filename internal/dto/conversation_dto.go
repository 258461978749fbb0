package dto

import (
	"time"

	"github.com/google/uuid"
)

type SegmentDto struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Speaker    string  `json:"speaker,omitempty"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type ConversationResponse struct {
	Id                        uuid.UUID  `json:"id"`
	ClientId                  string     `json:"client_id"`
	Title                     string     `json:"title,omitempty"`
	Summary                   string     `json:"summary,omitempty"`
	EndReason                 string     `json:"end_reason,omitempty"`
	AudioPath                 string     `json:"audio_path,omitempty"`
	CroppedAudioPath          string     `json:"cropped_audio_path,omitempty"`
	ActiveTranscriptVersionId *uuid.UUID `json:"active_transcript_version_id,omitempty"`
	ActiveMemoryVersionId     *uuid.UUID `json:"active_memory_version_id,omitempty"`
	TranscriptVersionCount    int64      `json:"transcript_version_count"`
	MemoryVersionCount        int64      `json:"memory_version_count"`
	CreatedAt                 time.Time  `json:"created_at"`
	CompletedAt               *time.Time `json:"completed_at,omitempty"`
}

// ShowConversationResponse optionally carries the active transcript's
// segments; list endpoints leave them out to keep payloads light.
type ShowConversationResponse struct {
	ConversationResponse
	Segments []SegmentDto `json:"segments,omitempty"`
}

type ListConversationsRequest struct {
	ClientId string `query:"client_id"`
	Limit    int    `query:"limit"`
	Offset   int    `query:"offset"`
}

type TranscriptVersionResponse struct {
	Id             uuid.UUID    `json:"id"`
	ConversationId uuid.UUID    `json:"conversation_id"`
	CreatedByJobId uuid.UUID    `json:"created_by_job_id"`
	Active         bool         `json:"active"`
	Segments       []SegmentDto `json:"segments,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

type MemoryItemDto struct {
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

type MemoryVersionResponse struct {
	Id                        uuid.UUID       `json:"id"`
	ConversationId            uuid.UUID       `json:"conversation_id"`
	SourceTranscriptVersionId uuid.UUID       `json:"source_transcript_version_id"`
	CreatedByJobId            uuid.UUID       `json:"created_by_job_id"`
	Active                    bool            `json:"active"`
	Items                     []MemoryItemDto `json:"items"`
	CreatedAt                 time.Time       `json:"created_at"`
}

type ActivateVersionRequest struct {
	VersionId uuid.UUID `json:"version_id" validate:"required"`
}

type ReprocessMemoryRequest struct {
	TranscriptVersionId *uuid.UUID `json:"transcript_version_id,omitempty"`
}

type ReprocessResponse struct {
	JobId uuid.UUID `json:"job_id"`
}

type MemorySearchRequest struct {
	Query string `query:"query" validate:"required"`
	Limit int    `query:"limit"`
}

type MemorySearchResponse struct {
	ConversationId  uuid.UUID `json:"conversation_id"`
	MemoryVersionId uuid.UUID `json:"memory_version_id"`
	Content         string    `json:"content"`
	Category        string    `json:"category,omitempty"`
	Distance        float64   `json:"distance"`
}
