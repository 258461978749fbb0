package entity

import (
	"time"

	"github.com/google/uuid"
)

// MemoryItem is a single fact extracted from a transcript. The embedding is
// filled by the embedding engine and backs semantic memory search.
type MemoryItem struct {
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Embedding []float32 `json:"-"`
}

type MemoryVersion struct {
	Id                        uuid.UUID
	ConversationId            uuid.UUID
	Items                     []MemoryItem
	SourceTranscriptVersionId uuid.UUID
	CreatedByJobId            uuid.UUID
	CreatedAt                 time.Time
}
