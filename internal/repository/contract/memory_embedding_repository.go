package contract

import (
	"context"

	"ai-conversations-be/internal/entity"

	"github.com/google/uuid"
)

// MemorySearchHit is one semantic search result with its cosine distance.
type MemorySearchHit struct {
	ConversationId  uuid.UUID
	MemoryVersionId uuid.UUID
	Content         string
	Category        string
	Distance        float64
}

type MemoryEmbeddingRepository interface {
	CreateBulk(ctx context.Context, version *entity.MemoryVersion) error
	DeleteByMemoryVersionId(ctx context.Context, versionId uuid.UUID) error
	Search(ctx context.Context, embedding []float32, limit int) ([]MemorySearchHit, error)
}
