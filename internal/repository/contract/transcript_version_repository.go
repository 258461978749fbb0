package contract

import (
	"context"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TranscriptVersionRepository interface {
	Create(ctx context.Context, version *entity.TranscriptVersion) error
	// Update rewrites segment payloads in place. It exists for the remap and
	// speaker-annotation steps only; version identity and source segments are
	// never touched after creation.
	Update(ctx context.Context, version *entity.TranscriptVersion) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TranscriptVersion, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranscriptVersion, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
