package contract

import (
	"context"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MemoryVersionRepository interface {
	Create(ctx context.Context, version *entity.MemoryVersion) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MemoryVersion, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MemoryVersion, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
