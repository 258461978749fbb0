package contract

import (
	"context"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/repository/specification"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	Update(ctx context.Context, job *entity.Job) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Job, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Job, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// CountByStatus returns aggregate counts keyed by status value.
	CountByStatus(ctx context.Context) (map[string]int64, error)
	// FailProcessing marks every in-flight job failed with the given detail
	// and returns how many rows changed. Used by the maintenance flush.
	FailProcessing(ctx context.Context, detail string) (int64, error)
}
