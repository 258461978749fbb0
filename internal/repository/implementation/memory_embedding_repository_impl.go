package implementation

import (
	"context"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/mapper"
	"ai-conversations-be/internal/model"
	"ai-conversations-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type MemoryEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MemoryMapper
}

func NewMemoryEmbeddingRepository(db *gorm.DB) contract.MemoryEmbeddingRepository {
	return &MemoryEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewMemoryMapper(),
	}
}

func (r *MemoryEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, version *entity.MemoryVersion) error {
	rows := r.mapper.ToEmbeddingModels(version)
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

func (r *MemoryEmbeddingRepositoryImpl) DeleteByMemoryVersionId(ctx context.Context, versionId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("memory_version_id = ?", versionId).
		Delete(&model.MemoryEmbedding{}).Error
}

func (r *MemoryEmbeddingRepositoryImpl) Search(ctx context.Context, embedding []float32, limit int) ([]contract.MemorySearchHit, error) {
	var results []struct {
		ConversationId  uuid.UUID
		MemoryVersionId uuid.UUID
		Content         string
		Category        string
		Distance        float64
	}

	err := r.db.WithContext(ctx).
		Model(&model.MemoryEmbedding{}).
		Select("conversation_id, memory_version_id, content, category, embedding <=> ? AS distance", pgvector.NewVector(embedding)).
		Order("distance ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	hits := make([]contract.MemorySearchHit, len(results))
	for i, res := range results {
		hits[i] = contract.MemorySearchHit{
			ConversationId:  res.ConversationId,
			MemoryVersionId: res.MemoryVersionId,
			Content:         res.Content,
			Category:        res.Category,
			Distance:        res.Distance,
		}
	}
	return hits, nil
}
