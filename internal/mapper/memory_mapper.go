package mapper

import (
	"encoding/json"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/model"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type MemoryMapper struct{}

func NewMemoryMapper() *MemoryMapper {
	return &MemoryMapper{}
}

func (m *MemoryMapper) ToEntity(v *model.MemoryVersion) *entity.MemoryVersion {
	if v == nil {
		return nil
	}

	var items []entity.MemoryItem
	if len(v.Items) > 0 {
		_ = json.Unmarshal(v.Items, &items)
	}

	return &entity.MemoryVersion{
		Id:                        v.Id,
		ConversationId:            v.ConversationId,
		Items:                     items,
		SourceTranscriptVersionId: v.SourceTranscriptVersionId,
		CreatedByJobId:            v.CreatedByJobId,
		CreatedAt:                 v.CreatedAt,
	}
}

func (m *MemoryMapper) ToModel(v *entity.MemoryVersion) *model.MemoryVersion {
	if v == nil {
		return nil
	}

	items, _ := json.Marshal(v.Items)

	return &model.MemoryVersion{
		Id:                        v.Id,
		ConversationId:            v.ConversationId,
		Items:                     datatypes.JSON(items),
		SourceTranscriptVersionId: v.SourceTranscriptVersionId,
		CreatedByJobId:            v.CreatedByJobId,
		CreatedAt:                 v.CreatedAt,
	}
}

func (m *MemoryMapper) ToEntities(versions []*model.MemoryVersion) []*entity.MemoryVersion {
	entities := make([]*entity.MemoryVersion, len(versions))
	for i, v := range versions {
		entities[i] = m.ToEntity(v)
	}
	return entities
}

// ToEmbeddingModels expands a version's items into embedding rows. Items
// without a vector (embedding engine unavailable) are skipped.
func (m *MemoryMapper) ToEmbeddingModels(v *entity.MemoryVersion) []*model.MemoryEmbedding {
	rows := make([]*model.MemoryEmbedding, 0, len(v.Items))
	for i, item := range v.Items {
		if len(item.Embedding) == 0 {
			continue
		}
		rows = append(rows, &model.MemoryEmbedding{
			Id:              uuid.New(),
			MemoryVersionId: v.Id,
			ConversationId:  v.ConversationId,
			ItemIndex:       i,
			Content:         item.Content,
			Category:        item.Category,
			Embedding:       pgvector.NewVector(item.Embedding),
		})
	}
	return rows
}
