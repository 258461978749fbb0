package mapper

import (
	"encoding/json"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/model"

	"gorm.io/datatypes"
)

type TranscriptMapper struct{}

func NewTranscriptMapper() *TranscriptMapper {
	return &TranscriptMapper{}
}

func (m *TranscriptMapper) ToEntity(v *model.TranscriptVersion) *entity.TranscriptVersion {
	if v == nil {
		return nil
	}

	var segments, sourceSegments []entity.Segment
	if len(v.Segments) > 0 {
		_ = json.Unmarshal(v.Segments, &segments)
	}
	if len(v.SourceSegments) > 0 {
		_ = json.Unmarshal(v.SourceSegments, &sourceSegments)
	}

	return &entity.TranscriptVersion{
		Id:             v.Id,
		ConversationId: v.ConversationId,
		Segments:       segments,
		SourceSegments: sourceSegments,
		CreatedByJobId: v.CreatedByJobId,
		CreatedAt:      v.CreatedAt,
	}
}

func (m *TranscriptMapper) ToModel(v *entity.TranscriptVersion) *model.TranscriptVersion {
	if v == nil {
		return nil
	}

	segments, _ := json.Marshal(v.Segments)
	sourceSegments, _ := json.Marshal(v.SourceSegments)

	return &model.TranscriptVersion{
		Id:             v.Id,
		ConversationId: v.ConversationId,
		Segments:       datatypes.JSON(segments),
		SourceSegments: datatypes.JSON(sourceSegments),
		CreatedByJobId: v.CreatedByJobId,
		CreatedAt:      v.CreatedAt,
	}
}

func (m *TranscriptMapper) ToEntities(versions []*model.TranscriptVersion) []*entity.TranscriptVersion {
	entities := make([]*entity.TranscriptVersion, len(versions))
	for i, v := range versions {
		entities[i] = m.ToEntity(v)
	}
	return entities
}
