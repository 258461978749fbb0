package mapper

import (
	"encoding/json"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/model"

	"gorm.io/datatypes"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) ToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var intervals []entity.KeptInterval
	if len(c.KeptIntervals) > 0 {
		_ = json.Unmarshal(c.KeptIntervals, &intervals)
	}

	return &entity.Conversation{
		Id:                        c.Id,
		ClientId:                  c.ClientId,
		Title:                     c.Title,
		Summary:                   c.Summary,
		AudioPath:                 c.AudioPath,
		CroppedAudioPath:          c.CroppedAudioPath,
		KeptIntervals:             intervals,
		EndReason:                 entity.EndReason(c.EndReason),
		ActiveTranscriptVersionId: c.ActiveTranscriptVersionId,
		ActiveMemoryVersionId:     c.ActiveMemoryVersionId,
		CreatedAt:                 c.CreatedAt,
		CompletedAt:               c.CompletedAt,
	}
}

func (m *ConversationMapper) ToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	var intervals datatypes.JSON
	if c.KeptIntervals != nil {
		raw, _ := json.Marshal(c.KeptIntervals)
		intervals = datatypes.JSON(raw)
	}

	return &model.Conversation{
		Id:                        c.Id,
		ClientId:                  c.ClientId,
		Title:                     c.Title,
		Summary:                   c.Summary,
		AudioPath:                 c.AudioPath,
		CroppedAudioPath:          c.CroppedAudioPath,
		KeptIntervals:             intervals,
		EndReason:                 string(c.EndReason),
		ActiveTranscriptVersionId: c.ActiveTranscriptVersionId,
		ActiveMemoryVersionId:     c.ActiveMemoryVersionId,
		CreatedAt:                 c.CreatedAt,
		CompletedAt:               c.CompletedAt,
	}
}

func (m *ConversationMapper) ToEntities(conversations []*model.Conversation) []*entity.Conversation {
	entities := make([]*entity.Conversation, len(conversations))
	for i, c := range conversations {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
