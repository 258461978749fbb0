package mapper

import (
	"encoding/json"
	"time"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/model"

	"gorm.io/datatypes"
)

type JobMapper struct{}

func NewJobMapper() *JobMapper {
	return &JobMapper{}
}

func (m *JobMapper) ToEntity(j *model.Job) *entity.Job {
	if j == nil {
		return nil
	}

	var result map[string]interface{}
	if len(j.Result) > 0 {
		_ = json.Unmarshal(j.Result, &result)
	}

	var updatedAt *time.Time
	if !j.UpdatedAt.IsZero() {
		t := j.UpdatedAt
		updatedAt = &t
	}

	return &entity.Job{
		Id:     j.Id,
		Type:   entity.JobType(j.Type),
		Queue:  j.Queue,
		Status: entity.JobStatus(j.Status),
		Meta: entity.JobMeta{
			ClientId:            j.ClientId,
			ConversationId:      j.ConversationId,
			ConversationJobId:   j.ConversationJobId,
			TranscriptVersionId: j.TranscriptVersionId,
			Reprocess:           j.Reprocess,
		},
		Result:    result,
		Error:     j.Error,
		Attempts:  j.Attempts,
		CreatedAt: j.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *JobMapper) ToModel(j *entity.Job) *model.Job {
	if j == nil {
		return nil
	}

	var result datatypes.JSON
	if j.Result != nil {
		raw, _ := json.Marshal(j.Result)
		result = datatypes.JSON(raw)
	}

	var updatedAt time.Time
	if j.UpdatedAt != nil {
		updatedAt = *j.UpdatedAt
	}

	return &model.Job{
		Id:                  j.Id,
		Type:                string(j.Type),
		Queue:               j.Queue,
		Status:              string(j.Status),
		ClientId:            j.Meta.ClientId,
		ConversationId:      j.Meta.ConversationId,
		ConversationJobId:   j.Meta.ConversationJobId,
		TranscriptVersionId: j.Meta.TranscriptVersionId,
		Reprocess:           j.Meta.Reprocess,
		Result:              result,
		Error:               j.Error,
		Attempts:            j.Attempts,
		CreatedAt:           j.CreatedAt,
		UpdatedAt:           updatedAt,
	}
}

func (m *JobMapper) ToEntities(jobs []*model.Job) []*entity.Job {
	entities := make([]*entity.Job, len(jobs))
	for i, j := range jobs {
		entities[i] = m.ToEntity(j)
	}
	return entities
}
