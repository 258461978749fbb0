package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByJobType filters jobs by their type column.
type ByJobType struct {
	Type string
}

func (s ByJobType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("type = ?", s.Type)
}

// ByJobStatus filters jobs by status.
type ByJobStatus struct {
	Status string
}

func (s ByJobStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ByClientId filters jobs or conversations by the owning client identity.
type ByClientId struct {
	ClientId string
}

func (s ByClientId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("client_id = ?", s.ClientId)
}

// ByConversationId filters by the linked conversation.
type ByConversationId struct {
	ConversationId uuid.UUID
}

func (s ByConversationId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationId)
}

// ByCreatedByJobId locates the version a specific job produced.
type ByCreatedByJobId struct {
	JobId uuid.UUID
}

func (s ByCreatedByJobId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_by_job_id = ?", s.JobId)
}
