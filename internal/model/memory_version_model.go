package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type MemoryVersion struct {
	Id                        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId            uuid.UUID      `gorm:"type:uuid;not null;index"`
	Items                     datatypes.JSON `gorm:"type:jsonb"`
	SourceTranscriptVersionId uuid.UUID      `gorm:"type:uuid;not null"`
	CreatedByJobId            uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	CreatedAt                 time.Time      `gorm:"autoCreateTime"`
}

func (MemoryVersion) TableName() string {
	return "memory_versions"
}

// MemoryEmbedding carries one extracted item's vector for semantic search.
// Rows are replaced wholesale when a memory version is (re)created.
type MemoryEmbedding struct {
	Id              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MemoryVersionId uuid.UUID       `gorm:"type:uuid;not null;index"`
	ConversationId  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemIndex       int             `gorm:"default:0"`
	Content         string          `gorm:"type:text"`
	Category        string          `gorm:"type:varchar(64)"`
	Embedding       pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
}

func (MemoryEmbedding) TableName() string {
	return "memory_embeddings"
}
