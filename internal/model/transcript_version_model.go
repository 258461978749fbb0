package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TranscriptVersion struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Segments       datatypes.JSON `gorm:"type:jsonb"`
	SourceSegments datatypes.JSON `gorm:"type:jsonb"`
	CreatedByJobId uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
}

func (TranscriptVersion) TableName() string {
	return "transcript_versions"
}
