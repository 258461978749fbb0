package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Job rows are the durable record of every unit of async work. The metadata
// fields are real columns (not a jsonb bag) so the introspection surface can
// filter by type/client/conversation with indexes.
type Job struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type     string    `gorm:"type:varchar(48);not null;index"`
	Queue    string    `gorm:"type:varchar(32);not null"`
	Status   string    `gorm:"type:varchar(16);not null;index"`
	ClientId string    `gorm:"type:varchar(255);not null;index"`

	ConversationId      *uuid.UUID `gorm:"type:uuid;index"`
	ConversationJobId   *uuid.UUID `gorm:"type:uuid"`
	TranscriptVersionId *uuid.UUID `gorm:"type:uuid"`
	Reprocess           bool       `gorm:"default:false"`

	Result   datatypes.JSON `gorm:"type:jsonb"`
	Error    string         `gorm:"type:text"`
	Attempts int            `gorm:"default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Job) TableName() string {
	return "jobs"
}
