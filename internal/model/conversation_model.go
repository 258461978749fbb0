package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Conversation struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClientId         string         `gorm:"type:varchar(255);not null;index"`
	Title            string         `gorm:"type:varchar(255)"`
	Summary          string         `gorm:"type:text"`
	AudioPath        string         `gorm:"type:varchar(512)"`
	CroppedAudioPath string         `gorm:"type:varchar(512)"`
	KeptIntervals    datatypes.JSON `gorm:"type:jsonb"`
	EndReason        string         `gorm:"type:varchar(32)"`

	ActiveTranscriptVersionId *uuid.UUID `gorm:"type:uuid"`
	ActiveMemoryVersionId     *uuid.UUID `gorm:"type:uuid"`

	CreatedAt   time.Time `gorm:"autoCreateTime"`
	CompletedAt *time.Time
}

func (Conversation) TableName() string {
	return "conversations"
}
