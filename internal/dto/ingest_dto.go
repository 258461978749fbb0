package dto

import "github.com/google/uuid"

type UploadResponse struct {
	ConversationId uuid.UUID   `json:"conversation_id"`
	JobIds         []uuid.UUID `json:"job_ids"`
}
