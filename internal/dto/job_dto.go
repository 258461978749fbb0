package dto

import (
	"time"

	"github.com/google/uuid"
)

type JobResponse struct {
	Id             uuid.UUID              `json:"id"`
	Type           string                 `json:"type"`
	Queue          string                 `json:"queue"`
	Status         string                 `json:"status"`
	ClientId       string                 `json:"client_id"`
	ConversationId *uuid.UUID             `json:"conversation_id,omitempty"`
	Result         map[string]interface{} `json:"result,omitempty"`
	Error          string                 `json:"error,omitempty"`
	Attempts       int                    `json:"attempts"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      *time.Time             `json:"updated_at,omitempty"`
}

type ListJobsRequest struct {
	Type           string `query:"type"`
	Status         string `query:"status"`
	ClientId       string `query:"client_id"`
	ConversationId string `query:"conversation_id"`
	Limit          int    `query:"limit"`
	Offset         int    `query:"offset"`
}

type QueueStatsResponse struct {
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

type QueueWorkerHealth struct {
	Queue      string `json:"queue"`
	Registered int    `json:"registered"`
	Expected   int    `json:"expected"`
}

type QueueHealthResponse struct {
	Queues       []QueueWorkerHealth `json:"queues"`
	Processes    int                 `json:"processes"`
	TotalWorkers int                 `json:"total_workers"`
	Healthy      bool                `json:"healthy"`
}

type FlushJobsResponse struct {
	Flushed int64 `json:"flushed"`
}
