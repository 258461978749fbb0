package unitofwork

import (
	"context"

	"ai-conversations-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ConversationRepository() contract.ConversationRepository
	TranscriptVersionRepository() contract.TranscriptVersionRepository
	MemoryVersionRepository() contract.MemoryVersionRepository
	MemoryEmbeddingRepository() contract.MemoryEmbeddingRepository
	JobRepository() contract.JobRepository
}
