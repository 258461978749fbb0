package memory

import (
	"context"

	"ai-conversations-be/internal/repository/contract"
	"ai-conversations-be/internal/repository/unitofwork"
)

// Factory is an in-memory RepositoryFactory. All units of work share the same
// backing maps; Begin/Commit/Rollback are accepted but not transactional.
type Factory struct {
	Conversations      *ConversationRepository
	TranscriptVersions *TranscriptVersionRepository
	MemoryVersions     *MemoryVersionRepository
	MemoryEmbeddings   *MemoryEmbeddingRepository
	Jobs               *JobRepository
}

func NewFactory() *Factory {
	return &Factory{
		Conversations:      NewConversationRepository(),
		TranscriptVersions: NewTranscriptVersionRepository(),
		MemoryVersions:     NewMemoryVersionRepository(),
		MemoryEmbeddings:   NewMemoryEmbeddingRepository(),
		Jobs:               NewJobRepository(),
	}
}

var _ unitofwork.RepositoryFactory = (*Factory)(nil)

func (f *Factory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{f: f}
}

type unitOfWork struct {
	f *Factory
}

func (u *unitOfWork) Begin(ctx context.Context) error { return nil }
func (u *unitOfWork) Commit() error                   { return nil }
func (u *unitOfWork) Rollback() error                 { return nil }

func (u *unitOfWork) ConversationRepository() contract.ConversationRepository {
	return u.f.Conversations
}

func (u *unitOfWork) TranscriptVersionRepository() contract.TranscriptVersionRepository {
	return u.f.TranscriptVersions
}

func (u *unitOfWork) MemoryVersionRepository() contract.MemoryVersionRepository {
	return u.f.MemoryVersions
}

func (u *unitOfWork) MemoryEmbeddingRepository() contract.MemoryEmbeddingRepository {
	return u.f.MemoryEmbeddings
}

func (u *unitOfWork) JobRepository() contract.JobRepository {
	return u.f.Jobs
}
