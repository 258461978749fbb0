package service

import (
	"context"
	"fmt"
	"time"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/pkg/serverutils"
	"ai-conversations-be/internal/repository/specification"
	"ai-conversations-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IVersionService is the append-only version store. Versions are immutable
// once created; only the conversation's active pointer moves.
type IVersionService interface {
	CreateTranscriptVersion(ctx context.Context, conversationId uuid.UUID, segments, sourceSegments []entity.Segment, createdByJobId uuid.UUID, activate bool) (uuid.UUID, error)
	CreateMemoryVersion(ctx context.Context, conversationId uuid.UUID, items []entity.MemoryItem, sourceTranscriptVersionId, createdByJobId uuid.UUID, activate bool) (uuid.UUID, error)
	Activate(ctx context.Context, conversationId uuid.UUID, kind entity.VersionKind, versionId uuid.UUID) error
	DeleteVersion(ctx context.Context, conversationId uuid.UUID, kind entity.VersionKind, versionId uuid.UUID) error
	VersionCount(ctx context.Context, conversationId uuid.UUID, kind entity.VersionKind) (int64, error)
}

type versionService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewVersionService(uowFactory unitofwork.RepositoryFactory) IVersionService {
	return &versionService{
		uowFactory: uowFactory,
	}
}

// CreateTranscriptVersion appends a new version. The first version for a
// conversation always becomes active; later versions move the pointer only
// when activate is set (the reprocess path).
func (s *versionService) CreateTranscriptVersion(ctx context.Context, conversationId uuid.UUID, segments, sourceSegments []entity.Segment, createdByJobId uuid.UUID, activate bool) (uuid.UUID, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return uuid.Nil, err
	}
	if conversation == nil {
		return uuid.Nil, serverutils.NotFound("conversation not found")
	}

	// at-least-once delivery can re-run the producing job; the second attempt
	// reuses the version the first one stored
	existing, err := uow.TranscriptVersionRepository().FindOne(ctx, specification.ByCreatedByJobId{JobId: createdByJobId})
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		return existing.Id, nil
	}

	version := &entity.TranscriptVersion{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Segments:       segments,
		SourceSegments: sourceSegments,
		CreatedByJobId: createdByJobId,
		CreatedAt:      time.Now(),
	}
	if err := uow.TranscriptVersionRepository().Create(ctx, version); err != nil {
		return uuid.Nil, fmt.Errorf("failed to store transcript version: %w", err)
	}

	if activate || conversation.ActiveTranscriptVersionId == nil {
		conversation.ActiveTranscriptVersionId = &version.Id
		if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
			return uuid.Nil, fmt.Errorf("failed to activate transcript version: %w", err)
		}
	}
	return version.Id, nil
}

func (s *versionService) CreateMemoryVersion(ctx context.Context, conversationId uuid.UUID, items []entity.MemoryItem, sourceTranscriptVersionId, createdByJobId uuid.UUID, activate bool) (uuid.UUID, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return uuid.Nil, err
	}
	if conversation == nil {
		return uuid.Nil, serverutils.NotFound("conversation not found")
	}

	existing, err := uow.MemoryVersionRepository().FindOne(ctx, specification.ByCreatedByJobId{JobId: createdByJobId})
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		return existing.Id, nil
	}

	version := &entity.MemoryVersion{
		Id:                        uuid.New(),
		ConversationId:            conversationId,
		Items:                     items,
		SourceTranscriptVersionId: sourceTranscriptVersionId,
		CreatedByJobId:            createdByJobId,
		CreatedAt:                 time.Now(),
	}
	if err := uow.MemoryVersionRepository().Create(ctx, version); err != nil {
		return uuid.Nil, fmt.Errorf("failed to store memory version: %w", err)
	}

	if err := uow.MemoryEmbeddingRepository().CreateBulk(ctx, version); err != nil {
		return uuid.Nil, fmt.Errorf("failed to store memory embeddings: %w", err)
	}

	if activate || conversation.ActiveMemoryVersionId == nil {
		conversation.ActiveMemoryVersionId = &version.Id
		if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
			return uuid.Nil, fmt.Errorf("failed to activate memory version: %w", err)
		}
	}
	return version.Id, nil
}

// Activate moves the active pointer. Activating the already-active version is
// a no-op, never an error.
func (s *versionService) Activate(ctx context.Context, conversationId uuid.UUID, kind entity.VersionKind, versionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return err
	}
	if conversation == nil {
		return serverutils.NotFound("conversation not found")
	}

	switch kind {
	case entity.KindTranscript:
		version, err := uow.TranscriptVersionRepository().FindOne(ctx, specification.ByID{ID: versionId})
		if err != nil {
			return err
		}
		if version == nil || version.ConversationId != conversationId {
			return serverutils.BadRequest("version does not belong to this conversation")
		}
		conversation.ActiveTranscriptVersionId = &versionId
	case entity.KindMemory:
		version, err := uow.MemoryVersionRepository().FindOne(ctx, specification.ByID{ID: versionId})
		if err != nil {
			return err
		}
		if version == nil || version.ConversationId != conversationId {
			return serverutils.BadRequest("version does not belong to this conversation")
		}
		conversation.ActiveMemoryVersionId = &versionId
	default:
		return serverutils.BadRequest("unknown version kind")
	}

	return uow.ConversationRepository().Update(ctx, conversation)
}

// DeleteVersion removes one historical version. The active version is
// protected; callers must activate another version first.
func (s *versionService) DeleteVersion(ctx context.Context, conversationId uuid.UUID, kind entity.VersionKind, versionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return err
	}
	if conversation == nil {
		return serverutils.NotFound("conversation not found")
	}

	switch kind {
	case entity.KindTranscript:
		if conversation.ActiveTranscriptVersionId != nil && *conversation.ActiveTranscriptVersionId == versionId {
			return serverutils.Conflict("cannot delete the active transcript version, activate another version first")
		}
		version, err := uow.TranscriptVersionRepository().FindOne(ctx, specification.ByID{ID: versionId})
		if err != nil {
			return err
		}
		if version == nil || version.ConversationId != conversationId {
			return serverutils.BadRequest("version does not belong to this conversation")
		}
		return uow.TranscriptVersionRepository().Delete(ctx, versionId)
	case entity.KindMemory:
		if conversation.ActiveMemoryVersionId != nil && *conversation.ActiveMemoryVersionId == versionId {
			return serverutils.Conflict("cannot delete the active memory version, activate another version first")
		}
		version, err := uow.MemoryVersionRepository().FindOne(ctx, specification.ByID{ID: versionId})
		if err != nil {
			return err
		}
		if version == nil || version.ConversationId != conversationId {
			return serverutils.BadRequest("version does not belong to this conversation")
		}
		if err := uow.MemoryEmbeddingRepository().DeleteByMemoryVersionId(ctx, versionId); err != nil {
			return err
		}
		return uow.MemoryVersionRepository().Delete(ctx, versionId)
	default:
		return serverutils.BadRequest("unknown version kind")
	}
}

func (s *versionService) VersionCount(ctx context.Context, conversationId uuid.UUID, kind entity.VersionKind) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	switch kind {
	case entity.KindTranscript:
		return uow.TranscriptVersionRepository().Count(ctx, specification.ByConversationId{ConversationId: conversationId})
	case entity.KindMemory:
		return uow.MemoryVersionRepository().Count(ctx, specification.ByConversationId{ConversationId: conversationId})
	default:
		return 0, serverutils.BadRequest("unknown version kind")
	}
}
