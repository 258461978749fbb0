package service

import (
	"context"
	"fmt"
	"time"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/pkg/logger"
	"ai-conversations-be/internal/pkg/serverutils"
	"ai-conversations-be/internal/repository/specification"
	"ai-conversations-be/internal/repository/unitofwork"
	"ai-conversations-be/pkg/queue"

	"github.com/google/uuid"
)

// JobPublisher dispatches a persisted job onto its durable queue.
// Satisfied by queue.Publisher.
type JobPublisher interface {
	Publish(ctx context.Context, msg queue.JobMessage) error
}

// IOrchestratorService owns the fixed post-conversation chain and the
// explicit reprocess operations.
type IOrchestratorService interface {
	EnqueueConversationChain(ctx context.Context, conversationId uuid.UUID, clientId string, conversationJobId uuid.UUID) ([]uuid.UUID, error)
	ReprocessTranscript(ctx context.Context, conversationId uuid.UUID) (uuid.UUID, error)
	ReprocessMemory(ctx context.Context, conversationId uuid.UUID, transcriptVersionId *uuid.UUID) (uuid.UUID, error)
}

// chainTypes is the declared enqueue order. Execution across branches is
// concurrent; the true data dependencies are resolved by the handlers.
var chainTypes = []entity.JobType{
	entity.JobTranscribeFullAudio,
	entity.JobRecogniseSpeakers,
	entity.JobProcessCropping,
	entity.JobGenerateTitleSummary,
	entity.JobProcessMemory,
}

type orchestratorService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  JobPublisher
	log        logger.ILogger
}

func NewOrchestratorService(uowFactory unitofwork.RepositoryFactory, publisher JobPublisher, log logger.ILogger) IOrchestratorService {
	return &orchestratorService{
		uowFactory: uowFactory,
		publisher:  publisher,
		log:        log,
	}
}

// enqueue persists the job row first, then dispatches it. A failed dispatch
// marks the row failed so the job is never silently lost.
func (s *orchestratorService) enqueue(ctx context.Context, job *entity.Job) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.JobRepository().Create(ctx, job); err != nil {
		return fmt.Errorf("failed to persist job: %w", err)
	}

	msg := queue.JobMessage{
		JobId: job.Id,
		Type:  string(job.Type),
		Queue: job.Queue,
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		job.Status = entity.JobStatusFailed
		job.Error = fmt.Sprintf("dispatch failed: %v", err)
		if updErr := uow.JobRepository().Update(ctx, job); updErr != nil {
			s.log.Error("orchestrator", "failed to record dispatch failure", map[string]interface{}{
				"job_id": job.Id.String(),
				"error":  updErr.Error(),
			})
		}
		return fmt.Errorf("failed to dispatch job %s: %w", job.Id, err)
	}
	return nil
}

func (s *orchestratorService) EnqueueConversationChain(ctx context.Context, conversationId uuid.UUID, clientId string, conversationJobId uuid.UUID) ([]uuid.UUID, error) {
	jobIds := make([]uuid.UUID, 0, len(chainTypes))
	for _, jobType := range chainTypes {
		job := &entity.Job{
			Id:     uuid.New(),
			Type:   jobType,
			Queue:  entity.QueueFor(jobType),
			Status: entity.JobStatusQueued,
			Meta: entity.JobMeta{
				ClientId:          clientId,
				ConversationId:    &conversationId,
				ConversationJobId: &conversationJobId,
			},
			CreatedAt: time.Now(),
		}
		if err := s.enqueue(ctx, job); err != nil {
			return jobIds, err
		}
		jobIds = append(jobIds, job.Id)
	}

	s.log.Info("orchestrator", "post-conversation chain enqueued", map[string]interface{}{
		"conversation_id": conversationId.String(),
		"client_id":       clientId,
		"jobs":            len(jobIds),
	})
	return jobIds, nil
}

// ReprocessTranscript validates prerequisites synchronously, enqueues one
// transcription job, and returns its id for the caller to poll.
func (s *orchestratorService) ReprocessTranscript(ctx context.Context, conversationId uuid.UUID) (uuid.UUID, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return uuid.Nil, err
	}
	if conversation == nil {
		return uuid.Nil, serverutils.NotFound("conversation not found")
	}
	if conversation.Open() {
		return uuid.Nil, serverutils.Conflict("conversation is still open")
	}
	if conversation.AudioPath == "" {
		return uuid.Nil, serverutils.Conflict("conversation has no stored audio to transcribe")
	}

	job := &entity.Job{
		Id:     uuid.New(),
		Type:   entity.JobTranscribeFullAudio,
		Queue:  entity.QueueFor(entity.JobTranscribeFullAudio),
		Status: entity.JobStatusQueued,
		Meta: entity.JobMeta{
			ClientId:       conversation.ClientId,
			ConversationId: &conversationId,
			Reprocess:      true,
		},
		CreatedAt: time.Now(),
	}
	if err := s.enqueue(ctx, job); err != nil {
		return uuid.Nil, err
	}
	return job.Id, nil
}

// ReprocessMemory pins the derived memory to an exact transcript version,
// defaulting to the version active at enqueue time.
func (s *orchestratorService) ReprocessMemory(ctx context.Context, conversationId uuid.UUID, transcriptVersionId *uuid.UUID) (uuid.UUID, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return uuid.Nil, err
	}
	if conversation == nil {
		return uuid.Nil, serverutils.NotFound("conversation not found")
	}

	pinned := transcriptVersionId
	if pinned == nil {
		pinned = conversation.ActiveTranscriptVersionId
	}
	if pinned == nil {
		return uuid.Nil, serverutils.Conflict("conversation has no transcript version to derive memory from")
	}

	version, err := uow.TranscriptVersionRepository().FindOne(ctx, specification.ByID{ID: *pinned})
	if err != nil {
		return uuid.Nil, err
	}
	if version == nil || version.ConversationId != conversationId {
		return uuid.Nil, serverutils.BadRequest("transcript version does not belong to this conversation")
	}

	job := &entity.Job{
		Id:     uuid.New(),
		Type:   entity.JobProcessMemory,
		Queue:  entity.QueueFor(entity.JobProcessMemory),
		Status: entity.JobStatusQueued,
		Meta: entity.JobMeta{
			ClientId:            conversation.ClientId,
			ConversationId:      &conversationId,
			TranscriptVersionId: pinned,
			Reprocess:           true,
		},
		CreatedAt: time.Now(),
	}
	if err := s.enqueue(ctx, job); err != nil {
		return uuid.Nil, err
	}
	return job.Id, nil
}
