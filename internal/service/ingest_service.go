package service

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"ai-conversations-be/internal/boundary"
	"ai-conversations-be/internal/dto"
	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/pkg/logger"
	"ai-conversations-be/internal/pkg/serverutils"
	"ai-conversations-be/internal/repository/unitofwork"
	"ai-conversations-be/pkg/audio"
	"ai-conversations-be/pkg/blobstore"

	"github.com/google/uuid"
)

// IIngestService covers both intake paths: the batch upload of a finished
// recording and the live stream feeding the boundary manager.
type IIngestService interface {
	Upload(ctx context.Context, deviceName, userID string, audioData []byte) (*dto.UploadResponse, error)
	IngestFrame(clientId string, seq uint64, payload []byte) error
	Disconnect(clientId string)
	CloseConversation(clientId string)
	ClientId(deviceName, userID string) string
}

type ingestService struct {
	uowFactory   unitofwork.RepositoryFactory
	orchestrator IOrchestratorService
	blobs        *blobstore.LocalStore
	boundaryMgr  *boundary.Manager
	log          logger.ILogger
}

func NewIngestService(
	uowFactory unitofwork.RepositoryFactory,
	orchestrator IOrchestratorService,
	blobs *blobstore.LocalStore,
	boundaryMgr *boundary.Manager,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		uowFactory:   uowFactory,
		orchestrator: orchestrator,
		blobs:        blobs,
		boundaryMgr:  boundaryMgr,
		log:          log,
	}
}

func (s *ingestService) ClientId(deviceName, userID string) string {
	return entity.DeriveClientID(deviceName, userID)
}

// Upload accepts a complete recording, creates an already-closed conversation
// and enqueues the full processing chain. Invalid audio is rejected before
// anything is persisted, so a bad upload leaves no conversation and no jobs.
func (s *ingestService) Upload(ctx context.Context, deviceName, userID string, audioData []byte) (*dto.UploadResponse, error) {
	if deviceName == "" {
		return nil, serverutils.BadRequest("device_name is required")
	}
	if err := audio.ValidateWAV(audioData); err != nil {
		return nil, serverutils.BadRequest(fmt.Sprintf("unsupported audio, expected 16-bit mono PCM WAV: %v", err))
	}

	clientId := entity.DeriveClientID(deviceName, userID)
	durationSeconds, err := audio.Duration(audioData)
	if err != nil {
		return nil, serverutils.BadRequest(fmt.Sprintf("unsupported audio, expected 16-bit mono PCM WAV: %v", err))
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	conversationJob := &entity.Job{
		Id:        uuid.New(),
		Type:      entity.JobOpenConversation,
		Queue:     entity.QueueFor(entity.JobOpenConversation),
		Status:    entity.JobStatusProcessing,
		Meta:      entity.JobMeta{ClientId: clientId},
		CreatedAt: now,
	}
	if err := uow.JobRepository().Create(ctx, conversationJob); err != nil {
		return nil, fmt.Errorf("failed to persist conversation job: %w", err)
	}

	conversation := &entity.Conversation{
		Id:          uuid.New(),
		ClientId:    clientId,
		EndReason:   entity.EndReasonExplicitClose,
		CreatedAt:   now,
		CompletedAt: &now,
	}
	audioPath := s.blobs.AudioPath(conversation.Id)
	if err := s.blobs.Save(audioPath, audioData); err != nil {
		return nil, fmt.Errorf("failed to store uploaded audio: %w", err)
	}
	conversation.AudioPath = audioPath
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to persist conversation: %w", err)
	}

	conversationJob.Meta.ConversationId = &conversation.Id
	conversationJob.Status = entity.JobStatusCompleted
	conversationJob.Result = map[string]interface{}{
		"end_reason":       string(entity.EndReasonExplicitClose),
		"duration_seconds": durationSeconds,
	}
	if err := uow.JobRepository().Update(ctx, conversationJob); err != nil {
		return nil, fmt.Errorf("failed to complete conversation job: %w", err)
	}

	jobIds, err := s.orchestrator.EnqueueConversationChain(ctx, conversation.Id, clientId, conversationJob.Id)
	if err != nil {
		return nil, err
	}

	s.log.Info("ingest", "upload accepted", map[string]interface{}{
		"conversation_id":  conversation.Id.String(),
		"client_id":        clientId,
		"duration_seconds": durationSeconds,
		"jobs":             len(jobIds),
	})
	return &dto.UploadResponse{ConversationId: conversation.Id, JobIds: jobIds}, nil
}

// IngestFrame decodes one binary stream frame (little-endian PCM16 samples)
// and hands it to the boundary manager.
func (s *ingestService) IngestFrame(clientId string, seq uint64, payload []byte) error {
	if len(payload) == 0 || len(payload)%2 != 0 {
		return serverutils.BadRequest("frame payload must be non-empty little-endian 16-bit PCM")
	}
	samples := make([]int16, len(payload)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
	}
	s.boundaryMgr.Ingest(clientId, boundary.Frame{Seq: seq, Samples: samples})
	return nil
}

func (s *ingestService) Disconnect(clientId string) {
	s.boundaryMgr.Disconnect(clientId)
}

func (s *ingestService) CloseConversation(clientId string) {
	s.boundaryMgr.CloseConversation(clientId)
}
