package service

import (
	"context"
	"time"

	"ai-conversations-be/internal/config"
	"ai-conversations-be/internal/dto"
	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/pkg/serverutils"
	"ai-conversations-be/internal/repository/specification"
	"ai-conversations-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// WorkerRegistryReader exposes the liveness view the health endpoint needs.
// Satisfied by worker.RedisRegistry.
type WorkerRegistryReader interface {
	RegisteredWorkers(ctx context.Context) (map[string]int, error)
	LiveProcesses(ctx context.Context) (int, error)
}

type IQueueService interface {
	ListJobs(ctx context.Context, req *dto.ListJobsRequest) ([]*dto.JobResponse, error)
	GetJob(ctx context.Context, id uuid.UUID) (*dto.JobResponse, error)
	Stats(ctx context.Context) (*dto.QueueStatsResponse, error)
	Health(ctx context.Context) (*dto.QueueHealthResponse, error)
	FlushProcessing(ctx context.Context) (*dto.FlushJobsResponse, error)
}

type queueService struct {
	uowFactory unitofwork.RepositoryFactory
	registry   WorkerRegistryReader
	cfg        config.QueueConfig
	statsCache *gocache.Cache
}

const statsCacheKey = "queue_stats"

func NewQueueService(uowFactory unitofwork.RepositoryFactory, registry WorkerRegistryReader, cfg config.QueueConfig) IQueueService {
	return &queueService{
		uowFactory: uowFactory,
		registry:   registry,
		cfg:        cfg,
		statsCache: gocache.New(5*time.Second, time.Minute),
	}
}

func jobToResponse(job *entity.Job) *dto.JobResponse {
	return &dto.JobResponse{
		Id:             job.Id,
		Type:           string(job.Type),
		Queue:          job.Queue,
		Status:         string(job.Status),
		ClientId:       job.Meta.ClientId,
		ConversationId: job.Meta.ConversationId,
		Result:         job.Result,
		Error:          job.Error,
		Attempts:       job.Attempts,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
}

// ListJobs rejects out-of-range pagination before any storage access.
func (s *queueService) ListJobs(ctx context.Context, req *dto.ListJobsRequest) ([]*dto.JobResponse, error) {
	if req.Limit < 1 || req.Limit > s.cfg.ListMaxLimit {
		return nil, serverutils.BadRequest("limit must be between 1 and the configured maximum")
	}
	if req.Offset < 0 {
		return nil, serverutils.BadRequest("offset must not be negative")
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: req.Limit, Offset: req.Offset},
	}
	if req.Type != "" {
		if !entity.JobType(req.Type).Valid() {
			return nil, serverutils.BadRequest("unknown job type")
		}
		specs = append(specs, specification.ByJobType{Type: req.Type})
	}
	if req.Status != "" {
		specs = append(specs, specification.ByJobStatus{Status: req.Status})
	}
	if req.ClientId != "" {
		specs = append(specs, specification.ByClientId{ClientId: req.ClientId})
	}
	if req.ConversationId != "" {
		conversationId, err := uuid.Parse(req.ConversationId)
		if err != nil {
			return nil, serverutils.BadRequest("conversation_id must be a valid uuid")
		}
		specs = append(specs, specification.ByConversationId{ConversationId: conversationId})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	jobs, err := uow.JobRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.JobResponse, len(jobs))
	for i, job := range jobs {
		out[i] = jobToResponse(job)
	}
	return out, nil
}

func (s *queueService) GetJob(ctx context.Context, id uuid.UUID) (*dto.JobResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	job, err := uow.JobRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, serverutils.NotFound("job not found")
	}
	return jobToResponse(job), nil
}

func (s *queueService) Stats(ctx context.Context) (*dto.QueueStatsResponse, error) {
	if cached, ok := s.statsCache.Get(statsCacheKey); ok {
		return cached.(*dto.QueueStatsResponse), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	counts, err := uow.JobRepository().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	stats := &dto.QueueStatsResponse{Counts: counts, Total: total}
	s.statsCache.Set(statsCacheKey, stats, gocache.DefaultExpiration)
	return stats, nil
}

func (s *queueService) expectedWorkers(queueName string) int {
	switch queueName {
	case entity.QueueAudio:
		return s.cfg.AudioWorkers
	case entity.QueueTranscription:
		return s.cfg.TranscribeWorkers
	case entity.QueueMemory:
		return s.cfg.MemoryWorkers
	}
	return 0
}

// Health reports registered worker counts against what live processes should
// be carrying, so a registration loss is visible as a count mismatch.
func (s *queueService) Health(ctx context.Context) (*dto.QueueHealthResponse, error) {
	registered, err := s.registry.RegisteredWorkers(ctx)
	if err != nil {
		return nil, err
	}
	processes, err := s.registry.LiveProcesses(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.QueueHealthResponse{Processes: processes, Healthy: processes > 0}
	for _, queueName := range []string{entity.QueueAudio, entity.QueueTranscription, entity.QueueMemory} {
		expected := s.expectedWorkers(queueName) * processes
		got := registered[queueName]
		resp.TotalWorkers += got
		if got < expected {
			resp.Healthy = false
		}
		resp.Queues = append(resp.Queues, dto.QueueWorkerHealth{
			Queue:      queueName,
			Registered: got,
			Expected:   expected,
		})
	}
	return resp, nil
}

// FlushProcessing fails every in-flight job, used when operators know the
// workers that held them are gone.
func (s *queueService) FlushProcessing(ctx context.Context) (*dto.FlushJobsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	flushed, err := uow.JobRepository().FailProcessing(ctx, "flushed by maintenance operation")
	if err != nil {
		return nil, err
	}
	s.statsCache.Delete(statsCacheKey)
	return &dto.FlushJobsResponse{Flushed: flushed}, nil
}
