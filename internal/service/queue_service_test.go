package service

import (
	"context"
	"testing"
	"time"

	"ai-conversations-be/internal/config"
	"ai-conversations-be/internal/dto"
	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/pkg/serverutils"
	memrepo "ai-conversations-be/internal/repository/memory"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQueueConfig() config.QueueConfig {
	return config.QueueConfig{
		StreamName:        "JOBS",
		AudioWorkers:      2,
		TranscribeWorkers: 2,
		MemoryWorkers:     2,
		ListMaxLimit:      100,
	}
}

func seedJob(f *memrepo.Factory, jobType entity.JobType, status entity.JobStatus, clientId string) *entity.Job {
	job := &entity.Job{
		Id:        uuid.New(),
		Type:      jobType,
		Queue:     entity.QueueFor(jobType),
		Status:    status,
		Meta:      entity.JobMeta{ClientId: clientId},
		CreatedAt: time.Now(),
	}
	_ = f.Jobs.Create(context.Background(), job)
	return job
}

func TestListJobsRejectsBadPaginationBeforeStorage(t *testing.T) {
	f := memrepo.NewFactory()
	svc := NewQueueService(f, &fakeRegistry{}, testQueueConfig())
	ctx := context.Background()

	var apiErr *serverutils.ApiError
	for _, req := range []*dto.ListJobsRequest{
		{Limit: 0, Offset: 0},
		{Limit: 101, Offset: 0},
		{Limit: 10, Offset: -1},
	} {
		_, err := svc.ListJobs(ctx, req)
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, fiber.StatusBadRequest, apiErr.Status)
	}

	_, err := svc.ListJobs(ctx, &dto.ListJobsRequest{Limit: 10, Type: "mystery_job"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fiber.StatusBadRequest, apiErr.Status)

	_, err = svc.ListJobs(ctx, &dto.ListJobsRequest{Limit: 10, ConversationId: "not-a-uuid"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fiber.StatusBadRequest, apiErr.Status)
}

func TestListJobsFilters(t *testing.T) {
	f := memrepo.NewFactory()
	svc := NewQueueService(f, &fakeRegistry{}, testQueueConfig())
	ctx := context.Background()

	seedJob(f, entity.JobTranscribeFullAudio, entity.JobStatusQueued, "pendant_ab12cd34")
	seedJob(f, entity.JobTranscribeFullAudio, entity.JobStatusCompleted, "pendant_ab12cd34")
	seedJob(f, entity.JobProcessMemory, entity.JobStatusQueued, "pendant_ffee0011")

	jobs, err := svc.ListJobs(ctx, &dto.ListJobsRequest{Limit: 10, Type: string(entity.JobTranscribeFullAudio)})
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	jobs, err = svc.ListJobs(ctx, &dto.ListJobsRequest{Limit: 10, Status: string(entity.JobStatusQueued), ClientId: "pendant_ffee0011"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, string(entity.JobProcessMemory), jobs[0].Type)
}

func TestGetJobNotFound(t *testing.T) {
	f := memrepo.NewFactory()
	svc := NewQueueService(f, &fakeRegistry{}, testQueueConfig())

	_, err := svc.GetJob(context.Background(), uuid.New())
	var apiErr *serverutils.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fiber.StatusNotFound, apiErr.Status)
}

func TestStatsCountsByStatus(t *testing.T) {
	f := memrepo.NewFactory()
	svc := NewQueueService(f, &fakeRegistry{}, testQueueConfig())
	ctx := context.Background()

	seedJob(f, entity.JobTranscribeFullAudio, entity.JobStatusQueued, "a")
	seedJob(f, entity.JobProcessMemory, entity.JobStatusQueued, "a")
	seedJob(f, entity.JobProcessCropping, entity.JobStatusProcessing, "a")
	seedJob(f, entity.JobGenerateTitleSummary, entity.JobStatusFailed, "a")

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.Counts[string(entity.JobStatusQueued)])
	assert.Equal(t, int64(1), stats.Counts[string(entity.JobStatusProcessing)])
	assert.Equal(t, int64(1), stats.Counts[string(entity.JobStatusFailed)])
}

func TestHealthFlagsMissingWorkers(t *testing.T) {
	f := memrepo.NewFactory()
	cfg := testQueueConfig()
	registry := &fakeRegistry{
		processes: 1,
		workers: map[string]int{
			entity.QueueAudio:         2,
			entity.QueueTranscription: 1, // one registration lost
			entity.QueueMemory:        2,
		},
	}
	svc := NewQueueService(f, registry, cfg)

	health, err := svc.Health(context.Background())
	require.NoError(t, err)
	assert.False(t, health.Healthy)
	assert.Equal(t, 1, health.Processes)
	assert.Equal(t, 5, health.TotalWorkers)

	registry.workers[entity.QueueTranscription] = 2
	health, err = svc.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, health.Healthy)
}

func TestHealthUnhealthyWithoutProcesses(t *testing.T) {
	f := memrepo.NewFactory()
	svc := NewQueueService(f, &fakeRegistry{processes: 0, workers: map[string]int{}}, testQueueConfig())

	health, err := svc.Health(context.Background())
	require.NoError(t, err)
	assert.False(t, health.Healthy)
}

func TestFlushProcessingFailsOnlyInFlightJobs(t *testing.T) {
	f := memrepo.NewFactory()
	svc := NewQueueService(f, &fakeRegistry{}, testQueueConfig())
	ctx := context.Background()

	queued := seedJob(f, entity.JobTranscribeFullAudio, entity.JobStatusQueued, "a")
	processing := seedJob(f, entity.JobProcessMemory, entity.JobStatusProcessing, "a")
	done := seedJob(f, entity.JobProcessCropping, entity.JobStatusCompleted, "a")

	resp, err := svc.FlushProcessing(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Flushed)

	flushed, err := svc.GetJob(ctx, processing.Id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.JobStatusFailed), flushed.Status)
	assert.NotEmpty(t, flushed.Error)

	untouched, err := svc.GetJob(ctx, queued.Id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.JobStatusQueued), untouched.Status)

	completed, err := svc.GetJob(ctx, done.Id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.JobStatusCompleted), completed.Status)
}
