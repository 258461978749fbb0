package service

import (
	"context"
	"testing"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/pkg/serverutils"
	memrepo "ai-conversations-be/internal/repository/memory"
	"ai-conversations-be/internal/repository/specification"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstTranscriptVersionBecomesActive(t *testing.T) {
	f := memrepo.NewFactory()
	svc := NewVersionService(f)
	conversation := seedClosedConversation(f, "pendant_ab12cd34")
	ctx := context.Background()

	versionId, err := svc.CreateTranscriptVersion(ctx, conversation.Id, testSegments(), testSegments(), uuid.New(), false)
	require.NoError(t, err)

	stored, err := f.Conversations.FindOne(ctx, specification.ByID{ID: conversation.Id})
	require.NoError(t, err)
	require.NotNil(t, stored.ActiveTranscriptVersionId)
	assert.Equal(t, versionId, *stored.ActiveTranscriptVersionId)

	count, err := svc.VersionCount(ctx, conversation.Id, entity.KindTranscript)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSecondVersionDoesNotMovePointerUnlessActivated(t *testing.T) {
	f := memrepo.NewFactory()
	svc := NewVersionService(f)
	conversation := seedClosedConversation(f, "pendant_ab12cd34")
	ctx := context.Background()

	first, err := svc.CreateTranscriptVersion(ctx, conversation.Id, testSegments(), testSegments(), uuid.New(), false)
	require.NoError(t, err)

	second, err := svc.CreateTranscriptVersion(ctx, conversation.Id, testSegments(), testSegments(), uuid.New(), false)
	require.NoError(t, err)

	stored, err := f.Conversations.FindOne(ctx, specification.ByID{ID: conversation.Id})
	require.NoError(t, err)
	assert.Equal(t, first, *stored.ActiveTranscriptVersionId)

	third, err := svc.CreateTranscriptVersion(ctx, conversation.Id, testSegments(), testSegments(), uuid.New(), true)
	require.NoError(t, err)

	stored, err = f.Conversations.FindOne(ctx, specification.ByID{ID: conversation.Id})
	require.NoError(t, err)
	assert.Equal(t, third, *stored.ActiveTranscriptVersionId)
	assert.NotEqual(t, second, third)

	count, err := svc.VersionCount(ctx, conversation.Id, entity.KindTranscript)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestCreateVersionIsIdempotentPerJob(t *testing.T) {
	f := memrepo.NewFactory()
	svc := NewVersionService(f)
	conversation := seedClosedConversation(f, "pendant_ab12cd34")
	ctx := context.Background()
	jobId := uuid.New()

	first, err := svc.CreateTranscriptVersion(ctx, conversation.Id, testSegments(), testSegments(), jobId, false)
	require.NoError(t, err)

	// redelivery of the same job must not grow the history
	second, err := svc.CreateTranscriptVersion(ctx, conversation.Id, testSegments(), testSegments(), jobId, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	count, err := svc.VersionCount(ctx, conversation.Id, entity.KindTranscript)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestActivateIsIdempotentAndChecksOwnership(t *testing.T) {
	f := memrepo.NewFactory()
	svc := NewVersionService(f)
	conversation := seedClosedConversation(f, "pendant_ab12cd34")
	other := seedClosedConversation(f, "pendant_ffee0011")
	ctx := context.Background()

	versionId, err := svc.CreateTranscriptVersion(ctx, conversation.Id, testSegments(), testSegments(), uuid.New(), false)
	require.NoError(t, err)

	require.NoError(t, svc.Activate(ctx, conversation.Id, entity.KindTranscript, versionId))
	require.NoError(t, svc.Activate(ctx, conversation.Id, entity.KindTranscript, versionId))

	err = svc.Activate(ctx, other.Id, entity.KindTranscript, versionId)
	var apiErr *serverutils.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fiber.StatusBadRequest, apiErr.Status)
}

func TestDeleteActiveVersionIsRejected(t *testing.T) {
	f := memrepo.NewFactory()
	svc := NewVersionService(f)
	conversation := seedClosedConversation(f, "pendant_ab12cd34")
	ctx := context.Background()

	first, err := svc.CreateTranscriptVersion(ctx, conversation.Id, testSegments(), testSegments(), uuid.New(), false)
	require.NoError(t, err)
	second, err := svc.CreateTranscriptVersion(ctx, conversation.Id, testSegments(), testSegments(), uuid.New(), false)
	require.NoError(t, err)

	err = svc.DeleteVersion(ctx, conversation.Id, entity.KindTranscript, first)
	var apiErr *serverutils.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fiber.StatusConflict, apiErr.Status)

	require.NoError(t, svc.Activate(ctx, conversation.Id, entity.KindTranscript, second))
	require.NoError(t, svc.DeleteVersion(ctx, conversation.Id, entity.KindTranscript, first))

	count, err := svc.VersionCount(ctx, conversation.Id, entity.KindTranscript)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeleteMemoryVersionRemovesEmbeddings(t *testing.T) {
	f := memrepo.NewFactory()
	svc := NewVersionService(f)
	conversation := seedClosedConversation(f, "pendant_ab12cd34")
	ctx := context.Background()

	items := []entity.MemoryItem{
		{Content: "prefers afternoon meetings", Category: "preference", Embedding: []float32{1, 0, 0}},
		{Content: "works on the ingestion service", Category: "fact", Embedding: []float32{0, 1, 0}},
	}

	first, err := svc.CreateMemoryVersion(ctx, conversation.Id, items, uuid.New(), uuid.New(), false)
	require.NoError(t, err)
	second, err := svc.CreateMemoryVersion(ctx, conversation.Id, items, uuid.New(), uuid.New(), true)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	hits, err := f.MemoryEmbeddings.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 4)

	require.NoError(t, svc.DeleteVersion(ctx, conversation.Id, entity.KindMemory, first))

	hits, err = f.MemoryEmbeddings.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	for _, hit := range hits {
		assert.Equal(t, second, hit.MemoryVersionId)
	}
}
