package service

import (
	"context"
	"testing"

	"ai-conversations-be/internal/dto"
	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/pkg/serverutils"
	memrepo "ai-conversations-be/internal/repository/memory"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conversationFixture() (*memrepo.Factory, IVersionService, IConversationService, *fakeEmbedder) {
	f := memrepo.NewFactory()
	versions := NewVersionService(f)
	embedder := newFakeEmbedder()
	svc := NewConversationService(f, versions, embedder, 100)
	return f, versions, svc, embedder
}

func TestShowIncludesActiveSegmentsOnRequest(t *testing.T) {
	f, versions, svc, _ := conversationFixture()
	conversation := seedClosedConversation(f, "pendant_ab12cd34")
	ctx := context.Background()

	_, err := versions.CreateTranscriptVersion(ctx, conversation.Id, testSegments(), testSegments(), uuid.New(), false)
	require.NoError(t, err)

	resp, err := svc.Show(ctx, conversation.Id, true)
	require.NoError(t, err)
	require.Len(t, resp.Segments, 2)
	assert.Equal(t, "morning standup notes", resp.Segments[0].Text)
	assert.Equal(t, int64(1), resp.TranscriptVersionCount)

	bare, err := svc.Show(ctx, conversation.Id, false)
	require.NoError(t, err)
	assert.Empty(t, bare.Segments)
}

func TestShowUnknownConversation(t *testing.T) {
	_, _, svc, _ := conversationFixture()

	_, err := svc.Show(context.Background(), uuid.New(), false)
	var apiErr *serverutils.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fiber.StatusNotFound, apiErr.Status)
}

func TestListFiltersByClientAndValidatesPagination(t *testing.T) {
	f, _, svc, _ := conversationFixture()
	ctx := context.Background()

	seedClosedConversation(f, "pendant_ab12cd34")
	seedClosedConversation(f, "pendant_ab12cd34")
	seedClosedConversation(f, "pendant_ffee0011")

	out, err := svc.List(ctx, &dto.ListConversationsRequest{ClientId: "pendant_ab12cd34", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = svc.List(ctx, &dto.ListConversationsRequest{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, out, 3)

	var apiErr *serverutils.ApiError
	_, err = svc.List(ctx, &dto.ListConversationsRequest{Limit: 0})
	require.ErrorAs(t, err, &apiErr)
	_, err = svc.List(ctx, &dto.ListConversationsRequest{Limit: 101})
	require.ErrorAs(t, err, &apiErr)
	_, err = svc.List(ctx, &dto.ListConversationsRequest{Limit: 10, Offset: -1})
	require.ErrorAs(t, err, &apiErr)
}

func TestListVersionsMarksActive(t *testing.T) {
	f, versions, svc, _ := conversationFixture()
	conversation := seedClosedConversation(f, "pendant_ab12cd34")
	ctx := context.Background()

	first, err := versions.CreateTranscriptVersion(ctx, conversation.Id, testSegments(), testSegments(), uuid.New(), false)
	require.NoError(t, err)
	second, err := versions.CreateTranscriptVersion(ctx, conversation.Id, testSegments(), testSegments(), uuid.New(), false)
	require.NoError(t, err)

	listed, err := svc.ListTranscriptVersions(ctx, conversation.Id)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	byId := map[uuid.UUID]bool{}
	for _, v := range listed {
		byId[v.Id] = v.Active
	}
	assert.True(t, byId[first])
	assert.False(t, byId[second])

	require.NoError(t, versions.Activate(ctx, conversation.Id, entity.KindTranscript, second))
	listed, err = svc.ListTranscriptVersions(ctx, conversation.Id)
	require.NoError(t, err)
	for _, v := range listed {
		assert.Equal(t, v.Id == second, v.Active)
	}
}

func TestSearchMemoriesRanksByDistance(t *testing.T) {
	f, versions, svc, embedder := conversationFixture()
	conversation := seedClosedConversation(f, "pendant_ab12cd34")
	ctx := context.Background()

	queryVec, err := embedder.Embed(ctx, "what coffee do they drink")
	require.NoError(t, err)

	near := make([]float32, len(queryVec))
	copy(near, queryVec)
	items := []entity.MemoryItem{
		{Content: "drinks oat milk flat whites", Category: "preference", Embedding: near},
		{Content: "lives near the harbour", Category: "fact", Embedding: []float32{0, 0, 0, 1, 0, 0, 0, 0}},
	}
	_, err = versions.CreateMemoryVersion(ctx, conversation.Id, items, uuid.New(), uuid.New(), false)
	require.NoError(t, err)

	hits, err := svc.SearchMemories(ctx, &dto.MemorySearchRequest{Query: "what coffee do they drink", Limit: 2})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "drinks oat milk flat whites", hits[0].Content)
	assert.Less(t, hits[0].Distance, hits[1].Distance)
}

func TestSearchMemoriesRequiresQuery(t *testing.T) {
	_, _, svc, _ := conversationFixture()

	_, err := svc.SearchMemories(context.Background(), &dto.MemorySearchRequest{})
	var apiErr *serverutils.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, fiber.StatusBadRequest, apiErr.Status)
}
