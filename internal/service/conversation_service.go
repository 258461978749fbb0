package service

import (
	"context"

	"ai-conversations-be/internal/dto"
	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/pkg/serverutils"
	"ai-conversations-be/internal/repository/specification"
	"ai-conversations-be/internal/repository/unitofwork"
	"ai-conversations-be/pkg/engines"

	"github.com/google/uuid"
)

type IConversationService interface {
	Show(ctx context.Context, id uuid.UUID, withSegments bool) (*dto.ShowConversationResponse, error)
	List(ctx context.Context, req *dto.ListConversationsRequest) ([]*dto.ConversationResponse, error)
	ListTranscriptVersions(ctx context.Context, conversationId uuid.UUID) ([]*dto.TranscriptVersionResponse, error)
	ListMemoryVersions(ctx context.Context, conversationId uuid.UUID) ([]*dto.MemoryVersionResponse, error)
	SearchMemories(ctx context.Context, req *dto.MemorySearchRequest) ([]*dto.MemorySearchResponse, error)
}

type conversationService struct {
	uowFactory     unitofwork.RepositoryFactory
	versionService IVersionService
	embedder       engines.EmbeddingProvider
	listMaxLimit   int
}

func NewConversationService(
	uowFactory unitofwork.RepositoryFactory,
	versionService IVersionService,
	embedder engines.EmbeddingProvider,
	listMaxLimit int,
) IConversationService {
	return &conversationService{
		uowFactory:     uowFactory,
		versionService: versionService,
		embedder:       embedder,
		listMaxLimit:   listMaxLimit,
	}
}

func segmentsToDto(segments []entity.Segment) []dto.SegmentDto {
	out := make([]dto.SegmentDto, len(segments))
	for i, seg := range segments {
		out[i] = dto.SegmentDto{
			Start:      seg.Start,
			End:        seg.End,
			Speaker:    seg.Speaker,
			Text:       seg.Text,
			Confidence: seg.Confidence,
		}
	}
	return out
}

func (s *conversationService) toResponse(ctx context.Context, conversation *entity.Conversation) (*dto.ConversationResponse, error) {
	transcriptCount, err := s.versionService.VersionCount(ctx, conversation.Id, entity.KindTranscript)
	if err != nil {
		return nil, err
	}
	memoryCount, err := s.versionService.VersionCount(ctx, conversation.Id, entity.KindMemory)
	if err != nil {
		return nil, err
	}

	return &dto.ConversationResponse{
		Id:                        conversation.Id,
		ClientId:                  conversation.ClientId,
		Title:                     conversation.Title,
		Summary:                   conversation.Summary,
		EndReason:                 string(conversation.EndReason),
		AudioPath:                 conversation.AudioPath,
		CroppedAudioPath:          conversation.CroppedAudioPath,
		ActiveTranscriptVersionId: conversation.ActiveTranscriptVersionId,
		ActiveMemoryVersionId:     conversation.ActiveMemoryVersionId,
		TranscriptVersionCount:    transcriptCount,
		MemoryVersionCount:        memoryCount,
		CreatedAt:                 conversation.CreatedAt,
		CompletedAt:               conversation.CompletedAt,
	}, nil
}

func (s *conversationService) Show(ctx context.Context, id uuid.UUID, withSegments bool) (*dto.ShowConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, serverutils.NotFound("conversation not found")
	}

	base, err := s.toResponse(ctx, conversation)
	if err != nil {
		return nil, err
	}
	resp := &dto.ShowConversationResponse{ConversationResponse: *base}

	if withSegments && conversation.ActiveTranscriptVersionId != nil {
		version, err := uow.TranscriptVersionRepository().FindOne(ctx, specification.ByID{ID: *conversation.ActiveTranscriptVersionId})
		if err != nil {
			return nil, err
		}
		if version != nil {
			resp.Segments = segmentsToDto(version.Segments)
		}
	}
	return resp, nil
}

func (s *conversationService) List(ctx context.Context, req *dto.ListConversationsRequest) ([]*dto.ConversationResponse, error) {
	if req.Limit < 1 || req.Limit > s.listMaxLimit {
		return nil, serverutils.BadRequest("limit must be between 1 and the configured maximum")
	}
	if req.Offset < 0 {
		return nil, serverutils.BadRequest("offset must not be negative")
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: req.Limit, Offset: req.Offset},
	}
	if req.ClientId != "" {
		specs = append(specs, specification.ByClientId{ClientId: req.ClientId})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversations, err := uow.ConversationRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		resp, err := s.toResponse(ctx, conversation)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *conversationService) ListTranscriptVersions(ctx context.Context, conversationId uuid.UUID) ([]*dto.TranscriptVersionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, serverutils.NotFound("conversation not found")
	}

	versions, err := uow.TranscriptVersionRepository().FindAll(ctx,
		specification.ByConversationId{ConversationId: conversationId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.TranscriptVersionResponse, len(versions))
	for i, version := range versions {
		active := conversation.ActiveTranscriptVersionId != nil && *conversation.ActiveTranscriptVersionId == version.Id
		out[i] = &dto.TranscriptVersionResponse{
			Id:             version.Id,
			ConversationId: version.ConversationId,
			CreatedByJobId: version.CreatedByJobId,
			Active:         active,
			Segments:       segmentsToDto(version.Segments),
			CreatedAt:      version.CreatedAt,
		}
	}
	return out, nil
}

func (s *conversationService) ListMemoryVersions(ctx context.Context, conversationId uuid.UUID) ([]*dto.MemoryVersionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, serverutils.NotFound("conversation not found")
	}

	versions, err := uow.MemoryVersionRepository().FindAll(ctx,
		specification.ByConversationId{ConversationId: conversationId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.MemoryVersionResponse, len(versions))
	for i, version := range versions {
		active := conversation.ActiveMemoryVersionId != nil && *conversation.ActiveMemoryVersionId == version.Id
		items := make([]dto.MemoryItemDto, len(version.Items))
		for j, item := range version.Items {
			items[j] = dto.MemoryItemDto{Content: item.Content, Category: item.Category}
		}
		out[i] = &dto.MemoryVersionResponse{
			Id:                        version.Id,
			ConversationId:            version.ConversationId,
			SourceTranscriptVersionId: version.SourceTranscriptVersionId,
			CreatedByJobId:            version.CreatedByJobId,
			Active:                    active,
			Items:                     items,
			CreatedAt:                 version.CreatedAt,
		}
	}
	return out, nil
}

// SearchMemories embeds the query and ranks stored memory items by cosine
// distance.
func (s *conversationService) SearchMemories(ctx context.Context, req *dto.MemorySearchRequest) ([]*dto.MemorySearchResponse, error) {
	if req.Query == "" {
		return nil, serverutils.BadRequest("query is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > s.listMaxLimit {
		return nil, serverutils.BadRequest("limit must not exceed the configured maximum")
	}

	embedding, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	hits, err := uow.MemoryEmbeddingRepository().Search(ctx, embedding, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.MemorySearchResponse, len(hits))
	for i, hit := range hits {
		out[i] = &dto.MemorySearchResponse{
			ConversationId:  hit.ConversationId,
			MemoryVersionId: hit.MemoryVersionId,
			Content:         hit.Content,
			Category:        hit.Category,
			Distance:        hit.Distance,
		}
	}
	return out, nil
}
