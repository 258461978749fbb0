package memory

import (
	"context"
	"sync"
	"time"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/repository/contract"
	"ai-conversations-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*entity.Conversation
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{items: map[uuid.UUID]*entity.Conversation{}}
}

var _ contract.ConversationRepository = (*ConversationRepository)(nil)

func cloneConversation(c *entity.Conversation) *entity.Conversation {
	cp := *c
	cp.KeptIntervals = append([]entity.KeptInterval(nil), c.KeptIntervals...)
	if c.ActiveTranscriptVersionId != nil {
		id := *c.ActiveTranscriptVersionId
		cp.ActiveTranscriptVersionId = &id
	}
	if c.ActiveMemoryVersionId != nil {
		id := *c.ActiveMemoryVersionId
		cp.ActiveMemoryVersionId = &id
	}
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func conversationField(c *entity.Conversation, field string) (interface{}, bool) {
	switch field {
	case "id":
		return c.Id, true
	case "client_id":
		return c.ClientId, true
	case "created_at":
		return c.CreatedAt, true
	}
	return nil, false
}

func (r *ConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conversation.Id == uuid.Nil {
		conversation.Id = uuid.New()
	}
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = time.Now()
	}
	r.items[conversation.Id] = cloneConversation(conversation)
	return nil
}

func (r *ConversationRepository) Update(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[conversation.Id] = cloneConversation(conversation)
	return nil
}

func (r *ConversationRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *ConversationRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := parseSpecs(specs)
	var out []*entity.Conversation
	for _, c := range r.items {
		if match(c, p, conversationField) {
			out = append(out, cloneConversation(c))
		}
	}
	return applyOrderAndPage(out, p, conversationField), nil
}

func (r *ConversationRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := parseSpecs(specs)
	var n int64
	for _, c := range r.items {
		if match(c, p, conversationField) {
			n++
		}
	}
	return n, nil
}
