package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/repository/contract"
	"ai-conversations-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MemoryVersionRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*entity.MemoryVersion
}

func NewMemoryVersionRepository() *MemoryVersionRepository {
	return &MemoryVersionRepository{items: map[uuid.UUID]*entity.MemoryVersion{}}
}

var _ contract.MemoryVersionRepository = (*MemoryVersionRepository)(nil)

func cloneMemoryVersion(v *entity.MemoryVersion) *entity.MemoryVersion {
	cp := *v
	cp.Items = append([]entity.MemoryItem(nil), v.Items...)
	return &cp
}

func memoryVersionField(v *entity.MemoryVersion, field string) (interface{}, bool) {
	switch field {
	case "id":
		return v.Id, true
	case "conversation_id":
		return v.ConversationId, true
	case "created_by_job_id":
		return v.CreatedByJobId, true
	case "created_at":
		return v.CreatedAt, true
	}
	return nil, false
}

func (r *MemoryVersionRepository) Create(ctx context.Context, version *entity.MemoryVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.CreatedByJobId == version.CreatedByJobId {
			return fmt.Errorf("memory version for job %s already exists", version.CreatedByJobId)
		}
	}
	if version.Id == uuid.Nil {
		version.Id = uuid.New()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now()
	}
	r.items[version.Id] = cloneMemoryVersion(version)
	return nil
}

func (r *MemoryVersionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *MemoryVersionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MemoryVersion, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *MemoryVersionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MemoryVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := parseSpecs(specs)
	var out []*entity.MemoryVersion
	for _, v := range r.items {
		if match(v, p, memoryVersionField) {
			out = append(out, cloneMemoryVersion(v))
		}
	}
	return applyOrderAndPage(out, p, memoryVersionField), nil
}

func (r *MemoryVersionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := parseSpecs(specs)
	var n int64
	for _, v := range r.items {
		if match(v, p, memoryVersionField) {
			n++
		}
	}
	return n, nil
}
