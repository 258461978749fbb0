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

type TranscriptVersionRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*entity.TranscriptVersion
}

func NewTranscriptVersionRepository() *TranscriptVersionRepository {
	return &TranscriptVersionRepository{items: map[uuid.UUID]*entity.TranscriptVersion{}}
}

var _ contract.TranscriptVersionRepository = (*TranscriptVersionRepository)(nil)

func cloneTranscriptVersion(v *entity.TranscriptVersion) *entity.TranscriptVersion {
	cp := *v
	cp.Segments = append([]entity.Segment(nil), v.Segments...)
	cp.SourceSegments = append([]entity.Segment(nil), v.SourceSegments...)
	return &cp
}

func transcriptVersionField(v *entity.TranscriptVersion, field string) (interface{}, bool) {
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

func (r *TranscriptVersionRepository) Create(ctx context.Context, version *entity.TranscriptVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.CreatedByJobId == version.CreatedByJobId {
			return fmt.Errorf("transcript version for job %s already exists", version.CreatedByJobId)
		}
	}
	if version.Id == uuid.Nil {
		version.Id = uuid.New()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now()
	}
	r.items[version.Id] = cloneTranscriptVersion(version)
	return nil
}

func (r *TranscriptVersionRepository) Update(ctx context.Context, version *entity.TranscriptVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[version.Id]; !ok {
		return fmt.Errorf("transcript version %s not found", version.Id)
	}
	r.items[version.Id] = cloneTranscriptVersion(version)
	return nil
}

func (r *TranscriptVersionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *TranscriptVersionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TranscriptVersion, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *TranscriptVersionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranscriptVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := parseSpecs(specs)
	var out []*entity.TranscriptVersion
	for _, v := range r.items {
		if match(v, p, transcriptVersionField) {
			out = append(out, cloneTranscriptVersion(v))
		}
	}
	return applyOrderAndPage(out, p, transcriptVersionField), nil
}

func (r *TranscriptVersionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := parseSpecs(specs)
	var n int64
	for _, v := range r.items {
		if match(v, p, transcriptVersionField) {
			n++
		}
	}
	return n, nil
}
