package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/repository/contract"

	"github.com/google/uuid"
)

type embeddingRow struct {
	conversationId  uuid.UUID
	memoryVersionId uuid.UUID
	content         string
	category        string
	embedding       []float32
}

type MemoryEmbeddingRepository struct {
	mu   sync.RWMutex
	rows []embeddingRow
}

func NewMemoryEmbeddingRepository() *MemoryEmbeddingRepository {
	return &MemoryEmbeddingRepository{}
}

var _ contract.MemoryEmbeddingRepository = (*MemoryEmbeddingRepository)(nil)

func (r *MemoryEmbeddingRepository) CreateBulk(ctx context.Context, version *entity.MemoryVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range version.Items {
		if len(item.Embedding) == 0 {
			continue
		}
		r.rows = append(r.rows, embeddingRow{
			conversationId:  version.ConversationId,
			memoryVersionId: version.Id,
			content:         item.Content,
			category:        item.Category,
			embedding:       append([]float32(nil), item.Embedding...),
		})
	}
	return nil
}

func (r *MemoryEmbeddingRepository) DeleteByMemoryVersionId(ctx context.Context, versionId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.memoryVersionId != versionId {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}

func (r *MemoryEmbeddingRepository) Search(ctx context.Context, embedding []float32, limit int) ([]contract.MemorySearchHit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hits := make([]contract.MemorySearchHit, 0, len(r.rows))
	for _, row := range r.rows {
		hits = append(hits, contract.MemorySearchHit{
			ConversationId:  row.conversationId,
			MemoryVersionId: row.memoryVersionId,
			Content:         row.content,
			Category:        row.category,
			Distance:        cosineDistance(embedding, row.embedding),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
