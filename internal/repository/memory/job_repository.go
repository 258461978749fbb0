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

type JobRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*entity.Job
}

func NewJobRepository() *JobRepository {
	return &JobRepository{items: map[uuid.UUID]*entity.Job{}}
}

var _ contract.JobRepository = (*JobRepository)(nil)

func cloneJob(j *entity.Job) *entity.Job {
	cp := *j
	if j.Meta.ConversationId != nil {
		id := *j.Meta.ConversationId
		cp.Meta.ConversationId = &id
	}
	if j.Meta.ConversationJobId != nil {
		id := *j.Meta.ConversationJobId
		cp.Meta.ConversationJobId = &id
	}
	if j.Meta.TranscriptVersionId != nil {
		id := *j.Meta.TranscriptVersionId
		cp.Meta.TranscriptVersionId = &id
	}
	if j.Result != nil {
		cp.Result = make(map[string]interface{}, len(j.Result))
		for k, v := range j.Result {
			cp.Result[k] = v
		}
	}
	if j.UpdatedAt != nil {
		t := *j.UpdatedAt
		cp.UpdatedAt = &t
	}
	return &cp
}

func jobField(j *entity.Job, field string) (interface{}, bool) {
	switch field {
	case "id":
		return j.Id, true
	case "type":
		return string(j.Type), true
	case "queue":
		return j.Queue, true
	case "status":
		return string(j.Status), true
	case "client_id":
		return j.Meta.ClientId, true
	case "conversation_id":
		if j.Meta.ConversationId == nil {
			return nil, false
		}
		return *j.Meta.ConversationId, true
	case "created_at":
		return j.CreatedAt, true
	}
	return nil, false
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.Id == uuid.Nil {
		job.Id = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	r.items[job.Id] = cloneJob(job)
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	job.UpdatedAt = &now
	r.items[job.Id] = cloneJob(job)
	return nil
}

func (r *JobRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Job, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *JobRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := parseSpecs(specs)
	var out []*entity.Job
	for _, j := range r.items {
		if match(j, p, jobField) {
			out = append(out, cloneJob(j))
		}
	}
	return applyOrderAndPage(out, p, jobField), nil
}

func (r *JobRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := parseSpecs(specs)
	var n int64
	for _, j := range r.items {
		if match(j, p, jobField) {
			n++
		}
	}
	return n, nil
}

func (r *JobRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := map[string]int64{}
	for _, j := range r.items {
		counts[string(j.Status)]++
	}
	return counts, nil
}

func (r *JobRepository) FailProcessing(ctx context.Context, detail string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	now := time.Now()
	for _, j := range r.items {
		if j.Status == entity.JobStatusProcessing {
			j.Status = entity.JobStatusFailed
			j.Error = detail
			j.UpdatedAt = &now
			n++
		}
	}
	return n, nil
}
