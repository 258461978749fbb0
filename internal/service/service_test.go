package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"ai-conversations-be/internal/entity"
	memrepo "ai-conversations-be/internal/repository/memory"
	"ai-conversations-be/pkg/queue"

	"github.com/google/uuid"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// fakePublisher records dispatched messages and can be told to fail.
type fakePublisher struct {
	mu       sync.Mutex
	messages []queue.JobMessage
	fail     bool
}

func (p *fakePublisher) Publish(ctx context.Context, msg queue.JobMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("nats connection refused")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakePublisher) published() []queue.JobMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.JobMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

// fakeEmbedder returns a fixed-direction unit vector per distinct text, so
// identical texts land at distance zero from each other.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	next    int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{}}
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	v := make([]float32, 8)
	v[e.next%8] = 1
	e.next++
	e.vectors[text] = v
	return v, nil
}

type fakeRegistry struct {
	workers   map[string]int
	processes int
}

func (r *fakeRegistry) RegisteredWorkers(ctx context.Context) (map[string]int, error) {
	return r.workers, nil
}

func (r *fakeRegistry) LiveProcesses(ctx context.Context) (int, error) {
	return r.processes, nil
}

func seedClosedConversation(f *memrepo.Factory, clientId string) *entity.Conversation {
	now := time.Now()
	conversation := &entity.Conversation{
		Id:          uuid.New(),
		ClientId:    clientId,
		AudioPath:   "/tmp/" + uuid.NewString() + "/audio.wav",
		EndReason:   entity.EndReasonExplicitClose,
		CreatedAt:   now,
		CompletedAt: &now,
	}
	_ = f.Conversations.Create(context.Background(), conversation)
	return conversation
}

func testSegments() []entity.Segment {
	return []entity.Segment{
		{Start: 0.2, End: 1.4, Text: "morning standup notes", Confidence: 0.92},
		{Start: 1.6, End: 3.1, Text: "deploy is scheduled for friday", Confidence: 0.88},
	}
}
