// Package boundary decides when a per-client audio stream becomes a
// conversation. Each client gets one owning actor goroutine; frames are
// message-passed in so the rolling buffer is never shared.
package boundary

import (
	"context"
	"sync"

	"ai-conversations-be/internal/config"
	"ai-conversations-be/internal/pkg/logger"
	"ai-conversations-be/internal/repository/unitofwork"
	"ai-conversations-be/pkg/blobstore"
	"ai-conversations-be/pkg/engines"

	"github.com/google/uuid"
)

// ChainEnqueuer starts the post-conversation job chain once a conversation
// closes. Implemented by the orchestrator service.
type ChainEnqueuer interface {
	EnqueueConversationChain(ctx context.Context, conversationId uuid.UUID, clientId string, conversationJobId uuid.UUID) ([]uuid.UUID, error)
}

// Deps are the collaborators every actor shares.
type Deps struct {
	Transcriber engines.Transcriber
	UowFactory  unitofwork.RepositoryFactory
	Blobs       *blobstore.LocalStore
	Chain       ChainEnqueuer
}

type Manager struct {
	cfg  config.BoundaryConfig
	deps Deps
	log  logger.ILogger

	mu     sync.Mutex
	actors map[string]*actor
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(cfg config.BoundaryConfig, deps Deps, log logger.ILogger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:    cfg,
		deps:   deps,
		log:    log,
		actors: make(map[string]*actor),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Ingest routes one frame to the client's actor, starting it on first
// contact. Frames arriving while the actor is busy queue up; if the queue is
// full the frame is dropped rather than blocking the transport.
func (m *Manager) Ingest(clientId string, frame Frame) {
	a := m.getOrStart(clientId)
	if a == nil {
		return
	}
	select {
	case a.frames <- frame:
	default:
		m.log.Warn("boundary", "frame dropped, actor backlog full", map[string]interface{}{
			"client_id": clientId,
			"seq":       frame.Seq,
		})
	}
}

// Disconnect tells the client's actor to close promptly. Safe to call for
// unknown clients.
func (m *Manager) Disconnect(clientId string) {
	m.mu.Lock()
	a := m.actors[clientId]
	m.mu.Unlock()
	if a == nil {
		return
	}
	select {
	case a.ctl <- ctlMsg{kind: ctlDisconnect}:
	case <-a.done:
	}
}

// CloseConversation closes the client's open conversation with
// end_reason=explicit_close and starts a fresh detection cycle. A client with
// no open conversation is a no-op.
func (m *Manager) CloseConversation(clientId string) {
	m.mu.Lock()
	a := m.actors[clientId]
	m.mu.Unlock()
	if a == nil {
		return
	}
	select {
	case a.ctl <- ctlMsg{kind: ctlExplicitClose}:
	case <-a.done:
	}
}

// ActiveClients reports how many client actors are running, for health.
func (m *Manager) ActiveClients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.actors)
}

// Shutdown stops every actor and waits for them to flush.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	actors := make([]*actor, 0, len(m.actors))
	for _, a := range m.actors {
		actors = append(actors, a)
	}
	m.mu.Unlock()

	m.cancel()
	for _, a := range actors {
		<-a.done
	}
}

func (m *Manager) getOrStart(clientId string) *actor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	if a, ok := m.actors[clientId]; ok {
		return a
	}
	a := newActor(m.ctx, clientId, m)
	m.actors[clientId] = a
	go a.run()
	return a
}

func (m *Manager) remove(clientId string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.actors, clientId)
}
