package boundary

import (
	"context"
	"fmt"
	"time"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/pkg/audio"

	"github.com/google/uuid"
)

// Frame is one fixed-duration slice of mono PCM-16 audio from a client.
type Frame struct {
	Seq     uint64
	Samples []int16
}

type actorState int

const (
	stateDetecting actorState = iota
	stateOpen
)

// actor owns one client's rolling buffer and boundary state. All state below
// the channels is touched only by the run loop, so no locking is needed.
type actor struct {
	clientId string
	mgr      *Manager

	frames chan Frame
	ctl    chan ctlMsg
	done   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	state            actorState
	buffer           []int16
	processedSamples int

	detectionJob    *entity.Job
	conversation    *entity.Conversation
	conversationJob *entity.Job

	qualifiedWords int
	speechSeconds  float64
	lastSpeechAt   time.Time
	lastFrameAt    time.Time
}

type ctlKind int

const (
	ctlDisconnect ctlKind = iota
	ctlExplicitClose
)

type ctlMsg struct {
	kind ctlKind
}

func newActor(parent context.Context, clientId string, mgr *Manager) *actor {
	ctx, cancel := context.WithCancel(parent)
	return &actor{
		clientId: clientId,
		mgr:      mgr,
		frames:   make(chan Frame, 256),
		ctl:      make(chan ctlMsg, 4),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (a *actor) run() {
	defer close(a.done)
	defer a.mgr.remove(a.clientId)

	if err := a.startCycle(); err != nil {
		a.mgr.log.Error("boundary", "failed to start detection cycle", map[string]interface{}{
			"client_id": a.clientId,
			"error":     err.Error(),
		})
		return
	}

	ticker := time.NewTicker(a.mgr.cfg.DetectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			a.shutdown()
			return

		case msg := <-a.ctl:
			switch msg.kind {
			case ctlDisconnect:
				// close promptly, never wait out the inactivity timer
				if a.state == stateOpen {
					a.closeConversation(entity.EndReasonDisconnect)
				}
				a.completeDetectionJob()
				return
			case ctlExplicitClose:
				if a.state == stateOpen {
					a.closeConversation(entity.EndReasonExplicitClose)
					a.completeDetectionJob()
					if err := a.startCycle(); err != nil {
						a.mgr.log.Error("boundary", "failed to restart detection cycle", map[string]interface{}{
							"client_id": a.clientId,
							"error":     err.Error(),
						})
						return
					}
				}
			}

		case f := <-a.frames:
			a.appendFrame(f)

		case <-ticker.C:
			a.tick()
		}
	}
}

func (a *actor) appendFrame(f Frame) {
	a.buffer = append(a.buffer, f.Samples...)
	a.lastFrameAt = time.Now()

	// The cap bounds memory for clients that never reach the open threshold.
	// An open conversation keeps its full audio.
	if a.state == stateDetecting {
		maxSamples := a.mgr.cfg.BufferCapFrames * a.samplesPerFrame()
		if maxSamples > 0 && len(a.buffer) > maxSamples {
			drop := len(a.buffer) - maxSamples
			a.buffer = a.buffer[drop:]
			a.processedSamples -= drop
			if a.processedSamples < 0 {
				a.processedSamples = 0
			}
		}
	}
}

func (a *actor) samplesPerFrame() int {
	return int(float64(a.mgr.cfg.SampleRate) * a.mgr.cfg.FrameDuration.Seconds())
}

// tick runs one detection pass over the unprocessed buffer tail and applies
// the open/close rules.
func (a *actor) tick() {
	tail := a.buffer[a.processedSamples:]
	minTail := a.mgr.cfg.SampleRate / 2
	if len(tail) >= minTail {
		mark := len(a.buffer)
		words, err := a.detectWords(tail)
		if err != nil {
			// transient engine failure, retry the same tail next tick
			a.mgr.log.Warn("boundary", "speech detection pass failed", map[string]interface{}{
				"client_id": a.clientId,
				"error":     err.Error(),
			})
		} else {
			a.processedSamples = mark
			a.absorbWords(words)
		}
	}

	switch a.state {
	case stateDetecting:
		if a.qualifiedWords >= a.mgr.cfg.MinWords && a.speechSeconds >= a.mgr.cfg.MinSpeechDuration.Seconds() {
			if err := a.openConversation(); err != nil {
				a.mgr.log.Error("boundary", "failed to open conversation", map[string]interface{}{
					"client_id": a.clientId,
					"error":     err.Error(),
				})
			}
		}
	case stateOpen:
		if time.Since(a.lastSpeechAt) > a.mgr.cfg.InactivityTimeout {
			a.closeConversation(entity.EndReasonInactivityTimeout)
			a.completeDetectionJob()
			if err := a.startCycle(); err != nil {
				a.mgr.log.Error("boundary", "failed to restart detection cycle", map[string]interface{}{
					"client_id": a.clientId,
					"error":     err.Error(),
				})
			}
		}
	}
}

func (a *actor) detectWords(tail []int16) ([]float64, error) {
	wav, err := audio.EncodeWAV(tail, a.mgr.cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	result, err := a.mgr.deps.Transcriber.Transcribe(a.ctx, wav)
	if err != nil {
		return nil, err
	}

	var durations []float64
	for _, w := range result.Words {
		if w.Confidence >= a.mgr.cfg.MinWordConfidence {
			durations = append(durations, w.End-w.Start)
		}
	}
	return durations, nil
}

func (a *actor) absorbWords(durations []float64) {
	if len(durations) == 0 {
		return
	}
	a.qualifiedWords += len(durations)
	for _, d := range durations {
		if d > 0 {
			a.speechSeconds += d
		}
	}
	a.lastSpeechAt = time.Now()
}

// startCycle creates the durable speech_detection job row and resets the
// buffer for a fresh detection cycle.
func (a *actor) startCycle() error {
	uow := a.mgr.deps.UowFactory.NewUnitOfWork(a.ctx)
	job := &entity.Job{
		Id:     uuid.New(),
		Type:   entity.JobSpeechDetection,
		Queue:  entity.QueueFor(entity.JobSpeechDetection),
		Status: entity.JobStatusProcessing,
		Meta:   entity.JobMeta{ClientId: a.clientId},
	}
	if err := uow.JobRepository().Create(a.ctx, job); err != nil {
		return fmt.Errorf("failed to create speech_detection job: %w", err)
	}

	a.detectionJob = job
	a.state = stateDetecting
	a.buffer = nil
	a.processedSamples = 0
	a.qualifiedWords = 0
	a.speechSeconds = 0
	a.conversation = nil
	a.conversationJob = nil

	a.mgr.log.Info("boundary", "detection cycle started", map[string]interface{}{
		"client_id": a.clientId,
		"job_id":    job.Id.String(),
	})
	return nil
}

// openConversation performs the two-phase open: job row first with client
// identity only, then the conversation row, then one update attaching the
// conversation to the job. Readers of job meta tolerate the window where
// conversation_id is still absent.
func (a *actor) openConversation() error {
	ctx := a.ctx
	uow := a.mgr.deps.UowFactory.NewUnitOfWork(ctx)

	job := &entity.Job{
		Id:     uuid.New(),
		Type:   entity.JobOpenConversation,
		Queue:  entity.QueueFor(entity.JobOpenConversation),
		Status: entity.JobStatusProcessing,
		Meta:   entity.JobMeta{ClientId: a.clientId},
	}
	if err := uow.JobRepository().Create(ctx, job); err != nil {
		return fmt.Errorf("failed to create open_conversation job: %w", err)
	}

	conversation := &entity.Conversation{
		Id:       uuid.New(),
		ClientId: a.clientId,
	}
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	job.Meta.ConversationId = &conversation.Id
	if err := uow.JobRepository().Update(ctx, job); err != nil {
		return fmt.Errorf("failed to attach conversation to job: %w", err)
	}

	a.conversation = conversation
	a.conversationJob = job
	a.state = stateOpen
	a.lastSpeechAt = time.Now()

	a.mgr.log.Info("boundary", "conversation opened", map[string]interface{}{
		"client_id":       a.clientId,
		"conversation_id": conversation.Id.String(),
		"job_id":          job.Id.String(),
	})
	return nil
}

func (a *actor) closeConversation(reason entity.EndReason) {
	ctx, cancel := context.WithTimeout(context.Background(), a.mgr.cfg.DisconnectGrace)
	defer cancel()

	conv := a.conversation
	job := a.conversationJob

	durationSeconds := float64(len(a.buffer)) / float64(a.mgr.cfg.SampleRate)

	wav, err := audio.EncodeWAV(a.buffer, a.mgr.cfg.SampleRate)
	if err == nil {
		path := a.mgr.deps.Blobs.AudioPath(conv.Id)
		if err := a.mgr.deps.Blobs.Save(path, wav); err != nil {
			a.mgr.log.Error("boundary", "failed to persist conversation audio", map[string]interface{}{
				"conversation_id": conv.Id.String(),
				"error":           err.Error(),
			})
		} else {
			conv.AudioPath = path
		}
	} else {
		a.mgr.log.Error("boundary", "failed to encode conversation audio", map[string]interface{}{
			"conversation_id": conv.Id.String(),
			"error":           err.Error(),
		})
	}

	now := time.Now()
	conv.CompletedAt = &now
	conv.EndReason = reason

	uow := a.mgr.deps.UowFactory.NewUnitOfWork(ctx)
	if err := uow.ConversationRepository().Update(ctx, conv); err != nil {
		a.mgr.log.Error("boundary", "failed to close conversation record", map[string]interface{}{
			"conversation_id": conv.Id.String(),
			"error":           err.Error(),
		})
	}

	job.Status = entity.JobStatusCompleted
	job.Result = map[string]interface{}{
		"end_reason":       string(reason),
		"duration_seconds": durationSeconds,
	}
	if err := uow.JobRepository().Update(ctx, job); err != nil {
		a.mgr.log.Error("boundary", "failed to complete open_conversation job", map[string]interface{}{
			"job_id": job.Id.String(),
			"error":  err.Error(),
		})
	}

	if _, err := a.mgr.deps.Chain.EnqueueConversationChain(ctx, conv.Id, a.clientId, job.Id); err != nil {
		a.mgr.log.Error("boundary", "failed to enqueue post-conversation chain", map[string]interface{}{
			"conversation_id": conv.Id.String(),
			"error":           err.Error(),
		})
	}

	a.mgr.log.Info("boundary", "conversation closed", map[string]interface{}{
		"client_id":       a.clientId,
		"conversation_id": conv.Id.String(),
		"end_reason":      string(reason),
		"duration":        durationSeconds,
	})
}

func (a *actor) completeDetectionJob() {
	if a.detectionJob == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.detectionJob.Status = entity.JobStatusCompleted
	uow := a.mgr.deps.UowFactory.NewUnitOfWork(ctx)
	if err := uow.JobRepository().Update(ctx, a.detectionJob); err != nil {
		a.mgr.log.Error("boundary", "failed to complete speech_detection job", map[string]interface{}{
			"job_id": a.detectionJob.Id.String(),
			"error":  err.Error(),
		})
	}
	a.detectionJob = nil
}

// shutdown handles manager-initiated stops. An open conversation is flushed
// with explicit_close so its audio is not lost; a detection-only cycle fails
// its job so the stop stays visible.
func (a *actor) shutdown() {
	if a.state == stateOpen {
		a.closeConversation(entity.EndReasonExplicitClose)
		a.completeDetectionJob()
		return
	}
	if a.detectionJob == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.detectionJob.Status = entity.JobStatusFailed
	a.detectionJob.Error = "boundary manager stopped"
	uow := a.mgr.deps.UowFactory.NewUnitOfWork(ctx)
	if err := uow.JobRepository().Update(ctx, a.detectionJob); err != nil {
		a.mgr.log.Error("boundary", "failed to fail speech_detection job on stop", map[string]interface{}{
			"job_id": a.detectionJob.Id.String(),
			"error":  err.Error(),
		})
	}
	a.detectionJob = nil
}
