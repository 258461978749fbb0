package worker

import (
	"context"
	"fmt"
	"time"

	"ai-conversations-be/internal/config"
	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/notify"
	"ai-conversations-be/internal/pkg/logger"
	"ai-conversations-be/internal/repository/specification"
	"ai-conversations-be/internal/repository/unitofwork"
	"ai-conversations-be/internal/service"
	"ai-conversations-be/pkg/audio"
	"ai-conversations-be/pkg/blobstore"
	"ai-conversations-be/pkg/engines"
	"ai-conversations-be/pkg/queue"

	"github.com/google/uuid"
)

// Executor runs one job end to end: claim the row, execute by type, record
// the terminal status. A returned error means the message should be
// redelivered; nil means it is settled either way.
type Executor struct {
	uowFactory        unitofwork.RepositoryFactory
	versions          service.IVersionService
	blobs             *blobstore.LocalStore
	transcriber       engines.Transcriber
	diarizer          engines.Diarizer
	llm               engines.LLMProvider
	embedder          engines.EmbeddingProvider
	bus               *notify.Bus
	crop              config.CropConfig
	transcriptWaitMax time.Duration
	maxDeliver        int
	log               logger.ILogger
}

type ExecutorDeps struct {
	UowFactory  unitofwork.RepositoryFactory
	Versions    service.IVersionService
	Blobs       *blobstore.LocalStore
	Transcriber engines.Transcriber
	Diarizer    engines.Diarizer
	LLM         engines.LLMProvider
	Embedder    engines.EmbeddingProvider
	Bus         *notify.Bus
}

func NewExecutor(deps ExecutorDeps, crop config.CropConfig, queueCfg config.QueueConfig, log logger.ILogger) *Executor {
	return &Executor{
		uowFactory:        deps.UowFactory,
		versions:          deps.Versions,
		blobs:             deps.Blobs,
		transcriber:       deps.Transcriber,
		diarizer:          deps.Diarizer,
		llm:               deps.LLM,
		embedder:          deps.Embedder,
		bus:               deps.Bus,
		crop:              crop,
		transcriptWaitMax: queueCfg.TranscriptWaitMax,
		maxDeliver:        queueCfg.MaxDeliver,
		log:               log,
	}
}

// Handle claims the job row and executes it. Redelivery of a job that already
// reached a terminal status is acknowledged without re-running anything.
func (e *Executor) Handle(ctx context.Context, msg queue.JobMessage) error {
	uow := e.uowFactory.NewUnitOfWork(ctx)
	job, err := uow.JobRepository().FindOne(ctx, specification.ByID{ID: msg.JobId})
	if err != nil {
		return err
	}
	if job == nil {
		e.log.Warn("worker", "received message for unknown job", map[string]interface{}{
			"job_id": msg.JobId.String(),
		})
		return nil
	}
	if job.Status.Terminal() {
		return nil
	}

	job.Status = entity.JobStatusProcessing
	job.Attempts++
	if err := uow.JobRepository().Update(ctx, job); err != nil {
		return err
	}

	execErr := e.execute(ctx, job)
	if execErr == nil {
		job.Status = entity.JobStatusCompleted
		job.Error = ""
		if err := uow.JobRepository().Update(ctx, job); err != nil {
			return err
		}
		e.bus.JobDone(job.Id, string(entity.JobStatusCompleted))
		return nil
	}

	job.Error = execErr.Error()
	if job.Attempts >= e.maxDeliver {
		// retries exhausted, settle the message and keep the failure visible
		job.Status = entity.JobStatusFailed
		if err := uow.JobRepository().Update(ctx, job); err != nil {
			return err
		}
		e.bus.JobDone(job.Id, string(entity.JobStatusFailed))
		e.log.Error("worker", "job failed permanently", map[string]interface{}{
			"job_id":   job.Id.String(),
			"type":     string(job.Type),
			"attempts": job.Attempts,
			"error":    execErr.Error(),
		})
		return nil
	}

	job.Status = entity.JobStatusQueued
	if err := uow.JobRepository().Update(ctx, job); err != nil {
		return err
	}
	e.log.Warn("worker", "job attempt failed, requeueing", map[string]interface{}{
		"job_id":   job.Id.String(),
		"type":     string(job.Type),
		"attempts": job.Attempts,
		"error":    execErr.Error(),
	})
	return execErr
}

func (e *Executor) execute(ctx context.Context, job *entity.Job) error {
	switch job.Type {
	case entity.JobTranscribeFullAudio:
		return e.handleTranscribe(ctx, job)
	case entity.JobRecogniseSpeakers:
		return e.handleRecogniseSpeakers(ctx, job)
	case entity.JobProcessCropping:
		return e.handleCropping(ctx, job)
	case entity.JobGenerateTitleSummary:
		return e.handleTitleSummary(ctx, job)
	case entity.JobProcessMemory:
		return e.handleMemory(ctx, job)
	}
	return fmt.Errorf("no handler for job type %q", job.Type)
}

func (e *Executor) loadConversation(ctx context.Context, job *entity.Job) (*entity.Conversation, error) {
	if job.Meta.ConversationId == nil {
		return nil, fmt.Errorf("job %s has no conversation attached", job.Id)
	}
	uow := e.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: *job.Meta.ConversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, fmt.Errorf("conversation %s not found", job.Meta.ConversationId)
	}
	return conversation, nil
}

// waitTranscript resolves the transcript version a dependent step should work
// from. A pinned id is loaded directly; otherwise the active version is used,
// waiting for the transcription step when it has not landed yet.
func (e *Executor) waitTranscript(ctx context.Context, conversationId uuid.UUID, pinned *uuid.UUID) (*entity.TranscriptVersion, error) {
	uow := e.uowFactory.NewUnitOfWork(ctx)

	if pinned != nil {
		version, err := uow.TranscriptVersionRepository().FindOne(ctx, specification.ByID{ID: *pinned})
		if err != nil {
			return nil, err
		}
		if version == nil {
			return nil, fmt.Errorf("pinned transcript version %s not found", pinned)
		}
		return version, nil
	}

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, fmt.Errorf("conversation %s not found", conversationId)
	}

	versionId := conversation.ActiveTranscriptVersionId
	if versionId == nil {
		versionId, err = e.awaitTranscription(ctx, uow, conversationId)
		if err != nil {
			return nil, err
		}
	}
	if versionId == nil {
		return nil, fmt.Errorf("no transcript available for conversation %s", conversationId)
	}

	version, err := uow.TranscriptVersionRepository().FindOne(ctx, specification.ByID{ID: *versionId})
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, fmt.Errorf("transcript version %s not found", versionId)
	}
	return version, nil
}

// awaitTranscription blocks until a transcript version lands for the
// conversation, watching the transcription job itself alongside so a
// dependent step fails as soon as transcription fails permanently instead of
// waiting out the full window.
func (e *Executor) awaitTranscription(ctx context.Context, uow unitofwork.UnitOfWork, conversationId uuid.UUID) (*uuid.UUID, error) {
	transcribeJob, err := uow.JobRepository().FindOne(ctx,
		specification.ByConversationId{ConversationId: conversationId},
		specification.ByJobType{Type: string(entity.JobTranscribeFullAudio)},
	)
	if err != nil {
		return nil, err
	}
	if transcribeJob != nil && transcribeJob.Status.Terminal() && transcribeJob.Status != entity.JobStatusCompleted {
		return nil, fmt.Errorf("transcription for conversation %s ended %s", conversationId, transcribeJob.Status)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ready := make(chan uuid.UUID, 1)
	waitDone := make(chan struct{})
	go func() {
		defer close(waitDone)
		if id, ok := e.bus.WaitTranscriptReady(waitCtx, conversationId, e.transcriptWaitMax); ok {
			ready <- id
		}
	}()

	jobFailed := make(chan string, 1)
	if transcribeJob != nil && !transcribeJob.Status.Terminal() {
		jobId := transcribeJob.Id
		go func() {
			if status, ok := e.bus.WaitJobDone(waitCtx, jobId, e.transcriptWaitMax); ok && status != string(entity.JobStatusCompleted) {
				jobFailed <- status
			}
		}()
	}

	select {
	case id := <-ready:
		return &id, nil
	case status := <-jobFailed:
		return nil, fmt.Errorf("transcription for conversation %s ended %s", conversationId, status)
	case <-waitDone:
		select {
		case id := <-ready:
			return &id, nil
		default:
		}
		// the signal can be missed across process restarts, re-check storage
		conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
		if err != nil {
			return nil, err
		}
		if conversation == nil {
			return nil, nil
		}
		return conversation.ActiveTranscriptVersionId, nil
	}
}

func cropIntervals(kept []entity.KeptInterval) []audio.Interval {
	out := make([]audio.Interval, len(kept))
	for i, iv := range kept {
		out[i] = audio.Interval{OrigStart: iv.OrigStart, OrigEnd: iv.OrigEnd, CroppedStart: iv.CroppedStart}
	}
	return out
}

// remapSegments projects source-timeline segments onto the cropped timeline.
// Segments falling entirely inside removed silence are dropped.
func remapSegments(source []entity.Segment, kept []entity.KeptInterval) []entity.Segment {
	if len(kept) == 0 {
		out := make([]entity.Segment, len(source))
		copy(out, source)
		return out
	}
	intervals := cropIntervals(kept)
	out := make([]entity.Segment, 0, len(source))
	for _, seg := range source {
		start, end, ok := audio.RemapSpan(seg.Start, seg.End, intervals)
		if !ok {
			continue
		}
		mapped := seg
		mapped.Start = start
		mapped.End = end
		out = append(out, mapped)
	}
	return out
}

func (e *Executor) handleTranscribe(ctx context.Context, job *entity.Job) error {
	conversation, err := e.loadConversation(ctx, job)
	if err != nil {
		return err
	}
	wav, err := e.blobs.Load(conversation.AudioPath)
	if err != nil {
		return fmt.Errorf("failed to load conversation audio: %w", err)
	}

	result, err := e.transcriber.Transcribe(ctx, wav)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	source := make([]entity.Segment, len(result.Segments))
	for i, seg := range result.Segments {
		source[i] = entity.Segment{
			Start:      seg.Start,
			End:        seg.End,
			Text:       seg.Text,
			Confidence: seg.Confidence,
		}
	}
	display := remapSegments(source, conversation.KeptIntervals)

	versionId, err := e.versions.CreateTranscriptVersion(ctx, conversation.Id, display, source, job.Id, job.Meta.Reprocess)
	if err != nil {
		return err
	}

	e.bus.TranscriptReady(conversation.Id, versionId)
	job.Result = map[string]interface{}{
		"version_id": versionId.String(),
		"segments":   len(display),
	}
	return nil
}

func (e *Executor) handleRecogniseSpeakers(ctx context.Context, job *entity.Job) error {
	conversation, err := e.loadConversation(ctx, job)
	if err != nil {
		return err
	}
	wav, err := e.blobs.Load(conversation.AudioPath)
	if err != nil {
		return fmt.Errorf("failed to load conversation audio: %w", err)
	}

	turns, err := e.diarizer.Diarize(ctx, wav)
	if err != nil {
		return fmt.Errorf("diarization failed: %w", err)
	}

	version, err := e.waitTranscript(ctx, conversation.Id, nil)
	if err != nil {
		return err
	}

	speakers := map[string]struct{}{}
	for i := range version.SourceSegments {
		speaker := dominantSpeaker(version.SourceSegments[i], turns)
		version.SourceSegments[i].Speaker = speaker
		if speaker != "" {
			speakers[speaker] = struct{}{}
		}
	}
	version.Segments = remapSegments(version.SourceSegments, conversation.KeptIntervals)

	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TranscriptVersionRepository().Update(ctx, version); err != nil {
		return fmt.Errorf("failed to store speaker annotations: %w", err)
	}

	job.Result = map[string]interface{}{
		"version_id": version.Id.String(),
		"speakers":   len(speakers),
	}
	return nil
}

// dominantSpeaker picks the diarization turn with the largest time overlap
// with the segment on the original audio timeline.
func dominantSpeaker(seg entity.Segment, turns []engines.SpeakerTurn) string {
	best := ""
	bestOverlap := 0.0
	for _, turn := range turns {
		start := seg.Start
		if turn.Start > start {
			start = turn.Start
		}
		end := seg.End
		if turn.End < end {
			end = turn.End
		}
		if overlap := end - start; overlap > bestOverlap {
			bestOverlap = overlap
			best = turn.Speaker
		}
	}
	return best
}

func (e *Executor) handleCropping(ctx context.Context, job *entity.Job) error {
	conversation, err := e.loadConversation(ctx, job)
	if err != nil {
		return err
	}
	wav, err := e.blobs.Load(conversation.AudioPath)
	if err != nil {
		return fmt.Errorf("failed to load conversation audio: %w", err)
	}
	samples, sampleRate, err := audio.DecodeWAV(wav)
	if err != nil {
		return fmt.Errorf("stored audio is not decodable: %w", err)
	}

	intervals := audio.DetectKeptIntervals(samples, sampleRate, audio.SilenceOptions{
		Threshold:  e.crop.SilenceThreshold,
		MinSilence: e.crop.MinSilence,
		Window:     e.crop.WindowSize,
	})
	cropped := audio.Crop(samples, sampleRate, intervals)
	croppedWav, err := audio.EncodeWAV(cropped, sampleRate)
	if err != nil {
		return err
	}

	croppedPath := e.blobs.CroppedAudioPath(conversation.Id)
	if err := e.blobs.Save(croppedPath, croppedWav); err != nil {
		return fmt.Errorf("failed to store cropped audio: %w", err)
	}

	kept := make([]entity.KeptInterval, len(intervals))
	for i, iv := range intervals {
		kept[i] = entity.KeptInterval{OrigStart: iv.OrigStart, OrigEnd: iv.OrigEnd, CroppedStart: iv.CroppedStart}
	}
	conversation.KeptIntervals = kept
	conversation.CroppedAudioPath = croppedPath

	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
		return err
	}

	// re-runs recompute every display timeline from the untouched source
	// segments, so cropping twice cannot compound the shift
	versions, err := uow.TranscriptVersionRepository().FindAll(ctx, specification.ByConversationId{ConversationId: conversation.Id})
	if err != nil {
		return err
	}
	for _, version := range versions {
		version.Segments = remapSegments(version.SourceSegments, kept)
		if err := uow.TranscriptVersionRepository().Update(ctx, version); err != nil {
			return err
		}
	}

	job.Result = map[string]interface{}{
		"kept_intervals":  len(kept),
		"original_sec":    float64(len(samples)) / float64(sampleRate),
		"cropped_sec":     float64(len(cropped)) / float64(sampleRate),
		"remapped_counts": len(versions),
	}
	return nil
}

func (e *Executor) handleTitleSummary(ctx context.Context, job *entity.Job) error {
	conversation, err := e.loadConversation(ctx, job)
	if err != nil {
		return err
	}
	version, err := e.waitTranscript(ctx, conversation.Id, nil)
	if err != nil {
		return err
	}

	title, summary, err := e.llm.GenerateTitleSummary(ctx, version.Text())
	if err != nil {
		return fmt.Errorf("title generation failed: %w", err)
	}

	conversation.Title = title
	conversation.Summary = summary
	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
		return err
	}

	job.Result = map[string]interface{}{"title": title}
	return nil
}

func (e *Executor) handleMemory(ctx context.Context, job *entity.Job) error {
	conversation, err := e.loadConversation(ctx, job)
	if err != nil {
		return err
	}
	version, err := e.waitTranscript(ctx, conversation.Id, job.Meta.TranscriptVersionId)
	if err != nil {
		return err
	}

	facts, err := e.llm.ExtractMemories(ctx, version.Text())
	if err != nil {
		return fmt.Errorf("memory extraction failed: %w", err)
	}

	items := make([]entity.MemoryItem, 0, len(facts))
	for _, fact := range facts {
		if fact.Content == "" {
			continue
		}
		embedding, err := e.embedder.Embed(ctx, fact.Content)
		if err != nil {
			return fmt.Errorf("embedding failed: %w", err)
		}
		items = append(items, entity.MemoryItem{
			Content:   fact.Content,
			Category:  fact.Category,
			Embedding: embedding,
		})
	}

	versionId, err := e.versions.CreateMemoryVersion(ctx, conversation.Id, items, version.Id, job.Id, job.Meta.Reprocess)
	if err != nil {
		return err
	}

	job.Result = map[string]interface{}{
		"version_id": versionId.String(),
		"items":      len(items),
	}
	return nil
}
