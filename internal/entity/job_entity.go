package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobType string

const (
	JobSpeechDetection      JobType = "speech_detection"
	JobOpenConversation     JobType = "open_conversation"
	JobTranscribeFullAudio  JobType = "transcribe_full_audio"
	JobRecogniseSpeakers    JobType = "recognise_speakers"
	JobProcessCropping      JobType = "process_cropping"
	JobGenerateTitleSummary JobType = "generate_title_summary"
	JobProcessMemory        JobType = "process_memory"
)

func (t JobType) Valid() bool {
	switch t {
	case JobSpeechDetection, JobOpenConversation, JobTranscribeFullAudio,
		JobRecogniseSpeakers, JobProcessCropping, JobGenerateTitleSummary,
		JobProcessMemory:
		return true
	}
	return false
}

// Queue names: boundary jobs run in-process but keep a queue label for
// introspection; the post-conversation chain dispatches through JetStream.
const (
	QueueAudio         = "audio"
	QueueTranscription = "transcription"
	QueueMemory        = "memory"
)

// QueueFor maps a job type to its durable queue. Slow transcription work must
// not starve memory/summary work, so they pull from separate queues.
func QueueFor(t JobType) string {
	switch t {
	case JobTranscribeFullAudio, JobRecogniseSpeakers, JobProcessCropping:
		return QueueTranscription
	case JobGenerateTitleSummary, JobProcessMemory:
		return QueueMemory
	default:
		return QueueAudio
	}
}

type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// JobMeta is the typed metadata bag. ClientId is always present; the
// conversation fields are attached in a second phase once the conversation
// record exists, so readers must treat them as optional-then-present.
type JobMeta struct {
	ClientId            string     `json:"client_id"`
	ConversationId      *uuid.UUID `json:"conversation_id,omitempty"`
	ConversationJobId   *uuid.UUID `json:"conversation_job_id,omitempty"`
	TranscriptVersionId *uuid.UUID `json:"transcript_version_id,omitempty"`
	Reprocess           bool       `json:"reprocess,omitempty"`
}

type Job struct {
	Id        uuid.UUID
	Type      JobType
	Queue     string
	Status    JobStatus
	Meta      JobMeta
	Result    map[string]interface{}
	Error     string
	Attempts  int
	CreatedAt time.Time
	UpdatedAt *time.Time
}
