package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// EndReason records which terminal event closed a conversation.
type EndReason string

const (
	EndReasonInactivityTimeout EndReason = "inactivity_timeout"
	EndReasonDisconnect        EndReason = "disconnect"
	EndReasonExplicitClose     EndReason = "explicit_close"
)

// KeptInterval is one non-silent slice of the original audio retained by the
// cropping step. CroppedStart is its cumulative offset in the cropped file.
type KeptInterval struct {
	OrigStart    float64 `json:"orig_start"`
	OrigEnd      float64 `json:"orig_end"`
	CroppedStart float64 `json:"cropped_start"`
}

type Conversation struct {
	Id               uuid.UUID
	ClientId         string
	Title            string
	Summary          string
	AudioPath        string
	CroppedAudioPath string
	KeptIntervals    []KeptInterval
	EndReason        EndReason

	ActiveTranscriptVersionId *uuid.UUID
	ActiveMemoryVersionId     *uuid.UUID

	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Open reports whether the conversation is still accepting audio.
func (c *Conversation) Open() bool {
	return c.CompletedAt == nil
}

// DeriveClientID builds the stable per-device identity: the device name plus a
// short hash of the owning user. The same device always maps to the same id,
// so no explicit registration step is needed.
func DeriveClientID(deviceName, userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return deviceName + "_" + hex.EncodeToString(sum[:])[:8]
}
