// Package notify is the in-process completion bus. Workers announce finished
// jobs and freshly stored transcripts; dependent steps in the same process
// (a memory or summary job waiting for its transcript) subscribe instead of
// polling the database.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Bus wraps a watermill gochannel pub/sub with the two topics the pipeline
// uses. It is purely best-effort: the database remains the source of truth
// and every waiter falls back to polling with its own deadline.
type Bus struct {
	pubSub *gochannel.GoChannel
}

func NewBus() *Bus {
	watermillLogger := watermill.NewStdLogger(false, false)
	return &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{}, watermillLogger),
	}
}

func jobDoneTopic(jobId uuid.UUID) string {
	return fmt.Sprintf("job.done.%s", jobId)
}

func transcriptReadyTopic(conversationId uuid.UUID) string {
	return fmt.Sprintf("transcript.ready.%s", conversationId)
}

// JobDone announces that a job reached a terminal status.
func (b *Bus) JobDone(jobId uuid.UUID, status string) {
	msg := message.NewMessage(watermill.NewUUID(), []byte(status))
	_ = b.pubSub.Publish(jobDoneTopic(jobId), msg)
}

// TranscriptReady announces that a transcript version was stored for the
// conversation.
func (b *Bus) TranscriptReady(conversationId, versionId uuid.UUID) {
	msg := message.NewMessage(watermill.NewUUID(), []byte(versionId.String()))
	_ = b.pubSub.Publish(transcriptReadyTopic(conversationId), msg)
}

// WaitJobDone blocks until the job's terminal status is announced or the
// timeout elapses. It returns the announced status and whether it arrived.
func (b *Bus) WaitJobDone(ctx context.Context, jobId uuid.UUID, timeout time.Duration) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messages, err := b.pubSub.Subscribe(ctx, jobDoneTopic(jobId))
	if err != nil {
		return "", false
	}
	select {
	case msg, ok := <-messages:
		if !ok {
			return "", false
		}
		msg.Ack()
		return string(msg.Payload), true
	case <-ctx.Done():
		return "", false
	}
}

// WaitTranscriptReady blocks until a transcript version id is announced for
// the conversation or the timeout elapses.
func (b *Bus) WaitTranscriptReady(ctx context.Context, conversationId uuid.UUID, timeout time.Duration) (uuid.UUID, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messages, err := b.pubSub.Subscribe(ctx, transcriptReadyTopic(conversationId))
	if err != nil {
		return uuid.Nil, false
	}
	select {
	case msg, ok := <-messages:
		if !ok {
			return uuid.Nil, false
		}
		msg.Ack()
		id, err := uuid.Parse(string(msg.Payload))
		if err != nil {
			return uuid.Nil, false
		}
		return id, true
	case <-ctx.Done():
		return uuid.Nil, false
	}
}

// Close shuts the underlying pub/sub down.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}
