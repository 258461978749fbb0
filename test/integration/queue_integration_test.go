package integration

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"ai-conversations-be/pkg/queue"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJetStreamRoundtrip(t *testing.T) {
	_ = godotenv.Load("../../.env")
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		t.Skip("Skipping integration test: NATS_URL not set")
	}

	streamName := "JOBS_IT_" + uuid.NewString()[:8]

	pub, err := queue.NewPublisher(natsURL, streamName)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := queue.NewSubscriber(natsURL, streamName, 3, 30*time.Second)
	require.NoError(t, err)
	defer sub.Close()

	var received atomic.Value
	require.NoError(t, sub.Subscribe("transcription", "it_workers", func(ctx context.Context, msg queue.JobMessage) error {
		received.Store(msg.JobId)
		return nil
	}))

	jobId := uuid.New()
	require.NoError(t, pub.Publish(context.Background(), queue.JobMessage{
		JobId: jobId,
		Type:  "transcribe_full_audio",
		Queue: "transcription",
	}))

	assert.Eventually(t, func() bool {
		got, ok := received.Load().(uuid.UUID)
		return ok && got == jobId
	}, 10*time.Second, 100*time.Millisecond)
}
