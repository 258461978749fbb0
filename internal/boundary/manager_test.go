package boundary

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-conversations-be/internal/config"
	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/pkg/logger"
	memrepo "ai-conversations-be/internal/repository/memory"
	"ai-conversations-be/internal/repository/specification"
	"ai-conversations-be/pkg/blobstore"
	"ai-conversations-be/pkg/engines"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func testLogger() logger.ILogger { return nopLogger{} }

// scriptedTranscriber returns qualifying words while speaking is set.
type scriptedTranscriber struct {
	speaking atomic.Bool
}

func (s *scriptedTranscriber) Transcribe(ctx context.Context, wav []byte) (*engines.TranscribeResult, error) {
	if !s.speaking.Load() {
		return &engines.TranscribeResult{}, nil
	}
	return &engines.TranscribeResult{
		Words: []engines.Word{
			{Start: 0.0, End: 0.3, Text: "hello", Confidence: 0.9},
			{Start: 0.3, End: 0.6, Text: "there", Confidence: 0.9},
			{Start: 0.6, End: 0.9, Text: "friend", Confidence: 0.8},
		},
	}, nil
}

type recordingChain struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (r *recordingChain) EnqueueConversationChain(ctx context.Context, conversationId uuid.UUID, clientId string, conversationJobId uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, conversationId)
	return nil, nil
}

func (r *recordingChain) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func testBoundaryConfig() config.BoundaryConfig {
	return config.BoundaryConfig{
		MinWords:          3,
		MinWordConfidence: 0.4,
		MinSpeechDuration: 500 * time.Millisecond,
		InactivityTimeout: 400 * time.Millisecond,
		DetectionInterval: 30 * time.Millisecond,
		DisconnectGrace:   time.Second,
		BufferCapFrames:   1000,
		FrameDuration:     20 * time.Millisecond,
		SampleRate:        8000,
	}
}

type boundaryFixture struct {
	mgr         *Manager
	repos       *memrepo.Factory
	transcriber *scriptedTranscriber
	chain       *recordingChain
	stopFeed    chan struct{}
}

func newBoundaryFixture(t *testing.T) *boundaryFixture {
	t.Helper()
	repos := memrepo.NewFactory()
	transcriber := &scriptedTranscriber{}
	chain := &recordingChain{}

	blobs, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	mgr := NewManager(testBoundaryConfig(), Deps{
		Transcriber: transcriber,
		UowFactory:  repos,
		Blobs:       blobs,
		Chain:       chain,
	}, testLogger())
	t.Cleanup(mgr.Shutdown)

	return &boundaryFixture{
		mgr:         mgr,
		repos:       repos,
		transcriber: transcriber,
		chain:       chain,
		stopFeed:    make(chan struct{}),
	}
}

// feed pushes frames continuously until the fixture's stopFeed closes.
func (f *boundaryFixture) feed(clientId string) {
	go func() {
		seq := uint64(0)
		samples := make([]int16, 160) // one 20ms frame at 8kHz
		for {
			select {
			case <-f.stopFeed:
				return
			default:
			}
			f.mgr.Ingest(clientId, Frame{Seq: seq, Samples: samples})
			seq++
			time.Sleep(2 * time.Millisecond)
		}
	}()
}

func (f *boundaryFixture) openConversationJob(t *testing.T, clientId string) *entity.Job {
	t.Helper()
	ctx := context.Background()
	jobs, err := f.repos.Jobs.FindAll(ctx,
		specification.ByJobType{Type: string(entity.JobOpenConversation)},
		specification.ByClientId{ClientId: clientId},
	)
	require.NoError(t, err)
	if len(jobs) == 0 {
		return nil
	}
	return jobs[0]
}

func TestConversationOpensOnQualifyingSpeech(t *testing.T) {
	f := newBoundaryFixture(t)
	defer close(f.stopFeed)

	f.transcriber.speaking.Store(true)
	f.feed("device_abc")

	require.Eventually(t, func() bool {
		job := f.openConversationJob(t, "device_abc")
		return job != nil && job.Meta.ConversationId != nil
	}, 5*time.Second, 20*time.Millisecond, "open_conversation job with conversation_id never appeared")

	job := f.openConversationJob(t, "device_abc")
	assert.Equal(t, entity.JobStatusProcessing, job.Status)
	assert.Equal(t, "device_abc", job.Meta.ClientId)
}

func TestConversationClosesOnInactivity(t *testing.T) {
	f := newBoundaryFixture(t)
	defer close(f.stopFeed)

	f.transcriber.speaking.Store(true)
	f.feed("device_abc")

	require.Eventually(t, func() bool {
		job := f.openConversationJob(t, "device_abc")
		return job != nil && job.Meta.ConversationId != nil
	}, 5*time.Second, 20*time.Millisecond)

	// go quiet and let the inactivity timer fire
	f.transcriber.speaking.Store(false)

	require.Eventually(t, func() bool {
		job := f.openConversationJob(t, "device_abc")
		return job != nil && job.Status == entity.JobStatusCompleted
	}, 5*time.Second, 20*time.Millisecond, "open_conversation job never completed")

	ctx := context.Background()
	job := f.openConversationJob(t, "device_abc")
	conv, err := f.repos.Conversations.FindOne(ctx, specification.ByID{ID: *job.Meta.ConversationId})
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.False(t, conv.Open())
	assert.Equal(t, entity.EndReasonInactivityTimeout, conv.EndReason)
	assert.NotEmpty(t, conv.AudioPath)

	// chain enqueued exactly once for this conversation
	assert.Equal(t, 1, f.chain.count())

	// a fresh detection cycle is running for the same client
	detections, err := f.repos.Jobs.FindAll(ctx,
		specification.ByJobType{Type: string(entity.JobSpeechDetection)},
		specification.ByClientId{ClientId: "device_abc"},
		specification.ByJobStatus{Status: string(entity.JobStatusProcessing)},
	)
	require.NoError(t, err)
	assert.Len(t, detections, 1)
}

func TestDisconnectClosesPromptly(t *testing.T) {
	f := newBoundaryFixture(t)
	defer close(f.stopFeed)

	f.transcriber.speaking.Store(true)
	f.feed("device_abc")

	require.Eventually(t, func() bool {
		job := f.openConversationJob(t, "device_abc")
		return job != nil && job.Meta.ConversationId != nil
	}, 5*time.Second, 20*time.Millisecond)

	start := time.Now()
	f.mgr.Disconnect("device_abc")

	require.Eventually(t, func() bool {
		job := f.openConversationJob(t, "device_abc")
		return job != nil && job.Status == entity.JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond, "disconnect did not complete the open_conversation job")

	// well under the inactivity timeout path, which would add the full window
	assert.Less(t, time.Since(start), testBoundaryConfig().InactivityTimeout)

	ctx := context.Background()
	job := f.openConversationJob(t, "device_abc")
	conv, err := f.repos.Conversations.FindOne(ctx, specification.ByID{ID: *job.Meta.ConversationId})
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, entity.EndReasonDisconnect, conv.EndReason)
}

func TestNoConversationBelowThreshold(t *testing.T) {
	f := newBoundaryFixture(t)
	defer close(f.stopFeed)

	// transcriber stays silent the whole time
	f.feed("device_abc")

	time.Sleep(300 * time.Millisecond)

	ctx := context.Background()
	count, err := f.repos.Conversations.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	job := f.openConversationJob(t, "device_abc")
	assert.Nil(t, job)
}
