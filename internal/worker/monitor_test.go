package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	mu         sync.Mutex
	registered map[string]bool
	refreshes  int
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{registered: map[string]bool{}}
}

func (f *fakeRegistrar) key(queueName, workerId string) string {
	return queueName + ":" + workerId
}

func (f *fakeRegistrar) RefreshProcess(ctx context.Context, owned map[string][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

func (f *fakeRegistrar) WorkerRegistered(ctx context.Context, queueName, workerId string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered[f.key(queueName, workerId)], nil
}

func (f *fakeRegistrar) RegisterWorker(ctx context.Context, queueName, workerId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered[f.key(queueName, workerId)] = true
	return nil
}

func (f *fakeRegistrar) drop(queueName, workerId string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.registered, f.key(queueName, workerId))
}

func (f *fakeRegistrar) isRegistered(queueName, workerId string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered[f.key(queueName, workerId)]
}

func TestMonitorRecreatesLostRegistrations(t *testing.T) {
	registrar := newFakeRegistrar()
	require.NoError(t, registrar.RegisterWorker(context.Background(), "transcription", "proc1:transcription:0"))
	require.NoError(t, registrar.RegisterWorker(context.Background(), "memory", "proc1:memory:0"))

	owned := map[string][]string{
		"transcription": {"proc1:transcription:0"},
		"memory":        {"proc1:memory:0"},
	}
	monitor := NewMonitor(registrar, owned, 10*time.Millisecond, 10*time.Millisecond, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Run(ctx)

	// simulate a lost key (redis restart, TTL lapse)
	registrar.drop("transcription", "proc1:transcription:0")

	assert.Eventually(t, func() bool {
		return registrar.isRegistered("transcription", "proc1:transcription:0")
	}, time.Second, 5*time.Millisecond)
	assert.True(t, registrar.isRegistered("memory", "proc1:memory:0"))
}

func TestMonitorRefreshesHeartbeatEachTick(t *testing.T) {
	registrar := newFakeRegistrar()
	monitor := NewMonitor(registrar, map[string][]string{}, 10*time.Millisecond, time.Minute, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Run(ctx)

	assert.Eventually(t, func() bool {
		registrar.mu.Lock()
		defer registrar.mu.Unlock()
		return registrar.refreshes >= 3
	}, time.Second, 5*time.Millisecond)
}
