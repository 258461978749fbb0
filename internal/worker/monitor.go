package worker

import (
	"context"
	"time"

	"ai-conversations-be/internal/pkg/logger"
)

// registrar is the slice of the registry the monitor needs.
type registrar interface {
	RefreshProcess(ctx context.Context, owned map[string][]string) error
	WorkerRegistered(ctx context.Context, queueName, workerId string) (bool, error)
	RegisterWorker(ctx context.Context, queueName, workerId string) error
}

// Monitor keeps this process's registrations alive. The heartbeat ticker
// renews the TTL keys well inside their expiry; the slower check ticker
// re-creates any registration key that disappeared, so a lost key (Redis
// restart, TTL lapse under load) is healed within one check interval.
type Monitor struct {
	registry          registrar
	owned             map[string][]string
	heartbeatInterval time.Duration
	checkInterval     time.Duration
	log               logger.ILogger
}

func NewMonitor(registry registrar, owned map[string][]string, heartbeatInterval, checkInterval time.Duration, log logger.ILogger) *Monitor {
	return &Monitor{
		registry:          registry,
		owned:             owned,
		heartbeatInterval: heartbeatInterval,
		checkInterval:     checkInterval,
		log:               log,
	}
}

func (m *Monitor) Run(ctx context.Context) {
	heartbeat := time.NewTicker(m.heartbeatInterval)
	defer heartbeat.Stop()
	check := time.NewTicker(m.checkInterval)
	defer check.Stop()

	m.refresh(ctx)
	m.heal(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			m.refresh(ctx)
		case <-check.C:
			m.heal(ctx)
		}
	}
}

func (m *Monitor) refresh(ctx context.Context) {
	if err := m.registry.RefreshProcess(ctx, m.owned); err != nil {
		m.log.Warn("worker_monitor", "failed to refresh process heartbeat", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (m *Monitor) heal(ctx context.Context) {
	for queueName, workerIds := range m.owned {
		for _, workerId := range workerIds {
			registered, err := m.registry.WorkerRegistered(ctx, queueName, workerId)
			if err != nil {
				m.log.Warn("worker_monitor", "failed to check worker registration", map[string]interface{}{
					"queue":     queueName,
					"worker_id": workerId,
					"error":     err.Error(),
				})
				continue
			}
			if registered {
				continue
			}
			if err := m.registry.RegisterWorker(ctx, queueName, workerId); err != nil {
				m.log.Error("worker_monitor", "failed to re-register worker", map[string]interface{}{
					"queue":     queueName,
					"worker_id": workerId,
					"error":     err.Error(),
				})
				continue
			}
			m.log.Warn("worker_monitor", "re-registered missing worker", map[string]interface{}{
				"queue":     queueName,
				"worker_id": workerId,
			})
		}
	}
}
