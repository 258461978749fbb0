package worker

import (
	"context"
	"fmt"

	"ai-conversations-be/internal/config"
	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/pkg/logger"
	"ai-conversations-be/pkg/queue"
)

// Pool runs the configured number of workers per queue in this process. Each
// worker is one durable consumer pull loop; workers on the same queue share
// the durable name, so the stream load-balances messages between them.
type Pool struct {
	cfg        config.QueueConfig
	subscriber *queue.Subscriber
	registry   *RedisRegistry
	executor   *Executor
	log        logger.ILogger

	owned   map[string][]string
	monitor *Monitor
}

func NewPool(cfg config.QueueConfig, subscriber *queue.Subscriber, registry *RedisRegistry, executor *Executor, log logger.ILogger) *Pool {
	return &Pool{
		cfg:        cfg,
		subscriber: subscriber,
		registry:   registry,
		executor:   executor,
		log:        log,
		owned:      map[string][]string{},
	}
}

func (p *Pool) workersFor(queueName string) int {
	switch queueName {
	case entity.QueueAudio:
		return p.cfg.AudioWorkers
	case entity.QueueTranscription:
		return p.cfg.TranscribeWorkers
	case entity.QueueMemory:
		return p.cfg.MemoryWorkers
	}
	return 0
}

// Start registers every worker and begins consuming. The monitor goroutine
// keeps the registrations alive until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) error {
	for _, queueName := range []string{entity.QueueAudio, entity.QueueTranscription, entity.QueueMemory} {
		count := p.workersFor(queueName)
		durable := "workers_" + queueName

		for i := 0; i < count; i++ {
			workerId := fmt.Sprintf("%s:%s:%d", p.registry.ProcessId(), queueName, i)
			if err := p.registry.RegisterWorker(ctx, queueName, workerId); err != nil {
				return fmt.Errorf("failed to register worker %s: %w", workerId, err)
			}
			p.owned[queueName] = append(p.owned[queueName], workerId)

			if err := p.subscriber.Subscribe(queueName, durable, p.executor.Handle); err != nil {
				return fmt.Errorf("failed to subscribe worker %s: %w", workerId, err)
			}
		}
		p.log.Info("worker_pool", "queue workers started", map[string]interface{}{
			"queue":   queueName,
			"workers": count,
		})
	}

	p.monitor = NewMonitor(p.registry, p.owned, p.cfg.HeartbeatInterval, p.cfg.MonitorInterval, p.log)
	go p.monitor.Run(ctx)
	return nil
}

// Stop drains the consumers and removes this process's registrations so the
// health endpoint stops counting them immediately.
func (p *Pool) Stop(ctx context.Context) {
	p.subscriber.Close()
	p.registry.Deregister(ctx, p.owned)
	p.log.Info("worker_pool", "stopped", map[string]interface{}{
		"process_id": p.registry.ProcessId(),
	})
}
