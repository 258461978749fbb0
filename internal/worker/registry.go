package worker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	registrationKeyPrefix = "workers:registration:"
	processKeyPrefix      = "workers:process:"
)

// RedisRegistry tracks worker liveness through TTL keys. Every worker holds
// one registration key and every process holds one heartbeat key; a key that
// expires without renewal means the owner died. The health endpoint reads
// these counts, the monitor re-creates registrations that went missing.
type RedisRegistry struct {
	rdb       *redis.Client
	ttl       time.Duration
	processId string
}

func NewRedisRegistry(rdb *redis.Client, ttl time.Duration) *RedisRegistry {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &RedisRegistry{
		rdb:       rdb,
		ttl:       ttl,
		processId: fmt.Sprintf("%s_%d", hostname, os.Getpid()),
	}
}

func (r *RedisRegistry) ProcessId() string {
	return r.processId
}

func registrationKey(queueName, workerId string) string {
	return registrationKeyPrefix + queueName + ":" + workerId
}

func (r *RedisRegistry) RegisterWorker(ctx context.Context, queueName, workerId string) error {
	return r.rdb.Set(ctx, registrationKey(queueName, workerId), r.processId, r.ttl).Err()
}

func (r *RedisRegistry) DeregisterWorker(ctx context.Context, queueName, workerId string) error {
	return r.rdb.Del(ctx, registrationKey(queueName, workerId)).Err()
}

func (r *RedisRegistry) WorkerRegistered(ctx context.Context, queueName, workerId string) (bool, error) {
	n, err := r.rdb.Exists(ctx, registrationKey(queueName, workerId)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RefreshProcess renews both the process heartbeat and every registration this
// process owns, so a healthy process never lets its keys expire.
func (r *RedisRegistry) RefreshProcess(ctx context.Context, owned map[string][]string) error {
	if err := r.rdb.Set(ctx, processKeyPrefix+r.processId, time.Now().Format(time.RFC3339), r.ttl).Err(); err != nil {
		return err
	}
	for queueName, workerIds := range owned {
		for _, workerId := range workerIds {
			if err := r.rdb.Expire(ctx, registrationKey(queueName, workerId), r.ttl).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *RedisRegistry) Deregister(ctx context.Context, owned map[string][]string) {
	for queueName, workerIds := range owned {
		for _, workerId := range workerIds {
			_ = r.DeregisterWorker(ctx, queueName, workerId)
		}
	}
	_ = r.rdb.Del(ctx, processKeyPrefix+r.processId).Err()
}

func (r *RedisRegistry) scanCount(ctx context.Context, pattern string) (int, error) {
	var cursor uint64
	total := 0
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

// RegisteredWorkers counts live registrations per queue across all processes.
func (r *RedisRegistry) RegisteredWorkers(ctx context.Context) (map[string]int, error) {
	out := map[string]int{}
	var cursor uint64
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, registrationKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			rest := key[len(registrationKeyPrefix):]
			for i := 0; i < len(rest); i++ {
				if rest[i] == ':' {
					out[rest[:i]]++
					break
				}
			}
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

func (r *RedisRegistry) LiveProcesses(ctx context.Context) (int, error) {
	return r.scanCount(ctx, processKeyPrefix+"*")
}
