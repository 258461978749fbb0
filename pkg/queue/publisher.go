// Package queue carries durable job dispatch over NATS JetStream. Each job
// queue maps to one subject under the JOBS stream; workers consume through
// durable pull consumers so jobs survive worker restarts.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JobMessage is the wire form of a dispatched job. The job row in the
// database is the source of truth; this only carries the id plus enough
// context for logging before the row is loaded.
type JobMessage struct {
	JobId uuid.UUID `json:"job_id"`
	Type  string    `json:"type"`
	Queue string    `json:"queue"`
}

// Publisher dispatches jobs onto the JOBS stream.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	stream string
}

// NewPublisher connects to NATS and ensures the JOBS stream exists.
func NewPublisher(url, streamName string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{"jobs.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		log.Printf("Warn: Failed to ensure stream '%s': %v", streamName, err)
		// NATS may not be ready yet; the subscriber ensures the stream too.
	}

	return &Publisher{nc: nc, js: js, stream: streamName}, nil
}

// Publish places one job message on its queue subject.
func (p *Publisher) Publish(ctx context.Context, msg JobMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal job message: %w", err)
	}

	subject := fmt.Sprintf("jobs.%s", msg.Queue)
	_, err = p.js.Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish job to subject %s: %w", subject, err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
