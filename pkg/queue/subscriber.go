package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JobHandler processes one dispatched job. A non-nil error triggers redelivery
// until the consumer's MaxDeliver is exhausted.
type JobHandler func(ctx context.Context, msg JobMessage) error

// Subscriber consumes job messages from the JOBS stream.
type Subscriber struct {
	nc         *nats.Conn
	js         jetstream.JetStream
	stream     string
	maxDeliver int
	ackWait    time.Duration
	contexts   []jetstream.ConsumeContext
}

// NewSubscriber connects to NATS and ensures the JOBS stream exists, so the
// worker can start before the REST process ever published anything.
func NewSubscriber(url, streamName string, maxDeliver int, ackWait time.Duration) (*Subscriber, error) {
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
	}

	return &Subscriber{
		nc:         nc,
		js:         js,
		stream:     streamName,
		maxDeliver: maxDeliver,
		ackWait:    ackWait,
	}, nil
}

// Subscribe registers a durable consumer for one queue. The durable name pins
// consumer state in JetStream, so redeployments resume where they left off.
func (s *Subscriber) Subscribe(queueName string, durableName string, handler JobHandler) error {
	ctx := context.Background()

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, s.stream, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: fmt.Sprintf("jobs.%s", queueName),
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       s.ackWait,
		MaxDeliver:    s.maxDeliver,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var jm JobMessage
		if err := json.Unmarshal(msg.Data(), &jm); err != nil {
			log.Printf("Error unmarshalling job message: %v", err)
			msg.Term() // malformed, never deliverable
			return
		}

		if err := handler(context.Background(), jm); err != nil {
			log.Printf("Handler failed for job %s (%s): %v", jm.JobId, jm.Type, err)
			msg.Nak()
			return
		}

		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.contexts = append(s.contexts, cc)
	log.Printf("Subscribed to queue %s with durable %s", queueName, durableName)
	return nil
}

// Close stops all consumers and closes the connection.
func (s *Subscriber) Close() {
	for _, cc := range s.contexts {
		cc.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
