// Package observations handles Kafka event production for observation
// batch events.
package observations

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/echotrust/advisory-backend/model"
)

// BatchProducer sends observation batch events to Kafka. The backend only
// consumes these events; the producer is for external source integrations
// that push batches instead of being polled.
type BatchProducer struct {
	Writer *kafka.Writer
}

// NewBatchProducer initializes a new Kafka writer for observation batches
func NewBatchProducer(brokers []string, topic string) *BatchProducer {
	return &BatchProducer{
		Writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishBatch sends one batch of observations to the Kafka topic
func (p *BatchProducer) PublishBatch(ctx context.Context, sourceID string, obs []model.SourceObservation) error {
	event := ObservationBatchEvent{
		EventType:     "advisory.observations.batch",
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		SourceID:      sourceID,
		Observations:  obs,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(sourceID),
		Value: payload,
	})
}

// Close cleans up the Kafka writer
func (p *BatchProducer) Close() error {
	return p.Writer.Close()
}
