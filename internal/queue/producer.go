package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-eventreg/internal/models"
)

// Producer appends notification jobs to the durable queue. Enqueue is
// append-only, so the admission controller and the reminder sweep can
// both produce without coordination.
type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

// Enqueue publishes one email job, keyed by registration id.
func (p *Producer) Enqueue(ctx context.Context, job models.EmailJob) error {
	msgBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal %s job: %w", job.Kind, err)
	}

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.Registration.ID),
		Value: msgBytes,
	})
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
