package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-eventreg/internal/logger"
	"ms-eventreg/internal/models"
)

// Consumer drains the notification queue and hands each job to a
// handler. Delivery is at-least-once: the offset is committed only
// after the handler returns, so a crash mid-job re-delivers it.
type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log}
}

// Start blocks, consuming jobs until ctx is cancelled. The handler
// owns per-job retries; once it returns, the job is committed and
// never re-delivered.
func (c *Consumer) Start(ctx context.Context, handler func(job models.EmailJob)) {
	c.logger.LogQueue("START", c.reader.Config().Topic, "consumer loop running")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.LogQueue("STOP", c.reader.Config().Topic, "consumer loop stopped")
				return
			}
			c.logger.Error("QUEUE", fmt.Sprintf("fetch message: %v", err))
			continue
		}

		var job models.EmailJob
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			c.logger.Error("QUEUE", fmt.Sprintf("unmarshal job: %v", err))
		} else {
			handler(job)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("QUEUE", fmt.Sprintf("commit offset: %v", err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
