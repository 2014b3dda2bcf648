package messaging

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/pkg/models"
)

const (
	ConsumerGroup = "matching-engine"
	maxRetries    = 3
)

// swipeEventSchema validates events before they touch the engine; a payload
// that fails validation goes to the DLQ instead of being retried.
const swipeEventSchema = `{
	"type": "object",
	"required": ["user_id", "target_user_id", "type"],
	"properties": {
		"user_id": {"type": "integer", "minimum": 1},
		"target_user_id": {"type": "integer", "minimum": 1},
		"type": {"type": "string", "enum": ["LIKE", "PASS"]},
		"timestamp": {"type": "string"}
	}
}`

// MessageBus consumes swipe events and publishes match-created events.
type MessageBus struct {
	matchWriter *kafka.Writer
	swipeReader *kafka.Reader
	dlqWriter   *kafka.Writer
	schema      *gojsonschema.Schema
	logger      *logrus.Logger
}

func NewMessageBus(cfg *config.Config, logger *logrus.Logger) (*MessageBus, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(swipeEventSchema))
	if err != nil {
		return nil, err
	}

	return &MessageBus{
		matchWriter: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        cfg.Kafka.Topics.MatchEvents,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        true, // fire-and-forget notification fan-out
			BatchTimeout: 10 * time.Millisecond,
		},
		swipeReader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Kafka.Topics.SwipeEvents,
			GroupID:        ConsumerGroup,
			MinBytes:       10e3,
			MaxBytes:       10e6,
			CommitInterval: time.Second,
			StartOffset:    kafka.LastOffset,
		}),
		dlqWriter: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        cfg.Kafka.Topics.SwipeEvents + "-dlq",
			RequiredAcks: kafka.RequireOne,
		},
		schema: schema,
		logger: logger,
	}, nil
}

// PublishMatchCreated emits a notification event. Failures are logged and
// dropped; matching success never depends on notification success.
func (mb *MessageBus) PublishMatchCreated(ctx context.Context, event *models.MatchCreatedEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		mb.logger.WithError(err).Error("Failed to marshal match event")
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.User1ID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "source", Value: []byte(event.Source)},
			{Key: "timestamp", Value: []byte(event.CreatedAt.Format(time.RFC3339))},
		},
	}

	if err := mb.matchWriter.WriteMessages(ctx, msg); err != nil {
		mb.logger.WithError(err).WithFields(logrus.Fields{
			"user1_id": event.User1ID,
			"user2_id": event.User2ID,
		}).Warn("Failed to publish match event")
	}
}

// ConsumeSwipeEvents reads swipe events until the context ends, validating
// each against the schema. Handler failures are retried a bounded number of
// times before the event goes to the DLQ.
func (mb *MessageBus) ConsumeSwipeEvents(ctx context.Context, handler func(context.Context, *models.SwipeEvent) error) error {
	for {
		msg, err := mb.swipeReader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			mb.logger.WithError(err).Error("Failed to read swipe event")
			continue
		}

		result, err := mb.schema.Validate(gojsonschema.NewBytesLoader(msg.Value))
		if err != nil || !result.Valid() {
			mb.logger.WithField("offset", msg.Offset).Warn("Invalid swipe event, sending to DLQ")
			mb.sendToDLQ(ctx, msg, "schema_validation_failed")
			continue
		}

		var event models.SwipeEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			mb.sendToDLQ(ctx, msg, "unmarshal_failed")
			continue
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now()
		}

		var handleErr error
		for attempt := 0; attempt < maxRetries; attempt++ {
			if handleErr = handler(ctx, &event); handleErr == nil {
				break
			}
			select {
			case <-time.After(time.Duration(attempt+1) * 100 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if handleErr != nil {
			mb.logger.WithError(handleErr).WithFields(logrus.Fields{
				"user_id":   event.UserID,
				"target_id": event.TargetUserID,
			}).Error("Swipe event handling failed, sending to DLQ")
			mb.sendToDLQ(ctx, msg, "handler_failed")
		}
	}
}

func (mb *MessageBus) sendToDLQ(ctx context.Context, msg kafka.Message, reason string) {
	dlqMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "dlq_reason", Value: []byte(reason)},
			kafka.Header{Key: "dlq_timestamp", Value: []byte(time.Now().Format(time.RFC3339))},
		),
	}
	if err := mb.dlqWriter.WriteMessages(ctx, dlqMsg); err != nil {
		mb.logger.WithError(err).Error("Failed to write to DLQ")
	}
}

func (mb *MessageBus) Close() error {
	var firstErr error
	if err := mb.swipeReader.Close(); err != nil {
		firstErr = err
	}
	if err := mb.matchWriter.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := mb.dlqWriter.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
