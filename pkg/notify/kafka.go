package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/PaingThuTa/booking-system-intern/pkg/kafka"
	kafka_config "github.com/PaingThuTa/booking-system-intern/pkg/kafka/config"
	kafka_middleware "github.com/PaingThuTa/booking-system-intern/pkg/kafka/middleware"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"

	"github.com/google/uuid"
)

const relayGroupPrefix = "portal-relay-"

type KafkaBroker struct {
	cfg      *kafka_config.Config
	log      *logger.Logger
	source   string
	producer *kafka.Producer
}

func NewKafkaBroker(cfg *kafka_config.Config, log *logger.Logger, source string) (*KafkaBroker, error) {
	producer, err := kafka.NewProducer(cfg, log, cfg.EventsTopic, cfg.DLQTopic)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	if cfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
	}
	return &KafkaBroker{cfg: cfg, log: log, source: source, producer: producer}, nil
}

func (b *KafkaBroker) Publish(ctx context.Context, evt Event) error {
	return b.producer.Publish(ctx, kafkaMessage(evt, b.source))
}

func kafkaMessage(evt Event, source string) kafka.Message {
	return kafka.NewMessage().
		WithKey(evt.Channel).
		WithValue(evt).
		WithEventID(evt.ID).
		WithEventType(evt.Name).
		WithSource(source).
		Build()
}

// Relay joins a consumer group unique to this instance so every instance
// receives every event.
func (b *KafkaBroker) Relay(ctx context.Context, sink Publisher) error {
	groupID := relayGroupPrefix + uuid.NewString()
	consumer, err := kafka.NewConsumer(b.cfg, b.log, b.cfg.EventsTopic, groupID, "", relayHandler(sink))
	if err != nil {
		return fmt.Errorf("create kafka relay consumer: %w", err)
	}
	if b.cfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(b.log))
	}

	b.log.Info("Kafka relay started", "topic", b.cfg.EventsTopic, "group_id", groupID)
	err = consumer.Start(ctx)
	if closeErr := consumer.Close(); closeErr != nil {
		b.log.Warn("Failed to close kafka relay consumer", "error", closeErr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func relayHandler(sink Publisher) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt Event
		if err := msg.DecodeValue(&evt); err != nil {
			return kafka.NewPermanentError("decode relayed event", err)
		}
		return sink.Publish(ctx, evt)
	}
}

func (b *KafkaBroker) Close() error {
	return b.producer.Close()
}
