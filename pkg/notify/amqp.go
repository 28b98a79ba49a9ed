package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/PaingThuTa/booking-system-intern/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const contentTypeJSON = "application/json"

// AMQPBroker publishes to a topic exchange with the event name as routing key.
type AMQPBroker struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *logger.Logger
	mu       sync.Mutex
}

func NewAMQPBroker(url, exchange string, log *logger.Logger) (*AMQPBroker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPBroker{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

func (b *AMQPBroker) Publish(ctx context.Context, evt Event) error {
	data, err := evt.Marshal()
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ch.PublishWithContext(ctx, b.exchange, evt.Name, false, false, amqp.Publishing{
		ContentType: contentTypeJSON,
		MessageId:   evt.ID,
		Type:        evt.Name,
		Timestamp:   evt.OccurredAt,
		Body:        data,
	})
}

// Relay consumes through an exclusive auto-delete queue bound to every
// routing key, so the queue disappears with this instance.
func (b *AMQPBroker) Relay(ctx context.Context, sink Publisher) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open relay channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare relay queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "#", b.exchange, false, nil); err != nil {
		return fmt.Errorf("bind relay queue: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume relay queue: %w", err)
	}
	b.log.Info("AMQP relay started", "exchange", b.exchange, "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("relay deliveries closed")
			}
			evt, err := UnmarshalEvent(d.Body)
			if err != nil {
				b.log.Warn("Dropping malformed relayed event", "routing_key", d.RoutingKey, "error", err)
				continue
			}
			if err := sink.Publish(ctx, evt); err != nil {
				b.log.Warn("Failed to relay event", "event", evt.Name, "error", err)
			}
		}
	}
}

func (b *AMQPBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
