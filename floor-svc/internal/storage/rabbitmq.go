package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"floor-manager/floor-svc/internal/domain"
	"floor-manager/floor-svc/internal/service"

	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	GetNextPublishSeqNo() uint64
}

// RabbitPublisher fans events out on a durable exchange and waits for the
// broker's confirm before reporting success. Confirms are matched by delivery
// tag, so a confirm that arrives after its publisher gave up is discarded.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       amqpPublisher
	acks     <-chan amqp.Confirmation
	exchange string
	mu       sync.Mutex
}

var _ service.NotificationGateway = (*RabbitPublisher)(nil)

func DialRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, err
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 16))
	return &RabbitPublisher{conn: conn, ch: ch, acks: acks, exchange: exchange}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tag := p.ch.GetNextPublishSeqNo()
	err = p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	})
	if err != nil {
		return err
	}

	for {
		select {
		case conf, ok := <-p.acks:
			if !ok {
				return errors.New("rabbitmq confirm channel closed")
			}
			if conf.DeliveryTag < tag {
				continue
			}
			if !conf.Ack {
				return errors.New("rabbitmq nacked event " + event.Type)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *RabbitPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
