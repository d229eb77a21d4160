package storage

import (
	"context"
	"encoding/json"
	"strconv"

	"floor-manager/floor-svc/internal/domain"
	"floor-manager/floor-svc/internal/service"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher keys every event by table so one table's events stay ordered.
type KafkaPublisher struct {
	Writer messageWriter
}

var _ service.NotificationGateway = (*KafkaPublisher)(nil)

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.Itoa(event.TableID)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
}
