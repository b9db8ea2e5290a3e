package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/na4oman/samsung-shop/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes catalog events to a Kafka topic, keyed by event type.
type Producer struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("Kafka producer initialized", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return newProducer(w, topic, logger)
}

func newProducer(w messageWriter, topic string, logger *zap.Logger) *Producer {
	return &Producer{writer: w, topic: topic, timeout: 5 * time.Second, logger: logger}
}

// PublishEvent marshals and writes a single catalog event.
func (p *Producer) PublishEvent(ctx context.Context, event models.CatalogEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(event.Type),
		Value: data,
		Time:  event.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish catalog event",
			zap.String("topic", p.topic),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		return err
	}
	p.logger.Debug("Catalog event published", zap.String("topic", p.topic), zap.String("event_type", string(event.Type)))
	return nil
}

// Forward is an event bus subscriber. Errors are logged by PublishEvent.
func (p *Producer) Forward(event models.CatalogEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	_ = p.PublishEvent(ctx, event)
}

func (p *Producer) Close() error {
	p.logger.Info("Closing Kafka producer", zap.String("topic", p.topic))
	return p.writer.Close()
}
