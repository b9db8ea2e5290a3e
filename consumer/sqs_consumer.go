package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/na4oman/samsung-shop/models"
	"go.uber.org/zap"
)

const EventOrderCreated = "order_created"

// SQSAPI is the part of the SQS client the consumer uses.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// OrderHandler is satisfied by services.OrderNotifier.
type OrderHandler interface {
	HandleOrderCreated(ctx context.Context, evt models.OrderCreatedEvent) error
}

type SQSConsumer struct {
	client   SQSAPI
	queueURL string
	handler  OrderHandler
	logger   *zap.Logger
	backoff  time.Duration
	waitTime int32
}

func NewSQSConsumer(client SQSAPI, queueURL string, handler OrderHandler, logger *zap.Logger) *SQSConsumer {
	return &SQSConsumer{
		client:   client,
		queueURL: queueURL,
		handler:  handler,
		logger:   logger,
		backoff:  5 * time.Second,
		waitTime: 20,
	}
}

// Start polls until ctx is done.
func (c *SQSConsumer) Start(ctx context.Context) {
	c.logger.Info("SQS consumer started", zap.String("queue", c.queueURL))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("SQS consumer shutting down")
			return
		default:
			c.poll(ctx)
		}
	}
}

func (c *SQSConsumer) poll(ctx context.Context) {
	output, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     c.waitTime,
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Error("SQS receive error", zap.Error(err))
		select {
		case <-ctx.Done():
		case <-time.After(c.backoff):
		}
		return
	}

	for _, msg := range output.Messages {
		c.processMessage(ctx, msg.Body, msg.ReceiptHandle)
	}
}

// snsEnvelope unwraps the SNS → SQS message wrapper
type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// decodeEvent accepts an SNS envelope or a raw event body.
func decodeEvent(body string) (models.OrderCreatedEvent, error) {
	var evt models.OrderCreatedEvent
	var envelope snsEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err == nil && envelope.Message != "" {
		body = envelope.Message
	}
	err := json.Unmarshal([]byte(body), &evt)
	return evt, err
}

func (c *SQSConsumer) processMessage(ctx context.Context, body *string, receiptHandle *string) {
	if body == nil || *body == "" {
		c.logger.Error("received empty SQS message body")
		return
	}
	if receiptHandle == nil || *receiptHandle == "" {
		c.logger.Error("received empty SQS receipt handle")
		return
	}

	evt, err := decodeEvent(*body)
	if err != nil {
		c.logger.Error("failed to unmarshal event payload", zap.Error(err))
		c.deleteMessage(ctx, receiptHandle)
		return
	}
	if evt.EventType != EventOrderCreated {
		c.logger.Warn("ignoring unsupported event", zap.String("event_type", evt.EventType))
		c.deleteMessage(ctx, receiptHandle)
		return
	}

	// Leave the message on failure; SQS redelivers after the visibility timeout.
	if err := c.handler.HandleOrderCreated(ctx, evt); err != nil {
		c.logger.Error("failed to process event",
			zap.String("event_type", evt.EventType),
			zap.String("order_id", evt.Order.ID),
			zap.Error(err),
		)
		return
	}

	c.deleteMessage(ctx, receiptHandle)
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		c.logger.Error("failed to delete SQS message", zap.Error(err))
	}
}
