package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/na4oman/samsung-shop/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSQS struct {
	messages   []types.Message
	receiveErr error
	deleted    []string
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	out := &sqs.ReceiveMessageOutput{Messages: f.messages}
	f.messages = nil
	return out, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeHandler struct {
	events []models.OrderCreatedEvent
	err    error
}

func (f *fakeHandler) HandleOrderCreated(_ context.Context, evt models.OrderCreatedEvent) error {
	f.events = append(f.events, evt)
	return f.err
}

func orderBody(t *testing.T, eventType string, wrap bool) string {
	t.Helper()
	raw, err := json.Marshal(models.OrderCreatedEvent{
		EventType: eventType,
		Order:     models.Order{ID: "ord-1", Total: 10},
		User:      models.User{Email: "c@example.com"},
	})
	require.NoError(t, err)
	if !wrap {
		return string(raw)
	}
	env, err := json.Marshal(snsEnvelope{Type: "Notification", Message: string(raw)})
	require.NoError(t, err)
	return string(env)
}

func message(body, handle string) types.Message {
	return types.Message{Body: aws.String(body), ReceiptHandle: aws.String(handle)}
}

func TestPoll_DeletesHandledMessages(t *testing.T) {
	client := &fakeSQS{messages: []types.Message{
		message(orderBody(t, EventOrderCreated, true), "r-1"),
		message(orderBody(t, EventOrderCreated, false), "r-2"),
	}}
	handler := &fakeHandler{}
	c := NewSQSConsumer(client, "http://localhost:4566/000000000000/orders", handler, zap.NewNop())

	c.poll(context.Background())

	require.Len(t, handler.events, 2)
	assert.Equal(t, "ord-1", handler.events[0].Order.ID)
	assert.Equal(t, []string{"r-1", "r-2"}, client.deleted)
}

func TestPoll_KeepsMessageWhenHandlerFails(t *testing.T) {
	client := &fakeSQS{messages: []types.Message{message(orderBody(t, EventOrderCreated, true), "r-1")}}
	handler := &fakeHandler{err: errors.New("smtp down")}
	c := NewSQSConsumer(client, "q", handler, zap.NewNop())

	c.poll(context.Background())

	assert.Len(t, handler.events, 1)
	assert.Empty(t, client.deleted)
}

func TestPoll_DropsUnparseableAndUnsupported(t *testing.T) {
	client := &fakeSQS{messages: []types.Message{
		message("{not json", "r-1"),
		message(orderBody(t, "order_shipped", true), "r-2"),
		{Body: aws.String(""), ReceiptHandle: aws.String("r-3")},
	}}
	handler := &fakeHandler{}
	c := NewSQSConsumer(client, "q", handler, zap.NewNop())

	c.poll(context.Background())

	assert.Empty(t, handler.events)
	assert.Equal(t, []string{"r-1", "r-2"}, client.deleted)
}

func TestStart_StopsOnCancel(t *testing.T) {
	client := &fakeSQS{receiveErr: errors.New("unreachable")}
	c := NewSQSConsumer(client, "q", &fakeHandler{}, zap.NewNop())
	c.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}
