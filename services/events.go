package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/na4oman/samsung-shop/models"
	"go.uber.org/zap"
)

// DefaultRecentEventAge is the window HasRecentEvent uses when none is given.
const DefaultRecentEventAge = 5 * time.Second

type subscription struct {
	id int
	fn func(models.CatalogEvent)
}

// EventBus fans catalog change events out to in-process subscribers.
// Subscribers run synchronously in subscription order; a panicking subscriber
// is logged and does not affect the others.
type EventBus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID int
	last   *models.CatalogEvent
	logger *zap.Logger
	now    func() time.Time
}

func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{logger: logger, now: time.Now}
}

// Subscribe registers fn and returns a func that removes it again.
func (b *EventBus) Subscribe(fn func(models.CatalogEvent)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish records event as the last event and delivers it to every subscriber.
// A zero Timestamp is set to the current time.
func (b *EventBus) Publish(event models.CatalogEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = b.now()
	}

	b.mu.Lock()
	last := event
	b.last = &last
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(s, event)
	}
}

func (b *EventBus) deliver(s subscription, event models.CatalogEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Catalog event subscriber panicked",
				zap.String("event_type", string(event.Type)),
				zap.Any("panic", r),
			)
		}
	}()
	s.fn(event)
}

// LastEvent returns the most recently published event.
func (b *EventBus) LastEvent() (models.CatalogEvent, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.last == nil {
		return models.CatalogEvent{}, false
	}
	return *b.last, true
}

// HasRecentEvent reports whether an event was published within maxAge.
// A non-positive maxAge means DefaultRecentEventAge.
func (b *EventBus) HasRecentEvent(maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = DefaultRecentEventAge
	}
	last, ok := b.LastEvent()
	if !ok {
		return false
	}
	return b.now().Sub(last.Timestamp) < maxAge
}

// TopicPublisher is satisfied by the SNS client.
type TopicPublisher interface {
	Publish(ctx context.Context, topicArn string, message []byte) error
}

// SNSForwarder returns a subscriber that republishes catalog events to an SNS topic.
func SNSForwarder(publisher TopicPublisher, topicArn string, logger *zap.Logger) func(models.CatalogEvent) {
	return func(event models.CatalogEvent) {
		body, err := json.Marshal(event)
		if err != nil {
			logger.Error("Failed to marshal catalog event", zap.Error(err))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := publisher.Publish(ctx, topicArn, body); err != nil {
			logger.Warn("Failed to forward catalog event to SNS",
				zap.String("event_type", string(event.Type)),
				zap.Error(err),
			)
		}
	}
}
