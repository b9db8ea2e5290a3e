package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/na4oman/samsung-shop/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_PublishEvent(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "catalog-events", zap.NewNop())
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := p.PublishEvent(context.Background(), models.CatalogEvent{Type: models.EventImport, Timestamp: ts, Count: 2})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("import"), w.msgs[0].Key)
	assert.Equal(t, ts, w.msgs[0].Time)

	var decoded models.CatalogEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, 2, decoded.Count)
}

func TestProducer_ForwardSwallowsErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := newProducer(w, "catalog-events", zap.NewNop())

	assert.NotPanics(t, func() { p.Forward(models.CatalogEvent{Type: models.EventDelete}) })
	assert.Error(t, p.PublishEvent(context.Background(), models.CatalogEvent{Type: models.EventDelete}))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
