package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/linemk/storefront/internal/lib/logger/handlers/slogdiscard"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(slogdiscard.NewDiscardLogger(), w)

	e := OrderPlaced(42, 7, decimal.RequireFromString("25.00"))
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order.placed.42", string(w.msgs[0].Key))

	var got Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, int64(42), got.OrderID)
	assert.Equal(t, int64(7), got.UserID)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("25")))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(slogdiscard.NewDiscardLogger(), w)

	err := p.Publish(context.Background(), OrderStatusChanged(1, "shipped", decimal.Zero))
	assert.ErrorContains(t, err, "broker down")
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(slogdiscard.NewDiscardLogger(), w)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestEvent_UniqueIDs(t *testing.T) {
	a := OrderPlaced(1, 1, decimal.Zero)
	b := OrderPlaced(1, 1, decimal.Zero)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Key(), b.Key())
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
