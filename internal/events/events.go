package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

// Event - сообщение о заказе, уходящее в топик после коммита
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OrderID    int64           `json:"order_id"`
	UserID     int64           `json:"user_id,omitempty"`
	Status     string          `json:"status,omitempty"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// OrderPlaced собирает событие о созданном заказе
func OrderPlaced(orderID, userID int64, total decimal.Decimal) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       TypeOrderPlaced,
		OrderID:    orderID,
		UserID:     userID,
		Total:      total,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderStatusChanged собирает событие о смене статуса заказа
func OrderStatusChanged(orderID int64, status string, total decimal.Decimal) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       TypeOrderStatusChanged,
		OrderID:    orderID,
		Status:     status,
		Total:      total,
		OccurredAt: time.Now().UTC(),
	}
}

// Key - ключ партиционирования: все события одного заказа попадают в одну партицию
func (e Event) Key() string {
	return e.Type + "." + strconv.FormatInt(e.OrderID, 10)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	log    *slog.Logger
	writer messageWriter
}

// NewKafkaPublisher создаёт паблишер поверх kafka.Writer
func NewKafkaPublisher(log *slog.Logger, brokers []string, topic string) *KafkaPublisher {
	return newKafkaPublisher(log, &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	})
}

func newKafkaPublisher(log *slog.Logger, w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{log: log, writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	const op = "events.Publish"

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := kafka.Message{
		Key:   []byte(e.Key()),
		Value: data,
		Time:  e.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.log.Debug("event published", slog.String("op", op), slog.String("key", e.Key()), slog.String("event_id", e.ID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop используется, когда брокеры не настроены
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }
