package producer

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

var ErrProducerClosed = errors.New("order event producer is closed")

const (
	EventOrderCreated = "OrderCreated"
	EventOrderPaid    = "OrderPaid"
	EventOrderShipped = "OrderShipped"
)

// OrderEvent 訂單事件, key用order id確保同一訂單進同一partition保序
type OrderEvent struct {
	EventType  string          `json:"event_type"`
	OrderID    string          `json:"order_id"`
	UserID     *uint           `json:"user_id,omitempty"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Currency   string          `json:"currency"`
	Status     string          `json:"status"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type IOrderEventProducer interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

/*
OrderEventProducer 同步寫入kafka, 呼叫端自行決定要不要丟到goroutine
下單主流程把發佈包在goroutine裡, 失敗只記log不影響已提交的訂單
*/
type OrderEventProducer struct {
	writer *kafka.Writer
	closed atomic.Bool
}

func NewOrderEventProducer(brokers []string, topic string) *OrderEventProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		MaxAttempts:  3,
		Compression:  kafka.Snappy,
	}
	return &OrderEventProducer{writer: writer}
}

var _ IOrderEventProducer = (*OrderEventProducer)(nil)

func (p *OrderEventProducer) Publish(ctx context.Context, event OrderEvent) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
}

func (p *OrderEventProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
