// internal/infrastructure/messaging/kafka/publisher.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/order"
)

const EventOrderPlaced = "order.placed"

// MessageWriter is the part of kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderPlacedEvent is the payload written for every new order
type OrderPlacedEvent struct {
	OrderID       uint            `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        uint            `json:"user_id"`
	Items         []EventItem     `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Shipping      decimal.Decimal `json:"shipping"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	PlacedAt      time.Time       `json:"placed_at"`
}

// EventItem is one order line in an event
type EventItem struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderPublisher writes order events to a kafka topic
type OrderPublisher struct {
	writer MessageWriter
}

// NewOrderPublisher creates a publisher for the configured brokers and topic
func NewOrderPublisher(cfg config.KafkaConfig) *OrderPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.OrderTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
	}
	return NewOrderPublisherWithWriter(w)
}

// NewOrderPublisherWithWriter wraps an existing writer
func NewOrderPublisherWithWriter(w MessageWriter) *OrderPublisher {
	return &OrderPublisher{writer: w}
}

// PublishOrderPlaced writes the order.placed event keyed by order number
func (p *OrderPublisher) PublishOrderPlaced(ctx context.Context, o *order.Order) error {
	payload, err := json.Marshal(newOrderPlacedEvent(o))
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(o.OrderNumber),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderPlaced)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *OrderPublisher) Close() error {
	return p.writer.Close()
}

func newOrderPlacedEvent(o *order.Order) OrderPlacedEvent {
	items := make([]EventItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, EventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return OrderPlacedEvent{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Items:         items,
		Subtotal:      o.Subtotal,
		Shipping:      o.Shipping,
		Tax:           o.Tax,
		Total:         o.Total,
		Currency:      o.Currency,
		PaymentMethod: string(o.PaymentMethod),
		PlacedAt:      o.CreatedAt,
	}
}
