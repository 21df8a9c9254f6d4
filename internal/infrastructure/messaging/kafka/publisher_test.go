package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroreach/storefront/internal/domain/order"
)

type mockWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func testOrder() *order.Order {
	return &order.Order{
		ID:            12,
		OrderNumber:   "ORD-20240305-00012",
		UserID:        3,
		PaymentMethod: order.PaymentCashOnDelivery,
		Subtotal:      decimal.RequireFromString("20"),
		Shipping:      decimal.Zero,
		Tax:           decimal.RequireFromString("3.6"),
		Total:         decimal.RequireFromString("23.6"),
		Currency:      "USD",
		CreatedAt:     time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		Items: []order.OrderItem{
			{ProductID: 7, Quantity: 2, UnitPrice: decimal.RequireFromString("10")},
		},
	}
}

func TestOrderPublisher_PublishOrderPlaced(t *testing.T) {
	w := &mockWriter{}
	p := NewOrderPublisherWithWriter(w)

	require.NoError(t, p.PublishOrderPlaced(context.Background(), testOrder()))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "ORD-20240305-00012", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, EventOrderPlaced, string(msg.Headers[0].Value))

	var event OrderPlacedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, uint(3), event.UserID)
	assert.Equal(t, "CashOnDelivery", event.PaymentMethod)
	assert.True(t, event.Total.Equal(decimal.RequireFromString("23.6")))
	require.Len(t, event.Items, 1)
	assert.Equal(t, 2, event.Items[0].Quantity)
}

func TestOrderPublisher_WriteError(t *testing.T) {
	w := &mockWriter{err: errors.New("leader not available")}
	p := NewOrderPublisherWithWriter(w)

	err := p.PublishOrderPlaced(context.Background(), testOrder())
	assert.ErrorContains(t, err, "leader not available")
}

func TestOrderPublisher_Close(t *testing.T) {
	w := &mockWriter{}
	require.NoError(t, NewOrderPublisherWithWriter(w).Close())
	assert.True(t, w.closed)
}
