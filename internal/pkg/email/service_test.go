package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/order"
	"github.com/agroreach/storefront/internal/domain/user"
	"github.com/agroreach/storefront/internal/logger"
)

type mockSender struct {
	sent []*Email
	err  error
}

func (m *mockSender) Send(email *Email) error {
	m.sent = append(m.sent, email)
	return m.err
}

func testConfig(host string) *config.Config {
	return &config.Config{
		External: config.ExternalConfig{
			Email: config.EmailConfig{
				FromEmail: "orders@agroreach.test",
				FromName:  "Agroreach",
				SMTPHost:  host,
				SMTPPort:  2525,
			},
		},
	}
}

func testOrder() *order.Order {
	return &order.Order{
		OrderNumber:   "ORD-20240305-00012",
		PaymentMethod: order.PaymentCashOnDelivery,
		ShippingAddress: user.Address{
			FirstName:     "Asha",
			StreetAddress: "12 Market Road",
			Country:       "India",
			State:         "Kerala",
			ZipCode:       "682001",
			Email:         "asha@example.com",
			Phone:         "9847000000",
		},
		Items: []order.OrderItem{
			{Name: "Hybrid Tomato Seeds", Quantity: 2, UnitPrice: decimal.RequireFromString("373.5"), LineTotal: decimal.RequireFromString("747")},
		},
		Subtotal:  decimal.RequireFromString("747"),
		Shipping:  decimal.Zero,
		Tax:       decimal.RequireFromString("134.46"),
		Total:     decimal.RequireFromString("881.46"),
		Currency:  "INR",
		CreatedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}
}

func newTestService(host string) (*EmailService, *mockSender) {
	sender := &mockSender{}
	return NewEmailService(testConfig(host), sender, logrus.NewEntry(logger.Discard())), sender
}

func TestEmailService_SendOrderConfirmation(t *testing.T) {
	svc, sender := newTestService("smtp.agroreach.test")

	require.NoError(t, svc.SendOrderConfirmation(context.Background(), testOrder()))
	require.Len(t, sender.sent, 1)

	mail := sender.sent[0]
	assert.Equal(t, []string{"asha@example.com"}, mail.To)
	assert.Equal(t, "Order Confirmation - ORD-20240305-00012", mail.Subject)
	assert.Contains(t, mail.HTMLContent, "Hybrid Tomato Seeds")
	assert.Contains(t, mail.HTMLContent, "₹881.46")
	assert.Contains(t, mail.HTMLContent, "March 5, 2024")
	assert.Contains(t, mail.HTMLContent, "Kerala 682001")
}

func TestEmailService_SkipsWithoutRelay(t *testing.T) {
	svc, sender := newTestService("")

	require.NoError(t, svc.SendOrderConfirmation(context.Background(), testOrder()))
	assert.Empty(t, sender.sent)
}

func TestEmailService_SenderError(t *testing.T) {
	svc, sender := newTestService("smtp.agroreach.test")
	sender.err = errors.New("relay refused")

	err := svc.SendOrderConfirmation(context.Background(), testOrder())
	assert.EqualError(t, err, "relay refused")
}

func TestSMTPSender_Send(t *testing.T) {
	cfg := testConfig("smtp.agroreach.test").External.Email
	s := NewSMTPSender(cfg)

	var gotAddr, gotFrom string
	var gotMsg []byte
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotMsg = addr, from, msg
		assert.Nil(t, a)
		return nil
	}

	require.NoError(t, s.Send(&Email{To: []string{"asha@example.com"}, Subject: "Hi", HTMLContent: "<p>hi</p>"}))
	assert.Equal(t, "smtp.agroreach.test:2525", gotAddr)
	assert.Equal(t, "orders@agroreach.test", gotFrom)
	assert.Contains(t, string(gotMsg), "From: Agroreach <orders@agroreach.test>\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\n<p>hi</p>")
}

func TestSMTPSender_MissingHost(t *testing.T) {
	s := NewSMTPSender(config.EmailConfig{})
	assert.Error(t, s.Send(&Email{To: []string{"a@b.c"}}))
}
