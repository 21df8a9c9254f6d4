package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Checkout.TaxRate.Equal(decimal.RequireFromString("0.18")))
	assert.True(t, cfg.Checkout.ShippingFlat.IsZero())
	assert.Equal(t, 3*time.Second, cfg.Storefront.NotificationTTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Storefront.RedirectDelay)
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateStorefront())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STOREFRONT_CURRENCY", "INR")
	t.Setenv("STOREFRONT_EXCHANGE_RATE", "83.25")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("CHECKOUT_TAX_RATE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "INR", cfg.Storefront.DisplayCurrency)
	assert.Equal(t, "83.25", cfg.Storefront.ExchangeRate.String())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.External.Kafka.Brokers)
	assert.Equal(t, "0.18", cfg.Checkout.TaxRate.String())
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.JWT.Secret = "short"
	assert.Error(t, cfg.Validate())

	cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Checkout.TaxRate = decimal.NewFromInt(-1)
	assert.Error(t, cfg.Validate())
}

func TestValidateStorefront_RejectsUnknownCurrency(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Storefront.DisplayCurrency = "EUR"
	assert.Error(t, cfg.ValidateStorefront())
}
