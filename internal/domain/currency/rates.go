// internal/domain/currency/rates.go
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrRateUnavailable is returned when no rate is known for a currency
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// RateSource yields the number of target units per unit of Base
type RateSource interface {
	Rate(ctx context.Context, target Code) (decimal.Decimal, error)
}

// FixedRate is a RateSource that always returns the same rate
type FixedRate decimal.Decimal

// Rate implements RateSource
func (f FixedRate) Rate(_ context.Context, target Code) (decimal.Decimal, error) {
	if target == Base {
		return decimal.NewFromInt(1), nil
	}
	d := decimal.Decimal(f)
	if !d.IsPositive() {
		return decimal.Zero, ErrRateUnavailable
	}
	return d, nil
}

type ratesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// RemoteRates fetches rates from an HTTP endpoint returning
// {"base":"USD","rates":{"INR":83.2}} and caches them for ttl.
type RemoteRates struct {
	client *resty.Client
	url    string
	ttl    time.Duration
	logger logrus.FieldLogger

	mu        sync.Mutex
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

// NewRemoteRates creates a cached remote rate source
func NewRemoteRates(url string, ttl time.Duration, timeout time.Duration, logger logrus.FieldLogger) *RemoteRates {
	return &RemoteRates{
		client: resty.New().SetTimeout(timeout),
		url:    url,
		ttl:    ttl,
		logger: logger,
	}
}

// Rate implements RateSource
func (r *RemoteRates) Rate(ctx context.Context, target Code) (decimal.Decimal, error) {
	if target == Base {
		return decimal.NewFromInt(1), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rates == nil || time.Since(r.fetchedAt) > r.ttl {
		rates, err := r.fetch(ctx)
		if err != nil {
			if r.rates == nil {
				return decimal.Zero, err
			}
			// keep serving the stale table
			r.logger.WithError(err).Warn("exchange rate refresh failed")
		} else {
			r.rates = rates
			r.fetchedAt = time.Now()
		}
	}

	rate, ok := r.rates[string(target)]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, ErrRateUnavailable
	}
	return rate, nil
}

func (r *RemoteRates) fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(r.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exchange rates: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("exchange rate request failed with status %d", resp.StatusCode())
	}

	var body ratesResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to parse exchange rates: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, ErrRateUnavailable
	}

	return body.Rates, nil
}

// Resolve builds a Converter for target from src. When the rate cannot be
// obtained the returned converter shows base prices and the error is returned
// for logging.
func Resolve(ctx context.Context, src RateSource, target Code) (Converter, error) {
	if src == nil {
		return NewConverter(target, decimal.Zero), ErrRateUnavailable
	}
	rate, err := src.Rate(ctx, target)
	if err != nil {
		return NewConverter(target, decimal.Zero), err
	}
	return NewConverter(target, rate), nil
}
