// Package api is the storefront's client for the Agroreach backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/order"
)

const breakerTripAfter = 5

// envelope is the backend's response body
type envelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    json.RawMessage    `json:"data"`
	Errors  []order.FieldError `json:"errors"`
}

// Client calls the backend REST API. The bearer token is swapped on login
// and logout; all other state is fixed at construction.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*resty.Response]
	logger  logrus.FieldLogger

	mu    sync.RWMutex
	token string
}

// NewClient creates a backend client for cfg.APIBaseURL
func NewClient(cfg config.StorefrontConfig, logger logrus.FieldLogger) *Client {
	return NewClientWithResty(resty.New().SetBaseURL(cfg.APIBaseURL).SetTimeout(cfg.RequestTimeout), logger)
}

// NewClientWithResty wraps an existing resty client
func NewClientWithResty(rc *resty.Client, logger logrus.FieldLogger) *Client {
	rc.SetHeader("Accept", "application/json")

	breaker := gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        "storefront-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})

	return &Client{
		http:    rc,
		breaker: breaker,
		logger:  logger,
	}
}

// SetToken sets the bearer token sent with every request. An empty token
// logs the client out.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// call performs one request and decodes the envelope's data into out.
// Transport failures count against the breaker; HTTP error statuses do not.
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}, headers map[string]string) (int, error) {
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		req := c.http.R().SetContext(ctx).SetHeaders(headers)
		if token := c.Token(); token != "" {
			req.SetAuthToken(token)
		}
		if body != nil {
			req.SetBody(body)
		}
		return req.Execute(method, path)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = ErrUnavailable
		}
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Warn("backend request failed")
		return 0, &Error{Message: "request failed", Err: err}
	}

	return resp.StatusCode(), decode(resp, out)
}

func decode(resp *resty.Response, out interface{}) error {
	var env envelope
	hasBody := len(resp.Body()) > 0
	if hasBody {
		if err := json.Unmarshal(resp.Body(), &env); err != nil {
			if resp.IsError() {
				return &Error{StatusCode: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
			}
			return &Error{StatusCode: resp.StatusCode(), Message: "malformed response", Err: err}
		}
	}

	if resp.IsError() || (hasBody && !env.Success) {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return &Error{
			StatusCode: resp.StatusCode(),
			Message:    msg,
			Fields:     env.Errors,
		}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{StatusCode: resp.StatusCode(), Message: "malformed response", Err: fmt.Errorf("failed to decode data: %w", err)}
	}
	return nil
}
