// Package checkout drives order placement from the storefront cart.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/currency"
	"github.com/agroreach/storefront/internal/domain/order"
	"github.com/agroreach/storefront/internal/domain/user"
	"github.com/agroreach/storefront/internal/storefront/api"
	"github.com/agroreach/storefront/internal/storefront/cartstore"
)

// RouteOrderHistory is where the customer lands after a successful order
const RouteOrderHistory = "/orders"

var (
	ErrEmptyCart            = errors.New("you must add items to your cart before placing an order")
	ErrSubmissionInProgress = errors.New("an order is already being submitted")
	ErrOrderRejected        = errors.New("order rejected")
	ErrUnreachable          = errors.New("order could not be sent")
)

// ValidationError lists the labels of every missing required field
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "please fill in the required fields: " + strings.Join(e.Fields, ", ")
}

// Cart is the part of the cart store checkout needs
type Cart interface {
	Items() []cartstore.Item
	IsEmpty() bool
	Clear(ctx context.Context) error
	Reset()
}

// Billing supplies the shipping address
type Billing interface {
	Address() user.Address
}

// Submitter sends an order to the backend
type Submitter interface {
	PlaceOrder(ctx context.Context, req *order.CreateOrderRequest) api.OrderResult
}

// Navigator changes the visible page
type Navigator interface {
	Navigate(route string)
}

// Notifier shows messages to the customer
type Notifier interface {
	Notify(message string) uint64
	Alert(message string) uint64
}

// Quote is the priced cart in the display currency
type Quote struct {
	Items    []order.ItemRequest
	Totals   order.Totals
	Currency currency.Code
}

// Workflow places orders. It allows one submission at a time.
type Workflow struct {
	cart      Cart
	billing   Billing
	submitter Submitter
	navigator Navigator
	notifier  Notifier
	session   cartstore.Session
	pricing   order.Pricing
	delay     time.Duration
	logger    logrus.FieldLogger
	afterFunc func(time.Duration, func()) *time.Timer

	mu          sync.Mutex
	state       State
	converter   currency.Converter
	pendingKey  string
	fingerprint string
	redirect    *time.Timer
}

// New creates a workflow in the Idle state
func New(cart Cart, billing Billing, submitter Submitter, navigator Navigator, notifier Notifier,
	session cartstore.Session, converter currency.Converter, cfg config.CheckoutConfig, redirectDelay time.Duration, logger logrus.FieldLogger) *Workflow {
	return &Workflow{
		cart:      cart,
		billing:   billing,
		submitter: submitter,
		navigator: navigator,
		notifier:  notifier,
		session:   session,
		pricing:   order.Pricing{TaxRate: cfg.TaxRate, Shipping: cfg.ShippingFlat},
		delay:     redirectDelay,
		logger:    logger,
		afterFunc: time.AfterFunc,
		state:     Idle,
		converter: converter,
	}
}

// State returns the current workflow state
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SetConverter changes the display currency for later quotes and orders
func (w *Workflow) SetConverter(c currency.Converter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.converter = c
}

// Quote prices the current cart in the display currency
func (w *Workflow) Quote() Quote {
	w.mu.Lock()
	conv := w.converter
	w.mu.Unlock()
	return w.quote(conv, w.cart.Items())
}

func (w *Workflow) quote(conv currency.Converter, items []cartstore.Item) Quote {
	code := currency.Base
	if conv.Usable() {
		code = conv.Code()
	}

	reqItems := make([]order.ItemRequest, 0, len(items))
	lines := make([]order.PricedLine, 0, len(items))
	for _, it := range items {
		price := it.UnitPrice
		if code != currency.Base {
			price = conv.Convert(price).Round(2)
		}
		reqItems = append(reqItems, order.ItemRequest{
			Product:  it.ProductID,
			Name:     it.Name,
			Price:    price,
			Quantity: it.Quantity,
			Image:    it.Image,
		})
		lines = append(lines, order.PricedLine{UnitPrice: price, Quantity: it.Quantity})
	}

	return Quote{
		Items:    reqItems,
		Totals:   w.pricing.Compute(lines),
		Currency: code,
	}
}

// PlaceOrder validates the cart and address and submits the order. On
// success the cart is cleared and the order history page opens after the
// redirect delay.
func (w *Workflow) PlaceOrder(ctx context.Context, method order.PaymentMethod) (*order.Order, error) {
	w.mu.Lock()
	if w.state == Validating || w.state == Submitting {
		w.mu.Unlock()
		return nil, ErrSubmissionInProgress
	}

	if !w.session.IsAuthenticated() {
		w.state = Idle
		w.mu.Unlock()
		return nil, cartstore.ErrNotLoggedIn
	}

	if w.cart.IsEmpty() {
		w.state = Idle
		w.mu.Unlock()
		w.notifier.Alert("You must add items to your cart before placing an order.")
		return nil, ErrEmptyCart
	}

	w.state = Validating
	address := w.billing.Address().Normalize()
	missing := address.MissingFields()
	if !method.Valid() {
		missing = append(missing, "Payment Method")
	}
	if len(missing) > 0 {
		w.state = Failed
		w.mu.Unlock()
		verr := &ValidationError{Fields: missing}
		w.notifier.Alert("Please fill in the following required fields: " + strings.Join(missing, ", "))
		return nil, verr
	}

	req := w.buildRequest(address, method)
	w.state = Submitting
	w.mu.Unlock()

	res := w.submitter.PlaceOrder(ctx, req)

	switch r := res.(type) {
	case api.Placed:
		return w.succeed(ctx, r)
	case api.Rejected:
		w.finishFailed()
		w.notifier.Alert(r.Alert())
		return nil, fmt.Errorf("%w: %s", ErrOrderRejected, r.Message)
	case api.Unreachable:
		w.finishFailed()
		w.notifier.Alert(r.Message)
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, r.Err)
	default:
		w.finishFailed()
		return nil, fmt.Errorf("%w: unexpected result %T", ErrUnreachable, res)
	}
}

// buildRequest must be called with mu held. The idempotency key is reused
// while the same snapshot keeps failing.
func (w *Workflow) buildRequest(address user.Address, method order.PaymentMethod) *order.CreateOrderRequest {
	q := w.quote(w.converter, w.cart.Items())
	req := &order.CreateOrderRequest{
		ShippingAddress: address,
		PaymentMethod:   method,
		Items:           q.Items,
		Subtotal:        q.Totals.Subtotal,
		Shipping:        q.Totals.Shipping,
		Tax:             q.Totals.Tax,
		Total:           q.Totals.Total,
		Currency:        string(q.Currency),
	}

	fp := fingerprint(req)
	if w.pendingKey == "" || fp != w.fingerprint {
		w.pendingKey = uuid.NewString()
		w.fingerprint = fp
	}
	req.IdempotencyKey = w.pendingKey
	return req
}

func (w *Workflow) succeed(ctx context.Context, placed api.Placed) (*order.Order, error) {
	// placed items never stay in the local cart, even when the remote clear fails
	if err := w.cart.Clear(ctx); err != nil {
		w.logger.WithError(err).Warn("cart clear after order failed, dropping local cart")
		w.cart.Reset()
	}

	w.mu.Lock()
	w.state = Succeeded
	w.pendingKey = ""
	w.fingerprint = ""
	if w.redirect != nil {
		w.redirect.Stop()
	}
	w.redirect = w.afterFunc(w.delay, func() { w.navigator.Navigate(RouteOrderHistory) })
	w.mu.Unlock()

	number := ""
	if placed.Order != nil {
		number = placed.Order.OrderNumber
	}
	w.logger.WithFields(logrus.Fields{
		"order_number": number,
		"replayed":     placed.Replayed,
	}).Info("order placed")
	w.notifier.Notify("Order placed successfully! Order number: " + number)
	return placed.Order, nil
}

func (w *Workflow) finishFailed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Idle
}

// Close cancels a pending redirect
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.redirect != nil {
		w.redirect.Stop()
		w.redirect = nil
	}
}

func fingerprint(req *order.CreateOrderRequest) string {
	b, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	return string(b)
}
