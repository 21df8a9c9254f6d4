package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/currency"
	"github.com/agroreach/storefront/internal/domain/order"
	"github.com/agroreach/storefront/internal/domain/user"
	"github.com/agroreach/storefront/internal/logger"
	"github.com/agroreach/storefront/internal/storefront/api"
	"github.com/agroreach/storefront/internal/storefront/cartstore"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeCart struct {
	mu       sync.Mutex
	items    []cartstore.Item
	cleared  int
	resets   int
	clearErr error
}

func (c *fakeCart) Items() []cartstore.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]cartstore.Item(nil), c.items...)
}

func (c *fakeCart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

func (c *fakeCart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clearErr != nil {
		return c.clearErr
	}
	c.items = nil
	c.cleared++
	return nil
}

func (c *fakeCart) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.resets++
}

type fakeSession struct {
	mu       sync.Mutex
	loggedIn bool
}

func (s *fakeSession) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

type fakeBilling struct {
	addr user.Address
}

func (b fakeBilling) Address() user.Address { return b.addr }

type fakeSubmitter struct {
	mu       sync.Mutex
	requests []order.CreateOrderRequest
	results  []api.OrderResult
	block    chan struct{}
	entered  chan struct{}
}

func (s *fakeSubmitter) PlaceOrder(ctx context.Context, req *order.CreateOrderRequest) api.OrderResult {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, *req)
	if len(s.results) == 0 {
		return api.Placed{Order: &order.Order{ID: 1, OrderNumber: "ORD-20240305-00001"}}
	}
	res := s.results[0]
	s.results = s.results[1:]
	return res
}

type fakeNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *fakeNavigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []string
	alerts  []string
}

func (n *fakeNotifier) Notify(message string) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, message)
	return 0
}

func (n *fakeNotifier) Alert(message string) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, message)
	return 0
}

func completeAddress() user.Address {
	return user.Address{
		FirstName:     "Asha",
		LastName:      "Menon",
		StreetAddress: "12 MG Road",
		Country:       "India",
		State:         "Kerala",
		ZipCode:       "682001",
		Email:         "asha@example.com",
		Phone:         "+91 98470 00000",
	}
}

type fixture struct {
	cart      *fakeCart
	session   *fakeSession
	submitter *fakeSubmitter
	navigator *fakeNavigator
	notifier  *fakeNotifier
	workflow  *Workflow
	delays    []time.Duration
}

func newFixture(addr user.Address, conv currency.Converter, items ...cartstore.Item) *fixture {
	f := &fixture{
		cart:      &fakeCart{items: items},
		session:   &fakeSession{loggedIn: true},
		submitter: &fakeSubmitter{},
		navigator: &fakeNavigator{},
		notifier:  &fakeNotifier{},
	}
	cfg := config.CheckoutConfig{BaseCurrency: "USD", TaxRate: dec("0.18"), ShippingFlat: decimal.Zero}
	f.workflow = New(f.cart, fakeBilling{addr: addr}, f.submitter, f.navigator, f.notifier, f.session, conv, cfg, 1500*time.Millisecond, logger.Discard())
	f.workflow.afterFunc = func(d time.Duration, fn func()) *time.Timer {
		f.delays = append(f.delays, d)
		fn()
		return time.NewTimer(time.Hour)
	}
	return f
}

func rice(qty int) cartstore.Item {
	return cartstore.Item{ProductID: 7, Name: "Organic Rice", UnitPrice: dec("10"), Quantity: qty, Image: "https://cdn/rice.jpg"}
}

func TestWorkflow_PlaceOrder(t *testing.T) {
	f := newFixture(completeAddress(), currency.Converter{}, rice(2))
	defer f.workflow.Close()

	placed, err := f.workflow.PlaceOrder(context.Background(), order.PaymentPayPal)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240305-00001", placed.OrderNumber)

	require.Len(t, f.submitter.requests, 1)
	req := f.submitter.requests[0]
	assert.True(t, req.Subtotal.Equal(dec("20")))
	assert.True(t, req.Shipping.IsZero())
	assert.True(t, req.Tax.Equal(dec("3.6")))
	assert.True(t, req.Total.Equal(dec("23.6")))
	assert.Equal(t, "USD", req.Currency)
	assert.Equal(t, order.PaymentPayPal, req.PaymentMethod)
	assert.NotEmpty(t, req.IdempotencyKey)
	require.Len(t, req.Items, 1)
	assert.Equal(t, uint(7), req.Items[0].Product)
	assert.Equal(t, "682001", req.ShippingAddress.ZipCode)

	assert.Equal(t, 1, f.cart.cleared)
	assert.True(t, f.cart.IsEmpty())
	assert.Equal(t, Succeeded, f.workflow.State())
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, f.delays)
	assert.Equal(t, []string{RouteOrderHistory}, f.navigator.routes)
	assert.Contains(t, f.notifier.notices[0], "ORD-20240305-00001")
}

func TestWorkflow_EmptyCart(t *testing.T) {
	f := newFixture(completeAddress(), currency.Converter{})

	_, err := f.workflow.PlaceOrder(context.Background(), order.PaymentCashOnDelivery)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.submitter.requests)
	assert.Equal(t, Idle, f.workflow.State())
	assert.Len(t, f.notifier.alerts, 1)
}

func TestWorkflow_RequiresLogin(t *testing.T) {
	f := newFixture(completeAddress(), currency.Converter{}, rice(1))
	f.session.loggedIn = false

	_, err := f.workflow.PlaceOrder(context.Background(), order.PaymentPayPal)
	assert.ErrorIs(t, err, cartstore.ErrNotLoggedIn)
	assert.Empty(t, f.submitter.requests)
	assert.Equal(t, Idle, f.workflow.State())
	assert.Empty(t, f.notifier.alerts)
}

func TestWorkflow_ClearFailureStillEmptiesLocalCart(t *testing.T) {
	f := newFixture(completeAddress(), currency.Converter{}, rice(2))
	f.cart.clearErr = errors.New("cart service unavailable")

	_, err := f.workflow.PlaceOrder(context.Background(), order.PaymentPayPal)
	require.NoError(t, err)
	assert.Equal(t, Succeeded, f.workflow.State())
	assert.Equal(t, 1, f.cart.resets)
	assert.True(t, f.cart.IsEmpty())
	assert.Empty(t, f.workflow.Quote().Items)
	assert.True(t, f.workflow.Quote().Totals.Total.IsZero())

	_, err = f.workflow.PlaceOrder(context.Background(), order.PaymentPayPal)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Len(t, f.submitter.requests, 1)
}

func TestWorkflow_MissingFields(t *testing.T) {
	addr := completeAddress()
	addr.Email = ""
	addr.ZipCode = "   "
	f := newFixture(addr, currency.Converter{}, rice(1))

	_, err := f.workflow.PlaceOrder(context.Background(), order.PaymentAmazonPay)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Zip Code", "Email Address"}, verr.Fields)
	assert.Equal(t, Failed, f.workflow.State())
	assert.Empty(t, f.submitter.requests)
	assert.Zero(t, f.cart.cleared)
}

func TestWorkflow_InvalidPaymentMethod(t *testing.T) {
	f := newFixture(completeAddress(), currency.Converter{}, rice(1))

	_, err := f.workflow.PlaceOrder(context.Background(), order.PaymentMethod("Barter"))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Payment Method"}, verr.Fields)
}

func TestWorkflow_RejectedKeepsCartAndKey(t *testing.T) {
	f := newFixture(completeAddress(), currency.Converter{}, rice(2))
	f.submitter.results = []api.OrderResult{
		api.Rejected{StatusCode: 422, Message: "Order validation failed", Fields: []order.FieldError{{Field: "items[0].price", Message: "price of Organic Rice has changed to 11.00"}}},
		api.Unreachable{Message: "Could not reach the store.", Err: errors.New("dial tcp: refused")},
	}

	_, err := f.workflow.PlaceOrder(context.Background(), order.PaymentPayPal)
	assert.ErrorIs(t, err, ErrOrderRejected)
	assert.Equal(t, Idle, f.workflow.State())
	assert.False(t, f.cart.IsEmpty())
	assert.Contains(t, f.notifier.alerts[0], "price of Organic Rice has changed to 11.00")

	_, err = f.workflow.PlaceOrder(context.Background(), order.PaymentPayPal)
	assert.ErrorIs(t, err, ErrUnreachable)

	_, err = f.workflow.PlaceOrder(context.Background(), order.PaymentPayPal)
	require.NoError(t, err)

	require.Len(t, f.submitter.requests, 3)
	key := f.submitter.requests[0].IdempotencyKey
	assert.Equal(t, key, f.submitter.requests[1].IdempotencyKey)
	assert.Equal(t, key, f.submitter.requests[2].IdempotencyKey)
	assert.Empty(t, f.navigator.routes[1:])
}

func TestWorkflow_NewKeyForChangedCartAndAfterSuccess(t *testing.T) {
	f := newFixture(completeAddress(), currency.Converter{}, rice(2))
	f.submitter.results = []api.OrderResult{api.Rejected{StatusCode: 500, Message: "Failed to place order"}}

	_, err := f.workflow.PlaceOrder(context.Background(), order.PaymentPayPal)
	require.Error(t, err)

	f.cart.items = []cartstore.Item{rice(3)}
	_, err = f.workflow.PlaceOrder(context.Background(), order.PaymentPayPal)
	require.NoError(t, err)

	f.cart.items = []cartstore.Item{rice(3)}
	_, err = f.workflow.PlaceOrder(context.Background(), order.PaymentPayPal)
	require.NoError(t, err)

	require.Len(t, f.submitter.requests, 3)
	k0, k1, k2 := f.submitter.requests[0].IdempotencyKey, f.submitter.requests[1].IdempotencyKey, f.submitter.requests[2].IdempotencyKey
	assert.NotEqual(t, k0, k1)
	assert.NotEqual(t, k1, k2, "a successful order drops its key")
}

func TestWorkflow_ConcurrentSubmission(t *testing.T) {
	f := newFixture(completeAddress(), currency.Converter{}, rice(1))
	f.submitter.block = make(chan struct{})
	f.submitter.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := f.workflow.PlaceOrder(context.Background(), order.PaymentPayPal)
		done <- err
	}()

	<-f.submitter.entered
	assert.Equal(t, Submitting, f.workflow.State())
	_, err := f.workflow.PlaceOrder(context.Background(), order.PaymentPayPal)
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	close(f.submitter.block)
	require.NoError(t, <-done)
	assert.Len(t, f.submitter.requests, 1)
}

func TestWorkflow_DisplayCurrency(t *testing.T) {
	inr := currency.NewConverter(currency.INR, dec("83.2"))
	f := newFixture(completeAddress(), inr, cartstore.Item{ProductID: 2, Name: "Hybrid Tomato Seeds", UnitPrice: dec("4.50"), Quantity: 2})

	_, err := f.workflow.PlaceOrder(context.Background(), order.PaymentCashOnDelivery)
	require.NoError(t, err)

	req := f.submitter.requests[0]
	assert.Equal(t, "INR", req.Currency)
	assert.True(t, req.Items[0].Price.Equal(dec("374.40")))
	assert.True(t, req.Subtotal.Equal(dec("748.80")))
	assert.True(t, req.Total.Equal(req.Subtotal.Add(req.Tax)))
}

func TestWorkflow_UnusableRateFallsBackToBase(t *testing.T) {
	f := newFixture(completeAddress(), currency.NewConverter(currency.INR, decimal.Zero), rice(1))

	q := f.workflow.Quote()
	assert.Equal(t, currency.Base, q.Currency)
	assert.True(t, q.Totals.Total.Equal(dec("11.8")))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "unknown", State(42).String())
}
