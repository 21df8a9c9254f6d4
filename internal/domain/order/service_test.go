package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroreach/storefront/internal/config"
	"github.com/agroreach/storefront/internal/domain/product"
	"github.com/agroreach/storefront/internal/domain/user"
	"github.com/agroreach/storefront/internal/logger"
)

type memoryRepository struct {
	m         sync.Mutex
	orders    []*Order
	createErr error
}

func (r *memoryRepository) FindByIdempotencyKey(_ context.Context, userID uint, key string) (*Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	for _, o := range r.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (r *memoryRepository) Create(_ context.Context, order *Order) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	order.ID = uint(len(r.orders) + 1)
	order.CreatedAt = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	order.OrderNumber = generateOrderNumber(order.CreatedAt, order.ID)
	r.orders = append(r.orders, order)
	return nil
}

func (r *memoryRepository) GetByUser(_ context.Context, userID, orderID uint) (*Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	for _, o := range r.orders {
		if o.ID == orderID && o.UserID == userID {
			return o, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (r *memoryRepository) ListByUser(_ context.Context, userID uint, offset, limit int) ([]Order, int64, error) {
	r.m.Lock()
	defer r.m.Unlock()
	var mine []Order
	for i := len(r.orders) - 1; i >= 0; i-- {
		if r.orders[i].UserID == userID {
			mine = append(mine, *r.orders[i])
		}
	}
	total := int64(len(mine))
	if offset >= len(mine) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], total, nil
}

type fakeCatalog map[uint]product.Product

func (f fakeCatalog) GetByIDs(_ context.Context, ids []uint) (map[uint]product.Product, error) {
	out := make(map[uint]product.Product)
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type recordingPublisher struct {
	m      sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, order *Order) error {
	p.m.Lock()
	defer p.m.Unlock()
	p.events = append(p.events, order.OrderNumber)
	return p.err
}

type failingNotifier struct{}

func (failingNotifier) SendOrderConfirmation(context.Context, *Order) error {
	return errors.New("smtp down")
}

func testConfig() *config.Config {
	return &config.Config{
		Redis: config.RedisConfig{OrderLockTTL: 30 * time.Second},
		Checkout: config.CheckoutConfig{
			BaseCurrency: "USD",
			TaxRate:      decimal.RequireFromString("0.18"),
			ShippingFlat: decimal.Zero,
		},
	}
}

func newTestService(t *testing.T) (*Service, *memoryRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := &memoryRepository{}
	catalog := fakeCatalog{
		7: {ID: 7, Name: "Organic Rice", Price: dec("10.00"), Image: "rice.png", IsActive: true},
		8: {ID: 8, Name: "Mustard Oil", Price: dec("4.50"), IsActive: true},
	}
	svc := NewService(repo, catalog, client, testConfig(), logrus.NewEntry(logger.Discard()))
	return svc, repo, mr
}

func validAddress() user.Address {
	return user.Address{
		FirstName:     "Asha",
		StreetAddress: "12 Market Road",
		Country:       "India",
		State:         "Kerala",
		ZipCode:       "682001",
		Email:         "asha@example.com",
		Phone:         "+91 98470 00000",
	}
}

func validRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		ShippingAddress: validAddress(),
		PaymentMethod:   PaymentCashOnDelivery,
		Items:           []ItemRequest{{Product: 7, Name: "Organic Rice", Price: dec("10"), Quantity: 2}},
		Subtotal:        dec("20"),
		Shipping:        dec("0"),
		Tax:             dec("3.6"),
		Total:           dec("23.6"),
		Currency:        "USD",
		IdempotencyKey:  "key-1",
	}
}

func TestService_CreateOrder(t *testing.T) {
	svc, repo, _ := newTestService(t)
	pub := &recordingPublisher{}
	svc.WithPublisher(pub)

	order, created, err := svc.CreateOrder(context.Background(), 3, validRequest())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ORD-20240305-00001", order.OrderNumber)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.True(t, order.Total.Equal(dec("23.6")))
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Organic Rice", order.Items[0].Name)
	assert.Equal(t, "rice.png", order.Items[0].Image)
	assert.True(t, order.Items[0].LineTotal.Equal(dec("20")))
	require.Len(t, order.StatusHistory, 1)
	assert.Len(t, repo.orders, 1)
	assert.Equal(t, []string{"ORD-20240305-00001"}, pub.events)
}

func TestService_CreateOrder_SameKeyReturnsExisting(t *testing.T) {
	svc, repo, _ := newTestService(t)

	first, created, err := svc.CreateOrder(context.Background(), 3, validRequest())
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.CreateOrder(context.Background(), 3, validRequest())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.orders, 1)
}

func TestService_CreateOrder_KeyIsPerUser(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, _, err := svc.CreateOrder(context.Background(), 3, validRequest())
	require.NoError(t, err)
	_, created, err := svc.CreateOrder(context.Background(), 4, validRequest())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, repo.orders, 2)
}

func TestService_CreateOrder_LockHeld(t *testing.T) {
	svc, repo, mr := newTestService(t)
	require.NoError(t, mr.Set("order_lock:3:key-1", "1"))

	_, _, err := svc.CreateOrder(context.Background(), 3, validRequest())
	assert.ErrorIs(t, err, ErrOrderInProgress)
	assert.Empty(t, repo.orders)
}

func TestService_CreateOrder_ReleasesLock(t *testing.T) {
	svc, _, mr := newTestService(t)

	_, _, err := svc.CreateOrder(context.Background(), 3, validRequest())
	require.NoError(t, err)
	assert.False(t, mr.Exists("order_lock:3:key-1"))
}

func TestService_CreateOrder_RedisDownStillPlaces(t *testing.T) {
	svc, repo, mr := newTestService(t)
	mr.Close()

	_, created, err := svc.CreateOrder(context.Background(), 3, validRequest())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, repo.orders, 1)
}

func TestService_CreateOrder_GeneratesKey(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := validRequest()
	req.IdempotencyKey = ""

	order, _, err := svc.CreateOrder(context.Background(), 3, req)
	require.NoError(t, err)
	assert.NotEmpty(t, order.IdempotencyKey)
}

func TestService_CreateOrder_ReportsEveryMissingAddressField(t *testing.T) {
	svc, repo, _ := newTestService(t)
	req := validRequest()
	req.ShippingAddress.Email = ""
	req.ShippingAddress.ZipCode = "  "

	_, _, err := svc.CreateOrder(context.Background(), 3, req)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, ValidationErrors{
		{Field: "shippingAddress", Message: "Zip Code is required"},
		{Field: "shippingAddress", Message: "Email Address is required"},
	}, verrs)
	assert.Empty(t, repo.orders)
}

func TestService_CreateOrder_RejectsBadArithmetic(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := validRequest()
	req.Tax = dec("2")
	req.Total = dec("22")

	_, _, err := svc.CreateOrder(context.Background(), 3, req)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"tax"}, fields)
}

func TestService_CreateOrder_RejectsInconsistentTotal(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := validRequest()
	req.Total = dec("25")

	_, _, err := svc.CreateOrder(context.Background(), 3, req)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, "total", verrs[0].Field)
}

func TestService_CreateOrder_RejectsStaleBasePrice(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := validRequest()
	req.Items[0].Price = dec("9")
	req.Subtotal = dec("18")
	req.Tax = dec("3.24")
	req.Total = dec("21.24")

	_, _, err := svc.CreateOrder(context.Background(), 3, req)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, "items[0]", verrs[0].Field)
	assert.Contains(t, verrs[0].Message, "10.00")
}

func TestService_CreateOrder_ConvertedCurrencySkipsPriceCheck(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := validRequest()
	req.Currency = "INR"
	req.Items[0].Price = dec("830")
	req.Subtotal = dec("1660")
	req.Tax = dec("298.8")
	req.Total = dec("1958.8")

	order, created, err := svc.CreateOrder(context.Background(), 3, req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "INR", order.Currency)
}

func TestService_CreateOrder_RejectsUnknownInputs(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := validRequest()
	req.PaymentMethod = "Barter"
	req.Currency = "EUR"
	req.Items = append(req.Items, ItemRequest{Product: 99, Price: dec("1"), Quantity: 0})
	req.Subtotal = dec("20")

	_, _, err := svc.CreateOrder(context.Background(), 3, req)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := map[string]bool{}
	for _, fe := range verrs {
		fields[fe.Field] = true
	}
	assert.True(t, fields["paymentMethod"])
	assert.True(t, fields["currency"])
	assert.True(t, fields["items[1]"])
}

func TestService_CreateOrder_EmptyItems(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := validRequest()
	req.Items = nil
	req.Subtotal = decimal.Zero
	req.Tax = decimal.Zero
	req.Total = decimal.Zero

	_, _, err := svc.CreateOrder(context.Background(), 3, req)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "items", verrs[0].Field)
}

func TestService_CreateOrder_DuplicateKeyRace(t *testing.T) {
	svc, repo, _ := newTestService(t)
	existing := &Order{ID: 40, UserID: 3, IdempotencyKey: "key-1", OrderNumber: "ORD-20240305-00040"}

	svc.repo = &racingRepository{memoryRepository: repo, winner: existing}

	order, created, err := svc.CreateOrder(context.Background(), 3, validRequest())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, uint(40), order.ID)
}

// racingRepository simulates another request committing the same key first
type racingRepository struct {
	*memoryRepository
	winner  *Order
	created bool
}

func (r *racingRepository) FindByIdempotencyKey(ctx context.Context, userID uint, key string) (*Order, error) {
	if r.created {
		return r.winner, nil
	}
	return nil, ErrOrderNotFound
}

func (r *racingRepository) Create(context.Context, *Order) error {
	r.created = true
	return ErrDuplicateOrderKey
}

func TestService_CreateOrder_SideEffectFailuresDoNotFail(t *testing.T) {
	svc, repo, _ := newTestService(t)
	svc.WithPublisher(&recordingPublisher{err: errors.New("broker down")}).WithNotifier(failingNotifier{})

	_, created, err := svc.CreateOrder(context.Background(), 3, validRequest())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, repo.orders, 1)
}

func TestService_CreateOrder_RepositoryError(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.createErr = errors.New("connection refused")

	_, _, err := svc.CreateOrder(context.Background(), 3, validRequest())
	assert.EqualError(t, err, "connection refused")
}

func TestService_GetUserOrders(t *testing.T) {
	svc, _, _ := newTestService(t)
	for _, key := range []string{"a", "b", "c"} {
		req := validRequest()
		req.IdempotencyKey = key
		_, _, err := svc.CreateOrder(context.Background(), 3, req)
		require.NoError(t, err)
	}

	resp, err := svc.GetUserOrders(context.Background(), 3, &ListRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Orders, 2)
	assert.Equal(t, "c", resp.Orders[0].IdempotencyKey)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasNext)
	assert.False(t, resp.Pagination.HasPrev)
}

func TestService_GetUserOrder_OtherUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	order, _, err := svc.CreateOrder(context.Background(), 3, validRequest())
	require.NoError(t, err)

	_, err = svc.GetUserOrder(context.Background(), 4, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
