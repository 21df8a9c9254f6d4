package cartstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroreach/storefront/internal/domain/cart"
	"github.com/agroreach/storefront/internal/logger"
)

var catalog = map[uint]cart.ProductSummary{
	1: {ID: 1, Name: "Organic Rice", Price: decimal.RequireFromString("10")},
	2: {ID: 2, Name: "Hybrid Tomato Seeds", Price: decimal.RequireFromString("4.50")},
	3: {ID: 3, Name: "Drip Irrigation Kit", Price: decimal.RequireFromString("49.99")},
	4: {ID: 4, Name: "Pruning Shears", Price: decimal.RequireFromString("18.75")},
}

// fakeRemote behaves like the server cart resource
type fakeRemote struct {
	mu         sync.Mutex
	qty        map[uint]int
	calls      []string
	failNext   error
	failReload error
	zeroLine   bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{qty: make(map[uint]int)}
}

func (f *fakeRemote) record(call string) error {
	f.calls = append(f.calls, call)
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	return nil
}

func (f *fakeRemote) GetCart(ctx context.Context) ([]cart.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "get")
	if f.failReload != nil {
		return nil, f.failReload
	}

	ids := make([]int, 0, len(f.qty))
	for id := range f.qty {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	lines := make([]cart.Line, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, cart.Line{Product: catalog[uint(id)], Quantity: f.qty[uint(id)]})
	}
	if f.zeroLine {
		lines = append(lines, cart.Line{Product: catalog[4], Quantity: 0})
	}
	return lines, nil
}

func (f *fakeRemote) AddToCart(ctx context.Context, productID uint, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("add"); err != nil {
		return err
	}
	f.qty[productID] += quantity
	return nil
}

func (f *fakeRemote) UpdateCartItem(ctx context.Context, productID uint, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update"); err != nil {
		return err
	}
	if _, ok := f.qty[productID]; !ok {
		return errors.New("item not in cart")
	}
	f.qty[productID] = quantity
	return nil
}

func (f *fakeRemote) RemoveCartItem(ctx context.Context, productID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("remove"); err != nil {
		return err
	}
	delete(f.qty, productID)
	return nil
}

func (f *fakeRemote) ClearCart(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("clear"); err != nil {
		return err
	}
	f.qty = make(map[uint]int)
	return nil
}

type fakeSession bool

func (s fakeSession) IsAuthenticated() bool { return bool(s) }

type recordingNotifier struct {
	mu      sync.Mutex
	notices []string
	alerts  []string
}

func (n *recordingNotifier) Notify(message string) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, message)
	return uint64(len(n.notices))
}

func (n *recordingNotifier) Alert(message string) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, message)
	return uint64(len(n.alerts))
}

func newStore(remote *fakeRemote, loggedIn bool) (*Store, *recordingNotifier) {
	n := &recordingNotifier{}
	return New(remote, fakeSession(loggedIn), n, logger.Discard()), n
}

func TestStore_RequiresSession(t *testing.T) {
	remote := newFakeRemote()
	s, _ := newStore(remote, false)
	ctx := context.Background()

	assert.ErrorIs(t, s.AddItem(ctx, catalog[1], 1), ErrNotLoggedIn)
	assert.ErrorIs(t, s.UpdateQuantity(ctx, 1, 2), ErrNotLoggedIn)
	assert.ErrorIs(t, s.RemoveItem(ctx, 1), ErrNotLoggedIn)
	assert.ErrorIs(t, s.Clear(ctx), ErrNotLoggedIn)
	assert.ErrorIs(t, s.Load(ctx), ErrNotLoggedIn)
	assert.Empty(t, remote.calls)
}

func TestStore_AddItemReloads(t *testing.T) {
	remote := newFakeRemote()
	s, n := newStore(remote, true)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, catalog[1], 2))
	require.NoError(t, s.AddItem(ctx, catalog[1], 0))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "Organic Rice", items[0].Name)
	assert.Equal(t, []string{"add", "get", "add", "get"}, remote.calls)
	assert.Equal(t, []string{"Organic Rice added to cart", "Organic Rice added to cart"}, n.notices)
	assert.True(t, s.Total().Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 3, s.Count())
}

func TestStore_FailureKeepsLastState(t *testing.T) {
	remote := newFakeRemote()
	s, n := newStore(remote, true)
	ctx := context.Background()
	require.NoError(t, s.AddItem(ctx, catalog[1], 2))
	before := s.Items()

	remote.failNext = errors.New("connection reset")
	err := s.AddItem(ctx, catalog[2], 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, before, s.Items())
	assert.Len(t, n.alerts, 1)

	remote.failReload = errors.New("timeout")
	err = s.UpdateQuantity(ctx, 1, 5)
	require.Error(t, err)
	assert.Equal(t, before, s.Items(), "a failed reload leaves the old view")
	assert.Len(t, n.alerts, 2)
}

func TestStore_CancelledReloadLeavesState(t *testing.T) {
	remote := newFakeRemote()
	s, n := newStore(remote, true)
	require.NoError(t, s.AddItem(context.Background(), catalog[1], 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.AddItem(ctx, catalog[2], 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, s.Items(), 1)
	assert.Empty(t, n.alerts)
}

func TestStore_UpdateToZeroRemoves(t *testing.T) {
	ctx := context.Background()
	build := func() (*Store, *fakeRemote, *recordingNotifier) {
		remote := newFakeRemote()
		s, n := newStore(remote, true)
		require.NoError(t, s.AddItem(ctx, catalog[1], 2))
		require.NoError(t, s.AddItem(ctx, catalog[2], 1))
		return s, remote, n
	}

	viaUpdate, remoteA, notesA := build()
	viaRemove, remoteB, notesB := build()

	require.NoError(t, viaUpdate.UpdateQuantity(ctx, 1, 0))
	require.NoError(t, viaRemove.RemoveItem(ctx, 1))

	assert.Equal(t, viaRemove.Items(), viaUpdate.Items())
	assert.Equal(t, remoteB.calls, remoteA.calls)
	assert.Equal(t, notesB.notices, notesA.notices)
	assert.Contains(t, notesA.notices, "Organic Rice removed from cart")
}

func TestStore_DropsZeroQuantityLines(t *testing.T) {
	remote := newFakeRemote()
	remote.zeroLine = true
	s, _ := newStore(remote, true)

	require.NoError(t, s.AddItem(context.Background(), catalog[1], 1))
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, uint(1), items[0].ProductID)
}

func TestStore_ClearAndReset(t *testing.T) {
	remote := newFakeRemote()
	s, _ := newStore(remote, true)
	ctx := context.Background()
	require.NoError(t, s.AddItem(ctx, catalog[3], 1))

	require.NoError(t, s.Clear(ctx))
	assert.True(t, s.IsEmpty())
	assert.True(t, s.Total().IsZero())

	require.NoError(t, s.AddItem(ctx, catalog[3], 1))
	s.Reset()
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 1, len(remote.qty), "reset does not touch the server")
}

func TestStore_ConcurrentMutationsSerialize(t *testing.T) {
	remote := newFakeRemote()
	s, _ := newStore(remote, true)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddItem(ctx, catalog[2], 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, s.Count())
	for i := 0; i+1 < len(remote.calls); i += 2 {
		assert.Equal(t, "add", remote.calls[i])
		assert.Equal(t, "get", remote.calls[i+1])
	}
}

func TestStore_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// each int encodes an operation, a product and a quantity
	apply := func(s *Store, code int) {
		ctx := context.Background()
		id := uint(code/4%4 + 1)
		qty := code/16%7 - 2
		switch code % 4 {
		case 0:
			_ = s.AddItem(ctx, catalog[id], qty)
		case 1:
			_ = s.UpdateQuantity(ctx, id, qty)
		case 2:
			_ = s.RemoveItem(ctx, id)
		case 3:
			_ = s.Load(ctx)
		}
	}

	properties.Property("no line is ever held at quantity <= 0", prop.ForAll(
		func(ops []int) bool {
			s, _ := newStore(newFakeRemote(), true)
			for _, op := range ops {
				apply(s, op)
				for _, it := range s.Items() {
					if it.Quantity <= 0 {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.Property("total is the sum of unit price times quantity", prop.ForAll(
		func(ops []int) bool {
			s, _ := newStore(newFakeRemote(), true)
			for _, op := range ops {
				apply(s, op)
			}
			want := decimal.Zero
			for _, it := range s.Items() {
				want = want.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
			}
			return s.Total().Equal(want)
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}
