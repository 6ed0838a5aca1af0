package order

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appevent "github.com/xiebiao/storefront/internal/application/event"
	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/testutil/memstore"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.InitMetrics()
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

const (
	alice uint = 1001
	bob   uint = 1002
	admin uint = 9001
)

type fixture struct {
	store     *memstore.Store
	pub       *memstore.Publisher
	place     *PlaceOrderUseCase
	cancel    *CancelOrderUseCase
	setStatus *SetOrderStatusUseCase
	query     *QueryUseCase
}

func newFixture(t *testing.T, policy Policy) *fixture {
	t.Helper()
	store := memstore.New()
	pub := memstore.NewPublisher()
	dispatcher := appevent.NewDispatcher(pub)
	ledger := inventory.NewLedger(store.Products(), store.InventoryLogs())

	return &fixture{
		store:     store,
		pub:       pub,
		place:     NewPlaceOrderUseCase(store.Products(), store.Carts(), store.Orders(), ledger, store, dispatcher, policy),
		cancel:    NewCancelOrderUseCase(store.Orders(), ledger, store, dispatcher),
		setStatus: NewSetOrderStatusUseCase(store.Orders(), ledger, store, dispatcher, policy),
		query:     NewQueryUseCase(store.Orders()),
	}
}

func defaultPolicy() Policy {
	return Policy{AdminCancelReleasesStock: true}
}

func (f *fixture) seed(name string, price int64, stock int) uint {
	return f.store.SeedProduct(product.Product{Name: name, Price: price, Stock: stock}).ID
}

func (f *fixture) placeLines(userID uint, lines ...cart.Line) (*OrderView, error) {
	return f.place.Execute(context.Background(), PlaceOrderRequest{UserID: userID, Lines: lines})
}

func line(productID uint, qty int) cart.Line {
	return cart.Line{ProductID: productID, Quantity: qty}
}

func TestPlaceOrderSnapshotsPriceAndReservesStock(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)
	pen := f.seed("钢笔", 1250, 5)

	view, err := f.placeLines(alice, line(mug, 2), line(pen, 1))
	require.NoError(t, err)

	assert.Equal(t, string(order.StatusPending), view.Status)
	assert.Equal(t, int64(2*3900+1250), view.Total)
	assert.Equal(t, "90.50", view.TotalYuan)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "马克杯", view.Items[0].ProductName)
	assert.Equal(t, int64(3900), view.Items[0].Price)

	assert.Equal(t, 8, f.store.Stock(mug))
	assert.Equal(t, 4, f.store.Stock(pen))
	assert.Equal(t, []event.Type{event.OrderCreated}, f.pub.Types())
}

func TestPlaceOrderMergesDuplicateLines(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)

	view, err := f.placeLines(alice, line(mug, 2), line(mug, 3))
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, 5, f.store.Stock(mug))
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t, Policy{MaxLineQuantity: 5})
	mug := f.seed("马克杯", 3900, 10)

	_, err := f.placeLines(alice)
	assert.ErrorIs(t, err, order.ErrEmptyOrder)

	_, err = f.placeLines(alice, line(mug, 0))
	assert.ErrorIs(t, err, order.ErrInvalidQuantity)

	_, err = f.placeLines(alice, line(mug, 3), line(mug, 3))
	assert.ErrorIs(t, err, order.ErrInvalidQuantity)

	assert.Equal(t, 10, f.store.Stock(mug))
	assert.Zero(t, f.store.OrderCount())
}

func TestPlaceOrderUnavailableProduct(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	inactive := f.store.SeedProduct(product.Product{Name: "旧款", Price: 100, Stock: 3, Status: product.StatusInactive}).ID

	_, err := f.placeLines(alice, line(inactive, 1))
	require.ErrorIs(t, err, product.ErrProductUnavailable)
	assert.Equal(t, inactive, apperrors.GetAppError(err).Details.(product.StockDetails).ProductID)

	_, err = f.placeLines(alice, line(424242, 1))
	assert.ErrorIs(t, err, product.ErrProductUnavailable)
}

func TestPlaceOrderInsufficientStockNamesProduct(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)
	pen := f.seed("钢笔", 1250, 1)

	_, err := f.placeLines(alice, line(mug, 1), line(pen, 2))
	require.ErrorIs(t, err, product.ErrInsufficientStock)

	details := apperrors.GetAppError(err).Details.(product.StockDetails)
	assert.Equal(t, pen, details.ProductID)
	assert.Equal(t, 1, details.Available)
	assert.Equal(t, 10, f.store.Stock(mug))
}

func TestPlaceOrderFailureLeavesNoTrace(t *testing.T) {
	failures := []struct {
		name string
		op   string
		nth  int
	}{
		{"order insert", memstore.OpOrderCreate, 1},
		{"second reservation", memstore.OpProductUpdateStock, 2},
		{"audit log", memstore.OpInventoryLogCreate, 2},
		{"cart cleanup", memstore.OpCartRemoveItems, 1},
	}

	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, defaultPolicy())
			mug := f.seed("马克杯", 3900, 10)
			pen := f.seed("钢笔", 1250, 5)
			_, err := f.store.Carts().AddItem(context.Background(), alice, mug, 2, 10)
			require.NoError(t, err)
			_, err = f.store.Carts().AddItem(context.Background(), alice, pen, 1, 5)
			require.NoError(t, err)

			before := f.store.Snapshot()
			f.store.FailOnNth(tc.op, tc.nth, apperrors.ErrDatabaseError)

			_, err = f.place.Execute(context.Background(), PlaceOrderRequest{UserID: alice, UseCart: true})
			require.ErrorIs(t, err, apperrors.ErrDatabaseError)

			assert.Equal(t, before, f.store.Snapshot())
			assert.Empty(t, f.pub.Events())
		})
	}
}

func TestPlaceOrderFromCart(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)
	pen := f.seed("钢笔", 1250, 5)
	ctx := context.Background()

	_, err := f.store.Carts().AddItem(ctx, alice, mug, 2, 10)
	require.NoError(t, err)
	_, err = f.store.Carts().AddItem(ctx, alice, pen, 1, 5)
	require.NoError(t, err)
	_, err = f.store.Carts().AddItem(ctx, bob, mug, 1, 10)
	require.NoError(t, err)

	view, err := f.place.Execute(ctx, PlaceOrderRequest{UserID: alice, UseCart: true, ProductIDs: []uint{mug}})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)

	left, err := f.store.Carts().ListItems(ctx, alice)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, pen, left[0].ProductID)

	others, err := f.store.Carts().ListItems(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t, defaultPolicy())

	_, err := f.place.Execute(context.Background(), PlaceOrderRequest{UserID: alice, UseCart: true})
	assert.ErrorIs(t, err, order.ErrEmptyOrder)
}

func TestPlaceOrderPriceChanged(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)
	before := f.store.Snapshot()

	stale := int64(3500)
	_, err := f.place.Execute(context.Background(), PlaceOrderRequest{
		UserID:        alice,
		Lines:         []cart.Line{line(mug, 1)},
		ExpectedTotal: &stale,
	})
	require.ErrorIs(t, err, order.ErrPriceChanged)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(apperrors.GetAppError(err).Code))
	assert.Equal(t, PriceDetails{Expected: 3500, Actual: 3900}, apperrors.GetAppError(err).Details)
	assert.Equal(t, before, f.store.Snapshot())

	current := int64(3900)
	_, err = f.place.Execute(context.Background(), PlaceOrderRequest{
		UserID:        alice,
		Lines:         []cart.Line{line(mug, 1)},
		ExpectedTotal: &current,
	})
	assert.NoError(t, err)
}

func TestPlaceOrderSucceedsWhenPublishFails(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)
	f.pub.FailWith(errors.New("broker unavailable"))

	_, err := f.placeLines(alice, line(mug, 1))
	require.NoError(t, err)
	assert.Equal(t, 9, f.store.Stock(mug))
}

func TestLastUnitRace(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 1)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, uid := range []uint{alice, bob} {
		wg.Add(1)
		go func(i int, uid uint) {
			defer wg.Done()
			_, results[i] = f.placeLines(uid, line(mug, 1))
		}(i, uid)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, product.ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.store.Stock(mug))
	assert.Equal(t, 1, f.store.OrderCount())
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	cases := []struct {
		stock, qty, buyers int
	}{
		{stock: 10, qty: 3, buyers: 20},
		{stock: 7, qty: 1, buyers: 15},
		{stock: 5, qty: 6, buyers: 4},
	}

	for _, tc := range cases {
		f := newFixture(t, defaultPolicy())
		mug := f.seed("马克杯", 3900, tc.stock)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < tc.buyers; i++ {
			wg.Add(1)
			go func(uid uint) {
				defer wg.Done()
				_, err := f.placeLines(uid, line(mug, tc.qty))
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, product.ErrInsufficientStock)
			}(uint(i + 1))
		}
		wg.Wait()

		want := tc.stock / tc.qty
		if want > tc.buyers {
			want = tc.buyers
		}
		assert.Equal(t, want, succeeded)
		assert.Equal(t, tc.stock-want*tc.qty, f.store.Stock(mug))
		assert.Equal(t, want, f.store.OrderCount())
	}
}

func TestPlaceCancelPlaceRestoresStock(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)
	ctx := context.Background()

	first, err := f.placeLines(alice, line(mug, 3))
	require.NoError(t, err)
	assert.Equal(t, 7, f.store.Stock(mug))

	canceled, err := f.cancel.Execute(ctx, CancelOrderRequest{OrderID: first.ID, RequesterID: alice})
	require.NoError(t, err)
	assert.Equal(t, string(order.StatusCanceled), canceled.Status)
	assert.Equal(t, 10, f.store.Stock(mug))

	_, err = f.placeLines(alice, line(mug, 3))
	require.NoError(t, err)
	assert.Equal(t, 7, f.store.Stock(mug))

	assert.Equal(t, []event.Type{event.OrderCreated, event.OrderCanceled, event.OrderCreated}, f.pub.Types())
}

func TestCancelTwiceIsInvalidTransition(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)
	ctx := context.Background()

	placed, err := f.placeLines(alice, line(mug, 4))
	require.NoError(t, err)
	_, err = f.cancel.Execute(ctx, CancelOrderRequest{OrderID: placed.ID, RequesterID: alice})
	require.NoError(t, err)

	_, err = f.cancel.Execute(ctx, CancelOrderRequest{OrderID: placed.ID, RequesterID: alice})
	require.ErrorIs(t, err, order.ErrInvalidTransition)
	assert.Equal(t, 10, f.store.Stock(mug))
}

func TestCancelPermissions(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)
	ctx := context.Background()

	placed, err := f.placeLines(alice, line(mug, 2))
	require.NoError(t, err)

	_, err = f.cancel.Execute(ctx, CancelOrderRequest{OrderID: placed.ID, RequesterID: bob})
	assert.ErrorIs(t, err, order.ErrForbidden)

	// 管理员也不能替买家取消,需要走改状态接口
	_, err = f.cancel.Execute(ctx, CancelOrderRequest{OrderID: placed.ID, RequesterID: admin})
	assert.ErrorIs(t, err, order.ErrForbidden)

	_, err = f.cancel.Execute(ctx, CancelOrderRequest{OrderID: 777, RequesterID: alice})
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	assert.Equal(t, 8, f.store.Stock(mug))
}

func TestCancelFailureKeepsOrderPending(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)
	ctx := context.Background()

	placed, err := f.placeLines(alice, line(mug, 2))
	require.NoError(t, err)
	before := f.store.Snapshot()

	f.store.FailOn(memstore.OpOrderUpdateStatus, apperrors.ErrDatabaseError)
	_, err = f.cancel.Execute(ctx, CancelOrderRequest{OrderID: placed.ID, RequesterID: alice})
	require.Error(t, err)

	assert.Equal(t, before, f.store.Snapshot())
	assert.Equal(t, 8, f.store.Stock(mug))
}

func TestSetOrderStatus(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)
	ctx := context.Background()

	placed, err := f.placeLines(alice, line(mug, 2))
	require.NoError(t, err)

	_, err = f.setStatus.Execute(ctx, SetOrderStatusRequest{OrderID: placed.ID, Status: "COMPLETED", ActorID: alice})
	assert.ErrorIs(t, err, order.ErrForbidden)

	_, err = f.setStatus.Execute(ctx, SetOrderStatusRequest{OrderID: placed.ID, Status: "SHIPPED", ActorID: admin, IsAdmin: true})
	assert.ErrorIs(t, err, order.ErrInvalidStatus)

	_, err = f.setStatus.Execute(ctx, SetOrderStatusRequest{OrderID: 404, Status: "COMPLETED", ActorID: admin, IsAdmin: true})
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	_, err = f.setStatus.Execute(ctx, SetOrderStatusRequest{OrderID: placed.ID, Status: "PENDING", ActorID: admin, IsAdmin: true})
	assert.ErrorIs(t, err, order.ErrInvalidTransition)

	done, err := f.setStatus.Execute(ctx, SetOrderStatusRequest{OrderID: placed.ID, Status: "COMPLETED", ActorID: admin, IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, string(order.StatusCompleted), done.Status)

	for _, target := range []string{"PENDING", "CANCELED", "FAILED", "COMPLETED"} {
		_, err = f.setStatus.Execute(ctx, SetOrderStatusRequest{OrderID: placed.ID, Status: target, ActorID: admin, IsAdmin: true})
		assert.ErrorIs(t, err, order.ErrInvalidTransition, target)
	}

	_, err = f.cancel.Execute(ctx, CancelOrderRequest{OrderID: placed.ID, RequesterID: alice})
	assert.ErrorIs(t, err, order.ErrInvalidTransition)
	assert.Equal(t, 8, f.store.Stock(mug))
}

func TestAdminCancelReleasesStockByPolicy(t *testing.T) {
	for _, releases := range []bool{true, false} {
		f := newFixture(t, Policy{AdminCancelReleasesStock: releases})
		mug := f.seed("马克杯", 3900, 10)
		ctx := context.Background()

		placed, err := f.placeLines(alice, line(mug, 4))
		require.NoError(t, err)

		_, err = f.setStatus.Execute(ctx, SetOrderStatusRequest{OrderID: placed.ID, Status: "CANCELED", ActorID: admin, IsAdmin: true})
		require.NoError(t, err)

		if releases {
			assert.Equal(t, 10, f.store.Stock(mug))
		} else {
			assert.Equal(t, 6, f.store.Stock(mug))
		}

		events := f.pub.Events()
		require.Len(t, events, 2)
		assert.Equal(t, event.OrderCanceled, events[1].Type)
		var payload event.OrderPayload
		require.NoError(t, events[1].Decode(&payload))
		assert.Equal(t, releases, payload.StockReleased)
		assert.Equal(t, string(order.StatusPending), payload.PreviousState)
		assert.Equal(t, admin, payload.ActorID)
	}
}

func TestFailedKeepsStockDecrement(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)

	placed, err := f.placeLines(alice, line(mug, 4))
	require.NoError(t, err)

	_, err = f.setStatus.Execute(context.Background(), SetOrderStatusRequest{OrderID: placed.ID, Status: "FAILED", ActorID: admin, IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, 6, f.store.Stock(mug))
	assert.Equal(t, event.OrderStatusChanged, f.pub.Types()[1])
}

func TestGetOrderVisibility(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)
	ctx := context.Background()

	placed, err := f.placeLines(alice, line(mug, 1))
	require.NoError(t, err)

	got, err := f.query.GetOrder(ctx, placed.ID, alice, false)
	require.NoError(t, err)
	assert.Equal(t, placed.OrderNo, got.OrderNo)

	_, err = f.query.GetOrder(ctx, placed.ID, bob, false)
	assert.ErrorIs(t, err, order.ErrForbidden)

	_, err = f.query.GetOrder(ctx, placed.ID, admin, true)
	assert.NoError(t, err)

	_, err = f.query.GetOrder(ctx, 999, alice, false)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestGetOrderRetriesTransientFailure(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 10)

	placed, err := f.placeLines(alice, line(mug, 1))
	require.NoError(t, err)

	f.store.FailOn(memstore.OpOrderFind, apperrors.ErrDatabaseError)
	got, err := f.query.GetOrder(context.Background(), placed.ID, alice, false)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, got.ID)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t, defaultPolicy())
	mug := f.seed("马克杯", 3900, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.placeLines(alice, line(mug, 1))
		require.NoError(t, err)
	}
	toCancel, err := f.placeLines(alice, line(mug, 1))
	require.NoError(t, err)
	_, err = f.cancel.Execute(ctx, CancelOrderRequest{OrderID: toCancel.ID, RequesterID: alice})
	require.NoError(t, err)
	_, err = f.placeLines(bob, line(mug, 1))
	require.NoError(t, err)

	mine, err := f.query.ListMyOrders(ctx, alice, ListQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), mine.Total)
	assert.Len(t, mine.Orders, 2)

	canceled, err := f.query.ListMyOrders(ctx, alice, ListQuery{Status: "CANCELED"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), canceled.Total)
	assert.Equal(t, toCancel.ID, canceled.Orders[0].ID)

	_, err = f.query.ListMyOrders(ctx, alice, ListQuery{Status: "LOST"})
	assert.ErrorIs(t, err, order.ErrInvalidStatus)

	_, err = f.query.ListOrders(ctx, false, ListQuery{})
	assert.ErrorIs(t, err, order.ErrForbidden)

	all, err := f.query.ListOrders(ctx, true, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), all.Total)
	assert.Equal(t, 1, all.Page)
}
