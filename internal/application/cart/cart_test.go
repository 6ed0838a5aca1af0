package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/testutil/memstore"
)

func TestAddItemIncrementsAndCapsAtStock(t *testing.T) {
	store := memstore.New()
	uc := NewUseCase(store.Carts(), store.Products(), 0)
	pid := store.SeedProduct(product.Product{Name: "帆布袋", Price: 2500, Stock: 4}).ID
	ctx := context.Background()

	line, err := uc.AddItem(ctx, 1, pid, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)

	line, err = uc.AddItem(ctx, 1, pid, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, line.Quantity)
	assert.Equal(t, int64(10000), line.Subtotal)
}

func TestAddItemRespectsLineLimit(t *testing.T) {
	store := memstore.New()
	uc := NewUseCase(store.Carts(), store.Products(), 3)
	pid := store.SeedProduct(product.Product{Name: "帆布袋", Price: 2500, Stock: 50}).ID

	line, err := uc.AddItem(context.Background(), 1, pid, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)
}

func TestAddItemRejects(t *testing.T) {
	store := memstore.New()
	uc := NewUseCase(store.Carts(), store.Products(), 0)
	soldOut := store.SeedProduct(product.Product{Name: "售罄", Price: 100, Stock: 0}).ID
	inactive := store.SeedProduct(product.Product{Name: "下架", Price: 100, Stock: 9, Status: product.StatusInactive}).ID
	ctx := context.Background()

	_, err := uc.AddItem(ctx, 1, soldOut, 1)
	assert.ErrorIs(t, err, product.ErrInsufficientStock)

	_, err = uc.AddItem(ctx, 1, inactive, 1)
	assert.ErrorIs(t, err, product.ErrProductUnavailable)

	_, err = uc.AddItem(ctx, 1, 999, 1)
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	_, err = uc.AddItem(ctx, 1, soldOut, 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
}

func TestGetCartTotals(t *testing.T) {
	store := memstore.New()
	uc := NewUseCase(store.Carts(), store.Products(), 0)
	bag := store.SeedProduct(product.Product{Name: "帆布袋", Price: 2500, Stock: 4}).ID
	pen := store.SeedProduct(product.Product{Name: "钢笔", Price: 1250, Stock: 10}).ID
	ctx := context.Background()

	_, err := uc.AddItem(ctx, 1, bag, 2)
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, 1, pen, 3)
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, 2, pen, 1)
	require.NoError(t, err)

	// 下架的商品保留在购物车中,但不计入总价
	require.NoError(t, store.Products().UpdateStatus(ctx, pen, product.StatusInactive))

	view, err := uc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.True(t, view.Items[0].Available)
	assert.False(t, view.Items[1].Available)
	assert.Equal(t, int64(5000), view.Total)
	assert.Equal(t, "50.00", view.TotalYuan)
}

func TestRemoveItem(t *testing.T) {
	store := memstore.New()
	uc := NewUseCase(store.Carts(), store.Products(), 0)
	pid := store.SeedProduct(product.Product{Name: "帆布袋", Price: 2500, Stock: 4}).ID
	ctx := context.Background()

	_, err := uc.AddItem(ctx, 1, pid, 1)
	require.NoError(t, err)
	require.NoError(t, uc.RemoveItem(ctx, 1, pid))
	assert.ErrorIs(t, uc.RemoveItem(ctx, 1, pid), cart.ErrItemNotFound)

	view, err := uc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, int64(0), view.Total)
}

func TestSetQuantity(t *testing.T) {
	store := memstore.New()
	uc := NewUseCase(store.Carts(), store.Products(), 5)
	pid := store.SeedProduct(product.Product{Name: "帆布袋", Price: 2500, Stock: 8}).ID
	other := store.SeedProduct(product.Product{Name: "钢笔", Price: 1250, Stock: 2}).ID
	ctx := context.Background()

	_, err := uc.AddItem(ctx, 1, pid, 4)
	require.NoError(t, err)

	// 调小
	line, err := uc.SetQuantity(ctx, 1, pid, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, int64(2500), line.Subtotal)

	// 超过单行上限截断
	line, err = uc.SetQuantity(ctx, 1, pid, 20)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)

	_, err = uc.AddItem(ctx, 1, other, 1)
	require.NoError(t, err)
	// 超过库存截断
	line, err = uc.SetQuantity(ctx, 1, other, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)

	view, err := uc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, 5, view.Items[0].Quantity)
}

func TestSetQuantityRejects(t *testing.T) {
	store := memstore.New()
	uc := NewUseCase(store.Carts(), store.Products(), 0)
	pid := store.SeedProduct(product.Product{Name: "帆布袋", Price: 2500, Stock: 8}).ID
	soldOut := store.SeedProduct(product.Product{Name: "售罄", Price: 100, Stock: 0}).ID
	ctx := context.Background()

	_, err := uc.SetQuantity(ctx, 1, pid, 2)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)

	_, err = uc.AddItem(ctx, 1, pid, 2)
	require.NoError(t, err)
	_, err = uc.SetQuantity(ctx, 2, pid, 2)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)

	_, err = uc.SetQuantity(ctx, 1, pid, 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

	_, err = uc.SetQuantity(ctx, 1, soldOut, 1)
	assert.ErrorIs(t, err, product.ErrInsufficientStock)

	_, err = uc.SetQuantity(ctx, 1, 999, 1)
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	view, err := uc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
}
