// Package cart 购物车用例
package cart

import (
	"context"

	"github.com/xiebiao/storefront/internal/application/shared"
	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/domain/product"
)

// UseCase 购物车用例
type UseCase struct {
	carts    cart.Repository
	products product.Repository
	// maxLineQuantity 单行数量上限,0表示只受库存限制
	maxLineQuantity int
}

// NewUseCase 创建购物车用例
func NewUseCase(carts cart.Repository, products product.Repository, maxLineQuantity int) *UseCase {
	return &UseCase{
		carts:           carts,
		products:        products,
		maxLineQuantity: maxLineQuantity,
	}
}

// LineView 购物车行
type LineView struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
	Stock     int    `json:"stock"`
	// Available 当前是否可以下单(在售且库存足够)
	Available bool `json:"available"`
}

// CartView 购物车(按当前价格计算)
type CartView struct {
	Items     []LineView `json:"items"`
	Total     int64      `json:"total"`
	TotalYuan string     `json:"total_yuan"`
}

// AddItem 加入购物车
// 已有的行累加数量,累加结果截断到当前库存
func (uc *UseCase) AddItem(ctx context.Context, userID, productID uint, quantity int) (*LineView, error) {
	if quantity <= 0 {
		return nil, cart.ErrInvalidQuantity
	}

	p, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsPurchasable() {
		return nil, product.Unavailable(productID)
	}
	if p.Stock == 0 {
		return nil, product.InsufficientStock(productID, quantity, 0)
	}

	limit := uc.lineLimit(p)
	item, err := uc.carts.AddItem(ctx, userID, productID, quantity, limit)
	if err != nil {
		return nil, err
	}
	line := toLineView(item, p)
	return &line, nil
}

// SetQuantity 修改购物车行的数量(绝对值),截断到当前库存
// 不要求商品在售,用户可以调小已下架商品的数量
func (uc *UseCase) SetQuantity(ctx context.Context, userID, productID uint, quantity int) (*LineView, error) {
	if quantity <= 0 {
		return nil, cart.ErrInvalidQuantity
	}

	p, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Stock == 0 {
		return nil, product.InsufficientStock(productID, quantity, 0)
	}

	item, err := uc.carts.SetQuantity(ctx, userID, productID, quantity, uc.lineLimit(p))
	if err != nil {
		return nil, err
	}
	line := toLineView(item, p)
	return &line, nil
}

// lineLimit 单行数量上限:当前库存与配置上限取小
func (uc *UseCase) lineLimit(p *product.Product) int {
	limit := p.Stock
	if uc.maxLineQuantity > 0 && uc.maxLineQuantity < limit {
		limit = uc.maxLineQuantity
	}
	return limit
}

// RemoveItem 删除购物车中的商品
func (uc *UseCase) RemoveItem(ctx context.Context, userID, productID uint) error {
	return uc.carts.RemoveItem(ctx, userID, productID)
}

// GetCart 查询购物车,金额按当前价格计算(下单时以锁定时的价格为准)
func (uc *UseCase) GetCart(ctx context.Context, userID uint) (*CartView, error) {
	items, err := shared.RetryRead(ctx, "cart.ListItems", func(ctx context.Context) ([]*cart.Item, error) {
		return uc.carts.ListItems(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := shared.RetryRead(ctx, "product.FindManyByIDs", func(ctx context.Context) ([]*product.Product, error) {
		return uc.products.FindManyByIDs(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	view := &CartView{Items: make([]LineView, 0, len(items))}
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			// 商品已被物理删除,行保留但不可下单
			view.Items = append(view.Items, LineView{ProductID: it.ProductID, Quantity: it.Quantity})
			continue
		}
		line := toLineView(it, p)
		view.Items = append(view.Items, line)
		if line.Available {
			view.Total += line.Subtotal
		}
	}
	view.TotalYuan = shared.FormatPrice(view.Total)
	return view, nil
}

func toLineView(it *cart.Item, p *product.Product) LineView {
	return LineView{
		ProductID: it.ProductID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  it.Quantity,
		Subtotal:  p.Price * int64(it.Quantity),
		Stock:     p.Stock,
		Available: p.IsPurchasable() && p.HasStock(it.Quantity),
	}
}
