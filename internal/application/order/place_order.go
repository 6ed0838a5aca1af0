// Package order 订单用例:下单、取消、改状态、查询
package order

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	appevent "github.com/xiebiao/storefront/internal/application/event"
	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/domain/tx"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/tracing"
)

// PlaceOrderUseCase 下单用例
// 涉及:事务处理、并发控制、业务规则校验
type PlaceOrderUseCase struct {
	products   product.Repository
	carts      cart.Repository
	orders     order.Repository
	ledger     *inventory.Ledger
	txManager  tx.Manager
	dispatcher *appevent.Dispatcher
	policy     Policy
}

// NewPlaceOrderUseCase 创建下单用例
func NewPlaceOrderUseCase(
	products product.Repository,
	carts cart.Repository,
	orders order.Repository,
	ledger *inventory.Ledger,
	txManager tx.Manager,
	dispatcher *appevent.Dispatcher,
	policy Policy,
) *PlaceOrderUseCase {
	return &PlaceOrderUseCase{
		products:   products,
		carts:      carts,
		orders:     orders,
		ledger:     ledger,
		txManager:  txManager,
		dispatcher: dispatcher,
		policy:     policy,
	}
}

// PlaceOrderRequest 下单请求
type PlaceOrderRequest struct {
	UserID uint        // 买家用户ID(从JWT中提取)
	Lines  []cart.Line // 显式指定的订单行
	// UseCart 从购物车下单,此时忽略Lines
	UseCart bool
	// ProductIDs 从购物车下单时只结算这些商品,为空表示整个购物车
	ProductIDs []uint
	// ExpectedTotal 客户端确认过的总金额(分),与锁定后的价格不一致时拒绝下单
	ExpectedTotal *int64
}

// PriceDetails 价格变动的附加信息
type PriceDetails struct {
	Expected int64 `json:"expected_total"`
	Actual   int64 `json:"actual_total"`
}

// Execute 执行下单
//
// 防超卖流程:
//  1. 预校验(不加锁):尽早拒绝明显不可能成功的请求
//  2. 事务内按商品ID升序 SELECT ... FOR UPDATE,复核状态和库存
//  3. 使用锁定时读到的价格生成订单明细
//  4. 创建订单,逐行条件扣减库存,删除购物车中已下单的行
//  5. COMMIT;任一步失败整体回滚
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, req PlaceOrderRequest) (*OrderView, error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "order.PlaceOrder", attribute.Int64("user.id", int64(req.UserID)))

	placed, err := uc.place(ctx, req)
	tracing.EndSpan(span, err)
	metrics.ObserveHistogram(metrics.OrderCreationDuration, time.Since(start).Seconds())

	if err != nil {
		reason := failureReason(err)
		metrics.IncCounterVec(metrics.OrdersFailedTotal, map[string]string{"reason": reason})
		if reason == "internal" {
			logger.Error(ctx).Err(err).Uint("user_id", req.UserID).Msg("下单失败")
		}
		return nil, err
	}

	metrics.IncCounter(metrics.OrdersPlacedTotal)
	uc.dispatcher.Dispatch(ctx, event.OrderCreated, orderPayload(placed, "", false, req.UserID))

	logger.Info(ctx).
		Uint("order_id", placed.ID).
		Str("order_no", placed.OrderNo).
		Uint("user_id", placed.UserID).
		Int64("total", placed.Total).
		Int("lines", len(placed.Items)).
		Msg("下单成功")

	return toOrderView(placed), nil
}

func (uc *PlaceOrderUseCase) place(ctx context.Context, req PlaceOrderRequest) (*order.Order, error) {
	lines, err := uc.resolveLines(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := uc.precheck(ctx, lines); err != nil {
		return nil, err
	}

	ids := productIDs(lines)

	var placed *order.Order
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		// 步骤1:按ID升序加锁,两个订单包含相同商品时加锁顺序一致,不会死锁
		locked := make(map[uint]*product.Product, len(ids))
		for _, id := range ids {
			p, err := uc.products.LockByID(txCtx, id)
			if err != nil {
				if errors.Is(err, product.ErrProductNotFound) {
					return product.Unavailable(id)
				}
				return err
			}
			locked[id] = p
		}

		// 步骤2:锁内复核,并用锁定时的价格生成明细
		items := make([]order.Item, 0, len(lines))
		for _, l := range lines {
			p := locked[l.ProductID]
			if !p.IsPurchasable() {
				return product.Unavailable(p.ID)
			}
			if !p.HasStock(l.Quantity) {
				// 预校验通过但锁内库存不足:被并发订单抢先
				metrics.IncCounter(metrics.StockReservationConflicts)
				return product.InsufficientStock(p.ID, l.Quantity, p.Stock)
			}
			items = append(items, order.Item{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    l.Quantity,
				Price:       p.Price,
			})
		}

		o, err := order.NewOrder(order.GenerateOrderNo(), req.UserID, items)
		if err != nil {
			return err
		}
		if req.ExpectedTotal != nil && *req.ExpectedTotal != o.Total {
			return order.ErrPriceChanged.WithDetails(PriceDetails{Expected: *req.ExpectedTotal, Actual: o.Total})
		}

		// 步骤3:持久化订单(包含明细),回填订单ID供库存流水使用
		if err := uc.orders.Create(txCtx, o); err != nil {
			return err
		}

		// 步骤4:条件扣减库存
		for _, it := range o.Items {
			if err := uc.ledger.Reserve(txCtx, it.ProductID, it.Quantity, o.ID); err != nil {
				return err
			}
		}

		// 步骤5:购物车中已下单的行
		if err := uc.carts.RemoveItems(txCtx, req.UserID, ids); err != nil {
			return err
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// resolveLines 得到合并后的订单行
func (uc *PlaceOrderUseCase) resolveLines(ctx context.Context, req PlaceOrderRequest) ([]cart.Line, error) {
	lines := req.Lines
	if req.UseCart {
		items, err := uc.carts.ListItems(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		lines = cart.Lines(selectItems(items, req.ProductIDs))
	}
	return mergeLines(lines, uc.policy.MaxLineQuantity)
}

// precheck 不加锁的预校验,快速失败;结果以事务内的复核为准
func (uc *PlaceOrderUseCase) precheck(ctx context.Context, lines []cart.Line) error {
	found, err := uc.products.FindManyByIDs(ctx, productIDs(lines))
	if err != nil {
		return err
	}

	byID := make(map[uint]*product.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok || !p.IsPurchasable() {
			return product.Unavailable(l.ProductID)
		}
		if !p.HasStock(l.Quantity) {
			return product.InsufficientStock(p.ID, l.Quantity, p.Stock)
		}
	}
	return nil
}

// mergeLines 合并同一商品的多行,保持首次出现的顺序
func mergeLines(lines []cart.Line, maxQuantity int) ([]cart.Line, error) {
	if len(lines) == 0 {
		return nil, order.ErrEmptyOrder
	}

	merged := make([]cart.Line, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, order.ErrInvalidQuantity
		}
		if i, ok := index[l.ProductID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}

	if maxQuantity > 0 {
		for _, l := range merged {
			if l.Quantity > maxQuantity {
				return nil, order.ErrInvalidQuantity.WithMessage("单个商品最多购买%d件", maxQuantity)
			}
		}
	}
	return merged, nil
}

func selectItems(items []*cart.Item, only []uint) []*cart.Item {
	if len(only) == 0 {
		return items
	}
	want := make(map[uint]struct{}, len(only))
	for _, id := range only {
		want[id] = struct{}{}
	}
	out := make([]*cart.Item, 0, len(only))
	for _, it := range items {
		if _, ok := want[it.ProductID]; ok {
			out = append(out, it)
		}
	}
	return out
}

// productIDs 订单行的商品ID,升序
func productIDs(lines []cart.Line) []uint {
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// failureReason 下单失败原因(指标标签)
func failureReason(err error) string {
	switch {
	case errors.Is(err, product.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, product.ErrProductUnavailable):
		return "unavailable"
	case errors.Is(err, order.ErrPriceChanged):
		return "price_changed"
	case apperrors.IsInternal(err):
		return "internal"
	default:
		return "validation"
	}
}
