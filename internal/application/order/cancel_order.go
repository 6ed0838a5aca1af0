package order

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	appevent "github.com/xiebiao/storefront/internal/application/event"
	"github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/tx"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/tracing"
)

// CancelOrderUseCase 买家取消订单
type CancelOrderUseCase struct {
	orders     order.Repository
	ledger     *inventory.Ledger
	txManager  tx.Manager
	dispatcher *appevent.Dispatcher
}

// NewCancelOrderUseCase 创建取消订单用例
func NewCancelOrderUseCase(
	orders order.Repository,
	ledger *inventory.Ledger,
	txManager tx.Manager,
	dispatcher *appevent.Dispatcher,
) *CancelOrderUseCase {
	return &CancelOrderUseCase{
		orders:     orders,
		ledger:     ledger,
		txManager:  txManager,
		dispatcher: dispatcher,
	}
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	OrderID     uint
	RequesterID uint // 只有下单人可以取消,管理员走SetOrderStatus
}

// Execute 取消订单
// 锁定订单行后检查状态,归还每一行库存并置为CANCELED,两者同一事务
// 重复取消时第二次看到的是CANCELED,返回ErrInvalidTransition,库存不会被归还两次
func (uc *CancelOrderUseCase) Execute(ctx context.Context, req CancelOrderRequest) (*OrderView, error) {
	ctx, span := tracing.StartSpan(ctx, "order.CancelOrder", attribute.Int64("order.id", int64(req.OrderID)))

	var canceled *order.Order
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orders.LockByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}
		if !o.IsOwnedBy(req.RequesterID) {
			return order.ErrForbidden
		}
		if err := o.Cancel(); err != nil {
			return err
		}

		for _, it := range o.Items {
			if err := uc.ledger.Release(txCtx, it.ProductID, it.Quantity, o.ID, "customer_cancel"); err != nil {
				return err
			}
		}

		if err := uc.orders.UpdateStatus(txCtx, o); err != nil {
			return err
		}
		canceled = o
		return nil
	})
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	metrics.IncCounterVec(metrics.OrdersCanceledTotal, map[string]string{"by": "customer"})
	metrics.AddCounter(metrics.StockUnitsReleased, float64(totalQuantity(canceled)))
	uc.dispatcher.Dispatch(ctx, event.OrderCanceled,
		orderPayload(canceled, order.StatusPending, true, req.RequesterID))

	logger.Info(ctx).
		Uint("order_id", canceled.ID).
		Str("order_no", canceled.OrderNo).
		Uint("user_id", canceled.UserID).
		Msg("订单已取消")

	return toOrderView(canceled), nil
}

func totalQuantity(o *order.Order) int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
