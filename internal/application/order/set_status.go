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

// SetOrderStatusUseCase 管理员修改订单状态
type SetOrderStatusUseCase struct {
	orders     order.Repository
	ledger     *inventory.Ledger
	txManager  tx.Manager
	dispatcher *appevent.Dispatcher
	policy     Policy
}

// NewSetOrderStatusUseCase 创建改状态用例
func NewSetOrderStatusUseCase(
	orders order.Repository,
	ledger *inventory.Ledger,
	txManager tx.Manager,
	dispatcher *appevent.Dispatcher,
	policy Policy,
) *SetOrderStatusUseCase {
	return &SetOrderStatusUseCase{
		orders:     orders,
		ledger:     ledger,
		txManager:  txManager,
		dispatcher: dispatcher,
		policy:     policy,
	}
}

// SetOrderStatusRequest 改状态请求
type SetOrderStatusRequest struct {
	OrderID uint
	Status  string
	ActorID uint
	IsAdmin bool
}

// Execute 修改订单状态
// 只允许 PENDING → COMPLETED / CANCELED / FAILED
// 改为CANCELED时按策略归还库存;FAILED不归还(库存去向由人工核对)
func (uc *SetOrderStatusUseCase) Execute(ctx context.Context, req SetOrderStatusRequest) (*OrderView, error) {
	if !req.IsAdmin {
		return nil, order.ErrForbidden
	}
	target, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "order.SetOrderStatus",
		attribute.Int64("order.id", int64(req.OrderID)),
		attribute.String("order.status", string(target)),
	)

	var (
		updated  *order.Order
		previous order.Status
		released bool
	)
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orders.LockByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}
		previous = o.Status
		if err := o.TransitionTo(target); err != nil {
			return err
		}

		released = target == order.StatusCanceled && uc.policy.AdminCancelReleasesStock
		if released {
			for _, it := range o.Items {
				if err := uc.ledger.Release(txCtx, it.ProductID, it.Quantity, o.ID, "admin_cancel"); err != nil {
					return err
				}
			}
		}

		if err := uc.orders.UpdateStatus(txCtx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	metrics.IncCounterVec(metrics.OrderStatusTransitions, map[string]string{"to": string(target)})
	if target == order.StatusCanceled {
		metrics.IncCounterVec(metrics.OrdersCanceledTotal, map[string]string{"by": "admin"})
	}
	if released {
		metrics.AddCounter(metrics.StockUnitsReleased, float64(totalQuantity(updated)))
	}

	eventType := event.OrderStatusChanged
	if target == order.StatusCanceled {
		eventType = event.OrderCanceled
	}
	uc.dispatcher.Dispatch(ctx, eventType, orderPayload(updated, previous, released, req.ActorID))

	logger.Info(ctx).
		Uint("order_id", updated.ID).
		Str("from", string(previous)).
		Str("to", string(target)).
		Uint("actor_id", req.ActorID).
		Bool("stock_released", released).
		Msg("订单状态已变更")

	return toOrderView(updated), nil
}
