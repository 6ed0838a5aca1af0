package order

import (
	"context"
	"time"

	"github.com/xiebiao/storefront/internal/application/shared"
	"github.com/xiebiao/storefront/internal/domain/order"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// QueryUseCase 订单查询(只读,基础设施错误重试一次)
type QueryUseCase struct {
	orders order.Repository
}

// NewQueryUseCase 创建订单查询用例
func NewQueryUseCase(orders order.Repository) *QueryUseCase {
	return &QueryUseCase{orders: orders}
}

// GetOrder 订单详情,只有下单人和管理员可以查看
func (uc *QueryUseCase) GetOrder(ctx context.Context, orderID, requesterID uint, isAdmin bool) (*OrderView, error) {
	o, err := shared.RetryRead(ctx, "order.FindByID", func(ctx context.Context) (*order.Order, error) {
		return uc.orders.FindByID(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	if !isAdmin && !o.IsOwnedBy(requesterID) {
		return nil, order.ErrForbidden
	}
	return toOrderView(o), nil
}

// ListQuery 订单列表条件
type ListQuery struct {
	Page     int
	PageSize int
	Status   string    // 为空不过滤
	Start    time.Time // 零值不过滤
	End      time.Time // 零值不过滤
}

func (q ListQuery) params() (order.ListParams, error) {
	page, size := shared.NormalizePage(q.Page, q.PageSize)
	p := order.ListParams{Page: page, PageSize: size, Start: q.Start, End: q.End}
	if q.Status != "" {
		st, err := order.ParseStatus(q.Status)
		if err != nil {
			return p, err
		}
		p.Status = st
	}
	if !q.Start.IsZero() && !q.End.IsZero() && !q.Start.Before(q.End) {
		return p, apperrors.ErrInvalidParams.WithMessage("开始时间必须早于结束时间")
	}
	return p, nil
}

// ListMyOrders 当前用户的订单
func (uc *QueryUseCase) ListMyOrders(ctx context.Context, userID uint, q ListQuery) (*ListResult, error) {
	params, err := q.params()
	if err != nil {
		return nil, err
	}
	return uc.list(ctx, "order.ListByUserID", params, func(ctx context.Context) ([]*order.Order, int64, error) {
		return uc.orders.ListByUserID(ctx, userID, params)
	})
}

// ListOrders 管理端订单列表
func (uc *QueryUseCase) ListOrders(ctx context.Context, isAdmin bool, q ListQuery) (*ListResult, error) {
	if !isAdmin {
		return nil, order.ErrForbidden
	}
	params, err := q.params()
	if err != nil {
		return nil, err
	}
	return uc.list(ctx, "order.List", params, func(ctx context.Context) ([]*order.Order, int64, error) {
		return uc.orders.List(ctx, params)
	})
}

type page struct {
	orders []*order.Order
	total  int64
}

func (uc *QueryUseCase) list(
	ctx context.Context,
	op string,
	params order.ListParams,
	fetch func(ctx context.Context) ([]*order.Order, int64, error),
) (*ListResult, error) {
	res, err := shared.RetryRead(ctx, op, func(ctx context.Context) (page, error) {
		orders, total, err := fetch(ctx)
		return page{orders: orders, total: total}, err
	})
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Orders:   toOrderViews(res.orders),
		Total:    res.total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}
