package memstore

import (
	"context"
	"sort"

	"github.com/xiebiao/storefront/internal/domain/order"
)

// OrderRepo 实现order.Repository
type OrderRepo struct{ s *Store }

// Orders 订单仓储
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s: s} }

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.s.write(ctx, OpOrderCreate, func(d *state) error {
		for _, existing := range d.orders {
			if existing.OrderNo == o.OrderNo {
				return errDuplicateOrderNo
			}
		}
		o.ID = d.nextID()
		for i := range o.Items {
			o.Items[i].ID = d.nextID()
			o.Items[i].OrderID = o.ID
		}
		d.orders[o.ID] = copyOrder(*o)
		return nil
	})
}

func (r *OrderRepo) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	var out *order.Order
	err := r.s.read(OpOrderFind, func(d *state) error {
		o, ok := d.orders[id]
		if !ok {
			return order.ErrOrderNotFound
		}
		c := copyOrder(o)
		out = &c
		return nil
	})
	return out, err
}

// LockByID 事务已串行化,直接读取
func (r *OrderRepo) LockByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, o *order.Order) error {
	return r.s.write(ctx, OpOrderUpdateStatus, func(d *state) error {
		existing, ok := d.orders[o.ID]
		if !ok {
			return order.ErrOrderNotFound
		}
		existing.Status = o.Status
		existing.UpdatedAt = o.UpdatedAt
		d.orders[o.ID] = existing
		return nil
	})
}

func (r *OrderRepo) ListByUserID(ctx context.Context, userID uint, params order.ListParams) ([]*order.Order, int64, error) {
	return r.list(params, func(o order.Order) bool { return o.UserID == userID })
}

func (r *OrderRepo) List(ctx context.Context, params order.ListParams) ([]*order.Order, int64, error) {
	return r.list(params, func(order.Order) bool { return true })
}

func (r *OrderRepo) list(params order.ListParams, keep func(order.Order) bool) ([]*order.Order, int64, error) {
	var matched []order.Order
	_ = r.s.read("", func(d *state) error {
		for _, o := range d.orders {
			if !keep(o) {
				continue
			}
			if params.Status != "" && o.Status != params.Status {
				continue
			}
			if !params.Start.IsZero() && o.CreatedAt.Before(params.Start) {
				continue
			}
			if !params.End.IsZero() && !o.CreatedAt.Before(params.End) {
				continue
			}
			matched = append(matched, copyOrder(o))
		}
		return nil
	})

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start, end := paginate(len(matched), params.Page, params.PageSize)
	out := make([]*order.Order, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, &matched[i])
	}
	return out, int64(len(matched)), nil
}
