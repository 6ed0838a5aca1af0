package memstore

import (
	"context"
	"sort"

	"github.com/xiebiao/storefront/internal/domain/cart"
)

// CartRepo 实现cart.Repository
type CartRepo struct{ s *Store }

// Carts 购物车仓储
func (s *Store) Carts() *CartRepo { return &CartRepo{s: s} }

func (r *CartRepo) ListItems(ctx context.Context, userID uint) ([]*cart.Item, error) {
	var out []*cart.Item
	err := r.s.read("", func(d *state) error {
		for k, it := range d.cart {
			if k.userID == userID {
				c := it
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *CartRepo) RemoveItems(ctx context.Context, userID uint, productIDs []uint) error {
	return r.s.write(ctx, OpCartRemoveItems, func(d *state) error {
		for _, pid := range productIDs {
			delete(d.cart, cartKey{userID, pid})
		}
		return nil
	})
}

func (r *CartRepo) AddItem(ctx context.Context, userID, productID uint, quantity, maxQuantity int) (*cart.Item, error) {
	var out cart.Item
	err := r.s.write(ctx, "", func(d *state) error {
		key := cartKey{userID, productID}
		now := r.s.now()
		it, ok := d.cart[key]
		if !ok {
			it = cart.Item{ID: d.nextID(), UserID: userID, ProductID: productID, CreatedAt: now}
		}
		it.Quantity = cart.ClampQuantity(it.Quantity, quantity, maxQuantity)
		it.UpdatedAt = now
		d.cart[key] = it
		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CartRepo) SetQuantity(ctx context.Context, userID, productID uint, quantity, maxQuantity int) (*cart.Item, error) {
	var out cart.Item
	err := r.s.write(ctx, "", func(d *state) error {
		key := cartKey{userID, productID}
		it, ok := d.cart[key]
		if !ok {
			return cart.ErrItemNotFound
		}
		it.Quantity = cart.ClampQuantity(0, quantity, maxQuantity)
		it.UpdatedAt = r.s.now()
		d.cart[key] = it
		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CartRepo) RemoveItem(ctx context.Context, userID, productID uint) error {
	return r.s.write(ctx, "", func(d *state) error {
		key := cartKey{userID, productID}
		if _, ok := d.cart[key]; !ok {
			return cart.ErrItemNotFound
		}
		delete(d.cart, key)
		return nil
	})
}
