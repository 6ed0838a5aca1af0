package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/product"
)

// ProductRepo 实现product.Repository
type ProductRepo struct{ s *Store }

// Products 商品仓储
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	return r.s.write(ctx, "", func(d *state) error {
		p.ID = d.nextID()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = r.s.now()
			p.UpdatedAt = p.CreatedAt
		}
		d.products[p.ID] = copyProduct(*p)
		return nil
	})
}

func (r *ProductRepo) FindByID(ctx context.Context, id uint) (*product.Product, error) {
	var out *product.Product
	err := r.s.read(OpProductFind, func(d *state) error {
		p, ok := d.products[id]
		if !ok {
			return product.ErrProductNotFound
		}
		c := copyProduct(p)
		out = &c
		return nil
	})
	return out, err
}

func (r *ProductRepo) FindManyByIDs(ctx context.Context, ids []uint) ([]*product.Product, error) {
	var out []*product.Product
	err := r.s.read(OpProductFind, func(d *state) error {
		for _, id := range ids {
			if p, ok := d.products[id]; ok {
				c := copyProduct(p)
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}

// LockByID 事务已串行化,直接读取
func (r *ProductRepo) LockByID(ctx context.Context, id uint) (*product.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *ProductRepo) UpdateStock(ctx context.Context, id uint, delta int) (int, error) {
	var after int
	err := r.s.write(ctx, OpProductUpdateStock, func(d *state) error {
		p, ok := d.products[id]
		if !ok {
			return product.ErrProductNotFound
		}
		if p.Stock+delta < 0 {
			after = p.Stock
			return product.ErrInsufficientStock
		}
		p.Stock += delta
		p.UpdatedAt = r.s.now()
		d.products[id] = p
		after = p.Stock
		return nil
	})
	return after, err
}

func (r *ProductRepo) UpdateAverageRating(ctx context.Context, id uint, avg float64) error {
	return r.s.write(ctx, OpProductUpdateRating, func(d *state) error {
		p, ok := d.products[id]
		if !ok {
			return product.ErrProductNotFound
		}
		p.AverageRating = avg
		d.products[id] = p
		return nil
	})
}

func (r *ProductRepo) UpdateStatus(ctx context.Context, id uint, status product.Status) error {
	return r.s.write(ctx, "", func(d *state) error {
		p, ok := d.products[id]
		if !ok {
			return product.ErrProductNotFound
		}
		p.Status = status
		p.UpdatedAt = r.s.now()
		d.products[id] = p
		return nil
	})
}

func (r *ProductRepo) List(ctx context.Context, params product.ListParams) ([]*product.Product, int64, error) {
	var matched []product.Product
	_ = r.s.read("", func(d *state) error {
		kw := strings.ToLower(params.Keyword)
		for _, p := range d.products {
			if params.Status != "" && p.Status != params.Status {
				continue
			}
			if params.CategoryID != 0 && p.CategoryID != params.CategoryID {
				continue
			}
			if kw != "" && !strings.Contains(strings.ToLower(p.Name), kw) &&
				!strings.Contains(strings.ToLower(p.Description), kw) {
				continue
			}
			matched = append(matched, copyProduct(p))
		}
		return nil
	})

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch params.SortBy {
		case "price_asc":
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case "price_desc":
			if a.Price != b.Price {
				return a.Price > b.Price
			}
		case "rating_desc":
			if a.AverageRating != b.AverageRating {
				return a.AverageRating > b.AverageRating
			}
		}
		return a.ID > b.ID
	})

	start, end := paginate(len(matched), params.Page, params.PageSize)
	out := make([]*product.Product, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, &matched[i])
	}
	return out, int64(len(matched)), nil
}

// InventoryLogRepo 实现inventory.LogRepository
type InventoryLogRepo struct{ s *Store }

// InventoryLogs 库存流水仓储
func (s *Store) InventoryLogs() *InventoryLogRepo { return &InventoryLogRepo{s: s} }

func (r *InventoryLogRepo) Create(ctx context.Context, l *inventory.Log) error {
	return r.s.write(ctx, OpInventoryLogCreate, func(d *state) error {
		l.ID = d.nextID()
		d.logs = append(d.logs, *l)
		return nil
	})
}

func (r *InventoryLogRepo) ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]*inventory.Log, int64, error) {
	var matched []inventory.Log
	_ = r.s.read("", func(d *state) error {
		for i := len(d.logs) - 1; i >= 0; i-- {
			if d.logs[i].ProductID == productID {
				matched = append(matched, d.logs[i])
			}
		}
		return nil
	})

	start, end := paginate(len(matched), page, pageSize)
	out := make([]*inventory.Log, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, &matched[i])
	}
	return out, int64(len(matched)), nil
}

func (r *InventoryLogRepo) ListByOrder(ctx context.Context, orderID uint) ([]*inventory.Log, error) {
	var out []*inventory.Log
	err := r.s.read("", func(d *state) error {
		for _, l := range d.logs {
			if l.OrderID == orderID {
				c := l
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}
