// Package memstore 内存版仓储,供应用层测试使用
//
// 事务语义:
//   - Transaction串行执行(全局事务锁),开始时复制一份快照,fn返回错误或panic时恢复快照
//   - 事务外的写操作同样获取事务锁,不会被并发事务的回滚覆盖
//   - 事务内的调用通过ctx标记识别,不会重复加锁
//
// 可以通过FailOn注入故障,验证失败时没有任何部分写入。
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/domain/rating"
	"github.com/xiebiao/storefront/internal/domain/user"
)

// 可注入故障的操作名
const (
	OpProductUpdateStock    = "product.UpdateStock"
	OpProductUpdateRating   = "product.UpdateAverageRating"
	OpProductFind           = "product.Find"
	OpOrderCreate           = "order.Create"
	OpOrderUpdateStatus     = "order.UpdateStatus"
	OpOrderFind             = "order.Find"
	OpCartRemoveItems       = "cart.RemoveItems"
	OpInventoryLogCreate    = "inventory.CreateLog"
	OpRatingUpsert          = "rating.Upsert"
	OpRatingDelete          = "rating.Delete"
	OpRatingScoresByProduct = "rating.ScoresByProduct"
)

type txKey struct{}

type cartKey struct{ userID, productID uint }

type ratingKey struct{ userID, productID uint }

type injection struct {
	skip int
	err  error
}

type state struct {
	seq      uint
	products map[uint]product.Product
	cart     map[cartKey]cart.Item
	orders   map[uint]order.Order
	ratings  map[ratingKey]rating.Rating
	logs     []inventory.Log
	users    map[uint]user.User
}

func newState() *state {
	return &state{
		products: make(map[uint]product.Product),
		cart:     make(map[cartKey]cart.Item),
		orders:   make(map[uint]order.Order),
		ratings:  make(map[ratingKey]rating.Rating),
		users:    make(map[uint]user.User),
	}
}

func (d *state) nextID() uint {
	d.seq++
	return d.seq
}

func (d *state) clone() *state {
	c := newState()
	c.seq = d.seq
	for k, v := range d.products {
		c.products[k] = copyProduct(v)
	}
	for k, v := range d.cart {
		c.cart[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range d.ratings {
		c.ratings[k] = v
	}
	c.logs = append([]inventory.Log(nil), d.logs...)
	for k, v := range d.users {
		c.users[k] = v
	}
	return c
}

func copyProduct(p product.Product) product.Product {
	p.Images = append([]string(nil), p.Images...)
	return p
}

func copyOrder(o order.Order) order.Order {
	o.Items = append([]order.Item(nil), o.Items...)
	return o
}

// Store 内存存储
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data *state

	failures map[string]*injection
	now      func() time.Time
}

// New 创建空存储
func New() *Store {
	return &Store{
		data:     newState(),
		failures: make(map[string]*injection),
		now:      time.Now,
	}
}

// Transaction 实现tx.Manager
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	rollback := func() {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
	}

	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		rollback()
	}
	return err
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// FailOn 下一次调用op时返回err
func (s *Store) FailOn(op string, err error) {
	s.FailOnNth(op, 1, err)
}

// FailOnNth 第n次(从1开始)调用op时返回err
func (s *Store) FailOnNth(op string, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = &injection{skip: n - 1, err: err}
}

// check 调用方需持有mu
func (s *Store) check(op string) error {
	inj, ok := s.failures[op]
	if !ok {
		return nil
	}
	if inj.skip > 0 {
		inj.skip--
		return nil
	}
	delete(s.failures, op)
	return inj.err
}

func (s *Store) write(ctx context.Context, op string, fn func(d *state) error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(op); err != nil {
		return err
	}
	return fn(s.data)
}

func (s *Store) read(op string, fn func(d *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if op != "" {
		if err := s.check(op); err != nil {
			return err
		}
	}
	return fn(s.data)
}

// Snapshot 当前数据的深拷贝,用于断言失败操作没有留下痕迹
type Snapshot struct {
	Products map[uint]product.Product
	Cart     []cart.Item
	Orders   map[uint]order.Order
	Ratings  []rating.Rating
	Logs     []inventory.Log
}

// Snapshot 导出当前数据
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.data.clone()
	snap := Snapshot{Products: d.products, Orders: d.orders, Logs: d.logs}
	for _, it := range d.cart {
		snap.Cart = append(snap.Cart, it)
	}
	sort.Slice(snap.Cart, func(i, j int) bool { return snap.Cart[i].ID < snap.Cart[j].ID })
	for _, r := range d.ratings {
		snap.Ratings = append(snap.Ratings, r)
	}
	sort.Slice(snap.Ratings, func(i, j int) bool { return snap.Ratings[i].ID < snap.Ratings[j].ID })
	return snap
}

// SeedProduct 直接写入商品(不经过仓储校验),返回带ID的副本
func (s *Store) SeedProduct(p product.Product) *product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		p.ID = s.data.nextID()
	}
	if p.Status == "" {
		p.Status = product.StatusActive
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
		p.UpdatedAt = p.CreatedAt
	}
	s.data.products[p.ID] = copyProduct(p)
	out := copyProduct(p)
	return &out
}

// Stock 商品当前库存,商品不存在时panic
func (s *Store) Stock(productID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.data.products[productID]
	if !ok {
		panic(fmt.Sprintf("memstore: product %d not found", productID))
	}
	return p.Stock
}

// OrderCount 订单数量
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orders)
}

func paginate(total, page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		return 0, total
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}
