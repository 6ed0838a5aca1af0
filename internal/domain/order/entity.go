package order

import (
	"time"
)

// Status 订单状态
// 状态机:
//
//	PENDING → COMPLETED
//	PENDING → CANCELED
//	PENDING → FAILED
//
// 三个目标状态都是终态,终态之后没有任何合法转换
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCanceled  Status = "CANCELED"
	StatusFailed    Status = "FAILED"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusCanceled, StatusFailed},
	StatusCompleted: {},
	StatusCanceled:  {},
	StatusFailed:    {},
}

// ParseStatus 解析状态字符串
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// IsTerminal 是否为终态
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Order 订单实体(聚合根)
// 设计说明:
// 1. Order是聚合根,Item是子实体,只在下单时一起创建,之后不可修改
// 2. Total在创建时按快照价格计算并冗余存储,之后商品改价不影响历史订单
// 3. 订单永不删除
type Order struct {
	ID        uint
	OrderNo   string // 订单号(业务主键,全局唯一)
	UserID    uint
	Total     int64 // 订单总金额(分)
	Status    Status
	Items     []Item
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item 订单明细
// Price是下单时的单价快照;只保存ProductID,不跨聚合引用Product
type Item struct {
	ID          uint
	OrderID     uint
	ProductID   uint
	ProductName string // 下单时的商品名称快照
	Quantity    int
	Price       int64
}

// Subtotal 小计
func (i Item) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// NewOrder 创建新订单(工厂方法),初始状态为PENDING
func NewOrder(orderNo string, userID uint, items []Item) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	now := time.Now()
	o := &Order{
		OrderNo:   orderNo,
		UserID:    userID,
		Status:    StatusPending,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.Total = o.CalculateTotal()
	return o, nil
}

// CanTransitionTo 检查是否可以转换到目标状态
func (o *Order) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[o.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo 状态转换,非法转换返回ErrInvalidTransition
func (o *Order) TransitionTo(target Status) error {
	if _, ok := transitions[target]; !ok {
		return ErrInvalidStatus
	}
	if !o.CanTransitionTo(target) {
		return ErrInvalidTransition.WithMessage("订单状态%s不能变更为%s", o.Status, target)
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}

// Cancel 取消订单
func (o *Order) Cancel() error {
	return o.TransitionTo(StatusCanceled)
}

// CalculateTotal 按明细快照价格计算总金额
func (o *Order) CalculateTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	return total
}

// IsOwnedBy 检查订单是否属于指定用户
func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID == userID
}
