package inventory

import (
	"context"
	"time"
)

// ChangeType 库存变动类型
type ChangeType string

const (
	ChangeTypeDeduct  ChangeType = "DEDUCT"  // 下单扣减
	ChangeTypeRelease ChangeType = "RELEASE" // 取消归还
	ChangeTypeRestock ChangeType = "RESTOCK" // 管理员补货
)

// Log 库存流水
// 每次库存变动写一条,与库存更新在同一事务内,用于审计与对账:
// 某商品的 Σ Quantity 应等于 当前库存 - 初始库存
type Log struct {
	ID          uint
	ProductID   uint
	ChangeType  ChangeType
	Quantity    int // 正数增加,负数减少
	BeforeStock int
	AfterStock  int
	OrderID     uint // 补货时为0
	Remark      string
	CreatedAt   time.Time
}

// LogRepository 库存流水仓储
type LogRepository interface {
	Create(ctx context.Context, log *Log) error

	// ListByProduct 商品的流水(按时间倒序)
	ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]*Log, int64, error)

	// ListByOrder 订单相关的流水
	ListByOrder(ctx context.Context, orderID uint) ([]*Log, error)
}

func newLog(productID uint, t ChangeType, delta, after int, orderID uint, remark string) *Log {
	return &Log{
		ProductID:   productID,
		ChangeType:  t,
		Quantity:    delta,
		BeforeStock: after - delta,
		AfterStock:  after,
		OrderID:     orderID,
		Remark:      remark,
		CreatedAt:   time.Now(),
	}
}
