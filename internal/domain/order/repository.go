package order

import (
	"context"
	"time"
)

// Repository 订单仓储接口
// 支持事务操作(通过context传递事务)
type Repository interface {
	// Create 创建订单(包含订单明细),回填ID
	Create(ctx context.Context, order *Order) error

	// FindByID 根据ID查找订单(包含订单明细)
	FindByID(ctx context.Context, id uint) (*Order, error)

	// LockByID 悲观锁查询订单(包含订单明细),必须在事务内调用
	// 取消与管理员改状态并发时,只有一个能看到PENDING
	LockByID(ctx context.Context, id uint) (*Order, error)

	// UpdateStatus 更新订单状态
	UpdateStatus(ctx context.Context, order *Order) error

	// ListByUserID 查询用户的订单列表(按创建时间倒序)
	ListByUserID(ctx context.Context, userID uint, params ListParams) ([]*Order, int64, error)

	// List 管理端订单列表
	List(ctx context.Context, params ListParams) ([]*Order, int64, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page     int
	PageSize int
	Status   Status    // 为空不过滤
	Start    time.Time // 创建时间下界(含),零值不过滤
	End      time.Time // 创建时间上界(不含),零值不过滤
}
