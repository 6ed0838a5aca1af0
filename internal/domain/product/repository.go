package product

import (
	"context"
)

// Repository 商品仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 在事务内调用时,实现从ctx中取出事务句柄
type Repository interface {
	// Create 创建商品
	Create(ctx context.Context, p *Product) error

	// FindByID 根据ID查找商品,不存在返回ErrProductNotFound
	FindByID(ctx context.Context, id uint) (*Product, error)

	// FindManyByIDs 批量查询,不存在的ID直接忽略(由调用方判断缺失)
	FindManyByIDs(ctx context.Context, ids []uint) ([]*Product, error)

	// LockByID 悲观锁查询(SELECT ... FOR UPDATE),必须在事务内调用
	// 下单时按ID升序加锁,避免死锁
	LockByID(ctx context.Context, id uint) (*Product, error)

	// UpdateStock 原子更新库存
	// delta为负数表示扣减,扣减后库存不能为负(条件更新,检查和扣减是一条SQL)
	// 成功返回更新后的库存;库存不足返回(当前库存, ErrInsufficientStock);商品不存在返回ErrProductNotFound
	UpdateStock(ctx context.Context, id uint, delta int) (int, error)

	// UpdateAverageRating 写入重算后的平均评分
	UpdateAverageRating(ctx context.Context, id uint, avg float64) error

	// UpdateStatus 修改商品状态
	UpdateStatus(ctx context.Context, id uint, status Status) error

	// List 分页查询商品列表
	List(ctx context.Context, params ListParams) ([]*Product, int64, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page       int    // 页码(从1开始)
	PageSize   int    // 每页数量
	Keyword    string // 搜索关键词(名称、描述)
	Status     Status // 为空时不过滤
	CategoryID uint   // 为0时不过滤
	SortBy     string // price_asc | price_desc | rating_desc | created_at_desc
}
