// Package cart 购物车
//
// 每个(用户, 商品)只有一行,数量在写入时截断到当时的库存。
// 下单流程只读取购物车、并在同一事务内删除已下单的行,不修改数量。
package cart

import (
	"context"
	"time"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// Item 购物车行
type Item struct {
	ID        uint
	UserID    uint
	ProductID uint
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line 下单使用的(商品, 数量)
type Line struct {
	ProductID uint
	Quantity  int
}

var (
	// ErrItemNotFound 购物车中没有该商品
	ErrItemNotFound = apperrors.New(apperrors.ErrCodeNotFound, "购物车中没有该商品")

	// ErrInvalidQuantity 数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidQuantity, "数量必须大于0")
)

// Repository 购物车仓储接口
type Repository interface {
	// ListItems 查询用户购物车,按加入时间排序
	ListItems(ctx context.Context, userID uint) ([]*Item, error)

	// RemoveItems 删除用户购物车中指定商品的行,不存在的行忽略
	RemoveItems(ctx context.Context, userID uint, productIDs []uint) error

	// AddItem 加入购物车
	// 已存在则累加数量,累加结果超过maxQuantity时截断为maxQuantity
	// 返回写入后的行
	AddItem(ctx context.Context, userID, productID uint, quantity, maxQuantity int) (*Item, error)

	// SetQuantity 锁定已有行并把数量设为quantity,超过maxQuantity时截断
	// 不存在返回ErrItemNotFound
	SetQuantity(ctx context.Context, userID, productID uint, quantity, maxQuantity int) (*Item, error)

	// RemoveItem 删除单行,不存在返回ErrItemNotFound
	RemoveItem(ctx context.Context, userID, productID uint) error
}

// Lines 转换为下单行
func Lines(items []*Item) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

// ClampQuantity 计算累加后的数量,不超过上限
func ClampQuantity(current, add, max int) int {
	q := current + add
	if q > max {
		q = max
	}
	return q
}
