// Package inventory 库存台账
//
// Ledger是修改Product.Stock的唯一入口。扣减使用条件更新
// (UPDATE ... SET stock = stock - ? WHERE id = ? AND stock >= ?),
// 检查与扣减是同一条语句,两个并发请求抢最后一件时只有一个能成功。
package inventory

import (
	"context"

	"github.com/xiebiao/storefront/internal/domain/product"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// ErrInvalidQuantity 数量必须为正
var ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidQuantity, "库存变动数量必须大于0")

// Ledger 库存台账
type Ledger struct {
	products product.Repository
	logs     LogRepository
}

// NewLedger 创建库存台账
func NewLedger(products product.Repository, logs LogRepository) *Ledger {
	return &Ledger{products: products, logs: logs}
}

// Reserve 为订单行扣减库存
// 库存不足返回指明商品的ErrInsufficientStock;调用方所在事务应整体回滚
func (l *Ledger) Reserve(ctx context.Context, productID uint, qty int, orderID uint) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	after, err := l.products.UpdateStock(ctx, productID, -qty)
	if err != nil {
		if apperrors.GetAppError(err).Code == apperrors.ErrCodeInsufficientStock {
			return product.InsufficientStock(productID, qty, after)
		}
		return err
	}

	return l.logs.Create(ctx, newLog(productID, ChangeTypeDeduct, -qty, after, orderID, ""))
}

// Release 归还订单行的库存,qty必须是当初Reserve的数量
func (l *Ledger) Release(ctx context.Context, productID uint, qty int, orderID uint, reason string) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	after, err := l.products.UpdateStock(ctx, productID, qty)
	if err != nil {
		return err
	}

	return l.logs.Create(ctx, newLog(productID, ChangeTypeRelease, qty, after, orderID, reason))
}

// Restock 管理员补货
func (l *Ledger) Restock(ctx context.Context, productID uint, qty int, remark string) (int, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}

	after, err := l.products.UpdateStock(ctx, productID, qty)
	if err != nil {
		return 0, err
	}

	if err := l.logs.Create(ctx, newLog(productID, ChangeTypeRestock, qty, after, 0, remark)); err != nil {
		return 0, err
	}
	return after, nil
}

// Logs 商品库存流水
func (l *Ledger) Logs(ctx context.Context, productID uint, page, pageSize int) ([]*Log, int64, error) {
	return l.logs.ListByProduct(ctx, productID, page, pageSize)
}
