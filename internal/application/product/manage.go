package product

import (
	"context"

	"github.com/xiebiao/storefront/internal/application/shared"
	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/domain/tx"
	"github.com/xiebiao/storefront/pkg/logger"
)

// ManageUseCase 管理员商品操作:改状态、补货、库存流水
type ManageUseCase struct {
	products  product.Repository
	ledger    *inventory.Ledger
	txManager tx.Manager
}

// NewManageUseCase 创建商品管理用例
func NewManageUseCase(products product.Repository, ledger *inventory.Ledger, txManager tx.Manager) *ManageUseCase {
	return &ManageUseCase{
		products:  products,
		ledger:    ledger,
		txManager: txManager,
	}
}

// ChangeStatus 修改商品状态
// 下架/删除不影响已有订单:订单明细保存的是价格和名称快照
func (uc *ManageUseCase) ChangeStatus(ctx context.Context, id uint, status string) (*ProductView, error) {
	var updated *product.Product
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		p, err := uc.products.LockByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := p.ChangeStatus(product.Status(status)); err != nil {
			return err
		}
		if err := uc.products.UpdateStatus(txCtx, id, p.Status); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).Uint("product_id", id).Str("status", status).Msg("商品状态变更")
	return toProductView(updated, true), nil
}

// RestockResult 补货结果
type RestockResult struct {
	ProductID uint `json:"product_id"`
	Stock     int  `json:"stock"`
}

// Restock 补货
func (uc *ManageUseCase) Restock(ctx context.Context, id uint, quantity int, remark string) (*RestockResult, error) {
	var after int
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		p, err := uc.products.LockByID(txCtx, id)
		if err != nil {
			return err
		}
		if p.Status == product.StatusDeleted {
			return product.ErrProductNotFound
		}
		after, err = uc.ledger.Restock(txCtx, id, quantity, remark)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).Uint("product_id", id).Int("quantity", quantity).Int("stock", after).Msg("商品补货")
	return &RestockResult{ProductID: id, Stock: after}, nil
}

// LogPage 库存流水分页
type LogPage struct {
	List     []InventoryLogView
	Total    int64
	Page     int
	PageSize int
}

// InventoryLogs 商品库存流水(按时间倒序)
func (uc *ManageUseCase) InventoryLogs(ctx context.Context, id uint, page, pageSize int) (*LogPage, error) {
	page, pageSize = shared.NormalizePage(page, pageSize)

	if _, err := shared.RetryRead(ctx, "product.FindByID", func(ctx context.Context) (*product.Product, error) {
		return uc.products.FindByID(ctx, id)
	}); err != nil {
		return nil, err
	}

	type result struct {
		logs  []*inventory.Log
		total int64
	}
	res, err := shared.RetryRead(ctx, "inventory.Logs", func(ctx context.Context) (result, error) {
		logs, total, err := uc.ledger.Logs(ctx, id, page, pageSize)
		return result{logs: logs, total: total}, err
	})
	if err != nil {
		return nil, err
	}

	views := make([]InventoryLogView, 0, len(res.logs))
	for _, l := range res.logs {
		views = append(views, toLogView(l))
	}
	return &LogPage{List: views, Total: res.total, Page: page, PageSize: pageSize}, nil
}
