package product

import (
	"context"

	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/domain/tx"
	"github.com/xiebiao/storefront/pkg/logger"
)

// CreateProductUseCase 商品上架用例(管理员)
// 初始库存通过库存台账写入,留下一条RESTOCK流水
type CreateProductUseCase struct {
	products  product.Repository
	ledger    *inventory.Ledger
	txManager tx.Manager
}

// NewCreateProductUseCase 创建上架用例
func NewCreateProductUseCase(products product.Repository, ledger *inventory.Ledger, txManager tx.Manager) *CreateProductUseCase {
	return &CreateProductUseCase{
		products:  products,
		ledger:    ledger,
		txManager: txManager,
	}
}

// CreateProductRequest 上架请求
type CreateProductRequest struct {
	Name        string
	Description string
	Price       int64 // 价格(分)
	Stock       int   // 初始库存
	CategoryID  uint
	Images      []string
}

// Execute 执行上架
func (uc *CreateProductUseCase) Execute(ctx context.Context, req CreateProductRequest) (*ProductView, error) {
	p, err := product.NewProduct(req.Name, req.Description, req.Price, req.Stock, req.CategoryID, req.Images)
	if err != nil {
		return nil, err
	}

	initial := p.Stock
	p.Stock = 0

	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := uc.products.Create(txCtx, p); err != nil {
			return err
		}
		if initial == 0 {
			return nil
		}
		after, err := uc.ledger.Restock(txCtx, p.ID, initial, "初始库存")
		if err != nil {
			return err
		}
		p.Stock = after
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).Uint("product_id", p.ID).Str("name", p.Name).Int("stock", p.Stock).Msg("商品上架")
	return toProductView(p, true), nil
}
