package product

import (
	"context"

	"github.com/xiebiao/storefront/internal/application/shared"
	"github.com/xiebiao/storefront/internal/domain/product"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// QueryUseCase 商品查询用例
type QueryUseCase struct {
	products product.Repository
}

// NewQueryUseCase 创建商品查询用例
func NewQueryUseCase(products product.Repository) *QueryUseCase {
	return &QueryUseCase{products: products}
}

// ListRequest 列表查询请求
type ListRequest struct {
	Page       int
	PageSize   int
	Keyword    string // 搜索名称、描述
	Status     string // 仅管理员可指定;普通用户固定为ACTIVE
	CategoryID uint
	SortBy     string // price_asc | price_desc | rating_desc | created_at_desc
	IsAdmin    bool
}

// ListResponse 列表查询响应
type ListResponse struct {
	List     []*ProductView
	Total    int64
	Page     int
	PageSize int
}

var sortOptions = map[string]bool{
	"":                true,
	"price_asc":       true,
	"price_desc":      true,
	"rating_desc":     true,
	"created_at_desc": true,
}

// List 分页查询商品
func (uc *QueryUseCase) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	page, size := shared.NormalizePage(req.Page, req.PageSize)
	if !sortOptions[req.SortBy] {
		return nil, apperrors.ErrInvalidParams.WithMessage("不支持的排序方式: %s", req.SortBy)
	}

	status := product.StatusActive
	if req.IsAdmin && req.Status != "" {
		status = product.Status(req.Status)
		if !status.IsValid() {
			return nil, product.ErrInvalidStatus
		}
	}

	params := product.ListParams{
		Page:       page,
		PageSize:   size,
		Keyword:    req.Keyword,
		Status:     status,
		CategoryID: req.CategoryID,
		SortBy:     req.SortBy,
	}

	type result struct {
		list  []*product.Product
		total int64
	}
	res, err := shared.RetryRead(ctx, "product.List", func(ctx context.Context) (result, error) {
		list, total, err := uc.products.List(ctx, params)
		return result{list: list, total: total}, err
	})
	if err != nil {
		return nil, err
	}

	views := make([]*ProductView, 0, len(res.list))
	for _, p := range res.list {
		views = append(views, toProductView(p, false))
	}
	return &ListResponse{List: views, Total: res.total, Page: page, PageSize: size}, nil
}

// Get 商品详情,已删除的商品对外不可见
func (uc *QueryUseCase) Get(ctx context.Context, id uint) (*ProductView, error) {
	p, err := shared.RetryRead(ctx, "product.FindByID", func(ctx context.Context) (*product.Product, error) {
		return uc.products.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if p.Status == product.StatusDeleted {
		return nil, product.ErrProductNotFound
	}
	return toProductView(p, true), nil
}
