package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/storefront/internal/domain/product"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// productRepository 商品仓储实现
// 设计说明:
// 1. 实现domain/product/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 所有方法通过getDB(ctx)参与调用方的事务
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *product.Product) error {
	model := toProductModel(p)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建商品失败")
	}

	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*product.Product, error) {
	var model ProductModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "查询商品失败")
	}
	return toProductEntity(&model), nil
}

func (r *productRepository) FindManyByIDs(ctx context.Context, ids []uint) ([]*product.Product, error) {
	if len(ids) == 0 {
		return []*product.Product{}, nil
	}

	var models []ProductModel
	if err := getDB(ctx, r.db).Where("id IN ?", ids).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "批量查询商品失败")
	}

	products := make([]*product.Product, len(models))
	for i := range models {
		products[i] = toProductEntity(&models[i])
	}
	return products, nil
}

// LockByID SELECT ... FOR UPDATE
// 必须在事务内调用,锁持有到事务结束
func (r *productRepository) LockByID(ctx context.Context, id uint) (*product.Product, error) {
	var model ProductModel
	err := getDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "锁定商品失败")
	}
	return toProductEntity(&model), nil
}

// UpdateStock 原子更新库存
// UPDATE products SET stock = stock + delta WHERE id = ? AND stock + delta >= 0
// 检查与更新是同一条语句;更新后在同一事务内读回库存(行锁由UPDATE持有)
func (r *productRepository) UpdateStock(ctx context.Context, id uint, delta int) (int, error) {
	var after int
	err := getDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&ProductModel{}).
			Where("id = ?", id).
			Where("stock + ? >= 0", delta).
			Update("stock", gorm.Expr("stock + ?", delta))
		if result.Error != nil {
			return apperrors.Wrap(result.Error, "更新库存失败")
		}

		var model ProductModel
		if err := tx.Select("id", "stock").First(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return product.ErrProductNotFound
			}
			return apperrors.Wrap(err, "查询库存失败")
		}
		after = model.Stock

		if result.RowsAffected == 0 {
			// 商品存在,说明是库存不足
			return product.ErrInsufficientStock
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, product.ErrInsufficientStock) {
			return after, err
		}
		return 0, err
	}
	return after, nil
}

func (r *productRepository) UpdateAverageRating(ctx context.Context, id uint, avg float64) error {
	result := getDB(ctx, r.db).Model(&ProductModel{}).Where("id = ?", id).Update("average_rating", avg)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新平均评分失败")
	}
	return nil
}

func (r *productRepository) UpdateStatus(ctx context.Context, id uint, status product.Status) error {
	result := getDB(ctx, r.db).Model(&ProductModel{}).Where("id = ?", id).Update("status", string(status))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新商品状态失败")
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := getDB(ctx, r.db).Model(&ProductModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "查询商品失败")
		}
		if count == 0 {
			return product.ErrProductNotFound
		}
	}
	return nil
}

// List 分页查询商品列表
func (r *productRepository) List(ctx context.Context, params product.ListParams) ([]*product.Product, int64, error) {
	var models []ProductModel
	var total int64

	query := getDB(ctx, r.db).Model(&ProductModel{})
	if params.Status != "" {
		query = query.Where("status = ?", string(params.Status))
	}
	if params.CategoryID != 0 {
		query = query.Where("category_id = ?", params.CategoryID)
	}
	if params.Keyword != "" {
		keyword := "%" + params.Keyword + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", keyword, keyword)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询商品总数失败")
	}

	switch params.SortBy {
	case "price_asc":
		query = query.Order("price ASC")
	case "price_desc":
		query = query.Order("price DESC")
	case "rating_desc":
		query = query.Order("average_rating DESC")
	default:
		query = query.Order("created_at DESC")
	}
	query = query.Order("id ASC")

	if err := query.Limit(params.PageSize).Offset(offset(params.Page, params.PageSize)).Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询商品列表失败")
	}

	products := make([]*product.Product, len(models))
	for i := range models {
		products[i] = toProductEntity(&models[i])
	}
	return products, total, nil
}

func toProductModel(p *product.Product) *ProductModel {
	return &ProductModel{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Stock:         p.Stock,
		Status:        string(p.Status),
		AverageRating: p.AverageRating,
		CategoryID:    p.CategoryID,
		Images:        p.Images,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toProductEntity(model *ProductModel) *product.Product {
	return &product.Product{
		ID:            model.ID,
		Name:          model.Name,
		Description:   model.Description,
		Price:         model.Price,
		Stock:         model.Stock,
		Status:        product.Status(model.Status),
		AverageRating: model.AverageRating,
		CategoryID:    model.CategoryID,
		Images:        model.Images,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
