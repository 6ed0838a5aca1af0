package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/storefront/internal/domain/cart"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) cart.Repository {
	return &cartRepository{db: db}
}

func (r *cartRepository) ListItems(ctx context.Context, userID uint) ([]*cart.Item, error) {
	var models []CartItemModel
	err := getDB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询购物车失败")
	}

	items := make([]*cart.Item, len(models))
	for i := range models {
		items[i] = toCartItemEntity(&models[i])
	}
	return items, nil
}

func (r *cartRepository) RemoveItems(ctx context.Context, userID uint, productIDs []uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	err := getDB(ctx, r.db).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Delete(&CartItemModel{}).Error
	if err != nil {
		return apperrors.Wrap(err, "删除购物车商品失败")
	}
	return nil
}

// AddItem 锁定已有行后累加;并发首次插入撞上唯一索引时按已有行重试一次
// 插入放在嵌套事务(SAVEPOINT)里:PostgreSQL插入失败后整个事务不可用,需要先回滚到保存点
func (r *cartRepository) AddItem(ctx context.Context, userID, productID uint, quantity, maxQuantity int) (*cart.Item, error) {
	var model CartItemModel
	err := getDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		for attempt := 0; ; attempt++ {
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ? AND product_id = ?", userID, productID).
				First(&model).Error
			switch {
			case err == nil:
				model.Quantity = cart.ClampQuantity(model.Quantity, quantity, maxQuantity)
				if err := tx.Model(&model).Update("quantity", model.Quantity).Error; err != nil {
					return apperrors.Wrap(err, "更新购物车失败")
				}
				return nil
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return apperrors.Wrap(err, "查询购物车失败")
			}

			model = CartItemModel{
				UserID:    userID,
				ProductID: productID,
				Quantity:  cart.ClampQuantity(0, quantity, maxQuantity),
			}
			err = tx.Transaction(func(sp *gorm.DB) error {
				return sp.Create(&model).Error
			})
			if err == nil {
				return nil
			}
			if !isDuplicateError(err) || attempt > 0 {
				return apperrors.Wrap(err, "加入购物车失败")
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return toCartItemEntity(&model), nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, userID, productID uint, quantity, maxQuantity int) (*cart.Item, error) {
	var model CartItemModel
	err := getDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cart.ErrItemNotFound
			}
			return apperrors.Wrap(err, "查询购物车失败")
		}

		model.Quantity = cart.ClampQuantity(0, quantity, maxQuantity)
		if err := tx.Model(&model).Update("quantity", model.Quantity).Error; err != nil {
			return apperrors.Wrap(err, "更新购物车失败")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toCartItemEntity(&model), nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID uint) error {
	result := getDB(ctx, r.db).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&CartItemModel{})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除购物车商品失败")
	}
	if result.RowsAffected == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

func toCartItemEntity(model *CartItemModel) *cart.Item {
	return &cart.Item{
		ID:        model.ID,
		UserID:    model.UserID,
		ProductID: model.ProductID,
		Quantity:  model.Quantity,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
