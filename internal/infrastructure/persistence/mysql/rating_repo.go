package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/storefront/internal/domain/rating"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository 创建评分仓储
func NewRatingRepository(db *gorm.DB) rating.Repository {
	return &ratingRepository{db: db}
}

// Upsert 依赖(user_id, product_id)唯一索引
// MySQL: INSERT ... ON DUPLICATE KEY UPDATE
// PostgreSQL: INSERT ... ON CONFLICT (user_id, product_id) DO UPDATE
func (r *ratingRepository) Upsert(ctx context.Context, rt *rating.Rating) (*rating.Rating, error) {
	db := getDB(ctx, r.db)
	model := &RatingModel{
		UserID:    rt.UserID,
		ProductID: rt.ProductID,
		Score:     rt.Score,
		Review:    rt.Review,
		CreatedAt: rt.CreatedAt,
		UpdatedAt: rt.UpdatedAt,
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "review", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "保存评分失败")
	}

	// 覆盖已有评分时ID和CreatedAt以库中为准
	return r.FindByUserAndProduct(ctx, rt.UserID, rt.ProductID)
}

func (r *ratingRepository) FindByUserAndProduct(ctx context.Context, userID, productID uint) (*rating.Rating, error) {
	var model RatingModel
	err := getDB(ctx, r.db).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rating.ErrRatingNotFound
		}
		return nil, apperrors.Wrap(err, "查询评分失败")
	}
	return toRatingEntity(&model), nil
}

func (r *ratingRepository) Delete(ctx context.Context, userID, productID uint) error {
	result := getDB(ctx, r.db).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&RatingModel{})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除评分失败")
	}
	if result.RowsAffected == 0 {
		return rating.ErrRatingNotFound
	}
	return nil
}

func (r *ratingRepository) ScoresByProduct(ctx context.Context, productID uint) ([]int, error) {
	scores := []int{}
	err := getDB(ctx, r.db).Model(&RatingModel{}).
		Where("product_id = ?", productID).
		Pluck("score", &scores).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询评分失败")
	}
	return scores, nil
}

func (r *ratingRepository) ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]*rating.Rating, int64, error) {
	return r.list(getDB(ctx, r.db).Model(&RatingModel{}).Where("product_id = ?", productID), page, pageSize)
}

func (r *ratingRepository) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*rating.Rating, int64, error) {
	return r.list(getDB(ctx, r.db).Model(&RatingModel{}).Where("user_id = ?", userID), page, pageSize)
}

func (r *ratingRepository) list(query *gorm.DB, page, pageSize int) ([]*rating.Rating, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询评分总数失败")
	}

	var models []RatingModel
	err := query.Order("updated_at DESC, id DESC").
		Limit(pageSize).
		Offset(offset(page, pageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询评分列表失败")
	}

	ratings := make([]*rating.Rating, len(models))
	for i := range models {
		ratings[i] = toRatingEntity(&models[i])
	}
	return ratings, total, nil
}

func toRatingEntity(model *RatingModel) *rating.Rating {
	return &rating.Rating{
		ID:        model.ID,
		UserID:    model.UserID,
		ProductID: model.ProductID,
		Score:     model.Score,
		Review:    model.Review,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
