// Package rating 评分用例
//
// 评分写入/删除与平均分重算在同一事务内完成:
// 先锁商品行,同一商品的并发评分串行执行,重算时读到的是本事务写入后的全部评分。
package rating

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	appevent "github.com/xiebiao/storefront/internal/application/event"
	"github.com/xiebiao/storefront/internal/application/shared"
	"github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/domain/rating"
	"github.com/xiebiao/storefront/internal/domain/tx"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/tracing"
)

// RatingView 评分响应DTO
type RatingView struct {
	ID            uint    `json:"id"`
	UserID        uint    `json:"user_id"`
	ProductID     uint    `json:"product_id"`
	Rating        int     `json:"rating"`
	Review        string  `json:"review,omitempty"`
	AverageRating float64 `json:"average_rating,omitempty"` // 写入后商品的平均分
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toRatingView(r *rating.Rating) *RatingView {
	return &RatingView{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Rating:    r.Score,
		Review:    r.Review,
		CreatedAt: shared.FormatTime(r.CreatedAt),
		UpdatedAt: shared.FormatTime(r.UpdatedAt),
	}
}

// aggregator 写评分的公共部分
type aggregator struct {
	products   product.Repository
	ratings    rating.Repository
	cache      rating.SummaryCache
	txManager  tx.Manager
	dispatcher *appevent.Dispatcher
}

// lockProduct 锁定商品行;已删除的商品视为不存在
func (a *aggregator) lockProduct(ctx context.Context, productID uint) error {
	p, err := a.products.LockByID(ctx, productID)
	if err != nil {
		return err
	}
	if p.Status == product.StatusDeleted {
		return product.ErrProductNotFound
	}
	return nil
}

// recompute 读取全部评分并写回平均分,必须在事务内调用
func (a *aggregator) recompute(ctx context.Context, productID uint) (float64, error) {
	scores, err := a.ratings.ScoresByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	avg := rating.Mean(scores)
	if err := a.products.UpdateAverageRating(ctx, productID, avg); err != nil {
		return 0, err
	}
	return avg, nil
}

// afterCommit 删除汇总缓存并发布事件
// 缓存删除失败只记录日志:下次评分变更或缓存过期后会自然修正
func (a *aggregator) afterCommit(ctx context.Context, payload event.RatingPayload) {
	if err := a.cache.Invalidate(ctx, payload.ProductID); err != nil {
		logger.Warn(ctx).Err(err).Uint("product_id", payload.ProductID).Msg("删除评分缓存失败")
	}
	a.dispatcher.Dispatch(ctx, event.RatingChanged, payload)
}

// SubmitRatingUseCase 提交评分(同一用户对同一商品重复提交覆盖旧值)
type SubmitRatingUseCase struct {
	aggregator
}

// NewSubmitRatingUseCase 创建提交评分用例
func NewSubmitRatingUseCase(
	products product.Repository,
	ratings rating.Repository,
	cache rating.SummaryCache,
	txManager tx.Manager,
	dispatcher *appevent.Dispatcher,
) *SubmitRatingUseCase {
	return &SubmitRatingUseCase{aggregator{
		products:   products,
		ratings:    ratings,
		cache:      cache,
		txManager:  txManager,
		dispatcher: dispatcher,
	}}
}

// SubmitRatingRequest 提交评分请求
type SubmitRatingRequest struct {
	UserID    uint
	ProductID uint
	Rating    int
	Review    string
}

// Execute 校验分值,在事务内upsert并重算平均分
func (uc *SubmitRatingUseCase) Execute(ctx context.Context, req SubmitRatingRequest) (*RatingView, error) {
	input, err := rating.NewRating(req.UserID, req.ProductID, req.Rating, req.Review)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "rating.Submit",
		attribute.Int64("product.id", int64(req.ProductID)),
		attribute.Int("rating", req.Rating),
	)

	var (
		saved *rating.Rating
		avg   float64
	)
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := uc.lockProduct(txCtx, req.ProductID); err != nil {
			return err
		}

		var err error
		saved, err = uc.ratings.Upsert(txCtx, input)
		if err != nil {
			return err
		}

		avg, err = uc.recompute(txCtx, req.ProductID)
		return err
	})
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	metrics.IncCounter(metrics.RatingsSubmittedTotal)
	uc.afterCommit(ctx, event.RatingPayload{
		ProductID:     saved.ProductID,
		UserID:        saved.UserID,
		Score:         saved.Score,
		AverageRating: avg,
	})

	logger.Info(ctx).
		Uint("product_id", saved.ProductID).
		Uint("user_id", saved.UserID).
		Int("rating", saved.Score).
		Float64("average_rating", avg).
		Msg("评分已保存")

	view := toRatingView(saved)
	view.AverageRating = avg
	return view, nil
}
