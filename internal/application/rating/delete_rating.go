package rating

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	appevent "github.com/xiebiao/storefront/internal/application/event"
	"github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/domain/rating"
	"github.com/xiebiao/storefront/internal/domain/tx"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/tracing"
)

// DeleteRatingUseCase 删除自己的评分
type DeleteRatingUseCase struct {
	aggregator
}

// NewDeleteRatingUseCase 创建删除评分用例
func NewDeleteRatingUseCase(
	products product.Repository,
	ratings rating.Repository,
	cache rating.SummaryCache,
	txManager tx.Manager,
	dispatcher *appevent.Dispatcher,
) *DeleteRatingUseCase {
	return &DeleteRatingUseCase{aggregator{
		products:   products,
		ratings:    ratings,
		cache:      cache,
		txManager:  txManager,
		dispatcher: dispatcher,
	}}
}

// Execute 删除评分并重算平均分,返回重算后的平均分
// 没有评分时返回ErrRatingNotFound
func (uc *DeleteRatingUseCase) Execute(ctx context.Context, userID, productID uint) (float64, error) {
	ctx, span := tracing.StartSpan(ctx, "rating.Delete", attribute.Int64("product.id", int64(productID)))

	var avg float64
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := uc.lockProduct(txCtx, productID); err != nil {
			// 商品已不存在时评分也不存在
			if errors.Is(err, product.ErrProductNotFound) {
				return rating.ErrRatingNotFound
			}
			return err
		}
		if err := uc.ratings.Delete(txCtx, userID, productID); err != nil {
			return err
		}

		var err error
		avg, err = uc.recompute(txCtx, productID)
		return err
	})
	tracing.EndSpan(span, err)
	if err != nil {
		return 0, err
	}

	metrics.IncCounter(metrics.RatingsDeletedTotal)
	uc.afterCommit(ctx, event.RatingPayload{
		ProductID:     productID,
		UserID:        userID,
		Deleted:       true,
		AverageRating: avg,
	})

	logger.Info(ctx).
		Uint("product_id", productID).
		Uint("user_id", userID).
		Float64("average_rating", avg).
		Msg("评分已删除")

	return avg, nil
}
