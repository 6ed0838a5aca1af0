package rating

import (
	"context"
	"math"

	"github.com/xiebiao/storefront/internal/application/shared"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/domain/rating"
	"github.com/xiebiao/storefront/pkg/logger"
)

// QueryUseCase 评分查询
type QueryUseCase struct {
	products product.Repository
	ratings  rating.Repository
	cache    rating.SummaryCache
}

// NewQueryUseCase 创建评分查询用例
func NewQueryUseCase(products product.Repository, ratings rating.Repository, cache rating.SummaryCache) *QueryUseCase {
	return &QueryUseCase{products: products, ratings: ratings, cache: cache}
}

// ProductRatings 商品评分页
type ProductRatings struct {
	Summary  rating.Summary
	Ratings  []*RatingView
	Total    int64
	Page     int
	PageSize int
}

// ListProductRatings 商品评分列表和汇总
func (uc *QueryUseCase) ListProductRatings(ctx context.Context, productID uint, page, pageSize int) (*ProductRatings, error) {
	page, pageSize = shared.NormalizePage(page, pageSize)

	p, err := shared.RetryRead(ctx, "product.FindByID", func(ctx context.Context) (*product.Product, error) {
		return uc.products.FindByID(ctx, productID)
	})
	if err != nil {
		return nil, err
	}
	if p.Status == product.StatusDeleted {
		return nil, product.ErrProductNotFound
	}

	type result struct {
		ratings []*rating.Rating
		total   int64
	}
	res, err := shared.RetryRead(ctx, "rating.ListByProduct", func(ctx context.Context) (result, error) {
		list, total, err := uc.ratings.ListByProduct(ctx, productID, page, pageSize)
		return result{ratings: list, total: total}, err
	})
	if err != nil {
		return nil, err
	}

	summary, err := uc.summary(ctx, p, res.total)
	if err != nil {
		return nil, err
	}

	return &ProductRatings{
		Summary:  *summary,
		Ratings:  toRatingViews(res.ratings),
		Total:    res.total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// summary 汇总优先读缓存,缓存与商品平均分、评分条数不一致时视为过期并重新计算
// 只有重新计算的结果与二者一致时才回填,避免并发评分把旧汇总写回缓存
// 缓存故障降级为直接计算,不影响读请求
func (uc *QueryUseCase) summary(ctx context.Context, p *product.Product, total int64) (*rating.Summary, error) {
	cached, ok, err := uc.cache.Get(ctx, p.ID)
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("product_id", p.ID).Msg("读取评分缓存失败")
	} else if ok && consistent(cached, p, total) {
		return cached, nil
	}

	scores, err := shared.RetryRead(ctx, "rating.ScoresByProduct", func(ctx context.Context) ([]int, error) {
		return uc.ratings.ScoresByProduct(ctx, p.ID)
	})
	if err != nil {
		return nil, err
	}

	s := rating.Summarize(p.ID, scores)
	if !consistent(&s, p, total) {
		logger.Debug(ctx).Uint("product_id", p.ID).Msg("评分在读取期间发生变化,跳过缓存回填")
		return &s, nil
	}
	if err := uc.cache.Set(ctx, &s); err != nil {
		logger.Warn(ctx).Err(err).Uint("product_id", p.ID).Msg("写入评分缓存失败")
	}
	return &s, nil
}

// consistent 汇总与商品行上的平均分和评分条数一致
func consistent(s *rating.Summary, p *product.Product, total int64) bool {
	return int64(s.Count) == total && math.Abs(s.AverageRating-p.AverageRating) < 1e-9
}

// MyRatings 当前用户的评分页
type MyRatings struct {
	Ratings  []*RatingView
	Total    int64
	Page     int
	PageSize int
}

// ListMyRatings 当前用户的评分
func (uc *QueryUseCase) ListMyRatings(ctx context.Context, userID uint, page, pageSize int) (*MyRatings, error) {
	page, pageSize = shared.NormalizePage(page, pageSize)

	type result struct {
		ratings []*rating.Rating
		total   int64
	}
	res, err := shared.RetryRead(ctx, "rating.ListByUser", func(ctx context.Context) (result, error) {
		list, total, err := uc.ratings.ListByUser(ctx, userID, page, pageSize)
		return result{ratings: list, total: total}, err
	})
	if err != nil {
		return nil, err
	}

	return &MyRatings{
		Ratings:  toRatingViews(res.ratings),
		Total:    res.total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func toRatingViews(list []*rating.Rating) []*RatingView {
	views := make([]*RatingView, 0, len(list))
	for _, r := range list {
		views = append(views, toRatingView(r))
	}
	return views
}
