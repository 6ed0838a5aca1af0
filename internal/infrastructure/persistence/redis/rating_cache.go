package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/storefront/internal/domain/rating"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

const defaultRatingCacheTTL = 10 * time.Minute

// RatingSummaryCache 商品评分汇总缓存
// Key：storefront:rating:summary:{product_id}，值为Summary的JSON
// 评分变更提交后由应用层Invalidate，worker收到rating.changed事件时会再删一次
type RatingSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ rating.SummaryCache = (*RatingSummaryCache)(nil)

// NewRatingSummaryCache 创建评分汇总缓存，ttl<=0时使用默认10分钟
func NewRatingSummaryCache(client *redis.Client, ttl time.Duration) *RatingSummaryCache {
	if ttl <= 0 {
		ttl = defaultRatingCacheTTL
	}
	return &RatingSummaryCache{client: client, ttl: ttl}
}

func summaryKey(productID uint) string {
	return fmt.Sprintf("%srating:summary:%d", keyPrefix, productID)
}

// Get 未命中返回(nil, false, nil)
func (c *RatingSummaryCache) Get(ctx context.Context, productID uint) (*rating.Summary, bool, error) {
	data, err := c.client.Get(ctx, summaryKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.ErrRedisError.WithCause(err)
	}

	var s rating.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		// 格式不兼容的旧值当作未命中,下次Set覆盖
		return nil, false, nil
	}
	return &s, true, nil
}

func (c *RatingSummaryCache) Set(ctx context.Context, s *rating.Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return apperrors.Wrap(err, "序列化评分汇总失败")
	}
	if err := c.client.Set(ctx, summaryKey(s.ProductID), data, c.ttl).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

func (c *RatingSummaryCache) Invalidate(ctx context.Context, productID uint) error {
	if err := c.client.Del(ctx, summaryKey(productID)).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}
