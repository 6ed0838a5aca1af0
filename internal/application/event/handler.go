package event

import (
	"context"
	"fmt"

	domain "github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/domain/rating"
	"github.com/xiebiao/storefront/pkg/logger"
)

// Handler worker侧的事件处理
// rating.changed:删除评分汇总缓存(API进程也会删除,这里兜底跨实例的缓存)
// order.*:记录审计日志
type Handler struct {
	cache rating.SummaryCache
}

// NewHandler 创建事件处理器
func NewHandler(cache rating.SummaryCache) *Handler {
	return &Handler{cache: cache}
}

// Handle 处理单个事件,返回错误时消息会重新投递
func (h *Handler) Handle(ctx context.Context, e domain.Event) error {
	switch e.Type {
	case domain.RatingChanged:
		var p domain.RatingPayload
		if err := e.Decode(&p); err != nil {
			// 格式错误的消息重试也不会成功,记录后丢弃
			logger.Error(ctx).Err(err).Str("event_id", e.ID).Msg("评分事件格式错误")
			return nil
		}
		if err := h.cache.Invalidate(ctx, p.ProductID); err != nil {
			return fmt.Errorf("删除评分缓存失败: %w", err)
		}
		logger.Info(ctx).
			Str("event_id", e.ID).
			Uint("product_id", p.ProductID).
			Float64("average_rating", p.AverageRating).
			Msg("评分变更已处理")

	case domain.OrderCreated, domain.OrderCanceled, domain.OrderStatusChanged:
		var p domain.OrderPayload
		if err := e.Decode(&p); err != nil {
			logger.Error(ctx).Err(err).Str("event_id", e.ID).Msg("订单事件格式错误")
			return nil
		}
		logger.Info(ctx).
			Str("event_id", e.ID).
			Str("event_type", string(e.Type)).
			Uint("order_id", p.OrderID).
			Str("status", p.Status).
			Int64("total", p.Total).
			Bool("stock_released", p.StockReleased).
			Msg("订单事件")

	default:
		logger.Debug(ctx).Str("event_type", string(e.Type)).Msg("忽略未知事件")
	}
	return nil
}
