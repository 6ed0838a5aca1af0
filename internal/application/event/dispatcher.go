// Package event 事件的发布(事务提交后)与消费(worker)
package event

import (
	"context"
	"time"

	domain "github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/pkg/logger"
)

// Dispatcher 在事务提交后发布领域事件
// 发布失败只记录日志:业务结果已经提交,不能因为消息中间件故障而报错
type Dispatcher struct {
	publisher domain.Publisher
	// timeout 单次发布的超时,发布在请求路径上同步执行
	timeout time.Duration
}

// DefaultPublishTimeout 默认发布超时
const DefaultPublishTimeout = 3 * time.Second

// NewDispatcher 创建事件分发器
func NewDispatcher(publisher domain.Publisher) *Dispatcher {
	return &Dispatcher{publisher: publisher, timeout: DefaultPublishTimeout}
}

// WithTimeout 设置发布超时,非正数时保持默认值
func (d *Dispatcher) WithTimeout(timeout time.Duration) *Dispatcher {
	if timeout > 0 {
		d.timeout = timeout
	}
	return d
}

// Dispatch 构造并发布事件
func (d *Dispatcher) Dispatch(ctx context.Context, t domain.Type, payload interface{}) {
	e, err := domain.New(t, payload)
	if err != nil {
		logger.Error(ctx).Err(err).Str("event_type", string(t)).Msg("事件序列化失败")
		return
	}

	// 请求ctx可能在响应返回后被取消,发布使用独立的ctx,但不能没有截止时间
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	if err := d.publisher.Publish(pubCtx, e); err != nil {
		logger.Warn(ctx).Err(err).
			Str("event_type", string(t)).
			Str("event_id", e.ID).
			Msg("事件发布失败")
	}
}
