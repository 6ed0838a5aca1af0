package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/pkg/circuitbreaker"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
)

const breakerName = "event_publisher"

// BreakerPublisher 熔断保护的发布者
// 连续失败达到阈值后OpenTimeout内直接返回ErrOpenState,不再等待超时
type BreakerPublisher struct {
	inner   event.Publisher
	breaker *circuitbreaker.CircuitBreaker
}

// NewBreakerPublisher 包裹发布者
func NewBreakerPublisher(inner event.Publisher, cfg config.BreakerConfig) *BreakerPublisher {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	cb := circuitbreaker.New(breakerName, circuitbreaker.Config{
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(c circuitbreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(to))
			logger.Warn(context.Background()).
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("熔断器状态变化")
		},
	})
	return &BreakerPublisher{inner: inner, breaker: cb}
}

func (p *BreakerPublisher) Publish(ctx context.Context, e event.Event) error {
	start := time.Now()
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.inner.Publish(ctx, e)
	})

	result := "success"
	switch {
	case errors.Is(err, circuitbreaker.ErrOpenState), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		result = "rejected"
	case err != nil:
		result = "failure"
	}
	metrics.IncCounterVec(metrics.CircuitBreakerRequests, map[string]string{"name": breakerName, "result": result})
	metrics.IncCounterVec(metrics.MessagesPublishedTotal, map[string]string{"topic": string(e.Type), "result": result})

	if err != nil {
		logger.Debug(ctx).Err(err).Dur("elapsed", time.Since(start)).Str("event_type", string(e.Type)).Msg("事件发布失败")
	}
	return err
}

// State 熔断器当前状态
func (p *BreakerPublisher) State() circuitbreaker.State {
	return p.breaker.State()
}

func (p *BreakerPublisher) Close() error {
	return p.inner.Close()
}
