// Package messaging 领域事件的发布与订阅
//
// 发布端:RabbitMQ(topic交换机,routing key为事件类型)或Kafka(单topic,key为事件类型),
// 外层包一层熔断器;事件总线不可用时快速失败,只记录日志和指标。
// 订阅端:cmd/worker按同样的驱动消费并交给appevent.Handler。
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/pkg/logger"
)

// Subscriber 事件订阅者,Run阻塞到ctx取消
// handle返回错误时消息重新投递
type Subscriber interface {
	Run(ctx context.Context, handle func(ctx context.Context, e event.Event) error) error
	Close() error
}

// RoutingKeys worker订阅的事件类型
var RoutingKeys = []string{
	string(event.OrderCreated),
	string(event.OrderCanceled),
	string(event.OrderStatusChanged),
	string(event.RatingChanged),
}

// NewPublisher 按配置创建事件发布者(已包裹熔断器)
func NewPublisher(cfg config.EventsConfig) (event.Publisher, error) {
	var (
		inner event.Publisher
		err   error
	)
	switch cfg.Driver {
	case config.EventsRabbitMQ:
		inner, err = NewRabbitPublisher(cfg.RabbitMQ)
	case config.EventsKafka:
		inner = NewKafkaPublisher(cfg.Kafka)
	case config.EventsNone, "":
		inner = NoopPublisher{}
	default:
		return nil, fmt.Errorf("不支持的事件驱动: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info(context.Background()).Str("driver", cfg.Driver).Msg("事件发布者已创建")
	return NewBreakerPublisher(inner, cfg.Breaker), nil
}

// NewSubscriber 按配置创建事件订阅者
func NewSubscriber(cfg config.EventsConfig) (Subscriber, error) {
	switch cfg.Driver {
	case config.EventsRabbitMQ:
		return NewRabbitSubscriber(cfg.RabbitMQ)
	case config.EventsKafka:
		return NewKafkaSubscriber(cfg.Kafka), nil
	default:
		return nil, fmt.Errorf("事件驱动%q不支持订阅", cfg.Driver)
	}
}

func encode(e event.Event) ([]byte, error) {
	return json.Marshal(e)
}

func decode(body []byte) (event.Event, error) {
	var e event.Event
	err := json.Unmarshal(body, &e)
	return e, err
}

// NoopPublisher events.driver=none时使用,只写debug日志
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, e event.Event) error {
	logger.Debug(ctx).Str("event_type", string(e.Type)).Str("event_id", e.ID).Msg("事件总线未启用,跳过发布")
	return nil
}

func (NoopPublisher) Close() error { return nil }
