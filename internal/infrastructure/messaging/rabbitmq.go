package messaging

import (
	"context"
	"time"

	"github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/mq"
)

const exchangeType = "topic"

// RabbitPublisher 把事件发布到topic交换机,routing key为事件类型
type RabbitPublisher struct {
	publisher *mq.Publisher
}

// NewRabbitPublisher 连接RabbitMQ
func NewRabbitPublisher(cfg config.RabbitMQConfig) (*RabbitPublisher, error) {
	p, err := mq.NewPublisher(cfg.URL, cfg.Exchange, exchangeType)
	if err != nil {
		return nil, err
	}
	return &RabbitPublisher{publisher: p}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, e event.Event) error {
	body, err := encode(e)
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, mq.Message{ID: e.ID, RoutingKey: string(e.Type), Body: body})
}

func (p *RabbitPublisher) Close() error {
	return p.publisher.Close()
}

// RabbitSubscriber 声明worker队列并绑定全部事件类型
type RabbitSubscriber struct {
	consumer *mq.Consumer
}

// NewRabbitSubscriber 创建订阅者
func NewRabbitSubscriber(cfg config.RabbitMQConfig) (*RabbitSubscriber, error) {
	c, err := mq.NewConsumer(cfg.URL, cfg.Exchange, exchangeType, cfg.Queue, RoutingKeys)
	if err != nil {
		return nil, err
	}
	return &RabbitSubscriber{consumer: c}, nil
}

func (s *RabbitSubscriber) Run(ctx context.Context, handle func(ctx context.Context, e event.Event) error) error {
	queue := s.consumer.Queue()
	return s.consumer.Consume(ctx, func(ctx context.Context, d mq.Delivery) error {
		e, err := decode(d.Body)
		if err != nil {
			// 无法解析的消息重新入队也不会成功,直接确认丢弃
			logger.Error(ctx).Err(err).Str("message_id", d.ID).Msg("事件格式错误,丢弃")
			metrics.IncCounterVec(metrics.MessagesConsumedTotal, map[string]string{"queue": queue, "result": "failure"})
			return nil
		}
		return observeHandle(ctx, queue, e, handle)
	})
}

func (s *RabbitSubscriber) Close() error {
	return s.consumer.Close()
}

// observeHandle 处理一条事件并记录耗时和结果
func observeHandle(ctx context.Context, queue string, e event.Event, handle func(context.Context, event.Event) error) error {
	start := time.Now()
	err := handle(ctx, e)
	metrics.ObserveHistogram(metrics.MessageProcessingDuration, time.Since(start).Seconds())

	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.IncCounterVec(metrics.MessagesConsumedTotal, map[string]string{"queue": queue, "result": result})
	return err
}
