package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/pkg/logger"
)

const headerEventType = "event_type"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 所有事件写入同一个topic,key为事件类型,header带事件类型
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher 创建Kafka发布者
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e event.Event) error {
	body, err := encode(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(e.Type),
		Value:   body,
		Time:    e.OccurredAt,
		Headers: []kafka.Header{{Key: headerEventType, Value: []byte(e.Type)}},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSubscriber 消费组订阅,处理成功后才提交offset
type KafkaSubscriber struct {
	reader  messageReader
	groupID string
	// retryDelay 处理失败后重试同一条消息前的等待
	retryDelay time.Duration
}

// NewKafkaSubscriber 创建Kafka订阅者
func NewKafkaSubscriber(cfg config.KafkaConfig) *KafkaSubscriber {
	return &KafkaSubscriber{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			GroupID:  cfg.GroupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		groupID:    cfg.GroupID,
		retryDelay: time.Second,
	}
}

func (s *KafkaSubscriber) Run(ctx context.Context, handle func(ctx context.Context, e event.Event) error) error {
	logger.Info(ctx).Str("group_id", s.groupID).Msg("开始消费消息")
	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				logger.Info(ctx).Str("group_id", s.groupID).Msg("消费者退出")
				return nil
			}
			return err
		}

		if err := s.process(ctx, msg, handle); err != nil {
			// 只有ctx取消时才会失败,offset不提交,重启后重新投递
			return nil
		}
		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			logger.Warn(ctx).Err(err).Int64("offset", msg.Offset).Msg("提交offset失败")
		}
	}
}

// process 处理失败时原地重试,直到成功或ctx取消;格式错误的消息直接跳过
func (s *KafkaSubscriber) process(ctx context.Context, msg kafka.Message, handle func(context.Context, event.Event) error) error {
	e, err := decode(msg.Value)
	if err != nil {
		logger.Error(ctx).Err(err).Int64("offset", msg.Offset).Msg("事件格式错误,丢弃")
		return nil
	}

	for {
		err := observeHandle(ctx, s.groupID, e, handle)
		if err == nil {
			return nil
		}
		logger.Warn(ctx).Err(err).Str("event_id", e.ID).Str("event_type", string(e.Type)).Msg("消息处理失败,稍后重试")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
}

func (s *KafkaSubscriber) Close() error {
	return s.reader.Close()
}
