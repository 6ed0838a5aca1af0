// Package mq RabbitMQ发布与消费
//
// 领域事件（order.created、order.canceled、rating.changed……）在事务提交之后发布到topic交换机，
// cmd/worker按routing key订阅。消息体为JSON，message_id放在AMQP属性里便于消费端去重。
package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xiebiao/storefront/pkg/logger"
)

// ErrChannelClosed 投递Channel被服务端关闭
var ErrChannelClosed = errors.New("mq: delivery channel closed")

// Message 待发布的消息
type Message struct {
	ID         string
	RoutingKey string
	Body       []byte
}

// Delivery 收到的消息
type Delivery struct {
	ID         string
	RoutingKey string
	Body       []byte
}

// Publisher 消息发布者
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher 连接RabbitMQ并声明持久化交换机
func NewPublisher(url, exchange, exchangeType string) (*Publisher, error) {
	conn, channel, err := open(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	logger.Info(context.Background()).
		Str("exchange", exchange).
		Str("type", exchangeType).
		Msg("消息发布者已创建")

	return &Publisher{conn: conn, channel: channel, exchange: exchange}, nil
}

// Publish 发布一条持久化消息
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	err := p.channel.PublishWithContext(
		ctx,
		p.exchange,
		msg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			MessageId:    msg.ID,
			ContentType:  "application/json",
			Body:         msg.Body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}

	logger.Debug(ctx).
		Str("routing_key", msg.RoutingKey).
		Str("message_id", msg.ID).
		Msg("消息已发布")
	return nil
}

// Close 关闭Channel和连接
func (p *Publisher) Close() error {
	return closeAll(p.channel, p.conn)
}

// Consumer 消息消费者
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewConsumer 声明持久化队列并按routing key绑定到交换机
func NewConsumer(url, exchange, exchangeType, queue string, routingKeys []string) (*Consumer, error) {
	conn, channel, err := open(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	q, err := channel.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = closeAll(channel, conn)
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	for _, key := range routingKeys {
		if err := channel.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			_ = closeAll(channel, conn)
			return nil, fmt.Errorf("绑定Queue失败(%s): %w", key, err)
		}
	}

	logger.Info(context.Background()).
		Str("queue", q.Name).
		Strs("routing_keys", routingKeys).
		Msg("消息消费者已创建")

	return &Consumer{conn: conn, channel: channel, queue: q.Name}, nil
}

// Queue 队列名
func (c *Consumer) Queue() string {
	return c.queue
}

// Consume 阻塞消费直到ctx取消
// handler返回错误时消息Nack并重新入队，成功时Ack
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, Delivery) error) error {
	// 每次只取一条，处理完再取下一条
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	logger.Info(ctx).Str("queue", c.queue).Msg("开始消费消息")

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx).Str("queue", c.queue).Msg("消费者退出")
			return nil

		case msg, ok := <-msgs:
			if !ok {
				return ErrChannelClosed
			}

			d := Delivery{ID: msg.MessageId, RoutingKey: msg.RoutingKey, Body: msg.Body}
			if err := handler(ctx, d); err != nil {
				logger.Warn(ctx).Err(err).
					Str("routing_key", d.RoutingKey).
					Str("message_id", d.ID).
					Msg("消息处理失败，重新入队")
				_ = msg.Nack(false, true)
				continue
			}
			_ = msg.Ack(false)
		}
	}
}

// Close 关闭Channel和连接
func (c *Consumer) Close() error {
	return closeAll(c.channel, c.conn)
}

func open(url, exchange, exchangeType string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, exchangeType, true, false, false, false, nil); err != nil {
		_ = closeAll(channel, conn)
		return nil, nil, fmt.Errorf("声明Exchange失败: %w", err)
	}
	return conn, channel, nil
}

func closeAll(channel *amqp.Channel, conn *amqp.Connection) error {
	var errs []error
	if channel != nil {
		errs = append(errs, channel.Close())
	}
	if conn != nil {
		errs = append(errs, conn.Close())
	}
	return errors.Join(errs...)
}
