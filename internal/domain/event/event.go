// Package event 领域事件
//
// 事件在事务提交之后发布,发布失败不影响已提交的业务结果(只记录日志和指标)。
// 消费方按Type路由,按ID去重。
package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type 事件类型,同时用作RabbitMQ的routing key / Kafka的message key前缀
type Type string

const (
	OrderCreated       Type = "order.created"
	OrderCanceled      Type = "order.canceled"
	OrderStatusChanged Type = "order.status_changed"
	RatingChanged      Type = "rating.changed"
)

// Event 事件信封
type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// New 创建事件,payload序列化为JSON
func New(t Type, payload interface{}) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Payload:    body,
	}, nil
}

// Decode 反序列化payload
func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// OrderLine 事件中的订单行
type OrderLine struct {
	ProductID uint  `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Price     int64 `json:"price"`
}

// OrderPayload 订单事件
type OrderPayload struct {
	OrderID       uint        `json:"order_id"`
	OrderNo       string      `json:"order_no"`
	UserID        uint        `json:"user_id"`
	Status        string      `json:"status"`
	PreviousState string      `json:"previous_status,omitempty"`
	Total         int64       `json:"total"`
	Lines         []OrderLine `json:"lines"`
	StockReleased bool        `json:"stock_released"`
	ActorID       uint        `json:"actor_id"`
}

// RatingPayload 评分事件
type RatingPayload struct {
	ProductID     uint    `json:"product_id"`
	UserID        uint    `json:"user_id"`
	Score         int     `json:"score"` // 删除时为0
	Deleted       bool    `json:"deleted"`
	AverageRating float64 `json:"average_rating"`
}

// Publisher 事件发布者
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}
