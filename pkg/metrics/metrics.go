// Package metrics 基于Prometheus的指标收集
//
// 指标分三类：
//   - HTTP：请求数、耗时、处理中的请求数（由middleware.Metrics记录）
//   - 业务：下单、取消、库存预占冲突、评分
//   - 基础设施：熔断器、消息发布与消费
//
// 使用方式：
//
//	metrics.InitMetrics()
//	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
// 命名规范：Counter以_total结尾，Histogram以单位结尾（_seconds）。
// 标签只用有限取值的维度（method、status、reason），不要用user_id、order_id。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数
	// 标签：method、path（路由模板）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 订单指标

	// OrdersPlacedTotal 下单成功总数
	OrdersPlacedTotal prometheus.Counter

	// OrdersFailedTotal 下单失败总数
	// 标签：reason（insufficient_stock/unavailable/price_changed/validation/internal）
	OrdersFailedTotal *prometheus.CounterVec

	// OrdersCanceledTotal 订单取消总数
	// 标签：by（customer/admin）
	OrdersCanceledTotal *prometheus.CounterVec

	// OrderStatusTransitions 订单状态流转次数
	// 标签：to（COMPLETED/CANCELED/FAILED）
	OrderStatusTransitions *prometheus.CounterVec

	// OrderCreationDuration 下单耗时（含事务）
	OrderCreationDuration prometheus.Histogram

	// 库存指标

	// StockReservationConflicts 事务内复核时库存不足的次数（并发抢购的直接体现）
	StockReservationConflicts prometheus.Counter

	// StockUnitsReleased 因取消而归还的库存件数
	StockUnitsReleased prometheus.Counter

	// 评分指标

	// RatingsSubmittedTotal 评分提交总数
	RatingsSubmittedTotal prometheus.Counter

	// RatingsDeletedTotal 评分删除总数
	RatingsDeletedTotal prometheus.Counter

	// 熔断器指标

	// CircuitBreakerState 熔断器状态
	// 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数
	// 标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// 消息指标

	// MessagesPublishedTotal 事件发布总数
	// 标签：topic、result（success/failure）
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 事件消费总数
	// 标签：queue、result（success/failure）
	MessagesConsumedTotal *prometheus.CounterVec

	// MessageProcessingDuration 事件处理耗时
	MessageProcessingDuration prometheus.Histogram
)

// InitMetrics 注册所有指标到默认Registry
// 可重复调用，只有第一次生效
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	OrdersPlacedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "下单成功总数",
		},
	)

	OrdersFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_failed_total",
			Help: "下单失败总数",
		},
		[]string{"reason"},
	)

	OrdersCanceledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_canceled_total",
			Help: "订单取消总数",
		},
		[]string{"by"},
	)

	OrderStatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "订单状态流转次数",
		},
		[]string{"to"},
	)

	// 下单在一个事务内锁多行，桶从10ms开始
	OrderCreationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_creation_duration_seconds",
			Help:    "下单耗时（秒）",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	StockReservationConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_reservation_conflicts_total",
			Help: "事务内库存复核失败次数",
		},
	)

	StockUnitsReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_units_released_total",
			Help: "取消订单归还的库存件数",
		},
	)

	RatingsSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ratings_submitted_total",
			Help: "评分提交总数",
		},
	)

	RatingsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ratings_deleted_total",
			Help: "评分删除总数",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "事件发布总数",
		},
		[]string{"topic", "result"},
	)

	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_consumed_total",
			Help: "事件消费总数",
		},
		[]string{"queue", "result"},
	)

	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "message_processing_duration_seconds",
			Help:    "事件处理耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)
}

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	counter.Inc()
}

// AddCounter 累加Counter
func AddCounter(counter prometheus.Counter, value float64) {
	counter.Add(value)
}

// IncCounterVec 递增CounterVec（带标签）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	gauge.Dec()
}

// SetGaugeVec 设置GaugeVec值（带标签）
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	gauge.With(labels).Set(value)
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	histogram.Observe(value)
}

// ObserveHistogramVec 记录HistogramVec观测值（带标签）
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	histogram.With(labels).Observe(value)
}
