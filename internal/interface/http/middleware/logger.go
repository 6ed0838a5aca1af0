package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/tracing"
)

// HeaderRequestID 请求ID响应头,客户端传入时沿用
const HeaderRequestID = "X-Request-ID"

const slowRequestThreshold = 3 * time.Second

// Logger 请求日志中间件
// 生成请求ID写入响应头和Context,为每个请求开启Span,结束时输出一条结构化访问日志
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx := logger.ContextWithRequestID(c.Request.Context(), requestID)
		ctx, span := tracing.StartSpan(ctx, c.Request.Method+" "+route,
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
		)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		span.SetAttributes(attribute.Int("http.status_code", status))
		var spanErr error
		if last := c.Errors.Last(); last != nil {
			spanErr = last
		}
		tracing.EndSpan(span, spanErr)

		event := logger.Info(ctx)
		switch {
		case status >= 500:
			event = logger.Error(ctx)
		case latency > slowRequestThreshold:
			event = logger.Warn(ctx).Bool("slow", true)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		// 不记录请求体和Authorization头
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Int("size", c.Writer.Size()).
			Msg("HTTP请求")
	}
}
