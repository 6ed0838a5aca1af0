// Package logger 基于zerolog的结构化日志
//
// 使用方式：
//
//	logger.Init("storefront-api", "info", "json")
//	logger.Info(ctx).Uint("order_id", id).Msg("订单创建成功")
//
// WithContext会自动附加trace_id、span_id（来自OpenTelemetry Span）和request_id（来自HTTP中间件）。
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Logger 全局Logger
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type requestIDKey struct{}

// Init 初始化全局Logger
// format: console（开发环境彩色输出）| json（生产环境）
func Init(serviceName, level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var output io.Writer = os.Stdout
	if format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	Logger = zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	log.Logger = Logger
}

// SetOutput 替换输出（测试用）
func SetOutput(w io.Writer) {
	Logger = Logger.Output(w)
}

// ContextWithRequestID 将请求ID写入Context
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext 读取请求ID
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithContext 返回带链路信息的Logger
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Logger.With().Logger()
	if ctx == nil {
		return &l
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		l = l.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		l = l.With().Str("request_id", requestID).Logger()
	}

	return &l
}

// Info 输出info级别日志
func Info(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Info()
}

// Error 输出error级别日志
func Error(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Error()
}

// Warn 输出warn级别日志
func Warn(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Warn()
}

// Debug 输出debug级别日志
func Debug(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Debug()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
