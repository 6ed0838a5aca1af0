// Package shared 应用层公共工具
package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/logger"
)

// 分页默认值
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// readRetryInterval 只读查询重试前的等待时间
const readRetryInterval = 50 * time.Millisecond

// NormalizePage 规范化分页参数
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// RetryRead 执行只读查询,遇到基础设施错误时透明重试一次
// 业务错误(不存在、无权限等)直接返回,不重试
// 写操作不要使用:写失败依赖事务回滚,直接返回给调用方
func RetryRead[T any](ctx context.Context, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	attempt := 0

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(readRetryInterval), 1),
		ctx,
	)

	err := backoff.Retry(func() error {
		attempt++
		v, err := fn(ctx)
		if err == nil {
			result = v
			return nil
		}
		if !apperrors.IsInternal(err) {
			return backoff.Permanent(err)
		}
		if attempt == 1 {
			logger.Warn(ctx).Err(err).Str("op", op).Msg("查询失败，重试一次")
		}
		return err
	}, policy)

	return result, err
}

// FormatPrice 格式化价格(分→元)
func FormatPrice(priceFen int64) string {
	sign := ""
	if priceFen < 0 {
		sign = "-"
		priceFen = -priceFen
	}
	return fmt.Sprintf("%s%d.%02d", sign, priceFen/100, priceFen%100)
}

// FormatTime 统一时间格式
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
