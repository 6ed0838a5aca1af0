package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

func TestRetryReadRetriesInternalOnce(t *testing.T) {
	calls := 0
	v, err := RetryRead(context.Background(), "test", func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, apperrors.Wrap(errors.New("connection reset"), "查询失败")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 2, calls)
}

func TestRetryReadGivesUpAfterSecondFailure(t *testing.T) {
	calls := 0
	_, err := RetryRead(context.Background(), "test", func(context.Context) (int, error) {
		calls++
		return 0, apperrors.ErrDatabaseError
	})
	assert.ErrorIs(t, err, apperrors.ErrDatabaseError)
	assert.Equal(t, 2, calls)
}

func TestRetryReadDoesNotRetryBusinessErrors(t *testing.T) {
	calls := 0
	_, err := RetryRead(context.Background(), "test", func(context.Context) (string, error) {
		calls++
		return "", apperrors.ErrNotFound
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestNormalizePage(t *testing.T) {
	p, s := NormalizePage(0, 0)
	assert.Equal(t, 1, p)
	assert.Equal(t, DefaultPageSize, s)

	_, s = NormalizePage(2, 1000)
	assert.Equal(t, MaxPageSize, s)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "12.05", FormatPrice(1205))
	assert.Equal(t, "0.99", FormatPrice(99))
	assert.Equal(t, "-1.50", FormatPrice(-150))
}
