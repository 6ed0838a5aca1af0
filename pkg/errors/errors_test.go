package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := map[int]Kind{
		ErrCodeEmptyOrder:         KindValidation,
		ErrCodeInvalidRating:      KindValidation,
		ErrCodeOrderNotFound:      KindNotFound,
		ErrCodeForbidden:          KindAuthorization,
		ErrCodeInsufficientStock:  KindConflict,
		ErrCodeInvalidTransition:  KindConflict,
		ErrCodeProductUnavailable: KindConflict,
		ErrCodeInternal:           KindInternal,
		ErrCodeDatabaseError:      KindInternal,
	}
	for code, want := range cases {
		assert.Equal(t, want, KindOf(code), "code %d", code)
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeInvalidParams))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeRatingNotFound))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(ErrCodeForbidden))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrCodeTokenExpired))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrCodeInsufficientStock))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrCodeInternal))
}

func TestWithMessageKeepsIdentity(t *testing.T) {
	base := New(ErrCodeInsufficientStock, "库存不足")
	derived := base.WithMessage("商品《%s》库存不足", "键盘")

	assert.True(t, errors.Is(derived, base))
	assert.Equal(t, "商品《键盘》库存不足", derived.Message)

	wrapped := fmt.Errorf("checkout: %w", derived)
	assert.True(t, errors.Is(wrapped, base))
	assert.False(t, errors.Is(wrapped, ErrForbidden))
}

func TestGetAppErrorWrapsPlainErrors(t *testing.T) {
	appErr := GetAppError(errors.New("connection reset"))
	assert.Equal(t, ErrCodeInternal, appErr.Code)
	assert.True(t, IsInternal(appErr))
	assert.False(t, IsInternal(ErrForbidden))
	assert.False(t, IsInternal(nil))
}

func TestWithCauseKeepsCodeAndUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := ErrRedisError.WithCause(cause)

	assert.True(t, errors.Is(err, ErrRedisError))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsInternal(err))
}
