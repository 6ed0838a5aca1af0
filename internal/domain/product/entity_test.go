package product

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

func TestNewProduct(t *testing.T) {
	p, err := NewProduct("机械键盘", "87键", 29900, 10, 3, []string{"https://img/1.png"})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, p.Status)
	assert.True(t, p.IsPurchasable())
	assert.Zero(t, p.AverageRating)

	_, err = NewProduct("", "", 100, 1, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = NewProduct("x", "", 0, 1, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = NewProduct("x", "", 100, -1, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidStock)
}

func TestChangeStatus(t *testing.T) {
	p := &Product{Status: StatusActive}

	require.NoError(t, p.ChangeStatus(StatusDiscontinued))
	assert.False(t, p.IsPurchasable())
	assert.ErrorIs(t, p.ChangeStatus("SOLD_OUT"), ErrInvalidStatus)
}

func TestInsufficientStockCarriesProduct(t *testing.T) {
	err := InsufficientStock(7, 3, 1)

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(appErr.Code))
	assert.Equal(t, StockDetails{ProductID: 7, Requested: 3, Available: 1}, appErr.Details)
	assert.Contains(t, appErr.Message, "ID=7")
}
