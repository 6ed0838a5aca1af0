package product

import (
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// 商品领域错误定义
var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = apperrors.New(apperrors.ErrCodeProductNotFound, "商品不存在")

	// ErrProductUnavailable 商品不存在或不在售
	ErrProductUnavailable = apperrors.New(apperrors.ErrCodeProductUnavailable, "商品不可购买")

	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")

	// ErrInvalidName 商品名称为空
	ErrInvalidName = apperrors.New(apperrors.ErrCodeInvalidParams, "商品名称不能为空")

	// ErrInvalidPrice 无效的价格
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "价格必须大于0")

	// ErrInvalidStock 无效的库存
	ErrInvalidStock = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")

	// ErrInvalidStatus 无效的商品状态
	ErrInvalidStatus = apperrors.New(apperrors.ErrCodeInvalidParams, "无效的商品状态")
)

// StockDetails 库存类错误的附加信息
type StockDetails struct {
	ProductID uint `json:"product_id"`
	Requested int  `json:"requested,omitempty"`
	Available int  `json:"available"`
}

// InsufficientStock 指明具体商品的库存不足错误
func InsufficientStock(productID uint, requested, available int) error {
	return ErrInsufficientStock.
		WithMessage("商品(ID=%d)库存不足，剩余%d件", productID, available).
		WithDetails(StockDetails{ProductID: productID, Requested: requested, Available: available})
}

// Unavailable 指明具体商品的不可购买错误
func Unavailable(productID uint) error {
	return ErrProductUnavailable.
		WithMessage("商品(ID=%d)不存在或已下架", productID).
		WithDetails(StockDetails{ProductID: productID})
}
