package order

import (
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// 订单领域错误定义
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	// ErrInvalidTransition 非法的状态转换
	ErrInvalidTransition = apperrors.New(apperrors.ErrCodeInvalidTransition, "订单状态不允许此操作")

	// ErrInvalidStatus 未定义的订单状态
	ErrInvalidStatus = apperrors.New(apperrors.ErrCodeInvalidParams, "无效的订单状态")

	// ErrEmptyOrder 订单没有任何明细
	ErrEmptyOrder = apperrors.New(apperrors.ErrCodeEmptyOrder, "订单明细不能为空")

	// ErrInvalidQuantity 购买数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidQuantity, "购买数量必须大于0")

	// ErrPriceChanged 客户端确认的金额与下单时价格不一致
	ErrPriceChanged = apperrors.New(apperrors.ErrCodePriceChanged, "商品价格已变动，请确认后重新下单")

	// ErrForbidden 无权操作此订单
	ErrForbidden = apperrors.New(apperrors.ErrCodeForbidden, "无权操作此订单")
)
