package handler

import (
	"github.com/gin-gonic/gin"

	appcart "github.com/xiebiao/storefront/internal/application/cart"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/pkg/response"
)

// CartHandler 购物车HTTP处理器
type CartHandler struct {
	useCase *appcart.UseCase
}

// NewCartHandler 创建购物车处理器
func NewCartHandler(useCase *appcart.UseCase) *CartHandler {
	return &CartHandler{useCase: useCase}
}

// GetCart 我的购物车
// @Summary      我的购物车
// @Tags         购物车
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appcart.CartView}
// @Router       /cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	result, err := h.useCase.GetCart(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// AddItem 加入购物车
// @Summary      加入购物车
// @Description  已有的商品累加数量,结果不超过当前库存
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AddCartItemRequest true "商品和数量"
// @Success      200 {object} response.Response{data=appcart.LineView}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      409 {object} response.Response "商品不可售或库存不足"
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.useCase.AddItem(c.Request.Context(), middleware.MustGetUserID(c), req.ProductID, req.QuantityOrDefault())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// SetQuantity 修改购物车商品数量
// @Summary      修改购物车商品数量
// @Description  数量为绝对值,超过当前库存时截断
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        product_id path int true "商品ID"
// @Param        request body dto.SetCartItemQuantityRequest true "数量"
// @Success      200 {object} response.Response{data=appcart.LineView}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      404 {object} response.Response "购物车中没有该商品"
// @Failure      409 {object} response.Response "库存不足"
// @Router       /cart/items/{product_id} [patch]
func (h *CartHandler) SetQuantity(c *gin.Context) {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}
	var req dto.SetCartItemQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.useCase.SetQuantity(c.Request.Context(), middleware.MustGetUserID(c), productID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RemoveItem 移出购物车
// @Summary      移出购物车
// @Tags         购物车
// @Produce      json
// @Security     BearerAuth
// @Param        product_id path int true "商品ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response "购物车中没有该商品"
// @Router       /cart/items/{product_id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}
	if err := h.useCase.RemoveItem(c.Request.Context(), middleware.MustGetUserID(c), productID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
