package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/storefront/internal/application/order"
	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/pkg/response"
)

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	placeUseCase     *apporder.PlaceOrderUseCase
	cancelUseCase    *apporder.CancelOrderUseCase
	setStatusUseCase *apporder.SetOrderStatusUseCase
	queryUseCase     *apporder.QueryUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	placeUseCase *apporder.PlaceOrderUseCase,
	cancelUseCase *apporder.CancelOrderUseCase,
	setStatusUseCase *apporder.SetOrderStatusUseCase,
	queryUseCase *apporder.QueryUseCase,
) *OrderHandler {
	return &OrderHandler{
		placeUseCase:     placeUseCase,
		cancelUseCase:    cancelUseCase,
		setStatusUseCase: setStatusUseCase,
		queryUseCase:     queryUseCase,
	}
}

// PlaceOrder 下单
// @Summary      下单
// @Description  指定商品或从购物车结算;事务内锁定商品行扣减库存,不会超卖
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PlaceOrderRequest true "订单信息"
// @Success      200 {object} response.Response{data=apporder.OrderView} "下单成功"
// @Failure      400 {object} response.Response "参数错误或订单明细为空"
// @Failure      409 {object} response.Response "库存不足、商品不可售或价格已变动"
// @Failure      401 {object} response.Response "未登录"
// @Failure      404 {object} response.Response "商品不存在"
// @Router       /orders [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	lines := make([]cart.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = cart.Line{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	result, err := h.placeUseCase.Execute(c.Request.Context(), apporder.PlaceOrderRequest{
		UserID:        middleware.MustGetUserID(c),
		Lines:         lines,
		UseCart:       req.UseCart,
		ProductIDs:    req.ProductIDs,
		ExpectedTotal: req.ExpectedTotal,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetOrder 订单详情
// @Summary      订单详情
// @Description  下单人或管理员可以查看
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=apporder.OrderView}
// @Failure      403 {object} response.Response "不是自己的订单"
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.queryUseCase.GetOrder(c.Request.Context(), id, middleware.MustGetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListMyOrders 我的订单
// @Summary      我的订单
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Param        status query string false "状态" Enums(PENDING, COMPLETED, CANCELED, FAILED)
// @Param        start_date query string false "开始日期 2006-01-02"
// @Param        end_date query string false "结束日期 2006-01-02(含)"
// @Success      200 {object} response.Response{data=response.PageData{list=[]apporder.OrderView}}
// @Router       /orders/me [get]
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}
	result, err := h.queryUseCase.ListMyOrders(c.Request.Context(), middleware.MustGetUserID(c), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.Orders, result.Total, result.Page, result.PageSize)
}

// ListOrders 全部订单(管理员)
// @Summary      全部订单
// @Tags         订单管理
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Param        status query string false "状态" Enums(PENDING, COMPLETED, CANCELED, FAILED)
// @Param        start_date query string false "开始日期 2006-01-02"
// @Param        end_date query string false "结束日期 2006-01-02(含)"
// @Success      200 {object} response.Response{data=response.PageData{list=[]apporder.OrderView}}
// @Failure      403 {object} response.Response "无权限"
// @Router       /admin/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}
	result, err := h.queryUseCase.ListOrders(c.Request.Context(), middleware.IsAdmin(c), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.Orders, result.Total, result.Page, result.PageSize)
}

// CancelOrder 取消订单
// @Summary      取消订单
// @Description  只有PENDING订单可以取消,库存全部归还
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=apporder.OrderView}
// @Failure      409 {object} response.Response "订单状态不允许取消"
// @Failure      403 {object} response.Response "不是自己的订单"
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.cancelUseCase.Execute(c.Request.Context(), apporder.CancelOrderRequest{
		OrderID:     id,
		RequesterID: middleware.MustGetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// SetOrderStatus 修改订单状态(管理员)
// @Summary      修改订单状态
// @Description  PENDING → COMPLETED / CANCELED / FAILED,终态不可再改
// @Tags         订单管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Param        request body dto.SetOrderStatusRequest true "目标状态"
// @Success      200 {object} response.Response{data=apporder.OrderView}
// @Failure      400 {object} response.Response "未定义的订单状态"
// @Failure      409 {object} response.Response "状态流转不合法"
// @Router       /admin/orders/{id}/status [patch]
func (h *OrderHandler) SetOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SetOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.setStatusUseCase.Execute(c.Request.Context(), apporder.SetOrderStatusRequest{
		OrderID: id,
		Status:  req.Status,
		ActorID: middleware.MustGetUserID(c),
		IsAdmin: middleware.IsAdmin(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// bindListQuery end_date按整天包含,转换为次日零点的开区间
func bindListQuery(c *gin.Context) (apporder.ListQuery, bool) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return apporder.ListQuery{}, false
	}
	q := apporder.ListQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		Status:   req.Status,
		Start:    req.StartDate,
	}
	if !req.EndDate.IsZero() {
		q.End = req.EndDate.AddDate(0, 0, 1)
	}
	return q, true
}
