package handler

import (
	"github.com/gin-gonic/gin"

	appproduct "github.com/xiebiao/storefront/internal/application/product"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/pkg/response"
)

// ProductHandler 商品HTTP处理器
type ProductHandler struct {
	createUseCase *appproduct.CreateProductUseCase
	queryUseCase  *appproduct.QueryUseCase
	manageUseCase *appproduct.ManageUseCase
}

// NewProductHandler 创建商品处理器
func NewProductHandler(
	createUseCase *appproduct.CreateProductUseCase,
	queryUseCase *appproduct.QueryUseCase,
	manageUseCase *appproduct.ManageUseCase,
) *ProductHandler {
	return &ProductHandler{
		createUseCase: createUseCase,
		queryUseCase:  queryUseCase,
		manageUseCase: manageUseCase,
	}
}

// CreateProduct 上架商品
// @Summary      上架商品
// @Description  管理员创建商品,初始库存记入库存流水
// @Tags         商品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateProductRequest true "商品信息"
// @Success      200 {object} response.Response{data=appproduct.ProductView}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      403 {object} response.Response "无权限"
// @Router       /products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), appproduct.CreateProductRequest{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		Images:      req.Images,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListProducts 商品列表
// @Summary      商品列表
// @Description  分页查询商品,普通用户只能看到在售商品
// @Tags         商品
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        keyword query string false "关键词"
// @Param        status query string false "状态(仅管理员)"
// @Param        category_id query int false "分类ID"
// @Param        sort_by query string false "排序" Enums(price_asc, price_desc, rating_desc, created_at_desc)
// @Success      200 {object} response.Response{data=response.PageData{list=[]appproduct.ProductView}}
// @Router       /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.queryUseCase.List(c.Request.Context(), appproduct.ListRequest{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Keyword:    req.Keyword,
		Status:     req.Status,
		CategoryID: req.CategoryID,
		SortBy:     req.SortBy,
		IsAdmin:    middleware.IsAdmin(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// GetProduct 商品详情
// @Summary      商品详情
// @Tags         商品
// @Produce      json
// @Param        id path int true "商品ID"
// @Success      200 {object} response.Response{data=appproduct.ProductView}
// @Failure      404 {object} response.Response "商品不存在"
// @Router       /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.queryUseCase.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ChangeStatus 修改商品状态
// @Summary      修改商品状态
// @Tags         商品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "商品ID"
// @Param        request body dto.ChangeStatusRequest true "目标状态"
// @Success      200 {object} response.Response{data=appproduct.ProductView}
// @Router       /products/{id}/status [patch]
func (h *ProductHandler) ChangeStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.manageUseCase.ChangeStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Restock 补货
// @Summary      补货
// @Tags         商品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "商品ID"
// @Param        request body dto.RestockRequest true "补货数量"
// @Success      200 {object} response.Response{data=appproduct.RestockResult}
// @Router       /products/{id}/restock [post]
func (h *ProductHandler) Restock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.manageUseCase.Restock(c.Request.Context(), id, req.Quantity, req.Remark)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// InventoryLogs 库存流水
// @Summary      库存流水
// @Tags         商品
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "商品ID"
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Success      200 {object} response.Response{data=response.PageData{list=[]appproduct.InventoryLogView}}
// @Router       /products/{id}/inventory-logs [get]
func (h *ProductHandler) InventoryLogs(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.manageUseCase.InventoryLogs(c.Request.Context(), id, req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.PageSize)
}
