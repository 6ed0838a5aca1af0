package handler

import (
	"github.com/gin-gonic/gin"

	apprating "github.com/xiebiao/storefront/internal/application/rating"
	"github.com/xiebiao/storefront/internal/domain/rating"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/pkg/response"
)

// RatingHandler 评分HTTP处理器
type RatingHandler struct {
	submitUseCase *apprating.SubmitRatingUseCase
	deleteUseCase *apprating.DeleteRatingUseCase
	queryUseCase  *apprating.QueryUseCase
}

// NewRatingHandler 创建评分处理器
func NewRatingHandler(
	submitUseCase *apprating.SubmitRatingUseCase,
	deleteUseCase *apprating.DeleteRatingUseCase,
	queryUseCase *apprating.QueryUseCase,
) *RatingHandler {
	return &RatingHandler{
		submitUseCase: submitUseCase,
		deleteUseCase: deleteUseCase,
		queryUseCase:  queryUseCase,
	}
}

// ProductRatingsResponse 商品评分页:汇总 + 分页列表
type ProductRatingsResponse struct {
	Summary rating.Summary `json:"summary"`
	*response.PageData
}

// AverageResponse 删除评分后的平均分
type AverageResponse struct {
	ProductID     uint    `json:"product_id"`
	AverageRating float64 `json:"average_rating"`
}

// SubmitRating 提交评分
// @Summary      提交评分
// @Description  每个用户对每个商品只有一条评分,重复提交覆盖;平均分同事务重算
// @Tags         评分
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "商品ID"
// @Param        request body dto.SubmitRatingRequest true "评分(1-5)"
// @Success      200 {object} response.Response{data=apprating.RatingView}
// @Failure      400 {object} response.Response "评分超出范围"
// @Failure      404 {object} response.Response "商品不存在"
// @Router       /products/{id}/ratings [post]
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.submitUseCase.Execute(c.Request.Context(), apprating.SubmitRatingRequest{
		UserID:    middleware.MustGetUserID(c),
		ProductID: productID,
		Rating:    *req.Rating,
		Review:    req.Review,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteRating 删除自己的评分
// @Summary      删除评分
// @Tags         评分
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "商品ID"
// @Success      200 {object} response.Response{data=AverageResponse}
// @Failure      404 {object} response.Response "评分不存在"
// @Router       /products/{id}/ratings [delete]
func (h *RatingHandler) DeleteRating(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	avg, err := h.deleteUseCase.Execute(c.Request.Context(), middleware.MustGetUserID(c), productID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &AverageResponse{ProductID: productID, AverageRating: avg})
}

// ListProductRatings 商品评分列表
// @Summary      商品评分列表
// @Tags         评分
// @Produce      json
// @Param        id path int true "商品ID"
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Success      200 {object} response.Response{data=ProductRatingsResponse}
// @Failure      404 {object} response.Response "商品不存在"
// @Router       /products/{id}/ratings [get]
func (h *RatingHandler) ListProductRatings(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.queryUseCase.ListProductRatings(c.Request.Context(), productID, req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &ProductRatingsResponse{
		Summary:  result.Summary,
		PageData: response.NewPageData(result.Ratings, result.Total, result.Page, result.PageSize),
	})
}

// ListMyRatings 我的评分
// @Summary      我的评分
// @Tags         评分
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Success      200 {object} response.Response{data=response.PageData{list=[]apprating.RatingView}}
// @Router       /ratings/me [get]
func (h *RatingHandler) ListMyRatings(c *gin.Context) {
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.queryUseCase.ListMyRatings(c.Request.Context(), middleware.MustGetUserID(c), req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.Ratings, result.Total, result.Page, result.PageSize)
}
