package dto

// SubmitRatingRequest 提交评分
// 分值范围由领域层校验(1-5),以便返回统一的评分错误码
type SubmitRatingRequest struct {
	Rating *int   `json:"rating" binding:"required" example:"5"`
	Review string `json:"review" binding:"max=2000" example:"手感很好"`
}
