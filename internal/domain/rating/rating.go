// Package rating 商品评分
//
// 每个(用户, 商品)最多一条评分,重复提交覆盖旧值。
// Product.AverageRating是Mean(该商品全部评分)的缓存,
// 只在评分写入/删除的同一事务内重算,不单独更新。
package rating

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

const (
	MinScore = 1
	MaxScore = 5

	// MaxReviewLength 评价文本最大长度(字符)
	MaxReviewLength = 2000
)

var (
	// ErrInvalidRating 评分超出1-5
	ErrInvalidRating = apperrors.New(apperrors.ErrCodeInvalidRating, "评分必须是1到5之间的整数")

	// ErrReviewTooLong 评价过长
	ErrReviewTooLong = apperrors.New(apperrors.ErrCodeInvalidParams, "评价内容过长")

	// ErrRatingNotFound 评分不存在
	ErrRatingNotFound = apperrors.New(apperrors.ErrCodeRatingNotFound, "评分不存在")
)

// Rating 评分
type Rating struct {
	ID        uint
	UserID    uint
	ProductID uint
	Score     int
	Review    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRating 校验并创建评分
func NewRating(userID, productID uint, score int, review string) (*Rating, error) {
	if score < MinScore || score > MaxScore {
		return nil, ErrInvalidRating
	}
	review = strings.TrimSpace(review)
	if len([]rune(review)) > MaxReviewLength {
		return nil, ErrReviewTooLong
	}

	now := time.Now()
	return &Rating{
		UserID:    userID,
		ProductID: productID,
		Score:     score,
		Review:    review,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Mean 算术平均,没有评分时为0
func Mean(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum int
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// Summary 商品评分汇总
type Summary struct {
	ProductID     uint        `json:"product_id"`
	Count         int         `json:"count"`
	AverageRating float64     `json:"average_rating"`
	Distribution  map[int]int `json:"distribution"` // 分值 → 人数
}

// Summarize 由全部评分计算汇总
func Summarize(productID uint, scores []int) Summary {
	dist := make(map[int]int, MaxScore)
	for s := MinScore; s <= MaxScore; s++ {
		dist[s] = 0
	}
	for _, s := range scores {
		dist[s]++
	}
	return Summary{
		ProductID:     productID,
		Count:         len(scores),
		AverageRating: Mean(scores),
		Distribution:  dist,
	}
}

// Repository 评分仓储接口
type Repository interface {
	// Upsert 按(user_id, product_id)插入或覆盖score/review,返回写入后的记录
	Upsert(ctx context.Context, r *Rating) (*Rating, error)

	// FindByUserAndProduct 查询单条,不存在返回ErrRatingNotFound
	FindByUserAndProduct(ctx context.Context, userID, productID uint) (*Rating, error)

	// Delete 删除单条,不存在返回ErrRatingNotFound
	Delete(ctx context.Context, userID, productID uint) error

	// ScoresByProduct 商品的全部分值
	ScoresByProduct(ctx context.Context, productID uint) ([]int, error)

	// ListByProduct 商品评分列表(按更新时间倒序)
	ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]*Rating, int64, error)

	// ListByUser 用户的评分列表
	ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*Rating, int64, error)
}

// SummaryCache 评分汇总缓存(读多写少的商品详情页使用)
// 评分变更后删除缓存,下次读取时重新计算;读取方以Product.AverageRating和评分条数校验缓存
type SummaryCache interface {
	Get(ctx context.Context, productID uint) (*Summary, bool, error)
	Set(ctx context.Context, s *Summary) error
	Invalidate(ctx context.Context, productID uint) error
}
