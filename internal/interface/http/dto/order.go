package dto

import "time"

// OrderItemRequest 订单行
type OrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required" example:"1"`
	Quantity  int  `json:"quantity" binding:"required,min=1,max=999" example:"2"`
}

// PlaceOrderRequest 下单请求
// use_cart=true 时从购物车结算(可用product_ids只结算部分商品),否则使用items
type PlaceOrderRequest struct {
	Items         []OrderItemRequest `json:"items" binding:"omitempty,max=50,dive"`
	UseCart       bool               `json:"use_cart"`
	ProductIDs    []uint             `json:"product_ids" binding:"omitempty,max=50"`
	ExpectedTotal *int64             `json:"expected_total" binding:"omitempty,min=0" example:"59800"` // 客户端确认的总金额(分)
}

// ListOrdersRequest 订单列表查询,日期为闭区间
type ListOrdersRequest struct {
	Page      int       `form:"page" binding:"omitempty,min=1"`
	PageSize  int       `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status    string    `form:"status" binding:"omitempty,oneof=PENDING COMPLETED CANCELED FAILED"`
	StartDate time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   time.Time `form:"end_date" time_format:"2006-01-02"`
}

// SetOrderStatusRequest 管理员修改订单状态
// 状态合法性由领域层判断,这里只要求非空
type SetOrderStatusRequest struct {
	Status string `json:"status" binding:"required" example:"COMPLETED"`
}
