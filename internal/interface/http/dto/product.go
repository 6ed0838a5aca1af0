package dto

// CreateProductRequest 上架商品
type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required,max=200" example:"机械键盘"`
	Description string   `json:"description" binding:"max=5000" example:"87键,红轴"`
	Price       int64    `json:"price" binding:"required,min=1,max=99999999" example:"29900"` // 价格(分)
	Stock       int      `json:"stock" binding:"min=0" example:"100"`
	CategoryID  uint     `json:"category_id" example:"3"`
	Images      []string `json:"images" binding:"omitempty,max=10,dive,url"`
}

// ListProductsRequest 商品列表查询
type ListProductsRequest struct {
	Page       int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword    string `form:"keyword" binding:"omitempty,max=100" example:"键盘"`
	Status     string `form:"status" binding:"omitempty,oneof=ACTIVE INACTIVE DISCONTINUED DELETED"`
	CategoryID uint   `form:"category_id"`
	SortBy     string `form:"sort_by" binding:"omitempty,oneof=price_asc price_desc rating_desc created_at_desc" example:"created_at_desc"`
}

// ChangeStatusRequest 修改商品状态
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE INACTIVE DISCONTINUED DELETED" example:"INACTIVE"`
}

// RestockRequest 补货
type RestockRequest struct {
	Quantity int    `json:"quantity" binding:"required,min=1,max=1000000" example:"50"`
	Remark   string `json:"remark" binding:"max=200" example:"供应商到货"`
}

// PageRequest 通用分页参数
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}
