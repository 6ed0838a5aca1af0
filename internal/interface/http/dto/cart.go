package dto

// AddCartItemRequest 加入购物车,数量默认为1
type AddCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required" example:"1"`
	Quantity  *int `json:"quantity" binding:"omitempty,min=1,max=999" example:"2"`
}

// QuantityOrDefault 未传数量时为1
func (r AddCartItemRequest) QuantityOrDefault() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

// SetCartItemQuantityRequest 修改购物车行数量(绝对值)
type SetCartItemQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=999" example:"3"`
}
