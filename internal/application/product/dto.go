// Package product 商品用例:上架、查询、状态管理、补货
package product

import (
	"github.com/xiebiao/storefront/internal/application/shared"
	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/product"
)

// ProductView 商品响应DTO
type ProductView struct {
	ID            uint     `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         int64    `json:"price"` // 价格(分)
	PriceYuan     string   `json:"price_yuan"`
	Stock         int      `json:"stock"`
	Status        string   `json:"status"`
	AverageRating float64  `json:"average_rating"`
	CategoryID    uint     `json:"category_id,omitempty"`
	Images        []string `json:"images"`
	CreatedAt     string   `json:"created_at"`
}

func toProductView(p *product.Product, withDescription bool) *ProductView {
	v := &ProductView{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		PriceYuan:     shared.FormatPrice(p.Price),
		Stock:         p.Stock,
		Status:        string(p.Status),
		AverageRating: p.AverageRating,
		CategoryID:    p.CategoryID,
		Images:        p.Images,
		CreatedAt:     shared.FormatTime(p.CreatedAt),
	}
	if v.Images == nil {
		v.Images = []string{}
	}
	// 列表不返回description,减少传输量
	if withDescription {
		v.Description = p.Description
	}
	return v
}

// InventoryLogView 库存流水
type InventoryLogView struct {
	ID          uint   `json:"id"`
	ChangeType  string `json:"change_type"`
	Quantity    int    `json:"quantity"`
	BeforeStock int    `json:"before_stock"`
	AfterStock  int    `json:"after_stock"`
	OrderID     uint   `json:"order_id,omitempty"`
	Remark      string `json:"remark,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toLogView(l *inventory.Log) InventoryLogView {
	return InventoryLogView{
		ID:          l.ID,
		ChangeType:  string(l.ChangeType),
		Quantity:    l.Quantity,
		BeforeStock: l.BeforeStock,
		AfterStock:  l.AfterStock,
		OrderID:     l.OrderID,
		Remark:      l.Remark,
		CreatedAt:   shared.FormatTime(l.CreatedAt),
	}
}
