package product

import (
	"time"
)

// Status 商品状态
type Status string

const (
	StatusActive       Status = "ACTIVE"       // 在售
	StatusInactive     Status = "INACTIVE"     // 下架
	StatusDiscontinued Status = "DISCONTINUED" // 停产
	StatusDeleted      Status = "DELETED"      // 已删除（软删除，历史订单仍引用）
)

// IsValid 是否为已定义的状态
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDiscontinued, StatusDeleted:
		return true
	}
	return false
}

// Product 商品实体(聚合根)
// DDD设计说明:
// 1. 价格使用int64存储"分"为单位(避免浮点数精度问题)
// 2. Stock只能通过库存台账(inventory.Ledger)修改,保证stock>=0
// 3. AverageRating是评分的冗余缓存,每次评分变更时在同一事务内重算,不允许单独修改
type Product struct {
	ID            uint
	Name          string
	Description   string
	Price         int64 // 价格(单位:分)
	Stock         int   // 库存数量,始终>=0
	Status        Status
	AverageRating float64 // 所有评分的算术平均,没有评分时为0
	CategoryID    uint
	Images        []string // 图片URL
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewProduct 创建新商品(工厂方法)
// 新商品默认为ACTIVE状态
func NewProduct(name, description string, price int64, stock int, categoryID uint, images []string) (*Product, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if price <= 0 {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	now := time.Now()
	return &Product{
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		Status:      StatusActive,
		CategoryID:  categoryID,
		Images:      images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsPurchasable 是否可下单(只有ACTIVE商品可下单)
func (p *Product) IsPurchasable() bool {
	return p.Status == StatusActive
}

// HasStock 库存是否足够
func (p *Product) HasStock(quantity int) bool {
	return quantity <= p.Stock
}

// ChangeStatus 修改状态(领域行为)
func (p *Product) ChangeStatus(status Status) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}
