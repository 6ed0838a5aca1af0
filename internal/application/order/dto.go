package order

import (
	"github.com/xiebiao/storefront/internal/application/shared"
	"github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/domain/order"
)

// Policy 订单相关的可配置策略
type Policy struct {
	// AdminCancelReleasesStock 管理员改为CANCELED时是否归还库存
	AdminCancelReleasesStock bool
	// MaxLineQuantity 单行最大购买数量,0表示不限制
	MaxLineQuantity int
}

// OrderView 订单响应DTO
type OrderView struct {
	ID        uint       `json:"id"`
	OrderNo   string     `json:"order_no"`
	UserID    uint       `json:"user_id"`
	Status    string     `json:"status"`
	Total     int64      `json:"total"`
	TotalYuan string     `json:"total_yuan"`
	Items     []ItemView `json:"items"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}

// ItemView 订单明细
type ItemView struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
	PriceYuan   string `json:"price_yuan"`
	Subtotal    int64  `json:"subtotal"`
}

// ListResult 订单分页结果
type ListResult struct {
	Orders   []*OrderView
	Total    int64
	Page     int
	PageSize int
}

func toOrderView(o *order.Order) *OrderView {
	items := make([]ItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemView{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
			PriceYuan:   shared.FormatPrice(it.Price),
			Subtotal:    it.Subtotal(),
		})
	}
	return &OrderView{
		ID:        o.ID,
		OrderNo:   o.OrderNo,
		UserID:    o.UserID,
		Status:    string(o.Status),
		Total:     o.Total,
		TotalYuan: shared.FormatPrice(o.Total),
		Items:     items,
		CreatedAt: shared.FormatTime(o.CreatedAt),
		UpdatedAt: shared.FormatTime(o.UpdatedAt),
	}
}

func toOrderViews(orders []*order.Order) []*OrderView {
	views := make([]*OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	return views
}

func orderPayload(o *order.Order, previous order.Status, stockReleased bool, actorID uint) event.OrderPayload {
	lines := make([]event.OrderLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, event.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return event.OrderPayload{
		OrderID:       o.ID,
		OrderNo:       o.OrderNo,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PreviousState: string(previous),
		Total:         o.Total,
		Lines:         lines,
		StockReleased: stockReleased,
		ActorID:       actorID,
	}
}
