package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/storefront/internal/domain/inventory"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// inventoryLogRepository 库存流水仓储,只追加不修改
type inventoryLogRepository struct {
	db *gorm.DB
}

// NewInventoryLogRepository 创建库存流水仓储
func NewInventoryLogRepository(db *gorm.DB) inventory.LogRepository {
	return &inventoryLogRepository{db: db}
}

func (r *inventoryLogRepository) Create(ctx context.Context, l *inventory.Log) error {
	model := &InventoryLogModel{
		ProductID:   l.ProductID,
		ChangeType:  string(l.ChangeType),
		Quantity:    l.Quantity,
		BeforeStock: l.BeforeStock,
		AfterStock:  l.AfterStock,
		OrderID:     l.OrderID,
		Remark:      l.Remark,
		CreatedAt:   l.CreatedAt,
	}
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "写入库存流水失败")
	}
	l.ID = model.ID
	return nil
}

func (r *inventoryLogRepository) ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]*inventory.Log, int64, error) {
	query := getDB(ctx, r.db).Model(&InventoryLogModel{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询库存流水总数失败")
	}

	var models []InventoryLogModel
	err := query.Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset(offset(page, pageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询库存流水失败")
	}
	return toLogEntities(models), total, nil
}

func (r *inventoryLogRepository) ListByOrder(ctx context.Context, orderID uint) ([]*inventory.Log, error) {
	var models []InventoryLogModel
	err := getDB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询库存流水失败")
	}
	return toLogEntities(models), nil
}

func toLogEntities(models []InventoryLogModel) []*inventory.Log {
	logs := make([]*inventory.Log, len(models))
	for i, m := range models {
		logs[i] = &inventory.Log{
			ID:          m.ID,
			ProductID:   m.ProductID,
			ChangeType:  inventory.ChangeType(m.ChangeType),
			Quantity:    m.Quantity,
			BeforeStock: m.BeforeStock,
			AfterStock:  m.AfterStock,
			OrderID:     m.OrderID,
			Remark:      m.Remark,
			CreatedAt:   m.CreatedAt,
		}
	}
	return logs
}
