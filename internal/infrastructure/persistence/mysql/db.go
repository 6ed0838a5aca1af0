package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/pkg/logger"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 按database.driver选择MySQL或PostgreSQL方言，仓储代码与方言无关
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 表结构迁移由启动参数-migrate触发，见AutoMigrate
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := newDialector(cfg.Database)
	if err != nil {
		return nil, err
	}

	logLevel := gormlogger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = gormlogger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(logLevel),
		NowFunc: time.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	logger.Info(context.Background()).
		Str("driver", driverName(cfg.Database)).
		Str("host", cfg.Database.Host).
		Str("dbname", cfg.Database.DBName).
		Msg("数据库连接成功")

	return db, nil
}

func newDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch driverName(cfg) {
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN()), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

func driverName(cfg config.DatabaseConfig) string {
	if cfg.Driver == "" {
		return config.DriverMySQL
	}
	return cfg.Driver
}

// AutoMigrate 自动迁移表结构
// AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
// 注意：生产环境应使用版本化的迁移脚本
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&ProductModel{},
		&CartItemModel{},
		&OrderModel{},
		&OrderItemModel{},
		&RatingModel{},
		&InventoryLogModel{},
	)
}

// UserModel GORM用户模型
// domain/user/entity.go是领域实体，不依赖GORM；Repository负责两者之间的转换
type UserModel struct {
	ID        uint           `gorm:"primaryKey"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Nickname  string         `gorm:"size:50;not null;comment:昵称"`
	Role      string         `gorm:"size:20;not null;default:customer;comment:角色"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

func (UserModel) TableName() string {
	return "users"
}

// ProductModel GORM商品模型
// 设计说明:
// 1. 价格使用int64存储"分"为单位
// 2. 商品删除使用Status=DELETED,不用gorm软删除:订单明细仍需按ID引用
// 3. Images通过gorm的json序列化器存为文本
type ProductModel struct {
	ID            uint      `gorm:"primaryKey"`
	Name          string    `gorm:"index:idx_search;size:200;not null;comment:商品名称"`
	Description   string    `gorm:"type:text;comment:商品描述"`
	Price         int64     `gorm:"index:idx_list;not null;comment:价格(分)"`
	Stock         int       `gorm:"not null;default:0;comment:库存数量"`
	Status        string    `gorm:"index;size:20;not null;default:ACTIVE;comment:状态"`
	AverageRating float64   `gorm:"not null;default:0;comment:平均评分"`
	CategoryID    uint      `gorm:"index;comment:分类ID"`
	Images        []string  `gorm:"serializer:json;type:text;comment:图片URL"`
	CreatedAt     time.Time `gorm:"index:idx_list;comment:创建时间"`
	UpdatedAt     time.Time `gorm:"comment:更新时间"`
}

func (ProductModel) TableName() string {
	return "products"
}

// CartItemModel GORM购物车模型,(user_id, product_id)唯一
type CartItemModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"uniqueIndex:uk_cart_user_product;not null;comment:用户ID"`
	ProductID uint      `gorm:"uniqueIndex:uk_cart_user_product;not null;comment:商品ID"`
	Quantity  int       `gorm:"not null;comment:数量"`
	CreatedAt time.Time `gorm:"comment:加入时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (CartItemModel) TableName() string {
	return "cart_items"
}

// OrderModel GORM订单模型
// 1. 与OrderItemModel是一对多关系
// 2. OrderNo有唯一索引(业务主键)
type OrderModel struct {
	ID        uint             `gorm:"primaryKey"`
	OrderNo   string           `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	UserID    uint             `gorm:"index;not null;comment:买家用户ID"`
	Total     int64            `gorm:"not null;comment:订单总金额(分)"`
	Status    string           `gorm:"index;size:20;not null;default:PENDING;comment:订单状态"`
	Items     []OrderItemModel `gorm:"foreignKey:OrderID"`
	CreatedAt time.Time        `gorm:"index;comment:创建时间"`
	UpdatedAt time.Time        `gorm:"comment:更新时间"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel GORM订单明细模型,记录下单时的价格和名称快照
type OrderItemModel struct {
	ID          uint   `gorm:"primaryKey"`
	OrderID     uint   `gorm:"index;not null;comment:订单ID"`
	ProductID   uint   `gorm:"index;not null;comment:商品ID"`
	ProductName string `gorm:"size:200;not null;comment:下单时商品名称"`
	Quantity    int    `gorm:"not null;comment:购买数量"`
	Price       int64  `gorm:"not null;comment:下单时单价(分)"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

// RatingModel GORM评分模型,(user_id, product_id)唯一
type RatingModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"uniqueIndex:uk_rating_user_product;not null;comment:用户ID"`
	ProductID uint      `gorm:"uniqueIndex:uk_rating_user_product;index;not null;comment:商品ID"`
	Score     int       `gorm:"not null;comment:评分1-5"`
	Review    string    `gorm:"type:text;comment:评价"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"index;comment:更新时间"`
}

func (RatingModel) TableName() string {
	return "ratings"
}

// InventoryLogModel GORM库存流水模型
type InventoryLogModel struct {
	ID          uint      `gorm:"primaryKey"`
	ProductID   uint      `gorm:"index;not null;comment:商品ID"`
	ChangeType  string    `gorm:"size:20;not null;comment:变动类型"`
	Quantity    int       `gorm:"not null;comment:变动数量"`
	BeforeStock int       `gorm:"not null;comment:变动前库存"`
	AfterStock  int       `gorm:"not null;comment:变动后库存"`
	OrderID     uint      `gorm:"index;comment:关联订单ID"`
	Remark      string    `gorm:"size:255;comment:备注"`
	CreatedAt   time.Time `gorm:"index;comment:创建时间"`
}

func (InventoryLogModel) TableName() string {
	return "inventory_logs"
}
