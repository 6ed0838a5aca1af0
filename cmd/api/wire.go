//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 修改Provider后运行 `wire gen ./cmd/api` 重新生成 wire_gen.go

package main

import (
	"github.com/google/wire"

	apporder "github.com/xiebiao/storefront/internal/application/order"
	appproduct "github.com/xiebiao/storefront/internal/application/product"
	apprating "github.com/xiebiao/storefront/internal/application/rating"
	appuser "github.com/xiebiao/storefront/internal/application/user"
	"github.com/xiebiao/storefront/internal/domain/inventory"
	"github.com/xiebiao/storefront/internal/domain/rating"
	"github.com/xiebiao/storefront/internal/domain/tx"
	"github.com/xiebiao/storefront/internal/domain/user"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/storefront/internal/interface/http/handler"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/internal/interface/http/router"
)

// infrastructureSet 基础设施:数据库、Redis、事件发布、JWT、配置切片
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedis,
	providePublisher,
	provideJWTManager,
	provideAuthConfig,
	provideOrderPolicy,
)

// repositorySet 仓储、事务管理器、缓存
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewProductRepository,
	mysql.NewCartRepository,
	mysql.NewOrderRepository,
	mysql.NewRatingRepository,
	mysql.NewInventoryLogRepository,
	mysql.NewTxManager,
	wire.Bind(new(tx.Manager), new(*mysql.TxManager)),

	redis.NewSessionStore,
	wire.Bind(new(appuser.SessionStore), new(*redis.SessionStore)),
	wire.Bind(new(middleware.TokenBlacklist), new(*redis.SessionStore)),
	provideRatingCache,
	wire.Bind(new(rating.SummaryCache), new(*redis.RatingSummaryCache)),
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	user.NewService,
	inventory.NewLedger,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	provideDispatcher,

	appuser.NewRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewRefreshUseCase,
	appuser.NewLogoutUseCase,

	appproduct.NewCreateProductUseCase,
	appproduct.NewQueryUseCase,
	appproduct.NewManageUseCase,

	provideCartUseCase,

	apporder.NewPlaceOrderUseCase,
	apporder.NewCancelOrderUseCase,
	apporder.NewSetOrderStatusUseCase,
	apporder.NewQueryUseCase,

	apprating.NewSubmitRatingUseCase,
	apprating.NewDeleteRatingUseCase,
	apprating.NewQueryUseCase,
)

// interfaceSet 中间件、Handler、路由
var interfaceSet = wire.NewSet(
	middleware.NewAuthMiddleware,
	handler.NewUserHandler,
	handler.NewProductHandler,
	handler.NewCartHandler,
	handler.NewOrderHandler,
	handler.NewRatingHandler,
	wire.Struct(new(router.Handlers), "*"),
	provideEngine,
)

// InitializeApp 组装整个应用,cleanup按创建的逆序释放连接
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
