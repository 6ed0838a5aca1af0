package main

import (
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appcart "github.com/xiebiao/storefront/internal/application/cart"
	appevent "github.com/xiebiao/storefront/internal/application/event"
	apporder "github.com/xiebiao/storefront/internal/application/order"
	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/internal/infrastructure/messaging"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/internal/interface/http/router"
	"github.com/xiebiao/storefront/pkg/jwt"
	"github.com/xiebiao/storefront/pkg/logger"
)

// App 组装完成的应用
type App struct {
	Config *config.Config
	Engine *gin.Engine
	DB     *gorm.DB
}

// ========================================
// Custom Providers
// ========================================
// 构造函数参数不是直接的类型(需要从Config中提取)或需要cleanup时,手写Provider

// provideDB 创建数据库连接,cleanup关闭连接池
func provideDB(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

// provideRedis 创建Redis连接
func provideRedis(cfg *config.Config) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// providePublisher 按events.driver创建事件发布者(带熔断)
func providePublisher(cfg *config.Config) (event.Publisher, func(), error) {
	publisher, err := messaging.NewPublisher(cfg.Events)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := publisher.Close(); err != nil {
			logger.Logger.Warn().Err(err).Msg("关闭事件发布者失败")
		}
	}
	return publisher, cleanup, nil
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

func provideAuthConfig(cfg *config.Config) config.AuthConfig {
	return cfg.Auth
}

func provideDispatcher(publisher event.Publisher, cfg *config.Config) *appevent.Dispatcher {
	return appevent.NewDispatcher(publisher).WithTimeout(cfg.Events.PublishTimeout)
}

func provideOrderPolicy(cfg *config.Config) apporder.Policy {
	return apporder.Policy{
		AdminCancelReleasesStock: cfg.Order.AdminCancelReleasesStock,
		MaxLineQuantity:          cfg.Order.MaxLineQuantity,
	}
}

func provideRatingCache(client *goredis.Client, cfg *config.Config) *redis.RatingSummaryCache {
	return redis.NewRatingSummaryCache(client, cfg.Redis.RatingCacheTTL)
}

func provideCartUseCase(carts cart.Repository, products product.Repository, policy apporder.Policy) *appcart.UseCase {
	return appcart.NewUseCase(carts, products, policy.MaxLineQuantity)
}

// provideEngine 创建Gin引擎并注册路由
func provideEngine(cfg *config.Config, handlers router.Handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	return router.New(router.Options{
		Mode:          cfg.Server.Mode,
		EnableSwagger: cfg.Server.Mode != gin.ReleaseMode,
	}, handlers, auth)
}
