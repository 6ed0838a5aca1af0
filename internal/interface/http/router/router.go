// Package router 注册HTTP路由和全局中间件
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/storefront/internal/interface/http/handler"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	User    *handler.UserHandler
	Product *handler.ProductHandler
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
	Rating  *handler.RatingHandler
}

// Options 路由选项
type Options struct {
	Mode          string // debug | release | test
	EnableSwagger bool
}

// New 创建Gin引擎并注册全部路由
func New(opts Options, h Handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(opts.Mode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	// 顺序:Recovery最外层,Logger生成请求ID后Metrics和业务Handler才能使用
	r.Use(gin.Recovery(), middleware.Logger(), middleware.Metrics())

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.EnableSwagger {
		// 访问 /swagger/index.html,文档由 swag init 生成
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := auth.RequireAuth()
	requireAdmin := auth.RequireAdmin()

	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/register", h.User.Register)
			users.POST("/login", h.User.Login)
			users.POST("/refresh", h.User.Refresh)
			users.POST("/logout", requireAuth, h.User.Logout)
		}
		v1.GET("/profile", requireAuth, h.User.Profile)

		products := v1.Group("/products")
		{
			// 管理员带Token访问时可以按状态查看下架商品
			products.GET("", auth.OptionalAuth(), h.Product.ListProducts)
			products.GET("/:id", h.Product.GetProduct)
			products.POST("", requireAuth, requireAdmin, h.Product.CreateProduct)
			products.PATCH("/:id/status", requireAuth, requireAdmin, h.Product.ChangeStatus)
			products.POST("/:id/restock", requireAuth, requireAdmin, h.Product.Restock)
			products.GET("/:id/inventory-logs", requireAuth, requireAdmin, h.Product.InventoryLogs)

			products.GET("/:id/ratings", h.Rating.ListProductRatings)
			products.POST("/:id/ratings", requireAuth, h.Rating.SubmitRating)
			products.DELETE("/:id/ratings", requireAuth, h.Rating.DeleteRating)
		}

		v1.GET("/ratings/me", requireAuth, h.Rating.ListMyRatings)

		cart := v1.Group("/cart", requireAuth)
		{
			cart.GET("", h.Cart.GetCart)
			cart.POST("/items", h.Cart.AddItem)
			cart.PATCH("/items/:product_id", h.Cart.SetQuantity)
			cart.DELETE("/items/:product_id", h.Cart.RemoveItem)
		}

		orders := v1.Group("/orders", requireAuth)
		{
			orders.POST("", h.Order.PlaceOrder)
			orders.GET("/me", h.Order.ListMyOrders)
			orders.GET("/:id", h.Order.GetOrder)
			orders.POST("/:id/cancel", h.Order.CancelOrder)
		}

		admin := v1.Group("/admin", requireAuth, requireAdmin)
		{
			admin.GET("/orders", h.Order.ListOrders)
			admin.PATCH("/orders/:id/status", h.Order.SetOrderStatus)
		}
	}

	return r
}
