// Storefront API
//
// @title                       Storefront API
// @version                     1.0
// @description                 商城下单与库存一致性服务:商品、购物车、订单、评分
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/tracing"
)

const serviceName = "storefront-api"

func main() {
	configPath := flag.String("config", "", "配置文件路径,为空时按STOREFRONT_ENV查找config目录")
	migrate := flag.Bool("migrate", false, "启动前执行AutoMigrate")
	flag.Parse()

	// 1. 加载配置
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 日志、指标、链路追踪
	logger.Init(serviceName, cfg.Log.Level, cfg.Log.Format)
	metrics.InitMetrics()

	ctx := context.Background()
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(serviceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
		if err != nil {
			logger.Error(ctx).Err(err).Msg("初始化链路追踪失败")
			os.Exit(1)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn(ctx).Err(err).Msg("关闭链路追踪失败")
			}
		}()
	}

	logger.Info(ctx).
		Int("port", cfg.Server.Port).
		Str("mode", cfg.Server.Mode).
		Str("database", cfg.Database.Driver).
		Str("redis", cfg.Redis.Addr()).
		Str("events", cfg.Events.Driver).
		Msg("配置加载成功")

	// 3. 依赖注入(wire_gen.go)
	app, cleanup, err := InitializeApp(cfg)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("初始化应用失败")
		os.Exit(1)
	}
	defer cleanup()

	if *migrate {
		if err := mysql.AutoMigrate(app.DB); err != nil {
			logger.Error(ctx).Err(err).Msg("数据库迁移失败")
			os.Exit(1)
		}
		logger.Info(ctx).Msg("数据库迁移完成")
	}

	// 4. 启动HTTP服务
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info(ctx).Str("addr", srv.Addr).Msg("服务启动成功")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx).Err(err).Msg("HTTP服务异常退出")
			os.Exit(1)
		}
	}()

	// 5. 优雅关闭:等待进行中的请求完成(事务要么提交要么回滚)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx).Msg("正在优雅关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx).Err(err).Msg("服务强制关闭")
	}
	logger.Info(ctx).Msg("服务已关闭")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
