// worker 消费领域事件:删除评分汇总缓存、记录订单审计日志
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	appevent "github.com/xiebiao/storefront/internal/application/event"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/internal/infrastructure/messaging"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
)

const serviceName = "storefront-worker"

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	metricsAddr := flag.String("metrics-addr", ":9101", "Prometheus指标监听地址,为空不启动")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Log.Level, cfg.Log.Format)
	metrics.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *metricsAddr); err != nil {
		logger.Error(ctx).Err(err).Msg("worker异常退出")
		os.Exit(1)
	}
	logger.Info(context.Background()).Msg("worker已关闭")
}

func run(ctx context.Context, cfg *config.Config, metricsAddr string) error {
	client, err := redis.NewClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	subscriber, err := messaging.NewSubscriber(cfg.Events)
	if err != nil {
		return err
	}
	defer subscriber.Close()

	handler := appevent.NewHandler(redis.NewRatingSummaryCache(client, cfg.Redis.RatingCacheTTL))

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler(), ReadTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn(ctx).Err(err).Msg("指标服务退出")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info(ctx).Str("driver", cfg.Events.Driver).Msg("worker启动")
	return subscriber.Run(ctx, handler.Handle)
}
