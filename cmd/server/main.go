package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	_ "storefront/docs"
	_ "storefront/internal/domain/order"
	orderRepo "storefront/internal/domain/order/repository"
	_ "storefront/internal/domain/payment"
	_ "storefront/internal/domain/promo"
	promoRepo "storefront/internal/domain/promo/repository"
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/events"
	"storefront/internal/pkg/idempotency"
	"storefront/internal/pkg/middleware"
	"storefront/internal/pkg/push"
	"storefront/internal/pkg/registry"
	"storefront/internal/pkg/worker"
	"storefront/pkg/database"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title Storefront API
// @version 1.0
// @description 订单、优惠码与支付对账接口
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	config.LoadConfig()
	cfg := &config.GlobalConfig

	if err := logger.InitLogger(cfg.App.Env); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	zlog := logger.Log

	gin.SetMode(cfg.Server.Mode)
	collector := metrics.GetGlobalCollector()

	mctx := &registry.ModuleContext{
		Config:  cfg,
		Logger:  zlog,
		Metrics: collector,
	}

	// 1. 存储
	var monitor *database.PoolMonitor
	if cfg.Database.Driver == "memory" {
		zlog.Warn("using in-memory storage, data is lost on restart")
		orders := orderRepo.NewMemoryOrderRepository()
		mctx.Orders = orders
		mctx.OrderStats = orderRepo.NewMemoryOrderStatsRepository(orders)
		mctx.Promos = promoRepo.NewMemoryPromoRepository()
	} else {
		db, err := database.InitDatabase(cfg.Database, cfg.App.Debug)
		if err != nil {
			zlog.Fatal("database init failed", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			zlog.Fatal("database handle unavailable", zap.Error(err))
		}
		defer sqlDB.Close()

		mctx.DB = db
		mctx.Orders = orderRepo.NewOrderRepository(db)
		mctx.OrderStats = orderRepo.NewOrderStatsRepository(sqlx.NewDb(sqlDB, "postgres"))
		mctx.Promos = promoRepo.NewPromoRepository(db)

		monitor = database.NewPoolMonitor(sqlDB, collector, zlog, 15*time.Second)
		monitor.Start()
	}

	// 2. 回调去重标记，无 Redis 时退化为进程内
	rdb, err := database.InitRedis(cfg.Redis)
	if err != nil {
		zlog.Warn("redis unavailable, notification markers kept in memory", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
		mctx.Redis = rdb
		mctx.Markers = idempotency.NewRedisStore(rdb, cfg.Idempotency.TTL)
	} else {
		mctx.Markers = idempotency.NewMemoryStore(cfg.Idempotency.TTL)
	}

	// 3. 订单事件
	sink, closeSinks := buildSinks(cfg, zlog)
	defer closeSinks()
	pool := worker.NewWorkerPool(sink, 4, 1024, zlog.Named("events"))
	pool.Start()
	mctx.Events = pool

	// 4. 路由
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.LoggerMiddleware(zlog),
		middleware.MetricsMiddleware(collector),
		cors.New(corsConfig(cfg.Server)),
	)
	r.GET("/health", healthHandler(mctx))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	mctx.Router = r

	if err := registry.InitModules(mctx); err != nil {
		zlog.Fatal("module init failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		zlog.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("http shutdown", zap.Error(err))
	}

	// 请求停止后再排空事件队列
	pool.Stop()
	if monitor != nil {
		monitor.Stop()
	}
	zlog.Info("shutdown complete")
}

// buildSinks 按配置组装事件目标
func buildSinks(cfg *config.Config, zlog *zap.Logger) (events.Sink, func()) {
	var sinks events.Fanout
	closers := make([]func() error, 0, 1)

	if len(cfg.Kafka.Brokers) > 0 {
		writer := events.NewKafkaWriter(cfg.Kafka)
		sinks = append(sinks, events.NewKafkaSink(writer, cfg.Kafka.Topic))
		closers = append(closers, writer.Close)
		zlog.Info("order events published to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if cfg.Push.AccessKeyID != "" {
		svc, err := push.NewAliyunPushService(cfg.Push)
		if err != nil {
			zlog.Error("push service init failed", zap.Error(err))
		} else {
			sinks = append(sinks, push.NewOrderNotifier(svc))
		}
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				zlog.Warn("sink close failed", zap.Error(err))
			}
		}
	}

	if len(sinks) == 0 {
		return events.Discard{}, closeAll
	}
	return sinks, closeAll
}

func corsConfig(cfg config.ServerConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowOrigins
		c.AllowCredentials = true
	}
	return c
}

func healthHandler(mctx *registry.ModuleContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok"}
		code := http.StatusOK

		if mctx.DB != nil {
			if sqlDB, err := mctx.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				status["database"] = "down"
				code = http.StatusServiceUnavailable
			} else {
				status["database"] = "up"
			}
		}
		if mctx.Redis != nil {
			if err := mctx.Redis.Ping(ctx).Err(); err != nil {
				status["redis"] = "down"
			} else {
				status["redis"] = "up"
			}
		}
		if code != http.StatusOK {
			status["status"] = "degraded"
		}
		c.JSON(code, status)
	}
}
