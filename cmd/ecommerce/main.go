// ECommerce 主程序
// 功能：商品目录、购物车、订单与支付，支付网关 Webhook 对账
// 架构：DDD + 命令管道 + 事务性发件箱
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/app"
	paymentdomain "github.com/wyfcoding/ecommerce/internal/payment/domain"
	"github.com/wyfcoding/ecommerce/internal/payment/infrastructure/gateway"
	"github.com/wyfcoding/ecommerce/internal/payment/infrastructure/idempotency"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/db"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/mq"
	"github.com/wyfcoding/ecommerce/pkg/outbox"
	"github.com/wyfcoding/ecommerce/pkg/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	configPath := flag.String("config", "configs/ecommerce/config.toml", "path to the TOML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("ecommerce service exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 1. 加载配置
	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. 初始化日志
	log, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(log)
	log.Info("starting ecommerce service",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化数据库
	database, err := db.Open(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()
	if cfg.Database.AutoMigrate {
		if err := app.Migrate(database); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// 4. 初始化 Redis：Webhook 去重与限流，未启用时退化为进程内去重
	var (
		store   paymentdomain.IdempotencyStore = idempotency.NewMemoryStore(cfg.IdempotencyTTL())
		limiter ratelimit.RateLimiter
	)
	if cfg.Redis.Enabled {
		redisCache, err := cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer redisCache.Close()
		store = idempotency.NewRedisStore(redisCache, cfg.IdempotencyTTL())
		limiter = ratelimit.NewRedisRateLimiter(redisCache.GetClient())
	}

	// 5. 初始化消息投递端
	var sender outbox.Sender = outbox.LogSender{Log: log}
	if cfg.Kafka.Enabled {
		producer := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
			TopicPrefix:  cfg.Kafka.TopicPrefix,
		}, log)
		defer func() {
			if err := producer.Close(); err != nil {
				log.Error("failed to close kafka producer", "error", err)
			}
		}()
		sender = producer
	}

	// 6. 初始化指标
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	// 7. 初始化支付网关
	gw := gateway.NewStripeGateway(gateway.Config{
		BaseURL:            cfg.Payment.BaseURL,
		SecretKey:          cfg.Payment.SecretKey,
		WebhookSecret:      cfg.Payment.WebhookSecret,
		Timeout:            time.Duration(cfg.Payment.Timeout) * time.Second,
		MaxRetries:         cfg.Payment.MaxRetries,
		SignatureTolerance: time.Duration(cfg.Payment.SignatureTolerance) * time.Second,
	}, log)

	// 8. 组装应用
	application := app.New(app.Options{
		DB:                       database,
		Logger:                   log,
		Sender:                   sender,
		Metrics:                  m,
		MetricsPath:              cfg.Metrics.Path,
		Gateway:                  gw,
		GatewayName:              cfg.Payment.Gateway,
		Idempotency:              store,
		DefaultLowStockThreshold: cfg.Catalog.DefaultLowStockThreshold,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 9. 启动发件箱中继、HTTP 与 gRPC，任一失败即整体关停
	var grpcServer *grpc.Server
	if cfg.GRPC.Enabled {
		grpcServer = createGRPCServer()
	}
	err = serve(ctx, log, servers{
		http:     createHTTPServer(cfg, application, limiter),
		grpc:     grpcServer,
		grpcAddr: fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port),
		relay: func(ctx context.Context) {
			application.Outbox.Relay(ctx, cfg.OutboxInterval(), cfg.Outbox.BatchSize)
		},
	})
	if err != nil {
		return err
	}

	log.Info("ecommerce service stopped")
	return nil
}

// createHTTPServer 创建 HTTP 服务器
func createHTTPServer(cfg *config.Config, application *app.App, limiter ratelimit.RateLimiter) *http.Server {
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	var extra []gin.HandlerFunc
	if cfg.RateLimit.Enabled && limiter != nil {
		extra = append(extra, middleware.RateLimit(limiter, cfg.RateLimit.QPS, cfg.RateLimit.Burst))
	}

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      application.Router(extra...),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
}

// createGRPCServer 创建只承载健康检查的 gRPC 服务器
func createGRPCServer() *grpc.Server {
	server := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)
	return server
}
