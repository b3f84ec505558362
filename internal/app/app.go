// Package app 显式组装各限界上下文、管道与 HTTP 路由
package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/wyfcoding/ecommerce/internal/cart/application"
	cartmysql "github.com/wyfcoding/ecommerce/internal/cart/infrastructure/persistence/mysql"
	carthttp "github.com/wyfcoding/ecommerce/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/ecommerce/internal/catalog/application"
	catalogmysql "github.com/wyfcoding/ecommerce/internal/catalog/infrastructure/persistence/mysql"
	cataloghttp "github.com/wyfcoding/ecommerce/internal/catalog/interfaces/http"
	customerapp "github.com/wyfcoding/ecommerce/internal/customer/application"
	customermysql "github.com/wyfcoding/ecommerce/internal/customer/infrastructure/persistence/mysql"
	customerhttp "github.com/wyfcoding/ecommerce/internal/customer/interfaces/http"
	orderapp "github.com/wyfcoding/ecommerce/internal/order/application"
	ordermysql "github.com/wyfcoding/ecommerce/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/ecommerce/internal/order/interfaces/http"
	paymentapp "github.com/wyfcoding/ecommerce/internal/payment/application"
	paymentdomain "github.com/wyfcoding/ecommerce/internal/payment/domain"
	paymentmysql "github.com/wyfcoding/ecommerce/internal/payment/infrastructure/persistence/mysql"
	paymenthttp "github.com/wyfcoding/ecommerce/internal/payment/interfaces/http"
	"github.com/wyfcoding/ecommerce/internal/pipeline"
	"github.com/wyfcoding/ecommerce/pkg/db"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/outbox"
	"gorm.io/gorm"
)

// Options 组装所需的外部依赖
type Options struct {
	DB     *gorm.DB
	Logger *slog.Logger
	// Sender 发件箱投递端，nil 时写日志
	Sender outbox.Sender
	// Metrics 可为 nil
	Metrics     *metrics.Metrics
	MetricsPath string
	// Gateway 为 nil 时网关相关命令与 Webhook 不可用
	Gateway                  paymentdomain.Gateway
	GatewayName              string
	Idempotency              paymentdomain.IdempotencyStore
	DefaultLowStockThreshold int
	OutboxOptions            []outbox.Option
}

// App 已组装的应用
type App struct {
	DB       *gorm.DB
	Logger   *slog.Logger
	Pipeline *pipeline.Pipeline
	Outbox   *outbox.Manager
	Metrics  *metrics.Metrics

	metricsPath string

	Catalog  *catalogapp.CatalogApplicationService
	Customer *customerapp.CustomerApplicationService
	Cart     *cartapp.CartApplicationService
	Order    *orderapp.OrderApplicationService
	Payment  *paymentapp.PaymentApplicationService
}

// Migrate 迁移全部表
func Migrate(gdb *gorm.DB) error {
	for _, m := range []func(*gorm.DB) error{
		catalogmysql.AutoMigrate,
		customermysql.AutoMigrate,
		cartmysql.AutoMigrate,
		ordermysql.AutoMigrate,
		paymentmysql.AutoMigrate,
		outbox.AutoMigrate,
	} {
		if err := m(gdb); err != nil {
			return err
		}
	}
	return nil
}

// New 组装仓储、管道与各应用服务
func New(opts Options) *App {
	log := opts.Logger
	sender := opts.Sender
	if sender == nil {
		sender = outbox.LogSender{Log: log}
	}
	outboxOpts := opts.OutboxOptions
	if opts.Metrics != nil {
		outboxOpts = append(outboxOpts, outbox.WithRecorder(opts.Metrics))
	}
	box := outbox.NewManager(opts.DB, sender, log, outboxOpts...)

	popts := pipeline.Options{Logger: log, Transactor: db.NewUnitOfWork(opts.DB)}
	var recorder paymentapp.EventRecorder
	if opts.Metrics != nil {
		popts.Recorder = opts.Metrics
		recorder = opts.Metrics
	}
	p := pipeline.New(popts)

	products := catalogmysql.NewProductRepository(opts.DB)
	carts := cartmysql.NewCartRepository(opts.DB)
	orders := ordermysql.NewOrderRepository(opts.DB)

	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	return &App{
		DB:          opts.DB,
		Logger:      log,
		Pipeline:    p,
		Outbox:      box,
		Metrics:     opts.Metrics,
		metricsPath: metricsPath,
		Catalog:     catalogapp.NewCatalogApplicationService(p, products, catalogmysql.NewCategoryRepository(opts.DB), box, log, opts.DefaultLowStockThreshold),
		Customer:    customerapp.NewCustomerApplicationService(p, customermysql.NewCustomerRepository(opts.DB), box, log),
		Cart:        cartapp.NewCartApplicationService(p, carts, products, box, log),
		Order:       orderapp.NewOrderApplicationService(p, orders, carts, box, log),
		Payment: paymentapp.NewPaymentApplicationService(p, paymentapp.Dependencies{
			Payments:    paymentmysql.NewPaymentRepository(opts.DB),
			Parked:      paymentmysql.NewParkedEventRepository(opts.DB),
			Orders:      orders,
			Gateway:     opts.Gateway,
			GatewayName: opts.GatewayName,
			Idempotency: opts.Idempotency,
			Publisher:   box,
			Recorder:    recorder,
			Logger:      log,
		}),
	}
}

// Router 构建 HTTP 路由，业务接口挂在 /api/v1 下
func (a *App) Router(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestContext(), middleware.Recovery(a.Logger), middleware.Logging(a.Logger))
	if a.Metrics != nil {
		r.Use(middleware.Metrics(a.Metrics))
		r.GET(a.metricsPath, gin.WrapH(a.Metrics.Handler()))
	}
	r.Use(extra...)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().Unix()})
	})

	api := r.Group("/api/v1")
	cataloghttp.NewHandler(a.Catalog).RegisterRoutes(api)
	customerhttp.NewHandler(a.Customer).RegisterRoutes(api)
	carthttp.NewHandler(a.Cart).RegisterRoutes(api)
	orderhttp.NewHandler(a.Order).RegisterRoutes(api)
	paymenthttp.NewHandler(a.Payment).RegisterRoutes(api)
	return r
}
