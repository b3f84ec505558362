// Package db 提供 GORM 初始化、连接池配置、事务助手与 SQL 日志适配
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wyfcoding/ecommerce/pkg/contextx"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config 数据库配置
type Config struct {
	Driver             string
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    int
	LogEnabled         bool
	SlowQueryThreshold int
}

// Open 按驱动类型打开数据库连接并配置连接池
func Open(cfg Config, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(log, cfg.LogEnabled, time.Duration(cfg.SlowQueryThreshold)*time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connected", "driver", cfg.Driver)
	return gdb, nil
}

// Close 关闭数据库连接
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Tx 由 UnitOfWork 打开的事务句柄
type Tx interface {
	Commit() error
	Rollback() error
}

// UnitOfWork 以 context 传递事务的工作单元
type UnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork 创建工作单元
func NewUnitOfWork(gdb *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: gdb}
}

// Begin 开启事务并把它绑定到返回的 context 上，仓储通过 contextx.GetTx 取用
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, Tx, error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return ctx, nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return contextx.WithTx(ctx, tx), &gormTx{tx: tx}, nil
}

type gormTx struct {
	tx *gorm.DB
}

func (t *gormTx) Commit() error {
	return t.tx.Commit().Error
}

// Rollback 对已经结束的事务（例如 context 取消后驱动已自动回滚）视为成功
func (t *gormTx) Rollback() error {
	err := t.tx.Rollback().Error
	if errors.Is(err, sql.ErrTxDone) || errors.Is(err, gorm.ErrInvalidTransaction) {
		return nil
	}
	return err
}

// GormLogger GORM 日志记录器实现
type GormLogger struct {
	log                *slog.Logger
	enabled            bool
	slowQueryThreshold time.Duration
}

// NewGormLogger 创建 GORM 日志记录器
func NewGormLogger(log *slog.Logger, enabled bool, slowQueryThreshold time.Duration) *GormLogger {
	if slowQueryThreshold <= 0 {
		slowQueryThreshold = time.Second
	}
	return &GormLogger{log: log, enabled: enabled, slowQueryThreshold: slowQueryThreshold}
}

// LogMode 设置日志模式
func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return l
}

// Info 记录信息日志
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.enabled {
		l.log.InfoContext(ctx, msg, "data", data)
	}
}

// Warn 记录警告日志
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.log.WarnContext(ctx, msg, "data", data)
}

// Error 记录错误日志
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.log.ErrorContext(ctx, msg, "data", data)
}

// Trace 记录 SQL 执行日志；记录不存在不视为错误
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sqlStr, rows := fc()
		l.log.ErrorContext(ctx, "SQL execution failed", "duration", elapsed, "rows", rows, "sql", sqlStr, "error", err)
		return
	}
	if elapsed > l.slowQueryThreshold {
		sqlStr, rows := fc()
		l.log.WarnContext(ctx, "slow query detected", "duration", elapsed, "rows", rows, "sql", sqlStr)
		return
	}
	if l.enabled {
		sqlStr, rows := fc()
		l.log.DebugContext(ctx, "SQL executed", "duration", elapsed, "rows", rows, "sql", sqlStr)
	}
}
