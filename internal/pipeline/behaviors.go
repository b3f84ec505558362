package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/pkg/db"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// Transactor 开启事务，db.UnitOfWork 实现了该接口
type Transactor interface {
	Begin(ctx context.Context) (context.Context, db.Tx, error)
}

// Recorder 记录请求指标，metrics.Metrics 实现了该接口
type Recorder interface {
	ObserveRequest(request, kind, outcome string, elapsed time.Duration)
}

// 请求结果标签
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Logging 记录请求名、耗时与结果，错误原样返回
func Logging(log *slog.Logger, rec Recorder) Behavior {
	return func(ctx context.Context, info RequestInfo, req any, next Handler) (any, error) {
		l := logger.WithContext(ctx, log).With("request", info.Name, "kind", string(info.Kind))
		l.DebugContext(ctx, "handling request")

		start := time.Now()
		resp, err := next(ctx, req)
		elapsed := time.Since(start)

		outcome := OutcomeSuccess
		switch {
		case err == nil:
			l.InfoContext(ctx, "request handled", "elapsed_ms", elapsed.Milliseconds())
		case isBusinessError(err):
			outcome = OutcomeRejected
			l.WarnContext(ctx, "request rejected", "elapsed_ms", elapsed.Milliseconds(), "error", err)
		default:
			outcome = OutcomeError
			l.ErrorContext(ctx, "request failed", "elapsed_ms", elapsed.Milliseconds(), "error", err)
		}
		if rec != nil {
			rec.ObserveRequest(info.Name, string(info.Kind), outcome, elapsed)
		}
		return resp, err
	}
}

func isBusinessError(err error) bool {
	for _, kind := range []error{
		common.ErrValidationFailed,
		common.ErrNotFound,
		common.ErrInvalidStateTransition,
		common.ErrInsufficientStock,
		common.ErrCurrencyMismatch,
		common.ErrConcurrencyConflict,
		common.ErrProductUnavailable,
		common.ErrWebhookSignatureInvalid,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Validation 收集全部违反的规则，有违规时在处理器与事务之前返回
func Validation(v *Validator) Behavior {
	return func(ctx context.Context, info RequestInfo, req any, next Handler) (any, error) {
		if violations := v.Validate(ctx, req); len(violations) > 0 {
			return nil, common.NewValidationError(info.Name, violations...)
		}
		return next(ctx, req)
	}
}

// Transaction 仅对命令生效：成功提交，出错、panic 或 context 取消时回滚
func Transaction(t Transactor) Behavior {
	return func(ctx context.Context, info RequestInfo, req any, next Handler) (resp any, err error) {
		if info.Kind != KindCommand || t == nil {
			return next(ctx, req)
		}

		txCtx, tx, err := t.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrPersistenceFailure, err)
		}

		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r)
			}
		}()

		resp, err = next(txCtx, req)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("%w: rollback: %w", common.ErrPersistenceFailure, rbErr))
			}
			return nil, err
		}

		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("%w: commit: %w", common.ErrPersistenceFailure, err)
		}
		return resp, nil
	}
}
