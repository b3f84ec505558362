// Package pipeline 命令/查询分发管道：每个请求依次经过日志、校验、事务三个环节后交给唯一的处理器
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// Kind 请求类别
type Kind string

const (
	KindCommand Kind = "command"
	KindQuery   Kind = "query"
)

// RequestInfo 请求元信息
type RequestInfo struct {
	Name string
	Kind Kind
}

// Handler 管道内部统一的处理函数签名
type Handler func(ctx context.Context, req any) (any, error)

// Behavior 环绕处理器的横切逻辑，与 gRPC UnaryServerInterceptor 同构
type Behavior func(ctx context.Context, info RequestInfo, req any, next Handler) (any, error)

// Options 管道依赖
type Options struct {
	Logger     *slog.Logger
	Validator  *Validator
	Transactor Transactor
	Recorder   Recorder
}

type registration struct {
	info   RequestInfo
	handle Handler
}

// Pipeline 请求分发器
type Pipeline struct {
	mu        sync.RWMutex
	handlers  map[reflect.Type]registration
	behaviors []Behavior
	validator *Validator
}

// New 按 日志 → 校验 → 事务 的固定顺序组装管道
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Validator == nil {
		opts.Validator = NewValidator()
	}
	return &Pipeline{
		handlers:  make(map[reflect.Type]registration),
		validator: opts.Validator,
		behaviors: []Behavior{
			Logging(opts.Logger, opts.Recorder),
			Validation(opts.Validator),
			Transaction(opts.Transactor),
		},
	}
}

// Validator 返回管道使用的校验器，用于注册请求级规则
func (p *Pipeline) Validator() *Validator {
	return p.validator
}

// HandleCommand 注册命令处理器，命令在事务中执行
func HandleCommand[C any, R any](p *Pipeline, h func(ctx context.Context, cmd C) (R, error)) {
	register[C, R](p, KindCommand, h)
}

// HandleQuery 注册查询处理器，查询不开启事务
func HandleQuery[Q any, R any](p *Pipeline, h func(ctx context.Context, q Q) (R, error)) {
	register[Q, R](p, KindQuery, h)
}

func register[T any, R any](p *Pipeline, kind Kind, h func(context.Context, T) (R, error)) {
	t := reflect.TypeFor[T]()
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, dup := p.handlers[t]; dup {
		panic(fmt.Sprintf("pipeline: handler for %s registered twice", t))
	}
	p.handlers[t] = registration{
		info: RequestInfo{Name: t.Name(), Kind: kind},
		handle: func(ctx context.Context, req any) (any, error) {
			return h(ctx, req.(T))
		},
	}
}

// Send 分发请求并返回处理结果
func Send[R any](ctx context.Context, p *Pipeline, req any) (R, error) {
	var zero R
	p.mu.RLock()
	reg, ok := p.handlers[reflect.TypeOf(req)]
	p.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("pipeline: no handler registered for %T", req)
	}

	next := reg.handle
	for i := len(p.behaviors) - 1; i >= 0; i-- {
		b, inner := p.behaviors[i], next
		next = func(ctx context.Context, req any) (any, error) {
			return b(ctx, reg.info, req, inner)
		}
	}

	resp, err := next(ctx, req)
	if err != nil {
		return zero, err
	}
	if resp == nil {
		return zero, nil
	}
	out, ok := resp.(R)
	if !ok {
		return zero, fmt.Errorf("pipeline: %s returned %T, caller expected %T", reg.info.Name, resp, zero)
	}
	return out, nil
}
