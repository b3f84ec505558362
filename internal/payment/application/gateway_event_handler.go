package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/payment/domain"
	"github.com/wyfcoding/ecommerce/internal/pipeline"
)

// EventRecorder 记录网关事件处理结果，metrics.Metrics 实现了该接口
type EventRecorder interface {
	ObserveGatewayEvent(eventType, outcome string)
}

// 除对账结果外的网关事件结果标签
const (
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeMalformed        = "malformed"
	OutcomeFailed           = "failed"
)

// GatewayEventHandler Webhook 入口：验签、解析、去重，然后以单条命令完成对账
type GatewayEventHandler struct {
	pipeline *pipeline.Pipeline
	gateway  domain.Gateway
	store    domain.IdempotencyStore
	recorder EventRecorder
	logger   *slog.Logger
}

// NewGatewayEventHandler 创建 Webhook 处理器；store 与 recorder 可为 nil
func NewGatewayEventHandler(p *pipeline.Pipeline, gateway domain.Gateway, store domain.IdempotencyStore, recorder EventRecorder, logger *slog.Logger) *GatewayEventHandler {
	return &GatewayEventHandler{
		pipeline: p,
		gateway:  gateway,
		store:    store,
		recorder: recorder,
		logger:   logger,
	}
}

// HandleGatewayEvent 处理一条原始网关事件。签名错误返回 common.ErrWebhookSignatureInvalid，
// 不透露具体原因；找不到支付、未知类型与重复投递都返回 nil。
func (h *GatewayEventHandler) HandleGatewayEvent(ctx context.Context, payload []byte, signature string) error {
	_, err := h.handle(ctx, payload, signature)
	return err
}

func (h *GatewayEventHandler) handle(ctx context.Context, payload []byte, signature string) (ReconcileResultDTO, error) {
	if !h.gateway.VerifyWebhookSignature(payload, signature) {
		h.observe("unknown", OutcomeInvalidSignature)
		h.logger.WarnContext(ctx, "rejected gateway event with invalid signature")
		return ReconcileResultDTO{}, common.ErrWebhookSignatureInvalid
	}

	evt, err := h.gateway.ParseWebhook(payload)
	if err != nil {
		h.observe("unknown", OutcomeMalformed)
		return ReconcileResultDTO{}, err
	}
	log := h.logger.With("event_id", evt.ID, "event_type", evt.Type)

	if h.store != nil {
		seen, err := h.store.Seen(ctx, evt.ID)
		switch {
		case err != nil:
			log.WarnContext(ctx, "idempotency store unavailable, relying on payment state guard", "error", err)
		case seen:
			log.InfoContext(ctx, "duplicate gateway event skipped")
			h.observe(evt.Type, OutcomeDuplicate)
			return ReconcileResultDTO{EventID: evt.ID, EventType: evt.Type, Outcome: OutcomeDuplicate}, nil
		}
	}

	// 并发的同一事件都会进入对账，由支付状态机把后到者变为 noop
	result, err := pipeline.Send[ReconcileResultDTO](ctx, h.pipeline, ReconcileGatewayEventCommand{
		EventID:       evt.ID,
		Type:          evt.Type,
		TransactionID: evt.TransactionID,
		Payload:       payload,
	})
	if err != nil {
		h.observe(evt.Type, OutcomeFailed)
		return ReconcileResultDTO{}, fmt.Errorf("reconcile gateway event %s: %w", evt.ID, err)
	}
	if h.store != nil {
		if err := h.store.MarkProcessed(context.WithoutCancel(ctx), evt.ID); err != nil {
			log.WarnContext(ctx, "failed to record processed gateway event", "error", err)
		}
	}
	h.observe(evt.Type, result.Outcome)
	return result, nil
}

// ReplayParked 逐条重放暂存事件，每条一个事务；单条失败不影响其余事件
func (h *GatewayEventHandler) ReplayParked(ctx context.Context, parked []*domain.ParkedEvent) (ReplayResultDTO, error) {
	var res ReplayResultDTO
	for _, e := range parked {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Processed++
		out, err := pipeline.Send[ReconcileResultDTO](ctx, h.pipeline, ReconcileGatewayEventCommand{
			EventID:       e.EventID,
			Type:          e.Type,
			TransactionID: e.TransactionID,
			Payload:       e.Payload,
			ParkedID:      e.ID,
		})
		switch {
		case err != nil:
			res.Failed++
			h.logger.ErrorContext(ctx, "failed to replay parked gateway event", "event_id", e.EventID, "error", err)
			if errors.Is(err, context.Canceled) {
				return res, err
			}
		case out.Outcome == OutcomeParked:
			res.StillParked++
		default:
			res.Resolved++
			h.observe(e.Type, "replayed_"+out.Outcome)
		}
	}
	return res, nil
}

func (h *GatewayEventHandler) observe(eventType, outcome string) {
	if h.recorder != nil {
		h.recorder.ObserveGatewayEvent(eventType, outcome)
	}
}
