// Package outbox 实现事务性发件箱：业务事务内写入消息，后台中继投递到消息队列
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/wyfcoding/ecommerce/pkg/contextx"
	"gorm.io/gorm"
)

// 消息状态
const (
	StatusPending = "PENDING"
	StatusSent    = "SENT"
	StatusFailed  = "FAILED"
)

// Message 发件箱消息
type Message struct {
	ID            uint       `gorm:"primaryKey"`
	Topic         string     `gorm:"column:topic;type:varchar(128);not null"`
	MessageKey    string     `gorm:"column:message_key;type:varchar(128)"`
	Payload       string     `gorm:"column:payload;type:text;not null"`
	Status        string     `gorm:"column:status;type:varchar(16);not null;index:idx_outbox_due,priority:1"`
	Attempts      int        `gorm:"column:attempts;not null;default:0"`
	LastError     string     `gorm:"column:last_error;type:varchar(512)"`
	NextAttemptAt time.Time  `gorm:"column:next_attempt_at;index:idx_outbox_due,priority:2"`
	SentAt        *time.Time `gorm:"column:sent_at"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName 指定表名
func (Message) TableName() string {
	return "outbox_messages"
}

// AutoMigrate 迁移发件箱表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Message{})
}

// Sender 消息投递端，mq.KafkaProducer 实现了该接口
type Sender interface {
	SendMessage(ctx context.Context, topic string, key string, value any) error
}

// Recorder 投递结果观测
type Recorder interface {
	ObserveOutbox(topic, outcome string)
}

// Manager 发件箱管理器
type Manager struct {
	db          *gorm.DB
	sender      Sender
	log         *slog.Logger
	recorder    Recorder
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
	jitter      float64
	now         func() time.Time
}

// Option 管理器可选项
type Option func(*Manager)

// WithMaxAttempts 超过该次数后消息标记为 FAILED
func WithMaxAttempts(n int) Option {
	return func(m *Manager) { m.maxAttempts = n }
}

// WithBackoff 首次失败后的退避时长，之后按指数增长
func WithBackoff(d time.Duration) Option {
	return func(m *Manager) { m.backoff = d }
}

// WithMaxBackoff 退避上限
func WithMaxBackoff(d time.Duration) Option {
	return func(m *Manager) { m.maxBackoff = d }
}

// WithJitter 退避随机因子，取值 [0,1)
func WithJitter(f float64) Option {
	return func(m *Manager) { m.jitter = f }
}

// WithRecorder 记录每条消息的投递结果
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// NewManager 创建发件箱管理器
func NewManager(db *gorm.DB, sender Sender, log *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		db:          db,
		sender:      sender,
		log:         log,
		maxAttempts: 10,
		backoff:     time.Second,
		maxBackoff:  5 * time.Minute,
		jitter:      backoff.DefaultRandomizationFactor,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DB 返回底层连接
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Publish 写入一条待投递消息；context 中存在事务时随事务一起提交
func (m *Manager) Publish(ctx context.Context, topic string, key string, event any) error {
	if tx := contextx.GetTx(ctx); tx != nil {
		return m.PublishInTx(ctx, tx, topic, key, event)
	}
	return m.PublishInTx(ctx, m.db.WithContext(ctx), topic, key, event)
}

// PublishInTx 在指定事务中写入消息；写入放在保存点内，失败时外层事务仍可继续
func (m *Manager) PublishInTx(ctx context.Context, tx *gorm.DB, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox event: %w", err)
	}
	msg := &Message{
		Topic:         topic,
		MessageKey:    key,
		Payload:       string(payload),
		Status:        StatusPending,
		NextAttemptAt: m.now(),
	}
	err = tx.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return sp.Create(msg).Error
	})
	if err != nil {
		return fmt.Errorf("failed to write outbox message: %w", err)
	}
	return nil
}

// Flush 投递一批到期的待发送消息，返回成功条数
func (m *Manager) Flush(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	var msgs []Message
	err := m.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", StatusPending, m.now()).
		Order("id").
		Limit(batchSize).
		Find(&msgs).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load outbox messages: %w", err)
	}

	sent := 0
	for i := range msgs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		msg := &msgs[i]
		if err := m.sender.SendMessage(ctx, msg.Topic, msg.MessageKey, json.RawMessage(msg.Payload)); err != nil {
			m.markFailed(ctx, msg, err)
			m.observe(msg.Topic, "failed")
			continue
		}
		now := m.now()
		if err := m.db.WithContext(ctx).Model(msg).Updates(map[string]any{
			"status":  StatusSent,
			"sent_at": &now,
		}).Error; err != nil {
			return sent, fmt.Errorf("failed to mark outbox message sent: %w", err)
		}
		m.observe(msg.Topic, "sent")
		sent++
	}
	return sent, nil
}

func (m *Manager) observe(topic, outcome string) {
	if m.recorder != nil {
		m.recorder.ObserveOutbox(topic, outcome)
	}
}

func (m *Manager) markFailed(ctx context.Context, msg *Message, cause error) {
	attempts := msg.Attempts + 1
	status := StatusPending
	if attempts >= m.maxAttempts {
		status = StatusFailed
	}
	errText := cause.Error()
	if len(errText) > 512 {
		errText = errText[:512]
	}
	err := m.db.WithContext(ctx).Model(msg).Updates(map[string]any{
		"status":          status,
		"attempts":        attempts,
		"last_error":      errText,
		"next_attempt_at": m.now().Add(m.retryDelay(attempts)),
	}).Error
	if err != nil {
		m.log.ErrorContext(ctx, "failed to record outbox delivery failure", "id", msg.ID, "error", err)
	}
	m.log.WarnContext(ctx, "outbox delivery failed", "id", msg.ID, "topic", msg.Topic, "attempts", attempts, "error", cause)
}

// retryDelay 第 attempts 次失败后的退避时长
func (m *Manager) retryDelay(attempts int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.backoff
	b.MaxInterval = m.maxBackoff
	b.RandomizationFactor = m.jitter
	b.Reset()

	var d time.Duration
	for range attempts {
		d = b.NextBackOff()
	}
	return d
}

// Relay 周期性投递消息，直到 ctx 结束
func (m *Manager) Relay(ctx context.Context, interval time.Duration, batchSize int) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.Info("outbox relay started", "interval", interval, "batch_size", batchSize)
	for {
		select {
		case <-ctx.Done():
			m.log.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := m.Flush(ctx, batchSize); err != nil && ctx.Err() == nil {
				m.log.Error("outbox flush failed", "error", err)
			}
		}
	}
}

// LogSender 未配置消息队列时把事件写入日志
type LogSender struct {
	Log *slog.Logger
}

// SendMessage 记录一条事件日志
func (s LogSender) SendMessage(ctx context.Context, topic string, key string, value any) error {
	s.Log.InfoContext(ctx, "event published", "topic", topic, "key", key, "payload", value)
	return nil
}
