// Package mq 提供 Kafka 生产者封装
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers      []string
	MaxRetries   int
	RetryBackoff int
	TopicPrefix  string
}

// KafkaProducer Kafka 生产者
type KafkaProducer struct {
	writer *kafka.Writer
	config KafkaConfig
	log    *slog.Logger
}

// NewProducer 创建 Kafka 生产者
func NewProducer(cfg KafkaConfig, log *slog.Logger) *KafkaProducer {
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 100
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxRetries,
		WriteBackoffMin:        time.Duration(backoff) * time.Millisecond,
		WriteBackoffMax:        time.Duration(backoff*10) * time.Millisecond,
	}

	log.Info("kafka producer created", "brokers", cfg.Brokers)
	return &KafkaProducer{writer: writer, config: cfg, log: log}
}

// SendMessage 将 value 序列化为 JSON 后发送；[]byte 与 json.RawMessage 原样发送
func (kp *KafkaProducer) SendMessage(ctx context.Context, topic string, key string, value any) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		data = b
	}

	msg := kafka.Message{
		Topic: kp.config.TopicPrefix + topic,
		Key:   []byte(key),
		Value: data,
	}
	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		kp.log.ErrorContext(ctx, "failed to send kafka message", "topic", msg.Topic, "key", key, "error", err)
		return err
	}

	kp.log.DebugContext(ctx, "kafka message sent", "topic", msg.Topic, "key", key)
	return nil
}

// Close 关闭生产者
func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}
