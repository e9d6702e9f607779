// Package mq 提供基于 segmentio/kafka-go 的轻量 Kafka 生产者封装
package mq

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/pkg/logging"
)

// Config Kafka 配置
type Config struct {
	Brokers      []string `mapstructure:"brokers" toml:"brokers"`
	MaxRetries   int      `mapstructure:"max_retries" toml:"max_retries"`
	RetryBackoff int      `mapstructure:"retry_backoff_ms" toml:"retry_backoff_ms"`
}

// Producer Kafka 生产者
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 创建 Kafka 生产者
func NewProducer(cfg Config) *Producer {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 100
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            retries,
		WriteBackoffMin:        time.Duration(backoff) * time.Millisecond,
		WriteBackoffMax:        time.Duration(backoff*10) * time.Millisecond,
	}
	return &Producer{writer: writer}
}

// Publish 发布一条消息到指定主题
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
	if err != nil {
		logging.Error(ctx, "failed to publish kafka message", "topic", topic, "error", err)
		return err
	}
	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	return p.writer.Close()
}
