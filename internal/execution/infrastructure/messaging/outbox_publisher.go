// Package messaging 基于 Outbox 模式的事件发布
package messaging

import (
	"context"
	"fmt"

	"github.com/wyfcoding/pkg/messagequeue"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"gorm.io/gorm"
)

// outboxPublisher 事件随业务数据在同一事务内落入 outbox 表，
// 由后台 processor 异步推送到消息队列
type outboxPublisher struct {
	manager *outbox.Manager
}

// NewOutboxPublisher 创建 Outbox 事件发布者
func NewOutboxPublisher(manager *outbox.Manager) messagequeue.EventPublisher {
	return &outboxPublisher{manager: manager}
}

// Publish 发布一个普通事件（非事务内）
func (p *outboxPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	return p.manager.PublishInTx(ctx, p.manager.DB(), topic, key, event)
}

// PublishInTx 在事务中发布事件
func (p *outboxPublisher) PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error {
	gormTx, ok := tx.(*gorm.DB)
	if !ok {
		return fmt.Errorf("tx must be *gorm.DB, got %T", tx)
	}
	return p.manager.PublishInTx(ctx, gormTx, topic, key, event)
}
