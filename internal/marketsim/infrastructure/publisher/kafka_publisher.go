package publisher

import (
	"context"
	"encoding/json"

	"github.com/wyfcoding/papertrading/internal/marketsim/domain"
	"github.com/wyfcoding/papertrading/pkg/mq"
)

// KafkaTickPublisher 把 tick 事件发布到 Kafka
type KafkaTickPublisher struct {
	producer *mq.Producer
}

// NewKafkaTickPublisher 创建 Kafka 行情发布器
func NewKafkaTickPublisher(producer *mq.Producer) domain.TickPublisher {
	return &KafkaTickPublisher{producer: producer}
}

// PublishTick 发布一次 tick 的价格变动
func (p *KafkaTickPublisher) PublishTick(ctx context.Context, tick *domain.PriceTickEvent) error {
	data, err := json.Marshal(tick)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, domain.MarketPriceTopic, []byte(tick.Symbol), data)
}
