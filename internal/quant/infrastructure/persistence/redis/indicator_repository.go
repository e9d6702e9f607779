package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/papertrading/internal/quant/domain"
)

// IndicatorRedisRepository 指标快照的 Redis 读缓存
type IndicatorRedisRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewIndicatorRedisRepository 创建基于 Redis 的指标快照缓存
func NewIndicatorRedisRepository(client redis.UniversalClient) *IndicatorRedisRepository {
	return &IndicatorRedisRepository{
		client: client,
		prefix: "quant:indicator:",
		ttl:    time.Minute,
	}
}

func (r *IndicatorRedisRepository) Get(ctx context.Context, symbol string) (*domain.IndicatorSnapshot, error) {
	data, err := r.client.Get(ctx, r.prefix+symbol).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get indicator snapshot from redis: %w", err)
	}
	var snapshot domain.IndicatorSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal indicator snapshot: %w", err)
	}
	return &snapshot, nil
}

func (r *IndicatorRedisRepository) Set(ctx context.Context, snapshot *domain.IndicatorSnapshot) error {
	if snapshot == nil {
		return nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal indicator snapshot: %w", err)
	}
	return r.client.Set(ctx, r.prefix+snapshot.Symbol, data, r.ttl).Err()
}
