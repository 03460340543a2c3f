package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"video-summary-be/internal/entity"
	"video-summary-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "summary:"

// SummaryCacheRepository shares cached summaries between instances.
type SummaryCacheRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ contract.SummaryCacheRepository = (*SummaryCacheRepository)(nil)

func NewSummaryCacheRepository(rdb *redis.Client, ttl time.Duration) *SummaryCacheRepository {
	return &SummaryCacheRepository{rdb: rdb, ttl: ttl}
}

func (r *SummaryCacheRepository) Get(ctx context.Context, key string) (*entity.Summary, error) {
	raw, err := r.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var summary entity.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("decode cached summary %s: %w", key, err)
	}
	return &summary, nil
}

func (r *SummaryCacheRepository) Save(ctx context.Context, key string, summary *entity.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := r.rdb.Set(ctx, keyPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *SummaryCacheRepository) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, keyPrefix+key).Err()
}
