package memory

import (
	"context"
	"time"

	"video-summary-be/internal/entity"
	"video-summary-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type SummaryCacheRepository struct {
	cache *cache.Cache
}

var _ contract.SummaryCacheRepository = (*SummaryCacheRepository)(nil)

func NewSummaryCacheRepository(ttl time.Duration) *SummaryCacheRepository {
	// Expired items are purged every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &SummaryCacheRepository{
		cache: c,
	}
}

func (r *SummaryCacheRepository) Save(_ context.Context, key string, summary *entity.Summary) error {
	r.cache.Set(key, summary, cache.DefaultExpiration)
	return nil
}

func (r *SummaryCacheRepository) Get(_ context.Context, key string) (*entity.Summary, error) {
	if x, found := r.cache.Get(key); found {
		return x.(*entity.Summary), nil
	}
	return nil, nil
}

func (r *SummaryCacheRepository) Delete(_ context.Context, key string) error {
	r.cache.Delete(key)
	return nil
}
