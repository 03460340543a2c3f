package contract

import (
	"context"

	"video-summary-be/internal/entity"
)

// SummaryCacheRepository stores finished summaries by key. Lookups that
// miss return (nil, nil).
type SummaryCacheRepository interface {
	Get(ctx context.Context, key string) (*entity.Summary, error)
	Save(ctx context.Context, key string, summary *entity.Summary) error
	Delete(ctx context.Context, key string) error
}
