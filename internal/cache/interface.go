package cache

import (
	"context"
	"time"

	"github.com/publica-app/publica/internal/domain"
)

// ListingCache caches rendered listing pages. The contract mirrors an
// external page cache: entries expire purely by time, and a new post does
// not invalidate them — the TTL is the documented staleness window.
type ListingCache interface {
	GetPage(ctx context.Context, key string) (*domain.PostPage, error)
	SetPage(ctx context.Context, key string, page *domain.PostPage, ttl time.Duration) error
	BuildListKey(scope string, page, pageSize int) string
	Close() error
}

// CounterStore caches follower counts keyed by author ID.
type CounterStore interface {
	GetFollowerCount(ctx context.Context, userID string) (count int64, found bool, err error)
	SetFollowerCount(ctx context.Context, userID string, count int64, ttl time.Duration) error
}
