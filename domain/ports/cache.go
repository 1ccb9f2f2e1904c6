package ports

import (
	"context"
	"time"
)

// StatusCachePort read-through cache ของ status endpoint
type StatusCachePort interface {
	// GetOrLoad อ่านจาก cache ถ้าไม่มีเรียก loader (singleflight ต่อ key)
	GetOrLoad(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func() (interface{}, error)) error
	Invalidate(ctx context.Context, key string) error
}

// TriggerGuardPort debounce trigger ซ้ำๆ ข้าม process (redis SETNX)
type TriggerGuardPort interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
