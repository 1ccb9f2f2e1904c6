package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/config"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// Client ใช้เป็น status cache ของ GET /runs/:id/status และ trigger debounce
type Client struct {
	rdb *redis.Client
}

var (
	_ ports.StatusCachePort  = (*Client)(nil)
	_ ports.TriggerGuardPort = (*Client)(nil)
)

// NewClient ping ก่อนคืน client; error = caller ทำงานต่อแบบไม่มี cache
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	if cfg.Password != "" {
		opt.Password = cfg.Password
	}
	if cfg.DB > 0 {
		opt.DB = cfg.DB
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	logger.Info("Redis connected", "addr", opt.Addr, "db", opt.DB)

	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// ═══════════════════════════════════════════════════════════════════════════════
// Locks
// ═══════════════════════════════════════════════════════════════════════════════

// ลบเฉพาะเมื่อยังเป็น token ของเรา (lock อาจหมดอายุแล้วมีคนอื่นถือต่อ)
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// acquireLock คืน token ไว้ใช้ตอน release; "" = ไม่ได้ lock
func (c *Client) acquireLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return "", err
	}
	return token, nil
}

func (c *Client) releaseLock(ctx context.Context, key, token string) {
	if err := releaseScript.Run(ctx, c.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn("Failed to release redis lock", "key", key, "error", err)
	}
}

// TryAcquire trigger debounce: key หมดอายุเองหลัง ttl ไม่ต้อง release
// เป็นแค่ตัวลดโหลด single-flight จริงอยู่ที่ run lease ใน postgres
func (c *Client) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, "guard:"+key, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
}

// ═══════════════════════════════════════════════════════════════════════════════
// JSON Cache Helpers
// ═══════════════════════════════════════════════════════════════════════════════

// GetJSON คืน redis.Nil ถ้าไม่มี key
func (c *Client) GetJSON(ctx context.Context, key string, target interface{}) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

const (
	loadLockTTL   = 10 * time.Second
	loadWaitStep  = 50 * time.Millisecond
	loadWaitTries = 20
)

// GetOrLoad cache-aside + lock กัน thundering herd เมื่อหลาย client poll run เดียวกัน
// ถ้ารอ lock นานเกินไปจะเรียก loader เองโดยไม่ cache
func (c *Client) GetOrLoad(ctx context.Context, key string, target interface{}, ttl time.Duration, loader func() (interface{}, error)) error {
	err := c.GetJSON(ctx, key, target)
	if err == nil {
		return nil
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}

	lockKey := "lock:" + key
	for i := 0; i < loadWaitTries; i++ {
		token, err := c.acquireLock(ctx, lockKey, loadLockTTL)
		if err != nil {
			return err
		}
		if token != "" {
			defer c.releaseLock(context.WithoutCancel(ctx), lockKey, token)

			if err := c.GetJSON(ctx, key, target); err == nil {
				return nil
			}
			return c.load(ctx, key, target, ttl, loader, true)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(loadWaitStep):
		}
		if err := c.GetJSON(ctx, key, target); err == nil {
			return nil
		}
	}

	return c.load(ctx, key, target, ttl, loader, false)
}

func (c *Client) load(ctx context.Context, key string, target interface{}, ttl time.Duration, loader func() (interface{}, error), store bool) error {
	result, err := loader()
	if err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if store {
		if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
			logger.Warn("Failed to cache result", "key", key, "error", err)
		}
	}
	return json.Unmarshal(data, target)
}

// Invalidate ลบ cache entry (เรียกทุกครั้งที่ run state เปลี่ยน)
func (c *Client) Invalidate(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}
