package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"food-analyzer/internal/infrastructure/config"
	"food-analyzer/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore redis 後端的指紋快取，多個實例共用同一份條目
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 創建 redis 快取
func NewRedisStore(cfg *config.CacheConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis 指紋快取已初始化",
		zap.String("addr", cfg.Addr),
		zap.String("key_prefix", cfg.KeyPrefix),
	)
	return &RedisStore{
		client: client,
		prefix: cfg.KeyPrefix,
	}, nil
}

// entryKey 條目鍵；hitKey 命中計數鍵（條目本體不變，計數單獨遞增）
func (s *RedisStore) entryKey(fp string) string { return fmt.Sprintf("%s:entry:%s", s.prefix, fp) }
func (s *RedisStore) hitKey(fp string) string   { return fmt.Sprintf("%s:hits:%s", s.prefix, fp) }

// Get 查詢指紋，命中時原子遞增命中計數
func (s *RedisStore) Get(ctx context.Context, fingerprint string) (*CachedResult, error) {
	data, err := s.client.Get(ctx, s.entryKey(fingerprint)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, common.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var entry CachedResult
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache: %w", err)
	}

	hits, err := s.client.Incr(ctx, s.hitKey(fingerprint)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to bump hit count: %w", err)
	}
	entry.HitCount = hits
	entry.LastHitAt = time.Now()

	return &entry, nil
}

// Put 寫入條目，以 SETNX 保證 first writer wins
func (s *RedisStore) Put(ctx context.Context, fingerprint string, result *CachedResult) error {
	now := time.Now()
	stored := *result
	stored.Fingerprint = fingerprint
	stored.HitCount = 1
	stored.CreatedAt = now
	stored.LastHitAt = now

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	// SETNX：鍵已存在時不覆寫，回報衝突讓呼叫端重讀
	ok, err := s.client.SetNX(ctx, s.entryKey(fingerprint), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	if !ok {
		common.LogInfo("快取寫入衝突，保留先寫入者",
			zap.String("指紋", fingerprint),
		)
		return common.ErrCacheConflict
	}

	// 首次寫入視為一次命中
	if err := s.client.Set(ctx, s.hitKey(fingerprint), 1, 0).Err(); err != nil {
		return fmt.Errorf("failed to init hit count: %w", err)
	}
	return nil
}

// Purge 掃描條目並依條件清除
func (s *RedisStore) Purge(ctx context.Context, predicate func(*CachedResult) bool) (int, error) {
	pattern := fmt.Sprintf("%s:entry:*", s.prefix)
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()

	count := 0
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return count, fmt.Errorf("failed to read entry during purge: %w", err)
		}
		var entry CachedResult
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if !predicate(&entry) {
			continue
		}
		if err := s.client.Del(ctx, key, s.hitKey(entry.Fingerprint)).Err(); err != nil {
			return count, fmt.Errorf("failed to delete entry during purge: %w", err)
		}
		count++
	}
	if err := iter.Err(); err != nil {
		return count, fmt.Errorf("purge scan failed: %w", err)
	}

	if count > 0 {
		common.LogInfo("快取清除執行", zap.Int("清除數量", count))
	}
	return count, nil
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
