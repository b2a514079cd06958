package score

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"food-analyzer/internal/infrastructure/config"
	"food-analyzer/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// RedisRecords redis 後端的分數記錄
// 完整記錄以 list 累積，另外維護每個組合的最新快速分數鍵供 O(1) 查詢
type RedisRecords struct {
	client *redis.Client
	prefix string
}

// NewRedisRecords 創建 redis 分數記錄
func NewRedisRecords(cfg *config.CacheConfig) (*RedisRecords, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisRecords{client: client, prefix: cfg.KeyPrefix}, nil
}

func (s *RedisRecords) listKey(food string, diseases []string) string {
	return fmt.Sprintf("%s:scores:%s", s.prefix, hashCombo(food, diseases))
}

func (s *RedisRecords) latestQuickKey(food string, diseases []string) string {
	return fmt.Sprintf("%s:latest-quick:%s", s.prefix, hashCombo(food, diseases))
}

// hashCombo 把 (食物, 疾病集合) 壓成固定長度的鍵片段
func hashCombo(food string, diseases []string) string {
	h := sha256.Sum256([]byte(comboKey(food, diseases)))
	return hex.EncodeToString(h[:16])
}

// Append 追加記錄；快速分析同時更新最新快速分數鍵
func (s *RedisRecords) Append(ctx context.Context, record Record) error {
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now()
	}
	data, err := json.Marshal(&record)
	if err != nil {
		return fmt.Errorf("failed to marshal score record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.listKey(record.CanonicalFood, record.Diseases), data)
	if record.Mode == common.ModeQuick {
		pipe.Set(ctx, s.latestQuickKey(record.CanonicalFood, record.Diseases), record.Score, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append score record: %w", err)
	}
	return nil
}

// FindLatestQuick 查詢同組合的最新快速分析分數
func (s *RedisRecords) FindLatestQuick(ctx context.Context, canonicalFood string, diseases []string) (int, error) {
	val, err := s.client.Get(ctx, s.latestQuickKey(canonicalFood, diseases)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, common.ErrScoreRecordMiss
		}
		return 0, fmt.Errorf("failed to read latest quick score: %w", err)
	}
	score, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("corrupt latest quick score %q: %w", val, err)
	}
	return score, nil
}

// Close 關閉連線
func (s *RedisRecords) Close() error {
	return s.client.Close()
}
