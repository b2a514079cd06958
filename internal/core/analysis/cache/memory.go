package cache

import (
	"context"
	"sync"
	"time"

	"food-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryStore 行程內的指紋快取
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]*CachedResult
	stats cacheStats
}

// cacheStats 快取統計
type cacheStats struct {
	hits      int64
	misses    int64
	conflicts int64
	purged    int64
}

// NewMemoryStore 創建記憶體快取
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		store: make(map[string]*CachedResult),
	}
	common.LogInfo("記憶體指紋快取已初始化")
	return m
}

// Get 查詢指紋，命中時遞增命中計數
func (m *MemoryStore) Get(ctx context.Context, fingerprint string) (*CachedResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[fingerprint]
	if !exists {
		m.stats.misses++
		return nil, common.ErrCacheMiss
	}

	// 命中統計是查詢成功的可觀察副作用
	entry.HitCount++
	entry.LastHitAt = time.Now()
	m.stats.hits++

	copied := *entry
	return &copied, nil
}

// Put 寫入指紋條目，first writer wins
func (m *MemoryStore) Put(ctx context.Context, fingerprint string, result *CachedResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[fingerprint]; exists {
		m.stats.conflicts++
		common.LogInfo("快取寫入衝突，保留先寫入者",
			zap.String("指紋", fingerprint),
		)
		return common.ErrCacheConflict
	}

	now := time.Now()
	stored := *result
	stored.Fingerprint = fingerprint
	stored.HitCount = 1
	stored.CreatedAt = now
	stored.LastHitAt = now
	m.store[fingerprint] = &stored

	common.LogInfo("快取已儲存",
		zap.String("指紋", fingerprint),
		zap.String("食物", stored.CanonicalFood),
	)
	return nil
}

// Purge 依條件清除條目，回傳清除數量
func (m *MemoryStore) Purge(ctx context.Context, predicate func(*CachedResult) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for fp, entry := range m.store {
		if predicate(entry) {
			delete(m.store, fp)
			count++
			m.stats.purged++
		}
	}

	if count > 0 {
		common.LogInfo("快取清除執行",
			zap.Int("清除數量", count),
			zap.Int("剩餘條目", len(m.store)),
		)
	}
	return count, nil
}

// GetStats 獲取快取統計信息
func (m *MemoryStore) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := m.stats.hits + m.stats.misses
	hitRatio := 0.0
	if total > 0 {
		hitRatio = float64(m.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"size":      len(m.store),
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"conflicts": m.stats.conflicts,
		"purged":    m.stats.purged,
		"hit_ratio": hitRatio,
	}
}

// Close 關閉快取
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]*CachedResult)
	common.LogInfo("記憶體指紋快取已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("寫入衝突次數", m.stats.conflicts),
	)
	return nil
}
