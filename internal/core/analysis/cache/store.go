package cache

import (
	"context"
	"encoding/json"
	"time"
)

// CachedResult 指紋快取條目
// 首次計算成功時寫入，之後除了命中統計外不再變動；
// 沒有 TTL，條目有效直到被 Purge 明確清除
type CachedResult struct {
	Fingerprint   string          `json:"fingerprint"`
	CanonicalFood string          `json:"canonical_food"`
	Score         int             `json:"score"`
	Summary       string          `json:"summary"`
	Detail        json.RawMessage `json:"detail"` // 完整分析文件，快取層不解讀內容
	HitCount      int64           `json:"hit_count"`
	CreatedAt     time.Time       `json:"created_at"`
	LastHitAt     time.Time       `json:"last_hit_at"`
}

// Store 指紋快取的窄介面
//
// Get 命中時遞增 HitCount 並更新 LastHitAt，未命中回傳 common.ErrCacheMiss。
// Put 採 first-writer-wins：同一指紋已存在時回傳 common.ErrCacheConflict，
// 呼叫端應改為重新讀取現有條目，確保昂貴的管線每個指紋最多執行一次。
// Purge 供維運端依條件清除條目。
type Store interface {
	Get(ctx context.Context, fingerprint string) (*CachedResult, error)
	Put(ctx context.Context, fingerprint string, result *CachedResult) error
	Purge(ctx context.Context, predicate func(*CachedResult) bool) (int, error)
	Close() error
}
