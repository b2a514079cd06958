package score

import (
	"context"
	"strings"
	"sync"
	"time"

	"food-analyzer/internal/pkg/common"
)

// Record 分數記錄：每次實際呈現給使用者的分析各留一筆
// 只新增不修改；唯一用途是讓之後的完整分析查回同組合的快速分析分數
type Record struct {
	CanonicalFood string              `json:"canonical_food"`
	Diseases      []string            `json:"diseases"` // 已排序去重
	Mode          common.AnalysisMode `json:"mode"`
	Score         int                 `json:"score"`
	RecordedAt    time.Time           `json:"recorded_at"`
}

// RecordStore 分數記錄的窄介面
// FindLatestQuick 查無記錄時回傳 common.ErrScoreRecordMiss
type RecordStore interface {
	Append(ctx context.Context, record Record) error
	FindLatestQuick(ctx context.Context, canonicalFood string, diseases []string) (int, error)
	Close() error
}

// comboKey (食物, 疾病集合) 的複合鍵
func comboKey(canonicalFood string, diseases []string) string {
	return canonicalFood + "|" + strings.Join(diseases, ",")
}

// MemoryRecords 行程內的分數記錄
type MemoryRecords struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryRecords 創建記憶體分數記錄
func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{}
}

// Append 追加一筆記錄
func (m *MemoryRecords) Append(ctx context.Context, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now()
	}
	m.records = append(m.records, record)
	return nil
}

// FindLatestQuick 從最新往回找同組合的快速分析分數
func (m *MemoryRecords) FindLatestQuick(ctx context.Context, canonicalFood string, diseases []string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := comboKey(canonicalFood, diseases)
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.Mode != common.ModeQuick {
			continue
		}
		if comboKey(r.CanonicalFood, r.Diseases) == key {
			return r.Score, nil
		}
	}
	return 0, common.ErrScoreRecordMiss
}

// Size 回傳記錄筆數
func (m *MemoryRecords) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Close 關閉記錄存放區
func (m *MemoryRecords) Close() error {
	return nil
}
