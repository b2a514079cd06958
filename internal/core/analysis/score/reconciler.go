package score

import (
	"context"
	"errors"

	"food-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// Reconcile 讓兩種分析深度對同一 (食物, 疾病組合) 不會給出不同分數
//
// 完整分析會重算整份敘述，但分數必須沿用先前快速分析的結果——
// 使用者已經看過那個數字，同一個食物忽然變分數是產品上不可接受的。
// 查無快速記錄或查詢失敗時退回新計算的分數。
func Reconcile(ctx context.Context, store RecordStore, canonicalFood string, diseases []string, mode common.AnalysisMode, freshScore int) int {
	if mode != common.ModeFull {
		return freshScore
	}

	prior, err := store.FindLatestQuick(ctx, canonicalFood, diseases)
	if err != nil {
		if !errors.Is(err, common.ErrScoreRecordMiss) {
			common.LogWarn("快速分數查詢失敗，沿用新計算分數",
				zap.String("食物", canonicalFood),
				zap.Error(err),
			)
		}
		return freshScore
	}

	if prior != freshScore {
		common.LogInfo("完整分析沿用先前的快速分析分數",
			zap.String("食物", canonicalFood),
			zap.Int("快速分數", prior),
			zap.Int("新計算分數", freshScore),
		)
	}
	return prior
}
