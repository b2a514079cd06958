package score

import (
	"context"
	"errors"
	"testing"

	"food-analyzer/internal/pkg/common"
)

func TestFindLatestQuickMiss(t *testing.T) {
	store := NewMemoryRecords()
	_, err := store.FindLatestQuick(context.Background(), "kimchi-stew", []string{"diabetes"})
	if !errors.Is(err, common.ErrScoreRecordMiss) {
		t.Fatalf("expected ErrScoreRecordMiss, got %v", err)
	}
}

func TestFindLatestQuickReturnsMostRecent(t *testing.T) {
	store := NewMemoryRecords()
	ctx := context.Background()
	diseases := []string{"diabetes"}

	_ = store.Append(ctx, Record{CanonicalFood: "kimchi-stew", Diseases: diseases, Mode: common.ModeQuick, Score: 64})
	_ = store.Append(ctx, Record{CanonicalFood: "kimchi-stew", Diseases: diseases, Mode: common.ModeQuick, Score: 72})
	// full 記錄不影響快速分數查詢
	_ = store.Append(ctx, Record{CanonicalFood: "kimchi-stew", Diseases: diseases, Mode: common.ModeFull, Score: 58})
	// 不同疾病組合不串線
	_ = store.Append(ctx, Record{CanonicalFood: "kimchi-stew", Diseases: []string{"gout"}, Mode: common.ModeQuick, Score: 30})

	got, err := store.FindLatestQuick(ctx, "kimchi-stew", diseases)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != 72 {
		t.Fatalf("latest quick score = %d, want 72", got)
	}
}

func TestReconcileFullReusesQuickScore(t *testing.T) {
	store := NewMemoryRecords()
	ctx := context.Background()
	diseases := []string{"diabetes"}
	_ = store.Append(ctx, Record{CanonicalFood: "kimchi-stew", Diseases: diseases, Mode: common.ModeQuick, Score: 72})

	// 管線新算出 58，但完整分析必須沿用快速分析的 72
	got := Reconcile(ctx, store, "kimchi-stew", diseases, common.ModeFull, 58)
	if got != 72 {
		t.Fatalf("Reconcile = %d, want 72", got)
	}
}

func TestReconcileFullWithoutPriorQuick(t *testing.T) {
	store := NewMemoryRecords()
	got := Reconcile(context.Background(), store, "kimchi-stew", []string{"diabetes"}, common.ModeFull, 58)
	if got != 58 {
		t.Fatalf("Reconcile = %d, want fresh 58", got)
	}
}

func TestReconcileQuickKeepsFreshScore(t *testing.T) {
	store := NewMemoryRecords()
	ctx := context.Background()
	diseases := []string{"diabetes"}
	_ = store.Append(ctx, Record{CanonicalFood: "kimchi-stew", Diseases: diseases, Mode: common.ModeQuick, Score: 72})

	// quick 模式不做對帳
	got := Reconcile(ctx, store, "kimchi-stew", diseases, common.ModeQuick, 58)
	if got != 58 {
		t.Fatalf("Reconcile = %d, want 58", got)
	}
}
