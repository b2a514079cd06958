package rule

import (
	"strings"
	"testing"
)

func TestLookupExact(t *testing.T) {
	table := NewTable()
	entry, ok := table.Lookup("white-rice")
	if !ok {
		t.Fatal("expected white-rice rule entry")
	}
	if entry.Baseline != 70 {
		t.Fatalf("white-rice baseline = %d, want 70", entry.Baseline)
	}
}

func TestLookupSubstringFallback(t *testing.T) {
	table := NewTable()
	// fried-egg 不是精確鍵，但包含已知鍵 egg
	entry, ok := table.Lookup("fried-egg")
	if !ok {
		t.Fatal("expected substring fallback to match egg")
	}
	if entry.Food != "egg" {
		t.Fatalf("fallback matched %q, want egg", entry.Food)
	}
}

func TestLookupMiss(t *testing.T) {
	table := NewTable()
	if _, ok := table.Lookup("durian-pizza"); ok {
		t.Fatal("unexpected rule hit for unknown food")
	}
	if _, ok := table.Lookup(""); ok {
		t.Fatal("empty key must miss")
	}
}

func TestApplyDiabetesAdjustment(t *testing.T) {
	table := NewTable()
	entry, _ := table.Lookup("white-rice")
	out := Apply(entry, []string{"diabetes"}, nil)
	if out.Score != 50 {
		t.Fatalf("white-rice + diabetes = %d, want 50", out.Score)
	}
	if len(out.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", out.Warnings)
	}
}

func TestApplyNoAdjustments(t *testing.T) {
	table := NewTable()
	entry, _ := table.Lookup("water")
	out := Apply(entry, nil, nil)
	if out.Score != 95 {
		t.Fatalf("water = %d, want 95", out.Score)
	}
	if len(out.Warnings) != 0 {
		t.Fatalf("water should carry no warnings, got %v", out.Warnings)
	}
}

func TestApplySafeTierNoWarning(t *testing.T) {
	table := NewTable()
	entry, _ := table.Lookup("white-rice")
	out := Apply(entry, []string{"hypertension"}, nil)
	if out.Score != 70 {
		t.Fatalf("score = %d, want 70", out.Score)
	}
	if len(out.Warnings) != 0 {
		t.Fatalf("safe tier must not produce warnings, got %v", out.Warnings)
	}
}

func TestApplyDrugPatternMatch(t *testing.T) {
	table := NewTable()
	entry, _ := table.Lookup("grapefruit")
	// atorvastatin 含 statin 模式
	out := Apply(entry, nil, []string{"Atorvastatin"})
	if out.Score != 55 {
		t.Fatalf("grapefruit + atorvastatin = %d, want 55", out.Score)
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "statin") {
		t.Fatalf("expected statin interaction warning, got %v", out.Warnings)
	}
}

func TestApplyClampFloor(t *testing.T) {
	entry := &Entry{
		Food:     "test-food",
		Baseline: 30,
		Diseases: map[string]DiseaseAdjustment{
			"diabetes":     {Delta: -40, Tier: RiskWarning, Reason: "w1"},
			"hypertension": {Delta: -40, Tier: RiskWarning, Reason: "w2"},
		},
	}
	out := Apply(entry, []string{"diabetes", "hypertension"}, nil)
	if out.Score != 10 {
		t.Fatalf("score = %d, want clamped to 10", out.Score)
	}
}

func TestApplyClampFloorBuiltin(t *testing.T) {
	table := NewTable()
	entry, _ := table.Lookup("instant-noodles")
	// 40 -15 -15 = 10，正好落在下限
	out := Apply(entry, []string{"hypertension", "kidney-disease"}, nil)
	if out.Score != 10 {
		t.Fatalf("score = %d, want 10", out.Score)
	}
}

func TestApplyClampCeiling(t *testing.T) {
	table := NewTable()
	entry, _ := table.Lookup("chicken-breast")
	out := Apply(entry, []string{"diabetes", "hyperlipidemia"}, nil)
	if out.Score != 100 {
		t.Fatalf("score = %d, want clamped to 100", out.Score)
	}
}
