package common

import (
	"fmt"
	"strings"
)

// AnalysisMode 分析深度
// quick 為快速分析，full 為完整分析；兩者對同一食物與疾病組合必須給出一致的分數
type AnalysisMode string

const (
	ModeQuick AnalysisMode = "quick"
	ModeFull  AnalysisMode = "full"
)

// ParseAnalysisMode 解析分析深度，空字串視為 quick
func ParseAnalysisMode(s string) (AnalysisMode, bool) {
	switch AnalysisMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeQuick, "":
		return ModeQuick, true
	case ModeFull:
		return ModeFull, true
	default:
		return "", false
	}
}

// SourceTier 標記回應最終由哪一層產生
type SourceTier string

const (
	TierRule     SourceTier = "rule"     // 靜態規則表
	TierCache    SourceTier = "cache"    // 指紋快取
	TierComputed SourceTier = "computed" // 外部分析管線
)

// NutritionRow 營養成分查詢結果的單列資料
type NutritionRow struct {
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Serving  string            `json:"serving"`
	Values   map[string]string `json:"values"` // 營養素 → 含量（含單位）
}

// ProductRow 健康食品 / 管制產品查詢結果的單列資料
type ProductRow struct {
	Name        string `json:"name"`
	Vendor      string `json:"vendor"`
	ApprovalID  string `json:"approval_id"`
	HealthClaim string `json:"health_claim"`
	Warning     string `json:"warning"`
}

// RecipeRow 料理建議查詢結果的單列資料
type RecipeRow struct {
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	Tips        string   `json:"tips"`
}

// --- 成分分析 ---

// Component 食物中與健康相關的成分
type Component struct {
	Name        string   `json:"name"`         // 成分名稱
	Category    string   `json:"category"`     // 分類（如：碳水化合物、鈉、嘌呤等）
	Effect      string   `json:"effect"`       // 對健康的影響說明
	RiskFactors []string `json:"risk_factors"` // 相關風險因子
}

// ComponentBreakdown 成分分析結果
type ComponentBreakdown struct {
	Components []Component `json:"components"`
	Summary    string      `json:"summary"`
}

// --- 交互作用分析 ---

// InteractionRisk 藥物交互作用風險等級
type InteractionRisk string

const (
	InteractionSafe    InteractionRisk = "safe"
	InteractionCaution InteractionRisk = "caution"
	InteractionDanger  InteractionRisk = "danger"
)

// InteractionFinding 單一藥物的交互作用判定
type InteractionFinding struct {
	Medicine    string          `json:"medicine"`
	Risk        InteractionRisk `json:"risk"`
	Components  []string        `json:"components"`  // 涉及的成分
	Explanation string          `json:"explanation"` // 判定理由
}

// InteractionReport 交互作用分析結果
type InteractionReport struct {
	Findings       []InteractionFinding `json:"findings"`
	OverallCaution string               `json:"overall_caution"`
}

// --- 最終總結 ---

// FinalAnalysis 總結分析結果，為對使用者呈現的最終內容
type FinalAnalysis struct {
	Score        int      `json:"score"` // 0-100
	Summary      string   `json:"summary"`
	GoodPoints   []string `json:"good_points"`
	BadPoints    []string `json:"bad_points"`
	Warnings     []string `json:"warnings"`
	ExpertAdvice string   `json:"expert_advice"`
}

// FormatNutritionRows 格式化營養成分列表，供提示詞使用
func FormatNutritionRows(rows []NutritionRow) string {
	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("- %s (%s) 每%s：", row.Name, row.Category, row.Serving))
		var parts []string
		for k, v := range row.Values {
			parts = append(parts, fmt.Sprintf("%s %s", k, v))
		}
		sb.WriteString(strings.Join(parts, "、"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatProductRows 格式化管制產品列表，供提示詞使用
func FormatProductRows(rows []ProductRow) string {
	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("- %s（%s）許可證號 %s：%s", row.Name, row.Vendor, row.ApprovalID, row.HealthClaim))
		if row.Warning != "" {
			sb.WriteString(fmt.Sprintf("，警語：%s", row.Warning))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatRecipeRows 格式化料理建議列表，供提示詞使用
func FormatRecipeRows(rows []RecipeRow) string {
	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("- %s：用料 %s", row.Title, strings.Join(row.Ingredients, "、")))
		if row.Tips != "" {
			sb.WriteString(fmt.Sprintf("，要點：%s", row.Tips))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
