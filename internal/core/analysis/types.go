package analysis

import (
	"strings"

	"food-analyzer/internal/pkg/common"
)

// Request 單次分析請求，建構後不再修改
type Request struct {
	FoodName    string              `json:"food_name"`
	Diseases    []string            `json:"diseases"`
	Medicines   []string            `json:"medicines"`
	Mode        common.AnalysisMode `json:"mode"`
	RequesterID string              `json:"requester_id,omitempty"` // 透傳欄位，引擎不解讀
}

// Validate 在任何 I/O 之前擋下無效請求
func (r *Request) Validate() error {
	if strings.TrimSpace(r.FoodName) == "" {
		return common.NewError(common.ErrCodeInvalidRequest, "食物名稱不可為空", 400, nil)
	}
	if _, ok := common.ParseAnalysisMode(string(r.Mode)); !ok {
		return common.NewError(common.ErrCodeInvalidRequest, "未知的分析深度", 400, nil)
	}
	return nil
}

// Result 對外回傳的分析結果，依來源層從規則條目、快取條目或新計算組裝
type Result struct {
	Score        int               `json:"score"`
	Summary      string            `json:"summary"`
	GoodPoints   []string          `json:"good_points"`
	BadPoints    []string          `json:"bad_points"`
	Warnings     []string          `json:"warnings"`
	ExpertAdvice string            `json:"expert_advice"`
	SourceTier   common.SourceTier `json:"source_tier"`
	Cached       bool              `json:"cached"`
	HitCount     int64             `json:"hit_count,omitempty"`
	Degraded     []string          `json:"degraded,omitempty"`
}
