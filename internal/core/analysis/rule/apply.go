package rule

import (
	"fmt"
	"strings"
)

const (
	// 分數下限刻意設為 10 而非 0：產品上不暗示任何食物「絕對禁止」
	scoreFloor   = 10
	scoreCeiling = 100
)

// Outcome 規則表路徑的計算結果
type Outcome struct {
	Score        int
	Summary      string
	GoodPoints   []string
	BadPoints    []string
	Warnings     []string
	ExpertAdvice string
}

// Apply 以條目的基準分數套用疾病與藥物調整
// 純計算、零 I/O，這條路徑存在的目的就是讓常見食物不必走昂貴的外部管線
func Apply(entry *Entry, diseases, medicines []string) *Outcome {
	out := &Outcome{
		Score:        entry.Baseline,
		Summary:      entry.Summary,
		GoodPoints:   append([]string(nil), entry.Pros...),
		BadPoints:    append([]string(nil), entry.Cons...),
		ExpertAdvice: entry.ExpertAdvice,
	}

	// 疾病調整：非 safe 等級的理由記為警告
	for _, disease := range diseases {
		adj, ok := entry.Diseases[disease]
		if !ok {
			continue
		}
		out.Score += adj.Delta
		if adj.Tier != RiskSafe && adj.Reason != "" {
			out.Warnings = append(out.Warnings, adj.Reason)
		}
	}

	// 藥物調整：藥名包含模式子字串即視為匹配
	for _, medicine := range medicines {
		name := strings.ToLower(medicine)
		for pattern, adj := range entry.Drugs {
			if strings.Contains(name, pattern) {
				out.Score += adj.Delta
				out.Warnings = append(out.Warnings, fmt.Sprintf("%s：%s", medicine, adj.Reason))
			}
		}
	}

	// 最終分數限制在 [10,100]
	if out.Score < scoreFloor {
		out.Score = scoreFloor
	}
	if out.Score > scoreCeiling {
		out.Score = scoreCeiling
	}
	return out
}
