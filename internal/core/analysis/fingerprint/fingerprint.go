package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Compute 對 (標準食物鍵, 疾病集合, 藥物集合, 分析深度) 計算決定性指紋
// 集合在雜湊前先排序並去重，順序與重複項不影響結果；
// 這是整個引擎的核心不變量：邏輯等價的請求必須落在同一個快取鍵上
func Compute(canonicalFood string, diseases, medicines []string, mode string) string {
	hasher := sha256.New()
	write := func(parts ...string) {
		for _, part := range parts {
			_, _ = hasher.Write([]byte(part))
			_, _ = hasher.Write([]byte{0})
		}
	}

	write("food", canonicalFood)
	write("diseases")
	write(normalizeSet(diseases)...)
	write("medicines")
	write(normalizeSet(medicines)...)
	write("mode", mode)

	return hex.EncodeToString(hasher.Sum(nil))
}

// normalizeSet 修剪、小寫、去重後排序
func normalizeSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.ToLower(strings.TrimSpace(v))
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		cleaned = append(cleaned, trimmed)
	}
	sort.Strings(cleaned)
	return cleaned
}
