package canonical

import (
	"sort"
	"strings"
)

// synonyms 固定同義詞表：正規化後的表面形式 → 標準鍵
// 標準鍵一律為小寫連字號格式；同一食物的中英文寫法收斂到同一個鍵，
// 這樣等價輸入才會命中同一筆規則與快取條目
var synonyms = map[string]string{
	// 白飯
	"rice":        "white-rice",
	"白飯":          "white-rice",
	"白米飯":         "white-rice",
	"米飯":          "white-rice",
	"steamed-rice": "white-rice",

	// 水
	"水":             "water",
	"開水":            "water",
	"plain-water":   "water",
	"drinking-water": "water",

	// 蛋
	"eggs":   "egg",
	"雞蛋":     "egg",
	"蛋":      "egg",
	"boiled-egg": "egg",

	// 泡麵
	"ramen":          "instant-noodles",
	"泡麵":             "instant-noodles",
	"速食麵":            "instant-noodles",
	"instant-noodle": "instant-noodles",
	"instant-ramen":  "instant-noodles",

	// 泡菜鍋
	"kimchi-jjigae": "kimchi-stew",
	"泡菜鍋":           "kimchi-stew",
	"泡菜湯":           "kimchi-stew",

	// 其他常見寫法
	"香蕉":           "banana",
	"鮭魚":           "salmon",
	"三文魚":          "salmon",
	"菠菜":           "spinach",
	"豆腐":           "tofu",
	"地瓜":           "sweet-potato",
	"番薯":           "sweet-potato",
	"馬鈴薯":          "potato",
	"土豆":           "potato",
	"五花肉":          "pork-belly",
	"葡萄柚":          "grapefruit",
	"西柚":           "grapefruit",
	"牛奶":           "milk",
	"鮮奶":           "milk",
	"白吐司":          "white-bread",
	"吐司":           "white-bread",
	"toast":        "white-bread",
	"雞胸肉":          "chicken-breast",
	"chicken-breasts": "chicken-breast",
}

// Canonicalize 將自由輸入的食物名稱映射到穩定的標準鍵
// 全函數、決定性、冪等：標準形式自身再經過一次轉換仍是同一個鍵
func Canonicalize(raw string) string {
	key := normalize(raw)
	if mapped, ok := synonyms[key]; ok {
		return mapped
	}
	return key
}

// CanonicalSet 正規化疾病或藥物集合：逐項 trim、小寫、去重後排序
// 指紋計算與分數記錄都依賴這個順序無關的表示
func CanonicalSet(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := normalize(item)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// normalize 修剪、小寫並將內部空白收斂為連字號
func normalize(raw string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	return strings.Join(fields, "-")
}
