package rule

// RiskTier 疾病調整的風險等級
type RiskTier string

const (
	RiskSafe      RiskTier = "safe"
	RiskCaution   RiskTier = "caution"
	RiskWarning   RiskTier = "warning"
	RiskRecommend RiskTier = "recommend"
)

// DiseaseAdjustment 單一疾病對基準分數的調整
type DiseaseAdjustment struct {
	Delta  int
	Tier   RiskTier
	Reason string
}

// DrugAdjustment 藥物名稱模式對基準分數的調整
type DrugAdjustment struct {
	Delta  int
	Reason string
}

// Entry 規則表條目：常見食物的基準評價與各疾病、藥物的調整
type Entry struct {
	Food         string
	Baseline     int // 0-100
	Summary      string
	Pros         []string
	Cons         []string
	ExpertAdvice string
	Diseases     map[string]DiseaseAdjustment
	Drugs        map[string]DrugAdjustment // 鍵為藥名子字串模式
}

// Table 靜態規則表，啟動時載入後唯讀，查詢不需要加鎖
type Table struct {
	entries map[string]*Entry
	order   []string // 插入順序，子字串回退查詢依此決定先後
}

// NewTable 建立內建資料集的規則表
func NewTable() *Table {
	t := &Table{entries: make(map[string]*Entry)}
	for i := range builtinEntries {
		e := &builtinEntries[i]
		t.entries[e.Food] = e
		t.order = append(t.order, e.Food)
	}
	return t
}

// Lookup 查詢規則條目
// 先做精確比對；未命中時回退為「標準鍵是已知規則鍵的子字串」，
// 取插入順序中的第一筆。已知限制：回退可能多重匹配（如 sweet-potato
// 同時含 potato），目前以先到者為準
func (t *Table) Lookup(canonicalFood string) (*Entry, bool) {
	if canonicalFood == "" {
		return nil, false
	}
	if e, ok := t.entries[canonicalFood]; ok {
		return e, true
	}
	for _, key := range t.order {
		if contains(key, canonicalFood) || contains(canonicalFood, key) {
			return t.entries[key], true
		}
	}
	return nil, false
}

// Size 回傳條目數
func (t *Table) Size() int {
	return len(t.entries)
}

func contains(s, sub string) bool {
	return len(sub) > 0 && len(s) >= len(sub) && indexOf(s, sub) >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// builtinEntries 內建規則資料
// 分數與調整值對齊產品端的評分基準：白飯基準 70、糖尿病 -20，水基準 95
var builtinEntries = []Entry{
	{
		Food:     "white-rice",
		Baseline: 70,
		Summary:  "精製澱粉主食，熱量來源穩定但升糖指數偏高",
		Pros:     []string{"容易消化", "低脂肪", "不含麩質"},
		Cons:     []string{"升糖指數高", "膳食纖維少", "微量營養素有限"},
		ExpertAdvice: "建議搭配蔬菜與蛋白質一起進食，減緩血糖上升；可部分替換為糙米",
		Diseases: map[string]DiseaseAdjustment{
			"diabetes":     {Delta: -20, Tier: RiskCaution, Reason: "白飯升糖指數高，糖尿病患者應控制份量"},
			"hypertension": {Delta: 0, Tier: RiskSafe, Reason: "對血壓無直接影響"},
		},
		Drugs: map[string]DrugAdjustment{
			"insulin": {Delta: -10, Reason: "大量精製澱粉會增加胰島素劑量調整的難度"},
		},
	},
	{
		Food:     "water",
		Baseline: 95,
		Summary:  "零熱量的基本水分來源，幾乎適合所有人",
		Pros:     []string{"零熱量", "維持代謝必需", "無添加物"},
		Cons:     []string{},
		ExpertAdvice: "每日建議飲水量約體重(kg)×30ml，腎臟病患者請依醫囑調整",
		Diseases: map[string]DiseaseAdjustment{},
		Drugs:    map[string]DrugAdjustment{},
	},
	{
		Food:     "egg",
		Baseline: 80,
		Summary:  "優質蛋白質來源，膽固醇含量曾有爭議但整體營養價值高",
		Pros:     []string{"完整蛋白質", "富含卵磷脂", "飽足感佳"},
		Cons:     []string{"蛋黃膽固醇較高"},
		ExpertAdvice: "一般人每日 1-2 顆無虞，高血脂患者以全蛋每日一顆為宜",
		Diseases: map[string]DiseaseAdjustment{
			"hyperlipidemia": {Delta: -15, Tier: RiskCaution, Reason: "蛋黃膽固醇較高，高血脂患者應注意總量"},
		},
		Drugs: map[string]DrugAdjustment{},
	},
	{
		Food:     "banana",
		Baseline: 85,
		Summary:  "高鉀水果，能量補充方便",
		Pros:     []string{"富含鉀", "幫助腸道蠕動", "攜帶方便"},
		Cons:     []string{"含糖量不低"},
		ExpertAdvice: "運動後補充佳；腎功能不全者須留意鉀攝取",
		Diseases: map[string]DiseaseAdjustment{
			"kidney-disease": {Delta: -25, Tier: RiskWarning, Reason: "高鉀食物，腎功能不全者可能造成高血鉀"},
			"diabetes":       {Delta: -10, Tier: RiskCaution, Reason: "熟香蕉含糖量高，注意份量"},
		},
		Drugs: map[string]DrugAdjustment{
			"spironolactone": {Delta: -20, Reason: "保鉀利尿劑併用高鉀食物，增加高血鉀風險"},
		},
	},
	{
		Food:     "instant-noodles",
		Baseline: 40,
		Summary:  "高鈉高脂的加工主食，營養密度低",
		Pros:     []string{"便利", "保存期長"},
		Cons:     []string{"鈉含量極高", "油脂品質不佳", "缺乏蔬菜蛋白質"},
		ExpertAdvice: "調味包減半、加蛋加青菜可稍作補救，不建議常吃",
		Diseases: map[string]DiseaseAdjustment{
			"hypertension":   {Delta: -15, Tier: RiskWarning, Reason: "單份鈉含量可達每日上限八成，高血壓患者應避免"},
			"kidney-disease": {Delta: -15, Tier: RiskWarning, Reason: "高鈉與磷酸鹽添加物加重腎臟負擔"},
		},
		Drugs: map[string]DrugAdjustment{},
	},
	{
		Food:     "salmon",
		Baseline: 88,
		Summary:  "富含 omega-3 的優質魚類蛋白",
		Pros:     []string{"omega-3 脂肪酸", "優質蛋白", "富含維生素D"},
		Cons:     []string{"嘌呤含量中等"},
		ExpertAdvice: "每週 2-3 份有益心血管；痛風急性期減量",
		Diseases: map[string]DiseaseAdjustment{
			"gout":           {Delta: -20, Tier: RiskCaution, Reason: "中高嘌呤，痛風患者急性期應避免"},
			"hyperlipidemia": {Delta: 5, Tier: RiskRecommend, Reason: "omega-3 有助改善血脂"},
		},
		Drugs: map[string]DrugAdjustment{
			"warfarin": {Delta: -10, Reason: "高劑量魚油可能增強抗凝血作用"},
		},
	},
	{
		Food:     "spinach",
		Baseline: 90,
		Summary:  "營養密度高的深綠色蔬菜",
		Pros:     []string{"富含葉酸與鐵", "高纖低熱量", "富含維生素K"},
		Cons:     []string{"草酸含量高"},
		ExpertAdvice: "先汆燙可去除部分草酸；服用抗凝血藥者維持攝取量穩定即可，不必完全避免",
		Diseases: map[string]DiseaseAdjustment{
			"kidney-disease": {Delta: -20, Tier: RiskCaution, Reason: "高草酸食物，腎結石與腎功能不全者須注意"},
		},
		Drugs: map[string]DrugAdjustment{
			"warfarin": {Delta: -25, Reason: "維生素K會拮抗 warfarin 的抗凝血效果，攝取量改變須告知醫師"},
		},
	},
	{
		Food:     "tofu",
		Baseline: 85,
		Summary:  "植物性蛋白的主要來源，低飽和脂肪",
		Pros:     []string{"植物性蛋白", "含大豆異黃酮", "低飽和脂肪"},
		Cons:     []string{"嘌呤含量中等"},
		ExpertAdvice: "痛風緩解期適量食用無虞；傳統豆腐鈣含量較高",
		Diseases: map[string]DiseaseAdjustment{
			"gout": {Delta: -10, Tier: RiskCaution, Reason: "中等嘌呤，急性期注意份量"},
		},
		Drugs: map[string]DrugAdjustment{},
	},
	{
		Food:     "sweet-potato",
		Baseline: 82,
		Summary:  "富含纖維的根莖類主食，升糖負荷低於白飯",
		Pros:     []string{"膳食纖維豐富", "富含β-胡蘿蔔素", "飽足感佳"},
		Cons:     []string{"仍屬澱粉類"},
		ExpertAdvice: "替換部分精製主食是好選擇，連皮吃纖維更多",
		Diseases: map[string]DiseaseAdjustment{
			"diabetes": {Delta: -12, Tier: RiskCaution, Reason: "屬澱粉類，須計入醣類總量"},
		},
		Drugs: map[string]DrugAdjustment{},
	},
	{
		Food:     "potato",
		Baseline: 78,
		Summary:  "常見澱粉類主食，料理方式決定健康程度",
		Pros:     []string{"富含鉀", "飽足感佳"},
		Cons:     []string{"油炸後熱量倍增", "升糖指數偏高"},
		ExpertAdvice: "水煮或烤優於油炸；腎臟病患者注意鉀含量",
		Diseases: map[string]DiseaseAdjustment{
			"diabetes":       {Delta: -10, Tier: RiskCaution, Reason: "升糖指數偏高，注意份量與料理方式"},
			"kidney-disease": {Delta: -15, Tier: RiskCaution, Reason: "鉀含量較高"},
		},
		Drugs: map[string]DrugAdjustment{},
	},
	{
		Food:     "pork-belly",
		Baseline: 55,
		Summary:  "高飽和脂肪的紅肉部位，美味但負擔重",
		Pros:     []string{"蛋白質與維生素B群"},
		Cons:     []string{"飽和脂肪極高", "熱量密度高"},
		ExpertAdvice: "以瘦肉部位替換，或減少頻率與份量",
		Diseases: map[string]DiseaseAdjustment{
			"hyperlipidemia": {Delta: -20, Tier: RiskWarning, Reason: "飽和脂肪會直接推升低密度膽固醇"},
			"hypertension":   {Delta: -10, Tier: RiskCaution, Reason: "常見料理方式鈉含量偏高"},
		},
		Drugs: map[string]DrugAdjustment{},
	},
	{
		Food:     "grapefruit",
		Baseline: 85,
		Summary:  "維生素C豐富的柑橘類，但與多種藥物有交互作用",
		Pros:     []string{"維生素C豐富", "低熱量"},
		Cons:     []string{"抑制肝臟 CYP3A4 酵素"},
		ExpertAdvice: "服用降血脂或降血壓藥物期間，請先確認是否可食用葡萄柚",
		Diseases: map[string]DiseaseAdjustment{},
		Drugs: map[string]DrugAdjustment{
			"statin":     {Delta: -30, Reason: "葡萄柚會抑制 statin 類藥物代謝，增加肌肉病變風險"},
			"amlodipine": {Delta: -20, Reason: "葡萄柚會增強鈣離子阻斷劑的降壓效果"},
		},
	},
	{
		Food:     "milk",
		Baseline: 82,
		Summary:  "鈣質與蛋白質的便利來源",
		Pros:     []string{"高鈣", "優質蛋白"},
		Cons:     []string{"乳糖不耐者易腹瀉"},
		ExpertAdvice: "乳糖不耐者可改喝優酪乳或無乳糖牛奶",
		Diseases: map[string]DiseaseAdjustment{
			"kidney-disease": {Delta: -10, Tier: RiskCaution, Reason: "磷含量較高，晚期腎病須控制"},
		},
		Drugs: map[string]DrugAdjustment{
			"tetracycline": {Delta: -15, Reason: "鈣會螯合四環黴素類抗生素，降低藥效，服藥前後兩小時避免"},
		},
	},
	{
		Food:     "white-bread",
		Baseline: 60,
		Summary:  "精製麵粉製品，升糖快且營養單一",
		Pros:     []string{"方便取得"},
		Cons:     []string{"升糖指數高", "纖維少", "常含額外糖與油"},
		ExpertAdvice: "改選全麥或雜糧麵包，血糖波動較小",
		Diseases: map[string]DiseaseAdjustment{
			"diabetes": {Delta: -15, Tier: RiskCaution, Reason: "精製澱粉升糖快"},
		},
		Drugs: map[string]DrugAdjustment{},
	},
	{
		Food:     "chicken-breast",
		Baseline: 90,
		Summary:  "低脂高蛋白的代表性食材",
		Pros:     []string{"高蛋白低脂", "嘌呤相對較低", "價格實惠"},
		Cons:     []string{"料理不當容易乾柴"},
		ExpertAdvice: "適合大多數慢性病患者的蛋白質來源",
		Diseases: map[string]DiseaseAdjustment{
			"diabetes":       {Delta: 5, Tier: RiskRecommend, Reason: "優質蛋白有助血糖穩定"},
			"hyperlipidemia": {Delta: 5, Tier: RiskRecommend, Reason: "以白肉替換紅肉有助改善血脂"},
		},
		Drugs: map[string]DrugAdjustment{},
	},
}
